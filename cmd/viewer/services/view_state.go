package services

import (
	"slices"
	"sort"
	"sync"
)

// ViewState 는 한 사용자의 화면 상태다. 프로세스 수명 동안 메모리에만 있다.
type ViewState struct {
	// ActiveChatID 는 현재 표시 중인 대화. 새 대화면 아직 백엔드에 없는 UUID 다.
	ActiveChatID    string
	IsNewChat       bool
	ComposerEnabled bool
	// Sending 은 전송 버튼 비활성화에 해당하는 in-flight 플래그다.
	Sending bool
	History []string
}

func (s ViewState) clone() ViewState {
	s.History = slices.Clone(s.History)
	return s
}

type ViewStateStore struct {
	mu     sync.Mutex
	states map[string]*ViewState
}

func NewViewStateStore() *ViewStateStore {
	return &ViewStateStore{states: make(map[string]*ViewState)}
}

// Get 은 userID 의 상태 사본을 돌려준다. 처음 보는 사용자면 빈 상태.
func (s *ViewStateStore) Get(userID string) ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.states[userID]; ok {
		return st.clone()
	}
	return ViewState{}
}

// Update 는 잠금을 잡은 채 fn 을 실행한다. fn 이 돌려준 오류는 그대로 전달된다.
func (s *ViewStateStore) Update(userID string, fn func(*ViewState) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[userID]
	if !ok {
		st = &ViewState{}
		s.states[userID] = st
	}
	return fn(st)
}

// Touch 는 사용자를 알려진 사용자로 등록만 한다.
func (s *ViewStateStore) Touch(userID string) {
	_ = s.Update(userID, func(*ViewState) error { return nil })
}

// Users 는 지금까지 본 사용자 ID 를 정렬해 돌려준다.
func (s *ViewStateStore) Users() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]string, 0, len(s.states))
	for id := range s.states {
		users = append(users, id)
	}
	sort.Strings(users)
	return users
}

// maxHistory 를 넘으면 가장 오래된 경로부터 버린다.
const maxHistory = 50

// pushRoute 는 맨 위와 같은 경로를 다시 쌓지 않는다.
func (st *ViewState) pushRoute(route string) {
	if n := len(st.History); n > 0 && st.History[n-1] == route {
		return
	}
	st.History = append(st.History, route)
	if n := len(st.History); n > maxHistory {
		st.History = slices.Clone(st.History[n-maxHistory:])
	}
}
