package services

import (
	"context"
	"sync/atomic"
	"time"

	"chat-viewer/cmd/internal/logger"
)

// Pinger 는 백엔드 도달 여부만 확인한다. HTTP 응답이 오면 상태 코드와 무관하게 온라인이다.
type Pinger interface {
	Ping(ctx context.Context, userID string) error
}

// ConnectivityMonitor 는 백엔드를 주기적으로 점검해 온라인 여부를 갱신한다.
// 오프라인에서 온라인으로 바뀌면 지금까지 본 모든 사용자의 목록을 다시 불러온다.
type ConnectivityMonitor struct {
	pinger    Pinger
	viewer    *ViewerService
	probeUser string
	interval  time.Duration
	timeout   time.Duration

	online atomic.Bool
}

func NewConnectivityMonitor(pinger Pinger, viewer *ViewerService, probeUserID string, interval time.Duration) *ConnectivityMonitor {
	m := &ConnectivityMonitor{
		pinger:    pinger,
		viewer:    viewer,
		probeUser: probeUserID,
		interval:  interval,
		timeout:   5 * time.Second,
	}
	m.online.Store(true)
	return m
}

func (m *ConnectivityMonitor) Online() bool { return m.online.Load() }

// Check 는 한 번 점검하고 현재 온라인 여부를 돌려준다.
func (m *ConnectivityMonitor) Check(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, m.timeout)
	err := m.pinger.Ping(probeCtx, m.probeUser)
	cancel()

	online := err == nil
	was := m.online.Swap(online)
	switch {
	case was && !online:
		logger.WarnWithFields("backend offline", logger.Fields{"error": err.Error()})
	case !was && online:
		logger.InfoWithFields("backend back online", logger.Fields{})
		m.recover(ctx)
	}
	return online
}

func (m *ConnectivityMonitor) recover(ctx context.Context) {
	for _, userID := range m.viewer.States().Users() {
		if _, err := m.viewer.LoadChats(ctx, userID); err != nil {
			logger.ErrorWithFields("recovery refresh failed", logger.Fields{"user_id": userID, "error": err.Error()})
		}
	}
}

// Run 은 ctx 가 끝날 때까지 interval 마다 Check 를 호출한다. interval 이 0 이하면 바로 반환한다.
func (m *ConnectivityMonitor) Run(ctx context.Context) {
	if m.interval <= 0 {
		return
	}
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}
