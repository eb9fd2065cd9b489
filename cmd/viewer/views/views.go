// Package views renders the viewer pages and the HTML fragments swapped in by viewer.js.
package views

import (
	"embed"
	"encoding/json"
	"html/template"
	"io"
	"io/fs"
	"net/url"

	"chat-viewer/cmd/viewer/dto"
	"chat-viewer/cmd/viewer/formatter"
	"chat-viewer/cmd/viewer/services"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Static 은 /static 으로 서빙되는 CSS/JS 다.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

type Options struct {
	Title          string
	BreakpointPx   int
	StylesheetHref string
	// IconHref 가 비어 있으면 아이콘 링크를 내보내지 않는다.
	IconHref string
	// Sanitize 가 참이면 포맷된 메시지 본문을 bluemonday 로 정리한다.
	Sanitize bool
}

type Renderer struct {
	opts      Options
	tmpl      *template.Template
	sanitizer *Sanitizer
}

func New(opts Options) (*Renderer, error) {
	if opts.BreakpointPx <= 0 {
		opts.BreakpointPx = 768
	}
	tmpl, err := template.New("views").Funcs(template.FuncMap{
		"formatDate":   formatter.FormatDate,
		"chatRoute":    services.ChatRoute,
		"newChatRoute": services.NewChatRoute,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	r := &Renderer{opts: opts, tmpl: tmpl}
	if opts.Sanitize {
		r.sanitizer = NewSanitizer()
	}
	return r, nil
}

// messageItem 은 템플릿 하나가 메시지 하나를 그릴 때 필요한 값을 모은다.
type messageItem struct {
	dto.Message
	Body      template.HTML
	EditText  string
	EditURL   string
	SaveURL   string
	CancelURL string
}

type sendFragment struct {
	User      messageItem
	Assistant messageItem
}

type page struct {
	Title          string
	StylesheetHref string
	IconHref       string
	BreakpointPx   int
	UserID         string
	Online         bool
	Alert          string
	HistoryJSON    string
	BackURL        string

	List     services.ChatListView
	Chat     *dto.Chat
	IsNew    bool
	Messages []messageItem

	EditingID       string
	ComposerEnabled bool
	SendURL         string
}

// PageState 는 모든 페이지에 공통으로 붙는 값이다.
type PageState struct {
	Online bool
	Alert  string
}

func (r *Renderer) basePage(userID string, state PageState, history []string) page {
	historyJSON, _ := json.Marshal(history)
	if history == nil {
		historyJSON = []byte("[]")
	}
	p := page{
		Title:          r.opts.Title,
		StylesheetHref: r.opts.StylesheetHref,
		IconHref:       r.opts.IconHref,
		BreakpointPx:   r.opts.BreakpointPx,
		UserID:         userID,
		Online:         state.Online,
		Alert:          state.Alert,
		HistoryJSON:    string(historyJSON),
		List:           services.ChatListView{UserID: userID},
	}
	if userID != "" {
		p.BackURL = "/" + url.PathEscape(userID) + "/back"
	}
	return p
}

// ChatListPage 는 대화를 고르기 전의 목록 화면이다.
func (r *Renderer) ChatListPage(w io.Writer, list services.ChatListView, history []string, state PageState) error {
	p := r.basePage(list.UserID, state, history)
	p.List = list
	return r.tmpl.ExecuteTemplate(w, "layout", p)
}

// ChatPage 는 대화 화면이다. editing 이 nil 이 아니면 해당 메시지를 편집창으로 그린다.
func (r *Renderer) ChatPage(w io.Writer, view services.ChatView, editing *dto.Message, state PageState) error {
	p := r.basePage(view.UserID, state, view.History)
	p.List = view.List
	p.Chat = view.Chat
	p.IsNew = view.IsNew
	p.ComposerEnabled = view.ComposerEnabled
	p.SendURL = services.ChatRoute(view.UserID, view.ChatID) + "/message"

	p.Messages = make([]messageItem, 0, len(view.Messages))
	for _, m := range view.Messages {
		if editing != nil && m.ID == editing.ID {
			// 편집창에는 서버가 돌려준 정본 내용을 넣는다.
			m = *editing
			p.EditingID = m.ID.String()
		}
		p.Messages = append(p.Messages, r.item(view.UserID, m))
	}
	return r.tmpl.ExecuteTemplate(w, "layout", p)
}

// ErrorPage 는 전체 페이지 요청이 실패했을 때의 화면이다. 목록은 비어 있고 경고만 뜬다.
func (r *Renderer) ErrorPage(w io.Writer, userID string, state PageState) error {
	return r.tmpl.ExecuteTemplate(w, "layout", r.basePage(userID, state, nil))
}

// MessageFragment 는 저장/취소 후 교체될 메시지 하나다.
func (r *Renderer) MessageFragment(w io.Writer, userID string, msg dto.Message) error {
	return r.tmpl.ExecuteTemplate(w, "message", r.item(userID, msg))
}

// EditFragment 는 편집창으로 바뀐 메시지 하나다.
func (r *Renderer) EditFragment(w io.Writer, userID string, msg dto.Message) error {
	return r.tmpl.ExecuteTemplate(w, "edit", r.item(userID, msg))
}

// SendFragment 는 전송 직후 붙일 사용자 메시지와 어시스턴트 응답이다.
func (r *Renderer) SendFragment(w io.Writer, userID string, res services.SendResult) error {
	return r.tmpl.ExecuteTemplate(w, "sent", sendFragment{
		User:      r.item(userID, res.User),
		Assistant: r.item(userID, res.Assistant),
	})
}

func (r *Renderer) item(userID string, msg dto.Message) messageItem {
	it := messageItem{
		Message:  msg,
		Body:     r.body(msg.Content),
		EditText: formatter.Format(msg.Content, true),
	}
	if msg.ID != "" {
		base := "/" + url.PathEscape(userID) + "/messages/" + url.PathEscape(msg.ID.String())
		it.EditURL = base + "/edit"
		it.SaveURL = base
		it.CancelURL = base
	}
	return it
}

func (r *Renderer) body(content string) template.HTML {
	out := formatter.Format(content, false)
	if r.sanitizer != nil {
		out = r.sanitizer.Sanitize(out)
	}
	return template.HTML(out)
}
