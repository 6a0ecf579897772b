package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/knowyourrights/kyr/internal/chat"
	"github.com/knowyourrights/kyr/internal/client"
	"github.com/knowyourrights/kyr/internal/nav"
	"github.com/knowyourrights/kyr/internal/render"
)

// stubBackend is a minimal assistant service.
type stubBackend struct {
	mu        sync.Mutex
	webSearch []bool
	listCalls int
}

func (b *stubBackend) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/chat/sessions", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.listCalls++
		b.mu.Unlock()
		io.WriteString(w, `[{"id":"abc","title":"Minimum wage"},{"id":"old","title":""}]`)
	})
	mux.HandleFunc("GET /api/chat/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") == "old" {
			io.WriteString(w, `[{"role":"user","content":"old question"},{"role":"assistant","content":"old answer"}]`)
			return
		}
		io.WriteString(w, `[]`)
	})
	mux.HandleFunc("POST /api/chat", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Message      string  `json:"message"`
			SessionID    *string `json:"session_id"`
			UseWebSearch bool    `json:"use_web_search"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode chat request: %v", err)
			return
		}
		b.mu.Lock()
		b.webSearch = append(b.webSearch, req.UseWebSearch)
		b.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{
			"response":   "Kenya's minimum wage is...",
			"session_id": "abc",
			"sources":    []map[string]string{{"title": "Regulation of Wages Order", "type": "Document"}},
		})
	})
	mux.HandleFunc("POST /api/chat/analyze", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"Only PDF, DOCX, and TXT files are supported."}`, http.StatusBadRequest)
	})
	return mux
}

func newTestREPL(t *testing.T) (*repl, *bytes.Buffer, *stubBackend) {
	t.Helper()
	backend := &stubBackend{}
	srv := httptest.NewServer(backend.handler(t))
	t.Cleanup(srv.Close)

	navigator := nav.NewNavigator(nav.ChatLocation("", "general"), nil)
	ctrl := chat.New(client.New(srv.URL, client.WithRateLimit(0)), navigator)
	t.Cleanup(ctrl.Close)

	var out bytes.Buffer
	r := newREPL(context.Background(), ctrl, navigator, render.New(), &out, srv.URL)
	unsubscribe := navigator.OnChange(r.onNavigate)
	t.Cleanup(unsubscribe)
	return r, &out, backend
}

func TestREPL_ChatTurn(t *testing.T) {
	r, out, backend := newTestREPL(t)

	if r.handle("/web") {
		t.Fatal("/web quit the REPL")
	}
	if !strings.Contains(r.prompt(), "🌐") {
		t.Errorf("prompt = %q", r.prompt())
	}
	out.Reset()

	r.handle("What is minimum wage?")

	got := out.String()
	for _, want := range []string{"Kenya's minimum wage is...", "Regulation of Wages Order (Document)"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "🧑 You") {
		t.Errorf("the typed message was echoed:\n%s", got)
	}
	if r.ctrl.CurrentID() != "abc" {
		t.Errorf("CurrentID() = %q", r.ctrl.CurrentID())
	}
	if loc := r.nav.Current().String(); loc != "/chat?session_id=abc&category=general" {
		t.Errorf("location = %s", loc)
	}
	if r.nav.Len() != 1 {
		t.Errorf("background bind added a history entry: len %d", r.nav.Len())
	}
	if strings.Contains(r.prompt(), "🌐") {
		t.Error("web search still armed after the turn")
	}

	r.handle("again")
	if len(backend.webSearch) != 2 || !backend.webSearch[0] || backend.webSearch[1] {
		t.Errorf("use_web_search per turn = %v", backend.webSearch)
	}
}

func TestREPL_SessionsOpenBack(t *testing.T) {
	r, out, _ := newTestREPL(t)

	r.handle("/sessions")
	if !strings.Contains(out.String(), "Untitled Conversation") {
		t.Errorf("sessions output:\n%s", out.String())
	}

	out.Reset()
	r.handle("/open 2")
	if !strings.Contains(out.String(), "old answer") || r.ctrl.CurrentID() != "old" {
		t.Errorf("open output:\n%s", out.String())
	}

	out.Reset()
	r.handle("/back")
	if r.ctrl.CurrentID() != "" {
		t.Errorf("after /back CurrentID() = %q", r.ctrl.CurrentID())
	}
	if !strings.Contains(out.String(), chat.WelcomeText(chat.CategoryGeneral)) {
		t.Errorf("back output:\n%s", out.String())
	}

	out.Reset()
	r.handle("/forward")
	if r.ctrl.CurrentID() != "old" || !strings.Contains(out.String(), "old question") {
		t.Errorf("forward: id %q output:\n%s", r.ctrl.CurrentID(), out.String())
	}

	out.Reset()
	r.handle("/forward")
	if !strings.Contains(out.String(), "Nothing to go forward to.") {
		t.Errorf("forward at end:\n%s", out.String())
	}
}

func TestREPL_ExternalNavigation(t *testing.T) {
	r, out, _ := newTestREPL(t)

	r.nav.Navigate(nav.ChatLocation("old", "union"))

	if r.ctrl.CurrentID() != "old" || r.ctrl.Category() != chat.CategoryUnion {
		t.Errorf("after external open: id %q category %q", r.ctrl.CurrentID(), r.ctrl.Category())
	}
	if !strings.Contains(out.String(), "🔗 Opened /chat?session_id=old&category=union") {
		t.Errorf("output:\n%s", out.String())
	}
}

func TestREPL_UploadFailure(t *testing.T) {
	r, out, backend := newTestREPL(t)

	path := filepath.Join(t.TempDir(), "contract.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatal(err)
	}

	r.handle(`/upload "` + path + `"`)

	if !strings.Contains(out.String(), chat.TextAnalyzeError) {
		t.Errorf("output:\n%s", out.String())
	}
	msgs := r.ctrl.Messages()
	if len(msgs) != 3 || msgs[1].Content != "Uploaded for analysis: contract.pdf" {
		t.Errorf("messages = %+v", msgs)
	}
	if r.ctrl.CurrentID() == "" || r.nav.Current().SessionID() != r.ctrl.CurrentID() {
		t.Errorf("placeholder not bound: id %q location %s", r.ctrl.CurrentID(), r.nav.Current())
	}
	if r.nav.Len() != 1 {
		t.Errorf("placeholder bind added a history entry")
	}
	backend.mu.Lock()
	defer backend.mu.Unlock()
	if backend.listCalls != 1 {
		t.Errorf("registry fetched %d times", backend.listCalls)
	}
}

func TestREPL_UploadRejectedType(t *testing.T) {
	r, out, _ := newTestREPL(t)
	r.handle("/upload notes.png")
	if !strings.Contains(out.String(), "unsupported file type") {
		t.Errorf("output:\n%s", out.String())
	}
	if len(r.ctrl.Messages()) != 1 {
		t.Error("rejected upload touched the log")
	}
}

func TestREPL_Commands(t *testing.T) {
	r, out, _ := newTestREPL(t)

	r.handle("/category contract")
	if r.ctrl.Category() != chat.CategoryContract || r.nav.Current().Category() != "contract" {
		t.Errorf("category not applied: %q %s", r.ctrl.Category(), r.nav.Current())
	}

	r.handle("/category pensions")
	if !strings.Contains(out.String(), "unknown category") {
		t.Errorf("bad category output:\n%s", out.String())
	}

	out.Reset()
	r.handle("/link")
	if strings.TrimSpace(out.String()) != "🔗 /chat?category=contract" {
		t.Errorf("/link = %q", out.String())
	}

	r.handle("hello")
	out.Reset()
	r.handle("/new")
	if r.ctrl.CurrentID() != "" || !strings.Contains(out.String(), chat.WelcomeText(chat.CategoryContract)) {
		t.Errorf("/new output:\n%s", out.String())
	}

	out.Reset()
	r.handle("/bogus")
	if !strings.Contains(out.String(), "Unknown command: /bogus") {
		t.Errorf("unknown command output:\n%s", out.String())
	}

	if r.handle("   ") {
		t.Error("blank line quit the REPL")
	}
	if !r.handle("/quit") {
		t.Error("/quit did not quit")
	}
}

func TestRunOnce(t *testing.T) {
	backend := &stubBackend{}
	srv := httptest.NewServer(backend.handler(t))
	defer srv.Close()

	ctrl := chat.New(client.New(srv.URL), nil)
	var out bytes.Buffer
	if err := runOnce(context.Background(), ctrl, render.New(), &out, "What is minimum wage?"); err != nil {
		t.Fatalf("runOnce() = %v", err)
	}
	if !strings.HasPrefix(out.String(), "Kenya's minimum wage is...") {
		t.Errorf("output:\n%s", out.String())
	}

	srv.Close()
	ctrl = chat.New(client.New(srv.URL), nil)
	out.Reset()
	if err := runOnce(context.Background(), ctrl, render.New(), &out, "hi"); err == nil {
		t.Error("runOnce against a dead server succeeded")
	}
	if !strings.Contains(out.String(), chat.TextChatError) {
		t.Errorf("output:\n%s", out.String())
	}
}
