package chat_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/knowyourrights/kyr/internal/chat"
	"github.com/knowyourrights/kyr/internal/client"
	"github.com/knowyourrights/kyr/internal/nav"
)

// TestController_AgainstHTTPService runs the first exchange of a new
// conversation through the real client against a stub service.
func TestController_AgainstHTTPService(t *testing.T) {
	var (
		mu        sync.Mutex
		bodies    []map[string]any
		listCalls atomic.Int32
	)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		mu.Lock()
		bodies = append(bodies, body)
		mu.Unlock()
		io.WriteString(w, `{"response":"Kenya's minimum wage is...","sources":[],"session_id":"abc"}`)
	})
	mux.HandleFunc("GET /api/chat/sessions", func(w http.ResponseWriter, r *http.Request) {
		listCalls.Add(1)
		io.WriteString(w, `[{"id":"abc","title":"What is minimum wage?","created_at":"2024-05-01T14:30:00"}]`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	navigator := nav.NewNavigator(nav.ChatLocation("", "general"), nil)
	var external atomic.Int32
	navigator.OnChange(func(c nav.Change) {
		if c.Origin == nav.OriginExternal {
			external.Add(1)
		}
	})
	c := chat.New(client.New(srv.URL), navigator)

	if !c.Send(context.Background(), "What is minimum wage?") {
		t.Fatal("Send returned false")
	}
	c.Send(context.Background(), "And for domestic workers?")

	msgs := c.Messages()
	if len(msgs) != 5 || msgs[2].Content != "Kenya's minimum wage is..." {
		t.Fatalf("messages = %+v", msgs)
	}
	if got := navigator.Current().String(); got != "/chat?session_id=abc&category=general" {
		t.Errorf("location = %s", got)
	}
	if navigator.Len() != 1 || external.Load() != 0 {
		t.Errorf("bind should replace silently: len %d, external %d", navigator.Len(), external.Load())
	}
	if listCalls.Load() != 1 {
		t.Errorf("registry fetched %d times, want 1", listCalls.Load())
	}
	if s := c.Sessions(); len(s) != 1 || s[0].ID != "abc" {
		t.Errorf("Sessions() = %+v", s)
	}

	mu.Lock()
	defer mu.Unlock()
	if bodies[0]["session_id"] != nil {
		t.Errorf("first turn session_id = %v, want null", bodies[0]["session_id"])
	}
	if bodies[1]["session_id"] != "abc" {
		t.Errorf("second turn session_id = %v", bodies[1]["session_id"])
	}
	if bodies[0]["category"] != "general" || bodies[0]["use_web_search"] != false {
		t.Errorf("first body = %v", bodies[0])
	}
}
