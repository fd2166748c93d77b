package webview

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/novem-io/novem-webview/internal/db"
	"github.com/novem-io/novem-webview/internal/hostmsg"
	"github.com/novem-io/novem-webview/internal/router"
	"github.com/novem-io/novem-webview/internal/theme"
)

const plotBody = `{"data":[[1,2],[3,4]],"about":{"shortname":"abc","name":"Sales","vis_type":"bar"}}`

func apiServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/i/abc" || r.Header.Get("Authorization") != "Bearer T" {
			http.Error(w, `{"message":"not found"}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(plotBody))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNavigateFetchesAndSelects(t *testing.T) {
	api := apiServer(t)
	app := New(Options{})
	defer app.Close()

	msgs := make(chan hostmsg.Message, 1)
	if _, err := app.AttachHost(t.Context(), msgs); err != nil {
		t.Fatalf("AttachHost: %v", err)
	}

	msgs <- hostmsg.Message{
		Command:   hostmsg.CommandNavigate,
		Route:     "/plots",
		ShortName: "abc",
		Token:     "T",
		APIRoot:   api.URL + "/v1/",
	}

	waitFor(t, "fetched data", func() bool {
		return app.Data().Get() != nil && app.Router().Location() == "/plots"
	})

	sel := app.Router().Current()
	if sel.View != router.ViewPlot {
		t.Errorf("expected plot view, got %q", sel.View)
	}
	if sel.Data == nil || sel.Data.About.Shortname != "abc" || len(sel.Data.Data) != 2 {
		t.Errorf("unexpected data %+v", sel.Data)
	}
}

func TestWebsocketHostChannel(t *testing.T) {
	api := apiServer(t)
	app := New(Options{})
	defer app.Close()

	r := chi.NewRouter()
	app.RegisterRoutes(r, r)
	srv := httptest.NewServer(r)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/host"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	msg := map[string]any{
		"command":   "navigate",
		"route":     "/mails",
		"shortName": "abc",
		"token":     "T",
		"apiRoot":   api.URL + "/v1/",
	}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write: %v", err)
	}

	waitFor(t, "fetched data", func() bool {
		return app.Data().Get() != nil && app.Router().Location() == "/mails"
	})

	resp, err := http.Get(srv.URL + "/api/view/")
	if err != nil {
		t.Fatalf("GET /api/view/: %v", err)
	}
	defer resp.Body.Close()

	var sel router.Selection
	if err := json.NewDecoder(resp.Body).Decode(&sel); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sel.View != router.ViewMail {
		t.Errorf("expected mail view, got %q", sel.View)
	}
	if sel.Context.Token != "***" {
		t.Errorf("token leaked through the API: %q", sel.Context.Token)
	}
}

func TestCloseEndsHostSessions(t *testing.T) {
	app := New(Options{})

	r := chi.NewRouter()
	app.RegisterRoutes(r, r)
	srv := httptest.NewServer(r)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/host"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	msgs := make(chan hostmsg.Message)
	sub, err := app.AttachHost(context.Background(), msgs)
	if err != nil {
		t.Fatalf("AttachHost: %v", err)
	}

	app.Close()

	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("host subscription still running after Close")
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("expected the websocket to be closed by the server")
	} else if ne, ok := err.(interface{ Timeout() bool }); ok && ne.Timeout() {
		t.Fatal("websocket still open after Close")
	}

	if _, err := app.AttachHost(context.Background(), msgs); err != ErrClosed {
		t.Errorf("AttachHost after Close: got %v, want ErrClosed", err)
	}
}

type fakeFrame struct {
	mu   sync.Mutex
	dark bool
}

func (f *fakeFrame) SetRootAttribute(context.Context, string, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dark = true
	return nil
}

func (f *fakeFrame) RemoveRootAttribute(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dark = false
	return nil
}

func (f *fakeFrame) isDark() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dark
}

type fakeDocument struct {
	mu    sync.Mutex
	dark  bool
	frame *fakeFrame
}

func (d *fakeDocument) setDark(v bool) {
	d.mu.Lock()
	d.dark = v
	d.mu.Unlock()
}

func (d *fakeDocument) BodyHasClass(_ context.Context, class string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dark && class == theme.DefaultDarkClass, nil
}

func (d *fakeDocument) Frames(context.Context) ([]theme.Frame, error) {
	return []theme.Frame{d.frame}, nil
}

type chanSource chan []theme.Mutation

func (s chanSource) Mutations(context.Context) (<-chan []theme.Mutation, error) {
	return s, nil
}

func TestWatchThemeAndThemeEndpoint(t *testing.T) {
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer database.Close()
	settings := theme.NewSettingsStore(database)

	app := New(Options{Modes: settings})
	defer app.Close()

	doc := &fakeDocument{frame: &fakeFrame{}}
	src := make(chanSource)
	sub, err := app.WatchTheme(t.Context(), src, theme.NewEnforcer(doc, settings, ""))
	if err != nil {
		t.Fatalf("WatchTheme: %v", err)
	}

	doc.setDark(true)
	src <- []theme.Mutation{{Type: "attributes", AttributeName: "class"}}
	waitFor(t, "dark frame", doc.frame.isDark)

	r := chi.NewRouter()
	app.RegisterRoutes(r, r)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/view/theme", nil))
	if !strings.Contains(w.Body.String(), `"dark"`) {
		t.Errorf("theme endpoint: %d %s", w.Code, w.Body.String())
	}

	app.Close()
	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("theme observer still running after Close")
	}
}
