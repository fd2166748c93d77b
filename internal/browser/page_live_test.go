package browser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/novem-io/novem-webview/internal/db"
	"github.com/novem-io/novem-webview/internal/theme"
)

const fixtureHTML = `<!doctype html>
<html><body class="vscode-light">
<iframe id="same" srcdoc="<p>same origin</p>"></iframe>
<iframe id="other" src="https://example.com/"></iframe>
</body></html>`

func openFixture(t *testing.T) (*Page, context.Context) {
	t.Helper()
	if os.Getenv("NOVEM_LIVE_BROWSER") == "" {
		t.Skip("live browser tests disabled (set NOVEM_LIVE_BROWSER to run)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	t.Cleanup(cancel)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(fixtureHTML))
	}))
	t.Cleanup(srv.Close)

	b, err := Connect(ctx, os.Getenv("NOVEM_BROWSER_CONTROL_URL"))
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })

	page, err := b.Open(ctx, srv.URL)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	page.SetPollInterval(50 * time.Millisecond)
	return page, ctx
}

func setBodyClass(t *testing.T, ctx context.Context, p *Page, class string) {
	t.Helper()
	if _, err := p.eval(ctx, `(c) => { document.body.className = c; }`, class); err != nil {
		t.Fatalf("setting body class: %v", err)
	}
}

func sameOriginMarked(t *testing.T, ctx context.Context, p *Page) bool {
	t.Helper()
	res, err := p.eval(ctx, `() => document.getElementById('same').contentDocument.documentElement.hasAttribute('data-dark-mode')`)
	if err != nil {
		t.Fatalf("reading frame marker: %v", err)
	}
	return res.Value.Bool()
}

func TestLivePageEnforce(t *testing.T) {
	page, ctx := openFixture(t)

	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer database.Close()

	e := theme.NewEnforcer(page, theme.NewSettingsStore(database), "")

	setBodyClass(t, ctx, page, "vscode-dark")
	mode, err := e.Enforce(ctx)
	if err != nil {
		t.Fatalf("Enforce: %v", err)
	}
	if mode != theme.ModeDark {
		t.Errorf("expected dark, got %q", mode)
	}
	if !sameOriginMarked(t, ctx, page) {
		t.Error("expected same-origin frame to carry the marker")
	}

	frames, err := page.Frames(ctx)
	if err != nil {
		t.Fatalf("Frames: %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(frames))
	}
	if err := frames[1].SetRootAttribute(ctx, theme.DarkModeAttribute, ""); err == nil {
		t.Error("expected cross-origin frame to refuse access")
	}
}

func TestLivePageMutations(t *testing.T) {
	page, ctx := openFixture(t)

	mctx, cancel := context.WithCancel(ctx)
	batches, err := page.Mutations(mctx)
	if err != nil {
		t.Fatalf("Mutations: %v", err)
	}

	setBodyClass(t, ctx, page, "vscode-dark")

	select {
	case batch := <-batches:
		if len(batch) == 0 || batch[0].AttributeName != "class" {
			t.Errorf("unexpected batch %+v", batch)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no mutation delivered")
	}

	cancel()
	for range batches {
	}
}

func TestLivePageLocalStorage(t *testing.T) {
	page, ctx := openFixture(t)

	if err := page.Set(ctx, theme.SettingKey, "dark"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	res, err := page.eval(ctx, `() => window.localStorage.getItem('theme')`)
	if err != nil {
		t.Fatalf("reading localStorage: %v", err)
	}
	if got := res.Value.Str(); got != "dark" {
		t.Errorf("localStorage theme = %q, want dark", got)
	}
}

func reload(t *testing.T, ctx context.Context, p *Page) {
	t.Helper()
	if err := p.page.Context(ctx).Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if err := p.page.Context(ctx).WaitLoad(); err != nil {
		t.Fatalf("WaitLoad: %v", err)
	}
}

func TestLivePageMutationsSurviveReload(t *testing.T) {
	page, ctx := openFixture(t)

	mctx, cancel := context.WithCancel(ctx)
	defer cancel()
	batches, err := page.Mutations(mctx)
	if err != nil {
		t.Fatalf("Mutations: %v", err)
	}

	reload(t, ctx, page)

	select {
	case batch := <-batches:
		if len(batch) != 1 || batch[0].AttributeName != "class" {
			t.Errorf("expected a class batch for the reloaded document, got %+v", batch)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no batch after reload")
	}

	setBodyClass(t, ctx, page, "vscode-dark")
	select {
	case batch := <-batches:
		if len(batch) == 0 || batch[0].AttributeName != "class" {
			t.Errorf("unexpected batch %+v", batch)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("class change after reload was not observed")
	}
}

func TestLiveObserveAfterReload(t *testing.T) {
	page, ctx := openFixture(t)

	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer database.Close()
	settings := theme.NewSettingsStore(database)

	sub, err := theme.Observe(ctx, page, theme.NewEnforcer(page, settings, ""))
	if err != nil {
		t.Fatalf("Observe: %v", err)
	}
	defer sub.Close()

	reload(t, ctx, page)
	setBodyClass(t, ctx, page, "vscode-dark")

	deadline := time.Now().Add(5 * time.Second)
	for !sameOriginMarked(t, ctx, page) {
		if time.Now().After(deadline) {
			t.Fatal("dark marker not applied after reload")
		}
		time.Sleep(50 * time.Millisecond)
	}
	if mode, _ := settings.Mode(ctx); mode != theme.ModeDark {
		t.Errorf("persisted theme = %q, want dark", mode)
	}
}
