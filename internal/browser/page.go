package browser

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/novem-io/novem-webview/internal/theme"
)

// Browser is a connected Chrome instance.
type Browser struct {
	rod        *rod.Browser
	controlURL string
}

// Connect attaches to the Chrome at controlURL. An empty controlURL launches
// a headless Chrome with rod's launcher.
func Connect(ctx context.Context, controlURL string) (*Browser, error) {
	if controlURL == "" {
		url, err := launcher.New().Headless(true).Context(ctx).Launch()
		if err != nil {
			return nil, fmt.Errorf("launch chrome: %w", err)
		}
		controlURL = url
	}

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}
	log.Printf("browser: connected at %s", controlURL)
	return &Browser{rod: b, controlURL: controlURL}, nil
}

// ControlURL returns the debugger URL the browser is reachable at.
func (b *Browser) ControlURL() string { return b.controlURL }

// Close disconnects from the browser.
func (b *Browser) Close() error {
	return b.rod.Close()
}

// Open creates a new page at url.
func (b *Browser) Open(ctx context.Context, url string) (*Page, error) {
	p, err := b.rod.Context(ctx).Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return nil, fmt.Errorf("waiting for %s: %w", url, err)
	}
	return newPage(p), nil
}

// Find returns the first open page whose URL contains match. An empty match
// selects the first page.
func (b *Browser) Find(ctx context.Context, match string) (*Page, error) {
	pages, err := b.rod.Context(ctx).Pages()
	if err != nil {
		return nil, fmt.Errorf("listing pages: %w", err)
	}
	for _, p := range pages {
		info, err := p.Info()
		if err != nil {
			continue
		}
		if strings.Contains(info.URL, match) {
			return newPage(p), nil
		}
	}
	return nil, fmt.Errorf("no page matching %q", match)
}

// Page is a live document. It implements theme.Document, theme.Settings
// (through the page's localStorage) and theme.MutationSource.
type Page struct {
	page         *rod.Page
	pollInterval time.Duration
}

// SetPollInterval sets how often Mutations drains the page's buffer.
func (p *Page) SetPollInterval(d time.Duration) {
	if d > 0 {
		p.pollInterval = d
	}
}

var (
	_ theme.Document       = (*Page)(nil)
	_ theme.Settings       = (*Page)(nil)
	_ theme.MutationSource = (*Page)(nil)
)

func newPage(p *rod.Page) *Page {
	return &Page{page: p, pollInterval: DefaultPollInterval}
}

// errFrameDenied is reported for frames whose document cannot be reached.
var errFrameDenied = errors.New("frame document not accessible")

func (p *Page) eval(ctx context.Context, js string, args ...interface{}) (*proto.RuntimeRemoteObject, error) {
	return p.page.Context(ctx).Evaluate(&rod.EvalOptions{
		JS:           js,
		JSArgs:       args,
		ByValue:      true,
		AwaitPromise: true,
	})
}

// BodyHasClass reports whether document.body carries class.
func (p *Page) BodyHasClass(ctx context.Context, class string) (bool, error) {
	res, err := p.eval(ctx, `(cls) => !!document.body && document.body.classList.contains(cls)`, class)
	if err != nil {
		return false, fmt.Errorf("reading body class: %w", err)
	}
	return res.Value.Bool(), nil
}

// Frames returns a handle for every iframe currently in the document.
func (p *Page) Frames(ctx context.Context) ([]theme.Frame, error) {
	res, err := p.eval(ctx, `() => document.querySelectorAll('iframe').length`)
	if err != nil {
		return nil, fmt.Errorf("counting frames: %w", err)
	}
	n := res.Value.Int()
	frames := make([]theme.Frame, n)
	for i := range frames {
		frames[i] = &frame{page: p, index: i}
	}
	return frames, nil
}

// Set writes key to the page's localStorage.
func (p *Page) Set(ctx context.Context, key, value string) error {
	_, err := p.eval(ctx, `(k, v) => { window.localStorage.setItem(k, v); }`, key, value)
	if err != nil {
		return fmt.Errorf("writing localStorage %s: %w", key, err)
	}
	return nil
}

// frame addresses an iframe by its position in document order.
type frame struct {
	page  *Page
	index int
}

// Cross-origin frames expose a null contentDocument; reaching through
// contentWindow throws. Both surface as an error from the script.
const frameAttrJS = `(i, op, name, value) => {
	const f = document.querySelectorAll('iframe')[i];
	if (!f) return 'gone';
	let doc = null;
	try { doc = f.contentDocument || (f.contentWindow && f.contentWindow.document); } catch (e) { return 'denied'; }
	if (!doc || !doc.documentElement) return 'denied';
	if (op === 'set') doc.documentElement.setAttribute(name, value);
	else doc.documentElement.removeAttribute(name);
	return 'ok';
}`

func (f *frame) apply(ctx context.Context, op, name, value string) error {
	res, err := f.page.eval(ctx, frameAttrJS, f.index, op, name, value)
	if err != nil {
		return fmt.Errorf("frame %d: %w", f.index, err)
	}
	switch res.Value.Str() {
	case "ok":
		return nil
	case "gone":
		return fmt.Errorf("frame %d: removed from document", f.index)
	default:
		return fmt.Errorf("frame %d: %w", f.index, errFrameDenied)
	}
}

func (f *frame) SetRootAttribute(ctx context.Context, name, value string) error {
	return f.apply(ctx, "set", name, value)
}

func (f *frame) RemoveRootAttribute(ctx context.Context, name string) error {
	return f.apply(ctx, "remove", name, "")
}
