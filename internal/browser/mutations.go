package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	channerics "github.com/niceyeti/channerics/channels"

	"github.com/novem-io/novem-webview/internal/theme"
)

// DefaultPollInterval is how often the mutation buffer is drained.
const DefaultPollInterval = 250 * time.Millisecond

// observerSetupJS creates the observer on the current document. It appends
// one batch per callback to window.__novemMutations.
const observerSetupJS = `
	window.__novemMutations = [];
	window.__novemObserver = new MutationObserver((records) => {
		window.__novemMutations.push(records.map((r) => ({
			type: r.type,
			attributeName: r.attributeName || ''
		})));
	});
	window.__novemObserver.observe(document.body, { attributes: true });`

// Installing twice is a no-op.
const installObserverJS = `() => {
	if (window.__novemObserver) return;` + observerSetupJS + `
}`

// drainObserverJS returns the buffered batches. A reload discards the
// observer with the old document; it is set up again on the new one and
// reported as reinstalled.
const drainObserverJS = `() => {
	if (!window.__novemObserver) {
		if (!document.body) return { reinstalled: false, batches: [] };` + observerSetupJS + `
		return { reinstalled: true, batches: [] };
	}
	const buf = Array.isArray(window.__novemMutations) ? window.__novemMutations : [];
	window.__novemMutations = [];
	return { reinstalled: false, batches: buf };
}`

// reloadBatch stands in for the class change missed while the page was
// reloading, so the fresh document is enforced once.
var reloadBatch = []theme.Mutation{{Type: "attributes", AttributeName: "class"}}

const disconnectObserverJS = `() => {
	if (window.__novemObserver) window.__novemObserver.disconnect();
	window.__novemObserver = undefined;
	window.__novemMutations = undefined;
}`

// Mutations installs a MutationObserver on document.body and polls its
// buffer until ctx is done. After a reload the observer is installed again
// and a class mutation is delivered for the new document. The observer is
// disconnected on exit.
func (p *Page) Mutations(ctx context.Context) (<-chan []theme.Mutation, error) {
	if _, err := p.eval(ctx, installObserverJS); err != nil {
		return nil, fmt.Errorf("installing mutation observer: %w", err)
	}

	out := make(chan []theme.Mutation)
	go func() {
		defer close(out)
		defer func() {
			cctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_, _ = p.eval(cctx, disconnectObserverJS)
		}()

		for range channerics.OrDone(ctx.Done(), channerics.NewTicker(ctx.Done(), p.pollInterval)) {
			batches, err := p.drain(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Printf("browser: draining mutations: %v", err)
				continue
			}
			for _, batch := range batches {
				select {
				case out <- batch:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

type drainResult struct {
	Reinstalled bool               `json:"reinstalled"`
	Batches     [][]theme.Mutation `json:"batches"`
}

func (p *Page) drain(ctx context.Context) ([][]theme.Mutation, error) {
	res, err := p.eval(ctx, drainObserverJS)
	if err != nil {
		return nil, err
	}
	if res == nil || res.Value.Nil() {
		return nil, nil
	}
	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var dr drainResult
	if err := json.Unmarshal(raw, &dr); err != nil {
		return nil, fmt.Errorf("decoding mutation batches: %w", err)
	}
	if dr.Reinstalled {
		log.Printf("browser: mutation observer reinstalled after page reload")
		return append([][]theme.Mutation{reloadBatch}, dr.Batches...), nil
	}
	return dr.Batches, nil
}
