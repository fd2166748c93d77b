package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/novem-io/novem-webview/internal/viewstate"
)

// Policy decides which completed fetch ends up in the data store when
// several are in flight.
type Policy string

const (
	// PolicyLastCompleted publishes every successful fetch, so the one that
	// completes last wins even if it was issued for an older context.
	PolicyLastCompleted Policy = "last_completed"
	// PolicyLatestIssued cancels superseded fetches and discards their
	// results, so only the most recently issued fetch can publish.
	PolicyLatestIssued Policy = "latest_issued"
)

// Valid reports whether p is a known policy.
func (p Policy) Valid() bool {
	return p == PolicyLastCompleted || p == PolicyLatestIssued
}

// DefaultMaxResponseSize bounds a response body read by the fetcher.
const DefaultMaxResponseSize = 32 << 20

// ErrResponseTooLarge is returned when a body exceeds the size limit.
var ErrResponseTooLarge = errors.New("response too large")

// Options configures a Fetcher.
type Options struct {
	Client          *http.Client
	Policy          Policy
	Timeout         time.Duration // per request; zero means none
	MaxResponseSize int64         // bytes; zero means DefaultMaxResponseSize
	Logger          *log.Logger
	Verbose         bool
}

// Fetcher derives a request from the view context whenever its fetch key
// changes and publishes the parsed result to the data store. Each fetch is
// a single attempt; failures are logged and leave the store untouched.
type Fetcher struct {
	data    *viewstate.DataStore
	client  *http.Client
	policy  Policy
	timeout time.Duration
	maxBody int64
	logger  *log.Logger
	verbose bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	lastKey    viewstate.FetchKey
	generation uint64
	abortPrev  context.CancelFunc
}

// New creates a Fetcher publishing to data.
func New(data *viewstate.DataStore, opts Options) *Fetcher {
	if opts.Client == nil {
		opts.Client = &http.Client{}
	}
	if opts.Policy == "" {
		opts.Policy = PolicyLastCompleted
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.MaxResponseSize <= 0 {
		opts.MaxResponseSize = DefaultMaxResponseSize
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Fetcher{
		data:    data,
		client:  opts.Client,
		policy:  opts.Policy,
		timeout: opts.Timeout,
		maxBody: opts.MaxResponseSize,
		logger:  opts.Logger,
		verbose: opts.Verbose,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Attach evaluates the current context and every later one.
func (f *Fetcher) Attach(store *viewstate.ContextStore) *Subscription {
	unsubscribe := store.Subscribe(f.Observe)
	f.Observe(store.Get())
	return &Subscription{unsubscribe: unsubscribe}
}

// Observe evaluates a context. A fetch is issued only when the fetch key
// differs from the previously observed one and is complete.
func (f *Fetcher) Observe(c viewstate.ViewContext) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := c.Key()
	if key == f.lastKey {
		return
	}
	f.lastKey = key
	if !key.Complete() {
		return
	}
	if f.ctx.Err() != nil {
		return
	}

	f.generation++
	gen := f.generation

	reqCtx, cancel := context.WithCancel(f.ctx)
	if f.policy == PolicyLatestIssued {
		if f.abortPrev != nil {
			f.abortPrev()
		}
		f.abortPrev = cancel
	}

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		defer cancel()
		f.run(reqCtx, gen, c)
	}()
}

func (f *Fetcher) run(ctx context.Context, gen uint64, c viewstate.ViewContext) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	fd, err := f.Fetch(ctx, c)
	if err != nil {
		f.logger.Printf("fetcher: error fetching data: %v", err)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.policy == PolicyLatestIssued && gen != f.generation {
		if f.verbose {
			f.logger.Printf("fetcher: discarding superseded response for %q", c.Shortname)
		}
		return
	}
	f.data.Set(fd)
	if f.verbose {
		f.logger.Printf("fetcher: published %q (%d records)", c.Shortname, len(fd.Data))
	}
}

// Fetch performs a single authenticated GET for c and decodes the body.
// The HTTP status is not inspected; any body that decodes is accepted.
func (f *Fetcher) Fetch(ctx context.Context, c viewstate.ViewContext) (*viewstate.FetchedData, error) {
	req, err := NewRequest(ctx, c)
	if err != nil {
		return nil, err
	}
	requestID := uuid.New().String()
	req.Header.Set("X-Request-Id", requestID)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", requestID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("reading response %s: %w", requestID, err)
	}
	if int64(len(body)) > f.maxBody {
		return nil, fmt.Errorf("reading response %s: %w (limit %d bytes)", requestID, ErrResponseTooLarge, f.maxBody)
	}

	fd, err := viewstate.DecodeFetchedData(body)
	if err != nil {
		return nil, fmt.Errorf("decoding response %s (status %d): %w", requestID, resp.StatusCode, err)
	}
	return fd, nil
}

// Wait blocks until all in-flight fetches have finished.
func (f *Fetcher) Wait() { f.wg.Wait() }

// Close cancels in-flight fetches and waits for them. Later contexts are
// ignored.
func (f *Fetcher) Close() {
	f.mu.Lock()
	f.cancel()
	f.mu.Unlock()
	f.wg.Wait()
}

// Subscription detaches a Fetcher from a context store.
type Subscription struct {
	once        sync.Once
	unsubscribe func()
}

// Close stops observing the store.
func (s *Subscription) Close() {
	s.once.Do(s.unsubscribe)
}
