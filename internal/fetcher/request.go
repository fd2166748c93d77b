package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/novem-io/novem-webview/internal/viewstate"
)

// resourcePath is the path below the API root that serves a visualization.
const resourcePath = "i/"

// RequestURL derives the fetch URL for a context: the API root with
// i/{shortname} appended. When IgnoreSSLWarn is set, an https scheme is
// downgraded to http.
func RequestURL(c viewstate.ViewContext) string {
	root := c.APIRoot
	if c.IgnoreSSLWarn && len(root) >= len("https:") && strings.EqualFold(root[:len("https:")], "https:") {
		root = "http:" + root[len("https:"):]
	}
	return root + resourcePath + url.PathEscape(c.Shortname)
}

// NewRequest builds the authenticated GET for a context.
func NewRequest(ctx context.Context, c viewstate.ViewContext) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, RequestURL(c), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Accept", "application/json")
	return req, nil
}
