package viewstate

import "encoding/json"

// ViewContext is the navigation and auth state delivered by the host.
// The zero value means no host message has arrived yet.
type ViewContext struct {
	VisID         string `json:"visId,omitempty"`
	URI           string `json:"uri,omitempty"`
	Shortname     string `json:"shortname,omitempty"`
	Route         string `json:"route,omitempty"`
	Token         string `json:"token,omitempty"`
	APIRoot       string `json:"apiRoot,omitempty"`
	IgnoreSSLWarn bool   `json:"ignoreSslWarn,omitempty"`
}

// FetchKey is the part of a ViewContext that decides whether a fetch fires.
type FetchKey struct {
	Token     string
	APIRoot   string
	Shortname string
}

// Key returns the fetch-relevant triple of the context.
func (c ViewContext) Key() FetchKey {
	return FetchKey{Token: c.Token, APIRoot: c.APIRoot, Shortname: c.Shortname}
}

// Complete reports whether all three fields are present.
func (k FetchKey) Complete() bool {
	return k.Token != "" && k.APIRoot != "" && k.Shortname != ""
}

// Redacted returns a copy safe to hand to read-only consumers outside the
// process (HTTP, MCP). The token is masked but its presence is preserved.
func (c ViewContext) Redacted() ViewContext {
	if c.Token != "" {
		c.Token = "***"
	}
	return c
}

// Creator identifies who made the visualization.
type Creator struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar"`
}

// About describes the fetched visualization.
type About struct {
	Shortname   string `json:"shortname"`
	Name        string `json:"name"`
	Created     string `json:"created"`
	URIVis      string `json:"uri_vis"`
	URIImg      string `json:"uri_img"`
	URIPdf      string `json:"uri_pdf"`
	VisType     string `json:"vis_type"`
	Description string `json:"description"`
	Summary     string `json:"summary"`
}

// Recipient is a mail recipient.
type Recipient struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Path string `json:"path"`
}

// RecipientEntry pairs a recipient with its delivery type.
type RecipientEntry struct {
	Recipient Recipient `json:"recipient"`
	Type      string    `json:"type"`
}

// Recipients lists the mail recipients. Nil slices mean the server sent none.
type Recipients struct {
	To []RecipientEntry `json:"to"`
	Cc []RecipientEntry `json:"cc"`
}

// FetchedData is the payload of GET {apiRoot}i/{shortname}.
// Data and References are opaque to this process and kept as raw JSON.
type FetchedData struct {
	Data       []json.RawMessage `json:"data"`
	Metadata   map[string]any    `json:"metadata"`
	Config     map[string]any    `json:"config"`
	Creator    Creator           `json:"creator"`
	References json.RawMessage   `json:"references,omitempty"`
	About      About             `json:"about"`
	Recipients Recipients        `json:"recipients"`
}
