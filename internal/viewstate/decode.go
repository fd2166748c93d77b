package viewstate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedResponse is returned when a response body is not a
// FetchedData-shaped JSON object.
var ErrMalformedResponse = errors.New("malformed response")

// jsonKind is the first significant byte class of a JSON value.
type jsonKind int

const (
	kindNull jsonKind = iota
	kindObject
	kindArray
	kindString
	kindOther
)

// expectedKinds maps known top-level fields to the JSON kind they must have.
// null is always accepted. "references" is opaque and not listed.
var expectedKinds = map[string]jsonKind{
	"data":       kindArray,
	"metadata":   kindObject,
	"config":     kindObject,
	"creator":    kindObject,
	"about":      kindObject,
	"recipients": kindObject,
}

// DecodeFetchedData parses body as a FetchedData. Unknown fields are
// ignored; known fields must have the right JSON kind.
func DecodeFetchedData(body []byte) (*FetchedData, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: body is null", ErrMalformedResponse)
	}

	for name, want := range expectedKinds {
		raw, ok := fields[name]
		if !ok {
			continue
		}
		if got := kindOf(raw); got != want && got != kindNull {
			return nil, fmt.Errorf("%w: field %q has wrong type", ErrMalformedResponse, name)
		}
	}

	var fd FetchedData
	if err := json.Unmarshal(body, &fd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &fd, nil
}

func kindOf(raw json.RawMessage) jsonKind {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return kindNull
	}
	switch trimmed[0] {
	case '{':
		return kindObject
	case '[':
		return kindArray
	case '"':
		return kindString
	case 'n':
		return kindNull
	default:
		return kindOther
	}
}
