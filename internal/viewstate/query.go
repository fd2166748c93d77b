package viewstate

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmespath/go-jmespath"
)

// ErrInvalidQuery is returned for expressions that are not valid JMESPath.
var ErrInvalidQuery = errors.New("invalid query")

// Query applies a JMESPath expression to fd, as seen on the wire, and
// returns the selected JSON. A nil fd queries null.
func Query(fd *FetchedData, expression string) (json.RawMessage, error) {
	jp, err := jmespath.Compile(expression)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidQuery, expression, err)
	}

	var doc interface{}
	if fd != nil {
		raw, err := json.Marshal(fd)
		if err != nil {
			return nil, fmt.Errorf("encoding fetched data: %w", err)
		}
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("decoding fetched data: %w", err)
		}
	}

	result, err := jp.Search(doc)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", expression, err)
	}
	out, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encoding query result: %w", err)
	}
	return out, nil
}
