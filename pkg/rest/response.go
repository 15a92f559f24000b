package rest

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/mesh-intelligence/larder/pkg/types"
)

// Response is a decoded-on-demand REST response. Status drives OK; the body
// is kept raw so extraction can unwrap an envelope or use it directly.
type Response struct {
	Status int
	Body   []byte
}

// OK reports whether the status code is in the 2xx range.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Entity extracts a single entity map from the body. A nested data key
// holding an object is unwrapped; otherwise the body itself must be an
// object. An empty body yields nil. Malformed JSON wraps types.ErrDecode.
func (r *Response) Entity() (map[string]any, error) {
	raw := r.payload()
	if len(raw) == 0 {
		return nil, nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrDecode, err)
	}
	return out, nil
}

// Collection extracts a list of entity maps from the body, unwrapping a
// nested data key holding an array when present. An empty body yields an
// empty list.
func (r *Response) Collection() ([]map[string]any, error) {
	raw := r.payload()
	if len(raw) == 0 {
		return nil, nil
	}
	var out []map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrDecode, err)
	}
	return out, nil
}

// payload returns the data envelope's raw JSON when the body is an object
// carrying a structured data key, and the raw body otherwise.
func (r *Response) payload() []byte {
	if len(r.Body) == 0 {
		return nil
	}
	data := gjson.GetBytes(r.Body, "data")
	if data.Exists() && (data.IsObject() || data.IsArray()) {
		return []byte(data.Raw)
	}
	return r.Body
}
