package model

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/goccy/go-json"
)

// FormData maps field ids to submitted values. A missing key and a key holding
// Null are different: conditional visibility only looks at present keys.
type FormData map[string]Value

// Get returns the value for key and whether the key is present.
func (d FormData) Get(key string) (Value, bool) {
	if d == nil {
		return Null(), false
	}
	v, ok := d[key]
	return v, ok
}

// Has reports whether key is present.
func (d FormData) Has(key string) bool {
	_, ok := d.Get(key)
	return ok
}

// Clone returns a shallow copy that can be extended without touching d.
func (d FormData) Clone() FormData {
	out := make(FormData, len(d)+4)
	for key, value := range d {
		out[key] = value
	}
	return out
}

// Keys returns the keys in sorted order.
func (d FormData) Keys() []string {
	keys := make([]string, 0, len(d))
	for key := range d {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// DecodeFormData parses a JSON object of form values.
func DecodeFormData(data []byte) (FormData, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return FormData{}, nil
	}
	var out FormData
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, fmt.Errorf("model: decode form data: %w", err)
	}
	if out == nil {
		out = FormData{}
	}
	return out, nil
}

// DecodeSubmission parses a JSON submission ({"contract_type", "form_data"}).
func DecodeSubmission(data []byte) (FormSubmission, error) {
	var out FormSubmission
	if err := json.Unmarshal(data, &out); err != nil {
		return FormSubmission{}, fmt.Errorf("model: decode submission: %w", err)
	}
	if out.FormData == nil {
		out.FormData = FormData{}
	}
	return out, nil
}
