package api

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/bookqa/bookqa/pkg/core"
)

func obj(props map[string]*jsonschema.Schema, required ...string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "object", Properties: props, Required: required}
}

func typed(t string) *jsonschema.Schema { return &jsonschema.Schema{Type: t} }

func intPtr(n int) *int { return &n }

func floatPtr(f float64) *float64 { return &f }

// CartSchema describes a cart payload.
var CartSchema = obj(map[string]*jsonschema.Schema{
	"payload": obj(map[string]*jsonschema.Schema{
		"data": {
			Type: "array",
			Items: obj(map[string]*jsonschema.Schema{
				"id":       typed("integer"),
				"title":    typed("string"),
				"price":    typed("number"),
				"quantity": typed("integer"),
			}),
		},
		"total": typed("number"),
	}),
})

// EmptyCartSchema requires payload.data to be an empty array.
var EmptyCartSchema = obj(map[string]*jsonschema.Schema{
	"payload": obj(map[string]*jsonschema.Schema{
		"data": {Type: "array", MaxItems: intPtr(0)},
	}, "data"),
}, "payload")

// SearchResponseSchema describes a search result page.
var SearchResponseSchema = obj(map[string]*jsonschema.Schema{
	"books": {
		Type: "array",
		Items: obj(map[string]*jsonschema.Schema{
			"id":     typed("integer"),
			"title":  typed("string"),
			"author": typed("string"),
			"price":  typed("number"),
			"rating": typed("number"),
		}, "id", "title"),
	},
	"total": {Type: "integer", Minimum: floatPtr(0)},
}, "books", "total")

// BookDetailsSchema describes one book.
var BookDetailsSchema = obj(map[string]*jsonschema.Schema{
	"id":          typed("integer"),
	"title":       typed("string"),
	"author":      typed("string"),
	"description": typed("string"),
	"price":       typed("number"),
	"isbn":        typed("string"),
}, "id", "title", "author")

// resolved caches *jsonschema.Resolved per schema pointer.
var resolved sync.Map

func resolve(schema *jsonschema.Schema) (*jsonschema.Resolved, error) {
	if r, ok := resolved.Load(schema); ok {
		return r.(*jsonschema.Resolved), nil
	}
	r, err := schema.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("resolve schema: %w", err)
	}
	actual, _ := resolved.LoadOrStore(schema, r)
	return actual.(*jsonschema.Resolved), nil
}

// ValidateJSON checks body against schema. Failures wrap core.ErrSchemaMismatch.
func ValidateJSON(schema *jsonschema.Schema, body []byte) error {
	rs, err := resolve(schema)
	if err != nil {
		return err
	}
	var instance interface{}
	if err := json.Unmarshal(body, &instance); err != nil {
		return core.ErrSchemaMismatch.WithMessage("response is not JSON").WithCause(err)
	}
	if err := rs.Validate(instance); err != nil {
		return core.ErrSchemaMismatch.WithCause(err)
	}
	return nil
}

// Validate checks the response body against schema.
func (r *Response) Validate(schema *jsonschema.Schema) error {
	if err := ValidateJSON(schema, r.Body); err != nil {
		return fmt.Errorf("%s %s: %w", r.Method, r.URL, err)
	}
	return nil
}

// HasSearchPayload reports whether a search body has one of the shapes the
// store is known to return: an object with payload or data, or a bare list.
func HasSearchPayload(body []byte) bool {
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return false
	}
	switch t := v.(type) {
	case []interface{}:
		return true
	case map[string]interface{}:
		_, p := t["payload"]
		_, d := t["data"]
		return p || d
	}
	return false
}
