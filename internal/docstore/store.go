// Package docstore defines the gateway to the document store: named
// collections of JSON-shaped documents keyed by id, with single-document
// atomic updates. Nothing above this package knows which backend is in use.
//
// Multi-step sequences (read one document, then write another) are NOT
// transactional across documents; callers own that trade-off.
package docstore

import (
	"context"
	"errors"
)

// Collection names used by the service.
const (
	CollectionUsers    = "userProfiles"
	CollectionGroups   = "groups"
	CollectionReceipts = "receipts"
)

var ErrNotFound = errors.New("document not found")

// Fields is the JSON-shaped body of a document. Values are restricted to what
// encoding/json round-trips: strings, float64/int64 numbers, bools, []any,
// nested maps, plus the update sentinels below when passed to Update/Set.
type Fields map[string]any

// Document is one stored record.
type Document struct {
	ID     string
	Fields Fields
}

// Update sentinels. They are only meaningful as values inside Fields passed
// to Set or Update; the backends substitute them at write time.
type (
	serverTimestamp struct{}
	fieldDelete     struct{}

	// ArrayOp adds or removes values with set semantics on an array field.
	ArrayOp struct {
		Values []any
		Remove bool
	}
)

// ServerTimestamp is replaced with the store's current UTC time at write.
var ServerTimestamp = serverTimestamp{}

// FieldDelete removes the field from the document.
var FieldDelete = fieldDelete{}

// ArrayUnion appends the values to an array field, skipping ones already
// present. Missing fields are created.
func ArrayUnion(values ...any) ArrayOp {
	return ArrayOp{Values: values}
}

// ArrayRemove deletes every occurrence of the values from an array field.
func ArrayRemove(values ...any) ArrayOp {
	return ArrayOp{Values: values, Remove: true}
}

// Filter ops.
const (
	OpEqual          = "=="
	OpGreaterOrEqual = ">="
	OpLessOrEqual    = "<="
)

// Filter restricts a Query to documents whose field compares true against
// Value. Range comparisons are string comparisons, which is exactly right for
// YYYY-MM-DD dates.
type Filter struct {
	Field string
	Op    string
	Value any
}

func Eq(field string, value any) Filter {
	return Filter{Field: field, Op: OpEqual, Value: value}
}

func Gte(field string, value any) Filter {
	return Filter{Field: field, Op: OpGreaterOrEqual, Value: value}
}

func Lte(field string, value any) Filter {
	return Filter{Field: field, Op: OpLessOrEqual, Value: value}
}

// Store is the gateway contract. Every operation is atomic for the single
// document it names.
type Store interface {
	// Get returns the document or ErrNotFound.
	Get(ctx context.Context, collection, id string) (Document, error)

	// Set writes the document. With merge, existing fields not named are
	// preserved; without, the document is replaced.
	Set(ctx context.Context, collection, id string, fields Fields, merge bool) error

	// Update applies field-level changes to an existing document. Values may
	// be plain values or the sentinels above. Returns ErrNotFound if the
	// document does not exist.
	Update(ctx context.Context, collection, id string, updates Fields) error

	// Delete removes the document. Deleting a missing document is a no-op.
	Delete(ctx context.Context, collection, id string) error

	// Query returns all documents in the collection matching every filter.
	// Order is unspecified; callers sort.
	Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error)

	// AddAutoID stores the fields under a freshly generated id and returns it.
	AddAutoID(ctx context.Context, collection string, fields Fields) (string, error)

	Close() error
}
