// Package store defines the document database the service runs against:
// keyed collections with equality filters, ordered queries and push-based
// live subscriptions. Implementations live in the firestore and memory
// subpackages.
package store

import "context"

// Fields is one document's data. Values are the small set of types both
// backends round-trip: string, bool, int64, float64, time.Time, []string
// and ServerTimestamp.
type Fields map[string]any

// ServerTimestamp marks a field to be filled with the backend's own clock
// at write time. Server-assigned timestamps are the authoritative ordering
// key for posts and comments.
var ServerTimestamp = serverTimestamp{}

type serverTimestamp struct{}

type Record struct {
	Id   string
	Data Fields
}

type Direction int

const (
	Asc Direction = iota
	Desc
)

// Filter is an equality condition. Nothing in the system queries with
// anything else.
type Filter struct {
	Field string
	Value any
}

type Order struct {
	Field     string
	Direction Direction
}

type Query struct {
	Collection string // slash-separated collection path, e.g. "posts/abc/likes"
	Filters    []Filter
	OrderBy    []Order
}

// Subscription is a live result set. Updates delivers the full matching
// record set on every change, starting with the current one. The channel
// closes after Close or when the subscribe context is cancelled; updates
// already in flight at teardown are discarded by the receiver going away,
// not cancelled.
type Subscription interface {
	Updates() <-chan []Record
	Close()
}

type Store interface {
	// Create adds a document with a backend-assigned id.
	Create(ctx context.Context, collection string, data Fields) (string, error)
	// Set writes a document at a caller-chosen key, replacing any existing
	// data. Like marks use this with the user id as the key.
	Set(ctx context.Context, path string, data Fields) error
	// Patch merges fields into an existing document.
	Patch(ctx context.Context, path string, data Fields) error
	// Get returns errors.NotFound for absent documents.
	Get(ctx context.Context, path string) (Record, error)
	Delete(ctx context.Context, path string) error
	// Query is a one-shot read of the matching record set.
	Query(ctx context.Context, q Query) ([]Record, error)
	Subscribe(ctx context.Context, q Query) (Subscription, error)
}
