package core

import "context"

// Repository defines the contract for storing and retrieving contact
// documents. Adhering to this interface keeps the reconciliation core
// independent of the underlying storage mechanism.
type Repository interface {
	// Save persists a document. It creates if not exists, or updates if it does.
	Save(ctx context.Context, doc Document) error

	// Get retrieves a document by its ID.
	Get(ctx context.Context, id string) (Document, error)

	// List returns all contact documents in the vault.
	List(ctx context.Context) ([]Document, error)

	// Delete removes a document by its ID.
	Delete(ctx context.Context, id string) error

	// Initialize ensures the underlying storage is ready (e.g. create directories).
	Initialize(ctx context.Context) error
}

// Watchable defines an interface for repositories that can emit change events.
type Watchable interface {
	// Watch observes the vault for changes matching the given pattern.
	// The returned channel is closed when ctx is cancelled.
	Watch(ctx context.Context, pattern string) (<-chan Event, error)
}

// Reconcilable defines an interface for repositories that can detect
// changes made while no watcher was running.
type Reconcilable interface {
	// Reconcile compares the storage against the last known state and
	// returns the missed events.
	Reconcile(ctx context.Context) ([]Event, error)
}
