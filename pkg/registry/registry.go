package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/arthur-debert/kiln/pkg/errors"
)

// Registry is a generic, thread-safe registry for storing and retrieving items by name
type Registry[T any] interface {
	// Register adds an item to the registry
	Register(name string, item T) error

	// Get retrieves an item from the registry
	Get(name string) (T, error)

	// Lookup retrieves several items, failing on the first unknown name
	Lookup(names ...string) ([]T, error)

	// List returns all registered names in sorted order
	List() []string

	// Has checks if an item is registered
	Has(name string) bool

	// Count returns the number of registered items
	Count() int
}

// registry is the internal implementation of Registry
type registry[T any] struct {
	mu       sync.RWMutex
	items    map[string]T
	notFound errors.ErrorCode
}

// New creates a new Registry whose lookups fail with ErrNotFound
func New[T any]() Registry[T] {
	return NewWithCode[T](errors.ErrNotFound)
}

// NewWithCode creates a new Registry whose lookups fail with the given code
func NewWithCode[T any](notFound errors.ErrorCode) Registry[T] {
	return &registry[T]{
		items:    make(map[string]T),
		notFound: notFound,
	}
}

func (r *registry[T]) Register(name string, item T) error {
	if name == "" {
		return errors.New(errors.ErrInvalidInput, "registry name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[name]; exists {
		return errors.Newf(errors.ErrAlreadyExists, "%q is already registered", name)
	}

	r.items[name] = item
	return nil
}

func (r *registry[T]) Get(name string) (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, exists := r.items[name]
	if !exists {
		var zero T
		return zero, errors.Newf(r.notFound, "%q is not registered", name).
			WithDetail("name", name)
	}

	return item, nil
}

func (r *registry[T]) Lookup(names ...string) ([]T, error) {
	items := make([]T, 0, len(names))
	for _, name := range names {
		item, err := r.Get(name)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *registry[T]) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.items))
	for name := range r.items {
		names = append(names, name)
	}

	sort.Strings(names)
	return names
}

func (r *registry[T]) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.items[name]
	return exists
}

func (r *registry[T]) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.items)
}

// MustRegister registers an item and panics if registration fails.
// Registration of built-ins happens at construction time, where a failure
// is a programming error.
func MustRegister[T any](reg Registry[T], name string, item T) {
	if err := reg.Register(name, item); err != nil {
		panic(fmt.Sprintf("failed to register %s: %v", name, err))
	}
}
