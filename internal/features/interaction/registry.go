package interaction

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"discord-giveaway-bot/internal/common/errors"
)

type Kind string

const (
	// KindCommand keys handlers by slash command name.
	KindCommand Kind = "command"
	// KindLabel keys handlers by the custom_id prefix before the first underscore.
	KindLabel Kind = "label"
)

// Key renders the lookup key, e.g. "command:create" or "label:action".
func Key(kind Kind, name string) string {
	return string(kind) + ":" + name
}

// Registry is the lookup table from typed keys to handlers.
// It is filled at startup and sealed when the dispatcher is built.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	sealed   bool
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

func (r *Registry) Register(kind Kind, name string, handler Handler) error {
	if kind != KindCommand && kind != KindLabel {
		return fmt.Errorf("unknown handler kind %q", kind)
	}
	if name == "" {
		return fmt.Errorf("empty %s name", kind)
	}
	if kind == KindLabel && strings.Contains(name, "_") {
		return fmt.Errorf("label %q must not contain '_'", name)
	}
	if handler == nil {
		return fmt.Errorf("nil handler for %s", Key(kind, name))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return fmt.Errorf("registry is sealed, cannot register %s", Key(kind, name))
	}
	key := Key(kind, name)
	if _, exists := r.handlers[key]; exists {
		return errors.New(errors.ErrCodeDuplicateRegistration, "Duplicate registration for "+key).
			WithDetail("key", key)
	}
	r.handlers[key] = handler
	return nil
}

// MustRegister panics on error. Startup wiring only.
func (r *Registry) MustRegister(kind Kind, name string, handler Handler) {
	if err := r.Register(kind, name, handler); err != nil {
		panic(err)
	}
}

func (r *Registry) RegisterFunc(kind Kind, name string, fn func(ctx context.Context, req *Request) (*Result, error)) error {
	return r.Register(kind, name, HandlerFunc(fn))
}

func (r *Registry) Resolve(kind Kind, name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[Key(kind, name)]
	return h, ok
}

// Seal freezes the table.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}

// Keys lists registered keys in sorted order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.handlers))
	for k := range r.handlers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
