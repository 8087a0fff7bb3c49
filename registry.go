package hprose

import (
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/hengadev/hprose/internal/accessor"
	"github.com/hengadev/hprose/internal/converter"
)

// Registry owns everything the codec learns about Go types: one codec per
// type, the member lists of struct types, primitive conversions and class
// aliases. It is safe for concurrent use. Codecs and member lists are built
// on first use and never change afterwards.
type Registry struct {
	codecs     sync.Map // reflect.Type -> *codec
	members    *accessor.Cache
	converters *converter.Registry
	logger     *slog.Logger

	mu    sync.RWMutex
	names map[reflect.Type]string
	types map[string]reflect.Type
}

// NewRegistry creates an empty registry. A nil logger discards output.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = discardLogger()
	}
	return &Registry{
		members:    accessor.NewCache(),
		converters: converter.New(),
		logger:     logger,
		names:      make(map[reflect.Type]string),
		types:      make(map[string]reflect.Type),
	}
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	return NewRegistry(nil)
})

// DefaultRegistry returns the registry used when no WithRegistry option is given.
func DefaultRegistry() *Registry {
	return defaultRegistry()
}

// Register binds the struct type of value (a struct or a pointer to one) to
// a class name. An empty alias uses the Go type name. Objects of a registered
// class decode into a pointer to the registered type when the destination is
// untyped; unregistered classes decode into map[string]any.
func (r *Registry) Register(value any, alias string) error {
	t := reflect.TypeOf(value)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return fmt.Errorf("%w: only struct types can be registered, got %T", ErrInvalidConfiguration, value)
	}
	if alias == "" {
		alias = t.Name()
	}
	if alias == "" {
		return fmt.Errorf("%w: anonymous struct %s needs an alias", ErrInvalidConfiguration, t)
	}
	if _, err := r.members.Get(t, MemberMode); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.types[alias]; ok && existing != t {
		return fmt.Errorf("%w: class %q is already registered to %s", ErrInvalidConfiguration, alias, existing)
	}
	if previous, ok := r.names[t]; ok && previous != alias {
		delete(r.types, previous)
	}
	r.names[t] = alias
	r.types[alias] = t
	r.logger.Debug("registered class", "class", alias, "type", t.String())
	return nil
}

// ClassName returns the class name written for struct type t.
func (r *Registry) ClassName(t reflect.Type) string {
	r.mu.RLock()
	name, ok := r.names[t]
	r.mu.RUnlock()
	if ok {
		return name
	}
	return t.Name()
}

// ClassType returns the struct type registered under name.
func (r *Registry) ClassType(name string) (reflect.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[name]
	return t, ok
}

// Members returns the ordered member list of struct type t in mode.
func (r *Registry) Members(t reflect.Type, mode Mode) (*accessor.Members, error) {
	return r.members.Get(t, mode)
}

// codecOf returns the memoized codec for t, building it on first use. Two
// goroutines may build the same codec concurrently; the first stored wins and
// both results are equivalent.
func (r *Registry) codecOf(t reflect.Type) *codec {
	if c, ok := r.codecs.Load(t); ok {
		return c.(*codec)
	}
	c := newCodec(t)
	actual, loaded := r.codecs.LoadOrStore(t, c)
	if !loaded {
		r.logger.Debug("built codec", "type", t.String(), "strategy", c.strategy.String())
	}
	return actual.(*codec)
}
