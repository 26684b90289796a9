package di

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

var (
	// ErrNotRegistered is returned when resolving a name that was never registered
	ErrNotRegistered = errors.New("service not registered")
	// ErrCircularDependency is returned when a provider resolves itself, directly or transitively
	ErrCircularDependency = errors.New("circular dependency")
	// ErrScopedFromRoot is returned when a scoped service is resolved outside a scope
	ErrScopedFromRoot = errors.New("scoped service resolved outside a scope")
	// ErrDuplicate is returned when registering a name twice
	ErrDuplicate = errors.New("service already registered")
)

// Lifetime controls how often a provider runs and where its result is cached
type Lifetime int

const (
	// Singleton services are created once per container
	Singleton Lifetime = iota
	// Scoped services are created once per Scope
	Scoped
	// Transient services are created on every resolve
	Transient
)

func (l Lifetime) String() string {
	switch l {
	case Singleton:
		return "singleton"
	case Scoped:
		return "scoped"
	case Transient:
		return "transient"
	default:
		return "unknown"
	}
}

// Provider constructs a service. Providers declare their dependencies by
// resolving them through the passed Resolver.
type Provider func(r Resolver) (any, error)

// Resolver resolves registered services by name
type Resolver interface {
	Resolve(name string) (any, error)
}

type registration struct {
	lifetime Lifetime
	provider Provider
}

// cell latches a single provider invocation. A failed invocation is
// evicted from the cache so a later resolve can retry.
type cell struct {
	once sync.Once
	val  any
	err  error
}

// Container is a thread-safe service registry with lifetime management
type Container struct {
	mu            sync.RWMutex
	registrations map[string]*registration
	cells         map[string]*cell
	order         []string
	closed        bool
}

// New creates an empty container
func New() *Container {
	return &Container{
		registrations: make(map[string]*registration),
		cells:         make(map[string]*cell),
	}
}

// Register adds a named provider with the given lifetime.
// Registering an existing name fails; registrations never replace
// already-created instances.
func (c *Container) Register(name string, lt Lifetime, p Provider) error {
	if name == "" {
		return fmt.Errorf("register: name must not be empty")
	}
	if p == nil {
		return fmt.Errorf("register %q: provider must not be nil", name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.registrations[name]; exists {
		return fmt.Errorf("register %q: %w", name, ErrDuplicate)
	}
	c.registrations[name] = &registration{lifetime: lt, provider: p}
	return nil
}

// MustRegister is Register that panics on error, for wiring done at startup
func (c *Container) MustRegister(name string, lt Lifetime, p Provider) {
	if err := c.Register(name, lt, p); err != nil {
		panic(err)
	}
}

// Resolve resolves a service at container (root) scope. Scoped services
// cannot be resolved here; use NewScope for those.
func (c *Container) Resolve(name string) (any, error) {
	return c.resolve(name, nil, nil)
}

// NewScope creates a child resolution scope. Singleton resolution
// delegates to the container; scoped instances live and die with the Scope.
func (c *Container) NewScope() *Scope {
	return &Scope{
		container: c,
		cells:     make(map[string]*cell),
	}
}

// resolve walks the dependency graph. stack holds the names currently
// being constructed, newest last; revisiting one is a cycle.
func (c *Container) resolve(name string, scope *Scope, stack []string) (any, error) {
	for _, inflight := range stack {
		if inflight == name {
			chain := strings.Join(append(stack, name), " -> ")
			return nil, fmt.Errorf("%w: %s", ErrCircularDependency, chain)
		}
	}

	c.mu.RLock()
	reg, ok := c.registrations[name]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("resolve %q: %w", name, ErrNotRegistered)
	}

	child := &stackResolver{container: c, scope: scope, stack: append(stack, name)}

	switch reg.lifetime {
	case Transient:
		return reg.provider(child)

	case Scoped:
		if scope == nil {
			return nil, fmt.Errorf("resolve %q: %w", name, ErrScopedFromRoot)
		}
		return scope.latch(name, reg.provider, child)

	default: // Singleton
		return c.latch(name, reg.provider, child)
	}
}

// latch creates or returns the cached singleton. The provider runs at
// most once even when resolved concurrently.
func (c *Container) latch(name string, p Provider, r Resolver) (any, error) {
	c.mu.Lock()
	cl, ok := c.cells[name]
	if !ok {
		cl = &cell{}
		c.cells[name] = cl
	}
	c.mu.Unlock()

	cl.once.Do(func() {
		cl.val, cl.err = p(r)
		if cl.err == nil {
			c.mu.Lock()
			c.order = append(c.order, name)
			c.mu.Unlock()
		}
	})

	if cl.err != nil {
		// Evict so a later resolve can retry
		c.mu.Lock()
		if c.cells[name] == cl {
			delete(c.cells, name)
		}
		c.mu.Unlock()
		return nil, cl.err
	}
	return cl.val, nil
}

// Close closes all cached singletons that implement io.Closer, in
// reverse creation order. Close is idempotent.
func (c *Container) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	order := c.order
	cells := c.cells
	c.order = nil
	c.cells = make(map[string]*cell)
	c.mu.Unlock()

	var errs []error
	for i := len(order) - 1; i >= 0; i-- {
		cl, ok := cells[order[i]]
		if !ok {
			continue
		}
		if closer, ok := cl.val.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %q: %w", order[i], err))
			}
		}
	}
	return errors.Join(errs...)
}

// Scope is a child resolution context. Scoped instances are cached per
// Scope; closing the Scope closes only those.
type Scope struct {
	container *Container
	mu        sync.Mutex
	cells     map[string]*cell
	order     []string
	closed    bool
}

// Resolve resolves a service within this scope
func (s *Scope) Resolve(name string) (any, error) {
	return s.container.resolve(name, s, nil)
}

func (s *Scope) latch(name string, p Provider, r Resolver) (any, error) {
	s.mu.Lock()
	cl, ok := s.cells[name]
	if !ok {
		cl = &cell{}
		s.cells[name] = cl
	}
	s.mu.Unlock()

	cl.once.Do(func() {
		cl.val, cl.err = p(r)
		if cl.err == nil {
			s.mu.Lock()
			s.order = append(s.order, name)
			s.mu.Unlock()
		}
	})

	if cl.err != nil {
		s.mu.Lock()
		if s.cells[name] == cl {
			delete(s.cells, name)
		}
		s.mu.Unlock()
		return nil, cl.err
	}
	return cl.val, nil
}

// Close closes all scoped instances that implement io.Closer, in
// reverse creation order. Singletons are left to the container.
func (s *Scope) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	order := s.order
	cells := s.cells
	s.order = nil
	s.cells = make(map[string]*cell)
	s.mu.Unlock()

	var errs []error
	for i := len(order) - 1; i >= 0; i-- {
		cl, ok := cells[order[i]]
		if !ok {
			continue
		}
		if closer, ok := cl.val.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %q: %w", order[i], err))
			}
		}
	}
	return errors.Join(errs...)
}

// stackResolver carries the in-flight resolution chain so providers can
// resolve their dependencies with cycle detection intact.
type stackResolver struct {
	container *Container
	scope     *Scope
	stack     []string
}

func (r *stackResolver) Resolve(name string) (any, error) {
	return r.container.resolve(name, r.scope, r.stack)
}

// ResolveAs resolves a service and asserts its concrete type
func ResolveAs[T any](r Resolver, name string) (T, error) {
	var zero T
	v, err := r.Resolve(name)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("resolve %q: got %T, want %T", name, v, zero)
	}
	return t, nil
}

// MustResolveAs is ResolveAs that panics on error, for wiring done at startup
func MustResolveAs[T any](r Resolver, name string) T {
	t, err := ResolveAs[T](r, name)
	if err != nil {
		panic(err)
	}
	return t
}
