// Package memvips is an in-process implementation of native.Library. It
// keeps the shape of libvips that the binding depends on: a GObject-like type
// system, reference-counted objects, GValues, VipsOperation argument tables
// with libvips priorities and flags, and an operation cache. Pixels are held
// as float64 planes and rounded to the declared band format.
package memvips

import (
	"fmt"
	"sort"
	"sync"

	"github.com/cshum/vipscall/native"
)

const defaultCacheMax = 100

// Library is the in-memory native library. It is safe for concurrent use.
type Library struct {
	mu sync.Mutex

	major, minor, micro int

	types   *typeRegistry
	objects map[native.Pointer]*object
	values  map[native.Pointer]*gvalue
	next    native.Pointer

	classes map[string]*opClass

	cache    map[string]native.Pointer
	cacheLRU []string
	cacheMax int
}

// Option configures a Library.
type Option func(*Library)

// WithVersion sets the reported library version. Versions before 8.5 report
// built-in enum header fields of images as plain ints on the header path.
func WithVersion(major, minor, micro int) Option {
	return func(l *Library) {
		l.major, l.minor, l.micro = major, minor, micro
	}
}

// WithCacheMax sets the operation cache size. Zero disables caching.
func WithCacheMax(n int) Option {
	return func(l *Library) {
		l.cacheMax = n
	}
}

// New creates a Library with the standard operation catalog registered.
func New(opts ...Option) *Library {
	l := &Library{
		major:    8,
		minor:    16,
		micro:    0,
		objects:  map[native.Pointer]*object{},
		values:   map[native.Pointer]*gvalue{},
		next:     1,
		classes:  map[string]*opClass{},
		cache:    map[string]native.Pointer{},
		cacheMax: defaultCacheMax,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.types = newTypeRegistry()
	registerOperations(l)
	return l
}

// Version reports the emulated libvips version.
func (l *Library) Version() (int, int, int) {
	return l.major, l.minor, l.micro
}

func (l *Library) atLeast(major, minor int) bool {
	return l.major > major || (l.major == major && l.minor >= minor)
}

// ObjectCount returns the number of live objects, including those held by
// the operation cache.
func (l *Library) ObjectCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.objects)
}

// ValueCount returns the number of allocated GValues.
func (l *Library) ValueCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.values)
}

// CacheDropAll releases every cached operation.
func (l *Library) CacheDropAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cacheDropAllLocked()
}

// CacheSize returns the number of cached operations.
func (l *Library) CacheSize() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.cache)
}

// Shutdown drops the cache. Objects still referenced by the binding stay
// alive and are reported by ObjectCount.
func (l *Library) Shutdown() {
	l.CacheDropAll()
}

func (l *Library) alloc() native.Pointer {
	p := l.next
	l.next++
	return p
}

// OperationNames lists every registered operation nickname, sorted.
func (l *Library) OperationNames() []string {
	names := make([]string, 0, len(l.classes))
	for name := range l.classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func errorf(domain, format string, args ...any) error {
	return fmt.Errorf("%s: %s", domain, fmt.Sprintf(format, args...))
}
