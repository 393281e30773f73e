// Package vips calls operations of an introspectable image library by name.
// Argument contracts are discovered at runtime; Go values are converted to
// and from GValues, constants are broadcast into images, and outputs are
// gathered into a single result.
package vips

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/cshum/vipscall/native"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Version information of the running library, filled in by Startup.
var (
	Version      string
	MajorVersion int
	MinorVersion int
	MicroVersion int
)

// Config controls Startup.
type Config struct {
	// Library is the native backend. Nil selects the build's default.
	Library native.Library
	// Logger receives debug traces of calls and shutdown leak reports.
	// Nil uses the global zerolog logger.
	Logger *zerolog.Logger
	// ReportLeaks logs objects still alive at Shutdown.
	ReportLeaks bool
}

type typeTable struct {
	object      native.GType
	image       native.GType
	refString   native.GType
	arrayInt    native.GType
	arrayDouble native.GType
	arrayImage  native.GType
	blob        native.GType
}

// binding is one started library. Every handle keeps the binding it was
// created with.
type binding struct {
	lib         native.Library
	types       typeTable
	log         zerolog.Logger
	reportLeaks bool
	baseline    int
	// propertiesFirst is set for libraries older than 8.5, whose image
	// header path reports built-in enums as gint.
	propertiesFirst bool
}

var (
	running   atomic.Pointer[binding]
	startLock sync.Mutex
)

// Startup starts the library. Calls after the first are no-ops until
// Shutdown.
func Startup(config *Config) {
	startLock.Lock()
	defer startLock.Unlock()
	if running.Load() != nil {
		return
	}
	if config == nil {
		config = &Config{}
	}
	lib := config.Library
	if lib == nil {
		lib = defaultLibrary()
	}
	logger := log.Logger
	if config.Logger != nil {
		logger = *config.Logger
	}
	b := newBinding(lib, logger, config.ReportLeaks)
	MajorVersion, MinorVersion, MicroVersion = lib.Version()
	Version = fmt.Sprintf("%d.%d.%d", MajorVersion, MinorVersion, MicroVersion)
	running.Store(b)
	b.log.Debug().Str("version", Version).Msg("started")
}

// Shutdown releases the library's caches and, with ReportLeaks, logs the
// objects that are still alive.
func Shutdown() {
	startLock.Lock()
	defer startLock.Unlock()
	b := running.Swap(nil)
	if b == nil {
		return
	}
	b.lib.Shutdown()
	if b.reportLeaks {
		if leaked := b.lib.ObjectCount() - b.baseline; leaked > 0 {
			b.log.Warn().Int("objects", leaked).Msg("objects alive at shutdown")
		}
	}
	b.log.Debug().Msg("shutdown")
}

func newBinding(lib native.Library, logger zerolog.Logger, reportLeaks bool) *binding {
	major, minor, _ := lib.Version()
	return &binding{
		lib: lib,
		types: typeTable{
			object:      lib.TypeFromName("VipsObject"),
			image:       lib.TypeFromName("VipsImage"),
			refString:   lib.TypeFromName("VipsRefString"),
			arrayInt:    lib.TypeFromName("VipsArrayInt"),
			arrayDouble: lib.TypeFromName("VipsArrayDouble"),
			arrayImage:  lib.TypeFromName("VipsArrayImage"),
			blob:        lib.TypeFromName("VipsBlob"),
		},
		log:         logger.With().Str("component", "vips").Logger(),
		reportLeaks: reportLeaks,
		baseline:    lib.ObjectCount(),

		propertiesFirst: major < 8 || (major == 8 && minor < 5),
	}
}

// current returns the running binding, starting the default one if needed.
func current() *binding {
	if b := running.Load(); b != nil {
		return b
	}
	Startup(nil)
	return running.Load()
}

// ObjectCount reports the number of live native objects.
func ObjectCount() int {
	return current().lib.ObjectCount()
}

func (b *binding) typeName(t native.GType) string {
	if name := b.lib.TypeName(t); name != "" {
		return name
	}
	return fmt.Sprintf("GType(%d)", t)
}

func (b *binding) isImageType(t native.GType) bool {
	return t == b.types.arrayImage || b.lib.TypeIsA(t, b.types.image)
}

// TypeFromName resolves a native type name such as "VipsBandFormat", or
// returns 0.
func TypeFromName(name string) native.GType {
	return current().lib.TypeFromName(name)
}
