// Package native describes the boundary between the Go binding and the
// native image library. A Library exposes the GObject-style type system,
// GValue storage, the object property system, the operation catalog and the
// image header system that the dispatcher in package vips is built on.
//
// Two implementations exist: the pure-Go internal/memvips and the cgo
// internal/cvips (build tag vipscgo) over libvips itself.
package native

// Pointer is an opaque reference to a native object or GValue. Zero is null.
type Pointer uintptr

// GType identifies a native type.
type GType uint64

// Fundamental type ids, fixed by GLib.
const (
	TypeInvalid GType = 0
	TypeBoolean GType = 5 << 2
	TypeInt     GType = 6 << 2
	TypeUint64  GType = 11 << 2
	TypeEnum    GType = 12 << 2
	TypeFlags   GType = 13 << 2
	TypeDouble  GType = 15 << 2
	TypeString  GType = 16 << 2
	TypeBoxed   GType = 18 << 2
	TypeObject  GType = 20 << 2
)

// ArgumentFlags mirrors VipsArgumentFlags.
type ArgumentFlags uint32

const (
	ArgumentNone       ArgumentFlags = 0
	ArgumentRequired   ArgumentFlags = 1
	ArgumentConstruct  ArgumentFlags = 2
	ArgumentSetOnce    ArgumentFlags = 4
	ArgumentSetAlways  ArgumentFlags = 8
	ArgumentInput      ArgumentFlags = 16
	ArgumentOutput     ArgumentFlags = 32
	ArgumentDeprecated ArgumentFlags = 64
	ArgumentModify     ArgumentFlags = 128
	ArgumentNonHashed  ArgumentFlags = 256
)

// Has reports whether all bits of mask are set.
func (f ArgumentFlags) Has(mask ArgumentFlags) bool {
	return f&mask == mask
}

// OperationFlags mirrors VipsOperationFlags.
type OperationFlags uint32

const (
	OperationNone                 OperationFlags = 0
	OperationSequential           OperationFlags = 1
	OperationSequentialUnbuffered OperationFlags = 2
	OperationNoCache              OperationFlags = 4
	OperationDeprecated           OperationFlags = 8
	OperationUntrusted            OperationFlags = 16
	OperationBlocked              OperationFlags = 32
	OperationRevalidate           OperationFlags = 64
)

// Argument is one entry of an object's argument table, in priority order.
type Argument struct {
	Name        string
	Type        GType
	Flags       ArgumentFlags
	Priority    int
	Description string
}

// EnumValue is one member of a GEnum or GFlags type.
type EnumValue struct {
	Value int
	Name  string
	Nick  string
}

// TypeSystem resolves and classifies native types.
type TypeSystem interface {
	TypeFromName(name string) GType
	TypeName(t GType) string
	TypeFundamental(t GType) GType
	TypeIsA(t, parent GType) bool
	EnumValues(t GType) []EnumValue
	EnumFromNick(t GType, nick string) (int, error)
	EnumNick(t GType, value int) (string, bool)
}

// ValueStore allocates and accesses native GValues. Object setters take
// their own reference; object getters return borrowed pointers.
type ValueStore interface {
	ValueNew(t GType) Pointer
	ValueFree(v Pointer)
	ValueType(v Pointer) GType

	ValueSetBoolean(v Pointer, b bool)
	ValueGetBoolean(v Pointer) bool
	ValueSetInt(v Pointer, i int)
	ValueGetInt(v Pointer) int
	ValueSetDouble(v Pointer, d float64)
	ValueGetDouble(v Pointer) float64
	ValueSetString(v Pointer, s string)
	ValueGetString(v Pointer) string
	ValueSetRefString(v Pointer, s string)
	ValueGetRefString(v Pointer) string
	ValueSetEnum(v Pointer, e int)
	ValueGetEnum(v Pointer) int
	ValueSetFlags(v Pointer, f int)
	ValueGetFlags(v Pointer) int
	ValueSetObject(v Pointer, obj Pointer)
	ValueGetObject(v Pointer) Pointer
	ValueSetArrayInt(v Pointer, a []int)
	ValueGetArrayInt(v Pointer) []int
	ValueSetArrayDouble(v Pointer, a []float64)
	ValueGetArrayDouble(v Pointer) []float64
	ValueSetArrayImage(v Pointer, images []Pointer)
	ValueGetArrayImage(v Pointer) []Pointer
	ValueSetBlob(v Pointer, data []byte)
	ValueGetBlob(v Pointer) []byte
}

// ObjectSystem manages reference counts and the property system.
type ObjectSystem interface {
	ObjectRef(obj Pointer)
	ObjectUnref(obj Pointer)
	ObjectRefCount(obj Pointer) int
	ObjectType(obj Pointer) GType
	ObjectDescription(obj Pointer) string
	ObjectArguments(obj Pointer) []Argument
	ObjectPropertyType(obj Pointer, name string) GType
	ObjectGetProperty(obj Pointer, name string, v Pointer) error
	ObjectSetProperty(obj Pointer, name string, v Pointer) error
	ObjectSetFromString(obj Pointer, options string) error
	ObjectUnrefOutputs(obj Pointer)
}

// OperationCatalog creates and builds operations by nickname.
type OperationCatalog interface {
	OperationNames() []string
	OperationNew(name string) Pointer
	OperationFlags(op Pointer) OperationFlags
	// CacheOperationBuild builds op, or returns a cached equivalent. The
	// result carries a new reference; op itself is left untouched.
	CacheOperationBuild(op Pointer) (Pointer, error)
}

// ImageSystem is the generic image header and metadata path plus the
// constructors the binding needs directly.
type ImageSystem interface {
	ImageGetTypeof(img Pointer, name string) GType
	ImageGet(img Pointer, name string, v Pointer) error
	ImageSet(img Pointer, name string, v Pointer)
	ImageRemove(img Pointer, name string) bool
	ImageFields(img Pointer) []string
	ImageNewMatrixFromArray(width, height int, data []float64) (Pointer, error)
	ImageNewFromMemory(data []byte, width, height, bands int, format int) (Pointer, error)
	ImageWriteToMemory(img Pointer) ([]byte, error)
	ImageCopyMemory(img Pointer) (Pointer, error)
}

// Library is a complete native image library.
type Library interface {
	TypeSystem
	ValueStore
	ObjectSystem
	OperationCatalog
	ImageSystem

	Version() (major, minor, micro int)
	// ObjectCount is the number of live native objects, for leak reports.
	ObjectCount() int
	Shutdown()
}
