package memvips

import (
	"fmt"

	"github.com/cshum/vipscall/native"
)

// gvalue is the storage behind a native GValue pointer. data holds bool,
// int, float64, uint64, string, []int, []float64, []byte, a native.Pointer
// for objects or []native.Pointer for image arrays. Object data owns one
// reference per pointer.
type gvalue struct {
	gtype native.GType
	data  any
}

func (l *Library) newValueLocked(t native.GType) native.Pointer {
	p := l.alloc()
	l.values[p] = &gvalue{gtype: t}
	return p
}

func (l *Library) valueLocked(v native.Pointer) *gvalue {
	gv, ok := l.values[v]
	if !ok {
		panic(fmt.Sprintf("memvips: use of freed or unknown GValue %d", v))
	}
	return gv
}

// unsetLocked drops anything the value owns.
func (l *Library) unsetLocked(gv *gvalue) {
	switch d := gv.data.(type) {
	case native.Pointer:
		if d != 0 {
			l.unrefLocked(d)
		}
	case []native.Pointer:
		for _, p := range d {
			l.unrefLocked(p)
		}
	}
	gv.data = nil
}

// copyValueLocked copies src into dst, taking new references.
func (l *Library) copyValueLocked(dst, src *gvalue) {
	l.unsetLocked(dst)
	switch d := src.data.(type) {
	case native.Pointer:
		if d != 0 {
			l.refLocked(d)
		}
		dst.data = d
	case []native.Pointer:
		for _, p := range d {
			l.refLocked(p)
		}
		dst.data = append([]native.Pointer(nil), d...)
	case []int:
		dst.data = append([]int(nil), d...)
	case []float64:
		dst.data = append([]float64(nil), d...)
	case []byte:
		dst.data = append([]byte(nil), d...)
	default:
		dst.data = d
	}
}

func (l *Library) cloneValueLocked(src *gvalue) *gvalue {
	dst := &gvalue{gtype: src.gtype}
	l.copyValueLocked(dst, src)
	return dst
}

func (l *Library) checkKind(gv *gvalue, want native.GType) {
	if !l.types.isA(gv.gtype, want) {
		panic(fmt.Sprintf("memvips: GValue of type %s used as %s",
			l.types.byID[gv.gtype].name, l.types.byID[want].name))
	}
}

// ValueNew allocates a GValue initialised to type t.
func (l *Library) ValueNew(t native.GType) native.Pointer {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.newValueLocked(t)
}

// ValueFree unsets and releases v.
func (l *Library) ValueFree(v native.Pointer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	gv := l.valueLocked(v)
	l.unsetLocked(gv)
	delete(l.values, v)
}

// ValueType returns the type v was initialised with.
func (l *Library) ValueType(v native.Pointer) native.GType {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.valueLocked(v).gtype
}

func (l *Library) set(v native.Pointer, kind native.GType, data any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	gv := l.valueLocked(v)
	l.checkKind(gv, kind)
	l.unsetLocked(gv)
	gv.data = data
}

func (l *Library) get(v native.Pointer, kind native.GType) any {
	l.mu.Lock()
	defer l.mu.Unlock()
	gv := l.valueLocked(v)
	l.checkKind(gv, kind)
	return gv.data
}

func (l *Library) ValueSetBoolean(v native.Pointer, b bool) { l.set(v, native.TypeBoolean, b) }

func (l *Library) ValueGetBoolean(v native.Pointer) bool {
	b, _ := l.get(v, native.TypeBoolean).(bool)
	return b
}

func (l *Library) ValueSetInt(v native.Pointer, i int) { l.set(v, native.TypeInt, i) }

func (l *Library) ValueGetInt(v native.Pointer) int {
	i, _ := l.get(v, native.TypeInt).(int)
	return i
}

func (l *Library) ValueSetDouble(v native.Pointer, d float64) { l.set(v, native.TypeDouble, d) }

func (l *Library) ValueGetDouble(v native.Pointer) float64 {
	d, _ := l.get(v, native.TypeDouble).(float64)
	return d
}

func (l *Library) ValueSetString(v native.Pointer, s string) { l.set(v, native.TypeString, s) }

func (l *Library) ValueGetString(v native.Pointer) string {
	s, _ := l.get(v, native.TypeString).(string)
	return s
}

func (l *Library) ValueSetRefString(v native.Pointer, s string) { l.set(v, typeRefString, s) }

func (l *Library) ValueGetRefString(v native.Pointer) string {
	s, _ := l.get(v, typeRefString).(string)
	return s
}

func (l *Library) ValueSetEnum(v native.Pointer, e int) { l.set(v, native.TypeEnum, e) }

func (l *Library) ValueGetEnum(v native.Pointer) int {
	e, _ := l.get(v, native.TypeEnum).(int)
	return e
}

func (l *Library) ValueSetFlags(v native.Pointer, f int) { l.set(v, native.TypeFlags, f) }

func (l *Library) ValueGetFlags(v native.Pointer) int {
	f, _ := l.get(v, native.TypeFlags).(int)
	return f
}

// ValueSetObject stores obj and takes a reference to it.
func (l *Library) ValueSetObject(v native.Pointer, obj native.Pointer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	gv := l.valueLocked(v)
	l.checkKind(gv, native.TypeObject)
	if obj != 0 {
		l.refLocked(obj)
	}
	l.unsetLocked(gv)
	gv.data = obj
}

// ValueGetObject returns a borrowed pointer.
func (l *Library) ValueGetObject(v native.Pointer) native.Pointer {
	p, _ := l.get(v, native.TypeObject).(native.Pointer)
	return p
}

func (l *Library) ValueSetArrayInt(v native.Pointer, a []int) {
	l.set(v, typeArrayInt, append([]int(nil), a...))
}

func (l *Library) ValueGetArrayInt(v native.Pointer) []int {
	a, _ := l.get(v, typeArrayInt).([]int)
	return append([]int(nil), a...)
}

func (l *Library) ValueSetArrayDouble(v native.Pointer, a []float64) {
	l.set(v, typeArrayDouble, append([]float64(nil), a...))
}

func (l *Library) ValueGetArrayDouble(v native.Pointer) []float64 {
	a, _ := l.get(v, typeArrayDouble).([]float64)
	return append([]float64(nil), a...)
}

// ValueSetArrayImage stores images and takes a reference to each.
func (l *Library) ValueSetArrayImage(v native.Pointer, images []native.Pointer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	gv := l.valueLocked(v)
	l.checkKind(gv, typeArrayImage)
	for _, p := range images {
		l.refLocked(p)
	}
	l.unsetLocked(gv)
	gv.data = append([]native.Pointer(nil), images...)
}

// ValueGetArrayImage returns borrowed pointers.
func (l *Library) ValueGetArrayImage(v native.Pointer) []native.Pointer {
	a, _ := l.get(v, typeArrayImage).([]native.Pointer)
	return append([]native.Pointer(nil), a...)
}

func (l *Library) ValueSetBlob(v native.Pointer, data []byte) {
	l.set(v, typeBlob, append([]byte(nil), data...))
}

func (l *Library) ValueGetBlob(v native.Pointer) []byte {
	b, _ := l.get(v, typeBlob).([]byte)
	return append([]byte(nil), b...)
}
