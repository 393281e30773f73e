package vips

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"sync"

	"github.com/cshum/vipscall/native"
)

// GValue is a tagged value container. Its type is fixed once by SetType;
// every Set and Get afterwards converts through that type.
type GValue struct {
	b     *binding
	ptr   native.Pointer
	gtype native.GType
	once  sync.Once
}

// NewGValue returns an untyped container.
func NewGValue() *GValue {
	return &GValue{b: current()}
}

func (b *binding) newTypedValue(t native.GType) (*GValue, error) {
	v := &GValue{b: b}
	if err := v.SetType(t); err != nil {
		return nil, err
	}
	return v, nil
}

// SetType fixes the type of the container. It can be called once.
func (v *GValue) SetType(t native.GType) error {
	if v.gtype != native.TypeInvalid {
		return fmt.Errorf("vips: GValue already has type %s", v.b.typeName(v.gtype))
	}
	if t == native.TypeInvalid || v.b.lib.TypeName(t) == "" {
		return &TypeMismatchError{Type: v.b.typeName(t), Fundamental: "invalid"}
	}
	v.gtype = t
	v.ptr = v.b.lib.ValueNew(t)
	return nil
}

// Type returns the container's type, or 0 before SetType.
func (v *GValue) Type() native.GType {
	return v.gtype
}

// Close releases the native storage and anything it references.
func (v *GValue) Close() {
	v.once.Do(func() {
		if v.ptr != 0 {
			v.b.lib.ValueFree(v.ptr)
			v.ptr = 0
		}
	})
}

func (v *GValue) mismatch(value any) error {
	err := &TypeMismatchError{
		Type:        v.b.typeName(v.gtype),
		Fundamental: v.b.typeName(v.b.lib.TypeFundamental(v.gtype)),
	}
	if value != nil {
		err.Value = fmt.Sprintf("%T", value)
	}
	return err
}

// Set stores value, converting it by the container's type.
func (v *GValue) Set(value any) error {
	if v.ptr == 0 {
		return v.mismatch(value)
	}
	lib, types, t := v.b.lib, v.b.types, v.gtype
	switch t {
	case types.refString:
		s, ok := toString(value)
		if !ok {
			return v.mismatch(value)
		}
		lib.ValueSetRefString(v.ptr, s)
		return nil
	case types.arrayInt:
		a, ok := toInts(value)
		if !ok {
			return v.mismatch(value)
		}
		lib.ValueSetArrayInt(v.ptr, a)
		return nil
	case types.arrayDouble:
		a, ok := toDoubles(value)
		if !ok {
			return v.mismatch(value)
		}
		lib.ValueSetArrayDouble(v.ptr, a)
		return nil
	case types.arrayImage:
		images, ok := value.([]*Image)
		if !ok {
			return v.mismatch(value)
		}
		ptrs := make([]native.Pointer, len(images))
		for i, img := range images {
			p, err := img.pointer()
			if err != nil {
				return err
			}
			ptrs[i] = p
		}
		lib.ValueSetArrayImage(v.ptr, ptrs)
		return nil
	case types.blob:
		switch data := value.(type) {
		case []byte:
			lib.ValueSetBlob(v.ptr, data)
			return nil
		case string:
			lib.ValueSetBlob(v.ptr, []byte(data))
			return nil
		}
		return v.mismatch(value)
	}

	switch lib.TypeFundamental(t) {
	case native.TypeBoolean:
		b, ok := value.(bool)
		if !ok {
			return v.mismatch(value)
		}
		lib.ValueSetBoolean(v.ptr, b)
	case native.TypeInt:
		i, ok := toInt32(value)
		if !ok {
			return v.mismatch(value)
		}
		lib.ValueSetInt(v.ptr, i)
	case native.TypeDouble:
		d, ok := toFloat(value)
		if !ok {
			return v.mismatch(value)
		}
		lib.ValueSetDouble(v.ptr, d)
	case native.TypeString:
		s, ok := toString(value)
		if !ok {
			return v.mismatch(value)
		}
		lib.ValueSetString(v.ptr, s)
	case native.TypeEnum:
		e, err := v.enumValue(value)
		if err != nil {
			return err
		}
		lib.ValueSetEnum(v.ptr, e)
	case native.TypeFlags:
		f, ok := toUint32(value)
		if !ok {
			return v.mismatch(value)
		}
		lib.ValueSetFlags(v.ptr, f)
	case native.TypeObject:
		var p native.Pointer
		var err error
		switch obj := value.(type) {
		case *Image:
			p, err = obj.pointer()
		case *Object:
			p, err = obj.h.pointer()
		default:
			return v.mismatch(value)
		}
		if err != nil {
			return err
		}
		lib.ValueSetObject(v.ptr, p)
	default:
		return v.mismatch(value)
	}
	return nil
}

// enumValue resolves a nickname or checks a raw value. Unknown members are
// errors, never defaulted.
func (v *GValue) enumValue(value any) (int, error) {
	lib := v.b.lib
	if s, ok := toString(value); ok {
		e, err := lib.EnumFromNick(v.gtype, s)
		if err != nil {
			return 0, &EnumLookupError{Type: v.b.typeName(v.gtype), Nick: s, Err: err}
		}
		return e, nil
	}
	if i, ok := toInt32(value); ok {
		if _, ok := lib.EnumNick(v.gtype, i); !ok {
			return 0, &EnumLookupError{Type: v.b.typeName(v.gtype), Nick: strconv.Itoa(i)}
		}
		return i, nil
	}
	return 0, v.mismatch(value)
}

// Get reads the stored value. Objects and image arrays come back as new
// references the caller must Close.
func (v *GValue) Get() (any, error) {
	if v.ptr == 0 {
		return nil, v.mismatch(nil)
	}
	lib, types, t := v.b.lib, v.b.types, v.gtype
	switch t {
	case types.refString:
		return lib.ValueGetRefString(v.ptr), nil
	case types.arrayInt:
		return lib.ValueGetArrayInt(v.ptr), nil
	case types.arrayDouble:
		return lib.ValueGetArrayDouble(v.ptr), nil
	case types.arrayImage:
		ptrs := lib.ValueGetArrayImage(v.ptr)
		images := make([]*Image, len(ptrs))
		for i, p := range ptrs {
			lib.ObjectRef(p)
			images[i] = &Image{h: newHandle(v.b, p)}
		}
		return images, nil
	case types.blob:
		return lib.ValueGetBlob(v.ptr), nil
	}

	switch lib.TypeFundamental(t) {
	case native.TypeBoolean:
		return lib.ValueGetBoolean(v.ptr), nil
	case native.TypeInt:
		return lib.ValueGetInt(v.ptr), nil
	case native.TypeDouble:
		return lib.ValueGetDouble(v.ptr), nil
	case native.TypeString:
		return lib.ValueGetString(v.ptr), nil
	case native.TypeEnum:
		e := lib.ValueGetEnum(v.ptr)
		nick, ok := lib.EnumNick(t, e)
		if !ok {
			return nil, &EnumLookupError{Type: v.b.typeName(t), Nick: strconv.Itoa(e)}
		}
		return nick, nil
	case native.TypeFlags:
		return lib.ValueGetFlags(v.ptr), nil
	case native.TypeObject:
		p := lib.ValueGetObject(v.ptr)
		if p == 0 {
			return nil, nil
		}
		lib.ObjectRef(p)
		if lib.TypeIsA(lib.ObjectType(p), types.image) {
			return &Image{h: newHandle(v.b, p)}, nil
		}
		return &Object{h: newHandle(v.b, p)}, nil
	}
	return nil, v.mismatch(nil)
}

// toInt32 converts any integer kind whose value fits a gint.
func toInt32(value any) (int, bool) {
	return toIntIn(value, math.MinInt32, math.MaxInt32)
}

// toUint32 converts any integer kind whose value fits a guint, the storage
// of flags.
func toUint32(value any) (int, bool) {
	return toIntIn(value, 0, math.MaxUint32)
}

func toIntIn(value any, lo, hi int64) (int, bool) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := rv.Int()
		if n < lo || n > hi {
			return 0, false
		}
		return int(n), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n := rv.Uint()
		if n > uint64(hi) {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}

func toFloat(value any) (float64, bool) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	}
	return 0, false
}

func toString(value any) (string, bool) {
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.String {
		return rv.String(), true
	}
	return "", false
}

// toDoubles accepts a number or a slice of numbers.
func toDoubles(value any) ([]float64, bool) {
	if d, ok := value.([]float64); ok {
		return d, true
	}
	if d, ok := toFloat(value); ok {
		return []float64{d}, true
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]float64, rv.Len())
	for i := range out {
		d, ok := toFloat(rv.Index(i).Interface())
		if !ok {
			return nil, false
		}
		out[i] = d
	}
	return out, true
}

func toInts(value any) ([]int, bool) {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]int, rv.Len())
	for i := range out {
		n, ok := toInt32(rv.Index(i).Interface())
		if !ok {
			return nil, false
		}
		out[i] = n
	}
	return out, true
}
