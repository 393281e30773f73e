package vips

import (
	"sync"
	"sync/atomic"

	"github.com/cshum/vipscall/native"
)

// handle owns exactly one reference to a native object.
type handle struct {
	b      *binding
	ptr    native.Pointer
	once   sync.Once
	closed atomic.Bool
}

// newHandle adopts a reference the caller already owns.
func newHandle(b *binding, ptr native.Pointer) *handle {
	return &handle{b: b, ptr: ptr}
}

func (h *handle) pointer() (native.Pointer, error) {
	if h == nil || h.closed.Load() {
		return 0, ErrClosed
	}
	return h.ptr, nil
}

// close drops the reference. Later calls do nothing.
func (h *handle) close() {
	if h == nil {
		return
	}
	h.once.Do(func() {
		h.closed.Store(true)
		if h.ptr != 0 {
			h.b.lib.ObjectUnref(h.ptr)
		}
	})
}

// ref returns a second handle to the same object with its own reference.
func (h *handle) ref() (*handle, error) {
	p, err := h.pointer()
	if err != nil {
		return nil, err
	}
	h.b.lib.ObjectRef(p)
	return newHandle(h.b, p), nil
}

func (h *handle) typeOf(name string) native.GType {
	p, err := h.pointer()
	if err != nil {
		return native.TypeInvalid
	}
	return h.b.lib.ObjectPropertyType(p, name)
}

// getProperty reads a property through the object property system.
func (h *handle) getProperty(name string) (any, error) {
	p, err := h.pointer()
	if err != nil {
		return nil, err
	}
	t := h.b.lib.ObjectPropertyType(p, name)
	if t == native.TypeInvalid {
		return nil, &UnknownPropertyError{Name: name}
	}
	v, err := h.b.newTypedValue(t)
	if err != nil {
		return nil, err
	}
	defer v.Close()
	if err := h.b.lib.ObjectGetProperty(p, name, v.ptr); err != nil {
		return nil, err
	}
	return v.Get()
}

// setProperty writes a property. The value is converted by the property's
// own type.
func (h *handle) setProperty(name string, value any) error {
	p, err := h.pointer()
	if err != nil {
		return err
	}
	t := h.b.lib.ObjectPropertyType(p, name)
	if t == native.TypeInvalid {
		return &UnknownPropertyError{Name: name}
	}
	v, err := h.b.newTypedValue(t)
	if err != nil {
		return err
	}
	defer v.Close()
	if err := v.Set(value); err != nil {
		return err
	}
	return h.b.lib.ObjectSetProperty(p, name, v.ptr)
}

func (h *handle) setFromString(options string) error {
	p, err := h.pointer()
	if err != nil {
		return err
	}
	return h.b.lib.ObjectSetFromString(p, options)
}
