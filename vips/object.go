package vips

import (
	"github.com/cshum/vipscall/native"
)

// Object is a reference to a native object that is not an image.
type Object struct {
	h *handle
}

// Pointer returns the native pointer, or 0 once closed.
func (o *Object) Pointer() native.Pointer {
	p, _ := o.h.pointer()
	return p
}

// Close drops the reference. It is safe to call more than once.
func (o *Object) Close() {
	o.h.close()
}

// Copy returns a second reference to the same object.
func (o *Object) Copy() (*Object, error) {
	h, err := o.h.ref()
	if err != nil {
		return nil, err
	}
	return &Object{h: h}, nil
}

// TypeName returns the native type name of the object.
func (o *Object) TypeName() string {
	p, err := o.h.pointer()
	if err != nil {
		return ""
	}
	return o.h.b.typeName(o.h.b.lib.ObjectType(p))
}

// GetTypeOf returns the type of a property, or 0 if there is none.
func (o *Object) GetTypeOf(name string) native.GType {
	return o.h.typeOf(name)
}

// Get reads a property.
func (o *Object) Get(name string) (any, error) {
	return o.h.getProperty(name)
}

// Set writes an existing property.
func (o *Object) Set(name string, value any) error {
	return o.h.setProperty(name, value)
}

// SetFromString applies "name=value,name2=value2" to the object.
func (o *Object) SetFromString(options string) error {
	return o.h.setFromString(options)
}
