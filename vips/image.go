package vips

import (
	"fmt"

	"github.com/cshum/vipscall/native"
)

// Image is a reference to a native image.
type Image struct {
	h *handle
}

func (b *binding) newImage(ptr native.Pointer) *Image {
	return &Image{h: newHandle(b, ptr)}
}

func (r *Image) pointer() (native.Pointer, error) {
	if r == nil {
		return 0, ErrClosed
	}
	return r.h.pointer()
}

// Pointer returns the native pointer, or 0 once closed.
func (r *Image) Pointer() native.Pointer {
	p, _ := r.pointer()
	return p
}

// Close drops the reference. It is safe to call more than once.
func (r *Image) Close() {
	if r != nil {
		r.h.close()
	}
}

// Ref returns a second reference to the same image.
func (r *Image) Ref() (*Image, error) {
	if r == nil {
		return nil, ErrClosed
	}
	h, err := r.h.ref()
	if err != nil {
		return nil, err
	}
	return &Image{h: h}, nil
}

// setImage replaces the receiver's reference with out's.
func (r *Image) setImage(out *Image) {
	r.h.close()
	r.h = out.h
}

// GetTypeOf returns the type of a header field or metadata item, or 0 if it
// does not exist. The image header path is asked first and the object
// property path only when it reports nothing. Libraries older than 8.5
// report built-in enums as gint on the header path, so there the order is
// reversed.
func (r *Image) GetTypeOf(name string) native.GType {
	p, err := r.pointer()
	if err != nil {
		return native.TypeInvalid
	}
	lib := r.h.b.lib
	if r.h.b.propertiesFirst {
		if t := r.h.typeOf(name); t != native.TypeInvalid {
			return t
		}
		return lib.ImageGetTypeof(p, name)
	}
	if t := lib.ImageGetTypeof(p, name); t != native.TypeInvalid {
		return t
	}
	return r.h.typeOf(name)
}

// Get reads a header field or metadata item, with the same lookup order as
// GetTypeOf.
func (r *Image) Get(name string) (any, error) {
	p, err := r.pointer()
	if err != nil {
		return nil, err
	}
	if r.h.b.propertiesFirst && r.h.typeOf(name) != native.TypeInvalid {
		return r.h.getProperty(name)
	}
	lib := r.h.b.lib
	t := lib.ImageGetTypeof(p, name)
	if t == native.TypeInvalid {
		return r.h.getProperty(name)
	}
	v, err := r.h.b.newTypedValue(t)
	if err != nil {
		return nil, err
	}
	defer v.Close()
	if err := lib.ImageGet(p, name, v.ptr); err != nil {
		return nil, err
	}
	return v.Get()
}

// Set writes an existing metadata item, keeping its type.
func (r *Image) Set(name string, value any) error {
	t := r.GetTypeOf(name)
	if t == native.TypeInvalid {
		return &UnknownPropertyError{Name: name}
	}
	return r.SetType(t, name, value)
}

// SetType creates or replaces a metadata item of type t.
func (r *Image) SetType(t native.GType, name string, value any) error {
	p, err := r.pointer()
	if err != nil {
		return err
	}
	v, err := r.h.b.newTypedValue(t)
	if err != nil {
		return err
	}
	defer v.Close()
	if err := v.Set(value); err != nil {
		return err
	}
	r.h.b.lib.ImageSet(p, name, v.ptr)
	return nil
}

// Remove deletes a metadata item and reports whether it existed.
func (r *Image) Remove(name string) bool {
	p, err := r.pointer()
	if err != nil {
		return false
	}
	return r.h.b.lib.ImageRemove(p, name)
}

// Fields lists header fields and metadata names.
func (r *Image) Fields() []string {
	p, err := r.pointer()
	if err != nil {
		return nil
	}
	return r.h.b.lib.ImageFields(p)
}

// SetFromString is the batch property setter of the object system.
func (r *Image) SetFromString(options string) error {
	return r.h.setFromString(options)
}

func (r *Image) intField(name string) int {
	v, err := r.Get(name)
	if err != nil {
		return 0
	}
	i, _ := v.(int)
	return i
}

func (r *Image) floatField(name string) float64 {
	v, err := r.Get(name)
	if err != nil {
		return 0
	}
	d, _ := v.(float64)
	return d
}

func (r *Image) stringField(name string) string {
	v, err := r.Get(name)
	if err != nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Width returns the image width in pixels.
func (r *Image) Width() int { return r.intField("width") }

// Height returns the image height in pixels.
func (r *Image) Height() int { return r.intField("height") }

// Bands returns the number of bands.
func (r *Image) Bands() int { return r.intField("bands") }

// Format returns the band format nickname, such as "uchar".
func (r *Image) Format() BandFormat { return BandFormat(r.stringField("format")) }

// Interpretation returns the interpretation nickname, such as "srgb".
func (r *Image) Interpretation() Interpretation {
	return Interpretation(r.stringField("interpretation"))
}

func (r *Image) Xres() float64 { return r.floatField("xres") }

func (r *Image) Yres() float64 { return r.floatField("yres") }

func (r *Image) Xoffset() int { return r.intField("xoffset") }

func (r *Image) Yoffset() int { return r.intField("yoffset") }

func (r *Image) String() string {
	if r.Pointer() == 0 {
		return "<vips.Image closed>"
	}
	return fmt.Sprintf("<vips.Image %dx%d %s, %d bands, %s>",
		r.Width(), r.Height(), r.Format(), r.Bands(), r.Interpretation())
}
