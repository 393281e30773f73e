package memvips

import (
	"github.com/cshum/vipscall/native"
)

// runContext gives an operation implementation typed access to its
// arguments. It runs with the library lock held.
type runContext struct {
	l  *Library
	op *operation
}

func (c *runContext) fail(format string, args ...any) error {
	return errorf(c.op.class.nickname, format, args...)
}

func (c *runContext) has(name string) bool {
	_, ok := c.op.inputs[name]
	return ok
}

func (c *runContext) input(name string) any {
	if gv, ok := c.op.inputs[name]; ok {
		return gv.data
	}
	if a, ok := c.op.class.arg(name); ok {
		return a.def
	}
	return nil
}

func (c *runContext) getInt(name string) int {
	i, _ := c.input(name).(int)
	return i
}

func (c *runContext) getDouble(name string) float64 {
	d, _ := c.input(name).(float64)
	return d
}

func (c *runContext) getBool(name string) bool {
	b, _ := c.input(name).(bool)
	return b
}

func (c *runContext) getString(name string) string {
	s, _ := c.input(name).(string)
	return s
}

func (c *runContext) getDoubles(name string) []float64 {
	d, _ := c.input(name).([]float64)
	return d
}

func (c *runContext) getImage(name string) *image {
	p, _ := c.input(name).(native.Pointer)
	if p == 0 {
		return nil
	}
	return c.l.imageLocked(p)
}

func (c *runContext) getImages(name string) []*image {
	ptrs, _ := c.input(name).([]native.Pointer)
	images := make([]*image, 0, len(ptrs))
	for _, p := range ptrs {
		images = append(images, c.l.imageLocked(p))
	}
	return images
}

func (c *runContext) output(name string, t native.GType, data any) {
	if old, ok := c.op.outputs[name]; ok {
		if p, isObj := old.data.(native.Pointer); isObj && p != 0 {
			c.l.unrefLocked(p)
		}
	}
	c.op.outputs[name] = &gvalue{gtype: t, data: data}
}

// setImage hands the new image's only reference to the output slot.
func (c *runContext) setImage(name string, img *image) {
	c.output(name, typeVipsImage, c.l.newImageLocked(img))
}

func (c *runContext) setInt(name string, i int) {
	c.output(name, native.TypeInt, i)
}

func (c *runContext) setDouble(name string, d float64) {
	c.output(name, native.TypeDouble, d)
}

func (c *runContext) setDoubles(name string, d []float64) {
	c.output(name, typeArrayDouble, d)
}

func (c *runContext) setInts(name string, i []int) {
	c.output(name, typeArrayInt, i)
}

func (c *runContext) setString(name string, s string) {
	c.output(name, native.TypeString, s)
}

func (c *runContext) setBlob(name string, b []byte) {
	c.output(name, typeBlob, b)
}
