package vips

import (
	"fmt"
	"reflect"
)

// imageize turns value into an image for an image argument. Images pass
// through unchanged. A slice whose every element is a slice becomes a
// matrix image. Anything else is a constant broadcast to the size and
// format of match. created reports whether the caller owns the result.
func (b *binding) imageize(match *Image, value any) (img *Image, created bool, err error) {
	if img, ok := value.(*Image); ok {
		if img == nil {
			return nil, false, ErrClosed
		}
		return img, false, nil
	}
	rows, isMatrix, err := asMatrix(value)
	if err != nil {
		return nil, false, err
	}
	if isMatrix {
		img, err := b.newImageFromArray(rows)
		if err != nil {
			return nil, false, err
		}
		return img, true, nil
	}
	if match == nil {
		return nil, false, &BroadcastShapeError{
			Reason: fmt.Sprintf("no image argument to take the shape of %T from", value),
		}
	}
	img, err = match.NewFromImage(value)
	if err != nil {
		return nil, false, err
	}
	return img, true, nil
}

// imageizeArray imageizes each element of an image array argument. created
// holds the images the caller must release, also on error.
func (b *binding) imageizeArray(match *Image, value any) (images []*Image, created []*Image, err error) {
	switch v := value.(type) {
	case []*Image:
		return v, nil, nil
	case *Image:
		return []*Image{v}, nil, nil
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, nil, &BroadcastShapeError{Reason: fmt.Sprintf("%T is not an array of images", value)}
	}
	images = make([]*Image, rv.Len())
	for i := range images {
		img, owned, err := b.imageize(match, rv.Index(i).Interface())
		if err != nil {
			return nil, created, err
		}
		if owned {
			created = append(created, img)
		}
		images[i] = img
	}
	return images, created, nil
}

// asMatrix reports whether value is two-dimensional, that is a slice whose
// every element is itself a slice, and flattens it to rows.
func asMatrix(value any) ([][]float64, bool, error) {
	rv := reflect.ValueOf(value)
	if (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) || rv.Len() == 0 {
		return nil, false, nil
	}
	nested := 0
	for i := 0; i < rv.Len(); i++ {
		if isSlice(rv.Index(i)) {
			nested++
		}
	}
	switch nested {
	case 0:
		return nil, false, nil
	case rv.Len():
	default:
		return nil, true, &BroadcastShapeError{Reason: "array mixes rows and scalars"}
	}
	rows := make([][]float64, rv.Len())
	for i := range rows {
		row, ok := toDoubles(rv.Index(i).Interface())
		if !ok {
			return nil, true, &BroadcastShapeError{Reason: fmt.Sprintf("row %d is not numeric", i)}
		}
		if len(row) == 0 || (i > 0 && len(row) != len(rows[0])) {
			return nil, true, &BroadcastShapeError{
				Reason: fmt.Sprintf("row %d has %d elements, want %d", i, len(row), len(rows[0])),
			}
		}
		rows[i] = row
	}
	return rows, true, nil
}

func isSlice(v reflect.Value) bool {
	if v.Kind() == reflect.Interface {
		v = v.Elem()
	}
	return v.Kind() == reflect.Slice || v.Kind() == reflect.Array
}

func (b *binding) newImageFromArray(rows [][]float64) (*Image, error) {
	width, height := len(rows[0]), len(rows)
	data := make([]float64, 0, width*height)
	for _, row := range rows {
		data = append(data, row...)
	}
	p, err := b.lib.ImageNewMatrixFromArray(width, height, data)
	if err != nil {
		return nil, err
	}
	return b.newImage(p), nil
}

// NewFromImage makes an image the size, format and interpretation of the
// receiver with every pixel set to value. value is a number or a slice of
// numbers, one per band; a single number is used for every band.
func (r *Image) NewFromImage(value any) (*Image, error) {
	if r == nil {
		return nil, ErrClosed
	}
	vec, ok := toDoubles(value)
	if !ok || len(vec) == 0 {
		return nil, &BroadcastShapeError{Reason: fmt.Sprintf("%T is not a number or array of numbers", value)}
	}
	if len(vec) == 1 {
		if bands := r.Bands(); bands > 1 {
			v := vec[0]
			vec = make([]float64, bands)
			for i := range vec {
				vec[i] = v
			}
		}
	}

	b := r.h.b
	pixel, err := b.callImage("black", nil, 1, 1)
	if err != nil {
		return nil, err
	}
	steps := []func(in *Image) (*Image, error){
		func(in *Image) (*Image, error) {
			return b.callImage("linear", nil, in, []float64{1}, vec)
		},
		func(in *Image) (*Image, error) {
			return b.callImage("cast", nil, in, r.Format())
		},
		func(in *Image) (*Image, error) {
			return b.callImage("embed", Options{"extend": ExtendCopy}, in, 0, 0, r.Width(), r.Height())
		},
		func(in *Image) (*Image, error) {
			return b.callImage("copy", Options{
				"interpretation": r.Interpretation(),
				"xres":           r.Xres(),
				"yres":           r.Yres(),
				"xoffset":        r.Xoffset(),
				"yoffset":        r.Yoffset(),
			}, in)
		},
	}
	for _, step := range steps {
		next, err := step(pixel)
		pixel.Close()
		if err != nil {
			return nil, err
		}
		pixel = next
	}
	return pixel, nil
}
