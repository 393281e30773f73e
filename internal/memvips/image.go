package memvips

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/cshum/vipscall/native"
)

type image struct {
	width, height, bands int
	format               int
	coding               int
	interpretation       int
	xres, yres           float64
	xoffset, yoffset     int
	filename             string

	// pixels is band-interleaved, row-major.
	pixels []float64
	meta   map[string]*gvalue
}

func newImage(width, height, bands, format int) *image {
	img := &image{
		width:          width,
		height:         height,
		bands:          bands,
		format:         format,
		interpretation: defaultInterpretation(bands, format),
		xres:           1,
		yres:           1,
		pixels:         make([]float64, width*height*bands),
		meta:           map[string]*gvalue{},
	}
	return img
}

func defaultInterpretation(bands, format int) int {
	sixteen := format == formatUshort
	switch {
	case bands == 1 && sixteen:
		return interpretationGrey16
	case bands == 1:
		return interpretationBW
	case bands == 3 && sixteen:
		return interpretationRGB16
	case bands == 3:
		return interpretationSRGB
	}
	return interpretationMultiband
}

func (img *image) index(x, y, b int) int {
	return (y*img.width+x)*img.bands + b
}

func (img *image) at(x, y, b int) float64 {
	return img.pixels[img.index(x, y, b)]
}

// like returns an empty image with the header of img.
func (img *image) like(bands, format int) *image {
	out := newImage(img.width, img.height, bands, format)
	out.coding = img.coding
	if bands == img.bands {
		out.interpretation = img.interpretation
	}
	out.xres, out.yres = img.xres, img.yres
	out.xoffset, out.yoffset = img.xoffset, img.yoffset
	return out
}

func (l *Library) newImageLocked(img *image) native.Pointer {
	return l.newObjectLocked(&object{gtype: typeVipsImage, image: img})
}

func (l *Library) imageLocked(p native.Pointer) *image {
	o := l.objectLocked(p)
	if o.image == nil {
		panic("memvips: object is not an image")
	}
	return o.image
}

// clip rounds and clamps v to the range of format.
func clip(format int, v float64) float64 {
	limits := map[int][2]float64{
		formatUchar:  {0, math.MaxUint8},
		formatChar:   {math.MinInt8, math.MaxInt8},
		formatUshort: {0, math.MaxUint16},
		formatShort:  {math.MinInt16, math.MaxInt16},
		formatUint:   {0, math.MaxUint32},
		formatInt:    {math.MinInt32, math.MaxInt32},
	}
	switch format {
	case formatFloat:
		return float64(float32(v))
	case formatDouble:
		return v
	}
	lim, ok := limits[format]
	if !ok {
		return v
	}
	v = math.Round(v)
	return math.Max(lim[0], math.Min(lim[1], v))
}

func isIntegerFormat(format int) bool {
	return format >= formatUchar && format <= formatInt
}

func formatSize(format int) int {
	switch format {
	case formatUchar, formatChar:
		return 1
	case formatUshort, formatShort:
		return 2
	case formatUint, formatInt, formatFloat:
		return 4
	case formatDouble:
		return 8
	}
	return 0
}

type imageProperty struct {
	name     string
	gtype    native.GType
	priority int
}

var imageProperties = []imageProperty{
	{"filename", native.TypeString, 1},
	{"mode", native.TypeString, 2},
	{"width", native.TypeInt, 4},
	{"height", native.TypeInt, 5},
	{"bands", native.TypeInt, 6},
	{"format", typeBandFormat, 7},
	{"coding", typeCoding, 8},
	{"interpretation", typeInterpretation, 9},
	{"xres", native.TypeDouble, 10},
	{"yres", native.TypeDouble, 11},
	{"xoffset", native.TypeInt, 12},
	{"yoffset", native.TypeInt, 13},
}

// headerFields are the properties also visible on the generic path.
var headerFields = []string{
	"width", "height", "bands", "format", "coding", "interpretation",
	"xres", "yres", "xoffset", "yoffset", "filename",
}

func findImageProperty(name string) (imageProperty, bool) {
	for _, p := range imageProperties {
		if p.name == name {
			return p, true
		}
	}
	return imageProperty{}, false
}

// headerType is the type the header path reports for a built-in field.
// Before 8.5 built-in enums are reported as gint.
func (l *Library) headerType(prop imageProperty) native.GType {
	if !l.atLeast(8, 5) && l.types.fundamental(prop.gtype) == native.TypeEnum {
		return native.TypeInt
	}
	return prop.gtype
}

func (l *Library) imagePropertyValue(img *image, prop imageProperty) *gvalue {
	gv := &gvalue{gtype: prop.gtype}
	switch prop.name {
	case "filename":
		gv.data = img.filename
	case "mode":
		gv.data = "t"
	case "width":
		gv.data = img.width
	case "height":
		gv.data = img.height
	case "bands":
		gv.data = img.bands
	case "format":
		gv.data = img.format
	case "coding":
		gv.data = img.coding
	case "interpretation":
		gv.data = img.interpretation
	case "xres":
		gv.data = img.xres
	case "yres":
		gv.data = img.yres
	case "xoffset":
		gv.data = img.xoffset
	case "yoffset":
		gv.data = img.yoffset
	}
	return gv
}

func (l *Library) headerValue(img *image, name string) (*gvalue, bool) {
	for _, field := range headerFields {
		if field == name {
			prop, _ := findImageProperty(name)
			gv := l.imagePropertyValue(img, prop)
			gv.gtype = l.headerType(prop)
			return gv, true
		}
	}
	return nil, false
}

func (l *Library) setImagePropertyLocked(img *image, name string, src *gvalue) error {
	prop, ok := findImageProperty(name)
	if !ok {
		return errorf("VipsImage", "no property named '%s'", name)
	}
	if !l.types.isA(src.gtype, prop.gtype) {
		return errorf("VipsImage", "property '%s' is %s, not %s", name,
			l.types.byID[prop.gtype].name, l.types.byID[src.gtype].name)
	}
	switch name {
	case "filename":
		img.filename, _ = src.data.(string)
	case "xres":
		img.xres, _ = src.data.(float64)
	case "yres":
		img.yres, _ = src.data.(float64)
	case "xoffset":
		img.xoffset, _ = src.data.(int)
	case "yoffset":
		img.yoffset, _ = src.data.(int)
	default:
		return errorf("VipsImage", "property '%s' can't be set after construction", name)
	}
	return nil
}

// ImageGetTypeof is the generic header and metadata path.
func (l *Library) ImageGetTypeof(p native.Pointer, name string) native.GType {
	l.mu.Lock()
	defer l.mu.Unlock()
	img := l.imageLocked(p)
	if gv, ok := l.headerValue(img, name); ok {
		return gv.gtype
	}
	if gv, ok := img.meta[name]; ok {
		return gv.gtype
	}
	return native.TypeInvalid
}

// ImageGet copies a header field or metadata item into v.
func (l *Library) ImageGet(p native.Pointer, name string, v native.Pointer) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	img := l.imageLocked(p)
	dst := l.valueLocked(v)
	src, ok := l.headerValue(img, name)
	if !ok {
		src, ok = img.meta[name]
	}
	if !ok {
		return errorf("vips_image_get", "field \"%s\" not found", name)
	}
	if !l.types.isA(src.gtype, dst.gtype) {
		return errorf("vips_image_get", "field \"%s\" is of type %s, not %s", name,
			l.types.byID[src.gtype].name, l.types.byID[dst.gtype].name)
	}
	l.copyValueLocked(dst, src)
	return nil
}

// ImageSet stores a copy of v as metadata item name.
func (l *Library) ImageSet(p native.Pointer, name string, v native.Pointer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	img := l.imageLocked(p)
	src := l.valueLocked(v)
	if old, ok := img.meta[name]; ok {
		l.unsetLocked(old)
	}
	img.meta[name] = l.cloneValueLocked(src)
}

// ImageRemove deletes a metadata item.
func (l *Library) ImageRemove(p native.Pointer, name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	img := l.imageLocked(p)
	old, ok := img.meta[name]
	if !ok {
		return false
	}
	l.unsetLocked(old)
	delete(img.meta, name)
	return true
}

// ImageFields lists header fields followed by sorted metadata names.
func (l *Library) ImageFields(p native.Pointer) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	img := l.imageLocked(p)
	fields := append([]string(nil), headerFields...)
	var names []string
	for name := range img.meta {
		names = append(names, name)
	}
	sort.Strings(names)
	return append(fields, names...)
}

// ImageNewMatrixFromArray makes a one-band double matrix image with scale
// and offset metadata.
func (l *Library) ImageNewMatrixFromArray(width, height int, data []float64) (native.Pointer, error) {
	if width <= 0 || height <= 0 || len(data) != width*height {
		return 0, errorf("vips_image_new_matrix_from_array", "bad array length %d for %dx%d", len(data), width, height)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	img := newImage(width, height, 1, formatDouble)
	img.interpretation = interpretationMatrix
	copy(img.pixels, data)
	img.meta["scale"] = &gvalue{gtype: native.TypeDouble, data: 1.0}
	img.meta["offset"] = &gvalue{gtype: native.TypeDouble, data: 0.0}
	return l.newImageLocked(img), nil
}

// ImageNewFromMemory decodes little-endian pixels of the given format.
func (l *Library) ImageNewFromMemory(data []byte, width, height, bands, format int) (native.Pointer, error) {
	size := formatSize(format)
	if size == 0 {
		return 0, errorf("vips_image_new_from_memory", "unsupported format %d", format)
	}
	if width <= 0 || height <= 0 || bands <= 0 {
		return 0, errorf("vips_image_new_from_memory", "bad dimensions %dx%dx%d", width, height, bands)
	}
	if len(data) != width*height*bands*size {
		return 0, errorf("vips_image_new_from_memory", "memory area too small --- should be %d bytes, you passed %d",
			width*height*bands*size, len(data))
	}
	img := newImage(width, height, bands, format)
	for i := range img.pixels {
		img.pixels[i] = decodeSample(data[i*size:], format)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.newImageLocked(img), nil
}

// ImageWriteToMemory encodes pixels little-endian in the image's format.
func (l *Library) ImageWriteToMemory(p native.Pointer) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	img := l.imageLocked(p)
	size := formatSize(img.format)
	if size == 0 {
		return nil, errorf("vips_image_write_to_memory", "unsupported format %d", img.format)
	}
	out := make([]byte, len(img.pixels)*size)
	for i, v := range img.pixels {
		encodeSample(out[i*size:], img.format, v)
	}
	return out, nil
}

// ImageCopyMemory returns a new image with its own copy of the pixels and
// metadata.
func (l *Library) ImageCopyMemory(p native.Pointer) (native.Pointer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	src := l.imageLocked(p)
	dst := src.like(src.bands, src.format)
	dst.interpretation = src.interpretation
	dst.filename = src.filename
	copy(dst.pixels, src.pixels)
	for name, gv := range src.meta {
		dst.meta[name] = l.cloneValueLocked(gv)
	}
	return l.newImageLocked(dst), nil
}

func decodeSample(b []byte, format int) float64 {
	switch format {
	case formatUchar:
		return float64(b[0])
	case formatChar:
		return float64(int8(b[0]))
	case formatUshort:
		return float64(binary.LittleEndian.Uint16(b))
	case formatShort:
		return float64(int16(binary.LittleEndian.Uint16(b)))
	case formatUint:
		return float64(binary.LittleEndian.Uint32(b))
	case formatInt:
		return float64(int32(binary.LittleEndian.Uint32(b)))
	case formatFloat:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	case formatDouble:
		return math.Float64frombits(binary.LittleEndian.Uint64(b))
	}
	return 0
}

func encodeSample(b []byte, format int, v float64) {
	v = clip(format, v)
	switch format {
	case formatUchar:
		b[0] = uint8(v)
	case formatChar:
		b[0] = byte(int8(v))
	case formatUshort:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case formatShort:
		binary.LittleEndian.PutUint16(b, uint16(int16(v)))
	case formatUint:
		binary.LittleEndian.PutUint32(b, uint32(v))
	case formatInt:
		binary.LittleEndian.PutUint32(b, uint32(int32(v)))
	case formatFloat:
		binary.LittleEndian.PutUint32(b, math.Float32bits(float32(v)))
	case formatDouble:
		binary.LittleEndian.PutUint64(b, math.Float64bits(v))
	}
}
