package vips

import (
	"errors"
	"fmt"
)

// The call-sites below have the shape generated wrappers take: required
// arguments are parameters, optional ones live in an options struct, and
// methods that produce a new image replace the receiver's reference.

// apply runs an image-to-image operation on the receiver and keeps the
// result.
func (r *Image) apply(name string, options Options, args ...any) error {
	if r == nil {
		return ErrClosed
	}
	out, err := r.h.b.callImage(name, options, append([]any{r}, args...)...)
	if err != nil {
		return err
	}
	r.setImage(out)
	return nil
}

func (r *Image) float(name string, options Options) (float64, map[string]any, error) {
	result, err := r.Call(name, options)
	if err != nil {
		return 0, nil, err
	}
	switch v := result.(type) {
	case float64:
		return v, nil, nil
	case []any:
		d, _ := v[0].(float64)
		optional, _ := v[len(v)-1].(map[string]any)
		return d, optional, nil
	}
	return 0, nil, fmt.Errorf("vips: %s returned %T", name, result)
}

// BlackOptions are optional arguments of NewBlack.
type BlackOptions struct {
	Bands int
}

// DefaultBlackOptions returns the library defaults.
func DefaultBlackOptions() *BlackOptions {
	return &BlackOptions{Bands: 1}
}

// NewBlack makes a black uchar image.
func NewBlack(width, height int, options *BlackOptions) (*Image, error) {
	opts := Options{}
	if options != nil && options.Bands > 0 {
		opts["bands"] = options.Bands
	}
	return current().callImage("black", opts, width, height)
}

// NewImageFromMemory wraps uchar pixel data, band-interleaved and row-major.
func NewImageFromMemory(data []byte, width, height, bands int) (*Image, error) {
	b := current()
	p, err := b.lib.ImageNewFromMemory(data, width, height, bands, 0)
	if err != nil {
		return nil, err
	}
	return b.newImage(p), nil
}

// NewImageFromArray makes a one-band double matrix image from rows of equal
// length.
func NewImageFromArray(rows [][]float64) (*Image, error) {
	if len(rows) == 0 {
		return nil, &BroadcastShapeError{Reason: "empty array"}
	}
	for i, row := range rows {
		if len(row) == 0 || len(row) != len(rows[0]) {
			return nil, &BroadcastShapeError{
				Reason: fmt.Sprintf("row %d has %d elements, want %d", i, len(row), len(rows[0])),
			}
		}
	}
	return current().newImageFromArray(rows)
}

// WriteToMemory returns the pixels in the image's band format.
func (r *Image) WriteToMemory() ([]byte, error) {
	p, err := r.pointer()
	if err != nil {
		return nil, err
	}
	return r.h.b.lib.ImageWriteToMemory(p)
}

// Add adds right to the image. right may be an image or a constant.
func (r *Image) Add(right any) error {
	return r.apply("add", nil, right)
}

// Subtract subtracts right from the image.
func (r *Image) Subtract(right any) error {
	return r.apply("subtract", nil, right)
}

// Multiply multiplies the image by right.
func (r *Image) Multiply(right any) error {
	return r.apply("multiply", nil, right)
}

// LinearOptions are optional arguments of Linear.
type LinearOptions struct {
	Uchar bool
}

// Linear computes a * in + b per band.
func (r *Image) Linear(a, b []float64, options *LinearOptions) error {
	opts := Options{}
	if options != nil {
		opts["uchar"] = options.Uchar
	}
	return r.apply("linear", opts, a, b)
}

// Invert inverts the image.
func (r *Image) Invert() error {
	return r.apply("invert", nil)
}

// CastOptions are optional arguments of Cast.
type CastOptions struct {
	Shift bool
}

// Cast converts the image to format.
func (r *Image) Cast(format BandFormat, options *CastOptions) error {
	opts := Options{}
	if options != nil {
		opts["shift"] = options.Shift
	}
	return r.apply("cast", opts, format)
}

// EmbedOptions are optional arguments of Embed.
type EmbedOptions struct {
	Extend     Extend
	Background []float64
}

// DefaultEmbedOptions returns the library defaults.
func DefaultEmbedOptions() *EmbedOptions {
	return &EmbedOptions{Extend: ExtendBlack, Background: []float64{0}}
}

// Embed places the image at x, y in a width by height canvas.
func (r *Image) Embed(x, y, width, height int, options *EmbedOptions) error {
	opts := Options{}
	if options != nil {
		if options.Extend != "" {
			opts["extend"] = options.Extend
		}
		if len(options.Background) > 0 {
			opts["background"] = options.Background
		}
	}
	return r.apply("embed", opts, x, y, width, height)
}

// CopyOptions are optional arguments of Copy. Zero fields are left unset.
type CopyOptions struct {
	Width          int
	Height         int
	Bands          int
	Format         BandFormat
	Interpretation Interpretation
	Xres           float64
	Yres           float64
	Xoffset        int
	Yoffset        int
}

// Copy returns a new image with the header changes in options applied.
func (r *Image) Copy(options *CopyOptions) (*Image, error) {
	if r == nil {
		return nil, ErrClosed
	}
	opts := Options{}
	if options != nil {
		for name, v := range map[string]any{
			"width":   options.Width,
			"height":  options.Height,
			"bands":   options.Bands,
			"xoffset": options.Xoffset,
			"yoffset": options.Yoffset,
		} {
			if v.(int) != 0 {
				opts[name] = v
			}
		}
		if options.Xres != 0 {
			opts["xres"] = options.Xres
		}
		if options.Yres != 0 {
			opts["yres"] = options.Yres
		}
		if options.Format != "" {
			opts["format"] = options.Format
		}
		if options.Interpretation != "" {
			opts["interpretation"] = options.Interpretation
		}
	}
	return r.h.b.callImage("copy", opts, r)
}

// Avg returns the mean of all pixels in all bands.
func (r *Image) Avg() (float64, error) {
	v, _, err := r.float("avg", nil)
	return v, err
}

// MinOptions are optional arguments of Min and Max. X and Y receive the
// position of the value found.
type MinOptions struct {
	Size int
	X    int
	Y    int
}

// Min returns the smallest value in the image.
func (r *Image) Min(options *MinOptions) (float64, error) {
	return r.extreme("min", options)
}

// MaxOptions are optional arguments of Max.
type MaxOptions = MinOptions

// Max returns the largest value in the image.
func (r *Image) Max(options *MaxOptions) (float64, error) {
	return r.extreme("max", options)
}

func (r *Image) extreme(name string, options *MinOptions) (float64, error) {
	opts := Options{}
	if options != nil {
		if options.Size > 0 {
			opts["size"] = options.Size
		}
		opts["x"] = true
		opts["y"] = true
	}
	v, optional, err := r.float(name, opts)
	if err != nil {
		return 0, err
	}
	if options != nil {
		options.X, _ = optional["x"].(int)
		options.Y, _ = optional["y"].(int)
	}
	return v, nil
}

// GetpointOptions are optional arguments of Getpoint.
type GetpointOptions struct {
	UnpackComplex bool
}

// Getpoint reads the pixel at x, y, one value per band.
func (r *Image) Getpoint(x, y int, options *GetpointOptions) ([]float64, error) {
	opts := Options{}
	if options != nil && options.UnpackComplex {
		opts["unpack_complex"] = true
	}
	result, err := r.Call("getpoint", x, y, opts)
	if err != nil {
		return nil, err
	}
	values, ok := result.([]float64)
	if !ok {
		return nil, fmt.Errorf("vips: getpoint returned %T", result)
	}
	return values, nil
}

// DrawRectOptions are optional arguments of DrawRect.
type DrawRectOptions struct {
	Fill bool
}

// DrawRect paints a rectangle. The receiver is replaced with the painted
// copy; other references to the original image are unchanged.
func (r *Image) DrawRect(ink []float64, left, top, width, height int, options *DrawRectOptions) error {
	opts := Options{}
	if options != nil {
		opts["fill"] = options.Fill
	}
	return r.apply("draw_rect", opts, ink, left, top, width, height)
}

// ExtractArea crops the image.
func (r *Image) ExtractArea(left, top, width, height int) error {
	return r.apply("extract_area", nil, left, top, width, height)
}

// Flip mirrors the image.
func (r *Image) Flip(direction Direction) error {
	return r.apply("flip", nil, direction)
}

// Math applies a math function to every pixel.
func (r *Image) Math(math OperationMath) error {
	return r.apply("math", nil, math)
}

// RelationalConst compares every pixel with c, giving 255 where true.
func (r *Image) RelationalConst(relational OperationRelational, c []float64) error {
	return r.apply("relational_const", nil, relational, c)
}

// Bandjoin appends the bands of images to the receiver. Elements may be
// images or constants.
func (r *Image) Bandjoin(images ...any) error {
	if r == nil {
		return ErrClosed
	}
	out, err := r.h.b.callImage("bandjoin", nil, append([]any{r}, images...))
	if err != nil {
		return err
	}
	r.setImage(out)
	return nil
}

// BandjoinConst appends constant bands.
func (r *Image) BandjoinConst(c []float64) error {
	return r.apply("bandjoin_const", nil, c)
}

// ExtractBandOptions are optional arguments of ExtractBand.
type ExtractBandOptions struct {
	N int
}

// ExtractBand keeps band, or N bands starting at band.
func (r *Image) ExtractBand(band int, options *ExtractBandOptions) error {
	opts := Options{}
	if options != nil && options.N > 0 {
		opts["n"] = options.N
	}
	return r.apply("extract_band", opts, band)
}

// FindTrimOptions are optional arguments of FindTrim.
type FindTrimOptions struct {
	Threshold  float64
	Background []float64
	LineArt    bool
}

// FindTrim finds the bounding box of the non-background area.
func (r *Image) FindTrim(options *FindTrimOptions) (left, top, width, height int, err error) {
	opts := Options{}
	if options != nil {
		if options.Threshold > 0 {
			opts["threshold"] = options.Threshold
		}
		if len(options.Background) > 0 {
			opts["background"] = options.Background
		}
		opts["line_art"] = options.LineArt
	}
	result, err := r.Call("find_trim", opts)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	values, ok := result.([]any)
	if !ok || len(values) != 4 {
		return 0, 0, 0, 0, fmt.Errorf("vips: find_trim returned %T", result)
	}
	left, _ = values[0].(int)
	top, _ = values[1].(int)
	width, _ = values[2].(int)
	height, _ = values[3].(int)
	return left, top, width, height, nil
}

// ProfileLoad loads a named ICC profile such as "srgb".
func ProfileLoad(name string) ([]byte, error) {
	result, err := Call("profile_load", name)
	if err != nil {
		return nil, err
	}
	profile, ok := result.([]byte)
	if !ok {
		return nil, fmt.Errorf("vips: profile_load returned %T", result)
	}
	return profile, nil
}

// VipsVersionString reports the library version through the catalog, or
// from the startup version when the catalog has no version operation.
func VipsVersionString() (string, error) {
	result, err := Call("version")
	var lookup *LookupError
	if errors.As(err, &lookup) {
		return Version, nil
	}
	if err != nil {
		return "", err
	}
	s, ok := result.(string)
	if !ok {
		return "", fmt.Errorf("vips: version returned %T", result)
	}
	return s, nil
}
