package vips

import (
	"testing"

	"github.com/cshum/vipscall/internal/memvips"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createRowImage creates a one-band uchar image holding a single row
func createRowImage(t *testing.T, values ...byte) *Image {
	t.Helper()
	img, err := NewImageFromMemory(values, len(values), 1, 1)
	require.NoError(t, err)
	return img
}

func TestImageHeader(t *testing.T) {
	img := createWhiteImage(t, 20, 10)
	defer img.Close()

	assert.Equal(t, 20, img.Width())
	assert.Equal(t, 10, img.Height())
	assert.Equal(t, 3, img.Bands())
	assert.Equal(t, BandFormatUchar, img.Format())
	assert.Equal(t, InterpretationSRGB, img.Interpretation())
	assert.Equal(t, 1.0, img.Xres())
	assert.Equal(t, 1.0, img.Yres())
	assert.Equal(t, 0, img.Xoffset())
	assert.Equal(t, 0, img.Yoffset())
	assert.Equal(t, "<vips.Image 20x10 uchar, 3 bands, srgb>", img.String())
	assert.Contains(t, img.Fields(), "width")
}

func TestImageMetadata(t *testing.T) {
	img := createBlackImage(t, 4, 4, 1)
	defer img.Close()

	require.NoError(t, img.SetType(TypeFromName("gint"), "orientation", 6))
	assert.Equal(t, TypeFromName("gint"), img.GetTypeOf("orientation"))
	v, err := img.Get("orientation")
	require.NoError(t, err)
	assert.Equal(t, 6, v)

	require.NoError(t, img.Set("orientation", 3))
	v, err = img.Get("orientation")
	require.NoError(t, err)
	assert.Equal(t, 3, v)
	assert.Contains(t, img.Fields(), "orientation")

	require.NoError(t, img.SetType(TypeFromName("VipsBlob"), "icc-profile-data", []byte("acsp")))
	v, err = img.Get("icc-profile-data")
	require.NoError(t, err)
	assert.Equal(t, []byte("acsp"), v)

	err = img.Set("missing", 1)
	var unknown *UnknownPropertyError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "missing", unknown.Name)

	assert.True(t, img.Remove("orientation"))
	assert.False(t, img.Remove("orientation"))
	assert.Zero(t, img.GetTypeOf("orientation"))

	_, err = img.Get("orientation")
	assert.ErrorAs(t, err, &unknown)
}

func TestImageGetFallsBackToProperties(t *testing.T) {
	img := createBlackImage(t, 4, 4, 1)
	defer img.Close()

	// "mode" is only reachable through the object property path
	assert.Equal(t, TypeFromName("gchararray"), img.GetTypeOf("mode"))
	v, err := img.Get("mode")
	require.NoError(t, err)
	assert.Equal(t, "t", v)
}

func TestImageGetAsksPropertiesFirstOnOldLibraries(t *testing.T) {
	legacy := newBinding(memvips.New(memvips.WithVersion(8, 4, 0)), zerolog.Nop(), false)
	require.True(t, legacy.propertiesFirst)
	img, err := legacy.callImage("black", nil, 4, 4)
	require.NoError(t, err)
	defer img.Close()

	// the header path reports the enum as a plain int here
	p := img.Pointer()
	assert.Equal(t, "gint", legacy.typeName(legacy.lib.ImageGetTypeof(p, "format")))

	assert.Equal(t, "VipsBandFormat", legacy.typeName(img.GetTypeOf("format")))
	assert.Equal(t, BandFormatUchar, img.Format())
	assert.Equal(t, InterpretationBW, img.Interpretation())
	assert.Equal(t, 4, img.Width())

	// metadata items only exist on the header path
	require.NoError(t, img.SetType(legacy.lib.TypeFromName("gdouble"), "scale", 0.5))
	assert.Equal(t, "gdouble", legacy.typeName(img.GetTypeOf("scale")))
	v, err := img.Get("scale")
	require.NoError(t, err)
	assert.Equal(t, 0.5, v)

	broadcast, err := img.NewFromImage(5)
	require.NoError(t, err)
	defer broadcast.Close()
	assert.Equal(t, BandFormatUchar, broadcast.Format())
	avg, err := broadcast.Avg()
	require.NoError(t, err)
	assert.Equal(t, 5.0, avg)
}

func TestImageGetAsksHeaderFirstOnCurrentLibraries(t *testing.T) {
	assert.False(t, current().propertiesFirst)

	img := createBlackImage(t, 4, 4, 1)
	defer img.Close()
	assert.Equal(t, "VipsBandFormat", img.h.b.typeName(img.GetTypeOf("format")))
	assert.Equal(t, BandFormatUchar, img.Format())
}

func TestImageRefAndClose(t *testing.T) {
	img := createBlackImage(t, 4, 4, 1)
	second, err := img.Ref()
	require.NoError(t, err)
	assert.Equal(t, img.Pointer(), second.Pointer())

	img.Close()
	img.Close()
	assert.Zero(t, img.Pointer())
	assert.Equal(t, "<vips.Image closed>", img.String())
	_, err = img.Ref()
	assert.ErrorIs(t, err, ErrClosed)

	assert.Equal(t, 4, second.Width(), "second reference must survive")
	second.Close()

	var nilImage *Image
	nilImage.Close()
	_, err = nilImage.Call("invert")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestNewFromImage(t *testing.T) {
	img := createWhiteImage(t, 6, 5)
	defer img.Close()

	t.Run("vector", func(t *testing.T) {
		c, err := img.NewFromImage([]float64{1, 2, 3})
		require.NoError(t, err)
		defer c.Close()

		assert.Equal(t, 6, c.Width())
		assert.Equal(t, 5, c.Height())
		assert.Equal(t, 3, c.Bands())
		assert.Equal(t, BandFormatUchar, c.Format())
		assert.Equal(t, InterpretationSRGB, c.Interpretation())

		px, err := c.Getpoint(5, 4, nil)
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 2, 3}, px)
	})

	t.Run("scalar is replicated", func(t *testing.T) {
		c, err := img.NewFromImage(7)
		require.NoError(t, err)
		defer c.Close()
		px, err := c.Getpoint(0, 0, nil)
		require.NoError(t, err)
		assert.Equal(t, []float64{7, 7, 7}, px)
	})

	t.Run("template header is kept", func(t *testing.T) {
		template, err := img.Copy(&CopyOptions{Xres: 2.5, Yres: 3.5, Xoffset: 4, Yoffset: -2})
		require.NoError(t, err)
		defer template.Close()
		require.Equal(t, 2.5, template.Xres())

		c, err := template.NewFromImage(5)
		require.NoError(t, err)
		defer c.Close()

		assert.Equal(t, template.Width(), c.Width())
		assert.Equal(t, template.Height(), c.Height())
		assert.Equal(t, template.Bands(), c.Bands())
		assert.Equal(t, template.Format(), c.Format())
		assert.Equal(t, template.Interpretation(), c.Interpretation())
		assert.Equal(t, 2.5, c.Xres())
		assert.Equal(t, 3.5, c.Yres())
		assert.Equal(t, 4, c.Xoffset())
		assert.Equal(t, -2, c.Yoffset())

		data, err := c.WriteToMemory()
		require.NoError(t, err)
		require.Len(t, data, 6*5*3)
		for i, b := range data {
			require.Equal(t, byte(5), b, "byte %d", i)
		}
	})

	t.Run("not a number", func(t *testing.T) {
		_, err := img.NewFromImage("white")
		var shape *BroadcastShapeError
		assert.ErrorAs(t, err, &shape)
	})
}

func TestImageizeKeepsImages(t *testing.T) {
	img := createBlackImage(t, 3, 3, 1)
	defer img.Close()
	other := createBlackImage(t, 2, 2, 1)
	defer other.Close()
	b := img.h.b

	out, created, err := b.imageize(other, img)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, img, out)

	images, temps, err := b.imageizeArray(other, []*Image{img, other})
	require.NoError(t, err)
	assert.Empty(t, temps)
	assert.Same(t, img, images[0])
	assert.Same(t, other, images[1])

	out, created, err = b.imageize(img, 5)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, img.Pointer(), out.Pointer())
	out.Close()
}

func TestConstantBroadcast(t *testing.T) {
	img := createBlackImage(t, 2, 2, 1)
	defer img.Close()

	t.Run("scalar", func(t *testing.T) {
		out, err := img.Call("add", 10)
		require.NoError(t, err)
		sum := out.(*Image)
		defer sum.Close()
		assert.Equal(t, BandFormatUshort, sum.Format())
		px, err := sum.Getpoint(1, 1, nil)
		require.NoError(t, err)
		assert.Equal(t, []float64{10}, px)
	})

	t.Run("vector widens bands", func(t *testing.T) {
		out, err := img.Call("add", []float64{1, 2, 3})
		require.NoError(t, err)
		sum := out.(*Image)
		defer sum.Close()
		assert.Equal(t, 3, sum.Bands())
		px, err := sum.Getpoint(0, 0, nil)
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 2, 3}, px)
	})

	t.Run("matrix", func(t *testing.T) {
		out, err := img.Call("add", [][]float64{{1, 2}, {3, 4}})
		require.NoError(t, err)
		sum := out.(*Image)
		defer sum.Close()
		assert.Equal(t, BandFormatDouble, sum.Format())
		px, err := sum.Getpoint(1, 0, nil)
		require.NoError(t, err)
		assert.Equal(t, []float64{2}, px)
		px, err = sum.Getpoint(0, 1, nil)
		require.NoError(t, err)
		assert.Equal(t, []float64{3}, px)
	})

	t.Run("matrix of any", func(t *testing.T) {
		out, err := img.Call("add", []any{[]int{1, 1}, []float64{1, 1}})
		require.NoError(t, err)
		closeValues([]any{out})
	})

	t.Run("constant is the left operand", func(t *testing.T) {
		out, err := Call("subtract", 100, img)
		require.NoError(t, err)
		diff := out.(*Image)
		defer diff.Close()
		px, err := diff.Getpoint(0, 0, nil)
		require.NoError(t, err)
		assert.Equal(t, []float64{100}, px)
	})

	t.Run("ragged matrix", func(t *testing.T) {
		_, err := img.Call("add", [][]float64{{1, 2}, {3}})
		var shape *BroadcastShapeError
		require.ErrorAs(t, err, &shape)
		assert.Contains(t, err.Error(), "row 1 has 1 elements, want 2")
	})

	t.Run("rows mixed with scalars", func(t *testing.T) {
		_, err := img.Call("add", []any{[]float64{1}, 2.0})
		var shape *BroadcastShapeError
		assert.ErrorAs(t, err, &shape)
	})

	t.Run("no image to match", func(t *testing.T) {
		_, err := Call("add", 1, 2)
		var shape *BroadcastShapeError
		assert.ErrorAs(t, err, &shape)
	})

	t.Run("image arrays", func(t *testing.T) {
		out, err := Call("sum", []any{img, 1, 2})
		require.NoError(t, err)
		sum := out.(*Image)
		defer sum.Close()
		px, err := sum.Getpoint(0, 0, nil)
		require.NoError(t, err)
		assert.Equal(t, []float64{3}, px)
	})
}

// TestDrawOperationsWithPixelValidation tests drawing operations with pixel validation
func TestDrawOperationsWithPixelValidation(t *testing.T) {
	width, height := 300, 300
	img := createWhiteImage(t, width, height)
	defer img.Close()

	original, err := img.Ref()
	require.NoError(t, err)
	defer original.Close()

	centerPixel, err := img.Getpoint(width/2, height/2, nil)
	require.NoError(t, err)
	assert.InDelta(t, 255, centerPixel[0], 1, "Center should initially be white")

	redColor := []float64{255, 0, 0}
	err = img.DrawRect(redColor, 50, 50, 100, 100, &DrawRectOptions{
		Fill: true,
	})
	require.NoError(t, err)

	rectPixel, err := img.Getpoint(75, 75, nil)
	require.NoError(t, err)
	assert.Equal(t, redColor, rectPixel, "Rectangle should be red")

	outsidePixel, err := img.Getpoint(25, 25, nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{255, 255, 255}, outsidePixel, "Outside should still be white")

	untouched, err := original.Getpoint(75, 75, nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{255, 255, 255}, untouched, "The original image must not be modified")

	// An outline leaves the interior alone
	err = img.DrawRect([]float64{0}, 200, 200, 50, 50, nil)
	require.NoError(t, err)
	edge, err := img.Getpoint(200, 220, nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0}, edge)
	inside, err := img.Getpoint(225, 225, nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{255, 255, 255}, inside)
}

func TestModifiedInputsAreReturned(t *testing.T) {
	img := createBlackImage(t, 4, 4, 1)
	defer img.Close()

	out, err := img.Call("draw_rect", []float64{9}, 0, 0, 2, 2)
	require.NoError(t, err)
	drawn, ok := out.(*Image)
	require.True(t, ok, "got %T", out)
	defer drawn.Close()

	assert.NotEqual(t, img.Pointer(), drawn.Pointer())
	px, err := drawn.Getpoint(1, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{9}, px)
}

func TestImagePointOperations(t *testing.T) {
	t.Run("invert", func(t *testing.T) {
		img := createRowImage(t, 10, 20)
		defer img.Close()
		require.NoError(t, img.Invert())
		data, err := img.WriteToMemory()
		require.NoError(t, err)
		assert.Equal(t, []byte{245, 235}, data)
	})

	t.Run("flip", func(t *testing.T) {
		img := createRowImage(t, 10, 20, 30)
		defer img.Close()
		require.NoError(t, img.Flip(DirectionHorizontal))
		data, err := img.WriteToMemory()
		require.NoError(t, err)
		assert.Equal(t, []byte{30, 20, 10}, data)
	})

	t.Run("linear", func(t *testing.T) {
		img := createRowImage(t, 10, 20)
		defer img.Close()
		require.NoError(t, img.Linear([]float64{2}, []float64{1}, nil))
		assert.Equal(t, BandFormatFloat, img.Format())
		px, err := img.Getpoint(1, 0, nil)
		require.NoError(t, err)
		assert.Equal(t, []float64{41}, px)

		require.NoError(t, img.Linear([]float64{10}, []float64{0}, &LinearOptions{Uchar: true}))
		assert.Equal(t, BandFormatUchar, img.Format())
		px, err = img.Getpoint(1, 0, nil)
		require.NoError(t, err)
		assert.Equal(t, []float64{255}, px)
	})

	t.Run("arithmetic", func(t *testing.T) {
		img := createRowImage(t, 10, 20)
		defer img.Close()
		require.NoError(t, img.Multiply(2))
		require.NoError(t, img.Subtract(50))
		px, err := img.Getpoint(0, 0, nil)
		require.NoError(t, err)
		assert.Equal(t, []float64{-30}, px)
		require.NoError(t, img.Add(img))
		px, err = img.Getpoint(1, 0, nil)
		require.NoError(t, err)
		assert.Equal(t, []float64{-20}, px)
	})

	t.Run("cast", func(t *testing.T) {
		img := createRowImage(t, 1, 2)
		defer img.Close()
		require.NoError(t, img.Cast(BandFormatUshort, &CastOptions{Shift: true}))
		assert.Equal(t, BandFormatUshort, img.Format())
		px, err := img.Getpoint(1, 0, nil)
		require.NoError(t, err)
		assert.Equal(t, []float64{512}, px)
	})

	t.Run("math", func(t *testing.T) {
		img := createRowImage(t, 1, 100)
		defer img.Close()
		require.NoError(t, img.Math(OperationMathLog10))
		px, err := img.Getpoint(1, 0, nil)
		require.NoError(t, err)
		assert.InDelta(t, 2, px[0], 1e-6)
	})

	t.Run("relational", func(t *testing.T) {
		img := createRowImage(t, 10, 20)
		defer img.Close()
		require.NoError(t, img.RelationalConst(OperationRelationalMore, []float64{15}))
		data, err := img.WriteToMemory()
		require.NoError(t, err)
		assert.Equal(t, []byte{0, 255}, data)
	})
}

func TestImageGeometry(t *testing.T) {
	t.Run("embed", func(t *testing.T) {
		img := createBlackImage(t, 4, 4, 1)
		defer img.Close()
		require.NoError(t, img.Embed(1, 1, 6, 6, &EmbedOptions{
			Extend:     ExtendBackground,
			Background: []float64{99},
		}))
		assert.Equal(t, 6, img.Width())
		px, err := img.Getpoint(0, 0, nil)
		require.NoError(t, err)
		assert.Equal(t, []float64{99}, px)
	})

	t.Run("extract area", func(t *testing.T) {
		img := createRowImage(t, 1, 2, 3, 4)
		defer img.Close()
		require.NoError(t, img.ExtractArea(1, 0, 2, 1))
		data, err := img.WriteToMemory()
		require.NoError(t, err)
		assert.Equal(t, []byte{2, 3}, data)
	})

	t.Run("bands", func(t *testing.T) {
		img := createBlackImage(t, 3, 3, 1)
		defer img.Close()
		require.NoError(t, img.Bandjoin(255))
		assert.Equal(t, 2, img.Bands())
		require.NoError(t, img.BandjoinConst([]float64{7}))
		assert.Equal(t, 3, img.Bands())
		px, err := img.Getpoint(0, 0, nil)
		require.NoError(t, err)
		assert.Equal(t, []float64{0, 255, 7}, px)

		require.NoError(t, img.ExtractBand(1, &ExtractBandOptions{N: 2}))
		px, err = img.Getpoint(2, 2, nil)
		require.NoError(t, err)
		assert.Equal(t, []float64{255, 7}, px)
	})

	t.Run("copy", func(t *testing.T) {
		img := createBlackImage(t, 3, 3, 3)
		defer img.Close()
		copied, err := img.Copy(&CopyOptions{
			Interpretation: InterpretationMultiband,
			Xres:           2,
			Xoffset:        5,
		})
		require.NoError(t, err)
		defer copied.Close()
		assert.Equal(t, InterpretationMultiband, copied.Interpretation())
		assert.Equal(t, 2.0, copied.Xres())
		assert.Equal(t, 5, copied.Xoffset())
		assert.Equal(t, InterpretationSRGB, img.Interpretation())
	})
}

// TestImageStats tests statistics operations on images
func TestImageStats(t *testing.T) {
	img := createRowImage(t, 10, 40, 20, 30)
	defer img.Close()

	avg, err := img.Avg()
	require.NoError(t, err)
	assert.Equal(t, 25.0, avg)

	minOpts := &MinOptions{}
	minimum, err := img.Min(minOpts)
	require.NoError(t, err)
	assert.Equal(t, 10.0, minimum)
	assert.Equal(t, 0, minOpts.X)

	maxOpts := &MaxOptions{}
	maximum, err := img.Max(maxOpts)
	require.NoError(t, err)
	assert.Equal(t, 40.0, maximum)
	assert.Equal(t, 1, maxOpts.X)
	assert.Equal(t, 0, maxOpts.Y)

	maximum, err = img.Max(nil)
	require.NoError(t, err)
	assert.Equal(t, 40.0, maximum)

	_, err = img.Getpoint(10, 0, nil)
	var build *BuildError
	assert.ErrorAs(t, err, &build)
}

func TestFindTrim(t *testing.T) {
	img := createBlackImage(t, 10, 10, 1)
	defer img.Close()
	require.NoError(t, img.DrawRect([]float64{255}, 2, 3, 4, 5, &DrawRectOptions{Fill: true}))

	left, top, width, height, err := img.FindTrim(&FindTrimOptions{Background: []float64{0}})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 4, 5}, []int{left, top, width, height})
}

func TestProfileLoadUnknown(t *testing.T) {
	_, err := ProfileLoad("no-such-profile")
	var build *BuildError
	require.ErrorAs(t, err, &build)
	assert.Contains(t, err.Error(), "unable to load profile")
}

func TestNewImageFromArray(t *testing.T) {
	img, err := NewImageFromArray([][]float64{{1, 2, 3}, {4, 5, 6}})
	require.NoError(t, err)
	defer img.Close()
	assert.Equal(t, 3, img.Width())
	assert.Equal(t, 2, img.Height())
	assert.Equal(t, BandFormatDouble, img.Format())

	_, err = NewImageFromArray([][]float64{{1}, {}})
	var shape *BroadcastShapeError
	assert.ErrorAs(t, err, &shape)
	_, err = NewImageFromArray(nil)
	assert.ErrorAs(t, err, &shape)
}
