package memvips

import (
	"math"
	"sort"
	"strconv"

	"github.com/cshum/vipscall/native"
)

func argIn(name string, t native.GType, priority int, description string) argSpec {
	return argSpec{name: name, gtype: t, flags: requiredInput, priority: priority, description: description}
}

func argOpt(name string, t native.GType, priority int, description string, def any) argSpec {
	return argSpec{name: name, gtype: t, flags: optionalInput, priority: priority, description: description, def: def}
}

func argOut(name string, t native.GType, priority int, description string) argSpec {
	return argSpec{name: name, gtype: t, flags: requiredOutput, priority: priority, description: description}
}

func argOptOut(name string, t native.GType, priority int, description string, def any) argSpec {
	return argSpec{name: name, gtype: t, flags: optionalOutput, priority: priority, description: description, def: def}
}

func deprecated(a argSpec) argSpec {
	a.flags |= native.ArgumentDeprecated
	return a
}

// derive makes an empty image carrying the resolution and offsets of src.
func derive(src *image, width, height, bands, format int) *image {
	out := newImage(width, height, bands, format)
	out.coding = src.coding
	if bands == src.bands {
		out.interpretation = src.interpretation
	}
	out.xres, out.yres = src.xres, src.yres
	out.xoffset, out.yoffset = src.xoffset, src.yoffset
	return out
}

// sample reads band b of pixel (x, y). One-band images are replicated across
// bands and pixels outside the image read as zero.
func sample(img *image, x, y, b int) float64 {
	if x < 0 || y < 0 || x >= img.width || y >= img.height {
		return 0
	}
	if img.bands == 1 {
		b = 0
	}
	return img.at(x, y, b)
}

// pick reads element b of a constant vector, replicating single values.
func pick(vec []float64, b int) float64 {
	if len(vec) == 1 {
		return vec[0]
	}
	return vec[b]
}

func isSigned(format int) bool {
	return format == formatChar || format == formatShort || format == formatInt
}

// commonFormat is the smallest format that holds both a and b.
func commonFormat(a, b int) int {
	switch {
	case a == b:
		return a
	case a == formatDouble || b == formatDouble:
		return formatDouble
	case !isIntegerFormat(a) || !isIntegerFormat(b):
		return formatFloat
	}
	size := max(formatSize(a), formatSize(b))
	signed := isSigned(a) || isSigned(b)
	if signed && !(isSigned(a) && isSigned(b)) {
		unsigned := a
		if isSigned(a) {
			unsigned = b
		}
		if formatSize(unsigned) == size {
			size *= 2
		}
	}
	switch {
	case size >= 4 && signed:
		return formatInt
	case size >= 4:
		return formatUint
	case size == 2 && signed:
		return formatShort
	case size == 2:
		return formatUshort
	case signed:
		return formatChar
	}
	return formatUchar
}

var (
	formatAdd = map[int]int{
		formatUchar: formatUshort, formatChar: formatShort, formatUshort: formatUint,
		formatShort: formatInt, formatUint: formatUint, formatInt: formatInt,
		formatFloat: formatFloat, formatDouble: formatDouble,
	}
	formatSubtract = map[int]int{
		formatUchar: formatShort, formatChar: formatShort, formatUshort: formatInt,
		formatShort: formatInt, formatUint: formatInt, formatInt: formatInt,
		formatFloat: formatFloat, formatDouble: formatDouble,
	}
	formatDivide = map[int]int{
		formatUchar: formatFloat, formatChar: formatFloat, formatUshort: formatFloat,
		formatShort: formatFloat, formatUint: formatFloat, formatInt: formatFloat,
		formatFloat: formatFloat, formatDouble: formatDouble,
	}
)

// floatFormat is the output format of operations that compute in floating
// point.
func floatFormat(format int) int {
	if format == formatDouble {
		return formatDouble
	}
	return formatFloat
}

// vectorBands resolves the output band count of an image combined with
// constant vectors.
func (c *runContext) vectorBands(in *image, vectors ...[]float64) (int, error) {
	bands := in.bands
	for _, vec := range vectors {
		if len(vec) > 1 && bands == 1 {
			bands = len(vec)
		}
	}
	for _, vec := range vectors {
		if len(vec) != 1 && len(vec) != bands {
			return 0, c.fail("vector must have 1 or %d elements", bands)
		}
	}
	if in.bands != 1 && in.bands != bands {
		return 0, c.fail("not one band or %d bands", bands)
	}
	return bands, nil
}

func (c *runContext) commonBands(a, b int) (int, error) {
	switch {
	case a == b, b == 1:
		return a, nil
	case a == 1:
		return b, nil
	}
	return 0, c.fail("not one band or %d bands", max(a, b))
}

func binaryClass(nickname, description string, formats map[int]int, fn func(a, b float64) float64) *opClass {
	return &opClass{
		nickname:    nickname,
		description: description,
		args: []argSpec{
			argIn("left", typeVipsImage, 1, "Left-hand image argument"),
			argIn("right", typeVipsImage, 2, "Right-hand image argument"),
			argOut("out", typeVipsImage, 3, "Output image"),
		},
		run: func(c *runContext) error {
			left, right := c.getImage("left"), c.getImage("right")
			bands, err := c.commonBands(left.bands, right.bands)
			if err != nil {
				return err
			}
			format := formats[commonFormat(left.format, right.format)]
			out := derive(left, max(left.width, right.width), max(left.height, right.height), bands, format)
			for y := 0; y < out.height; y++ {
				for x := 0; x < out.width; x++ {
					for b := 0; b < bands; b++ {
						v := fn(sample(left, x, y, b), sample(right, x, y, b))
						out.pixels[out.index(x, y, b)] = clip(format, v)
					}
				}
			}
			c.setImage("out", out)
			return nil
		},
	}
}

// unaryClass covers the in/out point operations.
func unaryClass(nickname, description string, extra []argSpec, run func(c *runContext, in *image) (*image, error)) *opClass {
	args := []argSpec{
		argIn("in", typeVipsImage, 0, "Input image"),
		argOut("out", typeVipsImage, 1, "Output image"),
	}
	return &opClass{
		nickname:    nickname,
		description: description,
		args:        append(args, extra...),
		run: func(c *runContext) error {
			out, err := run(c, c.getImage("in"))
			if err != nil {
				return err
			}
			c.setImage("out", out)
			return nil
		},
	}
}

func mapPixels(in *image, format int, fn func(v float64, b int) float64) *image {
	out := derive(in, in.width, in.height, in.bands, format)
	for i, v := range in.pixels {
		out.pixels[i] = clip(format, fn(v, i%in.bands))
	}
	return out
}

func registerOperations(l *Library) {
	l.register(&opClass{
		nickname:    "black",
		description: "make a black image",
		args: []argSpec{
			argOut("out", typeVipsImage, 1, "Output image"),
			argIn("width", native.TypeInt, 4, "Image width in pixels"),
			argIn("height", native.TypeInt, 5, "Image height in pixels"),
			argOpt("bands", native.TypeInt, 6, "Number of bands in image", 1),
		},
		run: func(c *runContext) error {
			width, height, bands := c.getInt("width"), c.getInt("height"), c.getInt("bands")
			if width <= 0 || height <= 0 || bands <= 0 {
				return c.fail("bad dimensions %dx%dx%d", width, height, bands)
			}
			c.setImage("out", newImage(width, height, bands, formatUchar))
			return nil
		},
	})

	l.register(binaryClass("add", "add two images", formatAdd, func(a, b float64) float64 {
		return a + b
	}))
	l.register(binaryClass("subtract", "subtract two images", formatSubtract, func(a, b float64) float64 {
		return a - b
	}))
	l.register(binaryClass("multiply", "multiply two images", formatAdd, func(a, b float64) float64 {
		return a * b
	}))
	l.register(binaryClass("divide", "divide two images", formatDivide, func(a, b float64) float64 {
		if b == 0 {
			return 0
		}
		return a / b
	}))

	l.register(unaryClass("linear", "calculate (a * in + b)", []argSpec{
		argIn("a", typeArrayDouble, 2, "Multiply by this"),
		argIn("b", typeArrayDouble, 3, "Add this"),
		argOpt("uchar", native.TypeBoolean, 4, "Output should be uchar", false),
	}, func(c *runContext, in *image) (*image, error) {
		a, b := c.getDoubles("a"), c.getDoubles("b")
		bands, err := c.vectorBands(in, a, b)
		if err != nil {
			return nil, err
		}
		format := floatFormat(in.format)
		if c.getBool("uchar") {
			format = formatUchar
		}
		out := derive(in, in.width, in.height, bands, format)
		for y := 0; y < in.height; y++ {
			for x := 0; x < in.width; x++ {
				for band := 0; band < bands; band++ {
					v := pick(a, band)*sample(in, x, y, band) + pick(b, band)
					out.pixels[out.index(x, y, band)] = clip(format, v)
				}
			}
		}
		return out, nil
	}))

	l.register(unaryClass("invert", "invert an image", nil, func(c *runContext, in *image) (*image, error) {
		return mapPixels(in, in.format, func(v float64, _ int) float64 {
			switch in.format {
			case formatUchar:
				return math.MaxUint8 - v
			case formatUshort:
				return math.MaxUint16 - v
			case formatUint:
				return math.MaxUint32 - v
			}
			return -v
		}), nil
	}))

	l.register(unaryClass("cast", "cast an image", []argSpec{
		argIn("format", typeBandFormat, 2, "Format to cast to"),
		argOpt("shift", native.TypeBoolean, 3, "Shift integer values up and down", false),
	}, func(c *runContext, in *image) (*image, error) {
		format := c.getInt("format")
		if formatSize(format) == 0 {
			return nil, c.fail("unsupported format %d", format)
		}
		shift := 0
		if c.getBool("shift") && isIntegerFormat(format) && isIntegerFormat(in.format) {
			shift = 8 * (formatSize(format) - formatSize(in.format))
		}
		return mapPixels(in, format, func(v float64, _ int) float64 {
			return math.Ldexp(v, shift)
		}), nil
	}))

	l.register(&opClass{
		nickname:    "embed",
		description: "embed an image in a larger image",
		flags:       native.OperationSequential,
		args: []argSpec{
			argIn("in", typeVipsImage, 0, "Input image"),
			argOut("out", typeVipsImage, 1, "Output image"),
			argIn("x", native.TypeInt, 2, "Left edge of input in output"),
			argIn("y", native.TypeInt, 3, "Top edge of input in output"),
			argIn("width", native.TypeInt, 5, "Image width in pixels"),
			argIn("height", native.TypeInt, 6, "Image height in pixels"),
			argOpt("extend", typeExtend, 7, "How to generate the extra pixels", extendBlack),
			argOpt("background", typeArrayDouble, 12, "Color for background pixels", []float64{0}),
		},
		run: runEmbed,
	})

	l.register(&opClass{
		nickname:    "copy",
		description: "copy an image",
		args: []argSpec{
			argIn("in", typeVipsImage, 0, "Input image"),
			argOut("out", typeVipsImage, 1, "Output image"),
			deprecated(argOpt("swap", native.TypeBoolean, 2, "Swap bytes in image between little and big-endian", false)),
			argOpt("width", native.TypeInt, 3, "Image width in pixels", 0),
			argOpt("height", native.TypeInt, 4, "Image height in pixels", 0),
			argOpt("bands", native.TypeInt, 5, "Number of bands in image", 0),
			argOpt("format", typeBandFormat, 6, "Pixel format in image", formatUchar),
			argOpt("coding", typeCoding, 7, "Pixel coding", 0),
			argOpt("interpretation", typeInterpretation, 8, "Pixel interpretation", interpretationMultiband),
			argOpt("xres", native.TypeDouble, 9, "Horizontal resolution in pixels/mm", 0.0),
			argOpt("yres", native.TypeDouble, 10, "Vertical resolution in pixels/mm", 0.0),
			argOpt("xoffset", native.TypeInt, 11, "Horizontal offset of origin", 0),
			argOpt("yoffset", native.TypeInt, 12, "Vertical offset of origin", 0),
		},
		run: runCopy,
	})

	l.register(&opClass{
		nickname:    "avg",
		description: "find image average",
		args: []argSpec{
			argIn("in", typeVipsImage, 0, "Input image"),
			argOut("out", native.TypeDouble, 1, "Output value"),
		},
		run: func(c *runContext) error {
			in := c.getImage("in")
			sum := 0.0
			for _, v := range in.pixels {
				sum += v
			}
			c.setDouble("out", sum/float64(len(in.pixels)))
			return nil
		},
	})

	l.register(extremeClass("min", "find image minimum", func(a, b float64) bool { return a < b }))
	l.register(extremeClass("max", "find image maximum", func(a, b float64) bool { return a > b }))

	l.register(&opClass{
		nickname:    "getpoint",
		description: "read a point from an image",
		args: []argSpec{
			argIn("in", typeVipsImage, 1, "Input image"),
			argOut("out_array", typeArrayDouble, 2, "Array of output values"),
			argIn("x", native.TypeInt, 5, "Point to read"),
			argIn("y", native.TypeInt, 6, "Point to read"),
			argOpt("unpack_complex", native.TypeBoolean, 7, "Complex pixels should be unpacked", false),
		},
		run: func(c *runContext) error {
			in := c.getImage("in")
			x, y := c.getInt("x"), c.getInt("y")
			if x < 0 || y < 0 || x >= in.width || y >= in.height {
				return c.fail("point out of range")
			}
			values := make([]float64, in.bands)
			for b := range values {
				values[b] = in.at(x, y, b)
			}
			c.setDoubles("out_array", values)
			return nil
		},
	})

	l.register(&opClass{
		nickname:    "draw_rect",
		description: "paint a rectangle on an image",
		flags:       native.OperationNoCache,
		args: []argSpec{
			{name: "image", gtype: typeVipsImage, flags: modifyInput, priority: 1, description: "Image to draw on"},
			argIn("ink", typeArrayDouble, 2, "Color for pixels"),
			argIn("left", native.TypeInt, 6, "Rect to fill"),
			argIn("top", native.TypeInt, 7, "Rect to fill"),
			argIn("width", native.TypeInt, 8, "Rect to fill"),
			argIn("height", native.TypeInt, 9, "Rect to fill"),
			argOpt("fill", native.TypeBoolean, 10, "Draw a solid object", false),
		},
		run: runDrawRect,
	})

	extractArgs := func() []argSpec {
		return []argSpec{
			argIn("input", typeVipsImage, 1, "Input image"),
			argOut("out", typeVipsImage, 2, "Output image"),
			argIn("left", native.TypeInt, 3, "Left edge of extract area"),
			argIn("top", native.TypeInt, 4, "Top edge of extract area"),
			argIn("width", native.TypeInt, 5, "Width of extract area"),
			argIn("height", native.TypeInt, 6, "Height of extract area"),
		}
	}
	l.register(&opClass{
		nickname:    "extract_area",
		description: "extract an area from an image",
		flags:       native.OperationSequential,
		args:        extractArgs(),
		run:         runExtractArea,
	})
	l.register(&opClass{
		nickname:    "crop",
		description: "extract an area from an image",
		flags:       native.OperationSequential | native.OperationDeprecated,
		args:        extractArgs(),
		run:         runExtractArea,
	})

	l.register(unaryClass("flip", "flip an image", []argSpec{
		argIn("direction", typeDirection, 2, "Direction to flip image"),
	}, func(c *runContext, in *image) (*image, error) {
		horizontal := c.getInt("direction") == 0
		out := derive(in, in.width, in.height, in.bands, in.format)
		for y := 0; y < in.height; y++ {
			for x := 0; x < in.width; x++ {
				sx, sy := x, in.height-1-y
				if horizontal {
					sx, sy = in.width-1-x, y
				}
				for b := 0; b < in.bands; b++ {
					out.pixels[out.index(x, y, b)] = in.at(sx, sy, b)
				}
			}
		}
		return out, nil
	}))

	l.register(unaryClass("math", "apply a math operation to an image", []argSpec{
		argIn("math", typeOperationMath, 2, "Math to perform"),
	}, func(c *runContext, in *image) (*image, error) {
		fn, ok := mathFuncs[c.getInt("math")]
		if !ok {
			return nil, c.fail("unknown math operation %d", c.getInt("math"))
		}
		return mapPixels(in, floatFormat(in.format), func(v float64, _ int) float64 {
			return fn(v)
		}), nil
	}))

	l.register(unaryClass("relational_const", "relational operations against a constant", []argSpec{
		argIn("relational", typeOperationRel, 2, "Relational to perform"),
		argIn("c", typeArrayDouble, 3, "Array of constants"),
	}, func(c *runContext, in *image) (*image, error) {
		k := c.getDoubles("c")
		bands, err := c.vectorBands(in, k)
		if err != nil {
			return nil, err
		}
		rel := relationalFuncs[c.getInt("relational")]
		if rel == nil {
			return nil, c.fail("unknown relational operation %d", c.getInt("relational"))
		}
		out := derive(in, in.width, in.height, bands, formatUchar)
		for y := 0; y < in.height; y++ {
			for x := 0; x < in.width; x++ {
				for b := 0; b < bands; b++ {
					if rel(sample(in, x, y, b), pick(k, b)) {
						out.pixels[out.index(x, y, b)] = math.MaxUint8
					}
				}
			}
		}
		return out, nil
	}))

	l.register(&opClass{
		nickname:    "bandjoin",
		description: "bandwise join a set of images",
		args: []argSpec{
			argIn("in", typeArrayImage, 0, "Array of input images"),
			argOut("out", typeVipsImage, 1, "Output image"),
		},
		run: func(c *runContext) error {
			images := c.getImages("in")
			if len(images) == 0 {
				return c.fail("no input images")
			}
			first := images[0]
			bands, format := 0, first.format
			for _, img := range images {
				if img.width != first.width || img.height != first.height {
					return c.fail("images must match in size")
				}
				bands += img.bands
				format = commonFormat(format, img.format)
			}
			out := derive(first, first.width, first.height, bands, format)
			for y := 0; y < first.height; y++ {
				for x := 0; x < first.width; x++ {
					ob := 0
					for _, img := range images {
						for b := 0; b < img.bands; b++ {
							out.pixels[out.index(x, y, ob)] = clip(format, img.at(x, y, b))
							ob++
						}
					}
				}
			}
			c.setImage("out", out)
			return nil
		},
	})

	l.register(unaryClass("bandjoin_const", "append a constant band to an image", []argSpec{
		argIn("c", typeArrayDouble, 2, "Array of constants to add"),
	}, func(c *runContext, in *image) (*image, error) {
		k := c.getDoubles("c")
		if len(k) == 0 {
			return nil, c.fail("no constants")
		}
		out := derive(in, in.width, in.height, in.bands+len(k), in.format)
		for y := 0; y < in.height; y++ {
			for x := 0; x < in.width; x++ {
				for b := 0; b < out.bands; b++ {
					v := pick(k, max(0, b-in.bands))
					if b < in.bands {
						v = in.at(x, y, b)
					}
					out.pixels[out.index(x, y, b)] = clip(in.format, v)
				}
			}
		}
		return out, nil
	}))

	l.register(&opClass{
		nickname:    "sum",
		description: "sum an array of images",
		args: []argSpec{
			argIn("in", typeArrayImage, 0, "Array of input images"),
			argOut("out", typeVipsImage, 1, "Output image"),
		},
		run: func(c *runContext) error {
			images := c.getImages("in")
			if len(images) == 0 {
				return c.fail("no input images")
			}
			first := images[0]
			width, height, bands, format := 0, 0, 1, first.format
			for _, img := range images {
				var err error
				if bands, err = c.commonBands(bands, img.bands); err != nil {
					return err
				}
				width, height = max(width, img.width), max(height, img.height)
				format = commonFormat(format, img.format)
			}
			format = formatAdd[format]
			out := derive(first, width, height, bands, format)
			for y := 0; y < height; y++ {
				for x := 0; x < width; x++ {
					for b := 0; b < bands; b++ {
						v := 0.0
						for _, img := range images {
							v += sample(img, x, y, b)
						}
						out.pixels[out.index(x, y, b)] = clip(format, v)
					}
				}
			}
			c.setImage("out", out)
			return nil
		},
	})

	l.register(unaryClass("extract_band", "extract band from an image", []argSpec{
		argIn("band", native.TypeInt, 3, "Band to extract"),
		argOpt("n", native.TypeInt, 4, "Number of bands to extract", 1),
	}, func(c *runContext, in *image) (*image, error) {
		band, n := c.getInt("band"), c.getInt("n")
		if band < 0 || n < 1 || band+n > in.bands {
			return nil, c.fail("bad extract band")
		}
		out := derive(in, in.width, in.height, n, in.format)
		for y := 0; y < in.height; y++ {
			for x := 0; x < in.width; x++ {
				for b := 0; b < n; b++ {
					out.pixels[out.index(x, y, b)] = in.at(x, y, band+b)
				}
			}
		}
		return out, nil
	}))

	l.register(&opClass{
		nickname:    "profile_load",
		description: "load named ICC profile",
		args: []argSpec{
			argIn("name", native.TypeString, 1, "Profile name"),
			argOut("profile", typeBlob, 2, "Loaded profile"),
		},
		run: func(c *runContext) error {
			name := c.getString("name")
			switch name {
			case "srgb", "cmyk", "p3":
			default:
				return c.fail("unable to load profile \"%s\"", name)
			}
			c.setBlob("profile", append([]byte("acsp"), name...))
			return nil
		},
	})

	l.register(&opClass{
		nickname:    "version",
		description: "report the library version",
		flags:       native.OperationNoCache,
		args: []argSpec{
			argOut("version", native.TypeString, 1, "Library version"),
		},
		run: func(c *runContext) error {
			c.setString("version", strconv.Itoa(c.l.major)+"."+strconv.Itoa(c.l.minor)+"."+strconv.Itoa(c.l.micro))
			return nil
		},
	})

	l.register(&opClass{
		nickname:    "find_trim",
		description: "search an image for non-edge areas",
		args: []argSpec{
			argIn("in", typeVipsImage, 1, "Image to find_trim"),
			argOut("left", native.TypeInt, 2, "Left edge of image"),
			argOut("top", native.TypeInt, 3, "Top edge of extract area"),
			argOut("width", native.TypeInt, 4, "Width of extract area"),
			argOut("height", native.TypeInt, 5, "Height of extract area"),
			argOpt("threshold", native.TypeDouble, 6, "Object threshold", 10.0),
			argOpt("background", typeArrayDouble, 7, "Color for background pixels", []float64{255}),
			argOpt("line_art", native.TypeBoolean, 8, "Enable line art mode", false),
		},
		run: runFindTrim,
	})
}

var mathFuncs = map[int]func(float64) float64{
	0: func(v float64) float64 { return math.Sin(v * math.Pi / 180) },
	1: func(v float64) float64 { return math.Cos(v * math.Pi / 180) },
	2: func(v float64) float64 { return math.Tan(v * math.Pi / 180) },
	3: func(v float64) float64 { return math.Asin(v) * 180 / math.Pi },
	4: func(v float64) float64 { return math.Acos(v) * 180 / math.Pi },
	5: func(v float64) float64 { return math.Atan(v) * 180 / math.Pi },
	6: math.Log,
	7: math.Log10,
	8: math.Exp,
	9: func(v float64) float64 { return math.Pow(10, v) },
	10: math.Sinh,
	11: math.Cosh,
	12: math.Tanh,
	13: math.Asinh,
	14: math.Acosh,
	15: math.Atanh,
}

var relationalFuncs = map[int]func(a, b float64) bool{
	0: func(a, b float64) bool { return a == b },
	1: func(a, b float64) bool { return a != b },
	2: func(a, b float64) bool { return a < b },
	3: func(a, b float64) bool { return a <= b },
	4: func(a, b float64) bool { return a > b },
	5: func(a, b float64) bool { return a >= b },
}

func extremeClass(nickname, description string, better func(a, b float64) bool) *opClass {
	return &opClass{
		nickname:    nickname,
		description: description,
		args: []argSpec{
			argIn("in", typeVipsImage, 1, "Input image"),
			argOut("out", native.TypeDouble, 2, "Output value"),
			argOptOut("x", native.TypeInt, 3, "Horizontal position of "+nickname, 0),
			argOptOut("y", native.TypeInt, 4, "Vertical position of "+nickname, 0),
			argOpt("size", native.TypeInt, 5, "Number of "+nickname+" values to find", 1),
			argOptOut("out_array", typeArrayDouble, 6, "Array of output values", []float64(nil)),
			argOptOut("x_array", typeArrayInt, 7, "Array of horizontal positions", []int(nil)),
			argOptOut("y_array", typeArrayInt, 8, "Array of vertical positions", []int(nil)),
		},
		run: func(c *runContext) error {
			in := c.getImage("in")
			size := c.getInt("size")
			if size < 1 {
				return c.fail("size must be at least 1")
			}
			type hit struct {
				v    float64
				x, y int
			}
			hits := make([]hit, 0, in.width*in.height)
			for y := 0; y < in.height; y++ {
				for x := 0; x < in.width; x++ {
					h := hit{v: in.at(x, y, 0), x: x, y: y}
					for b := 1; b < in.bands; b++ {
						if v := in.at(x, y, b); better(v, h.v) {
							h.v = v
						}
					}
					hits = append(hits, h)
				}
			}
			sort.SliceStable(hits, func(i, j int) bool {
				return better(hits[i].v, hits[j].v)
			})
			hits = hits[:min(size, len(hits))]
			values := make([]float64, len(hits))
			xs := make([]int, len(hits))
			ys := make([]int, len(hits))
			for i, h := range hits {
				values[i], xs[i], ys[i] = h.v, h.x, h.y
			}
			c.setDouble("out", values[0])
			c.setInt("x", xs[0])
			c.setInt("y", ys[0])
			c.setDoubles("out_array", values)
			c.setInts("x_array", xs)
			c.setInts("y_array", ys)
			return nil
		},
	}
}

func runEmbed(c *runContext) error {
	in := c.getImage("in")
	ox, oy := c.getInt("x"), c.getInt("y")
	width, height := c.getInt("width"), c.getInt("height")
	if width <= 0 || height <= 0 {
		return c.fail("bad dimensions %dx%d", width, height)
	}
	extend := c.getInt("extend")
	background := c.getDoubles("background")
	if len(background) != 1 && len(background) != in.bands {
		return c.fail("vector must have 1 or %d elements", in.bands)
	}
	white := 255.0
	switch in.format {
	case formatUshort:
		white = math.MaxUint16
	case formatUint:
		white = math.MaxUint32
	}
	out := derive(in, width, height, in.bands, in.format)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			sx, sy := x-ox, y-oy
			inside := sx >= 0 && sy >= 0 && sx < in.width && sy < in.height
			if !inside {
				switch extend {
				case extendCopy:
					sx, sy = clampInt(sx, in.width), clampInt(sy, in.height)
					inside = true
				case extendRepeat:
					sx, sy = modInt(sx, in.width), modInt(sy, in.height)
					inside = true
				case extendMirror:
					sx, sy = mirrorInt(sx, in.width), mirrorInt(sy, in.height)
					inside = true
				}
			}
			for b := 0; b < in.bands; b++ {
				var v float64
				switch {
				case inside:
					v = in.at(sx, sy, b)
				case extend == extendWhite:
					v = white
				case extend == extendBackground:
					v = pick(background, b)
				}
				out.pixels[out.index(x, y, b)] = clip(in.format, v)
			}
		}
	}
	c.setImage("out", out)
	return nil
}

func clampInt(v, n int) int {
	return max(0, min(n-1, v))
}

func modInt(v, n int) int {
	return ((v % n) + n) % n
}

func mirrorInt(v, n int) int {
	v = modInt(v, 2*n)
	if v >= n {
		v = 2*n - 1 - v
	}
	return v
}

func runCopy(c *runContext) error {
	in := c.getImage("in")
	out := derive(in, in.width, in.height, in.bands, in.format)
	out.interpretation = in.interpretation
	out.filename = in.filename
	copy(out.pixels, in.pixels)
	for name, gv := range in.meta {
		out.meta[name] = c.l.cloneValueLocked(gv)
	}
	if c.has("width") || c.has("height") || c.has("bands") {
		width, height, bands := in.width, in.height, in.bands
		if c.has("width") {
			width = c.getInt("width")
		}
		if c.has("height") {
			height = c.getInt("height")
		}
		if c.has("bands") {
			bands = c.getInt("bands")
		}
		if width <= 0 || height <= 0 || bands <= 0 || width*height*bands != len(in.pixels) {
			return c.fail("bad size %dx%dx%d", width, height, bands)
		}
		out.width, out.height, out.bands = width, height, bands
	}
	if c.has("format") {
		format := c.getInt("format")
		if formatSize(format) == 0 {
			return c.fail("unsupported format %d", format)
		}
		out.format = format
		for i, v := range out.pixels {
			out.pixels[i] = clip(format, v)
		}
	}
	if c.has("coding") {
		out.coding = c.getInt("coding")
	}
	if c.has("interpretation") {
		out.interpretation = c.getInt("interpretation")
	}
	if c.has("xres") {
		out.xres = c.getDouble("xres")
	}
	if c.has("yres") {
		out.yres = c.getDouble("yres")
	}
	if c.has("xoffset") {
		out.xoffset = c.getInt("xoffset")
	}
	if c.has("yoffset") {
		out.yoffset = c.getInt("yoffset")
	}
	c.setImage("out", out)
	return nil
}

func runDrawRect(c *runContext) error {
	img := c.getImage("image")
	ink := c.getDoubles("ink")
	if len(ink) != 1 && len(ink) != img.bands {
		return c.fail("vector must have 1 or %d elements", img.bands)
	}
	left, top := c.getInt("left"), c.getInt("top")
	width, height := c.getInt("width"), c.getInt("height")
	fill := c.getBool("fill") || width <= 2 || height <= 2
	for y := max(0, top); y < min(img.height, top+height); y++ {
		for x := max(0, left); x < min(img.width, left+width); x++ {
			edge := x == left || x == left+width-1 || y == top || y == top+height-1
			if !fill && !edge {
				continue
			}
			for b := 0; b < img.bands; b++ {
				img.pixels[img.index(x, y, b)] = clip(img.format, pick(ink, b))
			}
		}
	}
	return nil
}

func runExtractArea(c *runContext) error {
	in := c.getImage("input")
	left, top := c.getInt("left"), c.getInt("top")
	width, height := c.getInt("width"), c.getInt("height")
	if left < 0 || top < 0 || width <= 0 || height <= 0 ||
		left+width > in.width || top+height > in.height {
		return c.fail("bad extract area")
	}
	out := derive(in, width, height, in.bands, in.format)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			for b := 0; b < in.bands; b++ {
				out.pixels[out.index(x, y, b)] = in.at(left+x, top+y, b)
			}
		}
	}
	c.setImage("out", out)
	return nil
}

func runFindTrim(c *runContext) error {
	in := c.getImage("in")
	threshold := c.getDouble("threshold")
	background := c.getDoubles("background")
	if len(background) != 1 && len(background) != in.bands {
		return c.fail("vector must have 1 or %d elements", in.bands)
	}
	left, top, right, bottom := in.width, in.height, -1, -1
	for y := 0; y < in.height; y++ {
		for x := 0; x < in.width; x++ {
			for b := 0; b < in.bands; b++ {
				if math.Abs(in.at(x, y, b)-pick(background, b)) > threshold {
					left, top = min(left, x), min(top, y)
					right, bottom = max(right, x), max(bottom, y)
					break
				}
			}
		}
	}
	if right < 0 {
		left, top, right, bottom = 0, 0, -1, -1
	}
	c.setInt("left", left)
	c.setInt("top", top)
	c.setInt("width", right-left+1)
	c.setInt("height", bottom-top+1)
	return nil
}
