package vips

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func argumentNames(args []ArgumentSummary) []string {
	names := make([]string, len(args))
	for i, a := range args {
		names[i] = a.Name
	}
	return names
}

func TestOperationArguments(t *testing.T) {
	op, err := NewOperation("embed")
	require.NoError(t, err)
	defer op.Close()

	assert.Equal(t, "embed", op.Name())
	assert.Equal(t, "embed an image in a larger image", op.Description())
	assert.False(t, op.Deprecated())

	var names []string
	var positional []string
	for _, a := range op.Arguments() {
		names = append(names, a.Name)
		if a.positional() {
			positional = append(positional, a.Name)
		}
	}
	assert.Equal(t, []string{"in", "out", "x", "y", "width", "height", "extend", "background"}, names)
	assert.Equal(t, []string{"in", "x", "y", "width", "height"}, positional)

	require.NoError(t, op.Set("extend", ExtendMirror))
	v, err := op.Get("extend")
	require.NoError(t, err)
	assert.Equal(t, "mirror", v)

	v, err = op.Get("background")
	require.NoError(t, err)
	assert.Equal(t, []float64{0}, v, "unset arguments read as their default")

	require.NoError(t, op.SetFromString("x=3,y=4"))
	v, err = op.Get("y")
	require.NoError(t, err)
	assert.Equal(t, 4, v)

	_, err = NewOperation("no_such_operation")
	var lookup *LookupError
	assert.ErrorAs(t, err, &lookup)
}

func TestOperationAsObject(t *testing.T) {
	op, err := NewOperation("black")
	require.NoError(t, err)

	obj, err := op.Object()
	require.NoError(t, err)
	assert.Equal(t, op.h.ptr, obj.Pointer())
	op.Close()

	assert.NotEmpty(t, obj.TypeName())
	require.NoError(t, obj.Set("width", 5))
	v, err := obj.Get("width")
	require.NoError(t, err)
	assert.Equal(t, 5, v)
	obj.Close()
	assert.Zero(t, obj.Pointer())

	_, err = op.Object()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestModifyArguments(t *testing.T) {
	op, err := NewOperation("draw_rect")
	require.NoError(t, err)
	defer op.Close()

	args := op.Arguments()
	require.NotEmpty(t, args)
	assert.Equal(t, "image", args[0].Name)
	assert.True(t, args[0].Modify())
	assert.True(t, args[0].IsInput())
	assert.True(t, args[0].positional())
}

func TestOperations(t *testing.T) {
	current := Operations(false)
	all := Operations(true)

	assert.Contains(t, current, "embed")
	assert.Contains(t, current, "extract_area")
	assert.NotContains(t, current, "crop", "deprecated operations are hidden by default")
	assert.Contains(t, all, "crop")
	assert.Len(t, all, len(current)+1)
}

func TestDeprecatedOperationStillCallable(t *testing.T) {
	img := createRowImage(t, 1, 2, 3)
	defer img.Close()

	out, err := img.Call("crop", 1, 0, 1, 1)
	require.NoError(t, err)
	cropped := out.(*Image)
	defer cropped.Close()
	assert.Equal(t, 1, cropped.Width())
}

func TestDescribe(t *testing.T) {
	info, err := Describe("embed")
	require.NoError(t, err)

	assert.Equal(t, "embed", info.Name)
	assert.Equal(t, "Embed", info.GoName)
	assert.Equal(t, []string{"sequential"}, info.Flags)
	assert.False(t, info.Deprecated)
	assert.Equal(t, []string{"in", "x", "y", "width", "height"}, argumentNames(info.RequiredInputs))
	assert.Equal(t, []string{"extend", "background"}, argumentNames(info.OptionalInputs))
	assert.Equal(t, []string{"out"}, argumentNames(info.RequiredOutputs))
	assert.Empty(t, info.OptionalOutputs)

	extend := info.OptionalInputs[0]
	assert.Equal(t, "VipsExtend", extend.Type)
	assert.Contains(t, extend.Enum, "background")
	assert.Equal(t, "VipsArrayDouble", info.OptionalInputs[1].Type)

	data, err := yaml.Marshal(info)
	require.NoError(t, err)
	assert.Contains(t, string(data), "name: embed")
	assert.Contains(t, string(data), "go_name: Embed")

	var decoded OperationInfo
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, info.RequiredInputs, decoded.RequiredInputs)
}

func TestDescribeOptionalOutputsAndDeprecation(t *testing.T) {
	info, err := Describe("min")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y", "out_array", "x_array", "y_array"}, argumentNames(info.OptionalOutputs))
	assert.Equal(t, "outArray", info.OptionalOutputs[2].GoName)

	info, err = Describe("crop")
	require.NoError(t, err)
	assert.True(t, info.Deprecated)
	assert.Contains(t, info.Flags, "deprecated")

	info, err = Describe("copy")
	require.NoError(t, err)
	require.NotEmpty(t, info.OptionalInputs)
	assert.Equal(t, "swap", info.OptionalInputs[0].Name)
	assert.True(t, info.OptionalInputs[0].Deprecated)

	info, err = Describe("draw_rect")
	require.NoError(t, err)
	assert.Contains(t, info.Flags, "nocache")
	assert.True(t, info.RequiredInputs[0].Modify)

	_, err = Describe("nope")
	var lookup *LookupError
	assert.ErrorAs(t, err, &lookup)
}

func TestFormatGoNames(t *testing.T) {
	assert.Equal(t, "ExtractArea", formatGoFunctionName("extract_area"))
	assert.Equal(t, "Black", formatGoFunctionName("black"))
	assert.Equal(t, "outArray", formatGoIdentifier("out_array"))
	assert.Equal(t, "unpackComplex", formatGoIdentifier("unpack-complex"))
	assert.Equal(t, "type_", formatGoIdentifier("type"))
	assert.Equal(t, "in", formatGoIdentifier("in"))
}
