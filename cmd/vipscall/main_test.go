package main

import (
	"bytes"
	"os"
	"testing"

	"github.com/cshum/vipscall/internal/memvips"
	"github.com/cshum/vipscall/vips"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	vips.Startup(&vips.Config{Library: memvips.New()})
	code := m.Run()
	vips.Shutdown()
	os.Exit(code)
}

func TestParseArgument(t *testing.T) {
	tests := []struct {
		typeName string
		enum     []string
		raw      string
		want     any
	}{
		{"gboolean", nil, "true", true},
		{"gint", nil, "12", 12},
		{"gdouble", nil, "0.5", 0.5},
		{"gchararray", nil, "srgb", "srgb"},
		{"VipsBlob", nil, "abc", []byte("abc")},
		{"VipsArrayInt", nil, "1,2 3", []int{1, 2, 3}},
		{"VipsArrayDouble", nil, "1.5,2", []float64{1.5, 2}},
		{"VipsImage", nil, "5", 5.0},
		{"VipsImage", nil, "1,2,3", []float64{1, 2, 3}},
		{"VipsImage", nil, "1,2;3,4", [][]float64{{1, 2}, {3, 4}}},
		{"VipsArrayImage", nil, "1|2,3", []any{1.0, []float64{2, 3}}},
		{"VipsExtend", []string{"black", "copy"}, "copy", "copy"},
		{"VipsForeignKeep", []string{"none", "exif"}, "3", 3},
	}
	for _, tt := range tests {
		t.Run(tt.typeName+"/"+tt.raw, func(t *testing.T) {
			got, err := parseArgument(vips.ArgumentSummary{Name: "arg", Type: tt.typeName, Enum: tt.enum}, tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := parseArgument(vips.ArgumentSummary{Name: "width", Type: "gint"}, "wide")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "argument width (gint)")

	_, err = parseArgument(vips.ArgumentSummary{Name: "m", Type: "VipsArrayDouble"}, "")
	assert.Error(t, err)

	_, err = parseArgument(vips.ArgumentSummary{Name: "o", Type: "VipsObject"}, "x")
	assert.Error(t, err)
}

func TestBuildCall(t *testing.T) {
	info, err := vips.Describe("embed")
	require.NoError(t, err)

	args, options, err := buildCall(info, []string{"1,2;3,4", "extend=white", "1", "1", "4", "4"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []any{[][]float64{{1, 2}, {3, 4}}, 1, 1, 4, 4}, args)
	assert.Equal(t, vips.Options{"extend": "white"}, options)

	_, _, err = buildCall(info, []string{"1,2;3,4", "1"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embed takes 5 arguments (in x y width height), got 2")

	min, err := vips.Describe("min")
	require.NoError(t, err)
	_, options, err = buildCall(min, []string{"1,2;3,4"}, []string{"x", "y"})
	require.NoError(t, err)
	assert.Equal(t, vips.Options{"x": true, "y": true}, options)

	_, _, err = buildCall(min, []string{"1,2;3,4"}, []string{"z"})
	assert.Error(t, err)
}

func TestCallOperation(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, callOperation(&buf, "avg", []string{"1,2;3,6"}, nil, ""))
	assert.Equal(t, "3\n", buf.String())

	buf.Reset()
	require.NoError(t, callOperation(&buf, "black", []string{"4", "3", "bands=3"}, nil, ""))
	assert.Contains(t, buf.String(), "<vips.Image 4x3 uchar, 3 bands")

	buf.Reset()
	require.NoError(t, callOperation(&buf, "min", []string{"5,1;3,4"}, []string{"x", "y"}, ""))
	assert.Contains(t, buf.String(), "- 1\n")
	assert.Contains(t, buf.String(), "x: 1")
	assert.Contains(t, buf.String(), "y: 0")

	assert.Error(t, callOperation(&buf, "no_such_operation", nil, nil, ""))
}

func TestListAndDescribe(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, listOperations(&buf, false))
	assert.Contains(t, buf.String(), "embed\n")
	assert.NotContains(t, buf.String(), "crop\n")

	buf.Reset()
	require.NoError(t, listOperations(&buf, true))
	assert.Contains(t, buf.String(), "crop\n")

	buf.Reset()
	require.NoError(t, describeOperation(&buf, "embed"))
	assert.Contains(t, buf.String(), "name: embed")
	assert.Contains(t, buf.String(), "required_inputs:")
}

func TestReleaseValue(t *testing.T) {
	img, err := vips.NewBlack(2, 2, nil)
	require.NoError(t, err)
	op, err := vips.NewOperation("black")
	require.NoError(t, err)
	obj, err := op.Object()
	require.NoError(t, err)
	op.Close()

	assert.NotEqual(t, "", displayValue(obj))
	releaseValue([]any{img, map[string]any{"object": obj}})
	assert.Zero(t, img.Pointer())
	assert.Zero(t, obj.Pointer())
}

func TestDisplayValue(t *testing.T) {
	assert.Equal(t, "<3 bytes>", displayValue([]byte("abc")))
	assert.Equal(t, []any{1, map[string]any{"x": 2.0}}, displayValue([]any{1, map[string]any{"x": 2.0}}))
	assert.Equal(t, "<vips.Image closed>", displayValue((*vips.Image)(nil)))
}
