package vips

import (
	"testing"

	"github.com/cshum/vipscall/native"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestValue(t *testing.T, typeName string) *GValue {
	t.Helper()
	gtype := TypeFromName(typeName)
	require.NotZero(t, gtype, "type %s", typeName)
	v := NewGValue()
	require.NoError(t, v.SetType(gtype))
	t.Cleanup(v.Close)
	return v
}

func TestGValueRoundTrip(t *testing.T) {
	tests := []struct {
		typeName string
		in       any
		want     any
	}{
		{"gboolean", true, true},
		{"gboolean", false, false},
		{"gint", -1, -1},
		{"gint", 0, 0},
		{"gint", 2147483647, 2147483647},
		{"gint", int64(-2147483648), -2147483648},
		{"gint", 42, 42},
		{"gint", int64(-7), -7},
		{"gint", uint8(200), 200},
		{"gdouble", 2.5, 2.5},
		{"gdouble", 3, 3.0},
		{"gchararray", "hello", "hello"},
		{"VipsRefString", "ref", "ref"},
		{"VipsBandFormat", "float", "float"},
		{"VipsBandFormat", BandFormatDouble, "double"},
		{"VipsBandFormat", 4, "uint"},
		{"VipsForeignKeep", 9, 9},
		{"VipsForeignKeep", uint32(4294967295), 4294967295},
		{"VipsArrayInt", []int{1, 2, 3}, []int{1, 2, 3}},
		{"VipsArrayInt", []int32{4, 5}, []int{4, 5}},
		{"VipsArrayDouble", []float64{1.5, 2}, []float64{1.5, 2}},
		{"VipsArrayDouble", []float64{1.5, -2.25}, []float64{1.5, -2.25}},
		{"VipsArrayDouble", []int{1, 2}, []float64{1, 2}},
		{"VipsArrayDouble", 7, []float64{7}},
		{"VipsBlob", []byte{0, 1, 2}, []byte{0, 1, 2}},
		{"VipsBlob", "text", []byte("text")},
	}
	for _, tt := range tests {
		t.Run(tt.typeName, func(t *testing.T) {
			v := newTestValue(t, tt.typeName)
			require.NoError(t, v.Set(tt.in))
			got, err := v.Get()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGValueImages(t *testing.T) {
	img := createBlackImage(t, 4, 4, 1)
	defer img.Close()

	t.Run("object", func(t *testing.T) {
		v := newTestValue(t, "VipsImage")
		require.NoError(t, v.Set(img))
		got, err := v.Get()
		require.NoError(t, err)
		out, ok := got.(*Image)
		require.True(t, ok, "got %T", got)
		defer out.Close()
		assert.Equal(t, img.Pointer(), out.Pointer())
		assert.NotSame(t, img, out)
	})

	t.Run("array", func(t *testing.T) {
		other := createBlackImage(t, 2, 2, 1)
		defer other.Close()

		v := newTestValue(t, "VipsArrayImage")
		require.NoError(t, v.Set([]*Image{img, other}))
		got, err := v.Get()
		require.NoError(t, err)
		images, ok := got.([]*Image)
		require.True(t, ok, "got %T", got)
		require.Len(t, images, 2)
		defer closeValues([]any{images})
		assert.Equal(t, 4, images[0].Width())
		assert.Equal(t, 2, images[1].Width())
	})

	t.Run("closed image", func(t *testing.T) {
		closed := createBlackImage(t, 2, 2, 1)
		closed.Close()
		v := newTestValue(t, "VipsImage")
		assert.ErrorIs(t, v.Set(closed), ErrClosed)
	})
}

func TestGValueTypeErrors(t *testing.T) {
	t.Run("wrong kind", func(t *testing.T) {
		v := newTestValue(t, "gboolean")
		err := v.Set(1)
		var mismatch *TypeMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, "gboolean", mismatch.Type)
		assert.Equal(t, "int", mismatch.Value)
	})

	t.Run("boxed names its fundamental", func(t *testing.T) {
		v := newTestValue(t, "VipsArrayInt")
		err := v.Set("1 2 3")
		var mismatch *TypeMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, "VipsArrayInt", mismatch.Type)
		assert.Equal(t, "GBoxed", mismatch.Fundamental)
	})

	t.Run("invalid type", func(t *testing.T) {
		v := NewGValue()
		var mismatch *TypeMismatchError
		assert.ErrorAs(t, v.SetType(native.TypeInvalid), &mismatch)
		assert.ErrorAs(t, v.SetType(native.GType(999999)), &mismatch)
		_, err := v.Get()
		assert.ErrorAs(t, err, &mismatch)
		assert.ErrorAs(t, v.Set(1), &mismatch)
	})

	t.Run("type is fixed once", func(t *testing.T) {
		v := newTestValue(t, "gint")
		assert.Error(t, v.SetType(TypeFromName("gdouble")))
		assert.Equal(t, TypeFromName("gint"), v.Type())
	})

	t.Run("close is idempotent", func(t *testing.T) {
		v := newTestValue(t, "gint")
		v.Close()
		v.Close()
	})
}

func TestGValueIntegerRange(t *testing.T) {
	tests := []struct {
		typeName string
		in       any
	}{
		{"gint", int64(1 << 40)},
		{"gint", int64(2147483648)},
		{"gint", int64(-2147483649)},
		{"gint", uint64(1 << 63)},
		{"gint", uint32(4294967295)},
		{"VipsForeignKeep", -1},
		{"VipsForeignKeep", int64(1 << 32)},
		{"VipsArrayInt", []int64{1, 1 << 40}},
		{"VipsBandFormat", int64(1 << 40)},
	}
	for _, tt := range tests {
		t.Run(tt.typeName, func(t *testing.T) {
			v := newTestValue(t, tt.typeName)
			var mismatch *TypeMismatchError
			require.ErrorAs(t, v.Set(tt.in), &mismatch)
			assert.Equal(t, tt.typeName, mismatch.Type)
		})
	}
}

func TestGValueEnumErrors(t *testing.T) {
	v := newTestValue(t, "VipsBandFormat")

	err := v.Set("bogus")
	var enum *EnumLookupError
	require.ErrorAs(t, err, &enum)
	assert.Equal(t, "VipsBandFormat", enum.Type)
	assert.Equal(t, "bogus", enum.Nick)
	assert.Error(t, enum.Unwrap())

	err = v.Set(42)
	require.ErrorAs(t, err, &enum)
	assert.Equal(t, "42", enum.Nick)

	err = v.Set(2.5)
	var mismatch *TypeMismatchError
	assert.ErrorAs(t, err, &mismatch)
}
