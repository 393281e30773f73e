//go:build vipscgo

// Package cvips implements native.Library over libvips with cgo.
package cvips

// #cgo pkg-config: vips
// #include <stdlib.h>
// #include <string.h>
// #include <vips/vips.h>
//
// typedef struct {
// 	const char *name;
// 	GType type;
// 	int flags;
// 	int priority;
// 	const char *blurb;
// } ArgInfo;
//
// static GType type_fundamental(GType t) { return G_TYPE_FUNDAMENTAL(t); }
// static GType object_type(GObject *o) { return G_OBJECT_TYPE(o); }
// static int object_ref_count(GObject *o) { return (int) o->ref_count; }
// static const char *object_description(VipsObject *o) {
// 	return VIPS_OBJECT_GET_CLASS(o)->description;
// }
//
// static GValue *value_new(GType t) {
// 	GValue *v = g_malloc0(sizeof(GValue));
// 	g_value_init(v, t);
// 	return v;
// }
//
// static void value_free(GValue *v) {
// 	g_value_unset(v);
// 	g_free(v);
// }
//
// static void set_blob(GValue *v, const void *data, size_t n) {
// 	void *copy = g_malloc(n ? n : 1);
// 	if (n) memcpy(copy, data, n);
// 	vips_value_set_blob_free(v, copy, n);
// }
//
// static void set_array_image(GValue *v, VipsImage **images, int n) {
// 	vips_value_set_array_image(v, n);
// 	VipsImage **array = vips_value_get_array_image(v, NULL);
// 	for (int i = 0; i < n; i++) {
// 		g_object_ref(images[i]);
// 		array[i] = images[i];
// 	}
// }
//
// static GType property_type(GObject *o, const char *name) {
// 	GParamSpec *pspec = g_object_class_find_property(G_OBJECT_GET_CLASS(o), name);
// 	return pspec ? G_PARAM_SPEC_VALUE_TYPE(pspec) : 0;
// }
//
// static int object_args(VipsObject *o, ArgInfo **out) {
// 	const char **names;
// 	int *flags;
// 	int n;
// 	if (vips_object_get_args(o, &names, &flags, &n))
// 		return -1;
// 	ArgInfo *info = g_new0(ArgInfo, n);
// 	for (int i = 0; i < n; i++) {
// 		GParamSpec *pspec;
// 		VipsArgumentClass *ac;
// 		VipsArgumentInstance *ai;
// 		info[i].name = names[i];
// 		info[i].flags = flags[i];
// 		if (!vips_object_get_argument(o, names[i], &pspec, &ac, &ai)) {
// 			info[i].type = G_PARAM_SPEC_VALUE_TYPE(pspec);
// 			info[i].priority = ac->priority;
// 			info[i].blurb = g_param_spec_get_blurb(pspec);
// 		}
// 	}
// 	g_free(names);
// 	g_free(flags);
// 	*out = info;
// 	return n;
// }
//
// static void *collect_nickname(GType type, void *a) {
// 	if (!G_TYPE_IS_ABSTRACT(type)) {
// 		const char *nick = vips_nickname_find(type);
// 		if (nick)
// 			g_ptr_array_add((GPtrArray *) a, (gpointer) nick);
// 	}
// 	return NULL;
// }
//
// static GPtrArray *operation_names(void) {
// 	GPtrArray *names = g_ptr_array_new();
// 	vips_type_map_all(g_type_from_name("VipsOperation"), collect_nickname, names);
// 	return names;
// }
//
// static void *count_object(VipsObject *o, void *a, void *b) {
// 	*((int *) a) += 1;
// 	return NULL;
// }
//
// static int object_count(void) {
// 	int n = 0;
// 	vips_object_map((VipsSListMap2Fn) count_object, &n, NULL);
// 	return n;
// }
//
// static int image_get(VipsImage *img, const char *name, GValue *dst) {
// 	GValue tmp = G_VALUE_INIT;
// 	if (vips_image_get(img, name, &tmp))
// 		return -1;
// 	gboolean ok = g_value_transform(&tmp, dst);
// 	g_value_unset(&tmp);
// 	return ok ? 0 : -1;
// }
import "C"

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"unsafe"

	"github.com/cshum/vipscall/native"
)

var cStrings sync.Map

// cachedCString returns a C copy of str that lives for the process.
func cachedCString(str string) *C.char {
	if cstr, ok := cStrings.Load(str); ok {
		return cstr.(*C.char)
	}
	cstr := C.CString(str)
	actual, loaded := cStrings.LoadOrStore(str, cstr)
	if loaded {
		C.free(unsafe.Pointer(cstr))
	}
	return actual.(*C.char)
}

// vipsError drains the libvips error buffer.
func vipsError(domain string) error {
	msg := strings.TrimSpace(C.GoString(C.vips_error_buffer()))
	C.vips_error_clear()
	if msg == "" {
		msg = "unknown error"
	}
	return fmt.Errorf("%s: %s", domain, msg)
}

func gvalue(v native.Pointer) *C.GValue       { return (*C.GValue)(unsafe.Pointer(v)) }
func gobject(p native.Pointer) *C.GObject     { return (*C.GObject)(unsafe.Pointer(p)) }
func vobject(p native.Pointer) *C.VipsObject  { return (*C.VipsObject)(unsafe.Pointer(p)) }
func vimage(p native.Pointer) *C.VipsImage    { return (*C.VipsImage)(unsafe.Pointer(p)) }
func voperation(p native.Pointer) *C.VipsOperation {
	return (*C.VipsOperation)(unsafe.Pointer(p))
}

func ptr[T any](p *T) native.Pointer {
	return native.Pointer(unsafe.Pointer(p))
}

// Library is libvips.
type Library struct{}

var (
	initOnce sync.Once
	initErr  error
)

// New initialises libvips once per process.
func New() (*Library, error) {
	initOnce.Do(func() {
		if C.vips_init(cachedCString("vipscall")) != 0 {
			initErr = vipsError("vips_init")
		}
	})
	if initErr != nil {
		return nil, initErr
	}
	return &Library{}, nil
}

func (l *Library) Version() (int, int, int) {
	return int(C.vips_version(0)), int(C.vips_version(1)), int(C.vips_version(2))
}

func (l *Library) ObjectCount() int {
	return int(C.object_count())
}

// Shutdown drops the operation cache. libvips itself stays initialised
// because it cannot be started again in the same process.
func (l *Library) Shutdown() {
	C.vips_cache_drop_all()
}

func (l *Library) TypeFromName(name string) native.GType {
	return native.GType(C.g_type_from_name(cachedCString(name)))
}

func (l *Library) TypeName(t native.GType) string {
	if t == native.TypeInvalid {
		return ""
	}
	return C.GoString(C.g_type_name(C.GType(t)))
}

func (l *Library) TypeFundamental(t native.GType) native.GType {
	return native.GType(C.type_fundamental(C.GType(t)))
}

func (l *Library) TypeIsA(t, parent native.GType) bool {
	return C.g_type_is_a(C.GType(t), C.GType(parent)) != 0
}

func (l *Library) EnumValues(t native.GType) []native.EnumValue {
	switch l.TypeFundamental(t) {
	case native.TypeEnum:
		cls := (*C.GEnumClass)(C.g_type_class_ref(C.GType(t)))
		defer C.g_type_class_unref(C.gpointer(cls))
		values := unsafe.Slice(cls.values, int(cls.n_values))
		out := make([]native.EnumValue, len(values))
		for i, v := range values {
			out[i] = native.EnumValue{
				Value: int(v.value),
				Name:  C.GoString(v.value_name),
				Nick:  C.GoString(v.value_nick),
			}
		}
		return out
	case native.TypeFlags:
		cls := (*C.GFlagsClass)(C.g_type_class_ref(C.GType(t)))
		defer C.g_type_class_unref(C.gpointer(cls))
		values := unsafe.Slice(cls.values, int(cls.n_values))
		out := make([]native.EnumValue, len(values))
		for i, v := range values {
			out[i] = native.EnumValue{
				Value: int(v.value),
				Name:  C.GoString(v.value_name),
				Nick:  C.GoString(v.value_nick),
			}
		}
		return out
	}
	return nil
}

func (l *Library) EnumFromNick(t native.GType, nick string) (int, error) {
	if l.TypeFundamental(t) != native.TypeEnum {
		return 0, fmt.Errorf("%s is not an enum", l.TypeName(t))
	}
	values := l.EnumValues(t)
	for _, v := range values {
		if v.Nick == nick || v.Name == nick {
			return v.Value, nil
		}
	}
	if i, err := strconv.Atoi(nick); err == nil {
		for _, v := range values {
			if v.Value == i {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("enum '%s' has no member '%s'", l.TypeName(t), nick)
}

func (l *Library) EnumNick(t native.GType, value int) (string, bool) {
	for _, v := range l.EnumValues(t) {
		if v.Value == value {
			return v.Nick, true
		}
	}
	return "", false
}

func (l *Library) ValueNew(t native.GType) native.Pointer {
	return ptr(C.value_new(C.GType(t)))
}

func (l *Library) ValueFree(v native.Pointer) { C.value_free(gvalue(v)) }

func (l *Library) ValueType(v native.Pointer) native.GType {
	return native.GType(gvalue(v).g_type)
}

func (l *Library) ValueSetBoolean(v native.Pointer, b bool) {
	var cb C.gboolean
	if b {
		cb = 1
	}
	C.g_value_set_boolean(gvalue(v), cb)
}

func (l *Library) ValueGetBoolean(v native.Pointer) bool {
	return C.g_value_get_boolean(gvalue(v)) != 0
}

func (l *Library) ValueSetInt(v native.Pointer, i int) { C.g_value_set_int(gvalue(v), C.gint(i)) }

func (l *Library) ValueGetInt(v native.Pointer) int { return int(C.g_value_get_int(gvalue(v))) }

func (l *Library) ValueSetDouble(v native.Pointer, d float64) {
	C.g_value_set_double(gvalue(v), C.gdouble(d))
}

func (l *Library) ValueGetDouble(v native.Pointer) float64 {
	return float64(C.g_value_get_double(gvalue(v)))
}

func (l *Library) ValueSetString(v native.Pointer, s string) {
	cs := C.CString(s)
	defer C.free(unsafe.Pointer(cs))
	C.g_value_set_string(gvalue(v), cs)
}

func (l *Library) ValueGetString(v native.Pointer) string {
	return C.GoString(C.g_value_get_string(gvalue(v)))
}

func (l *Library) ValueSetRefString(v native.Pointer, s string) {
	cs := C.CString(s)
	defer C.free(unsafe.Pointer(cs))
	C.vips_value_set_ref_string(gvalue(v), cs)
}

func (l *Library) ValueGetRefString(v native.Pointer) string {
	var n C.size_t
	return C.GoString(C.vips_value_get_ref_string(gvalue(v), &n))
}

func (l *Library) ValueSetEnum(v native.Pointer, e int) { C.g_value_set_enum(gvalue(v), C.gint(e)) }

func (l *Library) ValueGetEnum(v native.Pointer) int { return int(C.g_value_get_enum(gvalue(v))) }

func (l *Library) ValueSetFlags(v native.Pointer, f int) {
	C.g_value_set_flags(gvalue(v), C.guint(f))
}

func (l *Library) ValueGetFlags(v native.Pointer) int { return int(C.g_value_get_flags(gvalue(v))) }

func (l *Library) ValueSetObject(v native.Pointer, obj native.Pointer) {
	C.g_value_set_object(gvalue(v), C.gpointer(unsafe.Pointer(obj)))
}

func (l *Library) ValueGetObject(v native.Pointer) native.Pointer {
	return native.Pointer(C.g_value_get_object(gvalue(v)))
}

func (l *Library) ValueSetArrayInt(v native.Pointer, a []int) {
	ca := make([]C.int, len(a))
	for i, x := range a {
		ca[i] = C.int(x)
	}
	var p *C.int
	if len(ca) > 0 {
		p = &ca[0]
	}
	C.vips_value_set_array_int(gvalue(v), p, C.int(len(ca)))
}

func (l *Library) ValueGetArrayInt(v native.Pointer) []int {
	var n C.int
	p := C.vips_value_get_array_int(gvalue(v), &n)
	out := make([]int, int(n))
	for i, x := range unsafe.Slice(p, int(n)) {
		out[i] = int(x)
	}
	return out
}

func (l *Library) ValueSetArrayDouble(v native.Pointer, a []float64) {
	var p *C.double
	if len(a) > 0 {
		p = (*C.double)(unsafe.Pointer(&a[0]))
	}
	C.vips_value_set_array_double(gvalue(v), p, C.int(len(a)))
}

func (l *Library) ValueGetArrayDouble(v native.Pointer) []float64 {
	var n C.int
	p := C.vips_value_get_array_double(gvalue(v), &n)
	out := make([]float64, int(n))
	for i, x := range unsafe.Slice(p, int(n)) {
		out[i] = float64(x)
	}
	return out
}

func (l *Library) ValueSetArrayImage(v native.Pointer, images []native.Pointer) {
	arr := make([]*C.VipsImage, len(images))
	for i, p := range images {
		arr[i] = vimage(p)
	}
	var p **C.VipsImage
	if len(arr) > 0 {
		p = &arr[0]
	}
	C.set_array_image(gvalue(v), p, C.int(len(arr)))
}

func (l *Library) ValueGetArrayImage(v native.Pointer) []native.Pointer {
	var n C.int
	p := C.vips_value_get_array_image(gvalue(v), &n)
	out := make([]native.Pointer, int(n))
	for i, img := range unsafe.Slice(p, int(n)) {
		out[i] = ptr(img)
	}
	return out
}

func (l *Library) ValueSetBlob(v native.Pointer, data []byte) {
	var p unsafe.Pointer
	if len(data) > 0 {
		p = unsafe.Pointer(&data[0])
	}
	C.set_blob(gvalue(v), p, C.size_t(len(data)))
}

func (l *Library) ValueGetBlob(v native.Pointer) []byte {
	var n C.size_t
	p := C.vips_value_get_blob(gvalue(v), &n)
	return C.GoBytes(p, C.int(n))
}

func (l *Library) ObjectRef(obj native.Pointer) { C.g_object_ref(C.gpointer(unsafe.Pointer(obj))) }

func (l *Library) ObjectUnref(obj native.Pointer) {
	C.g_object_unref(C.gpointer(unsafe.Pointer(obj)))
}

func (l *Library) ObjectRefCount(obj native.Pointer) int {
	return int(C.object_ref_count(gobject(obj)))
}

func (l *Library) ObjectType(obj native.Pointer) native.GType {
	return native.GType(C.object_type(gobject(obj)))
}

func (l *Library) ObjectDescription(obj native.Pointer) string {
	return C.GoString(C.object_description(vobject(obj)))
}

func (l *Library) ObjectArguments(obj native.Pointer) []native.Argument {
	var info *C.ArgInfo
	n := int(C.object_args(vobject(obj), &info))
	if n <= 0 {
		C.vips_error_clear()
		return nil
	}
	defer C.g_free(C.gpointer(unsafe.Pointer(info)))
	args := make([]native.Argument, n)
	for i, a := range unsafe.Slice(info, n) {
		args[i] = native.Argument{
			Name:        C.GoString(a.name),
			Type:        native.GType(a._type),
			Flags:       native.ArgumentFlags(a.flags),
			Priority:    int(a.priority),
			Description: C.GoString(a.blurb),
		}
	}
	return args
}

func (l *Library) ObjectPropertyType(obj native.Pointer, name string) native.GType {
	return native.GType(C.property_type(gobject(obj), cachedCString(name)))
}

func (l *Library) ObjectGetProperty(obj native.Pointer, name string, v native.Pointer) error {
	if l.ObjectPropertyType(obj, name) == native.TypeInvalid {
		return fmt.Errorf("%s: no property named '%s'", l.TypeName(l.ObjectType(obj)), name)
	}
	C.g_object_get_property(gobject(obj), cachedCString(name), gvalue(v))
	return nil
}

func (l *Library) ObjectSetProperty(obj native.Pointer, name string, v native.Pointer) error {
	if l.ObjectPropertyType(obj, name) == native.TypeInvalid {
		return fmt.Errorf("%s: no property named '%s'", l.TypeName(l.ObjectType(obj)), name)
	}
	C.g_object_set_property(gobject(obj), cachedCString(name), gvalue(v))
	return nil
}

func (l *Library) ObjectSetFromString(obj native.Pointer, options string) error {
	cs := C.CString(options)
	defer C.free(unsafe.Pointer(cs))
	if C.vips_object_set_from_string(vobject(obj), cs) != 0 {
		return vipsError("vips_object_set_from_string")
	}
	return nil
}

func (l *Library) ObjectUnrefOutputs(obj native.Pointer) {
	C.vips_object_unref_outputs(vobject(obj))
}

func (l *Library) OperationNames() []string {
	arr := C.operation_names()
	defer C.g_ptr_array_free(arr, 1)
	items := unsafe.Slice((*C.gpointer)(unsafe.Pointer(arr.pdata)), int(arr.len))
	seen := make(map[string]bool, len(items))
	names := make([]string, 0, len(items))
	for _, item := range items {
		name := C.GoString((*C.char)(unsafe.Pointer(item)))
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

func (l *Library) OperationNew(name string) native.Pointer {
	op := C.vips_operation_new(cachedCString(name))
	if op == nil {
		C.vips_error_clear()
		return 0
	}
	return ptr(op)
}

func (l *Library) OperationFlags(op native.Pointer) native.OperationFlags {
	return native.OperationFlags(C.vips_operation_get_flags(voperation(op)))
}

func (l *Library) CacheOperationBuild(op native.Pointer) (native.Pointer, error) {
	built := C.vips_cache_operation_build(voperation(op))
	if built == nil {
		return 0, vipsError("vips_cache_operation_build")
	}
	return ptr(built), nil
}

func (l *Library) ImageGetTypeof(img native.Pointer, name string) native.GType {
	return native.GType(C.vips_image_get_typeof(vimage(img), cachedCString(name)))
}

func (l *Library) ImageGet(img native.Pointer, name string, v native.Pointer) error {
	if C.image_get(vimage(img), cachedCString(name), gvalue(v)) != 0 {
		return vipsError("vips_image_get")
	}
	return nil
}

func (l *Library) ImageSet(img native.Pointer, name string, v native.Pointer) {
	C.vips_image_set(vimage(img), cachedCString(name), gvalue(v))
}

func (l *Library) ImageRemove(img native.Pointer, name string) bool {
	return C.vips_image_remove(vimage(img), cachedCString(name)) != 0
}

func (l *Library) ImageFields(img native.Pointer) []string {
	fields := C.vips_image_get_fields(vimage(img))
	defer C.g_strfreev(fields)
	var out []string
	for _, f := range unsafe.Slice(fields, 1<<20) {
		if f == nil {
			break
		}
		out = append(out, C.GoString(f))
	}
	return out
}

func (l *Library) ImageNewMatrixFromArray(width, height int, data []float64) (native.Pointer, error) {
	if len(data) != width*height || len(data) == 0 {
		return 0, errors.New("vips_image_new_matrix_from_array: bad array length")
	}
	img := C.vips_image_new_matrix_from_array(C.int(width), C.int(height),
		(*C.double)(unsafe.Pointer(&data[0])), C.int(len(data)))
	if img == nil {
		return 0, vipsError("vips_image_new_matrix_from_array")
	}
	return ptr(img), nil
}

func (l *Library) ImageNewFromMemory(data []byte, width, height, bands int, format int) (native.Pointer, error) {
	if len(data) == 0 {
		return 0, errors.New("vips_image_new_from_memory: no data")
	}
	img := C.vips_image_new_from_memory_copy(unsafe.Pointer(&data[0]), C.size_t(len(data)),
		C.int(width), C.int(height), C.int(bands), C.VipsBandFormat(format))
	if img == nil {
		return 0, vipsError("vips_image_new_from_memory")
	}
	return ptr(img), nil
}

func (l *Library) ImageWriteToMemory(img native.Pointer) ([]byte, error) {
	var n C.size_t
	p := C.vips_image_write_to_memory(vimage(img), &n)
	if p == nil {
		return nil, vipsError("vips_image_write_to_memory")
	}
	defer C.g_free(C.gpointer(p))
	return C.GoBytes(p, C.int(n)), nil
}

func (l *Library) ImageCopyMemory(img native.Pointer) (native.Pointer, error) {
	out := C.vips_image_copy_memory(vimage(img))
	if out == nil {
		return 0, vipsError("vips_image_copy_memory")
	}
	return ptr(out), nil
}

var _ native.Library = (*Library)(nil)
