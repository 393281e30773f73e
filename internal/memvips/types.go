package memvips

import (
	"strconv"

	"github.com/cshum/vipscall/native"
)

type typeInfo struct {
	name   string
	parent native.GType
	values []native.EnumValue
}

type typeRegistry struct {
	byID   map[native.GType]*typeInfo
	byName map[string]native.GType
}

// GTypes of the derived types the catalog uses.
const (
	typeVipsObject native.GType = 1024 + iota
	typeVipsImage
	typeVipsOperation
	typeRefString
	typeArrayInt
	typeArrayDouble
	typeArrayImage
	typeBlob
	typeBandFormat
	typeInterpretation
	typeCoding
	typeExtend
	typeDirection
	typeOperationMath
	typeOperationRel
	typeForeignKeep
)

// Band formats.
const (
	formatNotSet    = -1
	formatUchar     = 0
	formatChar      = 1
	formatUshort    = 2
	formatShort     = 3
	formatUint      = 4
	formatInt       = 5
	formatFloat     = 6
	formatComplex   = 7
	formatDouble    = 8
	formatDpComplex = 9
)

// Interpretations.
const (
	interpretationMultiband = 2
	interpretationBW        = 1
	interpretationSRGB      = 22
	interpretationRGB16     = 25
	interpretationGrey16    = 26
	interpretationMatrix    = 27
)

// Extend modes.
const (
	extendBlack      = 0
	extendCopy       = 1
	extendRepeat     = 2
	extendMirror     = 3
	extendWhite      = 4
	extendBackground = 5
)

func newTypeRegistry() *typeRegistry {
	r := &typeRegistry{
		byID:   map[native.GType]*typeInfo{},
		byName: map[string]native.GType{},
	}
	for name, id := range map[string]native.GType{
		"gboolean":   native.TypeBoolean,
		"gint":       native.TypeInt,
		"guint64":    native.TypeUint64,
		"gdouble":    native.TypeDouble,
		"gchararray": native.TypeString,
		"GEnum":      native.TypeEnum,
		"GFlags":     native.TypeFlags,
		"GBoxed":     native.TypeBoxed,
		"GObject":    native.TypeObject,
	} {
		r.byID[id] = &typeInfo{name: name}
		r.byName[name] = id
	}

	r.derive(typeVipsObject, "VipsObject", native.TypeObject, nil)
	r.derive(typeVipsImage, "VipsImage", typeVipsObject, nil)
	r.derive(typeVipsOperation, "VipsOperation", typeVipsObject, nil)
	r.derive(typeRefString, "VipsRefString", native.TypeBoxed, nil)
	r.derive(typeArrayInt, "VipsArrayInt", native.TypeBoxed, nil)
	r.derive(typeArrayDouble, "VipsArrayDouble", native.TypeBoxed, nil)
	r.derive(typeArrayImage, "VipsArrayImage", native.TypeBoxed, nil)
	r.derive(typeBlob, "VipsBlob", native.TypeBoxed, nil)

	r.derive(typeBandFormat, "VipsBandFormat", native.TypeEnum, enumValues("VIPS_FORMAT_",
		-1, "notset", 0, "uchar", 1, "char", 2, "ushort", 3, "short", 4, "uint",
		5, "int", 6, "float", 7, "complex", 8, "double", 9, "dpcomplex"))
	r.derive(typeInterpretation, "VipsInterpretation", native.TypeEnum, enumValues("VIPS_INTERPRETATION_",
		0, "error", 2, "multiband", 1, "b-w", 10, "histogram", 12, "xyz", 13, "lab",
		15, "cmyk", 16, "labq", 17, "rgb", 18, "cmc", 19, "lch", 21, "labs",
		22, "srgb", 23, "yxy", 24, "fourier", 25, "rgb16", 26, "grey16",
		27, "matrix", 28, "scrgb", 29, "hsv"))
	r.derive(typeCoding, "VipsCoding", native.TypeEnum, enumValues("VIPS_CODING_",
		-1, "error", 0, "none", 2, "labq", 6, "rad"))
	r.derive(typeExtend, "VipsExtend", native.TypeEnum, enumValues("VIPS_EXTEND_",
		0, "black", 1, "copy", 2, "repeat", 3, "mirror", 4, "white", 5, "background"))
	r.derive(typeDirection, "VipsDirection", native.TypeEnum, enumValues("VIPS_DIRECTION_",
		0, "horizontal", 1, "vertical"))
	r.derive(typeOperationMath, "VipsOperationMath", native.TypeEnum, enumValues("VIPS_OPERATION_MATH_",
		0, "sin", 1, "cos", 2, "tan", 3, "asin", 4, "acos", 5, "atan", 6, "log",
		7, "log10", 8, "exp", 9, "exp10", 10, "sinh", 11, "cosh", 12, "tanh",
		13, "asinh", 14, "acosh", 15, "atanh"))
	r.derive(typeOperationRel, "VipsOperationRelational", native.TypeEnum, enumValues("VIPS_OPERATION_RELATIONAL_",
		0, "equal", 1, "noteq", 2, "less", 3, "lesseq", 4, "more", 5, "moreeq"))
	r.derive(typeForeignKeep, "VipsForeignKeep", native.TypeFlags, enumValues("VIPS_FOREIGN_KEEP_",
		0, "none", 1, "exif", 2, "xmp", 4, "iptc", 8, "icc", 16, "other", 31, "all"))
	return r
}

// enumValues builds a value table from alternating value, nick pairs.
func enumValues(prefix string, pairs ...any) []native.EnumValue {
	values := make([]native.EnumValue, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		nick := pairs[i+1].(string)
		values = append(values, native.EnumValue{
			Value: pairs[i].(int),
			Name:  prefix + upperName(nick),
			Nick:  nick,
		})
	}
	return values
}

func upperName(nick string) string {
	b := []byte(nick)
	for i, c := range b {
		switch {
		case c == '-':
			b[i] = '_'
		case c >= 'a' && c <= 'z':
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}

func (r *typeRegistry) derive(id native.GType, name string, parent native.GType, values []native.EnumValue) {
	r.byID[id] = &typeInfo{name: name, parent: parent, values: values}
	r.byName[name] = id
}

func (r *typeRegistry) fundamental(t native.GType) native.GType {
	for {
		info, ok := r.byID[t]
		if !ok {
			return native.TypeInvalid
		}
		if info.parent == native.TypeInvalid {
			return t
		}
		t = info.parent
	}
}

func (r *typeRegistry) isA(t, parent native.GType) bool {
	for t != native.TypeInvalid {
		if t == parent {
			return true
		}
		info, ok := r.byID[t]
		if !ok {
			return false
		}
		t = info.parent
	}
	return false
}

// TypeFromName returns 0 for unknown names.
func (l *Library) TypeFromName(name string) native.GType {
	return l.types.byName[name]
}

// TypeName returns "" for unknown types.
func (l *Library) TypeName(t native.GType) string {
	if info, ok := l.types.byID[t]; ok {
		return info.name
	}
	return ""
}

// TypeFundamental walks to the root of t.
func (l *Library) TypeFundamental(t native.GType) native.GType {
	return l.types.fundamental(t)
}

// TypeIsA reports whether t derives from parent.
func (l *Library) TypeIsA(t, parent native.GType) bool {
	return l.types.isA(t, parent)
}

// EnumValues lists the members of an enum or flags type.
func (l *Library) EnumValues(t native.GType) []native.EnumValue {
	info, ok := l.types.byID[t]
	if !ok {
		return nil
	}
	return append([]native.EnumValue(nil), info.values...)
}

// EnumFromNick resolves a nickname, or a name, or a decimal value.
func (l *Library) EnumFromNick(t native.GType, nick string) (int, error) {
	info, ok := l.types.byID[t]
	if !ok || l.types.fundamental(t) != native.TypeEnum {
		return 0, errorf("vips_enum_from_nick", "type %d is not an enum", t)
	}
	for _, v := range info.values {
		if v.Nick == nick || v.Name == nick {
			return v.Value, nil
		}
	}
	if i, err := strconv.Atoi(nick); err == nil {
		for _, v := range info.values {
			if v.Value == i {
				return i, nil
			}
		}
	}
	return 0, errorf(info.name, "enum '%s' has no member '%s'", info.name, nick)
}

// EnumNick returns the nickname of value.
func (l *Library) EnumNick(t native.GType, value int) (string, bool) {
	info, ok := l.types.byID[t]
	if !ok {
		return "", false
	}
	for _, v := range info.values {
		if v.Value == value {
			return v.Nick, true
		}
	}
	return "", false
}

func (l *Library) flagsFromString(t native.GType, s string) (int, error) {
	if i, err := strconv.Atoi(s); err == nil {
		return i, nil
	}
	info := l.types.byID[t]
	result := 0
	for _, part := range splitAny(s, "|:") {
		found := false
		for _, v := range info.values {
			if v.Nick == part || v.Name == part {
				result |= v.Value
				found = true
				break
			}
		}
		if !found {
			return 0, errorf(info.name, "flags '%s' has no member '%s'", info.name, part)
		}
	}
	return result, nil
}
