package memvips

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cshum/vipscall/native"
)

type object struct {
	gtype native.GType
	refs  int
	image *image
	op    *operation
}

func (l *Library) newObjectLocked(o *object) native.Pointer {
	p := l.alloc()
	o.refs = 1
	l.objects[p] = o
	return p
}

func (l *Library) objectLocked(p native.Pointer) *object {
	o, ok := l.objects[p]
	if !ok {
		panic(fmt.Sprintf("memvips: use of finalized or unknown object %d", p))
	}
	return o
}

func (l *Library) refLocked(p native.Pointer) {
	l.objectLocked(p).refs++
}

func (l *Library) unrefLocked(p native.Pointer) {
	o := l.objectLocked(p)
	o.refs--
	if o.refs > 0 {
		return
	}
	delete(l.objects, p)
	switch {
	case o.image != nil:
		for _, gv := range o.image.meta {
			l.unsetLocked(gv)
		}
	case o.op != nil:
		l.finalizeOperationLocked(o.op)
	}
}

// ObjectRef takes a reference.
func (l *Library) ObjectRef(p native.Pointer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refLocked(p)
}

// ObjectUnref drops a reference, finalizing the object at zero.
func (l *Library) ObjectUnref(p native.Pointer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.unrefLocked(p)
}

// ObjectRefCount returns 0 for finalized objects.
func (l *Library) ObjectRefCount(p native.Pointer) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if o, ok := l.objects[p]; ok {
		return o.refs
	}
	return 0
}

// ObjectType returns the GType of a live object.
func (l *Library) ObjectType(p native.Pointer) native.GType {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.objectLocked(p).gtype
}

// ObjectDescription returns the class description.
func (l *Library) ObjectDescription(p native.Pointer) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	o := l.objectLocked(p)
	if o.op != nil {
		return o.op.class.description
	}
	return "image class"
}

// canonical maps property names to their stored form.
func canonical(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

// ObjectArguments returns the argument table in priority order, including
// the non-construct VipsObject arguments.
func (l *Library) ObjectArguments(p native.Pointer) []native.Argument {
	l.mu.Lock()
	defer l.mu.Unlock()
	o := l.objectLocked(p)
	args := []native.Argument{
		{Name: "nickname", Type: native.TypeString, Flags: native.ArgumentSetOnce, Priority: -2, Description: "Class nickname"},
		{Name: "description", Type: native.TypeString, Flags: native.ArgumentSetOnce, Priority: -1, Description: "Class description"},
	}
	if o.image != nil {
		for _, prop := range imageProperties {
			args = append(args, native.Argument{
				Name:     prop.name,
				Type:     prop.gtype,
				Flags:    native.ArgumentSetOnce,
				Priority: prop.priority,
			})
		}
		return args
	}
	for _, a := range o.op.class.args {
		args = append(args, native.Argument{
			Name:        a.name,
			Type:        a.gtype,
			Flags:       a.flags,
			Priority:    a.priority,
			Description: a.description,
		})
	}
	return args
}

// ObjectPropertyType returns 0 when the object has no such property.
func (l *Library) ObjectPropertyType(p native.Pointer, name string) native.GType {
	l.mu.Lock()
	defer l.mu.Unlock()
	o := l.objectLocked(p)
	name = canonical(name)
	if name == "nickname" || name == "description" {
		return native.TypeString
	}
	if o.image != nil {
		if prop, ok := findImageProperty(name); ok {
			return prop.gtype
		}
		return native.TypeInvalid
	}
	if a, ok := o.op.class.arg(name); ok {
		return a.gtype
	}
	return native.TypeInvalid
}

// ObjectGetProperty copies the property into v.
func (l *Library) ObjectGetProperty(p native.Pointer, name string, v native.Pointer) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	o := l.objectLocked(p)
	dst := l.valueLocked(v)
	name = canonical(name)
	switch name {
	case "nickname", "description":
		if o.op == nil {
			l.copyValueLocked(dst, &gvalue{gtype: native.TypeString, data: "image"})
			return nil
		}
		s := o.op.class.nickname
		if name == "description" {
			s = o.op.class.description
		}
		l.copyValueLocked(dst, &gvalue{gtype: native.TypeString, data: s})
		return nil
	}
	if o.image != nil {
		prop, ok := findImageProperty(name)
		if !ok {
			return errorf("VipsImage", "no property named '%s'", name)
		}
		src := l.imagePropertyValue(o.image, prop)
		if !l.types.isA(src.gtype, dst.gtype) {
			return errorf("VipsImage", "property '%s' is %s, not %s", name,
				l.types.byID[src.gtype].name, l.types.byID[dst.gtype].name)
		}
		l.copyValueLocked(dst, src)
		return nil
	}
	return l.getArgumentLocked(o.op, name, dst)
}

// ObjectSetProperty copies v into the property.
func (l *Library) ObjectSetProperty(p native.Pointer, name string, v native.Pointer) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	o := l.objectLocked(p)
	src := l.valueLocked(v)
	name = canonical(name)
	if o.image != nil {
		return l.setImagePropertyLocked(o.image, name, src)
	}
	return l.setArgumentLocked(o.op, name, src)
}

// ObjectSetFromString applies "name=value,name=value" to an operation. The
// list may be wrapped in square brackets, a bare name sets a boolean, and
// array values are separated by spaces.
func (l *Library) ObjectSetFromString(p native.Pointer, options string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	o := l.objectLocked(p)
	if o.op == nil {
		return errorf("VipsObject", "options can only be set on operations")
	}
	options = strings.TrimSpace(options)
	options = strings.TrimPrefix(options, "[")
	options = strings.TrimSuffix(options, "]")
	for _, item := range strings.Split(options, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		name, raw, hasValue := strings.Cut(item, "=")
		name = canonical(strings.TrimSpace(name))
		a, ok := o.op.class.arg(name)
		if !ok {
			return errorf(o.op.class.nickname, "no argument '%s'", name)
		}
		if !hasValue {
			if l.types.fundamental(a.gtype) != native.TypeBoolean {
				return errorf(o.op.class.nickname, "argument '%s' needs a value", name)
			}
			raw = "true"
		}
		gv, err := l.parseValueLocked(a.gtype, strings.TrimSpace(raw))
		if err != nil {
			return errorf(o.op.class.nickname, "bad value for '%s': %v", name, err)
		}
		if err := l.setArgumentLocked(o.op, name, gv); err != nil {
			return err
		}
	}
	return nil
}

func (l *Library) parseValueLocked(t native.GType, raw string) (*gvalue, error) {
	gv := &gvalue{gtype: t}
	var err error
	switch fundamental := l.types.fundamental(t); {
	case fundamental == native.TypeBoolean:
		switch strings.ToLower(raw) {
		case "true", "yes", "on", "1":
			gv.data = true
		case "false", "no", "off", "0":
			gv.data = false
		default:
			err = fmt.Errorf("'%s' is not a boolean", raw)
		}
	case fundamental == native.TypeInt:
		gv.data, err = strconv.Atoi(raw)
	case fundamental == native.TypeDouble:
		gv.data, err = strconv.ParseFloat(raw, 64)
	case fundamental == native.TypeString || t == typeRefString:
		gv.data = raw
	case fundamental == native.TypeEnum:
		gv.data, err = l.EnumFromNick(t, raw)
	case fundamental == native.TypeFlags:
		gv.data, err = l.flagsFromString(t, raw)
	case t == typeArrayDouble:
		var values []float64
		for _, f := range splitAny(raw, " ") {
			d, perr := strconv.ParseFloat(f, 64)
			if perr != nil {
				return nil, perr
			}
			values = append(values, d)
		}
		gv.data = values
	case t == typeArrayInt:
		var values []int
		for _, f := range splitAny(raw, " ") {
			i, perr := strconv.Atoi(f)
			if perr != nil {
				return nil, perr
			}
			values = append(values, i)
		}
		gv.data = values
	default:
		err = fmt.Errorf("cannot parse %s from a string", l.types.byID[t].name)
	}
	if err != nil {
		return nil, err
	}
	return gv, nil
}

func splitAny(s, seps string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return strings.ContainsRune(seps, r)
	})
}
