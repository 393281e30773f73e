package memvips

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cshum/vipscall/native"
)

const (
	requiredInput  = native.ArgumentRequired | native.ArgumentConstruct | native.ArgumentInput
	optionalInput  = native.ArgumentConstruct | native.ArgumentInput
	requiredOutput = native.ArgumentRequired | native.ArgumentConstruct | native.ArgumentOutput
	optionalOutput = native.ArgumentConstruct | native.ArgumentOutput
	modifyInput    = requiredInput | native.ArgumentModify
)

type argSpec struct {
	name        string
	gtype       native.GType
	flags       native.ArgumentFlags
	priority    int
	description string
	// def is the value reported for unassigned inputs.
	def any
}

type opClass struct {
	nickname    string
	description string
	flags       native.OperationFlags
	args        []argSpec
	run         func(c *runContext) error
}

func (c *opClass) arg(name string) (argSpec, bool) {
	for _, a := range c.args {
		if a.name == name {
			return a, true
		}
	}
	return argSpec{}, false
}

type operation struct {
	class   *opClass
	inputs  map[string]*gvalue
	outputs map[string]*gvalue
	// held counts the references to output objects owned by this operation.
	held  int
	built bool
}

func (l *Library) register(c *opClass) {
	sort.SliceStable(c.args, func(i, j int) bool {
		return c.args[i].priority < c.args[j].priority
	})
	l.classes[c.nickname] = c
}

func (l *Library) operationLocked(p native.Pointer) *operation {
	o := l.objectLocked(p)
	if o.op == nil {
		panic("memvips: object is not an operation")
	}
	return o.op
}

// OperationNew returns 0 for unknown nicknames.
func (l *Library) OperationNew(name string) native.Pointer {
	class, ok := l.classes[name]
	if !ok {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.newObjectLocked(&object{
		gtype: typeVipsOperation,
		op: &operation{
			class:   class,
			inputs:  map[string]*gvalue{},
			outputs: map[string]*gvalue{},
		},
	})
}

// OperationFlags returns the class flags.
func (l *Library) OperationFlags(p native.Pointer) native.OperationFlags {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.operationLocked(p).class.flags
}

func (l *Library) finalizeOperationLocked(op *operation) {
	for _, gv := range op.inputs {
		l.unsetLocked(gv)
	}
	for ; op.held > 0; op.held-- {
		l.unrefOutputsOnceLocked(op)
	}
}

func (l *Library) unrefOutputsOnceLocked(op *operation) {
	for _, gv := range op.outputs {
		switch d := gv.data.(type) {
		case native.Pointer:
			if d != 0 {
				l.unrefLocked(d)
			}
		case []native.Pointer:
			for _, p := range d {
				l.unrefLocked(p)
			}
		}
	}
}

func (l *Library) refOutputsLocked(op *operation) {
	for _, gv := range op.outputs {
		switch d := gv.data.(type) {
		case native.Pointer:
			if d != 0 {
				l.refLocked(d)
			}
		case []native.Pointer:
			for _, p := range d {
				l.refLocked(p)
			}
		}
	}
}

// ObjectUnrefOutputs drops the operation's references to its output objects.
// The outputs stay readable as pointers.
func (l *Library) ObjectUnrefOutputs(p native.Pointer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	op := l.operationLocked(p)
	if op.held > 0 {
		l.unrefOutputsOnceLocked(op)
		op.held--
	}
}

func (l *Library) getArgumentLocked(op *operation, name string, dst *gvalue) error {
	a, ok := op.class.arg(name)
	if !ok {
		return errorf(op.class.nickname, "no argument '%s'", name)
	}
	if !l.types.isA(a.gtype, dst.gtype) {
		return errorf(op.class.nickname, "argument '%s' is %s, not %s", name,
			l.types.byID[a.gtype].name, l.types.byID[dst.gtype].name)
	}
	if gv, ok := op.inputs[name]; ok {
		l.copyValueLocked(dst, gv)
		return nil
	}
	if gv, ok := op.outputs[name]; ok {
		l.copyValueLocked(dst, gv)
		return nil
	}
	l.copyValueLocked(dst, &gvalue{gtype: a.gtype, data: a.def})
	return nil
}

func (l *Library) setArgumentLocked(op *operation, name string, src *gvalue) error {
	a, ok := op.class.arg(name)
	if !ok {
		return errorf(op.class.nickname, "no argument '%s'", name)
	}
	if op.built {
		return errorf(op.class.nickname, "can't set '%s' on a built operation", name)
	}
	if a.flags&native.ArgumentInput == 0 {
		return errorf(op.class.nickname, "argument '%s' is an output", name)
	}
	if !l.types.isA(src.gtype, a.gtype) {
		return errorf(op.class.nickname, "argument '%s' needs %s, not %s", name,
			l.types.byID[a.gtype].name, l.types.byID[src.gtype].name)
	}
	if old, ok := op.inputs[name]; ok {
		l.unsetLocked(old)
	}
	op.inputs[name] = l.cloneValueLocked(src)
	return nil
}

func (l *Library) cacheKeyLocked(op *operation) string {
	var b strings.Builder
	b.WriteString(op.class.nickname)
	for _, a := range op.class.args {
		gv, ok := op.inputs[a.name]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, " %s=%v", a.name, gv.data)
	}
	return b.String()
}

func (c *opClass) cacheable() bool {
	if c.flags&native.OperationNoCache != 0 {
		return false
	}
	for _, a := range c.args {
		if a.flags&native.ArgumentModify != 0 {
			return false
		}
	}
	return true
}

// CacheOperationBuild builds op or returns a cached equivalent operation.
// Either way the result carries a new reference and owns one reference to
// each of its outputs.
func (l *Library) CacheOperationBuild(p native.Pointer) (native.Pointer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	op := l.operationLocked(p)
	if op.built {
		l.refLocked(p)
		l.refOutputsLocked(op)
		op.held++
		return p, nil
	}
	for _, a := range op.class.args {
		if a.flags&requiredInput == requiredInput {
			if _, ok := op.inputs[a.name]; !ok {
				return 0, errorf(op.class.nickname, "parameter %s not set", a.name)
			}
		}
	}

	cacheable := l.cacheMax > 0 && op.class.cacheable()
	var key string
	if cacheable {
		key = l.cacheKeyLocked(op)
		if hit, ok := l.cache[key]; ok {
			hitOp := l.operationLocked(hit)
			l.refLocked(hit)
			l.refOutputsLocked(hitOp)
			hitOp.held++
			l.touchLocked(key)
			return hit, nil
		}
	}

	op.held = 1
	if err := op.class.run(&runContext{l: l, op: op}); err != nil {
		return 0, err
	}
	for _, a := range op.class.args {
		if a.flags&requiredOutput == requiredOutput {
			if _, ok := op.outputs[a.name]; !ok {
				return 0, errorf(op.class.nickname, "output %s not set", a.name)
			}
		}
	}
	op.built = true
	l.refLocked(p)

	if cacheable {
		l.refLocked(p)
		l.refOutputsLocked(op)
		l.cache[key] = p
		l.cacheLRU = append(l.cacheLRU, key)
		for len(l.cacheLRU) > l.cacheMax {
			l.cacheEvictLocked(l.cacheLRU[0])
		}
	}
	return p, nil
}

func (l *Library) touchLocked(key string) {
	for i, k := range l.cacheLRU {
		if k == key {
			l.cacheLRU = append(append(l.cacheLRU[:i:i], l.cacheLRU[i+1:]...), key)
			return
		}
	}
}

func (l *Library) cacheEvictLocked(key string) {
	p, ok := l.cache[key]
	if !ok {
		return
	}
	delete(l.cache, key)
	for i, k := range l.cacheLRU {
		if k == key {
			l.cacheLRU = append(l.cacheLRU[:i:i], l.cacheLRU[i+1:]...)
			break
		}
	}
	l.unrefOutputsOnceLocked(l.operationLocked(p))
	l.unrefLocked(p)
}

func (l *Library) cacheDropAllLocked() {
	for len(l.cacheLRU) > 0 {
		l.cacheEvictLocked(l.cacheLRU[0])
	}
}
