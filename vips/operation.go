package vips

import (
	"strings"

	"github.com/cshum/vipscall/native"
)

// ArgumentInfo is one construct argument of an operation.
type ArgumentInfo struct {
	Name        string
	Type        native.GType
	Flags       native.ArgumentFlags
	Description string
}

func (a ArgumentInfo) IsInput() bool    { return a.Flags.Has(native.ArgumentInput) }
func (a ArgumentInfo) IsOutput() bool   { return a.Flags.Has(native.ArgumentOutput) }
func (a ArgumentInfo) Required() bool   { return a.Flags.Has(native.ArgumentRequired) }
func (a ArgumentInfo) Deprecated() bool { return a.Flags.Has(native.ArgumentDeprecated) }
func (a ArgumentInfo) Modify() bool     { return a.Flags.Has(native.ArgumentModify) }

// positional reports whether the argument is taken from the positional list.
func (a ArgumentInfo) positional() bool {
	return a.Required() && a.IsInput() && !a.Deprecated()
}

// Operation is a fresh, unbuilt operation from the catalog.
type Operation struct {
	h    *handle
	name string
}

// NewOperation creates an operation by nickname.
func NewOperation(name string) (*Operation, error) {
	return current().newOperation(name)
}

func (b *binding) newOperation(name string) (*Operation, error) {
	p := b.lib.OperationNew(name)
	if p == 0 {
		return nil, &LookupError{Name: name}
	}
	return &Operation{h: newHandle(b, p), name: name}, nil
}

// Name returns the operation nickname.
func (op *Operation) Name() string {
	return op.name
}

// Close drops the reference.
func (op *Operation) Close() {
	op.h.close()
}

// Object returns a new reference to the operation as a generic object.
func (op *Operation) Object() (*Object, error) {
	h, err := op.h.ref()
	if err != nil {
		return nil, err
	}
	return &Object{h: h}, nil
}

// Flags returns the operation's capability bits.
func (op *Operation) Flags() native.OperationFlags {
	p, err := op.h.pointer()
	if err != nil {
		return native.OperationNone
	}
	return op.h.b.lib.OperationFlags(p)
}

// Deprecated reports whether the operation is deprecated. Bindings should not
// be generated for deprecated operations.
func (op *Operation) Deprecated() bool {
	return op.Flags()&native.OperationDeprecated != 0
}

// Description returns the operation's one-line description.
func (op *Operation) Description() string {
	p, err := op.h.pointer()
	if err != nil {
		return ""
	}
	return op.h.b.lib.ObjectDescription(p)
}

// Arguments lists the construct arguments in priority order, with names
// normalised to use underscores. Walking the argument table is expensive, so
// callers should do it once per operation.
func (op *Operation) Arguments() []ArgumentInfo {
	p, err := op.h.pointer()
	if err != nil {
		return nil
	}
	var args []ArgumentInfo
	for _, a := range op.h.b.lib.ObjectArguments(p) {
		if !a.Flags.Has(native.ArgumentConstruct) {
			continue
		}
		args = append(args, ArgumentInfo{
			Name:        normalizeName(a.Name),
			Type:        a.Type,
			Flags:       a.Flags,
			Description: a.Description,
		})
	}
	return args
}

// Get reads an argument.
func (op *Operation) Get(name string) (any, error) {
	return op.h.getProperty(name)
}

// Set writes an input argument.
func (op *Operation) Set(name string, value any) error {
	return op.h.setProperty(name, value)
}

// SetFromString applies "name=value,name2=value2" to the operation.
func (op *Operation) SetFromString(options string) error {
	return op.h.setFromString(options)
}

// build builds the operation through the operation cache. The result is a
// new reference and may be a different, cached operation.
func (op *Operation) build() (*Operation, error) {
	p, err := op.h.pointer()
	if err != nil {
		return nil, err
	}
	built, err := op.h.b.lib.CacheOperationBuild(p)
	if err != nil {
		return nil, &BuildError{Operation: op.name, Err: err}
	}
	return &Operation{h: newHandle(op.h.b, built), name: op.name}, nil
}

// unrefOutputs drops the operation's hold on its outputs once they have
// been read.
func (op *Operation) unrefOutputs() {
	if p, err := op.h.pointer(); err == nil {
		op.h.b.lib.ObjectUnrefOutputs(p)
	}
}

func normalizeName(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}
