package calltrace

import "github.com/tracekit/callscope/hooking"

// NamedHookable represents something that both has a name and can be hooked.
type NamedHookable interface {
	hooking.Named
	hooking.Hookable
	InvokeHook(hooking.HookCtx)
}

// A Domain is a named hookable scope that instrumented code reports its call
// and return events to. A program typically creates one domain and shares it
// across all traced call sites.
type Domain struct {
	hooking.HookableBase

	name string
}

// NewDomain creates a Domain with the given name.
func NewDomain(name string) *Domain {
	if name == "" {
		panic("domain must have a name")
	}

	return &Domain{name: name}
}

// Name returns the name of the domain.
func (d *Domain) Name() string {
	return d.name
}
