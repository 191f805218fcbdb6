package calltrace

import (
	"github.com/tracekit/callscope/capture"
	"github.com/tracekit/callscope/hooking"
)

// Val builds an Arg with an eagerly captured value representation.
func Val(name string, value interface{}) Arg {
	return Arg{Name: name, Value: capture.Repr(value)}
}

// ValExpanded builds an Arg with a deep representation of the value,
// serialized down to the given depth.
func ValExpanded(name string, value interface{}, depth int) Arg {
	return Arg{Name: name, Value: capture.Expanded(value, depth)}
}

// MethodName returns the display name of a method call in Owner.method form.
func MethodName(owner, method string) string {
	return owner + "." + method
}

// FuncStart notifies the hooks on the domain that a callable has been
// entered. It must be called exactly once per invocation, before the callee
// body runs.
func FuncStart(
	domain NamedHookable,
	callableID string,
	name string,
	args ...Arg,
) {
	if domain.NumHooks() == 0 {
		return
	}

	allRequiredFieldsMustBeNotEmpty(callableID, name)
	domainMustHaveName(domain)

	ev := CallEvent{
		CallableID: callableID,
		Name:       name,
		Args:       args,
		Seq:        NextSeq(),
	}
	domain.InvokeHook(hooking.HookCtx{
		Domain: domain,
		Pos:    HookPosFuncCall,
		Item:   ev,
	})
}

// FuncEnd notifies the hooks on the domain that a callable has finished. The
// return representation is captured here, before the value can mutate.
func FuncEnd(domain NamedHookable, callableID string, ret interface{}) {
	if domain.NumHooks() == 0 {
		return
	}

	if callableID == "" {
		panic("callable ID must not be empty")
	}

	ev := ReturnEvent{
		CallableID: callableID,
		Value:      capture.Repr(ret),
		Seq:        NextSeq(),
	}
	domain.InvokeHook(hooking.HookCtx{
		Domain: domain,
		Pos:    HookPosFuncReturn,
		Item:   ev,
	})
}

// Trace instruments one invocation. It emits the call event immediately and
// returns the function that emits the matching return event:
//
//	done := calltrace.Trace(domain, "add", "add",
//	    calltrace.Val("a", a), calltrace.Val("b", b))
//	sum := a + b
//	done(sum)
func Trace(
	domain NamedHookable,
	callableID string,
	name string,
	args ...Arg,
) func(ret interface{}) {
	FuncStart(domain, callableID, name, args...)

	return func(ret interface{}) {
		FuncEnd(domain, callableID, ret)
	}
}

func allRequiredFieldsMustBeNotEmpty(callableID, name string) {
	if callableID == "" {
		panic("callable ID must not be empty")
	}

	if name == "" {
		panic("name must not be empty")
	}
}

func domainMustHaveName(domain NamedHookable) {
	if domain.Name() == "" {
		panic("domain must have a name")
	}
}
