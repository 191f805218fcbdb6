// Package callscope wires the call-trace engine to its report emitters and
// provides a ready-to-use default session, so a program can be traced with
// three calls:
//
//	callscope.ConfigureOutput(callscope.OutputText, "trace.txt")
//	callscope.Start()
//	defer callscope.End()
//
// Programs that need more control create their own session with NewSession
// and keep a reference to it.
package callscope

import (
	"github.com/tracekit/callscope/calltrace"
	"github.com/tracekit/callscope/recording"
	"github.com/tracekit/callscope/render"
)

// Output modes, re-exported for convenience.
const (
	OutputText        = calltrace.OutputText
	OutputInteractive = calltrace.OutputInteractive
	OutputDatabase    = calltrace.OutputDatabase
)

// NewSession creates a session for the given domain with the text, HTML, and
// database emitters wired in.
func NewSession(domain calltrace.NamedHookable) *calltrace.Session {
	return calltrace.NewSession(domain).
		WithEmitter(calltrace.OutputText, render.NewTextRenderer()).
		WithEmitter(calltrace.OutputInteractive, render.NewHTMLRenderer()).
		WithEmitter(calltrace.OutputDatabase, recording.NewFrameRecorder())
}

var (
	defaultDomain  = calltrace.NewDomain("callscope")
	defaultSession = NewSession(defaultDomain)
)

// Domain returns the default domain instrumented call sites report to.
func Domain() *calltrace.Domain {
	return defaultDomain
}

// Session returns the default session.
func Session() *calltrace.Session {
	return defaultSession
}

// ConfigureOutput sets where and how the default session's next End flush
// writes.
func ConfigureOutput(mode calltrace.OutputMode, target string) {
	defaultSession.ConfigureOutput(mode, target)
}

// Start begins the default session.
func Start() error {
	return defaultSession.Start()
}

// End closes the default session and flushes its report.
func End() error {
	return defaultSession.End()
}

// Val builds an Arg with an eagerly captured value representation.
func Val(name string, value interface{}) calltrace.Arg {
	return calltrace.Val(name, value)
}

// Trace instruments one invocation against the default domain.
func Trace(
	callableID string,
	name string,
	args ...calltrace.Arg,
) func(ret interface{}) {
	return calltrace.Trace(defaultDomain, callableID, name, args...)
}
