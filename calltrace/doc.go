// Package calltrace records the function invocations that happen during a
// bounded tracing session and reconstructs their call hierarchy.
//
// Instrumented code reports call and return events to a Domain through the
// hooking infrastructure. While a Session is active, it subscribes to the
// domain and feeds the events to a TreeBuilder, which maintains the live call
// stack and grows a forest of Frame nodes. Ending the session finalizes the
// forest and flushes it to the configured report emitter.
//
// # Instrumentation
//
// Call sites are wrapped explicitly:
//
//	domain := calltrace.NewDomain("app")
//
//	func fact(n int) int {
//	    done := calltrace.Trace(domain, "fact", "fact",
//	        calltrace.Val("n", n))
//	    result := 1
//	    if n > 1 {
//	        result = n * fact(n-1)
//	    }
//	    done(result)
//	    return result
//	}
//
// Argument and return representations are captured eagerly when the event is
// emitted, so later mutation of the values cannot corrupt recorded frames.
//
// # Sessions
//
// At most one Session may be active at a time process-wide. Start is
// idempotent while the session is active; End finalizes open frames, flushes
// the report, and resets the session so a new one can start.
//
// Events must be applied one at a time. Programs that trace calls from
// multiple goroutines are serialized through the builder's lock, but the
// resulting interleaving across the shared call stack is undefined and
// unsupported.
package calltrace
