package calltrace

import "github.com/tracekit/callscope/hooking"

// Hook positions for call lifecycle events
var (
	// HookPosFuncCall is triggered when a callable is entered
	HookPosFuncCall = &hooking.HookPos{Name: "FuncCall"}

	// HookPosFuncReturn is triggered when a callable finishes
	HookPosFuncReturn = &hooking.HookPos{Name: "FuncReturn"}
)
