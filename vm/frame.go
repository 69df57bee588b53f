package vm

import "swiftscript/compiler"

// CallFrame records everything needed to resume the caller once the active
// body returns (spec §4.6 "CallFrame fields").
type CallFrame struct {
	StackBase     int
	ReturnAddress int
	IP            int
	Code          compiler.Instructions
	LineInfo      []int
	BodyIndex     int
	FunctionName  string
	Closure       *ClosureObj // non-nil if this frame belongs to a closure call
	IsInitializer bool
	IsMutating    bool
	ReceiverIndex int // stack slot holding `self`, valid when IsMutating
	HasReceiver   bool
}
