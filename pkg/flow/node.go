package flow

import "context"

// Node is the unit of execution in a flow: something that turns an input
// of type I into an output of type O, or fails.
type Node[I any, O any] interface {
	Run(ctx context.Context, input I) (O, error)
}

// OfProcessor adapts a plain transform function into a Node.
func OfProcessor[I any, O any](fn func(context.Context, I) (O, error)) Node[I, O] {
	return Processor[I, O](fn)
}

// NodeFunc is an adapter allowing ordinary functions to satisfy Node
// without an explicit Processor conversion at the call site.
type NodeFunc[I any, O any] func(context.Context, I) (O, error)

// Run implements Node for NodeFunc.
func (f NodeFunc[I, O]) Run(ctx context.Context, input I) (O, error) {
	return f(ctx, input)
}
