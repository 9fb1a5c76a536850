package flow

import "context"

// Flow is an ordered chain of nodes, each consuming the previous node's
// output. Internally every node is erased to Node[any, any] so flows of
// heterogeneous stage types can be linked; callers interact with typed
// helpers (WithNode, Sequence) that preserve type safety at construction
// time.
type Flow struct {
	node      Node[any, any]
	successor *Flow
}

// NewFlow creates an empty flow ready to be extended with Then/WithNode.
func NewFlow() *Flow {
	return &Flow{}
}

// WithNode appends a typed node to the flow. The node's input type must
// match the output type the flow currently produces; this is enforced by
// wrapping in an any-erased adapter.
func WithNode[I any, O any](f *Flow, node Node[I, O]) *Flow {
	erased := OfProcessor(func(ctx context.Context, input any) (any, error) {
		typed, _ := input.(I)
		return node.Run(ctx, typed)
	})
	return f.then(erased)
}

func (f *Flow) then(node Node[any, any]) *Flow {
	if f.node == nil {
		f.node = node
		return f
	}
	tail := f
	for tail.successor != nil {
		tail = tail.successor
	}
	tail.successor = &Flow{node: node}
	return f
}

// Run executes every node in the flow in order, feeding each node's
// output to the next.
func (f *Flow) Run(ctx context.Context, input any) (any, error) {
	current := f
	value := input
	for current != nil && current.node != nil {
		var err error
		value, err = current.node.Run(ctx, value)
		if err != nil {
			return nil, err
		}
		current = current.successor
	}
	return value, nil
}

// Compile wraps the flow itself as a Node[I, O], letting a fully built
// flow be nested inside another flow or passed wherever a Node is
// expected.
func Compile[I any, O any](f *Flow) Node[I, O] {
	return OfProcessor(func(ctx context.Context, input I) (O, error) {
		var zero O
		out, err := f.Run(ctx, input)
		if err != nil {
			return zero, err
		}
		typed, ok := out.(O)
		if !ok {
			return zero, nil
		}
		return typed, nil
	})
}
