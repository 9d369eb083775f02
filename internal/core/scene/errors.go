package scene

import "errors"

// Usage errors, returned synchronously by the call that broke the rule.
var (
	ErrNilComponent        = errors.New("component is nil")
	ErrNilNode             = errors.New("node is nil")
	ErrDuplicateType       = errors.New("node already holds a component of this type")
	ErrComponentAttached   = errors.New("component already belongs to a node")
	ErrComponentSpent      = errors.New("component was removed from a node and cannot be re-added")
	ErrNotOwner            = errors.New("node does not own the component")
	ErrSelfChild           = errors.New("node cannot be its own child")
	ErrNodeAttached        = errors.New("node already has a parent or is a scene root")
	ErrCycle               = errors.New("node is an ancestor of the new parent")
	ErrNodeDestroyed       = errors.New("node is destroyed")
	ErrProcessorNil        = errors.New("processor is nil")
	ErrProcessorRegistered = errors.New("processor of this type is already registered")
	ErrReentrantUpdate     = errors.New("scene update called from within an update")
)

// ErrUnknownComponent marks a queued transition for a component the manager never
// subscribed to. It is raised as a panic: the queue can only be fed by the lifecycle.
var ErrUnknownComponent = errors.New("transition references an unmanaged component")
