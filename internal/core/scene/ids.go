package scene

import (
	"fmt"
	"reflect"
	"strconv"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
)

// NodeID is a process-unique node identifier.
type NodeID uint64

// ComponentID is a process-unique component identifier. Zero means the component has
// not been handed to a node yet.
type ComponentID uint64

var (
	nextNodeID      atomic.Uint64
	nextComponentID atomic.Uint64
)

func newNodeID() NodeID {
	return NodeID(nextNodeID.Add(1))
}

func newComponentID() ComponentID {
	return ComponentID(nextComponentID.Add(1))
}

// TypeKey is a stable fingerprint of a Go type's fully qualified name. Unlike
// reflect.Type it survives process restarts, so diagnostics and snapshots key on it.
type TypeKey uint64

func (k TypeKey) String() string {
	return fmt.Sprintf("%016x", uint64(k))
}

func (k TypeKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *TypeKey) UnmarshalText(text []byte) error {
	v, err := strconv.ParseUint(string(text), 16, 64)
	if err != nil {
		return fmt.Errorf("type key %q: %w", text, err)
	}
	*k = TypeKey(v)
	return nil
}

// KeyOf returns the TypeKey of t. Pointer types hash as their element type.
func KeyOf(t reflect.Type) TypeKey {
	return TypeKey(xxhash.Sum64String(qualifiedName(t)))
}

// TypeName returns a readable package-qualified name for t.
func TypeName(t reflect.Type) string {
	return qualifiedName(t)
}

func qualifiedName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.PkgPath() == "" || t.Name() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}
