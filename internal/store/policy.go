package store

// Policy decides what happens to a value the store discards on a rejected
// insert, an overwrite, an erase or a clear.
type Policy[V any] interface {
	Release(v V)
}

// ValuePolicy is for payloads held by value; discarding does nothing.
type ValuePolicy[V any] struct{}

func (ValuePolicy[V]) Release(V) {}

// Releaser is implemented by payloads that own resources.
type Releaser interface {
	Release()
}

// OwnedPolicy is for owned handles: every discarded value is released.
type OwnedPolicy[V Releaser] struct{}

func (OwnedPolicy[V]) Release(v V) { v.Release() }

// Blender returns alpha*a + beta*b.
type Blender[V any] func(a V, alpha float64, b V, beta float64) V

type Option[V any] func(*Store[V])

// WithBlender enables linear interpolation along the time axis.
func WithBlender[V any](b Blender[V]) Option[V] {
	return func(s *Store[V]) { s.blend = b }
}

func WithPolicy[V any](p Policy[V]) Option[V] {
	return func(s *Store[V]) {
		if p != nil {
			s.policy = p
		}
	}
}
