package volatile

import "sync/atomic"

// Value is a typed atomic cell. Contents are boxed behind a pointer so the
// zero value of T is storable and interface-typed contents do not trip
// sync/atomic's consistent-type requirement.
type Value[T any] struct {
	p atomic.Pointer[T]
}

func NewValue[T any](val T) *Value[T] {
	v := &Value[T]{}
	v.p.Store(&val)
	return v
}

func (v *Value[T]) Load() T {
	return *v.p.Load()
}

func (v *Value[T]) Store(val T) {
	v.p.Store(&val)
}

func (v *Value[T]) Swap(new T) T {
	return *v.p.Swap(&new)
}
