// Package async has helpers for running functions in goroutines and
// collecting their results.
package async

// Run will run a function in a goroutine, returning its result via a channel.
func Run[T any](f func() T) <-chan T {
	c := make(chan T, 1)
	go func() {
		c <- f()
	}()
	return c
}

// Result carries a value-or-error pair across a channel.
type Result[T any] struct {
	Value T
	Err   error
}

// Parts unpacks the Result into a conventional (value, error) return.
func (r Result[T]) Parts() (T, error) {
	return r.Value, r.Err
}

// RunResult is Run for functions with a (value, error) return.
func RunResult[T any](f func() (T, error)) <-chan Result[T] {
	c := make(chan Result[T], 1)
	go func() {
		value, err := f()
		c <- Result[T]{Value: value, Err: err}
	}()
	return c
}
