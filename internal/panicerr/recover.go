package panicerr

// Recover runs f in a new goroutine wrapped in defers that turn any panic
// or runtime.Goexit into a non-nil error return. It is the one boundary
// where a fatal condition raised deep inside the engine (arena exhaustion,
// canary corruption, a user exit) becomes an ordinary error.
func Recover(name string, f func() error) error {
	errch := make(chan error, 1)
	go func() {
		defer close(errch)
		defer recoverExitError(name, errch)
		defer recoverPanicError(name, errch)
		errch <- f()
	}()
	return <-errch
}
