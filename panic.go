package main

import (
	"fmt"
	"runtime/debug"
)

// handlePanic converts a panic in the calling function into an error. It must be
// deferred directly.
func handlePanic(err *error) {
	if r := recover(); r != nil {
		errorf("%s", debug.Stack())
		*err = fmt.Errorf("panic: %v", r)
	}
}
