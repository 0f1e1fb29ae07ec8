package utils

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"go.viam.com/utils"
)

// SimpleFunc is for RunInParallel.
type SimpleFunc func(ctx context.Context) error

// RunInParallel runs all functions in parallel. The first failure cancels the context handed to
// the others. Panics are converted into errors.
func RunInParallel(ctx context.Context, fs []SimpleFunc) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup

	var bigError error
	var bigErrorMutex sync.Mutex
	storeError := func(err error) {
		bigErrorMutex.Lock()
		defer bigErrorMutex.Unlock()
		if bigError == nil || !errors.Is(err, context.Canceled) {
			bigError = multierr.Combine(bigError, err)
		}
	}

	for _, f := range fs {
		f := f
		wg.Add(1)
		utils.PanicCapturingGo(func() {
			defer wg.Done()
			if err := CallRecovered(ctx, f); err != nil {
				storeError(err)
				cancel()
			}
		})
	}

	wg.Wait()
	return bigError
}

// CallRecovered calls f and converts a panic into an error.
func CallRecovered(ctx context.Context, f SimpleFunc) (err error) {
	defer func() {
		if thePanic := recover(); thePanic != nil {
			err = fmt.Errorf("got panic running background work: %v", thePanic)
		}
	}()
	return f(ctx)
}
