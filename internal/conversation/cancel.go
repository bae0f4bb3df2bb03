// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"sync"
)

// cancelGuard holds the cancel function of the in-flight request with
// mutex protection, since it is touched from both the caller and the
// streaming goroutine. Always used as a pointer so the mutex is never
// copied.
type cancelGuard struct {
	mu         sync.Mutex
	cancelFunc context.CancelFunc
}

func newCancelGuard() *cancelGuard {
	return &cancelGuard{}
}

// set stores the cancel function for a new request, cancelling any
// previous one first so contexts never leak.
func (cg *cancelGuard) set(fn context.CancelFunc) {
	cg.mu.Lock()
	defer cg.mu.Unlock()
	if cg.cancelFunc != nil {
		cg.cancelFunc()
	}
	cg.cancelFunc = fn
}

// cancel invokes the stored cancel function and clears it. Safe to
// call multiple times or with nothing in flight.
func (cg *cancelGuard) cancel() {
	cg.mu.Lock()
	defer cg.mu.Unlock()
	if cg.cancelFunc != nil {
		cg.cancelFunc()
		cg.cancelFunc = nil
	}
}
