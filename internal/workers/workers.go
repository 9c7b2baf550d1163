// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package workers starts the daemon's background components in order.
package workers

import "context"

// Func adapts a plain function to [Worker].
type Func func(ctx context.Context)

func (f Func) Run(ctx context.Context) { f(ctx) }

type Workers struct {
	workers []Worker
}

func NewWorkers(workers ...Worker) *Workers {
	return &Workers{workers: workers}
}

// Run starts every worker in registration order. Nil workers are skipped,
// so optional components can be listed unconditionally.
func (w *Workers) Run(ctx context.Context) {
	for _, worker := range w.workers {
		if worker == nil {
			continue
		}
		worker.Run(ctx)
	}
}
