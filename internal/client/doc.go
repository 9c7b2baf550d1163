// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package client implements the sync daemon runtime.
//
// It wires the local store, the profile server adapter, peer notifications
// and the sync services into a single process lifecycle: hydrate, start the
// background workers, run the console (or wait for a signal when headless)
// and persist once more on the way out.
package client
