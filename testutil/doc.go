// Package testutil provides testing utilities for jobmem.
//
// This package is intended for use in tests and benchmarks only.
//
// # Leak Checks
//
//	p := alloc.NewProvider()
//	testutil.AssertNoLeaks(t, p) // fails the test if buffers are still live at cleanup
//
// # Random Sequences
//
//	rng := testutil.NewRNG(seed)
//	prios := rng.Priorities(100, 1000) // values in [0, 1000)
//	pos := rng.Positions(64, 10)       // float32 triples in [-10, 10)
package testutil
