// Package token provides access tokens: runtime validators that stand in for
// compile-time aliasing rules on buffers shared between a coordinator and
// concurrently running workers.
//
// # States
//
// A Token is in one of three states:
//
//   - Valid: the owner holds exclusive access through the primary handle
//   - ValidShared: one or more derived (secondary) handles are outstanding;
//     each belongs to a view restricted to a disjoint index range or shard slot
//   - Released: no access succeeds; the transition is one-way
//
// # Generations
//
// Every handle records the token's version (bumped on release) and, for
// secondary handles, the shared epoch (bumped when the last shared handle is
// returned). A handle whose generation no longer matches fails with
// jobmem.ErrUseAfterRelease.
//
// # Checks
//
// Checks are cooperative: code that bypasses them can still corrupt memory.
// Building with the jobmem_nochecks tag compiles CheckRead and CheckWrite to
// no-ops. Lifecycle transitions (release, shared begin/end) are tracked in both
// builds. Access errors are not detected with checks disabled; behavior of a
// program that would have failed a check is then undefined.
package token
