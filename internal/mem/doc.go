// Package mem provides memory allocation utilities.
//
// # Aligned Allocation
//
// Provides cache-line aligned allocation so that independently written cells
// never share a cache line (false-sharing avoidance).
package mem
