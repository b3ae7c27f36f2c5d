//go:build !jobmem_nochecks

package token

// ChecksEnabled reports whether access checks are compiled in.
const ChecksEnabled = true

// CheckRead fails with UseAfterRelease if the token was released or h is stale,
// and with ConcurrentAccessViolation if h may not read right now.
func (h Handle) CheckRead() error { return h.checkRead() }

// CheckWrite fails with UseAfterRelease if the token was released or h is stale,
// and with ConcurrentAccessViolation if h may not write right now.
func (h Handle) CheckWrite() error { return h.checkWrite() }
