package container

import (
	"github.com/hupe1980/jobmem"
)

// checkIndex validates i against capacity first and the window [lo, hi] second.
func checkIndex(op string, i, lo, hi, capacity int) error {
	if i < 0 || i >= capacity {
		return jobmem.IndexError(op, jobmem.OutOfCapacity, i, lo, hi, capacity)
	}
	if i < lo || i > hi {
		return jobmem.IndexError(op, jobmem.RangeRestricted, i, lo, hi, capacity)
	}
	return nil
}

// wrap re-labels a token error with the container operation that hit it.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if k, ok := jobmem.KindOf(err); ok {
		return jobmem.Errorf(op, k, err)
	}
	return err
}
