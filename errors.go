package jobmem

import (
	"errors"
	"fmt"
)

// Class groups error kinds by the layer that reports them.
type Class uint8

const (
	// AllocationError is reported when a buffer cannot be obtained from a scope.
	AllocationError Class = iota + 1
	// AccessError is reported by a read or write through a container or view.
	AccessError
	// LifecycleError is reported by release and disposal.
	LifecycleError
	// HeapError is reported by heap push/pop.
	HeapError
)

func (c Class) String() string {
	switch c {
	case AllocationError:
		return "allocation"
	case AccessError:
		return "access"
	case LifecycleError:
		return "lifecycle"
	case HeapError:
		return "heap"
	default:
		return fmt.Sprintf("class(%d)", uint8(c))
	}
}

// Kind identifies a single failure condition.
type Kind uint8

const (
	// InvalidScope is an unknown scope, or a scope that forbids the operation.
	InvalidScope Kind = iota + 1
	// InvalidCapacity is a negative capacity or an invalid size argument.
	InvalidCapacity
	// CapacityOverflow is an allocation whose byte size exceeds the limit.
	CapacityOverflow
	// InvalidElementType is an element type holding Go pointers.
	InvalidElementType
	// MemoryLimitExceeded is an allocation rejected by the resource controller.
	MemoryLimitExceeded

	// UseAfterRelease is an access through a released buffer or a stale handle.
	UseAfterRelease
	// ConcurrentAccessViolation is an access that conflicts with outstanding handles or the handle's mode.
	ConcurrentAccessViolation
	// OutOfCapacity is an index outside [0, capacity).
	OutOfCapacity
	// RangeRestricted is an index inside capacity but outside a view's window.
	RangeRestricted
	// InvalidShard is a shard id outside [0, workers).
	InvalidShard

	// DoubleRelease is a second release of a buffer, container or view.
	DoubleRelease
	// StillInUse is a synchronous release with outstanding views.
	StillInUse

	// CapacityExceeded is a push onto a full heap.
	CapacityExceeded
	// HeapEmpty is a pop or peek on an empty heap.
	HeapEmpty
)

var kindNames = [...]string{
	InvalidScope:              "invalid scope",
	InvalidCapacity:           "invalid capacity",
	CapacityOverflow:          "capacity overflow",
	InvalidElementType:        "invalid element type",
	MemoryLimitExceeded:       "memory limit exceeded",
	UseAfterRelease:           "use after release",
	ConcurrentAccessViolation: "concurrent access violation",
	OutOfCapacity:             "index out of capacity",
	RangeRestricted:           "index outside restricted range",
	InvalidShard:              "invalid shard",
	DoubleRelease:             "double release",
	StillInUse:                "still in use",
	CapacityExceeded:          "capacity exceeded",
	HeapEmpty:                 "heap empty",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Class returns the class k belongs to.
func (k Kind) Class() Class {
	switch {
	case k >= InvalidScope && k <= MemoryLimitExceeded:
		return AllocationError
	case k >= UseAfterRelease && k <= InvalidShard:
		return AccessError
	case k == DoubleRelease || k == StillInUse:
		return LifecycleError
	case k == CapacityExceeded || k == HeapEmpty:
		return HeapError
	default:
		return 0
	}
}

var (
	// ErrAllocation matches every allocation error.
	ErrAllocation = errors.New("allocation error")
	// ErrAccess matches every access error.
	ErrAccess = errors.New("access error")
	// ErrLifecycle matches every lifecycle error.
	ErrLifecycle = errors.New("lifecycle error")
	// ErrHeap matches every heap error.
	ErrHeap = errors.New("heap error")

	// ErrInvalidScope is returned for an unknown scope tag, or when the scope forbids the operation.
	ErrInvalidScope = errors.New(InvalidScope.String())
	// ErrInvalidCapacity is returned for a negative capacity or an invalid size argument.
	ErrInvalidCapacity = errors.New(InvalidCapacity.String())
	// ErrCapacityOverflow is returned when capacity * element size exceeds the allocation limit.
	ErrCapacityOverflow = errors.New(CapacityOverflow.String())
	// ErrInvalidElementType is returned when the element type holds Go pointers.
	ErrInvalidElementType = errors.New(InvalidElementType.String())
	// ErrMemoryLimitExceeded is returned when the resource controller rejects an allocation.
	ErrMemoryLimitExceeded = errors.New(MemoryLimitExceeded.String())

	// ErrUseAfterRelease is returned when a released buffer or a stale view is accessed.
	ErrUseAfterRelease = errors.New(UseAfterRelease.String())
	// ErrConcurrentAccess is returned when an access conflicts with the mode the token is held in.
	ErrConcurrentAccess = errors.New(ConcurrentAccessViolation.String())
	// ErrOutOfCapacity is returned for an index outside [0, capacity).
	ErrOutOfCapacity = errors.New(OutOfCapacity.String())
	// ErrRangeRestricted is returned for an index inside capacity but outside the view's window.
	ErrRangeRestricted = errors.New(RangeRestricted.String())
	// ErrInvalidShard is returned for a shard id outside [0, workers).
	ErrInvalidShard = errors.New(InvalidShard.String())

	// ErrDoubleRelease is returned when a buffer or container is released twice.
	ErrDoubleRelease = errors.New(DoubleRelease.String())
	// ErrStillInUse is returned when synchronous disposal finds outstanding views.
	ErrStillInUse = errors.New(StillInUse.String())

	// ErrCapacityExceeded is returned by Push on a full heap.
	ErrCapacityExceeded = errors.New(CapacityExceeded.String())
	// ErrHeapEmpty is returned by Pop on an empty heap.
	ErrHeapEmpty = errors.New(HeapEmpty.String())
)

var kindErrors = map[Kind]error{
	InvalidScope:              ErrInvalidScope,
	InvalidCapacity:           ErrInvalidCapacity,
	CapacityOverflow:          ErrCapacityOverflow,
	InvalidElementType:        ErrInvalidElementType,
	MemoryLimitExceeded:       ErrMemoryLimitExceeded,
	UseAfterRelease:           ErrUseAfterRelease,
	ConcurrentAccessViolation: ErrConcurrentAccess,
	OutOfCapacity:             ErrOutOfCapacity,
	RangeRestricted:           ErrRangeRestricted,
	InvalidShard:              ErrInvalidShard,
	DoubleRelease:             ErrDoubleRelease,
	StillInUse:                ErrStillInUse,
	CapacityExceeded:          ErrCapacityExceeded,
	HeapEmpty:                 ErrHeapEmpty,
}

var classErrors = map[Class]error{
	AllocationError: ErrAllocation,
	AccessError:     ErrAccess,
	LifecycleError:  ErrLifecycle,
	HeapError:       ErrHeap,
}

// Error describes a failed container operation.
//
// It matches both its kind sentinel and its class sentinel with errors.Is.
// The original underlying error (if any) can be accessed via errors.Unwrap.
type Error struct {
	Op   string
	Kind Kind

	// Index context, set for access errors only.
	Index    int
	Min      int
	Max      int
	Capacity int

	Err error
}

func (e *Error) Error() string {
	msg := e.Op + ": " + e.Kind.String()
	switch e.Kind {
	case OutOfCapacity:
		msg = fmt.Sprintf("%s: index %d not in [0, %d)", msg, e.Index, e.Capacity)
	case RangeRestricted:
		msg = fmt.Sprintf("%s: index %d not in [%d, %d]", msg, e.Index, e.Min, e.Max)
	case InvalidShard:
		msg = fmt.Sprintf("%s: shard %d not in [0, %d)", msg, e.Index, e.Capacity)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the kind or class sentinel of e.
func (e *Error) Is(target error) bool {
	if target == kindErrors[e.Kind] {
		return true
	}
	return target == classErrors[e.Kind.Class()]
}

// Errorf returns an *Error of kind k for op, wrapping cause.
func Errorf(op string, k Kind, cause error) error {
	return &Error{Op: op, Kind: k, Err: cause}
}

// IndexError returns an OutOfCapacity or RangeRestricted error with index context.
func IndexError(op string, k Kind, index, lo, hi, capacity int) error {
	return &Error{Op: op, Kind: k, Index: index, Min: lo, Max: hi, Capacity: capacity}
}

// KindOf returns the kind of err if it is, or wraps, an *Error or a kind sentinel.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	for k, sentinel := range kindErrors {
		if errors.Is(err, sentinel) {
			return k, true
		}
	}
	return 0, false
}
