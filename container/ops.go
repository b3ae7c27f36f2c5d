package container

import (
	"cmp"
)

// Integer is the set of integer element types.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// Float is the set of floating point element types.
type Float interface {
	~float32 | ~float64
}

// Number is the set of numeric element types.
type Number interface {
	Integer | Float
}

// Operator folds values into an accumulator.
//
// Combine must be associative and commutative with Identity as its neutral
// element. Otherwise Value.Load depends on the number of workers and on which
// worker contributed what; this is a caller obligation and is not detected.
type Operator[T any] interface {
	Identity() T
	Combine(a, b T) T
}

// Sum adds values.
type Sum[T Number] struct{}

func (Sum[T]) Identity() T       { return 0 }
func (Sum[T]) Combine(a, b T) T { return a + b }

// Product multiplies values.
type Product[T Number] struct{}

func (Product[T]) Identity() T       { return 1 }
func (Product[T]) Combine(a, b T) T { return a * b }

// MinOf keeps the smallest value. Bound must be the largest value of T
// (for example math.MaxInt64 or math.Inf(1)).
type MinOf[T cmp.Ordered] struct {
	Bound T
}

func (m MinOf[T]) Identity() T       { return m.Bound }
func (MinOf[T]) Combine(a, b T) T { return min(a, b) }

// MaxOf keeps the largest value. Bound must be the smallest value of T.
type MaxOf[T cmp.Ordered] struct {
	Bound T
}

func (m MaxOf[T]) Identity() T       { return m.Bound }
func (MaxOf[T]) Combine(a, b T) T { return max(a, b) }

// Vec3 is a three component float32 vector.
type Vec3 struct {
	X, Y, Z float32
}

// Add returns the component-wise sum of v and o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Scale returns v multiplied by s.
func (v Vec3) Scale(s float32) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Vec3Sum adds vectors component-wise.
type Vec3Sum struct{}

func (Vec3Sum) Identity() Vec3          { return Vec3{} }
func (Vec3Sum) Combine(a, b Vec3) Vec3 { return a.Add(b) }

// Func adapts a function to an Operator.
type Func[T any] struct {
	Zero T
	Fn   func(a, b T) T
}

func (f Func[T]) Identity() T       { return f.Zero }
func (f Func[T]) Combine(a, b T) T { return f.Fn(a, b) }
