package jobmem_test

import (
	"errors"
	"fmt"
	"log"

	"github.com/hupe1980/jobmem"
	"github.com/hupe1980/jobmem/alloc"
	"github.com/hupe1980/jobmem/container"
	"github.com/hupe1980/jobmem/job"
)

// Example_accumulator sums values from parallel workers without contention.
func Example_accumulator() {
	p := alloc.NewProvider()
	pool := job.NewPool(4)

	sum, err := container.NewValue[int64](p, pool.Workers(), container.Sum[int64]{}, alloc.TaskScoped)
	if err != nil {
		log.Fatal(err)
	}
	w, err := sum.AsParallelWriter()
	if err != nil {
		log.Fatal(err)
	}

	h := pool.ParallelFor(100, 10, func(worker, i int) error {
		return w.CombineWith(worker, int64(i+1))
	})
	if err := h.Complete(); err != nil {
		log.Fatal(err)
	}
	if err := w.Close(); err != nil {
		log.Fatal(err)
	}

	total, err := sum.Load()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(total)

	if err := sum.Dispose(); err != nil {
		log.Fatal(err)
	}
	// Output: 5050
}

// Example_rangeView shows how partition windows reject foreign indices.
func Example_rangeView() {
	p := alloc.NewProvider()

	arr, err := container.NewArray[int](p, 10, alloc.Persistent)
	if err != nil {
		log.Fatal(err)
	}
	views, err := arr.Partition(2)
	if err != nil {
		log.Fatal(err)
	}

	for _, v := range views {
		fmt.Printf("[%d, %d]\n", v.Min(), v.Max())
	}

	err = views[0].Set(7, 1)
	fmt.Println(errors.Is(err, jobmem.ErrRangeRestricted))
	err = views[0].Set(10, 1)
	fmt.Println(errors.Is(err, jobmem.ErrOutOfCapacity))

	for _, v := range views {
		_ = v.Close()
	}
	_ = arr.Dispose()
	// Output:
	// [0, 4]
	// [5, 9]
	// true
	// true
}

// Example_heap pops nodes in priority order.
func Example_heap() {
	p := alloc.NewProvider()

	h, err := container.NewMinHeap[byte, int](p, 8, alloc.Persistent)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = h.Dispose() }()

	_ = h.Push('a', 5)
	_ = h.Push('b', 1)
	_ = h.Push('c', 3)

	for !h.Empty() {
		n, _ := h.Pop()
		fmt.Printf("%c %d\n", n.Value, n.Priority)
	}

	_, err = h.Pop()
	fmt.Println(err)
	// Output:
	// b 1
	// c 3
	// a 5
	// container.MinHeap.Pop: heap empty
}

// Example_deferredDisposal releases memory after the work using it has finished.
func Example_deferredDisposal() {
	p := alloc.NewProvider()
	pool := job.NewPool(2)

	arr, err := container.NewArray[float32](p, 1024, alloc.TaskScoped)
	if err != nil {
		log.Fatal(err)
	}
	views, err := arr.Partition(pool.Workers())
	if err != nil {
		log.Fatal(err)
	}

	// The workers run once start completes, after the array was retired.
	start, begin := job.Func()
	h := pool.ParallelFor(len(views), 1, func(_, i int) error {
		v := views[i]
		for j := v.Min(); j <= v.Max(); j++ {
			if err := v.Set(j, float32(j)); err != nil {
				return err
			}
		}
		return v.Close()
	}, start)

	done, err := arr.DisposeAfter(h)
	if err != nil {
		log.Fatal(err)
	}

	_, err = arr.View(0, 1)
	fmt.Println(errors.Is(err, jobmem.ErrUseAfterRelease))

	begin(nil)
	fmt.Println(h.Complete())
	if err := done.Complete(); err != nil {
		log.Fatal(err)
	}
	fmt.Println(p.Outstanding())
	// Output:
	// true
	// <nil>
	// 0
}
