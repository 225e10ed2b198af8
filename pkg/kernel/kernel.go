// Package kernel is the compute substrate the terrain core runs on.
// A Device owns a worker pool that executes a program over a 3D range of
// work items; a Kernel is one shared program plus its parameter bindings;
// Buffers are device allocations with explicit, idempotent release.
package kernel

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"
)

// ErrDispatch reports a work item that failed while a kernel was running.
var ErrDispatch = errors.New("kernel dispatch failed")

// DefaultInlineThreshold is the work-item count below which a dispatch
// runs on the calling goroutine instead of the pool.
const DefaultInlineThreshold = 4096

// Range is the extent of a dispatch along each axis.
type Range struct {
	X, Y, Z int
}

// Count returns the number of work items in r.
func (r Range) Count() int {
	if r.X <= 0 || r.Y <= 0 || r.Z <= 0 {
		return 0
	}
	return r.X * r.Y * r.Z
}

// Item converts a linear index into a work-item id, x varying fastest.
func (r Range) Item(i int) Item {
	return Item{X: i % r.X, Y: (i / r.X) % r.Y, Z: i / (r.X * r.Y)}
}

// Cube returns a Range with every side equal to n.
func Cube(n int) Range {
	return Range{n, n, n}
}

// CubeCovering returns the smallest cubic Range holding at least n items.
func CubeCovering(n int) Range {
	if n <= 0 {
		return Range{}
	}
	side := 1
	for side*side*side < n {
		side++
	}
	return Cube(side)
}

// Item identifies one work item within a dispatch.
type Item struct {
	X, Y, Z int
}

// Linear returns the item's index within r, x varying fastest.
func (id Item) Linear(r Range) int {
	return id.X + r.X*(id.Y+r.Y*id.Z)
}

// Option configures a Device.
type Option func(*Device)

// WithWorkers sets the pool size. Values below one select GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(d *Device) { d.workers = n }
}

// WithInlineThreshold sets the dispatch size below which work runs inline.
func WithInlineThreshold(n int) Option {
	return func(d *Device) { d.inline = n }
}

// WithLogger attaches a logger for dispatch tracing.
func WithLogger(l *zap.Logger) Option {
	return func(d *Device) { d.log = l }
}

// Device executes kernel programs on a worker pool and accounts for the
// buffers allocated against it.
type Device struct {
	workers int
	inline  int
	log     *zap.Logger

	pool      pond.Pool
	closeOnce sync.Once
	closed    atomic.Bool

	live       atomic.Int64
	dispatches atomic.Uint64
}

// NewDevice creates a Device and starts its pool.
func NewDevice(opts ...Option) *Device {
	d := &Device{
		inline: DefaultInlineThreshold,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.workers < 1 {
		d.workers = runtime.GOMAXPROCS(0)
	}
	d.pool = pond.NewPool(d.workers)
	return d
}

// Workers returns the pool size.
func (d *Device) Workers() int {
	return d.workers
}

// LiveBuffers returns how many buffers are allocated and not yet released.
func (d *Device) LiveBuffers() int64 {
	return d.live.Load()
}

// Dispatches returns the number of non-empty dispatches run so far.
func (d *Device) Dispatches() uint64 {
	return d.dispatches.Load()
}

// Close waits for running work and stops the pool. It is safe to call
// more than once.
func (d *Device) Close() {
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		d.pool.StopAndWait()
	})
}

// Dispatch runs fn once for every item in r and blocks until all items
// have finished. A panicking item is reported as ErrDispatch and stops
// its chunk; other chunks run to completion. After Close, work runs on the
// calling goroutine.
func (d *Device) Dispatch(name string, r Range, fn func(Item)) error {
	n := r.Count()
	if n == 0 {
		return nil
	}
	d.dispatches.Add(1)
	start := time.Now()

	var err error
	if n < d.inline || d.workers == 1 || d.closed.Load() {
		err = runChunk(r, 0, n, fn)
	} else {
		err = d.fanOut(r, n, fn)
	}

	d.log.Debug("dispatch",
		zap.String("kernel", name),
		zap.Int("x", r.X), zap.Int("y", r.Y), zap.Int("z", r.Z),
		zap.Duration("took", time.Since(start)),
	)
	if err != nil {
		return fmt.Errorf("kernel %s: %w", name, err)
	}
	return nil
}

// fanOut splits the range into contiguous chunks and submits each chunk
// to the pool.
func (d *Device) fanOut(r Range, n int, fn func(Item)) error {
	chunks := d.workers * 4
	size := (n + chunks - 1) / chunks

	var (
		wg       sync.WaitGroup
		errMu    sync.Mutex
		firstErr error
	)
	for lo := 0; lo < n; lo += size {
		hi := min(lo+size, n)
		wg.Add(1)
		d.pool.Submit(func() {
			defer wg.Done()
			if err := runChunk(r, lo, hi, fn); err != nil {
				errMu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				errMu.Unlock()
			}
		})
	}
	wg.Wait()
	return firstErr
}

func runChunk(r Range, lo, hi int, fn func(Item)) (err error) {
	var failed int
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: item %v: %v", ErrDispatch, r.Item(failed), p)
		}
	}()
	for i := lo; i < hi; i++ {
		failed = i
		fn(r.Item(i))
	}
	return nil
}

// Kernel is a compute program shared by every caller of a Device. Its
// parameters are bound and the program dispatched under the kernel's own
// lock, so two callers never interleave bindings.
type Kernel[P any] struct {
	name    string
	dev     *Device
	program func(p *P, id Item)

	mu       sync.Mutex
	params   P
	launches atomic.Uint64
}

// New creates a kernel running program on dev.
func New[P any](dev *Device, name string, program func(p *P, id Item)) *Kernel[P] {
	return &Kernel[P]{name: name, dev: dev, program: program}
}

// Name returns the kernel's name.
func (k *Kernel[P]) Name() string {
	return k.name
}

// Launches returns how many times the kernel has been launched.
func (k *Kernel[P]) Launches() uint64 {
	return k.launches.Load()
}

// Launch binds parameters with bind and dispatches the program over r.
// Bindings are cleared once the dispatch completes.
func (k *Kernel[P]) Launch(r Range, bind func(p *P)) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	bind(&k.params)
	defer func() {
		var zero P
		k.params = zero
	}()

	k.launches.Add(1)
	p := &k.params
	return k.dev.Dispatch(k.name, r, func(id Item) {
		k.program(p, id)
	})
}
