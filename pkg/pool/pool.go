package pool

import (
	"io"
	"runtime"
	"sync"
	"sync/atomic"
)

// searchAlone runs f, which may return nil, until count elements are found.
func searchAlone(f func() interface{}, count int) []interface{} {
	results := make([]interface{}, count)
	for i := 0; i < len(results); i++ {
		results[i] = nil
		for ; results[i] == nil; results[i] = f() {
		}
	}
	return results
}

// command tells a latent worker to keep querying a function until it returns
// a non nil result, so long as results are still needed.
type command struct {
	// This counter indicates the number of results that still need to be produced.
	ctr *int64
	f   func() interface{}
	// This is the array where we put results
	results []interface{}
}

// worker starts up a new worker, listening to commands, and producing results.
//
// We need to keep querying f while *ctr > 0. When we find a successful result,
// we decrement *ctr.
func worker(commands <-chan command, ctrChanged chan<- struct{}) {
	for c := range commands {
		for atomic.LoadInt64(c.ctr) > 0 {
			res := c.f()
			if res == nil {
				continue
			}
			i := atomic.AddInt64(c.ctr, -1)
			ctrChanged <- struct{}{}
			if i < 0 {
				break
			}
			c.results[i] = res
		}
	}
}

// Pool represents a pool of workers, used for parallelizing searches.
//
// Functions needing a *Pool will work with a nil receiver, doing the equivalent
// work on the current thread instead.
//
// By creating a pool, you avoid the overhead of spinning up goroutines for
// each new operation.
type Pool struct {
	// The common channel used to send commands to the workers.
	//
	// This effectively makes a work stealing pool.
	commands chan command
	// The channel used to signal a finished task
	ctrChanged chan struct{}
	// This holds the number of workers we've created
	workerCount int
}

// NewPool creates a new pool, with a certain number of workers.
//
// If count <= 0, this will use the number of available CPUs instead.
func NewPool(count int) *Pool {
	var p Pool

	if count <= 0 {
		count = runtime.NumCPU()
	}

	p.commands = make(chan command)
	p.workerCount = count
	p.ctrChanged = make(chan struct{}, count)

	for i := 0; i < count; i++ {
		go worker(p.commands, p.ctrChanged)
	}

	return &p
}

// TearDown cleanly tears down a pool, closing channels, etc.
func (p *Pool) TearDown() {
	close(p.commands)
}

// Search queries the function f, until count successes are found.
//
// f is supposed to try a single candidate, returning nil if that candidate isn't
// successful.
//
// The result will be an array containing the first count successes.
func (p *Pool) Search(count int, f func() interface{}) []interface{} {
	if p == nil {
		return searchAlone(f, count)
	}

	results := make([]interface{}, count)

	ctr := int64(count)
	cmd := command{
		ctr:     &ctr,
		f:       f,
		results: results,
	}
	for i := 0; i < p.workerCount; i++ {
		p.commands <- cmd
	}
	for atomic.LoadInt64(&ctr) > 0 {
		<-p.ctrChanged
	}

	return results
}

// LockedReader wraps an io.Reader to be safe for concurrent reads.
//
// This type implements io.Reader, returning the same output.
//
// This means acquiring a lock whenever a read happens, so be aware of that
// for performance or concurrency reasons.
type LockedReader struct {
	reader io.Reader
	m      sync.Mutex
}

// NewLockedReader creates a LockedReader by wrapping an underlying value.
func NewLockedReader(r io.Reader) *LockedReader {
	// Intentionally not initializing m, since the zero value is ok
	return &LockedReader{reader: r}
}

// Read implements io.Reader for LockedReader.
//
// The behavior is to return the same output as the underlying reader. The difference
// is that it's safe to call this function concurrently.
//
// Naturally, when calling this function concurrently, what value ends up getting
// read is raced, but you won't end up reading the same value twice, or otherwise
// messing up the state of the reader.
func (r *LockedReader) Read(p []byte) (int, error) {
	r.m.Lock()
	defer r.m.Unlock()
	return r.reader.Read(p)
}
