package asyncio

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

var ErrNoReaders = fmt.Errorf("attempting to create an async queue with less than 1 reader")
var ErrBadCapacity = fmt.Errorf("attempting to create an async queue with a capacity less than 1")
var ErrQueueClosed = fmt.Errorf("async queue is closed")
var ErrQueueSaturated = fmt.Errorf("async queue has no free capacity")
var ErrLoadCancelled = fmt.Errorf("load cancelled by queue shutdown")

type readTask struct {
	path  string
	token uint64
}

// Queue runs a pool of reader goroutines that perform submitted file reads
// and deliver their outcomes in completion order. Capacity bounds the number
// of submitted-but-not-yet-consumed operations; within that bound neither
// submission nor delivery ever blocks the readers.
type Queue struct {
	capacity int
	tasks    chan readTask
	outcomes chan Outcome
	signals  chan struct{}
	done     chan struct{}
	pool     *BufferPool
	wg       sync.WaitGroup

	mu       sync.Mutex
	closed   bool
	closing  atomic.Bool
	inflight atomic.Int64
}

func NewQueue(readers, capacity int) (*Queue, error) {
	if readers <= 0 {
		return nil, ErrNoReaders
	}
	if capacity <= 0 {
		return nil, ErrBadCapacity
	}

	q := &Queue{
		capacity: capacity,
		tasks:    make(chan readTask, capacity),
		outcomes: make(chan Outcome, capacity),
		signals:  make(chan struct{}, 1),
		done:     make(chan struct{}),
		pool:     NewBufferPool(),
	}
	q.start(readers)

	return q, nil
}

func (q *Queue) start(readers int) {
	for i := 0; i < readers; i++ {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			for task := range q.tasks {
				if q.closing.Load() {
					q.deliver(Outcome{Token: task.token, Result: ResultCancelled, Err: ErrLoadCancelled})
					continue
				}
				q.deliver(q.read(task))
			}
		}()
	}
}

// deliver never blocks: the in-flight bound keeps the outcome buffer from
// overflowing as long as submissions went through LoadAsync.
func (q *Queue) deliver(out Outcome) {
	select {
	case q.outcomes <- out:
	default:
		if out.Buffer != nil {
			out.Buffer.Release()
		}
	}
}

func (q *Queue) read(task readTask) Outcome {
	f, err := os.Open(task.path)
	if err != nil {
		return Outcome{Token: task.token, Result: ResultFailure, Err: err}
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return Outcome{Token: task.token, Result: ResultFailure, Err: err}
	}

	buf := q.pool.Get(int(fi.Size()))
	if _, err := io.ReadFull(f, buf.Bytes()); err != nil {
		buf.Release()
		return Outcome{Token: task.token, Result: ResultFailure, Err: fmt.Errorf("reading '%s': %w", task.path, err)}
	}
	return Outcome{Token: task.token, Result: ResultComplete, Buffer: buf}
}

// LoadAsync submits an asynchronous read of the file at path. The token is
// carried through unchanged on the resulting outcome. Submission fails
// synchronously when the queue is closed or saturated, or when the path
// does not name a readable file.
func (q *Queue) LoadAsync(path string, token uint64) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}
	if q.inflight.Load() >= int64(q.capacity) {
		return ErrQueueSaturated
	}

	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	if fi.IsDir() {
		return fmt.Errorf("'%s' is a directory", path)
	}

	q.inflight.Add(1)
	q.tasks <- readTask{path: path, token: token}
	return nil
}

// WaitOutcome blocks until an outcome can be consumed and returns it. A
// negative timeout waits indefinitely, zero polls, positive waits up to the
// given duration. The second return is false, with a zero outcome, on
// timeout, on Signal or once the queue is closed.
func (q *Queue) WaitOutcome(timeout time.Duration) (Outcome, bool) {
	if timeout == 0 {
		select {
		case out := <-q.outcomes:
			q.inflight.Add(-1)
			return out, true
		default:
			return Outcome{}, false
		}
	}

	// A nil timer channel never fires, which is exactly the infinite wait.
	var timer <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}

	select {
	case out := <-q.outcomes:
		q.inflight.Add(-1)
		return out, true
	case <-q.signals:
		return Outcome{}, false
	case <-q.done:
		return Outcome{}, false
	case <-timer:
		return Outcome{}, false
	}
}

// Signal wakes a blocked WaitOutcome without delivering an outcome.
func (q *Queue) Signal() {
	select {
	case q.signals <- struct{}{}:
	default:
	}
}

// InFlight returns the number of submitted operations whose outcomes have
// not been consumed yet.
func (q *Queue) InFlight() int {
	return int(q.inflight.Load())
}

/**
 * @brief Shuts the queue down.
 *
 * Not yet started work is turned into cancelled outcomes, the readers are
 * joined and every blocked waiter is woken. Outcomes nobody consumed are
 * drained so their buffers return to the pool. Safe to call more than once.
 */
func (q *Queue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	q.closing.Store(true)
	close(q.tasks)
	q.mu.Unlock()

	q.wg.Wait()
	close(q.done)

	for {
		select {
		case out := <-q.outcomes:
			if out.Buffer != nil {
				out.Buffer.Release()
			}
		default:
			return nil
		}
	}
}
