// Package tasks runs generation and meshing work on a fixed set of worker goroutines.
package tasks

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// Task is a unit of work. It has no result channel; results travel through
// state owned by whoever submitted it.
type Task func()

// Executor is a fixed pool of workers consuming a FIFO queue.
type Executor struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []Task
	head    int
	closed  bool
	workers int
	active  atomic.Int32
	wg      sync.WaitGroup
	log     *slog.Logger
}

// NewExecutor starts workers goroutines. A count below one is raised to one.
func NewExecutor(workers int, logger *slog.Logger) *Executor {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	e := &Executor{
		queue:   make([]Task, 0, 256),
		workers: workers,
		log:     logger,
	}
	e.cond = sync.NewCond(&e.mu)

	for i := range workers {
		e.wg.Add(1)
		go e.worker(i)
	}

	e.log.Debug("task executor started", "workers", workers)
	return e
}

// Submit enqueues t and returns immediately. It reports false once the
// executor has been shut down, in which case t never runs.
func (e *Executor) Submit(t Task) bool {
	if t == nil {
		return false
	}
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return false
	}
	e.queue = append(e.queue, t)
	e.mu.Unlock()
	e.cond.Signal()
	return true
}

// worker pops tasks until shutdown. A panicking task takes the process down
// with it; tasks that can fail must handle it themselves.
func (e *Executor) worker(id int) {
	defer e.wg.Done()

	for {
		e.mu.Lock()
		for !e.closed && e.head == len(e.queue) {
			e.cond.Wait()
		}
		if e.closed {
			e.mu.Unlock()
			return
		}
		t := e.pop()
		e.active.Add(1)
		e.mu.Unlock()

		t()
		e.active.Add(-1)
	}
}

// pop removes the head task. Once more than half the slice has been
// consumed the backlog moves to the front, so a queue that never fully
// drains still reuses its backing array. e.mu must be held.
func (e *Executor) pop() Task {
	t := e.queue[e.head]
	e.queue[e.head] = nil
	e.head++
	switch {
	case e.head == len(e.queue):
		e.queue = e.queue[:0]
		e.head = 0
	case e.head > len(e.queue)/2:
		n := copy(e.queue, e.queue[e.head:])
		clear(e.queue[n:])
		e.queue = e.queue[:n]
		e.head = 0
	}
	return t
}

// Shutdown drops every task that has not started yet and waits for the
// in-flight ones to return. It is safe to call more than once.
func (e *Executor) Shutdown() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		e.wg.Wait()
		return
	}
	e.closed = true
	dropped := len(e.queue) - e.head
	clear(e.queue)
	e.queue = nil
	e.head = 0
	e.mu.Unlock()

	e.cond.Broadcast()
	e.wg.Wait()
	e.log.Debug("task executor stopped", "dropped", dropped)
}

// QueueLength returns the number of tasks waiting for a worker.
func (e *Executor) QueueLength() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue) - e.head
}

// ActiveWorkers returns how many workers are currently running a task.
func (e *Executor) ActiveWorkers() int {
	return int(e.active.Load())
}

// Workers returns the size of the pool.
func (e *Executor) Workers() int {
	return e.workers
}
