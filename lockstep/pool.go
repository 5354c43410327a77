// Package lockstep provides a fixed-size worker pool whose workers execute
// one bound task each per round, kept in lockstep with a driver via a
// two-phase rendezvous handshake.
package lockstep

import (
	"sync"
	"sync/atomic"
)

// Task is one worker's unit of work, bound once at pool construction and
// executed exactly once per round.
type Task interface {
	Execute()
}

// TaskFunc adapts a plain function to the Task interface.
type TaskFunc func()

func (f TaskFunc) Execute() { f() }

// Pool runs one goroutine per task. A round is started by Trigger, which
// releases every worker exactly once and returns only after every worker has
// finished. The per-worker start channels take the place of the release
// barrier, the shared done channel takes the place of the completion barrier.
type Pool struct {
	workers []*worker
	done    chan struct{}
	quit    chan struct{}
	running atomic.Bool
	wg      sync.WaitGroup
	stop    sync.Once
}

type worker struct {
	start chan struct{}
	task  Task
}

// NewPool starts one worker goroutine per task. The task set is fixed for
// the lifetime of the pool.
func NewPool(tasks []Task) *Pool {
	p := &Pool{
		workers: make([]*worker, len(tasks)),
		// buffered so that workers mid-round never block on completion,
		// even during shutdown
		done: make(chan struct{}, len(tasks)),
		quit: make(chan struct{}),
	}
	p.running.Store(true)
	for i, task := range tasks {
		p.workers[i] = &worker{start: make(chan struct{}), task: task}
		p.wg.Add(1)
		go p.work(p.workers[i])
	}
	return p
}

// Trigger runs exactly one round: every worker's task executes exactly once
// and Trigger returns only after all of them have finished. Calling Trigger
// on a stopped pool is a no-op. Trigger must only be called from a single
// driver goroutine and never concurrently with Stop.
func (p *Pool) Trigger() {
	if !p.running.Load() {
		return
	}
	for _, w := range p.workers {
		w.start <- struct{}{}
	}
	for range p.workers {
		<-p.done
	}
}

// Stop terminates every worker goroutine and waits for them to exit. No task
// executes after Stop clears the running flag. Stop is idempotent and must
// not be called concurrently with Trigger.
func (p *Pool) Stop() {
	p.stop.Do(func() {
		p.running.Store(false)
		close(p.quit)
		p.wg.Wait()
	})
}

func (p *Pool) work(w *worker) {
	defer p.wg.Done()
	for {
		select {
		case <-p.quit:
			return
		case <-w.start:
			// a release can come from shutdown racing a trigger, not
			// only from a real round
			if !p.running.Load() {
				return
			}
			w.task.Execute()
			p.done <- struct{}{}
		}
	}
}
