package orchestration

import (
	"sync"
)

const turnEventQueueCapacity = 16

// TurnState is the UI-observable lifecycle state of the current turn.
// IsProcessing and IsComplete are mutually exclusive by construction: both
// are only ever written together, under one lock.
type TurnState struct {
	IsProcessing bool
	IsComplete   bool
	LastError    error
}

type queueItem struct {
	fn  func()
	ack chan struct{}
}

// turnRuntime serializes every turn-state mutation and sink delivery
// through one consumer goroutine, so no caller ever observes a partial
// update and events reach the sink in dispatch order.
type turnRuntime struct {
	queue   chan queueItem
	closeCh chan struct{}
	done    chan struct{}

	startOnce sync.Once
	closeOnce sync.Once

	mu    sync.RWMutex
	state TurnState
}

func newTurnRuntime() *turnRuntime {
	return &turnRuntime{
		queue:   make(chan queueItem, turnEventQueueCapacity),
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (r *turnRuntime) start() {
	r.startOnce.Do(func() {
		go func() {
			defer close(r.done)
			for {
				select {
				case item := <-r.queue:
					r.process(item)
				case <-r.closeCh:
					// Drain whatever was queued before close so waiters
					// are released.
					for {
						select {
						case item := <-r.queue:
							r.process(item)
						default:
							return
						}
					}
				}
			}
		}()
	})
}

func (r *turnRuntime) process(item queueItem) {
	if item.fn != nil {
		item.fn()
	}
	if item.ack != nil {
		close(item.ack)
	}
}

// dispatch queues fn for execution on the consumer goroutine.
func (r *turnRuntime) dispatch(fn func()) {
	select {
	case r.queue <- queueItem{fn: fn}:
	case <-r.closeCh:
	}
}

// dispatchAndWait queues fn and blocks until the consumer has run it.
func (r *turnRuntime) dispatchAndWait(fn func()) {
	ack := make(chan struct{})
	select {
	case r.queue <- queueItem{fn: fn, ack: ack}:
	case <-r.closeCh:
		return
	}

	select {
	case <-ack:
	case <-r.done:
	}
}

func (r *turnRuntime) close() {
	r.closeOnce.Do(func() {
		close(r.closeCh)
	})
}

// begin and settle write both lifecycle fields under one lock, so readers
// never observe processing and complete set at the same time.

func (r *turnRuntime) begin() {
	r.mu.Lock()
	r.state = TurnState{IsProcessing: true}
	r.mu.Unlock()
}

func (r *turnRuntime) settle(err error) {
	r.mu.Lock()
	r.state = TurnState{IsComplete: true, LastError: err}
	r.mu.Unlock()
}

func (r *turnRuntime) Snapshot() TurnState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}
