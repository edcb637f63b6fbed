package hub

import (
	"errors"
	"sync"
)

var (
	// ErrViewerClosed is returned by Send after Close.
	ErrViewerClosed = errors.New("viewer closed")
	// ErrViewerBusy is returned when the viewer's queue is full and the
	// payload was dropped.
	ErrViewerBusy = errors.New("viewer queue full")
)

// QueueViewer buffers payloads for a single consumer goroutine. Send never
// blocks: when the queue is full the payload is dropped.
type QueueViewer struct {
	ch   chan []byte
	done chan struct{}
	once sync.Once
}

// NewQueueViewer creates a viewer holding up to size pending payloads.
func NewQueueViewer(size int) *QueueViewer {
	if size < 1 {
		size = 1
	}
	return &QueueViewer{
		ch:   make(chan []byte, size),
		done: make(chan struct{}),
	}
}

func (q *QueueViewer) Send(payload []byte) error {
	select {
	case <-q.done:
		return ErrViewerClosed
	default:
	}
	select {
	case q.ch <- payload:
		return nil
	default:
		return ErrViewerBusy
	}
}

// C yields queued payloads in send order.
func (q *QueueViewer) C() <-chan []byte { return q.ch }

// Done is closed once Close has been called.
func (q *QueueViewer) Done() <-chan struct{} { return q.done }

// Close rejects further sends. It is safe to call more than once.
func (q *QueueViewer) Close() {
	q.once.Do(func() { close(q.done) })
}
