// Implements the WaitQueue, which holds the arrival times of customers
// waiting for the server. Customers are enqueued on arrival to a busy server.

package sim

import (
	"fmt"
	"strings"
)

// WaitQueue is a bounded FIFO of arrival timestamps backed by a ring buffer.
// Its length is the number of customers waiting, excluding the one in service.
type WaitQueue struct {
	buf  []float64
	head int // index of the oldest entry
	size int
}

// NewWaitQueue creates an empty queue holding at most capacity entries.
func NewWaitQueue(capacity int) *WaitQueue {
	if capacity <= 0 {
		panic(fmt.Sprintf("NewWaitQueue: capacity must be positive, got %d", capacity))
	}
	return &WaitQueue{buf: make([]float64, capacity)}
}

// Enqueue adds an arrival time at the back of the queue.
// It returns false, leaving the queue unchanged, when the queue is full.
func (wq *WaitQueue) Enqueue(arrival float64) bool {
	if wq.size == len(wq.buf) {
		return false
	}
	wq.buf[(wq.head+wq.size)%len(wq.buf)] = arrival
	wq.size++
	return true
}

// Dequeue removes and returns the oldest arrival time.
// ok is false when the queue is empty.
func (wq *WaitQueue) Dequeue() (arrival float64, ok bool) {
	if wq.size == 0 {
		return 0, false
	}
	arrival = wq.buf[wq.head]
	wq.head = (wq.head + 1) % len(wq.buf)
	wq.size--
	return arrival, true
}

// Peek returns the oldest arrival time without removing it.
func (wq *WaitQueue) Peek() (arrival float64, ok bool) {
	if wq.size == 0 {
		return 0, false
	}
	return wq.buf[wq.head], true
}

// Len returns the number of waiting customers.
func (wq *WaitQueue) Len() int {
	return wq.size
}

// Cap returns the queue capacity.
func (wq *WaitQueue) Cap() int {
	return len(wq.buf)
}

// Items returns a copy of the queue contents, oldest first.
func (wq *WaitQueue) Items() []float64 {
	items := make([]float64, 0, wq.size)
	for i := 0; i < wq.size; i++ {
		items = append(items, wq.buf[(wq.head+i)%len(wq.buf)])
	}
	return items
}

func (wq *WaitQueue) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, val := range wq.Items() {
		sb.WriteString(fmt.Sprint(val))
		if i < wq.size-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}
