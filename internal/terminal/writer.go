package terminal

import "sync"

// writer delivers a session's input to the backend one chunk at a time,
// in submission order, on its own goroutine.
type writer struct {
	mu     sync.Mutex
	queue  [][]byte
	wake   chan struct{}
	quit   chan struct{}
	closed bool

	send    func(data []byte) error
	onError func(err error)
}

func newWriter(send func([]byte) error, onError func(error)) *writer {
	w := &writer{
		wake:    make(chan struct{}, 1),
		quit:    make(chan struct{}),
		send:    send,
		onError: onError,
	}
	go w.run()
	return w
}

// enqueue adds data to the queue. It never blocks.
func (w *writer) enqueue(data []byte) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.queue = append(w.queue, data)
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// stop drops queued input and ends the goroutine after any write in
// progress.
func (w *writer) stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	w.queue = nil
	close(w.quit)
}

func (w *writer) next() ([]byte, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || len(w.queue) == 0 {
		return nil, false
	}
	data := w.queue[0]
	w.queue[0] = nil
	w.queue = w.queue[1:]
	return data, true
}

func (w *writer) run() {
	for {
		select {
		case <-w.quit:
			return
		case <-w.wake:
		}

		for {
			data, ok := w.next()
			if !ok {
				break
			}
			if err := w.send(data); err != nil && w.onError != nil {
				w.onError(err)
			}
		}
	}
}
