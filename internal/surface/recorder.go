package surface

import (
	"context"
	"sync"
)

// Recorder is a Navigator and Notifier that remembers what it was asked to
// show, for surfaces that render from a response rather than a callback.
type Recorder struct {
	mu       sync.Mutex
	current  Destination
	resets   int
	messages []string
}

func NewRecorder() *Recorder {
	return &Recorder{current: To(Home)}
}

func (r *Recorder) Present(_ context.Context, dest Destination) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = dest
}

func (r *Recorder) Reset(_ context.Context, dest Destination) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = dest
	r.resets++
}

func (r *Recorder) Current() Destination {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Resets counts forced navigations since the recorder was created.
func (r *Recorder) Resets() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resets
}

func (r *Recorder) Notify(_ context.Context, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

// Drain returns and forgets pending notifications. Notices are shared by the
// whole process, which hosts a single shopper.
func (r *Recorder) Drain() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := r.messages
	r.messages = nil
	return msgs
}
