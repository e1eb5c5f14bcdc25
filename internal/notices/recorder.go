package notices

import "sync"

// Recorder is a Notifier and Publisher that keeps everything it receives.
// The CLI uses it to print notices after a command; tests use it as a spy.
type Recorder struct {
	mu      sync.Mutex
	notices []Event
	events  []Event
}

func (r *Recorder) Notify(kind Kind, message string) {
	if message == "" {
		message = Message(kind)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, Event{Type: EventNotice, Kind: kind, Message: message, Blocking: kind.Blocking()})
}

func (r *Recorder) Publish(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Notices returns the recorded notices in order.
func (r *Recorder) Notices() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.notices...)
}

// Count returns how many notices of kind were recorded.
func (r *Recorder) Count(kind Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.notices {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Events returns the recorded domain events in order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
