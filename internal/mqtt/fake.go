package mqtt

import (
	"sync"

	"github.com/sweeney/inverter-ctl/internal/logic"
)

// FakePublisher records published events for testing.
type FakePublisher struct {
	mu sync.Mutex

	Events         []logic.Event
	Payloads       [][]byte
	SystemEvents   []SystemEvent
	SystemPayloads [][]byte

	PublishErr error
	Connected  bool
	Closed     bool
}

// NewFakePublisher creates a fake publisher that starts connected.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{Connected: true}
}

// Publish records the event.
func (f *FakePublisher) Publish(event logic.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.PublishErr != nil {
		return f.PublishErr
	}

	payload, err := FormatPayload(event)
	if err != nil {
		return err
	}

	f.Events = append(f.Events, event)
	f.Payloads = append(f.Payloads, payload)
	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.PublishErr != nil {
		return f.PublishErr
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}

	f.SystemEvents = append(f.SystemEvents, event)
	f.SystemPayloads = append(f.SystemPayloads, payload)
	return nil
}

// IsConnected reports the scripted connection state.
func (f *FakePublisher) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Connected
}

// Close marks the publisher closed.
func (f *FakePublisher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// EventCount returns the number of recorded control events.
func (f *FakePublisher) EventCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Events)
}

// Reset clears all recorded events.
func (f *FakePublisher) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Events = nil
	f.Payloads = nil
	f.SystemEvents = nil
	f.SystemPayloads = nil
}
