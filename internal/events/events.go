// Package events carries session lifecycle notifications from the gateway and session controller to the
// shells (CLI, TUI) that react to them.
//
// The gateway never navigates on its own. On an authorization failure it publishes a [ForceLogout] event
// naming the login path, and whichever shell is subscribed performs the hard redirect.
package events

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Kind enumerates event types.
type Kind int

const (
	ForceLogout Kind = iota // credential rejected by the backend; Path names the login surface
	LoggedIn
	LoggedOut
)

func (k Kind) String() string {
	switch k {
	case ForceLogout:
		return "force-logout"
	case LoggedIn:
		return "logged-in"
	case LoggedOut:
		return "logged-out"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Event is a single notification.
type Event struct {
	Kind  Kind
	Path  string // navigation target, set for ForceLogout
	Cause error
	At    time.Time
}

const defaultBuffer = 16

// Bus fans events out to every subscriber.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]chan Event
	nextID int
	buffer int
	logger *log.Logger
}

// NewBus creates a [Bus]; a nil logger discards drop warnings.
func NewBus(logger *log.Logger) *Bus {
	return &Bus{
		subs:   make(map[int]chan Event),
		buffer: defaultBuffer,
		logger: logger,
	}
}

// Subscribe returns a channel receiving every event published after the call, and a func that
// unsubscribes and closes the channel.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Event, b.buffer)
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
}

// Publish delivers e to every subscriber without blocking. A subscriber whose buffer is full misses the event.
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subs {
		select {
		case ch <- e:
		default:
			if b.logger != nil {
				b.logger.Warn("dropped event for slow subscriber", "kind", e.Kind, "subscriber", id)
			}
		}
	}
}

// Subscribers returns the number of active subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
