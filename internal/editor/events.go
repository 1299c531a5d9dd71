package editor

import "strings"

// EventKind identifies a controller event.
type EventKind int

const (
	// EventLoaded fires when a note replaces the buffer.
	EventLoaded EventKind = iota
	// EventBodyChanged fires on every body change, including loads.
	EventBodyChanged
	// EventSaved fires when a save completes successfully.
	EventSaved
)

// Event is delivered synchronously to subscribers from the update loop.
type Event struct {
	Kind    EventKind
	BodyLen int // bytes
	Lines   int // line count of the body, at least 1
}

// Subscription is the handle returned by Subscribe. Release is idempotent.
type Subscription struct {
	c  *Controller
	id int
}

// Release stops delivery to the subscriber.
func (s *Subscription) Release() {
	if s == nil || s.c == nil {
		return
	}
	delete(s.c.subs, s.id)
	s.c = nil
}

// Subscribe registers fn for controller events.
func (c *Controller) Subscribe(fn func(Event)) *Subscription {
	c.nextSub++
	c.subs[c.nextSub] = fn
	return &Subscription{c: c, id: c.nextSub}
}

func (c *Controller) publish(kind EventKind) {
	if len(c.subs) == 0 {
		return
	}
	ev := Event{
		Kind:    kind,
		BodyLen: len(c.buffer.Body),
		Lines:   strings.Count(c.buffer.Body, "\n") + 1,
	}
	for _, fn := range c.subs {
		fn(ev)
	}
}
