package domain

// Aggregate is a consistency root whose pending events a repository drains
// after every save.
type Aggregate interface {
	AggregateID() string
	TakeEvents() []Event
}

// EventQueue is embedded by aggregates to hold raised events until a
// repository takes them.
type EventQueue struct {
	events []Event
}

func (q *EventQueue) Raise(e Event) {
	q.events = append(q.events, e)
}

// PendingEvents returns the queued events without draining them.
func (q *EventQueue) PendingEvents() []Event {
	return append([]Event(nil), q.events...)
}

// TakeEvents drains the queue. A second call returns nothing until new events
// are raised, so saving an aggregate twice never re-emits an event.
func (q *EventQueue) TakeEvents() []Event {
	events := q.events
	q.events = nil
	return events
}
