package messagebus

import "github.com/md-rashed-zaman/boardhub/services/board-service/internal/domain"

// Queue holds the events still to dispatch within one Handle call. It is not
// shared across calls.
type Queue struct {
	events []domain.Event
}

func (q *Queue) Push(events ...domain.Event) {
	q.events = append(q.events, events...)
}

func (q *Queue) Len() int { return len(q.events) }

func (q *Queue) pop() (domain.Event, bool) {
	if len(q.events) == 0 {
		return nil, false
	}
	e := q.events[0]
	q.events[0] = nil
	q.events = q.events[1:]
	return e, true
}
