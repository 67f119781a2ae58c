package domain

// Command is a request to change state. CommandName is the routing key the
// bus registry uses, so it must be stable and unique per command type.
type Command interface {
	CommandName() string
}

// Event is a fact raised by an aggregate. Externally notifiable events are
// written to the outbox in the committing transaction; internally notifiable
// events are dispatched to in-process handlers once the transaction commits.
type Event interface {
	Topic() string
	AggregateID() string
	ExternallyNotifiable() bool
	InternallyNotifiable() bool
}
