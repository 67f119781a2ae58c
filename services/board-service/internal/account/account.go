// Package account is the author account aggregate. Passwords are stored as
// bcrypt hashes only.
package account

import (
	"time"

	"github.com/google/uuid"
)

type State string

const (
	StateVerificationRequired State = "VerificationRequired"
	StateCreated              State = "Created"
	StateDeleted              State = "Deleted"
	StateBlocked              State = "Blocked"
)

func (s State) Valid() bool {
	switch s {
	case StateVerificationRequired, StateCreated, StateDeleted, StateBlocked:
		return true
	}
	return false
}

type Account struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	Nickname       string    `json:"nickname"`
	HashedPassword string    `json:"-"`
	State          State     `json:"state"`
	BoardCount     int       `json:"board_count"`
	CreatedAt      time.Time `json:"create_dt"`
	Version        int64     `json:"version"`
}

type CreateAccount struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
}

func (CreateAccount) CommandName() string { return "CreateAccount" }

type UpdateAccount struct {
	ID       uuid.UUID `json:"id"`
	Nickname *string   `json:"nickname"`
	State    *State    `json:"state"`
}

func (UpdateAccount) CommandName() string { return "UpdateAccount" }

const (
	TopicCreated = "AccountCreated"
	TopicUpdated = "AccountUpdated"
)

type Created struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	Nickname string    `json:"nickname"`
	State    State     `json:"state"`
}

func (Created) Topic() string { return TopicCreated }
func (e Created) AggregateID() string { return e.ID.String() }
func (Created) ExternallyNotifiable() bool { return false }
func (Created) InternallyNotifiable() bool { return false }

type Updated struct {
	ID         uuid.UUID `json:"id"`
	Nickname   string    `json:"nickname"`
	State      State     `json:"state"`
	BoardCount int       `json:"board_count"`
}

func (Updated) Topic() string { return TopicUpdated }
func (e Updated) AggregateID() string { return e.ID.String() }
func (Updated) ExternallyNotifiable() bool { return false }
func (Updated) InternallyNotifiable() bool { return false }
