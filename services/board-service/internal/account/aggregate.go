package account

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/apperr"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 8

type Aggregate struct {
	Account Account

	domain.EventQueue
	hashCost int
}

// New returns an empty aggregate hashing passwords at cost. Costs outside
// bcrypt's range fall back to bcrypt.DefaultCost.
func New(cost int) *Aggregate {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Aggregate{hashCost: cost}
}

func Rehydrate(a Account) *Aggregate {
	return &Aggregate{Account: a, hashCost: bcrypt.DefaultCost}
}

func (a *Aggregate) AggregateID() string { return a.Account.ID.String() }

func (a *Aggregate) Create(cmd CreateAccount) error {
	email := strings.ToLower(strings.TrimSpace(cmd.Email))
	if !strings.Contains(email, "@") {
		return apperr.Newf(apperr.ErrValidation, "email %q is invalid", cmd.Email)
	}
	if len(cmd.Password) < minPasswordLen {
		return apperr.Newf(apperr.ErrValidation, "password must be at least %d bytes", minPasswordLen)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), a.hashCost)
	if err != nil {
		return apperr.Wrap(apperr.ErrUnexpected, err)
	}

	a.Account = Account{
		ID:             uuid.New(),
		Email:          email,
		Nickname:       strings.TrimSpace(cmd.Nickname),
		HashedPassword: string(hash),
		State:          StateVerificationRequired,
		CreatedAt:      time.Now().UTC(),
	}
	a.Raise(Created{
		ID:       a.Account.ID,
		Email:    a.Account.Email,
		Nickname: a.Account.Nickname,
		State:    a.Account.State,
	})
	return nil
}

func (a *Aggregate) Update(cmd UpdateAccount) error {
	next := a.Account
	if cmd.Nickname != nil {
		next.Nickname = strings.TrimSpace(*cmd.Nickname)
	}
	if cmd.State != nil {
		if !cmd.State.Valid() {
			return apperr.Newf(apperr.ErrValidation, "unknown account state %q", *cmd.State)
		}
		next.State = *cmd.State
	}
	a.Account = next
	a.raiseUpdated()
	return nil
}

// RecordBoard counts one more board authored by this account.
func (a *Aggregate) RecordBoard() {
	a.Account.BoardCount++
	a.raiseUpdated()
}

func (a *Aggregate) VerifyPassword(raw string) error {
	err := bcrypt.CompareHashAndPassword([]byte(a.Account.HashedPassword), []byte(raw))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return apperr.Newf(apperr.ErrValidation, "password mismatch")
	}
	return err
}

func (a *Aggregate) raiseUpdated() {
	a.Raise(Updated{
		ID:         a.Account.ID,
		Nickname:   a.Account.Nickname,
		State:      a.Account.State,
		BoardCount: a.Account.BoardCount,
	})
}
