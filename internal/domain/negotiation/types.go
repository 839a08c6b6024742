package negotiation

import "practice-hub/internal/pkg/errs"

var (
	ErrInvalidRole   = errs.Mark(errs.New("invalid negotiation role"), errs.ErrInvalidInput)
	ErrInvalidStatus = errs.Mark(errs.New("invalid proposal status"), errs.ErrInvalidInput)
	ErrInvalidAction = errs.Mark(errs.New("invalid decision action"), errs.ErrInvalidInput)
)

// Role is relative to a negotiation thread, not to the booking.
type Role string

const (
	RoleInitiator    Role = "initiator"
	RoleCounterparty Role = "counterparty"
)

func (r Role) String() string {
	return string(r)
}

func (r Role) IsValid() bool {
	switch r {
	case RoleInitiator, RoleCounterparty:
		return true
	default:
		return false
	}
}

func (r Role) Opposite() Role {
	if r == RoleInitiator {
		return RoleCounterparty
	}
	return RoleInitiator
}

func NewRole(s string) (Role, error) {
	role := Role(s)
	if !role.IsValid() {
		return "", ErrInvalidRole
	}
	return role, nil
}

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusDeclined Status = "declined"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusDeclined:
		return true
	default:
		return false
	}
}

func (s Status) IsFinal() bool {
	return s == StatusApproved || s == StatusDeclined
}

func NewStatus(s string) (Status, error) {
	status := Status(s)
	if !status.IsValid() {
		return "", ErrInvalidStatus
	}
	return status, nil
}

// Action is what the holder of a decision link chose.
type Action string

const (
	ActionAgree   Action = "agree"
	ActionCancel  Action = "cancel"
	ActionPropose Action = "propose"
)

func NewAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionAgree, ActionCancel, ActionPropose:
		return a, nil
	default:
		return "", ErrInvalidAction
	}
}
