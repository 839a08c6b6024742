package negotiation

import "github.com/google/uuid"

// State is the negotiation state machine derived from the latest proposal of
// a thread. Exactly one of NoProposal, Pending or Resolved.
type State interface {
	isState()
}

type NoProposal struct{}

type Pending struct {
	ProposalID uuid.UUID
}

type Resolved struct {
	ProposalID uuid.UUID
	Outcome    Status
}

func (NoProposal) isState() {}
func (Pending) isState()    {}
func (Resolved) isState()   {}

// StateOf derives the state from the newest proposal of a negotiation, or nil.
func StateOf(latest *Proposal) State {
	if latest == nil {
		return NoProposal{}
	}
	if latest.IsPending() {
		return Pending{ProposalID: latest.ID()}
	}
	return Resolved{ProposalID: latest.ID(), Outcome: latest.Status()}
}

// CanDecide reports whether proposalID is the actionable proposal of state.
func CanDecide(state State, proposalID uuid.UUID) error {
	switch s := state.(type) {
	case Pending:
		if s.ProposalID != proposalID {
			return ErrNotPending
		}
		return nil
	case Resolved:
		return ErrNotPending
	case NoProposal:
		return ErrNegotiationEmpty
	default:
		return ErrNegotiationEmpty
	}
}

// PendingID returns the id of the pending proposal that a new proposal would supersede.
func PendingID(state State) (uuid.UUID, bool) {
	if s, ok := state.(Pending); ok {
		return s.ProposalID, true
	}
	return uuid.Nil, false
}
