package raft

import "fmt"

// UnknownPeerError is returned when an inbound RPC names a sender that is
// not in this node's configured peer set.
type UnknownPeerError struct{ Term uint64 }

func (e *UnknownPeerError) Error() string { return "raft: unknown peer" }

// OutdatedTermError is returned when an inbound RPC's term is behind this
// node's current term; the caller should perform term discovery against
// the Term carried here.
type OutdatedTermError struct{ Term uint64 }

func (e *OutdatedTermError) Error() string {
	return fmt.Sprintf("raft: outdated term, current term is %d", e.Term)
}

// AlreadyVotedError is returned when a RequestVote at an equal term can't
// be granted because this node already voted for a different candidate.
type AlreadyVotedError struct{ Term uint64 }

func (e *AlreadyVotedError) Error() string { return "raft: already voted this term" }

// Term lets callers that only have an `error` recover the responder's
// term without a type switch on every call site.
func Term(err error) (uint64, bool) {
	switch e := err.(type) {
	case *UnknownPeerError:
		return e.Term, true
	case *OutdatedTermError:
		return e.Term, true
	case *AlreadyVotedError:
		return e.Term, true
	default:
		return 0, false
	}
}
