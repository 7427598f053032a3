package raft

import "time"

// RequestVote is sent by a CANDIDATE soliciting a vote.
type RequestVote struct {
	Sender string
	Term   uint64
}

// VoteResult is the responder's view of a RequestVote, on success.
type VoteResult struct {
	Sender  string
	Term    uint64
	Granted bool
}

// AppendEntries is sent by a LEADER as a heartbeat. This core never carries
// log entries, so its presence alone is the acknowledgement of leadership.
type AppendEntries struct {
	Sender string
	Term   uint64
}

// AppendResult is the responder's view of an AppendEntries, on success.
type AppendResult struct {
	Sender  string
	Term    uint64
	Success bool
}

// HandleRequestVote implements spec §4.2's RequestVote rules: reject unknown
// senders, reject stale terms, grant idempotently at equal term, and perform
// term-discovery (adopt term, step down, grant) at a higher term.
func (n *Node) HandleRequestVote(req RequestVote) (VoteResult, error) {
	n.mu.Lock()

	if _, known := n.peers[req.Sender]; !known {
		term := n.term
		n.mu.Unlock()
		return VoteResult{}, &UnknownPeerError{Term: term}
	}

	if req.Term < n.term {
		term := n.term
		n.mu.Unlock()
		n.logger.LogVoteDenied(req.Sender, req.Term, "outdated term")
		return VoteResult{}, &OutdatedTermError{Term: term}
	}

	stepDown := false
	granted := false

	if req.Term > n.term {
		n.term = req.Term
		n.vote = ""
		n.leader = ""
		stepDown = n.role != Follower
		n.vote = req.Sender
		granted = true
	} else if n.vote == "" || n.vote == req.Sender {
		n.vote = req.Sender
		granted = true
	}

	term := n.term
	n.mu.Unlock()

	if stepDown {
		n.transition(Follower)
	}

	if !granted {
		n.logger.LogVoteDenied(req.Sender, req.Term, "already voted this term")
		return VoteResult{}, &AlreadyVotedError{Term: term}
	}

	n.logger.LogVoteGranted(req.Sender, term)
	return VoteResult{Sender: n.id, Term: term, Granted: true}, nil
}

// HandleAppendEntries implements spec §4.2's AppendEntries rules: reject
// unknown senders, reject stale terms, otherwise record the heartbeat and
// ensure the node (re-)settles into FOLLOWER.
func (n *Node) HandleAppendEntries(req AppendEntries) (AppendResult, error) {
	n.mu.Lock()

	if _, known := n.peers[req.Sender]; !known {
		term := n.term
		n.mu.Unlock()
		return AppendResult{}, &UnknownPeerError{Term: term}
	}

	if req.Term < n.term {
		term := n.term
		n.mu.Unlock()
		return AppendResult{}, &OutdatedTermError{Term: term}
	}

	stepDown := false
	if req.Term > n.term {
		n.term = req.Term
		n.vote = ""
		n.leader = ""
		stepDown = true
	} else if n.role != Follower {
		// A CANDIDATE (or, defensively, a LEADER) observing a valid
		// heartbeat at an equal term steps down.
		stepDown = true
	}

	n.lastHeartbeatAt = time.Now()
	n.leader = req.Sender
	term := n.term
	n.mu.Unlock()

	n.logger.LogHeartbeatReceived(req.Sender, term)

	if stepDown {
		n.transition(Follower)
	}

	return AppendResult{Sender: n.id, Term: term, Success: true}, nil
}
