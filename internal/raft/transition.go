package raft

import "time"

// transition is the single choke point for changing a Node's role. It stops
// the currently running executor, flips the role under the node mutex, and
// starts the replacement — so that an observer acquiring the mutex never
// sees two executors as both "current". It does not touch term/vote/leader;
// callers that also need a term bump (term discovery) must perform that
// under their own critical section before calling transition (see rpc.go).
func (n *Node) transition(newRole Role) {
	n.mu.Lock()
	if newRole == n.role {
		n.mu.Unlock()
		return
	}

	oldRole := n.role
	if n.stopCh != nil {
		select {
		case <-n.stopCh:
			// Only Shutdown leaves a closed stopCh in place; a node that
			// has been shut down starts no further executors.
			n.mu.Unlock()
			return
		default:
			close(n.stopCh)
		}
	}
	n.role = newRole

	if newRole == Follower {
		n.lastHeartbeatAt = time.Now()
	}

	term := n.term
	stop := make(chan struct{})
	n.stopCh = stop
	n.mu.Unlock()

	n.logger.LogStateChange(oldRole, newRole, term)

	switch newRole {
	case Follower:
		n.emitEvent(RoleEvent{Role: Follower, Term: term})
	case Leader:
		n.emitEvent(RoleEvent{Role: Leader, Term: term})
	}

	go n.runExecutor(newRole, stop)
}

// requestTermUpdate adopts newTerm if it is higher than the current term,
// clears vote/leader, and steps down to FOLLOWER. Used by executors that
// discover a higher term in a peer's RPC response (term discovery).
func (n *Node) requestTermUpdate(newTerm uint64) {
	n.mu.Lock()
	if newTerm <= n.term {
		n.mu.Unlock()
		return
	}
	n.term = newTerm
	n.vote = ""
	n.leader = ""
	n.mu.Unlock()

	n.transition(Follower)
}
