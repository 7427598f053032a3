package raft

import (
	"context"
	"sync"
	"time"
)

// roleExecutor is the background activity specific to the current role.
// Exactly one is running at any instant (enforced by transition.go). Each
// implementation ticks at heartbeatInterval, inspecting state under the
// node mutex only for the instant it takes to read or update it, never
// across network I/O.
type roleExecutor interface {
	run(stop <-chan struct{})
}

// followerExecutor watches for election timeout.
type followerExecutor struct{ node *Node }

func (e *followerExecutor) run(stop <-chan struct{}) {
	n := e.node
	ticker := time.NewTicker(n.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			e.tick()
		}
	}
}

func (e *followerExecutor) tick() {
	n := e.node

	n.mu.Lock()
	// A node with no peers can never complete a meaningful election
	// (spec §9): it must not transition to CANDIDATE on its own.
	timedOut := len(n.peers) > 0 && time.Since(n.lastHeartbeatAt) > n.electionTimeout
	n.mu.Unlock()

	if timedOut {
		n.logger.LogElectionTimeout()
		n.transition(Candidate)
	}
}

// candidateExecutor solicits votes from every peer until it wins, loses, or
// is deposed by a higher term.
type candidateExecutor struct{ node *Node }

func (e *candidateExecutor) run(stop <-chan struct{}) {
	n := e.node

	n.mu.Lock()
	n.term++
	n.vote = n.id
	n.candidateGranted = map[string]struct{}{n.id: {}}
	term := n.term
	n.mu.Unlock()

	n.logger.LogElectionStart(term)

	ticker := time.NewTicker(n.heartbeatInterval)
	defer ticker.Stop()

	e.tick(term, stop)

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if n.currentRole() != Candidate || n.currentTerm() != term {
				return
			}
			e.tick(term, stop)
		}
	}
}

type voteResponse struct {
	peer string
	res  VoteResult
	err  error
}

func (e *candidateExecutor) tick(term uint64, stop <-chan struct{}) {
	n := e.node

	n.mu.Lock()
	if n.role != Candidate || n.term != term {
		n.mu.Unlock()
		return
	}
	remaining := make([]string, 0, len(n.peers))
	for id := range n.peers {
		if _, granted := n.candidateGranted[id]; !granted {
			remaining = append(remaining, id)
		}
	}
	peers := n.peers
	selfID := n.id
	n.mu.Unlock()

	if len(remaining) == 0 {
		return
	}

	results := make(chan voteResponse, len(remaining))
	for _, id := range remaining {
		go func(id, addr string) {
			res, err := n.client.RequestVote(context.Background(), addr, RequestVote{Sender: selfID, Term: term})
			results <- voteResponse{peer: id, res: res, err: err}
		}(id, peers[id])
	}

	for i := 0; i < len(remaining); i++ {
		select {
		case <-stop:
			return
		case r := <-results:
			if r.err != nil {
				n.logger.Info("RequestVote to %s failed: %v", r.peer, r.err)
				continue
			}

			n.mu.Lock()
			if n.role != Candidate || n.term != term {
				// Stale candidacy: discard (spec §5, "a vote tally that
				// belongs to a prior candidacy must be discarded").
				n.mu.Unlock()
				return
			}

			if r.res.Term > term {
				n.mu.Unlock()
				// Open question resolved: bail immediately rather than
				// draining the rest of this tick's responses.
				n.requestTermUpdate(r.res.Term)
				return
			}

			if !r.res.Granted {
				n.mu.Unlock()
				continue
			}

			n.candidateGranted[r.peer] = struct{}{}
			granted := len(n.candidateGranted)
			total := len(n.peers) + 1
			n.mu.Unlock()

			if granted*2 > total {
				n.logger.LogElectionWon(term, uint64(granted), uint64(total/2+1))
				n.transition(Leader)
				return
			}
		}
	}
}

// leaderExecutor emits heartbeats (empty AppendEntries) to every peer on
// every tick, stepping down the instant any peer reports a higher term.
type leaderExecutor struct{ node *Node }

func (e *leaderExecutor) run(stop <-chan struct{}) {
	n := e.node

	ticker := time.NewTicker(n.heartbeatInterval)
	defer ticker.Stop()

	e.tick()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if n.currentRole() != Leader {
				return
			}
			e.tick()
		}
	}
}

func (e *leaderExecutor) tick() {
	n := e.node

	n.mu.Lock()
	if n.role != Leader {
		n.mu.Unlock()
		return
	}
	term := n.term
	selfID := n.id
	peers := n.peers
	n.mu.Unlock()

	n.logger.LogHeartbeatSent(term, len(peers))

	var wg sync.WaitGroup
	for id, addr := range peers {
		wg.Add(1)
		go func(id, addr string) {
			defer wg.Done()
			res, err := n.client.AppendEntries(context.Background(), addr, AppendEntries{Sender: selfID, Term: term})
			if err != nil {
				n.logger.Info("AppendEntries to %s failed: %v", id, err)
				return
			}
			if res.Term > term {
				n.requestTermUpdate(res.Term)
			}
		}(id, addr)
	}
	wg.Wait()
}
