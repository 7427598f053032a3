// Package raft implements the leader-election sub-protocol used to pick a
// single coordinator among a fixed set of peers: terms, randomized election
// timeouts, majority voting and heartbeats. There is no replicated log here
// — AppendEntries always carries zero entries and exists only to serve as
// a heartbeat and as the channel through which a leader is acknowledged.
package raft

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Role is the tri-state a Node can be in.
type Role int

const (
	Follower Role = iota
	Candidate
	Leader
)

func (r Role) String() string {
	switch r {
	case Follower:
		return "FOLLOWER"
	case Candidate:
		return "CANDIDATE"
	case Leader:
		return "LEADER"
	default:
		return "UNKNOWN"
	}
}

// RoleEvent is emitted once at Start and once on every transition into
// FOLLOWER or LEADER (best-effort: it is dropped if the buffered channel is
// full, see emitEvent), so that an embedding process can react (e.g. to
// launch an external payload program) without the core knowing anything
// about subprocesses.
type RoleEvent struct {
	Role Role
	Term uint64
}

// Config bundles the startup parameters for a Node. Peers must exclude the
// node's own id and must have an even cardinality, so that the cluster size
// (peers + self) is odd and majority is unambiguous.
type Config struct {
	ID                string
	Peers             map[string]string // id -> address
	ElectionTimeoutMin time.Duration
	ElectionTimeoutMax time.Duration
	HeartbeatInterval  time.Duration
	Client             PeerClient
	Logger             *logrus.Logger
}

// Node is the authoritative, mutex-protected state of a single cluster
// member. All fields below the mutex are read and written only while
// holding mu; the mutex is never held across network I/O (see executor.go
// and client.go).
type Node struct {
	mu sync.Mutex

	id    string
	role  Role
	term  uint64
	vote  string // "" means unset
	leader string // "" means unset

	peers map[string]string // id -> address, fixed after construction

	lastHeartbeatAt time.Time
	electionTimeout time.Duration // drawn once, at construction
	heartbeatInterval time.Duration

	candidateGranted map[string]struct{}

	stopCh chan struct{} // stop signal for the currently running executor

	client PeerClient
	logger *Logger

	events chan RoleEvent

	shutdownOnce sync.Once
	shutdownCh   chan struct{}
}

// NewNode constructs a Node in the FOLLOWER role. Call Start to begin
// driving the election protocol; before that, the node only answers RPCs.
func NewNode(cfg Config) *Node {
	timeout := randomDuration(cfg.ElectionTimeoutMin, cfg.ElectionTimeoutMax)

	logger := cfg.Logger
	if logger == nil {
		logger = logrus.New()
	}

	n := &Node{
		id:                cfg.ID,
		role:              Follower,
		peers:             cfg.Peers,
		electionTimeout:   timeout,
		heartbeatInterval: cfg.HeartbeatInterval,
		client:            cfg.Client,
		logger:            newLogger(logger, cfg.ID),
		events:            make(chan RoleEvent, 8),
		shutdownCh:        make(chan struct{}),
	}
	return n
}

// Start launches the FOLLOWER executor and begins driving ticks. It must be
// called at most once.
func (n *Node) Start() {
	n.mu.Lock()
	n.lastHeartbeatAt = time.Now()
	stop := make(chan struct{})
	n.stopCh = stop
	n.mu.Unlock()

	n.logger.Info("node started, role=FOLLOWER election_timeout=%s heartbeat_interval=%s",
		n.electionTimeout, n.heartbeatInterval)
	n.emitEvent(RoleEvent{Role: Follower, Term: 0})

	go (&followerExecutor{node: n}).run(stop)
}

// Shutdown stops the currently running executor; later role transitions
// are ignored. The event stream is left open. Safe to call multiple times.
func (n *Node) Shutdown() {
	n.shutdownOnce.Do(func() {
		n.mu.Lock()
		if n.stopCh != nil {
			close(n.stopCh)
		}
		n.mu.Unlock()
		close(n.shutdownCh)
	})
}

// Events returns the channel on which role transitions into FOLLOWER or
// LEADER are published. Consumers must keep up; the channel is buffered
// but sends are best-effort (see emitEvent).
func (n *Node) Events() <-chan RoleEvent {
	return n.events
}

// ID returns this node's stable identifier.
func (n *Node) ID() string {
	return n.id
}

// GetState returns the current term and role, for status reporting.
func (n *Node) GetState() (uint64, Role) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.term, n.role
}

func (n *Node) currentRole() Role {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.role
}

func (n *Node) currentTerm() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.term
}

func (n *Node) emitEvent(evt RoleEvent) {
	select {
	case n.events <- evt:
	default:
		n.logger.Warn("dropped role event %s (term=%d): listener not keeping up", evt.Role, evt.Term)
	}
}

// runExecutor instantiates and runs the executor for newRole. It is always
// called from a fresh goroutine spawned by transition.
func (n *Node) runExecutor(newRole Role, stop <-chan struct{}) {
	switch newRole {
	case Follower:
		(&followerExecutor{node: n}).run(stop)
	case Candidate:
		(&candidateExecutor{node: n}).run(stop)
	case Leader:
		(&leaderExecutor{node: n}).run(stop)
	}
}
