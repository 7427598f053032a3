package raft

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// inMemoryClient routes RPCs directly to other Node instances created in
// the same test process, standing in for the network. It can drop a named
// peer to simulate a partition (the teacher's tests achieve the same with
// Shutdown; we additionally want to simulate without tearing the node down).
type inMemoryClient struct {
	mu        sync.RWMutex
	nodesByID map[string]*Node // address -> node, addresses double as ids in tests
	partitioned map[string]bool
}

func newInMemoryClient() *inMemoryClient {
	return &inMemoryClient{
		nodesByID:   make(map[string]*Node),
		partitioned: make(map[string]bool),
	}
}

func (c *inMemoryClient) register(addr string, n *Node) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nodesByID[addr] = n
}

func (c *inMemoryClient) partition(addr string, cut bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.partitioned[addr] = cut
}

func (c *inMemoryClient) RequestVote(_ context.Context, addr string, req RequestVote) (VoteResult, error) {
	c.mu.RLock()
	target, ok := c.nodesByID[addr]
	cut := c.partitioned[addr]
	c.mu.RUnlock()
	if !ok || cut {
		return VoteResult{}, errors.New("no such peer")
	}
	res, err := target.HandleRequestVote(req)
	if err != nil {
		if term, ok := Term(err); ok {
			return VoteResult{Term: term}, nil
		}
		return VoteResult{}, err
	}
	return res, nil
}

func (c *inMemoryClient) AppendEntries(_ context.Context, addr string, req AppendEntries) (AppendResult, error) {
	c.mu.RLock()
	target, ok := c.nodesByID[addr]
	cut := c.partitioned[addr]
	c.mu.RUnlock()
	if !ok || cut {
		return AppendResult{}, errors.New("no such peer")
	}
	res, err := target.HandleAppendEntries(req)
	if err != nil {
		if term, ok := Term(err); ok {
			return AppendResult{Term: term}, nil
		}
		return AppendResult{}, err
	}
	return res, nil
}

// newTestNode builds a single node wired to a client, for handler-level
// tests that never call Start.
func newTestNode(id string, peers map[string]string, client PeerClient) *Node {
	return NewNode(Config{
		ID:                 id,
		Peers:              peers,
		ElectionTimeoutMin: 40 * time.Millisecond,
		ElectionTimeoutMax: 80 * time.Millisecond,
		HeartbeatInterval:  10 * time.Millisecond,
		Client:             client,
	})
}

// newTestCluster builds n nodes, all peered with each other and routed
// through a shared inMemoryClient.
func newTestCluster(n int) ([]*Node, *inMemoryClient) {
	client := newInMemoryClient()

	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("node%d", i+1)
	}

	nodes := make([]*Node, n)
	for i, id := range ids {
		peers := make(map[string]string, n-1)
		for _, other := range ids {
			if other != id {
				peers[other] = other
			}
		}
		nodes[i] = newTestNode(id, peers, client)
	}

	for i, id := range ids {
		client.register(id, nodes[i])
	}

	return nodes, client
}

func shutdownAll(nodes []*Node) {
	for _, n := range nodes {
		n.Shutdown()
	}
}

func countByRole(nodes []*Node, role Role) int {
	count := 0
	for _, n := range nodes {
		if _, r := n.GetState(); r == role {
			count++
		}
	}
	return count
}

func waitFor(t interface{ Errorf(string, ...interface{}) }, timeout time.Duration, cond func() bool, msg string) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	if !cond() {
		t.Errorf("timed out waiting for: %s", msg)
	}
}
