package discovery

import "testing"

type fakeResolver struct {
	hosts map[string][]string
	ptrs  map[string][]string
}

func (f fakeResolver) LookupHost(host string) ([]string, error) {
	return f.hosts[host], nil
}

func (f fakeResolver) LookupAddr(addr string) ([]string, error) {
	return f.ptrs[addr], nil
}

func TestDiscoverExcludesSelf(t *testing.T) {
	r := fakeResolver{
		hosts: map[string][]string{
			"ccs":       {"10.0.0.1", "10.0.0.2", "10.0.0.3"},
			"node-self": {"10.0.0.1"},
		},
		ptrs: map[string][]string{
			"10.0.0.2": {"node-b."},
			"10.0.0.3": {"node-c."},
		},
	}

	peers, err := Discover(r, "ccs", "node-self", "8080")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(peers) != 2 {
		t.Fatalf("expected 2 peers (self excluded), got %d: %+v", len(peers), peers)
	}
	if _, ok := peers["node-b."]; !ok {
		t.Fatalf("expected node-b. among peers, got %+v", peers)
	}
}

func TestDiscoverRejectsEvenTotalClusterSize(t *testing.T) {
	r := fakeResolver{
		hosts: map[string][]string{
			"ccs":       {"10.0.0.1", "10.0.0.2"},
			"node-self": {"10.0.0.1"},
		},
	}

	_, err := Discover(r, "ccs", "node-self", "8080")
	if err == nil {
		t.Fatalf("expected error for even total cluster size (1 peer + self = 2)")
	}
}
