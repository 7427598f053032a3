package config

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"HOSTNAME", "APP_NAME",
		"ELECTION_TIMEOUT_LOWER_MILLIS", "ELECTION_TIMEOUT_UPPER_MILLIS",
		"HEARTBEAT_REPEAT_MILLIS", "PEER_CLIENT_TIMEOUT_MILLIS",
		"SCRIPT_LEADER_PATH", "SCRIPT_FOLLOWER_PATH", "HTTP_ADDR",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOSTNAME", "node-a")
	t.Setenv("APP_NAME", "ccs")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ElectionTimeoutLower != 1500*time.Millisecond {
		t.Fatalf("expected default lower bound 1500ms, got %s", cfg.ElectionTimeoutLower)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("expected default addr :8080, got %s", cfg.HTTPAddr)
	}
}

func TestLoadRequiresHostname(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_NAME", "ccs")

	_, err := Load()
	if err == nil {
		t.Fatalf("expected error when HOSTNAME is unset")
	}
}

func TestLoadRejectsInvertedElectionTimeoutBounds(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOSTNAME", "node-a")
	t.Setenv("APP_NAME", "ccs")
	t.Setenv("ELECTION_TIMEOUT_LOWER_MILLIS", "3000")
	t.Setenv("ELECTION_TIMEOUT_UPPER_MILLIS", "1500")

	_, err := Load()
	if err == nil {
		t.Fatalf("expected error when upper bound <= lower bound")
	}
}

func TestLoadRejectsHeartbeatNotBelowElectionTimeout(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOSTNAME", "node-a")
	t.Setenv("APP_NAME", "ccs")
	t.Setenv("HEARTBEAT_REPEAT_MILLIS", "2000")

	_, err := Load()
	if err == nil {
		t.Fatalf("expected error when heartbeat interval is not below election timeout lower bound")
	}
}
