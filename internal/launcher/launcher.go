// Package launcher runs an external payload program whenever the local
// node's role changes, decoupled from the election core via raft.Node's
// event stream (spec §9): the core never knows a subprocess exists.
package launcher

import (
	"os/exec"

	"github.com/sirupsen/logrus"

	"ccs/internal/raft"
)

// Launcher consumes RoleEvents and execs the configured script for the new
// role, if one is configured.
type Launcher struct {
	events       <-chan raft.RoleEvent
	leaderPath   string
	followerPath string
	logger       *logrus.Entry

	stopCh chan struct{}
}

// New builds a Launcher reading from events. Either path may be empty, in
// which case transitions into that role run nothing.
func New(events <-chan raft.RoleEvent, leaderPath, followerPath string, logger *logrus.Logger) *Launcher {
	if logger == nil {
		logger = logrus.New()
	}
	return &Launcher{
		events:       events,
		leaderPath:   leaderPath,
		followerPath: followerPath,
		logger:       logger.WithField("component", "launcher"),
		stopCh:       make(chan struct{}),
	}
}

// Start begins consuming role events in the background.
func (l *Launcher) Start() {
	go l.run()
}

// Stop ends the consuming goroutine. Safe to call once.
func (l *Launcher) Stop() {
	close(l.stopCh)
}

func (l *Launcher) run() {
	for {
		select {
		case <-l.stopCh:
			return
		case evt, ok := <-l.events:
			if !ok {
				return
			}
			l.handle(evt)
		}
	}
}

func (l *Launcher) handle(evt raft.RoleEvent) {
	var path string
	switch evt.Role {
	case raft.Leader:
		path = l.leaderPath
	case raft.Follower:
		path = l.followerPath
	default:
		return
	}

	if path == "" {
		l.logger.Debugf("no script configured for role %s, skipping", evt.Role)
		return
	}

	l.logger.WithFields(logrus.Fields{"role": evt.Role.String(), "term": evt.Term, "path": path}).Info("launching payload")

	cmd := exec.Command(path)
	if err := cmd.Start(); err != nil {
		l.logger.WithError(err).Errorf("failed to launch payload for role %s", evt.Role)
		return
	}

	go func() {
		if err := cmd.Wait(); err != nil {
			l.logger.WithError(err).Warnf("payload for role %s exited with error", evt.Role)
		}
	}()
}
