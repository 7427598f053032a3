package raft

import "github.com/sirupsen/logrus"

// Logger wraps a logrus.Logger with the node's id attached to every entry
// and a handful of specialized helpers for the protocol events this
// package cares about, so call sites read as what happened rather than a
// format string.
type Logger struct {
	entry *logrus.Entry
}

func newLogger(base *logrus.Logger, nodeID string) *Logger {
	return &Logger{entry: base.WithField("node_id", nodeID)}
}

func (l *Logger) Debug(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.entry.Errorf(format, args...) }

func (l *Logger) LogStateChange(oldRole, newRole Role, term uint64) {
	l.entry.WithFields(logrus.Fields{
		"from": oldRole.String(),
		"to":   newRole.String(),
		"term": term,
	}).Info("role transition")
}

func (l *Logger) LogElectionStart(term uint64) {
	l.entry.WithField("term", term).Info("starting election")
}

func (l *Logger) LogElectionWon(term, votes, needed uint64) {
	l.entry.WithFields(logrus.Fields{"term": term, "votes": votes, "needed": needed}).Info("won election")
}

func (l *Logger) LogElectionLost(term, votes, needed uint64) {
	l.entry.WithFields(logrus.Fields{"term": term, "votes": votes, "needed": needed}).Info("lost election")
}

func (l *Logger) LogVoteGranted(candidateID string, term uint64) {
	l.entry.WithFields(logrus.Fields{"candidate": candidateID, "term": term}).Info("granted vote")
}

func (l *Logger) LogVoteDenied(candidateID string, term uint64, reason string) {
	l.entry.WithFields(logrus.Fields{"candidate": candidateID, "term": term, "reason": reason}).Info("denied vote")
}

func (l *Logger) LogHeartbeatSent(term uint64, peerCount int) {
	l.entry.WithFields(logrus.Fields{"term": term, "peers": peerCount}).Debug("sent heartbeat")
}

func (l *Logger) LogHeartbeatReceived(leaderID string, term uint64) {
	l.entry.WithFields(logrus.Fields{"leader": leaderID, "term": term}).Debug("received heartbeat")
}

func (l *Logger) LogStepDown(oldTerm, newTerm uint64) {
	l.entry.WithFields(logrus.Fields{"old_term": oldTerm, "new_term": newTerm}).Info("stepping down")
}

func (l *Logger) LogElectionTimeout() {
	l.entry.Debug("election timeout, becoming candidate")
}
