package http

import (
	"net/http"

	"ccs/internal/raft"
)

// errorStatusCode maps a raft package error to the HTTP status code it
// should surface as, following the taxonomy of spec §7: a client error
// class means the caller should not retry as-is, a conflict-like class
// means the caller should adopt the returned term and retry.
func errorStatusCode(err error) int {
	switch err.(type) {
	case *raft.UnknownPeerError:
		return http.StatusForbidden
	case *raft.OutdatedTermError:
		return http.StatusConflict
	case *raft.AlreadyVotedError:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func errorMessage(err error) string {
	return err.Error()
}
