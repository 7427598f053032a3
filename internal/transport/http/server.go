// Package http implements the peer-facing wire protocol of spec §6: three
// JSON endpoints under /api/v1/raft, wrapped in a uniform envelope, backed
// by a raft.Node.
package http

import (
	"context"
	"encoding/json"
	nethttp "net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"ccs/internal/raft"
)

const apiVersion = "1.0"

// Server exposes a raft.Node over HTTP/JSON.
type Server struct {
	node    *raft.Node
	appName string
	logger  *logrus.Entry
	srv     *nethttp.Server
}

// NewServer builds a Server listening on addr. Call Start to begin serving.
// appName is echoed on the status endpoint only; it carries no protocol
// weight.
func NewServer(addr string, node *raft.Node, appName string, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.New()
	}

	s := &Server{
		node:    node,
		appName: appName,
		logger:  logger.WithField("component", "http_transport"),
	}

	mux := nethttp.NewServeMux()
	mux.HandleFunc("PUT /api/v1/raft/vote", s.withContextID(s.handleVote))
	mux.HandleFunc("POST /api/v1/raft/log", s.withContextID(s.handleAppend))
	mux.HandleFunc("GET /api/v1/raft/", s.withContextID(s.handleStatus))

	s.srv = &nethttp.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// Start begins serving in a background goroutine. Listen errors other than
// a clean shutdown are logged, not returned, matching the teacher's
// fire-and-forget server goroutine.
func (s *Server) Start() {
	go func() {
		s.logger.Infof("listening on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != nethttp.ErrServerClosed {
			s.logger.Errorf("http server stopped: %v", err)
		}
	}()
}

// Shutdown gracefully drains in-flight requests within ctx's deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

type contextIDKey struct{}

// withContextID stamps every request with a request id, stored in the
// request context for the envelope writers. The ?context= query parameter
// is not handled here; the envelope writers read it from the URL.
func (s *Server) withContextID(next nethttp.HandlerFunc) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		id := uuid.NewString()
		ctx := context.WithValue(r.Context(), contextIDKey{}, id)
		next(w, r.WithContext(ctx))
	}
}

func requestID(r *nethttp.Request) string {
	if id, ok := r.Context().Value(contextIDKey{}).(string); ok {
		return id
	}
	return ""
}

type wireEnvelope struct {
	APIVersion string          `json:"apiVersion"`
	ID         string          `json:"id,omitempty"`
	Context    string          `json:"context,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
	Error      *wireError      `json:"error,omitempty"`
}

type wireError struct {
	ID         string `json:"id"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
	Sender     string `json:"sender"`
	Term       uint64 `json:"term"`
}

func (s *Server) writeData(w nethttp.ResponseWriter, r *nethttp.Request, data interface{}) {
	raw, err := json.Marshal(data)
	if err != nil {
		s.writeError(w, r, nethttp.StatusInternalServerError, err)
		return
	}

	env := wireEnvelope{
		APIVersion: apiVersion,
		ID:         requestID(r),
		Context:    r.URL.Query().Get("context"),
		Data:       raw,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(nethttp.StatusOK)
	_ = json.NewEncoder(w).Encode(env)
}

func (s *Server) writeError(w nethttp.ResponseWriter, r *nethttp.Request, status int, err error) {
	term, _ := raft.Term(err)

	env := wireEnvelope{
		APIVersion: apiVersion,
		ID:         requestID(r),
		Context:    r.URL.Query().Get("context"),
		Error: &wireError{
			ID:         requestID(r),
			Message:    errorMessage(err),
			StatusCode: status,
			Sender:     s.node.ID(),
			Term:       term,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func (s *Server) writeMalformed(w nethttp.ResponseWriter, r *nethttp.Request, err error) {
	env := wireEnvelope{
		APIVersion: apiVersion,
		ID:         requestID(r),
		Context:    r.URL.Query().Get("context"),
		Error: &wireError{
			ID:         requestID(r),
			Message:    "malformed request body: " + err.Error(),
			StatusCode: nethttp.StatusBadRequest,
			Sender:     s.node.ID(),
		},
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(nethttp.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(env)
}

type voteRequestBody struct {
	Sender string `json:"sender"`
	Term   uint64 `json:"term"`
}

type appendRequestBody struct {
	Sender string `json:"sender"`
	Term   uint64 `json:"term"`
}

func (s *Server) handleVote(w nethttp.ResponseWriter, r *nethttp.Request) {
	var body voteRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeMalformed(w, r, err)
		return
	}

	res, err := s.node.HandleRequestVote(raft.RequestVote{Sender: body.Sender, Term: body.Term})
	if err != nil {
		s.writeError(w, r, errorStatusCode(err), err)
		return
	}

	s.writeData(w, r, voteRequestBody{Sender: res.Sender, Term: res.Term})
}

func (s *Server) handleAppend(w nethttp.ResponseWriter, r *nethttp.Request) {
	var body appendRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeMalformed(w, r, err)
		return
	}

	res, err := s.node.HandleAppendEntries(raft.AppendEntries{Sender: body.Sender, Term: body.Term})
	if err != nil {
		s.writeError(w, r, errorStatusCode(err), err)
		return
	}

	s.writeData(w, r, appendRequestBody{Sender: res.Sender, Term: res.Term})
}

type statusBody struct {
	AppName string `json:"app_name"`
	ID      string `json:"id"`
	State   string `json:"state"`
	Term    uint64 `json:"term"`
}

func (s *Server) handleStatus(w nethttp.ResponseWriter, r *nethttp.Request) {
	term, role := s.node.GetState()
	s.writeData(w, r, statusBody{
		AppName: s.appName,
		ID:      s.node.ID(),
		State:   role.String(),
		Term:    term,
	})
}
