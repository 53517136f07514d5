package httpapi

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/hanlulong/openecon-data-sub002/internal/model"
	"github.com/hanlulong/openecon-data-sub002/internal/orchestrator"
)

var validate = validator.New()

// queryRequest is the POST /query and /query/stream request body.
type queryRequest struct {
	Query string `json:"query" validate:"required,min=1,max=2000"`
	ConversationTailHash string `json:"conversationTailHash,omitempty" validate:"omitempty,max=128"`
}

func decodeQueryRequest(r *http.Request) (queryRequest, error) {
	var req queryRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
 return req, fmt.Errorf("malformed request body: %w", err)
	}
	if err := validate.Struct(req); err != nil {
 return req, fmt.Errorf("invalid request: %w", err)
	}
	return req, nil
}

// handleQuery is the non-streaming POST /query path.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	req, err := decodeQueryRequest(r)
	if err != nil {
 writeError(w, &model.QueryError{Kind: model.ErrKindClient, Message: err.Error()})
 return
	}

	result, err := s.deps.Orchestrator.Run(r.Context(), req.Query, req.ConversationTailHash)
	if err != nil {
 writeError(w, err)
 return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleQueryStream is the SSE POST /query/stream path,
// writing each orchestrator Event as a "data: <json>\n\n" frame as it's
// emitted rather than buffering the whole pipeline.
func (s *Server) handleQueryStream(w http.ResponseWriter, r *http.Request) {
	req, err := decodeQueryRequest(r)
	if err != nil {
 writeError(w, &model.QueryError{Kind: model.ErrKindClient, Message: err.Error()})
 return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
 writeError(w, &model.QueryError{Kind: model.ErrKindInternal, Message: "streaming unsupported"})
 return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	bw := bufio.NewWriter(w)
	writeFrame := func(ev orchestrator.Event) {
 b, err := json.Marshal(ev)
 if err != nil {
 return
 }
 fmt.Fprintf(bw, "data: %s\n\n", b)
 bw.Flush()
 flusher.Flush()
	}

	_ = s.deps.Orchestrator.RunStreaming(r.Context(), req.Query, req.ConversationTailHash, writeFrame)
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Orchestrator.Cache.Stats())
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	s.deps.Orchestrator.Cache.Clear()
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// healthResponse is /health shape: per-provider circuit state
// plus which providers have credentials configured at all.
type healthResponse struct {
	Status string `json:"status"`
	Time time.Time `json:"time"`
	Breakers map[string]string `json:"breakers"`
	Providers []string `json:"providersConfigured"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
 Status: "ok",
 Time: time.Now(),
 Breakers: s.deps.Orchestrator.Breakers.AllStates(),
 Providers: s.deps.ProvidersConfigured,
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, &model.QueryError{Kind: model.ErrKindClient, Message: "no such route"})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// errorResponse is the JSON body every non-2xx response carries.
type errorResponse struct {
	Kind string `json:"kind"`
	Message string `json:"message"`
	Provider string `json:"provider,omitempty"`
	Suggestion []string `json:"suggestion,omitempty"`
}

// writeError maps a QueryError to its HTTP status
// kind-to-status table; any other error type is an internal failure.
func writeError(w http.ResponseWriter, err error) {
	qe, ok := err.(*model.QueryError)
	if !ok {
 writeJSON(w, http.StatusInternalServerError, errorResponse{Kind: string(model.ErrKindInternal), Message: err.Error()})
 return
	}

	status := http.StatusInternalServerError
	switch qe.Kind {
	case model.ErrKindClient:
 status = http.StatusBadRequest
	case model.ErrKindResolution, model.ErrKindNotAvailable, model.ErrKindUnknown:
 status = http.StatusNotFound
	case model.ErrKindUpstream, model.ErrKindCircuitOpen, model.ErrKindRateLimit:
 status = http.StatusBadGateway
	case model.ErrKindTimeout:
 status = http.StatusGatewayTimeout
	case model.ErrKindIntent:
 status = http.StatusServiceUnavailable
	case model.ErrKindInternal:
 status = http.StatusInternalServerError
	}

	writeJSON(w, status, errorResponse{
 Kind: string(qe.Kind),
 Message: qe.Message,
 Provider: qe.Provider,
 Suggestion: qe.Suggestion,
	})
}
