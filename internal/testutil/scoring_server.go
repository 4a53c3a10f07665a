package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// ScriptedResponse is one canned reply of a ScoringServer
type ScriptedResponse struct {
	Status int
	Body   string
}

// ScoreResponse builds a successful scoring reply
func ScoreResponse(performance, maintainability float64) ScriptedResponse {
	body, _ := json.Marshal(map[string]interface{}{
		"performance_score":     performance,
		"maintainability_score": maintainability,
		"explanation":           "",
	})
	return ScriptedResponse{Status: http.StatusOK, Body: string(body)}
}

// ScoringServer is an httptest server replaying scripted responses in order.
// Once the script is exhausted the last response is repeated.
type ScoringServer struct {
	*httptest.Server

	mu        sync.Mutex
	responses []ScriptedResponse
	requests  []map[string]string
	authz     []string
}

// NewScoringServer starts a scoring server that is closed with the test
func NewScoringServer(t *testing.T, responses ...ScriptedResponse) *ScoringServer {
	s := &ScoringServer{responses: responses}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// Endpoint returns the analysis URL of the server
func (s *ScoringServer) Endpoint() string {
	return s.URL + "/v1/analyze"
}

// Requests returns the decoded request bodies received so far
func (s *ScoringServer) Requests() []map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]string(nil), s.requests...)
}

// Authorizations returns the Authorization headers received so far
func (s *ScoringServer) Authorizations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.authz...)
}

func (s *ScoringServer) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	var req map[string]string
	_ = json.Unmarshal(body, &req)

	s.mu.Lock()
	call := len(s.requests)
	s.requests = append(s.requests, req)
	s.authz = append(s.authz, r.Header.Get("Authorization"))
	var resp ScriptedResponse
	switch {
	case len(s.responses) == 0:
		resp = ScriptedResponse{Status: http.StatusInternalServerError}
	case call < len(s.responses):
		resp = s.responses[call]
	default:
		resp = s.responses[len(s.responses)-1]
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Status)
	_, _ = io.WriteString(w, resp.Body)
}
