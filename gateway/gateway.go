// Package gateway is the HTTP facade the web application talks to. It
// forwards requests to the memory store and RAG microservices and combines
// their responses; it holds no state of its own.
package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labinsight/dbops/e"
	"github.com/rs/zerolog/log"
)

const (
	ECode050201 = e.Code0502 + "01"
	ECode050202 = e.Code0502 + "02"
)

// AnalyzeRequest the body accepted by POST /analyze-with-memory
type AnalyzeRequest struct {
	UserID    string                 `json:"user_id"`
	SessionID string                 `json:"session_id"`
	Query     string                 `json:"query"`
	LabData   map[string]interface{} `json:"lab_data"`
}

// AnalyzeResponse combines the RAG analysis with session/memory metadata
type AnalyzeResponse struct {
	Analysis        string   `json:"analysis"`
	Sources         []string `json:"sources"`
	Recommendations []string `json:"recommendations"`
	SessionID       string   `json:"session_id"`
	MemoryEntries   int      `json:"memory_entries"`
}

// Server routes the application endpoints to the backend services
type Server struct {
	client *Client
	mux    *http.ServeMux
}

// NewServer initializes the gateway routes
func NewServer(c *Client) (s *Server) {
	s = &Server{
		client: c,
		mux:    http.NewServeMux(),
	}

	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /sessions", s.handleCreateSession)
	s.mux.HandleFunc("GET /sessions/{id}/context", s.handleSessionContext)
	s.mux.HandleFunc("GET /health-journey/{id}", s.handleHealthJourney)
	s.mux.HandleFunc("POST /analyze-with-memory", s.handleAnalyze)

	return s
}

// Handler returns the full middleware chain
func (s *Server) Handler() http.Handler {
	return CORS(GZIP(s.mux))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "healthy",
		"service":        "labinsight-gateway",
		"memory_service": s.client.MemoryHealthy(),
		"rag_service":    s.client.RAGHealthy(),
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var in struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.UserID == "" {
		writeErr(w, http.StatusBadRequest, "user_id is required")
		return
	}

	session, err := s.client.CreateSession(in.UserID)
	if err != nil {
		log.Error().Err(err).Msg("session creation failed")
		writeErr(w, http.StatusBadGateway, "could not create session")
		return
	}

	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleSessionContext(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")

	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := s.client.SessionContext(sessionID, limit)
	if err != nil {
		log.Error().Err(err).Msgf("context fetch failed for session %s", sessionID)
		writeErr(w, http.StatusBadGateway, "could not fetch session context")
		return
	}
	if entries == nil {
		entries = []MemoryEntry{}
	}

	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleHealthJourney(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")

	days := 30
	if v := r.URL.Query().Get("days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			days = n
		}
	}

	journey, err := s.client.HealthJourney(userID, days)
	if err != nil {
		log.Error().Err(err).Msgf("health journey fetch failed for user %s", userID)
		writeErr(w, http.StatusBadGateway, "could not fetch health journey")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(journey); err != nil {
		log.Warn().Err(e.W(err, ECode050202)).Msg("response write failed")
	}
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var in AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Query == "" {
		writeErr(w, http.StatusBadRequest, "query is required")
		return
	}

	sessionID := in.SessionID
	if sessionID == "" {
		session, err := s.client.CreateSession(in.UserID)
		if err != nil {
			log.Error().Err(err).Msg("session creation failed")
			writeErr(w, http.StatusBadGateway, "could not create session")
			return
		}
		sessionID = session.SessionID
	}

	// Memory context is best effort; analysis proceeds without it
	memory, err := s.client.SearchMemory(sessionID, in.Query, 5)
	if err != nil {
		log.Warn().Err(err).Msgf("memory search failed for session %s", sessionID)
		memory = nil
	}

	analysis, err := s.client.Analyze(buildPrompt(in.Query, in.LabData, memory))
	if err != nil {
		log.Error().Err(err).Msg("RAG analysis failed")
		writeErr(w, http.StatusBadGateway, "analysis failed")
		return
	}

	// Write the interaction back into memory so the session accumulates
	// context; failure here never fails the analysis
	if err := s.storeInteraction(sessionID, in, analysis); err != nil {
		log.Warn().Err(err).Msgf("memory store failed for session %s", sessionID)
	}

	writeJSON(w, http.StatusOK, &AnalyzeResponse{
		Analysis:        analysis.Analysis,
		Sources:         analysis.Sources,
		Recommendations: extractRecommendations(analysis.Analysis),
		SessionID:       sessionID,
		MemoryEntries:   len(memory),
	})
}

// storeInteraction appends the user's query and the analysis to the session's
// memory, mirroring what the frontend would later read back as context
func (s *Server) storeInteraction(sessionID string, in AnalyzeRequest, a *Analysis) error {
	userContent := in.Query
	if len(in.LabData) > 0 {
		if b, err := json.Marshal(in.LabData); err == nil {
			userContent = fmt.Sprintf("Query: %s\nLab Data: %s", in.Query, b)
		}
	}

	return s.client.StoreMessages(sessionID, []MemoryEntry{
		{Role: "user", Content: userContent},
		{Role: "assistant", Content: a.Analysis},
	})
}

// buildPrompt prefixes the query with the lab values and the most recent
// memory context so the RAG service can answer with continuity across the
// session
func buildPrompt(query string, labData map[string]interface{}, memory []MemoryEntry) string {
	if len(labData) == 0 && len(memory) == 0 {
		return query
	}

	var b strings.Builder

	if len(labData) > 0 {
		if j, err := json.MarshalIndent(labData, "", "  "); err == nil {
			fmt.Fprintf(&b, "Current lab data:\n%s\n\n", j)
		}
	}

	if len(memory) == 0 {
		b.WriteString("Current question: ")
		b.WriteString(query)
		return b.String()
	}

	b.WriteString("Previous conversation context:\n")

	// Only the last few entries matter for continuity
	start := 0
	if len(memory) > 3 {
		start = len(memory) - 3
	}
	for _, m := range memory[start:] {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
	}

	b.WriteString("\nCurrent question: ")
	b.WriteString(query)

	return b.String()
}

// extractRecommendations pulls bullet style recommendation lines out of the
// analysis text
func extractRecommendations(analysis string) (recs []string) {
	for _, line := range strings.Split(analysis, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") {
			recs = append(recs, strings.TrimSpace(line[2:]))
		}
	}

	return recs
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(e.W(err, ECode050201)).Msg("response encoding failed")
	}
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
