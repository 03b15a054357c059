package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labinsight/dbops/e"
)

const (
	ECode050101 = e.Code0501 + "01"
	ECode050102 = e.Code0501 + "02"
	ECode050103 = e.Code0501 + "03"
	ECode050104 = e.Code0501 + "04"
	ECode050105 = e.Code0501 + "05"
	ECode050106 = e.Code0501 + "06"
	ECode050107 = e.Code0501 + "07"
	ECode050108 = e.Code0501 + "08"
)

// DefaultTimeout applied to every backend call
const DefaultTimeout = 30 * time.Second

// MemoryEntry a single piece of conversational context from the memory service
type MemoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Session as returned by the memory service
type Session struct {
	SessionID   string `json:"session_id"`
	UserID      string `json:"user_id"`
	SessionType string `json:"session_type"`
}

// Analysis as returned by the RAG service
type Analysis struct {
	Analysis string   `json:"analysis"`
	Sources  []string `json:"sources"`
}

// Client calls the memory and RAG backend microservices. Both are external
// collaborators consumed only via simple request/response contracts.
type Client struct {
	MemoryURL string
	RAGURL    string
	HTTP      *http.Client
}

// NewClient initializes a backend client
func NewClient(memoryURL, ragURL string) (c *Client) {
	return &Client{
		MemoryURL: memoryURL,
		RAGURL:    ragURL,
		HTTP:      &http.Client{Timeout: DefaultTimeout},
	}
}

// MemoryHealthy reports whether the memory service health endpoint responds
func (c *Client) MemoryHealthy() bool {
	return c.healthy(c.MemoryURL + "/health")
}

// RAGHealthy reports whether the RAG service health endpoint responds
func (c *Client) RAGHealthy() bool {
	return c.healthy(c.RAGURL + "/health")
}

func (c *Client) healthy(url string) bool {
	resp, err := c.HTTP.Get(url)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// CreateSession asks the memory service to create a session for the user.
// The session id is generated here so the call is idempotent on retry by
// the frontend.
func (c *Client) CreateSession(userID string) (s *Session, err error) {
	s = &Session{
		SessionID:   uuid.NewString(),
		UserID:      userID,
		SessionType: "health_consultation",
	}

	if err := c.post(c.MemoryURL+"/sessions", s, s); err != nil {
		return nil, e.W(err, ECode050101, fmt.Sprintf("user: %s", userID))
	}

	return s, nil
}

// SessionContext fetches the recent memory context for a session
func (c *Client) SessionContext(sessionID string, limit int) (entries []MemoryEntry, err error) {
	url := fmt.Sprintf("%s/sessions/%s/context?limit=%d", c.MemoryURL, sessionID, limit)
	if err := c.get(url, &entries); err != nil {
		return nil, e.W(err, ECode050102, fmt.Sprintf("session: %s", sessionID))
	}

	return entries, nil
}

// SearchMemory asks the memory service for context relevant to the query
func (c *Client) SearchMemory(sessionID, query string, limit int) (entries []MemoryEntry, err error) {
	url := fmt.Sprintf("%s/sessions/%s/search", c.MemoryURL, sessionID)
	in := map[string]interface{}{
		"query": query,
		"limit": limit,
	}
	if err := c.post(url, in, &entries); err != nil {
		return nil, e.W(err, ECode050103, fmt.Sprintf("session: %s", sessionID))
	}

	return entries, nil
}

// StoreMessages appends the conversation entries to the session's memory so
// later analyses in the session can draw on them
func (c *Client) StoreMessages(sessionID string, entries []MemoryEntry) (err error) {
	url := fmt.Sprintf("%s/sessions/%s/messages", c.MemoryURL, sessionID)
	for _, entry := range entries {
		if err := c.post(url, entry, nil); err != nil {
			return e.W(err, ECode050107, fmt.Sprintf("session: %s", sessionID))
		}
	}

	return nil
}

// HealthJourney fetches the user's biomarker trend history from the memory
// service. The payload is passed through untouched.
func (c *Client) HealthJourney(userID string, days int) (journey json.RawMessage, err error) {
	url := fmt.Sprintf("%s/health-journey/%s/trends?days=%d", c.MemoryURL, userID, days)
	if err := c.get(url, &journey); err != nil {
		return nil, e.W(err, ECode050108, fmt.Sprintf("user: %s", userID))
	}

	return journey, nil
}

// Analyze sends the contextual prompt to the RAG service
func (c *Client) Analyze(prompt string) (a *Analysis, err error) {
	a = &Analysis{}
	in := map[string]string{"query": prompt}
	if err := c.post(c.RAGURL+"/analyze", in, a); err != nil {
		return nil, e.W(err, ECode050104)
	}

	return a, nil
}

func (c *Client) get(url string, out interface{}) (err error) {
	resp, err := c.HTTP.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeResponse(resp, out)
}

func (c *Client) post(url string, in, out interface{}) (err error) {
	body, err := json.Marshal(in)
	if err != nil {
		return e.W(err, ECode050105)
	}

	resp, err := c.HTTP.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out interface{}) (err error) {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return e.N(ECode050106, fmt.Sprintf("%s: %d",
			e.MsgGatewayBadStatus, resp.StatusCode))
	}

	if out == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
