// Package discordtest runs an in-memory stand-in for the Discord REST API.
package discordtest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"
)

// Operations accepted by FailTimes.
const (
	OpPost     = "post"
	OpFetch    = "fetch"
	OpPatch    = "patch"
	OpOriginal = "original"
	OpCommands = "commands"
)

// Request is one recorded call.
type Request struct {
	Op            string
	Method        string
	Path          string
	Authorization string
	Body          []byte
}

type failure struct {
	status int
	left   int
}

type Server struct {
	*httptest.Server

	mu       sync.Mutex
	requests []Request
	messages map[string]map[string]interface{}
	nextID   int
	failures map[string]*failure
}

// NewServer starts the fake API and closes it when the test ends.
func NewServer(t testing.TB) *Server {
	s := &Server{
		messages: make(map[string]map[string]interface{}),
		failures: make(map[string]*failure),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /channels/{channel}/messages", s.handle(OpPost, s.postMessage))
	mux.HandleFunc("GET /channels/{channel}/messages/{message}", s.handle(OpFetch, s.fetchMessage))
	mux.HandleFunc("PATCH /channels/{channel}/messages/{message}", s.handle(OpPatch, s.patchMessage))
	mux.HandleFunc("PATCH /webhooks/{app}/{token}/messages/@original", s.handle(OpOriginal, s.echo))
	mux.HandleFunc("PUT /applications/{app}/commands", s.handle(OpCommands, s.echo))

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// FailTimes makes the next n calls of op answer with status. n < 0 fails forever.
func (s *Server) FailTimes(op string, status, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = &failure{status: status, left: n}
}

// Requests returns the recorded calls of op, or every call when op is empty.
func (s *Server) Requests(op string) []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Request
	for _, r := range s.requests {
		if op == "" || r.Op == op {
			out = append(out, r)
		}
	}
	return out
}

// Message decodes the current state of a stored message.
func (s *Server) Message(t testing.TB, channelID, messageID string) *discordgo.Message {
	t.Helper()
	s.mu.Lock()
	stored, ok := s.messages[key(channelID, messageID)]
	var data []byte
	if ok {
		data, _ = json.Marshal(stored)
	}
	s.mu.Unlock()

	if !ok {
		t.Fatalf("message %s/%s not found", channelID, messageID)
	}
	var msg discordgo.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode stored message: %v", err)
	}
	return &msg
}

// DeleteMessage simulates a message removed by a moderator.
func (s *Server) DeleteMessage(channelID, messageID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.messages, key(channelID, messageID))
}

func (s *Server) handle(op string, next func(w http.ResponseWriter, r *http.Request, body map[string]interface{}, raw []byte)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Op:            op,
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			Body:          raw,
		})
		f := s.failures[op]
		failed := f != nil && f.left != 0
		if failed && f.left > 0 {
			f.left--
		}
		s.mu.Unlock()

		if failed {
			writeJSON(w, f.status, map[string]interface{}{"message": "injected failure", "code": 0})
			return
		}

		var body map[string]interface{}
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &body)
		}
		next(w, r, body, raw)
	}
}

func (s *Server) postMessage(w http.ResponseWriter, r *http.Request, body map[string]interface{}, _ []byte) {
	channelID := r.PathValue("channel")

	s.mu.Lock()
	s.nextID++
	id := fmt.Sprintf("%d", 900000+s.nextID)
	if body == nil {
		body = make(map[string]interface{})
	}
	body["id"] = id
	body["channel_id"] = channelID
	s.messages[key(channelID, id)] = body
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, body)
}

func (s *Server) fetchMessage(w http.ResponseWriter, r *http.Request, _ map[string]interface{}, _ []byte) {
	s.mu.Lock()
	stored, ok := s.messages[key(r.PathValue("channel"), r.PathValue("message"))]
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{"message": "Unknown Message", "code": 10008})
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (s *Server) patchMessage(w http.ResponseWriter, r *http.Request, body map[string]interface{}, _ []byte) {
	s.mu.Lock()
	stored, ok := s.messages[key(r.PathValue("channel"), r.PathValue("message"))]
	if ok {
		for k, v := range body {
			stored[k] = v
		}
	}
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{"message": "Unknown Message", "code": 10008})
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (s *Server) echo(w http.ResponseWriter, _ *http.Request, _ map[string]interface{}, raw []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	_, _ = w.Write(raw)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func key(channelID, messageID string) string {
	return channelID + "/" + messageID
}
