package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rmitchellscott/ditherlab/internal/logging"
)

// Event represents a server-sent event
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Client represents a connected SSE client
type Client struct {
	ID      string
	Writer  http.ResponseWriter
	Flusher http.Flusher
	Done    chan bool
}

// Service manages SSE connections and broadcasts
type Service struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewService creates a new SSE service
func NewService() *Service {
	return &Service{
		clients: make(map[string]*Client),
	}
}

// AddClient adds a new SSE client connection
func (s *Service) AddClient(w http.ResponseWriter) *Client {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	client := &Client{
		ID:      uuid.NewString(),
		Writer:  w,
		Flusher: flusher,
		Done:    make(chan bool),
	}

	s.mu.Lock()
	s.clients[client.ID] = client
	s.mu.Unlock()

	logging.DebugWithComponent(logging.ComponentEvents, "Client connected", "client_id", client.ID)

	// Send initial connection event
	s.sendToClient(client, Event{
		Type: "connected",
		Data: map[string]interface{}{
			"timestamp": time.Now().UTC(),
		},
	})

	return client
}

// RemoveClient removes a client connection
func (s *Service) RemoveClient(clientID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if client, exists := s.clients[clientID]; exists {
		close(client.Done)
		delete(s.clients, clientID)
		logging.DebugWithComponent(logging.ComponentEvents, "Client disconnected", "client_id", clientID)
	}
}

// Broadcast sends an event to every connected client
func (s *Service) Broadcast(event Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, client := range s.clients {
		s.sendToClient(client, event)
	}
}

// BroadcastJobUpdate sends a job lifecycle event to every connected client.
func (s *Service) BroadcastJobUpdate(jobID uuid.UUID, status, message string, err error) {
	data := map[string]interface{}{
		"job_id":    jobID.String(),
		"status":    status,
		"timestamp": time.Now().UTC(),
	}
	if message != "" {
		data["message"] = message
	}
	if err != nil {
		data["error"] = err.Error()
	}

	s.Broadcast(Event{
		Type: "job_update",
		Data: data,
	})
}

// sendToClient sends an event to a specific client
func (s *Service) sendToClient(client *Client, event Event) {
	eventData, err := json.Marshal(event)
	if err != nil {
		logging.ErrorWithComponent(logging.ComponentEvents, "Failed to marshal event", "error", err)
		return
	}

	// Send event in SSE format
	fmt.Fprintf(client.Writer, "data: %s\n\n", eventData)
	client.Flusher.Flush()
}

// KeepAlive sends periodic keep-alive events to maintain connections
func (s *Service) KeepAlive(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.RLock()
			for _, client := range s.clients {
				s.sendToClient(client, Event{
					Type: "ping",
					Data: map[string]interface{}{
						"timestamp": time.Now().UTC(),
					},
				})
			}
			s.mu.RUnlock()
		}
	}
}

// GetClientCount returns the number of connected clients
func (s *Service) GetClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Global SSE service instance
var globalSSEService *Service

// InitializeSSEService initializes the global SSE service
func InitializeSSEService() {
	globalSSEService = NewService()
}

// GetSSEService returns the global SSE service instance
func GetSSEService() *Service {
	if globalSSEService == nil {
		InitializeSSEService()
	}
	return globalSSEService
}
