// Package sse streams indexing and search progress to the UI as
// Server-Sent Events. Catalog changes are not pushed; clients re-fetch
// after their own mutations.
package sse

import (
	"time"

	"github.com/vidshelfapp/vidshelf-core/internal/scanner"
	"github.com/vidshelfapp/vidshelf-core/internal/service"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventIndexProgress reports one processed file of an indexing pass.
	EventIndexProgress EventType = "index.progress"
	// EventIndexComplete reports a finished indexing pass.
	EventIndexComplete EventType = "index.complete"

	// EventSearchProgress reports one visited file of a recursive search.
	EventSearchProgress EventType = "search.progress"
	// EventSearchComplete carries the results of a recursive search.
	EventSearchComplete EventType = "search.complete"
	// EventSearchFailed reports a recursive search that did not finish.
	EventSearchFailed EventType = "search.failed"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// SearchFailedEventData is the data payload for search failure events.
type SearchFailedEventData struct {
	SessionID string `json:"session_id"`
	Cancelled bool   `json:"cancelled"`
	Message   string `json:"message"`
}

func newEvent(t EventType, data any) Event {
	return Event{Type: t, Timestamp: time.Now(), Data: data}
}

// NewIndexProgressEvent creates an index.progress event.
func NewIndexProgressEvent(p scanner.IndexProgress) Event {
	return newEvent(EventIndexProgress, p)
}

// NewIndexCompleteEvent creates an index.complete event.
func NewIndexCompleteEvent(r *scanner.IndexResult) Event {
	return newEvent(EventIndexComplete, r)
}

// NewSearchProgressEvent creates a search.progress event.
func NewSearchProgressEvent(p service.SearchProgress) Event {
	return newEvent(EventSearchProgress, p)
}

// NewSearchCompleteEvent creates a search.complete event.
func NewSearchCompleteEvent(r *service.RecursiveResult) Event {
	return newEvent(EventSearchComplete, r)
}

// NewSearchFailedEvent creates a search.failed event.
func NewSearchFailedEvent(sessionID string, cancelled bool, msg string) Event {
	return newEvent(EventSearchFailed, SearchFailedEventData{
		SessionID: sessionID,
		Cancelled: cancelled,
		Message:   msg,
	})
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	now := time.Now()
	return Event{Type: EventHeartbeat, Timestamp: now, Data: HeartbeatEventData{ServerTime: now}}
}
