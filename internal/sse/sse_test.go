package sse

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidshelfapp/vidshelf-core/internal/scanner"
	"github.com/vidshelfapp/vidshelf-core/internal/service"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Emit(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func TestIndexBridge_Throttles(t *testing.T) {
	rec := &recorder{}
	b := NewIndexBridge(rec, 0.001)

	for i := 1; i <= 50; i++ {
		b.IndexProgress(scanner.IndexProgress{Folder: "/Lib", Current: i, Total: 50})
	}
	b.IndexComplete(&scanner.IndexResult{Folder: "/Lib", Total: 50})

	require.Len(t, rec.events, 3)
	assert.Equal(t, 1, rec.events[0].Data.(scanner.IndexProgress).Current)
	assert.Equal(t, 50, rec.events[1].Data.(scanner.IndexProgress).Current)
	assert.Equal(t, EventIndexComplete, rec.events[2].Type)

	// A new pass gets a fresh limiter.
	b.IndexProgress(scanner.IndexProgress{Folder: "/Other", Current: 1, Total: 2})
	assert.Len(t, rec.events, 4)
}

func TestSearchProgress_Throttles(t *testing.T) {
	rec := &recorder{}
	progress := SearchProgress(rec, 0.001)
	for i := 1; i <= 10; i++ {
		progress(service.SearchProgress{SessionID: "srch-1", Current: i, Total: 10})
	}
	assert.Equal(t, []EventType{EventSearchProgress, EventSearchProgress}, rec.types())

	rec = &recorder{}
	progress = SearchProgress(rec, 0)
	for i := 1; i <= 10; i++ {
		progress(service.SearchProgress{Current: i, Total: 10})
	}
	assert.Len(t, rec.events, 10, "no limit when the rate is unset")
}

func TestManager_Broadcast(t *testing.T) {
	m := NewManager(discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Start(ctx)

	a, err := m.Connect()
	require.NoError(t, err)
	b, err := m.Connect()
	require.NoError(t, err)
	assert.Equal(t, 2, m.ClientCount())

	m.Emit(NewSearchFailedEvent("srch-1", true, "cancelled"))

	for _, c := range []*Client{a, b} {
		select {
		case e := <-c.EventChan:
			assert.Equal(t, EventSearchFailed, e.Type)
		case <-time.After(2 * time.Second):
			t.Fatal("event not delivered")
		}
	}

	m.Disconnect(a.ID)
	m.Disconnect(a.ID)
	assert.Equal(t, 1, m.ClientCount())

	require.NoError(t, m.Shutdown(context.Background()))
	m.Emit(NewHeartbeatEvent())
	_, open := <-b.Done
	assert.False(t, open)
}

func TestHandler_StreamsEvents(t *testing.T) {
	m := NewManager(discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Start(ctx)

	srv := httptest.NewServer(NewHandler(m, discardLogger()))
	defer srv.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewReader(resp.Body)
	readEvent := func() string {
		t.Helper()
		line, err := lines.ReadString('\n')
		require.NoError(t, err)
		_, err = lines.ReadString('\n') // data
		require.NoError(t, err)
		_, err = lines.ReadString('\n') // blank
		require.NoError(t, err)
		return strings.TrimSpace(strings.TrimPrefix(line, "event:"))
	}

	assert.Equal(t, "connected", readEvent())

	require.Eventually(t, func() bool { return m.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	m.Emit(NewIndexCompleteEvent(&scanner.IndexResult{Folder: "/Lib"}))
	assert.Equal(t, string(EventIndexComplete), readEvent())
}

func TestHandler_RejectsPost(t *testing.T) {
	h := NewHandler(NewManager(discardLogger()), discardLogger())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/events", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
