package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stillpoint/internal/core/model"
	"stillpoint/internal/core/timekeeper"
)

type staticSource struct {
	snapshot timekeeper.Snapshot
}

func (source staticSource) Snapshot() timekeeper.Snapshot { return source.snapshot }

type frame struct {
	Type string          `json:"type"`
	Ts   time.Time       `json:"ts"`
	Data json.RawMessage `json:"data"`
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var decoded frame
	require.NoError(t, json.Unmarshal(raw, &decoded))
	return decoded
}

func waitUntil(t *testing.T, condition func() bool) {
	t.Helper()
	require.Eventually(t, condition, 2*time.Second, 5*time.Millisecond)
}

func TestFeedSendsSnapshotThenEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source := staticSource{snapshot: timekeeper.Snapshot{
		Phase:     timekeeper.PhaseIdle,
		Total:     600,
		Remaining: 600,
		Config:    model.DefaultTimerConfig(),
	}}
	server := NewServer(nil, source)
	events := make(chan timekeeper.Event, 4)
	go server.Run(ctx, events)

	mux := http.NewServeMux()
	server.Register(mux)
	httpServer := httptest.NewServer(mux)
	defer httpServer.Close()

	url := "ws" + strings.TrimPrefix(httpServer.URL, "http") + Path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	first := readFrame(t, conn)
	assert.Equal(t, "snapshot", first.Type)
	var snapshot snapshotData
	require.NoError(t, json.Unmarshal(first.Data, &snapshot))
	assert.Equal(t, 600, snapshot.Total)
	assert.Equal(t, "ambient", snapshot.MusicTrack)

	waitUntil(t, func() bool { return server.Hub().Clients() == 1 })

	at := time.Date(2026, 4, 1, 7, 0, 0, 0, time.UTC)
	events <- timekeeper.Event{Type: timekeeper.EventTick, Phase: timekeeper.PhaseRunning, Remaining: 599, Progress: 1.0 / 600, At: at}

	tick := readFrame(t, conn)
	assert.Equal(t, "tick", tick.Type)
	assert.True(t, at.Equal(tick.Ts))
	var data eventData
	require.NoError(t, json.Unmarshal(tick.Data, &data))
	assert.Equal(t, 599, data.Remaining)
	assert.Equal(t, timekeeper.PhaseRunning, data.Phase)
}

func TestHubDisconnectsSlowClient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(nil, 1)
	go hub.Run(ctx)

	slow := &Client{hub: hub, send: make(chan []byte, 1), remoteAddr: "slow"}
	hub.register <- slow
	waitUntil(t, func() bool { return hub.Clients() == 1 })

	hub.broadcast <- []byte(`{"type":"tick"}`)
	hub.broadcast <- []byte(`{"type":"tick"}`)

	waitUntil(t, func() bool { return hub.Clients() == 0 })
}

func TestStoppedHubDoesNotBlockClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil, 1)
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for n := 0; n < 40; n++ {
			client := &Client{hub: hub, send: make(chan []byte, 1)}
			assert.False(t, hub.join(client))
			hub.leave(client)
		}
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("client registration blocked on a stopped hub")
	}
}

func TestForwardStopsWhenSourceCloses(t *testing.T) {
	hub := NewHub(nil, 1)
	events := make(chan timekeeper.Event, 1)
	events <- timekeeper.Event{Type: timekeeper.EventCancelled, Phase: timekeeper.PhaseRunning}
	close(events)

	done := make(chan struct{})
	go func() {
		Forward(context.Background(), hub, events, hub.logger)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("forward did not return")
	}
	require.Len(t, hub.broadcast, 1)
	assert.Contains(t, string(<-hub.broadcast), `"type":"cancelled"`)
}
