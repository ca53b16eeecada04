// Package feed re-broadcasts timer lifecycle events to websocket clients.
//
// Messages are JSON text frames with an envelope: {type, ts, data}. The first
// message on connect is "snapshot" with the current machine state. Slow clients
// are disconnected when their send buffer fills.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"stillpoint/internal/core/timekeeper"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 20 * time.Second

	// Path is where the websocket endpoint is mounted.
	Path = "/events"
)

type envelope struct {
	Type string     `json:"type"`
	Ts   *time.Time `json:"ts,omitempty"`
	Data any        `json:"data,omitempty"`
}

type eventData struct {
	Phase     timekeeper.Phase `json:"phase"`
	Remaining int              `json:"remaining"`
	Progress  float64          `json:"progress"`
	Countdown int              `json:"countdown,omitempty"`
	Elapsed   int              `json:"elapsed,omitempty"`
	Phrase    string           `json:"phrase,omitempty"`
	Fading    bool             `json:"fading,omitempty"`
	SessionID string           `json:"session_id,omitempty"`
}

type snapshotData struct {
	Phase          timekeeper.Phase `json:"phase"`
	Total          int              `json:"total"`
	Remaining      int              `json:"remaining"`
	Countdown      int              `json:"countdown"`
	Progress       float64          `json:"progress"`
	Elapsed        int              `json:"elapsed"`
	AnimationStyle string           `json:"animation_style"`
	MusicTrack     string           `json:"music_track"`
	MusicEnabled   bool             `json:"music_enabled"`
}

// Hub tracks connected clients and fans messages out to them.
type Hub struct {
	logger *slog.Logger

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	// done is closed when Run returns.
	done chan struct{}

	mu      sync.Mutex
	clients map[*Client]struct{}

	sendBuf int
}

// NewHub constructs a hub. Call Run(ctx) to start it.
func NewHub(logger *slog.Logger, sendBuf int) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	if sendBuf <= 0 {
		sendBuf = 32
	}
	return &Hub{
		logger:     logger,
		broadcast:  make(chan []byte, 128),
		register:   make(chan *Client, 16),
		unregister: make(chan *Client, 16),
		done:       make(chan struct{}),
		clients:    make(map[*Client]struct{}),
		sendBuf:    sendBuf,
	}
}

// Run processes hub events until ctx is canceled, then disconnects all clients.
func (hub *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(hub.done)
			hub.closeAllClients()
			return

		case client := <-hub.register:
			hub.mu.Lock()
			hub.clients[client] = struct{}{}
			count := len(hub.clients)
			hub.mu.Unlock()
			hub.logger.Info("feed client registered", "remote_addr", client.remoteAddr, "clients", count)

		case client := <-hub.unregister:
			hub.removeClient(client, "unregister")

		case message := <-hub.broadcast:
			var slow []*Client
			hub.mu.Lock()
			for client := range hub.clients {
				select {
				case client.send <- message:
				default:
					slow = append(slow, client)
				}
			}
			hub.mu.Unlock()

			for _, client := range slow {
				hub.removeClient(client, "slow_client")
			}
		}
	}
}

// join hands client to Run. It reports false once the hub has stopped.
func (hub *Hub) join(client *Client) bool {
	select {
	case <-hub.done:
		return false
	default:
	}
	select {
	case hub.register <- client:
		return true
	case <-hub.done:
		return false
	}
}

// leave asks Run to drop client. It returns at once if the hub has stopped.
func (hub *Hub) leave(client *Client) {
	select {
	case hub.unregister <- client:
	case <-hub.done:
	}
}

// Clients returns the number of connected clients.
func (hub *Hub) Clients() int {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	return len(hub.clients)
}

func (hub *Hub) closeAllClients() {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	for client := range hub.clients {
		if client.conn != nil {
			_ = client.conn.Close()
		}
		client.closeSend()
		delete(hub.clients, client)
	}
}

func (hub *Hub) removeClient(client *Client, reason string) {
	hub.mu.Lock()
	_, ok := hub.clients[client]
	if ok {
		delete(hub.clients, client)
	}
	count := len(hub.clients)
	hub.mu.Unlock()

	if !ok {
		return
	}
	if client.conn != nil {
		_ = client.conn.Close()
	}
	client.closeSend()
	hub.logger.Info("feed client disconnected", "remote_addr", client.remoteAddr, "reason", reason, "clients", count)
}

// Broadcast enqueues a serialized frame. It drops the frame when the hub queue is full.
func (hub *Hub) Broadcast(message []byte) {
	select {
	case hub.broadcast <- message:
	default:
		hub.logger.Warn("feed broadcast queue full, dropping message", "bytes", len(message))
	}
}

// Client is one websocket connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	closeOnce  sync.Once
	remoteAddr string
}

func (client *Client) closeSend() {
	client.closeOnce.Do(func() { close(client.send) })
}

func (client *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-client.send:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				client.logExit("write", err)
				return
			}

		case <-ticker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				client.logExit("ping", err)
				return
			}
		}
	}
}

// readPump discards inbound frames and unregisters the client once the connection drops.
func (client *Client) readPump() {
	_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			client.logExit("read", err)
			client.hub.leave(client)
			_ = client.conn.Close()
			return
		}
	}
}

func (client *Client) logExit(stage string, err error) {
	if errors.Is(err, websocket.ErrCloseSent) {
		return
	}
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		client.hub.logger.Debug("feed client closed", "stage", stage, "remote_addr", client.remoteAddr, "code", closeErr.Code)
		return
	}
	client.hub.logger.Debug("feed client error", "stage", stage, "remote_addr", client.remoteAddr, "error", err)
}

// SnapshotSource supplies the state sent to newly connected clients.
type SnapshotSource interface {
	Snapshot() timekeeper.Snapshot
}

// Server owns the hub and the HTTP handler.
type Server struct {
	logger   *slog.Logger
	hub      *Hub
	source   SnapshotSource
	upgrader websocket.Upgrader
}

// NewServer constructs the feed server. Call Run(ctx) to start the hub.
func NewServer(logger *slog.Logger, source SnapshotSource) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		logger: logger,
		hub:    NewHub(logger, 0),
		source: source,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (server *Server) Hub() *Hub { return server.hub }

// Register mounts the websocket handler on mux.
func (server *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc(Path, server.handleEvents)
}

func (server *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := server.upgrader.Upgrade(w, r, nil)
	if err != nil {
		server.logger.Warn("feed upgrade failed", "error", err)
		return
	}

	client := &Client{
		hub:        server.hub,
		conn:       conn,
		send:       make(chan []byte, server.hub.sendBuf),
		remoteAddr: r.RemoteAddr,
	}

	// The snapshot is queued before registration so it is always the first frame.
	if server.source != nil {
		if message, err := encodeSnapshot(server.source.Snapshot(), time.Now().UTC()); err == nil {
			client.send <- message
		} else {
			server.logger.Warn("feed snapshot marshal failed", "error", err)
		}
	}
	if !server.hub.join(client) {
		_ = conn.Close()
		return
	}

	// Pump lifetime is owned by the hub and the connection, not the request context.
	go client.writePump()
	go client.readPump()
}

// Run starts the hub and forwards events until ctx is canceled or events closes.
func (server *Server) Run(ctx context.Context, events <-chan timekeeper.Event) {
	go server.hub.Run(ctx)
	Forward(ctx, server.hub, events, server.logger)
}

// Forward marshals every event into an envelope and broadcasts it.
func Forward(ctx context.Context, hub *Hub, events <-chan timekeeper.Event, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			message, err := encodeEvent(event)
			if err != nil {
				logger.Warn("feed marshal failed", "error", err, "type", event.Type)
				continue
			}
			hub.Broadcast(message)
		}
	}
}

// ListenAndServe serves the feed on addr until ctx is canceled.
func (server *Server) ListenAndServe(ctx context.Context, addr string, events <-chan timekeeper.Event) error {
	mux := http.NewServeMux()
	server.Register(mux)
	httpServer := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go server.Run(ctx, events)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	server.logger.Info("feed listening", "addr", addr, "path", Path)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func encodeEvent(event timekeeper.Event) ([]byte, error) {
	ts := event.At.UTC()
	if event.At.IsZero() {
		ts = time.Now().UTC()
	}
	return json.Marshal(envelope{
		Type: string(event.Type),
		Ts:   &ts,
		Data: eventData{
			Phase:     event.Phase,
			Remaining: event.Remaining,
			Progress:  event.Progress,
			Countdown: event.Countdown,
			Elapsed:   event.Elapsed,
			Phrase:    event.Phrase,
			Fading:    event.Fading,
			SessionID: event.SessionID,
		},
	})
}

func encodeSnapshot(snapshot timekeeper.Snapshot, now time.Time) ([]byte, error) {
	return json.Marshal(envelope{
		Type: "snapshot",
		Ts:   &now,
		Data: snapshotData{
			Phase:          snapshot.Phase,
			Total:          snapshot.Total,
			Remaining:      snapshot.Remaining,
			Countdown:      snapshot.Countdown,
			Progress:       snapshot.Progress,
			Elapsed:        snapshot.Elapsed,
			AnimationStyle: string(snapshot.Config.AnimationStyle),
			MusicTrack:     string(snapshot.Config.MusicTrack),
			MusicEnabled:   snapshot.Config.MusicEnabled,
		},
	})
}
