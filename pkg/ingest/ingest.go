// Package ingest accepts WebSocket connections from remote gaze trackers
// and publishes their samples for the remote gaze provider.
package ingest

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/teslashibe/go-foveate/pkg/debug"
	"github.com/teslashibe/go-foveate/pkg/gaze"
	"github.com/teslashibe/go-foveate/pkg/protocol"
)

// ServerName is reported to trackers in the welcome message.
const ServerName = "go-foveate"

// TrackerConnection represents a connected tracker
type TrackerConnection struct {
	ID        string
	Conn      *websocket.Conn
	Connected time.Time

	mu       sync.Mutex
	name     string
	device   string
	lastSeen time.Time
	last     gaze.Sample
	samples  uint64
}

// Send sends a message to the tracker
func (t *TrackerConnection) Send(msg *protocol.Message) error {
	data, err := msg.Bytes()
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.Conn.WriteMessage(websocket.TextMessage, data)
}

// Hub manages WebSocket connections from trackers
type Hub struct {
	mailbox *gaze.Mailbox
	logger  *slog.Logger

	mu       sync.RWMutex
	trackers map[string]*TrackerConnection
	onGaze   func(trackerID string, s gaze.Sample)

	// Stats
	messagesReceived atomic.Uint64
	messagesSent     atomic.Uint64
	samplesAccepted  atomic.Uint64
	samplesRejected  atomic.Uint64
}

// NewHub creates a tracker hub that publishes into mailbox.
func NewHub(mailbox *gaze.Mailbox, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	if mailbox == nil {
		mailbox = gaze.NewMailbox()
	}
	return &Hub{
		mailbox:  mailbox,
		logger:   logger.With("component", "ingest"),
		trackers: make(map[string]*TrackerConnection),
	}
}

// Mailbox returns the mailbox samples are published to.
func (h *Hub) Mailbox() *gaze.Mailbox {
	return h.mailbox
}

// OnGaze sets a callback for every accepted sample
func (h *Hub) OnGaze(callback func(trackerID string, s gaze.Sample)) {
	h.mu.Lock()
	h.onGaze = callback
	h.mu.Unlock()
}

// RegisterRoutes registers WebSocket routes on a Fiber app
func (h *Hub) RegisterRoutes(app *fiber.App) {
	app.Use("/ws/tracker", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/tracker", websocket.New(h.handleTracker))
	app.Get("/ws/tracker/:id", websocket.New(h.handleTracker))
}

// handleTracker handles a tracker WebSocket connection
func (h *Hub) handleTracker(c *websocket.Conn) {
	trackerID := c.Params("id")
	if trackerID == "" {
		trackerID = uuid.NewString()
	}

	now := time.Now()
	tracker := &TrackerConnection{
		ID:        trackerID,
		Conn:      c,
		Connected: now,
		lastSeen:  now,
	}

	h.mu.Lock()
	if old, ok := h.trackers[trackerID]; ok {
		old.Conn.Close()
	}
	h.trackers[trackerID] = tracker
	count := len(h.trackers)
	h.mu.Unlock()

	h.logger.Info("tracker connected", "tracker", trackerID, "total", count)

	defer func() {
		h.mu.Lock()
		if h.trackers[trackerID] == tracker {
			delete(h.trackers, trackerID)
		}
		count := len(h.trackers)
		h.mu.Unlock()

		h.logger.Info("tracker disconnected", "tracker", trackerID, "total", count)
	}()

	if msg, err := protocol.NewWelcomeMessage(trackerID, ServerName); err == nil {
		h.send(tracker, msg)
	}

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			h.logger.Debug("tracker read error", "tracker", trackerID, "error", err)
			return
		}

		tracker.mu.Lock()
		tracker.lastSeen = time.Now()
		tracker.mu.Unlock()

		h.messagesReceived.Add(1)
		h.handleMessage(tracker, data)
	}
}

// handleMessage processes an incoming message from a tracker
func (h *Hub) handleMessage(tracker *TrackerConnection, data []byte) {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		h.logger.Warn("malformed tracker message", "tracker", tracker.ID, "error", err)
		h.reject(tracker, "parse_error", err.Error())
		return
	}

	switch msg.Type {
	case protocol.TypeHello:
		hello, err := msg.GetHelloData()
		if err != nil {
			h.reject(tracker, "bad_hello", err.Error())
			return
		}
		tracker.mu.Lock()
		tracker.name = hello.Name
		tracker.device = hello.Device
		tracker.mu.Unlock()
		h.logger.Info("tracker identified", "tracker", tracker.ID, "name", hello.Name, "device", hello.Device)

	case protocol.TypeGaze:
		data, err := msg.GetGazeData()
		if err != nil {
			h.samplesRejected.Add(1)
			h.reject(tracker, "bad_gaze", err.Error())
			return
		}
		h.accept(tracker, gaze.Sample{X: data.X, Y: data.Y}.Clamp())

	case protocol.TypePing:
		ping, _ := msg.GetPingData()
		id := ""
		if ping != nil {
			id = ping.ID
		}
		if pong, err := protocol.NewPongMessage(id, msg.Timestamp, time.Now().UnixMilli()); err == nil {
			h.send(tracker, pong)
		}

	case protocol.TypePong:
		// Keepalive only.

	default:
		h.reject(tracker, "unknown_type", string(msg.Type))
	}
}

func (h *Hub) accept(tracker *TrackerConnection, s gaze.Sample) {
	h.samplesAccepted.Add(1)
	h.mailbox.Publish(s)

	tracker.mu.Lock()
	tracker.last = s
	tracker.samples++
	tracker.mu.Unlock()

	debug.GazeLog("📡 [%s] gaze %.3f, %.3f\n", tracker.ID, s.X, s.Y)

	h.mu.RLock()
	cb := h.onGaze
	h.mu.RUnlock()
	if cb != nil {
		cb(tracker.ID, s)
	}
}

func (h *Hub) reject(tracker *TrackerConnection, code, message string) {
	if msg, err := protocol.NewErrorMessage(code, message); err == nil {
		h.send(tracker, msg)
	}
}

func (h *Hub) send(tracker *TrackerConnection, msg *protocol.Message) {
	h.messagesSent.Add(1)
	if err := tracker.Send(msg); err != nil {
		h.logger.Debug("tracker write error", "tracker", tracker.ID, "error", err)
	}
}

// SendTo sends a message to a specific tracker
func (h *Hub) SendTo(trackerID string, msg *protocol.Message) error {
	h.mu.RLock()
	tracker, ok := h.trackers[trackerID]
	h.mu.RUnlock()

	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "tracker not connected")
	}

	h.messagesSent.Add(1)
	return tracker.Send(msg)
}

// Broadcast sends a message to all connected trackers
func (h *Hub) Broadcast(msg *protocol.Message) {
	h.mu.RLock()
	trackers := make([]*TrackerConnection, 0, len(h.trackers))
	for _, t := range h.trackers {
		trackers = append(trackers, t)
	}
	h.mu.RUnlock()

	for _, t := range trackers {
		h.send(t, msg)
	}
}

// TrackerCount returns the number of connected trackers
func (h *Hub) TrackerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.trackers)
}

// Stats contains hub statistics
type Stats struct {
	TrackerCount     int    `json:"tracker_count"`
	MessagesReceived uint64 `json:"messages_received"`
	MessagesSent     uint64 `json:"messages_sent"`
	SamplesAccepted  uint64 `json:"samples_accepted"`
	SamplesRejected  uint64 `json:"samples_rejected"`
}

// GetStats returns hub statistics
func (h *Hub) GetStats() Stats {
	return Stats{
		TrackerCount:     h.TrackerCount(),
		MessagesReceived: h.messagesReceived.Load(),
		MessagesSent:     h.messagesSent.Load(),
		SamplesAccepted:  h.samplesAccepted.Load(),
		SamplesRejected:  h.samplesRejected.Load(),
	}
}

// TrackerInfo contains info about a connected tracker
type TrackerInfo struct {
	ID        string      `json:"id"`
	Name      string      `json:"name,omitempty"`
	Device    string      `json:"device,omitempty"`
	Connected time.Time   `json:"connected"`
	LastSeen  time.Time   `json:"last_seen"`
	Last      gaze.Sample `json:"last"`
	Samples   uint64      `json:"samples"`
}

// GetTrackerInfos returns info about all connected trackers
func (h *Hub) GetTrackerInfos() []TrackerInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()

	infos := make([]TrackerInfo, 0, len(h.trackers))
	for _, t := range h.trackers {
		t.mu.Lock()
		infos = append(infos, TrackerInfo{
			ID:        t.ID,
			Name:      t.name,
			Device:    t.device,
			Connected: t.Connected,
			LastSeen:  t.lastSeen,
			Last:      t.last,
			Samples:   t.samples,
		})
		t.mu.Unlock()
	}
	return infos
}

// GetTracker returns info about one tracker
func (h *Hub) GetTracker(trackerID string) (TrackerInfo, bool) {
	for _, info := range h.GetTrackerInfos() {
		if info.ID == trackerID {
			return info, true
		}
	}
	return TrackerInfo{}, false
}

// RegisterAPIRoutes registers API routes for tracker management
func (h *Hub) RegisterAPIRoutes(api fiber.Router) {
	trackers := api.Group("/trackers")

	trackers.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"trackers": h.GetTrackerInfos(),
			"count":    h.TrackerCount(),
		})
	})

	trackers.Get("/stats", func(c *fiber.Ctx) error {
		return c.JSON(h.GetStats())
	})

	trackers.Get("/:id", func(c *fiber.Ctx) error {
		info, ok := h.GetTracker(c.Params("id"))
		if !ok {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "tracker not connected"})
		}
		return c.JSON(info)
	})
}
