// Package web provides a real-time dashboard for the foveation core.
//
// It exposes the quality profile, gaze provider, overlay, and pipeline
// over a REST API, and streams status, gaze, and overlay updates over
// websockets.
package web

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-foveate/pkg/gaze"
	"github.com/teslashibe/go-foveate/pkg/hub"
	"github.com/teslashibe/go-foveate/pkg/ingest"
	"github.com/teslashibe/go-foveate/pkg/overlay"
	"github.com/teslashibe/go-foveate/pkg/pipeline"
	"github.com/teslashibe/go-foveate/pkg/protocol"
	"github.com/teslashibe/go-foveate/pkg/quality"
	"github.com/teslashibe/go-foveate/pkg/region"
	"github.com/teslashibe/go-foveate/pkg/stats"
	"github.com/teslashibe/go-foveate/pkg/vrs"
)

// DefaultBroadcastInterval is how often Run pushes to websocket clients.
const DefaultBroadcastInterval = 100 * time.Millisecond

// Deps are the components the dashboard exposes. Any may be nil; the
// matching routes then answer 503.
type Deps struct {
	Profile    *quality.Profile
	Backend    *vrs.Backend
	Switcher   *gaze.Switcher
	Controller *region.Controller
	Overlay    *overlay.Visualizer
	Renderer   *pipeline.Renderer
	Stats      *stats.Collector
	Trackers   *ingest.Hub
}

// LogEntry represents a log line for the dashboard
type LogEntry struct {
	Time    string `json:"time"`
	Type    string `json:"type"` // info, preset, gaze, pipeline, error
	Message string `json:"message"`
}

// Server is the web dashboard server
type Server struct {
	app    *fiber.App
	port   string
	deps   Deps
	logger *slog.Logger

	// Serializes profile and provider changes from concurrent requests.
	controlMu sync.Mutex

	// Log buffer (last 500 entries)
	logs   []LogEntry
	logsMu sync.RWMutex

	// Hubs for websocket broadcast
	statusHub  *hub.Hub
	gazeHub    *hub.Hub
	overlayHub *hub.Hub
	logHub     *hub.Hub

	gazeSeq atomic.Uint64
}

// NewServer creates a new web dashboard server
func NewServer(port string, deps Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "web")

	s := &Server{
		port:       port,
		deps:       deps,
		logger:     logger,
		logs:       make([]LogEntry, 0, 500),
		statusHub:  hub.New("status", logger),
		gazeHub:    hub.New("gaze", logger),
		overlayHub: hub.New("overlay", logger).KeepLatest(),
		logHub:     hub.New("logs", logger),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Foveate Dashboard",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/logs", s.handleGetLogs)

	api.Get("/profile", s.handleGetProfile)
	api.Post("/profile/preset", s.handleSetPreset)
	api.Post("/profile/pattern", s.handleSetPattern)
	api.Post("/profile/rate/:zone", s.handleSetRate)
	api.Post("/profile/radii/:zone", s.handleSetRadii)

	api.Get("/gaze", s.handleGetGaze)
	api.Post("/gaze/method", s.handleSetMethod)

	api.Get("/region", s.handleGetRegion)
	api.Post("/region/mode", s.handleSetMode)
	api.Get("/backend", s.handleGetBackend)

	api.Get("/pipeline", s.handleGetPipeline)
	api.Post("/pipeline/toggle", s.handleTogglePipeline)
	api.Post("/pipeline/path", s.handleSetPath)

	api.Get("/overlay", s.handleGetOverlay)
	api.Post("/overlay/enabled", s.handleSetOverlayEnabled)
	api.Get("/overlay.png", s.handleOverlayPNG)

	if deps.Trackers != nil {
		deps.Trackers.RegisterRoutes(app)
		deps.Trackers.RegisterAPIRoutes(api)
	}

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket routes
	app.Get("/ws/status", s.statusHub.Handler())
	app.Get("/ws/gaze", s.gazeHub.Handler())
	app.Get("/ws/overlay", s.overlayHub.Handler())
	app.Get("/ws/logs", s.logHub.Handler())

	// Overlay changes are pushed as they happen; a new viewer starts from
	// the latest state.
	if deps.Overlay != nil {
		deps.Overlay.OnChange(func(st overlay.State) {
			s.overlayHub.BroadcastJSON(st)
		})
	}

	s.app = app
	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start starts the web server
func (s *Server) Start() error {
	s.logger.Info("web dashboard listening", "url", fmt.Sprintf("http://localhost:%s", s.port))

	s.startHubs()
	return s.app.Listen(":" + s.port)
}

// StartAsync starts the web server in a goroutine
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			s.logger.Warn("web server error", "error", err)
		}
	}()
}

func (s *Server) startHubs() {
	for _, h := range s.hubs() {
		if !h.IsRunning() {
			go h.Run()
		}
	}
}

func (s *Server) hubs() []*hub.Hub {
	return []*hub.Hub{s.statusHub, s.gazeHub, s.overlayHub, s.logHub}
}

// Run pushes status and gaze updates to websocket clients every interval
// until ctx is cancelled.
func (s *Server) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultBroadcastInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.broadcast()
		}
	}
}

func (s *Server) broadcast() {
	if s.statusHub.ClientCount() > 0 {
		if msg, err := protocol.NewStatusMessage(s.Status()); err == nil {
			s.broadcastMessage(s.statusHub, msg)
		}
	}

	if s.gazeHub.ClientCount() > 0 {
		g := s.currentGaze()
		if msg, err := protocol.NewGazeMessage(g.X, g.Y, 0, s.gazeSeq.Add(1)); err == nil {
			s.broadcastMessage(s.gazeHub, msg)
		}
	}
}

func (s *Server) broadcastMessage(h *hub.Hub, msg *protocol.Message) {
	data, err := msg.Bytes()
	if err != nil {
		return
	}
	h.Broadcast(hub.NewJSONMessage(data))
}

func (s *Server) currentGaze() gaze.Sample {
	if s.deps.Controller != nil {
		return s.deps.Controller.Last().Gaze
	}
	if s.deps.Switcher != nil {
		return s.deps.Switcher.Direction()
	}
	return gaze.Sample{}
}

// Status summarizes the running system
func (s *Server) Status() protocol.StatusData {
	g := s.currentGaze()
	st := protocol.StatusData{
		Gaze: [2]float64{g.X, g.Y},
	}
	if s.deps.Switcher != nil {
		st.Method = string(s.deps.Switcher.Active())
	}
	if s.deps.Stats != nil {
		st.FPS = s.deps.Stats.FPS()
	}
	if s.deps.Profile != nil {
		snap := s.deps.Profile.Snapshot()
		st.Preset = snap.RatePresetName
		st.Pattern = snap.PatternName
		st.Session = snap.Ready
	}
	if s.deps.Renderer != nil {
		st.Pipeline = s.deps.Renderer.Scheduler().Enabled()
	}
	if s.deps.Trackers != nil {
		st.Trackers = s.deps.Trackers.TrackerCount()
	}
	if s.deps.Controller != nil {
		st.ZoneObjects = s.deps.Controller.Last().Zones
	}
	return st
}

// AddLog adds a log entry and broadcasts to clients
func (s *Server) AddLog(logType, message string) {
	entry := LogEntry{
		Time:    time.Now().Format("15:04:05"),
		Type:    logType,
		Message: message,
	}

	s.logsMu.Lock()
	s.logs = append(s.logs, entry)
	if len(s.logs) > 500 {
		s.logs = s.logs[1:]
	}
	s.logsMu.Unlock()

	s.logHub.BroadcastJSON(entry)
}

// Logs returns a copy of the log buffer
func (s *Server) Logs() []LogEntry {
	s.logsMu.RLock()
	defer s.logsMu.RUnlock()
	return append([]LogEntry(nil), s.logs...)
}

// StatusHub returns the status hub for external use
func (s *Server) StatusHub() *hub.Hub {
	return s.statusHub
}

// GazeHub returns the gaze hub for external use
func (s *Server) GazeHub() *hub.Hub {
	return s.gazeHub
}

// Shutdown gracefully stops the web server
func (s *Server) Shutdown() error {
	for _, h := range s.hubs() {
		h.Stop()
	}
	return s.app.Shutdown()
}
