package web

import (
	"bytes"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/teslashibe/go-foveate/pkg/gaze"
	"github.com/teslashibe/go-foveate/pkg/pipeline"
	"github.com/teslashibe/go-foveate/pkg/quality"
	"github.com/teslashibe/go-foveate/pkg/region"
	"github.com/teslashibe/go-foveate/pkg/zone"
)

var errUnavailable = errors.New("component not configured")

func unavailable(c *fiber.Ctx) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": errUnavailable.Error(),
	})
}

func badRequest(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": err.Error(),
	})
}

// SelectRequest names a preset or pattern. Value may be a name or a number.
type SelectRequest struct {
	Value any `json:"value"`
}

// text renders the value the way the quality parsers expect.
func (r SelectRequest) text() string {
	switch v := r.Value.(type) {
	case string:
		return v
	case float64:
		return strconv.Itoa(int(v))
	case nil:
		return ""
	default:
		return ""
	}
}

// handleStatus returns the system summary
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.Status())
}

// handleGetLogs returns recent log entries
func (s *Server) handleGetLogs(c *fiber.Ctx) error {
	return c.JSON(s.Logs())
}

// handleGetProfile returns the quality profile
func (s *Server) handleGetProfile(c *fiber.Ctx) error {
	if s.deps.Profile == nil {
		return unavailable(c)
	}
	return c.JSON(s.deps.Profile.Snapshot())
}

// handleSetPreset selects a shading-rate preset
func (s *Server) handleSetPreset(c *fiber.Ctx) error {
	if s.deps.Profile == nil {
		return unavailable(c)
	}
	var req SelectRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}

	s.controlMu.Lock()
	err := s.deps.Profile.ApplyPresetName(req.text())
	s.controlMu.Unlock()
	if err != nil {
		return badRequest(c, err)
	}

	snap := s.deps.Profile.Snapshot()
	s.AddLog("preset", "Rate preset → "+snap.RatePresetName)
	return c.JSON(snap)
}

// handleSetPattern selects a foveation pattern
func (s *Server) handleSetPattern(c *fiber.Ctx) error {
	if s.deps.Profile == nil {
		return unavailable(c)
	}
	var req SelectRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}

	s.controlMu.Lock()
	err := s.deps.Profile.ApplyPatternName(req.text())
	s.controlMu.Unlock()
	if err != nil {
		return badRequest(c, err)
	}

	snap := s.deps.Profile.Snapshot()
	s.AddLog("preset", "Pattern → "+snap.PatternName)
	if s.deps.Controller != nil {
		s.syncRegionRadii(snap)
	}
	return c.JSON(snap)
}

// RateRequest assigns a shading rate to one zone.
type RateRequest struct {
	Rate any `json:"rate"`
}

// handleSetRate assigns a custom shading rate to a zone
func (s *Server) handleSetRate(c *fiber.Ctx) error {
	if s.deps.Profile == nil {
		return unavailable(c)
	}
	z, err := zone.Parse(c.Params("zone"))
	if err != nil {
		return badRequest(c, err)
	}
	var req RateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	rate, err := quality.ParseShadingRate(SelectRequest{Value: req.Rate}.text())
	if err != nil {
		return badRequest(c, err)
	}

	s.controlMu.Lock()
	applied := s.deps.Profile.AssignQuality(z, rate)
	s.controlMu.Unlock()

	s.AddLog("preset", "Zone "+z.String()+" rate → "+rate.String())
	return c.JSON(fiber.Map{
		"zone":    z.String(),
		"rate":    s.deps.Profile.Quality(z).String(),
		"applied": applied,
	})
}

// handleSetRadii assigns custom radii to a zone
func (s *Server) handleSetRadii(c *fiber.Ctx) error {
	if s.deps.Profile == nil {
		return unavailable(c)
	}
	z, err := zone.Parse(c.Params("zone"))
	if err != nil {
		return badRequest(c, err)
	}
	var r zone.Radii
	if err := c.BodyParser(&r); err != nil {
		return badRequest(c, err)
	}

	s.controlMu.Lock()
	applied := s.deps.Profile.AssignRadii(z, r)
	s.controlMu.Unlock()

	if s.deps.Controller != nil {
		s.syncRegionRadii(s.deps.Profile.Snapshot())
	}
	return c.JSON(fiber.Map{
		"zone":    z.String(),
		"radii":   s.deps.Profile.Radii(z),
		"applied": applied,
	})
}

// syncRegionRadii mirrors the inner and middle shading ellipses into the
// controller so detail zones and the overlay match the shading pattern.
func (s *Server) syncRegionRadii(snap quality.Snapshot) {
	radii := []zone.Radii{snap.Radii[zone.Inner], snap.Radii[zone.Middle]}
	if err := s.deps.Controller.SetRadii(radii); err != nil {
		s.logger.Warn("region radii not updated", "error", err)
	}
}

// handleGetGaze returns the active provider and its latest sample
func (s *Server) handleGetGaze(c *fiber.Ctx) error {
	if s.deps.Switcher == nil {
		return unavailable(c)
	}
	resp := fiber.Map{
		"method":    s.deps.Switcher.Active(),
		"sample":    s.deps.Switcher.Direction(),
		"available": gaze.AvailableMethods(),
	}
	if st, ok := s.deps.Switcher.Stats(); ok {
		resp["stats"] = st
	}
	return c.JSON(resp)
}

// MethodRequest selects a gaze provider.
type MethodRequest struct {
	Method string `json:"method"`
	Port   int    `json:"port,omitempty"`
	Device *int   `json:"device,omitempty"`
}

// handleSetMethod swaps the gaze provider
func (s *Server) handleSetMethod(c *fiber.Ctx) error {
	if s.deps.Switcher == nil {
		return unavailable(c)
	}
	var req MethodRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}

	cfg := s.deps.Switcher.Config()
	cfg.Method = gaze.Method(strings.ToLower(req.Method))
	if req.Port > 0 {
		cfg.Port = req.Port
	}
	if req.Device != nil {
		cfg.Device = *req.Device
	}

	s.controlMu.Lock()
	err := s.deps.Switcher.Switch(c.UserContext(), cfg)
	s.controlMu.Unlock()
	if err != nil {
		s.AddLog("error", "Gaze switch failed: "+err.Error())
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":  err.Error(),
			"method": s.deps.Switcher.Active(),
		})
	}

	if s.deps.Stats != nil {
		s.deps.Stats.GazeSwitched()
	}
	s.AddLog("gaze", "Gaze provider → "+string(cfg.Method))
	return c.JSON(fiber.Map{"method": s.deps.Switcher.Active()})
}

// handleGetRegion returns the controller config and its last tick
func (s *Server) handleGetRegion(c *fiber.Ctx) error {
	if s.deps.Controller == nil {
		return unavailable(c)
	}
	return c.JSON(fiber.Map{
		"config":  s.deps.Controller.Config(),
		"last":    s.deps.Controller.Last(),
		"running": s.deps.Controller.Running(),
	})
}

// handleSetMode switches detail, shading, or both
func (s *Server) handleSetMode(c *fiber.Ctx) error {
	if s.deps.Controller == nil {
		return unavailable(c)
	}
	var req struct {
		Mode string `json:"mode"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	if err := s.deps.Controller.SetMode(region.Mode(req.Mode)); err != nil {
		return badRequest(c, err)
	}
	mode := s.deps.Controller.Config().Mode
	s.AddLog("info", "Region mode → "+string(mode))
	return c.JSON(fiber.Map{"mode": mode})
}

// handleGetBackend returns the software shading backend state
func (s *Server) handleGetBackend(c *fiber.Ctx) error {
	if s.deps.Backend == nil {
		return unavailable(c)
	}
	return c.JSON(s.deps.Backend.State())
}

// handleGetPipeline returns the scheduler state and the last frame trace
func (s *Server) handleGetPipeline(c *fiber.Ctx) error {
	if s.deps.Renderer == nil {
		return unavailable(c)
	}
	r := s.deps.Renderer
	return c.JSON(fiber.Map{
		"style":   r.Style(),
		"path":    r.Scheduler().Path().String(),
		"enabled": r.Scheduler().Enabled(),
		"frames":  r.Frame().Frames(),
		"trace":   r.Frame().Last().Strings(),
	})
}

// handleTogglePipeline attaches or detaches the shading brackets
func (s *Server) handleTogglePipeline(c *fiber.Ctx) error {
	if s.deps.Renderer == nil {
		return unavailable(c)
	}
	s.controlMu.Lock()
	enabled := s.deps.Renderer.Toggle()
	s.controlMu.Unlock()

	state := "off"
	if enabled {
		state = "on"
	}
	s.AddLog("pipeline", "Foveation brackets "+state)
	return c.JSON(fiber.Map{"enabled": enabled})
}

// handleSetPath switches forward or deferred rendering
func (s *Server) handleSetPath(c *fiber.Ctx) error {
	if s.deps.Renderer == nil {
		return unavailable(c)
	}
	var req struct {
		Path string `json:"path"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	p, err := pipeline.ParsePath(req.Path)
	if err != nil {
		return badRequest(c, err)
	}

	s.controlMu.Lock()
	s.deps.Renderer.SetPath(p)
	s.controlMu.Unlock()

	s.AddLog("pipeline", "Render path → "+p.String())
	return c.JSON(fiber.Map{"path": p.String()})
}

// handleGetOverlay returns the overlay geometry
func (s *Server) handleGetOverlay(c *fiber.Ctx) error {
	if s.deps.Overlay == nil {
		return unavailable(c)
	}
	return c.JSON(s.deps.Overlay.State())
}

// handleSetOverlayEnabled shows or hides the overlay
func (s *Server) handleSetOverlayEnabled(c *fiber.Ctx) error {
	if s.deps.Overlay == nil {
		return unavailable(c)
	}
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	s.deps.Overlay.SetEnabled(req.Enabled)
	return c.JSON(s.deps.Overlay.State())
}

// handleOverlayPNG renders the overlay as an image
func (s *Server) handleOverlayPNG(c *fiber.Ctx) error {
	if s.deps.Overlay == nil {
		return unavailable(c)
	}
	var buf bytes.Buffer
	if err := s.deps.Overlay.Render(&buf); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(buf.Bytes())
}
