package web

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/lumenlabs/go-lumen/pkg/alerting"
	"github.com/lumenlabs/go-lumen/pkg/detection"
	"github.com/lumenlabs/go-lumen/pkg/percept"
)

// resultJSON is the wire shape of a perception result.
type resultJSON struct {
	ID           string             `json:"id"`
	Kind         string             `json:"kind"`
	Mode         string             `json:"mode"`
	Sign         *signJSON          `json:"sign,omitempty"`
	Detections   []detection.Object `json:"detections,omitempty"`
	Alerts       *alerting.Summary  `json:"alerts,omitempty"`
	SkipReason   string             `json:"skip_reason,omitempty"`
	Error        string             `json:"error,omitempty"`
	ProcessingMs int64              `json:"processing_ms"`
	Timestamp    time.Time          `json:"timestamp"`
}

type signJSON struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Kind       string  `json:"kind"`
}

func encodeResult(res percept.Result) resultJSON {
	out := resultJSON{
		ID:           res.ID,
		Kind:         string(res.Kind),
		Mode:         res.Mode.String(),
		Detections:   res.Detections,
		SkipReason:   string(res.SkipReason),
		Error:        res.ErrString(),
		ProcessingMs: res.ProcessingTime.Milliseconds(),
		Timestamp:    res.Timestamp,
	}
	if res.Sign != nil {
		out.Sign = &signJSON{
			Label:      res.Sign.Label,
			Confidence: res.Sign.Confidence,
			Kind:       string(res.Sign.Kind),
		}
	}
	if res.Kind == percept.KindDetection {
		alerts := res.Alerts
		out.Alerts = &alerts
	}
	return out
}

// handleStatus returns the pipeline mode and metrics.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"mode":    s.pipeline.Mode().String(),
		"clients": s.ResultClientCount(),
		"metrics": s.pipeline.Metrics(),
	})
}

// handleResults returns recent perception results, most recent first.
func (s *Server) handleResults(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)
	results := s.pipeline.RecentResults(limit)

	out := make([]resultJSON, len(results))
	for i, res := range results {
		out[i] = encodeResult(res)
	}
	return c.JSON(out)
}

// handleSequence returns the recognized sign sequence of the session.
func (s *Server) handleSequence(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"sequence": s.pipeline.ASLSequence()})
}

// handleSwitchMode switches the pipeline mode.
func (s *Server) handleSwitchMode(c *fiber.Ctx) error {
	mode, err := percept.ParseMode(c.Params("name"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if err := s.pipeline.SwitchMode(mode); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"mode": mode.String()})
}

// thresholdsRequest is the body for POST /api/thresholds.
type thresholdsRequest struct {
	Static  float64 `json:"static"`
	Dynamic float64 `json:"dynamic"`
}

// handleThresholds updates confidence thresholds.
func (s *Server) handleThresholds(c *fiber.Ctx) error {
	var req thresholdsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid body",
		})
	}
	if err := s.pipeline.SetConfidenceThresholds(req.Static, req.Dynamic); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"static": req.Static, "dynamic": req.Dynamic})
}

// settingsRequest is the body for POST /api/settings. Pointers distinguish
// "absent" from "false".
type settingsRequest struct {
	AdaptiveInference *bool `json:"adaptive_inference"`
	AudioAlerts       *bool `json:"audio_alerts"`
}

// handleSettings toggles runtime settings.
func (s *Server) handleSettings(c *fiber.Ctx) error {
	var req settingsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid body",
		})
	}
	if req.AdaptiveInference != nil {
		s.pipeline.SetAdaptiveInference(*req.AdaptiveInference)
	}
	if req.AudioAlerts != nil {
		s.pipeline.SetAudioAlerts(*req.AudioAlerts)
	}
	return c.JSON(fiber.Map{"ok": true})
}

// handleReset clears per-mode transient state.
func (s *Server) handleReset(c *fiber.Ctx) error {
	s.pipeline.ResetModeState()
	return c.JSON(fiber.Map{"ok": true})
}
