// Package web provides the real-time dashboard and control API for Lumen.
//
// The dashboard shows the live perception stream (recognized signs, object
// detections, skips) over websocket, exposes pipeline metrics, and lets the
// companion app switch modes and tune thresholds over plain HTTP.
package web

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/lumenlabs/go-lumen/internal/log"
	"github.com/lumenlabs/go-lumen/pkg/hub"
	"github.com/lumenlabs/go-lumen/pkg/percept"
)

// Pipeline is the slice of the orchestrator the dashboard needs.
type Pipeline interface {
	Mode() percept.Mode
	SwitchMode(percept.Mode) error
	SetConfidenceThresholds(static, dynamic float64) error
	SetAdaptiveInference(enabled bool)
	SetAudioAlerts(enabled bool)
	RecentResults(n int) []percept.Result
	ASLSequence() string
	Metrics() map[string]any
	ResetModeState()
}

// Server is the dashboard server.
type Server struct {
	app      *fiber.App
	port     string
	pipeline Pipeline

	// Hubs for websocket broadcast
	resultHub *hub.Hub
	frameHub  *hub.Hub
}

// NewServer creates a dashboard server over the given pipeline.
func NewServer(port string, pipeline Pipeline) *Server {
	s := &Server{
		port:      port,
		pipeline:  pipeline,
		resultHub: hub.New("results"),
		frameHub:  hub.New("frames"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Lumen Dashboard",
		DisableStartupMessage: true,
	})

	// CORS for the companion app during development
	app.Use(cors.New())

	// Static files
	app.Static("/", "./web")

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/results", s.handleResults)
	api.Get("/sequence", s.handleSequence)
	api.Post("/mode/:name", s.handleSwitchMode)
	api.Post("/thresholds", s.handleThresholds)
	api.Post("/settings", s.handleSettings)
	api.Post("/reset", s.handleReset)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket routes
	app.Get("/ws/results", websocket.New(s.handleResultsWS))
	app.Get("/ws/frames", websocket.New(s.handleFramesWS))

	s.app = app
	return s
}

// Start starts the dashboard server. Blocks until Shutdown.
func (s *Server) Start() error {
	log.Component("web").Info("dashboard listening", "port", s.port)

	go s.resultHub.Run()
	go s.frameHub.Run()

	return s.app.Listen(":" + s.port)
}

// StartAsync starts the server in a goroutine.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			log.Component("web").Error("dashboard server failed", "error", err)
		}
	}()
}

// PublishResult broadcasts a perception result to websocket clients.
func (s *Server) PublishResult(res percept.Result) {
	if err := s.resultHub.BroadcastJSON(encodeResult(res)); err != nil {
		log.Component("web").Warn("result encode failed", "error", err)
	}
}

// PublishFrame broadcasts a preview JPEG to websocket clients.
func (s *Server) PublishFrame(jpeg []byte) {
	s.frameHub.BroadcastBinary(jpeg)
}

// ResultClientCount returns the number of live result subscribers.
func (s *Server) ResultClientCount() int {
	return s.resultHub.ClientCount()
}

// Shutdown gracefully stops the server and disconnects all clients.
func (s *Server) Shutdown() error {
	s.resultHub.Stop()
	s.frameHub.Stop()
	return s.app.ShutdownWithTimeout(5 * time.Second)
}

// handleResultsWS streams perception results to a dashboard client.
func (s *Server) handleResultsWS(c *websocket.Conn) {
	client := hub.NewClient(s.resultHub, c)
	client.Run()
}

// handleFramesWS streams preview frames to a dashboard client.
func (s *Server) handleFramesWS(c *websocket.Conn) {
	client := hub.NewClient(s.frameHub, c)
	client.Run()
}
