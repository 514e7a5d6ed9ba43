// Package web exposes the assistant's health and session state over HTTP,
// plus a small endpoint to make it speak on demand.
package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	orchestration "github.com/novahome/nova-core/core"
)

// Assistant is the slice of the orchestrator the web surface needs.
type Assistant interface {
	Session() orchestration.SessionSnapshot
	Say(text string) bool
}

type Server struct {
	app       *fiber.App
	addr      string
	assistant Assistant
}

func NewServer(addr string, assistant Assistant) *Server {
	s := &Server{
		addr:      addr,
		assistant: assistant,
	}

	app := fiber.New(fiber.Config{
		AppName:               "Nova",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	app.Get("/health", s.handleHealth)
	app.Get("/status", s.handleStatus)
	app.Post("/say", s.handleSay)

	s.app = app
	return s
}

func (s *Server) Listen() error {
	return s.app.Listen(s.addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.assistant.Session())
}

// SayRequest is the body for POST /say.
type SayRequest struct {
	Text string `json:"text"`
}

// handleSay queues text to be spoken from idle, like a camera announcement.
// A full queue answers 503 rather than blocking the request.
func (s *Server) handleSay(c *fiber.Ctx) error {
	var req SayRequest
	if err := c.BodyParser(&req); err != nil || req.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "a non-empty text field is required",
		})
	}

	if !s.assistant.Say(req.Text) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "speech queue is full",
		})
	}

	return c.JSON(fiber.Map{"queued": true})
}
