package handler

import (
	"bufio"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/angelahq/angela/internal/middleware"
	"github.com/angelahq/angela/internal/service"
)

// EventsHandler handles Server-Sent Events endpoints
type EventsHandler struct {
	realtimeService *service.RealtimeService
	logger          *zap.Logger
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(realtimeService *service.RealtimeService, logger *zap.Logger) *EventsHandler {
	return &EventsHandler{
		realtimeService: realtimeService,
		logger:          logger,
	}
}

// StreamEvents handles GET /events/stream. The dashboard keeps one
// stream open and receives new messages, title changes and due
// reminders as they happen.
func (h *EventsHandler) StreamEvents(c *fiber.Ctx) error {
	// Set SSE headers
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("Transfer-Encoding", "chunked")
	c.Set("X-Accel-Buffering", "no") // Disable nginx buffering

	sub := h.realtimeService.Subscribe(c.Context())

	h.logger.Info("SSE client connected",
		zap.String("subscriber_id", sub.ID),
	)

	// Use Fiber's streaming
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		// Send initial connection event
		fmt.Fprintf(w, "event: connected\n")
		fmt.Fprintf(w, "data: {\"subscriberId\":\"%s\"}\n\n", sub.ID)
		w.Flush()

		// Send heartbeat every 30 seconds
		heartbeat := time.NewTicker(30 * time.Second)
		defer heartbeat.Stop()

		for {
			select {
			case event, ok := <-sub.Channel:
				if !ok {
					// Channel closed
					return
				}

				data, err := service.FormatSSE(event)
				if err != nil {
					h.logger.Error("failed to format SSE event", zap.Error(err))
					continue
				}

				fmt.Fprintf(w, "event: %s\n", event.Type)
				w.Write(data)
				w.Flush()

			case <-heartbeat.C:
				// Send heartbeat to keep connection alive
				fmt.Fprintf(w, ": heartbeat\n\n")
				w.Flush()

			case <-sub.Done:
				return

			case <-c.Context().Done():
				h.realtimeService.Unsubscribe(sub.ID)
				return
			}
		}
	}))

	return nil
}

// GetSubscribers handles GET /events/subscribers
func (h *EventsHandler) GetSubscribers(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"count": h.realtimeService.SubscriberCount(),
	})
}

// RegisterRoutes registers event routes on the given router group.
func (h *EventsHandler) RegisterRoutes(r fiber.Router, auth *middleware.AuthMiddleware) {
	events := r.Group("/events")

	events.Get("/stream", auth.RequireScope("chat:read"), h.StreamEvents)
	events.Get("/subscribers", auth.RequireScope("chat:read"), h.GetSubscribers)
}
