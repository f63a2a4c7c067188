package main

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

// StrokeRequest is the body of POST /api/strokes
type StrokeRequest struct {
	Points []CanvasPoint `json:"points"`
}

// HTTPAPI is the UI-facing HTTP surface of the bridge
type HTTPAPI struct {
	store         *DrawingStore
	actionHandler *ActionHandler
	framer        *TransportFramer
	monitor       *LinkStatusMonitor
	linkConfig    LinkConfig
}

// NewHTTPAPI creates the HTTP API handlers
func NewHTTPAPI(store *DrawingStore, actionHandler *ActionHandler, framer *TransportFramer,
	monitor *LinkStatusMonitor, linkConfig LinkConfig) *HTTPAPI {
	return &HTTPAPI{
		store:         store,
		actionHandler: actionHandler,
		framer:        framer,
		monitor:       monitor,
		linkConfig:    linkConfig,
	}
}

// NewApp builds the fiber application with all routes registered
func (h *HTTPAPI) NewApp(withRequestLog bool) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	if withRequestLog {
		app.Use(logger.New())
	}
	app.Use(cors.New(cors.Config{
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, DELETE, OPTIONS",
	}))

	api := app.Group("/api")
	api.Get("/health", h.handleHealth)
	api.Get("/status", h.handleStatus)

	drawing := api.Group("/drawing")
	drawing.Get("/", h.handleGetDrawing)
	drawing.Delete("/", h.handleClearDrawing)
	drawing.Post("/undo", h.handleUndo)
	drawing.Get("/commands", h.handleGetCommands)

	api.Post("/strokes", h.handleAddStroke)
	api.Post("/actions/:action", h.handleAction)

	return app
}

func (h *HTTPAPI) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "OK",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (h *HTTPAPI) handleStatus(c *fiber.Ctx) error {
	return c.JSON(h.monitor.BuildStatusMessage())
}

// handleGetDrawing returns the drawing for the rendering collaborator
func (h *HTTPAPI) handleGetDrawing(c *fiber.Ctx) error {
	strokes := h.store.Strokes()
	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(strokes),
		"strokes": strokes,
		"current": h.store.CurrentStroke(),
	})
}

func (h *HTTPAPI) handleClearDrawing(c *fiber.Ctx) error {
	removed := h.store.Clear()
	return c.JSON(fiber.Map{
		"success": true,
		"removed": removed,
	})
}

func (h *HTTPAPI) handleUndo(c *fiber.Ctx) error {
	stroke, ok := h.store.UndoLastStroke()
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "nothing to undo",
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"stroke":  stroke,
	})
}

// handleGetCommands previews the compiled program and its framing
func (h *HTTPAPI) handleGetCommands(c *fiber.Ctx) error {
	lists := h.actionHandler.CompileDrawing()
	chunks, err := h.framer.Frame(lists)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"commands": lists,
		"chunks":   len(chunks),
	})
}

func (h *HTTPAPI) handleAddStroke(c *fiber.Ctx) error {
	var req StrokeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid request body",
		})
	}

	stroke, err := h.store.AddStroke(req.Points)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"stroke":  stroke,
	})
}

// handleAction runs an action synchronously and returns its result
func (h *HTTPAPI) handleAction(c *fiber.Ctx) error {
	action := &ActionMessage{Action: c.Params("action"), RequestID: c.Query("requestId")}
	if err := ValidateAction(action); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ActionResult{
			Action:  action.Action,
			Message: err.Error(),
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout(h.linkConfig))
	defer cancel()

	result := h.actionHandler.Execute(ctx, action)
	status := fiber.StatusOK
	if !result.Success {
		status = fiber.StatusConflict
	}
	return c.Status(status).JSON(result)
}
