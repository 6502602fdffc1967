// Package server exposes the widget over HTTP for hosts that poll or embed it
package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	go_json "github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"

	"github.com/mrcode/nightscout-widget/internal/models"
	"github.com/mrcode/nightscout-widget/internal/nightscout"
	"github.com/mrcode/nightscout-widget/internal/render"
	"github.com/mrcode/nightscout-widget/internal/version"
	"github.com/mrcode/nightscout-widget/internal/widget"
	"github.com/mrcode/nightscout-widget/internal/xhttp"
	"github.com/mrcode/nightscout-widget/internal/xslog"
)

// Snapshots is the scheduler as seen by the HTTP layer
type Snapshots interface {
	Current() models.WidgetSnapshot
	Timeline() widget.Timeline
	Reload(ctx context.Context) models.WidgetSnapshot
}

// Thresholds reads and refreshes the stored thresholds
type Thresholds interface {
	Get(ctx context.Context) models.GlucoseThresholds
	Refresh(ctx context.Context) (models.GlucoseThresholds, error)
}

// DisplayFunc resolves the current render options
type DisplayFunc func(ctx context.Context) render.Options

// Server denotes the widget HTTP host
type Server struct {
	snapshots  Snapshots
	thresholds Thresholds
	display    DisplayFunc
	logger     *slog.Logger
	router     *fiber.App
}

// New instantiates the server and registers its routes
func New(snapshots Snapshots, thresholds Thresholds, display DisplayFunc, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		snapshots:  snapshots,
		thresholds: thresholds,
		display:    display,
		logger:     logger,
	}
	s.router = fiber.New(fiber.Config{
		AppName:               "nightscout-widget",
		DisableStartupMessage: true,
		JSONEncoder:           go_json.Marshal,
		JSONDecoder:           go_json.Unmarshal,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          s.handleError,
	})

	// Setup routes
	s.router.Get("/healthz", s.handleHealth())
	s.router.Get("/api/snapshot", s.handleSnapshot())
	s.router.Get("/api/timeline", s.handleTimeline())
	s.router.Post("/api/reload", s.handleReload())
	s.router.Get("/api/thresholds", s.handleThresholds())
	s.router.Post("/api/thresholds/refresh", s.handleRefreshThresholds())
	s.router.Get("/widget/:size.png", s.handleWidget())

	return s
}

// App returns the underlying fiber app
func (s *Server) App() *fiber.App {
	return s.router
}

// Listen serves on addr until Shutdown is called
func (s *Server) Listen(addr string) error {
	s.logger.Info("widget host listening", xslog.URL("http://"+addr), xslog.Version())
	return s.router.Listen(addr)
}

// Shutdown stops accepting connections and waits for in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	return s.router.ShutdownWithContext(ctx)
}

func (s *Server) handleHealth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "version": version.Get()})
	}
}

func (s *Server) handleSnapshot() fiber.Handler {
	return func(c *fiber.Ctx) error {
		opts := s.display(c.UserContext())
		return c.JSON(newSnapshotView(s.snapshots.Current(), opts))
	}
}

func (s *Server) handleTimeline() fiber.Handler {
	return func(c *fiber.Ctx) error {
		opts := s.display(c.UserContext())
		tl := s.snapshots.Timeline()

		entries := make([]snapshotView, 0, len(tl.Entries))
		for _, e := range tl.Entries {
			entries = append(entries, newSnapshotView(e, opts))
		}
		return c.JSON(timelineView{Entries: entries, NextRefresh: tl.NextRefresh})
	}
}

func (s *Server) handleReload() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		snapshot := s.snapshots.Reload(ctx)
		return c.JSON(newSnapshotView(snapshot, s.display(ctx)))
	}
}

func (s *Server) handleThresholds() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(s.thresholds.Get(c.UserContext()))
	}
}

func (s *Server) handleRefreshThresholds() fiber.Handler {
	return func(c *fiber.Ctx) error {
		t, err := s.thresholds.Refresh(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(t)
	}
}

func (s *Server) handleWidget() fiber.Handler {
	return func(c *fiber.Ctx) error {
		size, err := render.ParseSize(c.Params("size"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}

		data, err := render.PNG(s.snapshots.Current(), size, s.display(c.UserContext()))
		if err != nil {
			return err
		}

		c.Set(fiber.HeaderContentType, xhttp.ImagePNG)
		c.Set(fiber.HeaderCacheControl, "no-cache")
		return c.Send(data)
	}
}

// handleError maps client errors to status codes and writes a JSON error body
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := err.Error()

	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		status = fe.Code
		message = fe.Message
	case errors.Is(err, nightscout.ErrNotConfigured):
		status = fiber.StatusConflict
		message = nightscout.Describe(err)
	case nightscout.IsRemote(err):
		status = fiber.StatusBadGateway
		message = nightscout.Describe(err)
	}

	if status >= fiber.StatusInternalServerError {
		s.logger.ErrorContext(c.UserContext(), "request failed",
			slog.String("path", c.Path()),
			xslog.HTTPStatus(status),
			xslog.Error(err),
		)
	}
	return c.Status(status).JSON(fiber.Map{"error": message})
}
