// Package router provides HTTP routing, middleware configuration, and server setup for the web application
package router

import (
	"encoding/json"
	"io"
	"log"
	"os"
	"time"

	"github.com/amirphl/crud-project/app/dto"
	"github.com/amirphl/crud-project/app/handlers"
	"github.com/amirphl/crud-project/app/middleware"
	"github.com/amirphl/crud-project/config"
	_ "github.com/amirphl/crud-project/docs"
	"github.com/amirphl/crud-project/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggo/swag"
)

// Router interface for HTTP routing
type Router interface {
	SetupRoutes()
	Start(address string) error
	GetApp() *fiber.App
}

// FiberRouter implements Router using Fiber v3
type FiberRouter struct {
	app           *fiber.App
	cfg           *config.ProductionConfig
	accessLog     io.Writer
	demoHandler   handlers.DemoHandlerInterface
	healthHandler handlers.HealthHandlerInterface
}

// NewFiberRouter creates a new Fiber router. Access logs go to accessLog, or stdout when nil
func NewFiberRouter(
	cfg *config.ProductionConfig,
	accessLog io.Writer,
	demoHandler handlers.DemoHandlerInterface,
	healthHandler handlers.HealthHandlerInterface,
) Router {
	app := fiber.New(fiber.Config{
		AppName:      "Demo Catalog API",
		ServerHeader: "crud-project",
		ErrorHandler: errorHandler,
		BodyLimit:    cfg.Server.BodyLimit,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})

	if accessLog == nil {
		accessLog = os.Stdout
	}

	return &FiberRouter{
		app:           app,
		cfg:           cfg,
		accessLog:     accessLog,
		demoHandler:   demoHandler,
		healthHandler: healthHandler,
	}
}

// SetupRoutes configures all application routes
func (r *FiberRouter) SetupRoutes() {
	log.Println("Setting up routes...")

	r.setupMiddleware()

	r.app.Get("/health", r.healthHandler.Health)
	r.app.Get("/swagger.json", r.serveSwaggerJSON)
	if r.cfg.Metrics.Enabled {
		r.app.Get(r.cfg.Metrics.Path, adaptor.HTTPHandler(promhttp.Handler()))
	}

	// Static segments are registered before /demo/:id
	demo := r.app.Group("/demo")
	demo.Get("/export", r.demoHandler.Export)
	demo.Post("/delete", r.demoHandler.DeleteMany)
	demo.Get("", r.demoHandler.List)
	demo.Post("", r.demoHandler.Create)
	demo.Put("/:id", r.demoHandler.Replace)
	demo.Patch("/:id", r.demoHandler.Patch)
	demo.Delete("/:id", r.demoHandler.Delete)

	r.app.Use(r.notFoundHandler)

	log.Println("Routes configured successfully")
}

func (r *FiberRouter) setupMiddleware() {
	// Request ID middleware - must be first
	r.app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return uuid.NewString()
		},
	}))

	r.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e any) {
			log.Printf(`{"time":"%s","level":"error","request_id":"%s","event":"panic","error":"%v","path":"%s","method":"%s","ip":"%s"}`,
				utils.UTCNow().Format(time.RFC3339),
				requestid.FromContext(c),
				e,
				c.Path(),
				c.Method(),
				c.IP(),
			)
		},
	}))

	r.app.Use(cors.New(cors.Config{
		AllowOrigins:  r.cfg.Security.AllowedOrigins,
		AllowMethods:  r.cfg.Security.AllowedMethods,
		AllowHeaders:  r.cfg.Security.AllowedHeaders,
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        r.cfg.Security.CORSMaxAge,
	}))

	if r.cfg.Logging.EnableAccessLog {
		r.app.Use(logger.New(logger.Config{
			Format:     `{"time":"${time}","request_id":"${respHeader:X-Request-ID}","level":"info","method":"${method}","path":"${path}","ip":"${ip}","user_agent":"${ua}","status":${status},"latency":"${latency}","bytes_in":${bytesReceived},"bytes_out":${bytesSent}}` + "\n",
			TimeFormat: time.RFC3339,
			TimeZone:   "UTC",
			Stream:     r.accessLog,
			Next: func(c fiber.Ctx) bool {
				return c.Path() == "/health" || c.Path() == r.cfg.Metrics.Path
			},
		}))
	}

	if r.cfg.Metrics.Enabled {
		r.app.Use(middleware.Metrics(r.cfg.Metrics.Path))
	}
}

// Start starts the HTTP server
func (r *FiberRouter) Start(address string) error {
	log.Printf("Starting server on %s", address)
	return r.app.Listen(address)
}

// GetApp returns the Fiber app instance
func (r *FiberRouter) GetApp() *fiber.App {
	return r.app
}

func (r *FiberRouter) serveSwaggerJSON(c fiber.Ctx) error {
	doc, err := swag.ReadDoc()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error:   "Failed to load Swagger documentation",
			Details: err.Error(),
		})
	}

	c.Set("Content-Type", "application/json")
	return c.SendString(doc)
}

func (r *FiberRouter) notFoundHandler(c fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
		Error: "The requested resource was not found",
		Details: fiber.Map{
			"path":       c.Path(),
			"method":     c.Method(),
			"request_id": requestid.FromContext(c),
		},
	})
}

func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "An internal server error occurred"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	log.Printf("Error %d: %v", code, err)

	return c.Status(code).JSON(dto.ErrorResponse{
		Error: message,
		Details: fiber.Map{
			"timestamp":  utils.UTCNowUnix(),
			"request_id": requestid.FromContext(c),
		},
	})
}
