package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"medicamentos-etl/core/loader"
	"medicamentos-etl/core/logger"
	"medicamentos-etl/core/middleware/auth"
	"medicamentos-etl/core/middleware/rayid"
	"medicamentos-etl/feature/integrity"
	"medicamentos-etl/feature/manual"
	"medicamentos-etl/feature/medicamentos"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "medicamentos-etl/docs/swagger"
)

// @title Medicamentos ETL API
// @version 1.0
// @description API for running the medicamentos pipeline, loading manual datasets and checking published data.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long:  `Starts the HTTP server and initializes all enabled features.`,
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	RootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := bootstrap(true)
	if err != nil {
		return err
	}
	defer a.close()
	zap.ReplaceGlobals(a.log)
	logg := a.log

	pipeline, err := a.pipeline()
	if err != nil {
		return err
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true, // We log our own startup message
		ReadTimeout:           time.Duration(a.cfg.Server.ReadTimeoutSeconds) * time.Second,
	})

	mgr := loader.NewManager(logg)
	mgr.Register(medicamentos.NewFeature(pipeline))
	mgr.Register(manual.NewFeature(a.manual()))
	mgr.Register(integrity.NewFeature(a.integrity(integrityCacheTTL)))

	// RayID must be first to trace everything
	app.Use(rayid.New())

	app.Use(func(c *fiber.Ctx) error {
		l := logger.WithRayID(logg, c)
		l.Info("Request started",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("ip", c.IP()),
		)
		err := c.Next()
		if err != nil {
			l.Error("Request error", zap.Error(err))
		}
		return err
	})

	// Public endpoints
	app.Get("/swagger/*", swagger.HandlerDefault)
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "targets": a.coordinator.Targets()})
	})
	app.Get("/metrics", adaptor.HTTPHandler(a.metrics.Handler()))

	app.Use(auth.New(auth.Config{ApiKey: a.cfg.Server.ApiKey, Skip: []string{"/health", "/metrics"}}))
	if !a.cfg.Server.AuthEnabled() {
		logg.Warn("No API key configured, the API is unauthenticated")
	}

	if err := mgr.LoadAll(app); err != nil {
		return err
	}

	errc := make(chan error, 1)
	go func() {
		logg.Info("Starting server", zap.String("address", a.cfg.Server.Address()))
		errc <- app.Listen(a.cfg.Server.Address())
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errc:
		return err
	case <-c:
	}
	logg.Info("Shutting down server...")
	return app.Shutdown()
}
