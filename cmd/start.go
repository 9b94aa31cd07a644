package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"roster-verifier/core/loader"
	"roster-verifier/core/logger"
	"roster-verifier/core/middleware/auth"
	"roster-verifier/core/middleware/rayid"
	"roster-verifier/feature/verification"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "roster-verifier/docs/swagger"
)

// @title Roster Verifier API
// @version 1.0
// @description API for verifying tournament applications against the federation registry.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the roster verifier server",
	Long:  `Starts the HTTP server and initializes all enabled features.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load configuration, logger and database
		rt, err := newServices()
		if err != nil {
			log.Fatalf("Failed to start: %v", err)
		}
		defer rt.Close()
		logg := rt.log
		zap.ReplaceGlobals(logg)

		if err := rt.store.Migrate(context.Background()); err != nil {
			logg.Fatal("Failed to migrate database", zap.Error(err))
		}

		// 2. Reconciliation engine
		engine, err := rt.engine(context.Background(), prometheus.DefaultRegisterer)
		if err != nil {
			logg.Fatal("Failed to create reconciliation engine", zap.Error(err))
		}

		// 3. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true, // We will log our own startup message
			ReadTimeout:           rt.cfg.Server.ReadTimeout,
			WriteTimeout:          rt.cfg.Server.WriteTimeout,
		})

		// 4. Initialize Feature Loader
		mgr := loader.NewManager()
		mgr.Register(verification.NewFeature(engine, rt.store, logg))

		// Middleware Registration
		// 1. RayID (Must be first to trace everything)
		app.Use(rayid.New())

		// 2. Request logging with the ray id attached
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

		// 2.5 Swagger Documentation and metrics (Public)
		app.Get("/swagger/*", swagger.HandlerDefault)
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

		// 3. Auth (Protect API)
		if !rt.cfg.Server.AuthEnabled() {
			logg.Warn("API key not configured, the API is unprotected")
		}
		app.Use(auth.New(auth.Config{ApiKey: rt.cfg.Server.ApiKey}))

		// 5. Load Features
		loaded, err := mgr.LoadAll(app)
		if err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}
		logg.Info("Features loaded", zap.Strings("features", loaded))

		// 6. Start Server
		go func() {
			logg.Info("Starting server", zap.String("addr", rt.cfg.Server.Addr()))
			if err := app.Listen(rt.cfg.Server.Addr()); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 7. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		_ = app.ShutdownWithTimeout(30 * time.Second)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := engine.Shutdown(ctx); err != nil {
			logg.Warn("Background jobs did not stop in time", zap.Error(err))
		}
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
