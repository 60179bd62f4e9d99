package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
	"github.com/willysamz/ha-matrix-api/internal/config"
	"github.com/willysamz/ha-matrix-api/internal/http/handler"
	mw "github.com/willysamz/ha-matrix-api/internal/http/middleware"
	"github.com/willysamz/ha-matrix-api/internal/matrix"
	"github.com/willysamz/ha-matrix-api/internal/service"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func init() {
	// Handle version display
	handleVersion()
}

func main() {
	// Read env
	isDev := os.Getenv("ENV") == "dev"

	// Load config
	cfg, err := config.Load("matrix-api.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Create Zap logger
	log := buildLogger(isDev)
	defer log.Sync()
	log = log.Named("main")

	// Create Gin router
	if !isDev {
		gin.SetMode(gin.ReleaseMode)
	}
	gin.DefaultWriter = zap.NewStdLog(log.Named("gin")).Writer() // Configure Gin's logger to use Zap
	r := gin.New()

	// Wire the core: device client, orchestration, health monitor
	matrixclnt := matrix.New(log, matrix.Config{
		BaseURL:   cfg.MatrixURL,
		Timeout:   cfg.Timeout(),
		VerifySSL: cfg.MatrixVerifySSL,
	})
	routingsvc := service.NewRoutingService(log, matrixclnt)
	healthsvc := service.NewHealthService(log, matrixclnt, cfg.HealthInterval())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go healthsvc.Run(ctx)

	// Apply Gin middlewares
	{
		r.Use(gin.Recovery()) // Recovery first (outermost)
		r.Use(mw.RequestID()) // Attach request ID for tracing; early in the chain so it's available everywhere

		if isDev { // Enable CORS for local Vite dev
			r.Use(cors.New(cors.Config{
				AllowOrigins:     []string{"http://localhost:5173", "http://localhost:3000", "http://127.0.0.1:3000"},
				AllowMethods:     []string{"GET", "POST", "OPTIONS"},
				AllowHeaders:     []string{"X-Request-ID", "Content-Type"},
				ExposeHeaders:    []string{"X-Request-ID"},
				AllowCredentials: false,
				MaxAge:           12 * time.Hour,
			}))
		} else { // Behind ingress + TLS
			r.Use(secure.New(secure.Config{
				SSLProxyHeaders: map[string]string{
					"X-Forwarded-Proto": "https", // Fix scheme behind the TLS-terminating proxy
				},
			}))
		}

		r.Use(accessLog(log))

		r.Use(func(c *gin.Context) {
			// Enforce a hard 1MB max request body; routing payloads are tiny.
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 1<<20)
			c.Next()
		})
	}

	// Register route handlers
	{
		// --- Probes (never touch the device) ---
		{
			healthhndlr := handler.NewHealthHandler(healthsvc)
			r.GET("/healthz/live", healthhndlr.Live)
			r.GET("/healthz/ready", healthhndlr.Ready)
		}

		r.GET("/api/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "pong"}) })
		r.GET("/api/status", handler.NewSystemHandler(matrixclnt, healthsvc).GetStatus)

		// --- Device-facing endpoints ---
		// The matrix's embedded server is single-threaded; keep concurrent
		// device traffic bounded.
		device := r.Group("", mw.LimitConcurrentRequests(4))
		{
			routinghndlr := handler.NewRoutingHandler(log, routingsvc)

			// --- Name lists (Home Assistant dropdown helpers) ---
			device.GET("/api/inputs", routinghndlr.GetInputs)
			device.GET("/api/outputs", routinghndlr.GetOutputs)

			// --- Routing ---
			device.GET("/api/routing", routinghndlr.GetRouting)                // full snapshot
			device.GET("/api/routing/output/:id", routinghndlr.GetOutputRouting) // one output
			device.POST("/api/routing/output/:id", routinghndlr.SetOutputRouting) // set one route
			device.POST("/api/routing/preset", routinghndlr.ApplyPreset)       // batch
		}
	}

	httpsrv := &http.Server{
		Addr:              cfg.ServerHost + ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 2 * time.Second,  // kills header-drip Slowloris
		ReadTimeout:       10 * time.Second, // full request read (incl. body)
		WriteTimeout:      15 * time.Second, // avoid forever-hangs on writes
		IdleTimeout:       60 * time.Second, // keep-alive cap
		MaxHeaderBytes:    1 << 20,          // 1MB cap
	}

	log.Info("running HTTP server",
		zap.String("addr", httpsrv.Addr),
		zap.String("matrix_url", matrixclnt.BaseURL()))
	if err := httpsrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("server failed", zap.Error(err))
	}
	log.Info("server closed")
}

// handleVersion prints build metadata and exits when -v/--version is provided.
func handleVersion() {
	v := flag.Bool("v", false, "print version and exit")
	flag.BoolVar(v, "version", false, "print version and exit")
	flag.Parse()

	if *v {
		fmt.Printf("matrix-api %s (commit %s, built %s)\n", config.Version, config.GitCommit, config.BuildDate)
		os.Exit(0)
	}
}

// accessLog is a Gin middleware that records HTTP request/response details with Zap after handling.
func accessLog(log *zap.Logger) gin.HandlerFunc {
	log = log.Named("access")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		// collect all errors from Gin context
		var errs []error
		for _, ge := range c.Errors {
			if ge.Err != nil {
				errs = append(errs, ge.Err)
			}
		}
		// errors.Join returns nil if errs is empty
		joinedErr := errors.Join(errs...)

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.String("client_ip", c.ClientIP()),
			zap.Duration("latency", latency),
			zap.String("request_id", mw.GetRequestID(c)),
		}
		if joinedErr != nil {
			fields = append(fields, zap.Error(joinedErr))
		}

		switch {
		case status >= 500:
			log.Error("request", fields...)
		case status >= 400:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}

// helpers

func buildLogger(isDev bool) *zap.Logger {
	if isDev {
		logConfig := zap.NewDevelopmentConfig()
		logConfig.EncoderConfig.TimeKey = ""
		logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		logConfig.DisableStacktrace = true
		logConfig.DisableCaller = true
		logConfig.Level.SetLevel(zap.DebugLevel)
		return zap.Must(logConfig.Build())
	}

	logConfig := zap.NewProductionConfig()
	logConfig.DisableStacktrace = true
	return zap.Must(logConfig.Build())
}
