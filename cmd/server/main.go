package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/arturoeanton/supabase-guard/internal/adapter/ai"
	"github.com/arturoeanton/supabase-guard/internal/adapter/auth"
	"github.com/arturoeanton/supabase-guard/internal/adapter/check"
	"github.com/arturoeanton/supabase-guard/internal/adapter/project"
	"github.com/arturoeanton/supabase-guard/internal/adapter/session"
	"github.com/arturoeanton/supabase-guard/internal/adapter/store"
	"github.com/arturoeanton/supabase-guard/internal/handler"
	"github.com/arturoeanton/supabase-guard/internal/middleware"
	"github.com/arturoeanton/supabase-guard/internal/port"
	"github.com/arturoeanton/supabase-guard/internal/service"
	"github.com/arturoeanton/supabase-guard/pkg/config"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/encryptcookie"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/joho/godotenv"
)

func main() {
	// ── Load .env file ───────────────────────────────────────────────────
	_ = godotenv.Load() // silently ignore if .env doesn't exist

	// ── Configuration ────────────────────────────────────────────────────
	cfg := config.Load()

	slog.Info("🚀 Starting Supabase Guard",
		"port", cfg.Port,
		"supabase_api", cfg.SupabaseAPIURL,
		"audit_store", cfg.AuditStore,
	)

	// ── Audit log store ──────────────────────────────────────────────────
	auditStore, closeStore, err := openAuditStore(cfg)
	if err != nil {
		slog.Error("failed to open audit store", "store", cfg.AuditStore, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	// ── Adapters ─────────────────────────────────────────────────────────
	httpClient := &http.Client{Timeout: 30 * time.Second}

	var authService *service.AuthService
	oauthCfg, oauthErr := cfg.OAuth()
	if oauthErr != nil {
		slog.Warn("supabase oauth not configured, login disabled", "error", oauthErr)
	} else {
		authService = service.NewAuthService(auth.NewSupabaseProvider(oauthCfg, httpClient))
	}

	projects := project.NewManagementClient(cfg.SupabaseAPIURL, httpClient)
	assistant := ai.NewPerplexityProvider(ai.PerplexityConfig{
		BaseURL: cfg.PerplexityBaseURL,
		Model:   cfg.PerplexityModel,
		APIKey:  cfg.PerplexityAPIKey,
	}, &http.Client{})

	// ── Check Engine (Strategy Pattern) ─────────────────────────────────
	engine := port.NewCheckEngine(
		check.NewRLSCheck(projects),
		check.NewMFACheck(projects),
		check.NewPITRCheck(projects),
	)

	// ── Services ─────────────────────────────────────────────────────────
	checkService := service.NewCheckService(engine, auditStore)
	projectService := service.NewProjectService(projects)
	chatService := service.NewChatService(assistant)
	sessions := session.NewCookieStore(cfg.CookieSecure)

	// ── Fiber App ────────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(middleware.RequestLog())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowCredentials: true,
	}))
	app.Use(encryptcookie.New(encryptcookie.Config{
		Key: cookieKey(cfg.CookieSecret),
	}))

	// ── Public Routes ────────────────────────────────────────────────────
	handler.NewAuthHandler(authService, oauthErr, sessions, cfg.FrontendURL).Register(app)
	handler.NewChatHandler(chatService).Register(app.Group("/api"))

	// Health check
	app.Get("/api/v1/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"app":     cfg.AppName,
			"version": "1.0.0",
			"checks":  checkService.Available(),
		})
	})

	// ── Protected Routes ─────────────────────────────────────────────────
	api := app.Group("/api/v1", middleware.RequireCredential(sessions))

	handler.NewProjectHandler(projectService, checkService).Register(api)
	handler.NewCheckHandler(checkService).Register(api)
	handler.NewAuditHandler(checkService).Register(api)

	// ── Start ────────────────────────────────────────────────────────────
	slog.Info("🌐 Fiber listening", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func openAuditStore(cfg *config.Config) (port.AuditStore, func(), error) {
	switch cfg.AuditStore {
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, nil, &config.MissingError{Key: "DATABASE_URL"}
		}
		pg, err := store.NewPostgresStore(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, nil, err
		}
		return pg, func() { pg.Close() }, nil
	default:
		return store.NewFileStore(cfg.AuditFilePath), func() {}, nil
	}
}

// cookieKey returns the configured encryption key, or an ephemeral one
// when none is set. Sessions do not survive a restart in that case.
func cookieKey(secret string) string {
	if secret != "" {
		return secret
	}
	slog.Warn("COOKIE_SECRET not set, using an ephemeral cookie key")
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return base64.StdEncoding.EncodeToString(b)
}
