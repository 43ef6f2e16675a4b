package main

import (
	"context"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"speakcoach/internal/config"
	"speakcoach/internal/database"
	"speakcoach/internal/evaluator"
	"speakcoach/internal/handlers"
	"speakcoach/internal/repository"
	"speakcoach/internal/security"
	"speakcoach/internal/service"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

func main() {
	// Load configuration
	cfg := config.Load()

	ctx := context.Background()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.Initialize(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Run migrations
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	// Load templates
	templates, err := loadTemplates(cfg.TemplatesPath)
	if err != nil {
		log.Fatalf("Failed to load templates: %v", err)
	}

	log.Println("Templates loaded successfully")

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	resultRepo := repository.NewResultRepository(db)

	// Initialize services
	emailService, err := service.NewEmailService(ctx, cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}
	authService := service.NewAuthService(userRepo, emailService, cfg.SessionDuration)
	catalogService := service.NewCatalogService(catalogRepo)

	// Initialize the analysis service
	answerEvaluator, err := evaluator.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		log.Fatalf("Failed to initialize evaluator: %v", err)
	}

	log.Printf("Evaluator ready (model: %s)", cfg.GeminiModel)

	oauthProviders := map[string]handlers.OAuthProvider{
		"google": {
			Name:  "google",
			Label: "Google",
			Config: &oauth2.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				Endpoint:     google.Endpoint,
				Scopes:       []string{"openid", "email", "profile"},
			},
			UserInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
		},
	}

	// Initialize handlers
	tokens := security.NewTokenManager(cfg.APITokenSecret, cfg.APITokenDuration)
	limiter := security.NewRateLimiter(10, time.Minute)
	csrf := security.NewCSRFGenerator(cfg.APITokenSecret)
	middleware := handlers.NewMiddleware(authService, tokens, limiter, csrf)
	authHandler := handlers.NewAuthHandler(authService, templates, oauthProviders, cfg.BaseURL)
	dashboardHandler := handlers.NewDashboardHandler(catalogService, resultRepo, templates)
	practiceHandler := handlers.NewPracticeHandler(catalogService, answerEvaluator, resultRepo, tokens, templates)

	// Setup routes
	mux := http.NewServeMux()

	// Static files
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticFilesPath))))

	// Public routes
	mux.HandleFunc("GET /", authHandler.Home)
	mux.HandleFunc("GET /login", authHandler.ShowLogin)
	mux.HandleFunc("POST /login", middleware.RateLimit(authHandler.Login))
	mux.HandleFunc("GET /register", authHandler.ShowRegister)
	mux.HandleFunc("POST /register", middleware.RateLimit(authHandler.Register))
	mux.HandleFunc("POST /logout", middleware.RequireAuth(middleware.CSRFProtect(authHandler.Logout)))
	mux.HandleFunc("GET /auth/{provider}/start", authHandler.StartOAuth)
	mux.HandleFunc("GET /auth/{provider}/callback", authHandler.OAuthCallback)

	// Protected dashboard routes
	mux.HandleFunc("GET /dashboard", middleware.RequireAuth(dashboardHandler.Dashboard))
	mux.HandleFunc("GET /dashboard/categories/{id}", middleware.RequireAuth(dashboardHandler.ShowQuestions))
	mux.HandleFunc("GET /dashboard/results", middleware.RequireAuth(dashboardHandler.ShowResults))

	// Practice screen
	mux.HandleFunc("GET /practice/{id}", middleware.RequireAuth(practiceHandler.ShowPractice))

	// Practice JSON API (bearer token issued with the practice screen)
	mux.HandleFunc("GET /api/practice/state", middleware.RequireAPIAuth(practiceHandler.GetState))
	mux.HandleFunc("POST /api/practice/start", middleware.RequireAPIAuth(practiceHandler.StartRecording))
	mux.HandleFunc("POST /api/practice/segment", middleware.RequireAPIAuth(practiceHandler.AddSegment))
	mux.HandleFunc("POST /api/practice/stop", middleware.RequireAPIAuth(practiceHandler.StopRecording))
	mux.HandleFunc("POST /api/practice/transcript", middleware.RequireAPIAuth(practiceHandler.EditTranscript))
	mux.HandleFunc("POST /api/practice/analyze", middleware.RequireAPIAuth(practiceHandler.Analyze))
	mux.HandleFunc("POST /api/practice/clear", middleware.RequireAPIAuth(practiceHandler.Clear))
	mux.HandleFunc("POST /api/practice/exit", middleware.RequireAPIAuth(practiceHandler.Exit))

	// Wrap with logging middleware
	handler := handlers.Logging(mux)

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start background session cleanup
	go cleanupExpiredSessions(authService)

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}

// loadTemplates loads all template files
func loadTemplates(templatesPath string) (*template.Template, error) {
	baseTemplate := filepath.Join(templatesPath, "base.tmpl")

	patterns := []string{
		filepath.Join(templatesPath, "auth/*.tmpl"),
		filepath.Join(templatesPath, "dashboard/*.tmpl"),
		filepath.Join(templatesPath, "practice/*.tmpl"),
	}

	var files []string
	files = append(files, baseTemplate)

	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to glob pattern %s: %w", pattern, err)
		}
		files = append(files, matches...)
	}

	funcMap := template.FuncMap{
		"formatDate": func(t time.Time) string {
			return t.Format("Jan 2, 2006")
		},
		"add": func(a, b int) int {
			return a + b
		},
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFiles(files...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return tmpl, nil
}

// cleanupExpiredSessions periodically removes expired sessions
func cleanupExpiredSessions(authService *service.AuthService) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		if err := authService.CleanupExpiredSessions(); err != nil {
			log.Printf("Error cleaning up expired sessions: %v", err)
		} else {
			log.Println("Expired sessions cleaned up")
		}
	}
}
