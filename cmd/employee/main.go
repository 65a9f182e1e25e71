package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/oshaani/workspace-employee/internal/agent"
	"github.com/oshaani/workspace-employee/internal/api/handlers"
	apimiddleware "github.com/oshaani/workspace-employee/internal/api/middleware"
	"github.com/oshaani/workspace-employee/internal/auth/apikey"
	authgoogle "github.com/oshaani/workspace-employee/internal/auth/google"
	"github.com/oshaani/workspace-employee/internal/auth/session"
	"github.com/oshaani/workspace-employee/internal/automation"
	"github.com/oshaani/workspace-employee/internal/config"
	"github.com/oshaani/workspace-employee/internal/credentials"
	"github.com/oshaani/workspace-employee/internal/db"
	"github.com/oshaani/workspace-employee/internal/settings"
	"github.com/oshaani/workspace-employee/internal/workflow"
	googlews "github.com/oshaani/workspace-employee/internal/workspace/google"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.ValidateOAuth(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	if err := credentials.EnsureDataDirReady(cfg.DataDir); err != nil {
		log.Fatalf("Data directory not usable: %v", err)
	}

	database, err := db.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Storage layers
	lifecycle := credentials.NewLifecycle()
	driveStore := googlews.NewDriveStore("Workspace Employee")
	credStore := credentials.NewStore(cfg.DataDir, lifecycle, driveStore)
	settingsStore := settings.NewStore(cfg.DataDir, credStore, driveStore)
	apiKeys := apikey.NewStore(database)
	sessions := session.NewManager(cfg.SecretKey, strings.HasPrefix(cfg.AppBaseURL, "https://"))

	// Agent and workflows
	factory := googlews.NewFactory()
	defaultAgent := agent.NewClient(cfg.AgentBaseURL, cfg.AgentAPIKey)
	newAgent := func(apiKey string) workflow.Agent {
		if apiKey == "" {
			return defaultAgent
		}
		return agent.NewClient(cfg.AgentBaseURL, apiKey)
	}

	// Scheduler
	runnerFactory := func(ctx context.Context, userID string, cred credentials.Credential, agentKey string) (automation.Runner, error) {
		ws, err := factory.ForCredential(ctx, cred)
		if err != nil {
			return nil, err
		}
		return workflow.NewOrchestrator(userID, ws, newAgent(agentKey)), nil
	}
	scheduler := automation.NewScheduler(automation.Config{
		Interval:             cfg.AutomationInterval,
		ChatAutoReplyEnabled: cfg.ChatAutoReplyEnabled,
		ChatSpacesMax:        cfg.AutomationChatSpacesMax,
	}, credStore, settingsStore, runnerFactory)

	deps := &handlers.Deps{
		Cfg:       cfg,
		Creds:     credStore,
		Settings:  settingsStore,
		APIKeys:   apiKeys,
		Factory:   factory,
		Scheduler: scheduler,
		NewAgent:  newAgent,
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(apimiddleware.RequestID)

	// Public routes
	r.Get("/health", handlers.HealthHandler())
	r.Get("/health/agent", handlers.AgentHealthHandler(defaultAgent))
	r.Get("/auth/google", authgoogle.LoginHandler(cfg))
	r.Get("/auth/google/login", authgoogle.LoginHandler(cfg))
	r.Get("/auth/google/callback", authgoogle.CallbackHandler(cfg, lifecycle, credStore, sessions))
	r.Get("/auth/logout", authgoogle.LogoutHandler(sessions))
	r.Post("/auth/logout", authgoogle.LogoutAPIHandler(sessions))
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"service":"workspace-employee","login":"/auth/google/login","health":"/health"}`))
	})

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(apimiddleware.RequireUser(apiKeys, sessions))

		r.Get("/me", handlers.MeHandler(deps))
		r.Get("/me/drive-data", handlers.DriveDataHandler(deps))

		r.Post("/api-key", handlers.CreateAPIKeyHandler(deps))
		r.Delete("/api-key", handlers.RevokeAPIKeysHandler(deps))

		r.Route("/workflows", func(r chi.Router) {
			r.Post("/smart-inbox", handlers.SmartInboxHandler(deps))
			r.Post("/document-intelligence", handlers.DocumentIntelligenceHandler(deps))
			r.Post("/chat-assistant", handlers.ChatAssistantHandler(deps))
			r.Post("/chat-auto-reply", handlers.ChatAutoReplyHandler(deps))
			r.Post("/first-email-draft", handlers.FirstEmailDraftHandler(deps))
			r.Post("/custom", handlers.CustomWorkflowHandler(deps))
			r.Post("/run-all", handlers.RunAllHandler(deps))
			r.Get("/chat-spaces", handlers.ChatSpacesHandler(deps))
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/lists", handlers.TaskListsHandler(deps))
			r.Get("/lists/{listID}/tasks", handlers.ListTasksHandler(deps))
			r.Post("/", handlers.CreateTaskHandler(deps))
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/toggles", handlers.WorkflowTogglesHandler(deps))
			r.Put("/toggles", handlers.UpdateWorkflowTogglesHandler(deps))
			r.Get("/automation", handlers.AutomationSettingHandler(deps))
			r.Put("/automation", handlers.UpdateAutomationSettingHandler(deps))
			r.Get("/agent-key", handlers.AgentKeyHandler(deps))
			r.Put("/agent-key", handlers.UpdateAgentKeyHandler(deps))
		})

		r.Post("/automation/run", handlers.TriggerAutomationHandler(deps))
	})

	if cfg.AutomationEnabled {
		scheduler.Start()
	} else {
		log.Printf("🔄 Automation scheduler disabled by configuration")
	}

	server := &http.Server{Addr: cfg.Addr(), Handler: r}

	go func() {
		log.Printf("🚀 Workspace Employee starting on http://%s", cfg.Addr())
		log.Printf("🎫 Login: %s/auth/google/login", cfg.AppBaseURL)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("🔒 Shutting down...")

	if cfg.AutomationEnabled {
		scheduler.Stop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("⚠️ Shutdown did not complete cleanly: %v", err)
	}
	log.Printf("✅ Server stopped")
}
