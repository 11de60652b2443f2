package internal

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/homeshine/portal-front/internal/backend"
	"github.com/homeshine/portal-front/internal/config"
	"github.com/homeshine/portal-front/internal/crypto"
	"github.com/homeshine/portal-front/internal/debuglog"
	"github.com/homeshine/portal-front/internal/log"
	"github.com/homeshine/portal-front/internal/oauth"
	"github.com/homeshine/portal-front/internal/server"
	"github.com/homeshine/portal-front/internal/session"
	"github.com/homeshine/portal-front/internal/storage"
)

// PortalFront is the complete login gateway application
type PortalFront struct {
	config     config.Config
	httpServer *server.HTTPServer
	storage    storage.Storage
	debugSink  *debuglog.Sink
}

// NewPortalFront builds the application with all dependencies wired
func NewPortalFront(ctx context.Context, cfg config.Config) (*PortalFront, error) {
	gw := cfg.Gateway

	log.LogInfoWithFields("portalfront", "Building login gateway", map[string]any{
		"addr":    gw.Addr,
		"backend": gw.BackendBaseURL,
		"storage": storageKind(gw),
	})

	store, err := setupStorage(ctx, gw)
	if err != nil {
		return nil, fmt.Errorf("failed to setup storage: %w", err)
	}

	sessions := session.NewStore(store)
	if err := sessions.Restore(ctx); err != nil {
		// Start unauthenticated rather than refusing to boot
		log.LogError("Failed to restore persisted session: %v", err)
	}

	debugSink := debuglog.NewSink(store)

	backendClient := backend.NewClient(gw.BackendBaseURL)
	flow := oauth.NewFlow(gw.PortalBaseURL, backendClient, sessions, debugSink)

	customerGoogle := oauth.NewGoogleProvider(
		string(gw.Auth.GoogleClientID),
		string(gw.Auth.GoogleClientSecret),
		gw.Auth.CustomerRedirectURI,
	)
	managerGoogle := oauth.NewGoogleProvider(
		string(gw.Auth.GoogleClientID),
		string(gw.Auth.GoogleClientSecret),
		gw.Auth.ManagerRedirectURI,
	)

	cookieTTL := time.Duration(gw.Auth.AdminCookieTTL)
	if cookieTTL <= 0 {
		cookieTTL = server.DefaultAdminCookieTTL
	}
	signer := crypto.NewTokenSigner([]byte(gw.Auth.CookieSigningKey), cookieTTL)

	authHandlers := server.NewAuthHandlers(flow, sessions, customerGoogle, managerGoogle)
	adminHandlers := server.NewAdminHandlers(backendClient, store, signer, cookieTTL)

	mux := buildHTTPHandler(gw, authHandlers, adminHandlers, signer)

	return &PortalFront{
		config:     cfg,
		httpServer: server.NewHTTPServer(mux, gw.Addr),
		storage:    store,
		debugSink:  debugSink,
	}, nil
}

// buildHTTPHandler assembles routing and middleware
func buildHTTPHandler(gw config.GatewayConfig, authHandlers *server.AuthHandlers, adminHandlers *server.AdminHandlers, signer crypto.TokenSigner) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /health", server.NewHealthHandler())

	mux.HandleFunc("GET /customers/auth/google/login", authHandlers.LoginHandler)
	mux.HandleFunc("GET /managers/auth/google/login", authHandlers.LoginHandler)
	mux.HandleFunc("GET /customers/auth/google/callback", authHandlers.CallbackHandler)
	mux.HandleFunc("GET /managers/auth/google/callback", authHandlers.CallbackHandler)

	mux.HandleFunc("GET /session", authHandlers.SessionHandler)
	mux.HandleFunc("POST /logout", authHandlers.LogoutHandler)

	mux.HandleFunc("POST /admin/auth/login", adminHandlers.LoginHandler)

	adminAuth := server.NewAdminAuthMiddleware(signer, gw.Auth.AdminTokens)
	mux.Handle("/admin/debug-logs", server.ChainMiddleware(
		http.HandlerFunc(adminHandlers.DebugLogsHandler),
		adminAuth,
	))

	return server.ChainMiddleware(mux,
		server.NewCORSMiddleware(gw.AllowedOrigins),
		server.NewLoggingMiddleware(),
	)
}

// Run starts the gateway and blocks until shutdown
func (p *PortalFront) Run() error {
	log.LogInfoWithFields("portalfront", "Starting login gateway", map[string]any{
		"addr": p.config.Gateway.Addr,
	})

	errChan := make(chan error, 1)
	go func() {
		if err := p.httpServer.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var shutdownReason string
	select {
	case sig := <-sigChan:
		shutdownReason = fmt.Sprintf("signal %v", sig)
		log.LogInfoWithFields("portalfront", "Received shutdown signal", map[string]any{
			"signal": sig.String(),
		})
	case err := <-errChan:
		shutdownReason = fmt.Sprintf("error: %v", err)
		log.LogErrorWithFields("portalfront", "Shutting down due to error", map[string]any{
			"error": err.Error(),
		})
	}

	log.LogInfoWithFields("portalfront", "Starting graceful shutdown", map[string]any{
		"reason":  shutdownReason,
		"timeout": "30s",
	})
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := p.httpServer.Stop(shutdownCtx); err != nil {
		log.LogErrorWithFields("portalfront", "HTTP server shutdown error", map[string]any{
			"error": err.Error(),
		})
		return err
	}

	// Drain pending debug entries before the storage backend goes away
	p.debugSink.Close()
	if err := p.storage.Close(); err != nil {
		log.LogError("Storage close error: %v", err)
	}

	log.LogInfoWithFields("portalfront", "Shutdown complete", map[string]any{
		"reason": shutdownReason,
	})
	return nil
}

func storageKind(gw config.GatewayConfig) string {
	if gw.Storage == config.StorageKindFirestore {
		return "firestore"
	}
	return "memory"
}

// setupStorage creates the persistence backend selected in config
func setupStorage(ctx context.Context, gw config.GatewayConfig) (storage.Storage, error) {
	if gw.Storage == config.StorageKindFirestore {
		log.LogInfoWithFields("storage", "Using Firestore storage", map[string]any{
			"project":    gw.GCPProject,
			"database":   gw.FirestoreDatabase,
			"collection": gw.FirestoreCollection,
		})

		encryptor, err := crypto.NewEncryptor([]byte(gw.Auth.EncryptionKey))
		if err != nil {
			return nil, fmt.Errorf("failed to create encryptor: %w", err)
		}
		return storage.NewFirestoreStorage(ctx, gw.GCPProject, gw.FirestoreDatabase, gw.FirestoreCollection, encryptor)
	}

	log.LogInfoWithFields("storage", "Using in-memory storage", nil)
	return storage.NewMemoryStorage(), nil
}
