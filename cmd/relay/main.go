package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/walletdesk/bitget-relay/internal/auth"
	"github.com/walletdesk/bitget-relay/internal/config"
	"github.com/walletdesk/bitget-relay/internal/connection"
	"github.com/walletdesk/bitget-relay/internal/database"
	"github.com/walletdesk/bitget-relay/internal/dispatch"
	"github.com/walletdesk/bitget-relay/internal/model"
	"github.com/walletdesk/bitget-relay/internal/rest"
	"github.com/walletdesk/bitget-relay/internal/stream"
	"github.com/walletdesk/bitget-relay/internal/subs"
	"github.com/walletdesk/bitget-relay/internal/version"
	"github.com/walletdesk/bitget-relay/internal/wallet"
)

func main() {
	configPath := flag.String("config", "configs/relay.local.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting relay",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"private_ws", cfg.Venue.PrivateWSURL,
		"public_ws", cfg.Venue.PublicWSURL,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Connect to database
	logger.Info("connecting to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Name,
	)

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	logger.Info("database connected")

	store := wallet.NewStore(pool, logger)

	cipher, err := auth.NewCipher(cfg.Venue.CredentialKey)
	if err != nil {
		logger.Error("failed to load credential key", "error", err)
		os.Exit(1)
	}

	// The reconciler republishes wallet views through the dispatcher's
	// fan-out path only, so durable state never re-enters reconciliation.
	var dispatcher *dispatch.Dispatcher
	publisher := func(userID string, rows []model.WalletRow) {
		dispatcher.Fanout(model.WalletView{UserID: userID, Rows: rows})
	}
	reconciler := wallet.NewReconciler(store, publisher, logger)
	dispatcher = dispatch.New(reconciler, logger)

	manager := connection.NewManager(connection.ManagerConfig{
		PrivateURL:       cfg.Venue.PrivateWSURL,
		PublicURL:        cfg.Venue.PublicWSURL,
		PingInterval:     cfg.Sessions.PingInterval,
		ReconnectDelay:   cfg.Sessions.ReconnectDelay,
		LoginTimeout:     cfg.Sessions.LoginTimeout,
		WriteTimeout:     cfg.Sessions.WriteTimeout,
		HandshakeTimeout: cfg.Sessions.HandshakeTimeout,
	}, dispatcher, logger)
	defer manager.CloseAll()

	restClient := rest.NewClient(
		cfg.Venue.RestURL,
		rest.WithLogger(logger),
		rest.WithTimeout(cfg.Venue.RestTimeout),
		rest.WithRetries(cfg.Venue.MaxRetries, time.Second),
	)

	verifier := &storeVerifier{store: store}

	// On stream open: decrypt the user's venue credentials, derive the
	// initial public ticker set from the durable wallet, and bring the
	// user's sessions up. Already-started users are a no-op.
	onOpen := func(ctx context.Context, userID string) error {
		enc, err := store.GetCredentials(ctx, userID)
		if err != nil {
			return err
		}
		creds, err := cipher.DecryptCredentials(enc)
		if err != nil {
			return err
		}

		rows, err := store.ListWallet(ctx, userID)
		if err != nil {
			return err
		}

		specs := []subs.Spec{subs.AccountSpec(), subs.OrdersSpec()}
		for _, id := range wallet.TickerIDs(rows) {
			specs = append(specs, subs.TickerSpec(id))
		}
		return manager.Start(userID, creds, specs)
	}

	streamHandler := stream.NewHandler(
		verifier,
		dispatcher,
		stream.WithOnOpen(onOpen),
		stream.WithPingInterval(cfg.Server.StreamPing),
		stream.WithBufferSize(cfg.Server.StreamBuffer),
		stream.WithLogger(logger),
	)

	mux := http.NewServeMux()
	mux.Handle("/stream", streamHandler)
	mux.HandleFunc("/healthz", healthHandler(pool, manager))
	mux.HandleFunc("/earn", earnHandler(verifier, store, cipher, restClient, logger))
	mux.HandleFunc("/tickers/subscribe", tickerHandler(verifier, manager.SubscribeTicker))
	mux.HandleFunc("/tickers/unsubscribe", tickerHandler(verifier, manager.UnsubscribeTicker))

	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: mux,
	}

	go func() {
		logger.Info("http server listening", "addr", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	logger.Info("relay running", "instance_id", cfg.Instance.ID)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)
	manager.CloseAll()

	logger.Info("relay stopped")
}

// storeVerifier resolves bearer tokens against the stream_tokens table.
type storeVerifier struct {
	store *wallet.Store
}

func (v *storeVerifier) Verify(token string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return v.store.UserIDByStreamToken(ctx, token)
}

// healthHandler reports database reachability and active session users.
func healthHandler(pool interface{ Ping(context.Context) error }, manager *connection.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status   string `json:"status"`
			Database string `json:"database"`
			Users    int    `json:"users"`
		}{
			Status:   "healthy",
			Database: "connected",
			Users:    len(manager.Users()),
		}

		if err := pool.Ping(ctx); err != nil {
			health.Status = "unhealthy"
			health.Database = "disconnected"
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	}
}

// earnHandler proxies the signed earn-assets lookup for the caller's coin.
func earnHandler(verifier *storeVerifier, store *wallet.Store, cipher *auth.Cipher, client *rest.Client, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := authorize(w, r, verifier)
		if !ok {
			return
		}
		coin := r.URL.Query().Get("coin")
		if coin == "" {
			http.Error(w, "coin query parameter is required", http.StatusBadRequest)
			return
		}

		enc, err := store.GetCredentials(r.Context(), userID)
		if err != nil {
			http.Error(w, "credentials unavailable", http.StatusBadGateway)
			return
		}
		creds, err := cipher.DecryptCredentials(enc)
		if err != nil {
			http.Error(w, "credentials unavailable", http.StatusBadGateway)
			return
		}

		assets, err := client.GetEarnAssets(r.Context(), creds, coin)
		if err != nil {
			logger.Warn("earn assets lookup failed", "user", userID, "coin", coin, "error", err)
			http.Error(w, "venue request failed", http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(assets)
	}
}

// tickerHandler adds or removes a public ticker for the caller.
func tickerHandler(verifier *storeVerifier, apply func(userID, instID string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		userID, ok := authorize(w, r, verifier)
		if !ok {
			return
		}
		instID := r.URL.Query().Get("instId")
		if instID == "" {
			http.Error(w, "instId query parameter is required", http.StatusBadRequest)
			return
		}

		if err := apply(userID, instID); err != nil {
			if err == connection.ErrNotStarted {
				http.Error(w, "no active stream for user", http.StatusConflict)
				return
			}
			http.Error(w, "subscription change failed", http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// authorize extracts and verifies the bearer token, writing a 401 on failure.
func authorize(w http.ResponseWriter, r *http.Request, verifier *storeVerifier) (string, bool) {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) <= len(prefix) || h[:len(prefix)] != prefix {
		http.Error(w, "missing bearer token", http.StatusUnauthorized)
		return "", false
	}
	userID, err := verifier.Verify(h[len(prefix):])
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return "", false
	}
	return userID, true
}
