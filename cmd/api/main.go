package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dalio-ai/dalio/backend/internal/config"
	"github.com/dalio-ai/dalio/backend/internal/handler"
	"github.com/dalio-ai/dalio/backend/internal/middleware"
	"github.com/dalio-ai/dalio/backend/internal/model/index"
	"github.com/dalio-ai/dalio/backend/internal/service/ai"
	"github.com/dalio-ai/dalio/backend/internal/service/balance"
	"github.com/dalio-ai/dalio/backend/internal/service/document"
	"github.com/dalio-ai/dalio/backend/internal/service/lead"
	"github.com/dalio-ai/dalio/backend/internal/service/market"
	"github.com/dalio-ai/dalio/backend/internal/service/storage"
	"github.com/dalio-ai/dalio/backend/internal/service/summary"
	"github.com/dalio-ai/dalio/backend/internal/service/tools"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	series, err := market.NewSeriesStore(cfg.Market.SeriesDir)
	if err != nil {
		log.Fatalf("failed to load inflation series: %v", err)
	}
	registry := tools.NewRegistry(market.NewClient(cfg.Market, nil), series)
	indices := index.NewMemoryStore(index.Seed())

	chatModel, err := ai.NewChatModel(ctx, cfg.AI, registry)
	if err != nil {
		log.Printf("warning: failed to initialize %s model: %v", cfg.AI.Provider, err)
		log.Println("continuing with the offline FAQ responder")
		chatModel = ai.NewOfflineModel()
	}

	aiService, err := ai.NewService(ctx, chatModel, registry, indices, cfg.AI)
	if err != nil {
		log.Fatalf("failed to initialize AI service: %v", err)
	}
	log.Printf("AI service initialized (provider %s)", cfg.AI.Provider)

	// The offline responder cannot produce the summary JSON.
	summaryModel := aiService.ChatModel()
	if !cfg.AI.Enabled() {
		summaryModel = nil
	}
	summarizer, err := summary.NewService(ctx, summaryModel, summary.Config{
		Enabled:    cfg.AI.SummaryEnabled,
		CharBudget: cfg.Document.ChatCharBudget,
	})
	if err != nil {
		log.Printf("warning: failed to initialize summary model, using heuristics: %v", err)
		summarizer, _ = summary.NewService(ctx, nil, summary.Config{CharBudget: cfg.Document.ChatCharBudget})
	} else if summarizer.Enabled() {
		log.Println("Report summaries use the chat model")
	} else {
		log.Println("Report summaries use keyword heuristics")
	}

	services := handler.Services{
		AI:             aiService,
		Documents:      document.NewService(cfg.Document, nil),
		Indices:        indices,
		MaxUploadBytes: cfg.Document.MaxUploadBytes,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}

	if cfg.Storage.Enabled() {
		bucket, err := storage.NewBucket(ctx, cfg.Storage)
		if err != nil {
			log.Printf("warning: failed to initialize bucket %s: %v", cfg.Storage.Bucket, err)
		} else {
			services.Bucket = bucket
			services.Library = balance.NewLibrary(bucket, summarizer, cfg.Document.MaxUploadBytes)
			log.Printf("Report library backed by bucket %s", bucket.Name())
		}
	} else {
		log.Println("S3_BUCKET not set, report library and uploads disabled")
	}

	leads, err := lead.Open(cfg.Leads.DBPath)
	if err != nil {
		log.Printf("warning: failed to open leads database: %v", err)
	} else {
		defer leads.Close()
		services.Leads = leads
	}

	auth, err := middleware.NewAuthenticator(cfg.Auth)
	if err != nil {
		log.Fatalf("failed to initialize authenticator: %v", err)
	}
	if cfg.Auth.PublicKeyPEM == "" {
		log.Println("CLERK_JWT_KEY not set, protected routes accept anonymous requests")
	}
	services.Auth = auth

	router := handler.NewRouter(services)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Dalio backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
