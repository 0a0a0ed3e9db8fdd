package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"boron/internal/gateway/config"
	"boron/internal/gateway/handler"
	"boron/internal/gateway/handler/rpc"
	"boron/internal/gateway/middleware"
	"boron/internal/gateway/repository/roomstore"
	"boron/internal/gateway/repository/snapshot"
	"boron/internal/gateway/server"
	"boron/internal/gateway/service/generate"
	"boron/internal/gateway/service/sandbox"
	"boron/internal/llm"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	client, err := newLLMClient(ctx, cfg.LLM)
	if err != nil {
		log.Fatalf("init llm client: %v", err)
	}
	defer client.Close()
	client = llm.Chain(client, llm.Logging(), llm.Retry(3, 500*time.Millisecond))

	rooms, err := newRoomStore(cfg.Rooms)
	if err != nil {
		log.Fatalf("init room store: %v", err)
	}
	defer rooms.Close()

	var snapshots snapshot.Store
	if cfg.Snapshot.Enabled {
		s3, err := snapshot.NewS3Store(snapshot.S3Config{
			Endpoint:  cfg.Snapshot.Endpoint,
			Region:    cfg.Snapshot.Region,
			AccessKey: cfg.Snapshot.AccessKey,
			SecretKey: cfg.Snapshot.SecretKey,
			Bucket:    cfg.Snapshot.Bucket,
			UseSSL:    cfg.Snapshot.UseSSL,
		})
		if err != nil {
			log.Fatalf("init snapshot store: %v", err)
		}
		snapshots = snapshot.NewCachedStore(s3, snapshot.DefaultCacheConfig())
	} else {
		log.Printf("snapshot store disabled, using in-memory store")
		snapshots = snapshot.NewMemoryStore()
	}

	generateSvc := generate.New(generate.Deps{
		LLM:       client,
		Rooms:     rooms,
		Snapshots: snapshots,
	})

	verifier := middleware.StaticVerifier{
		Token:  cfg.Session.Token,
		UserID: cfg.Session.UserID,
	}

	// Preview boot happens client side; the gateway only tracks the
	// per-session lifecycle and hands back its state.
	sandboxes := sandbox.NewRegistry(sandbox.BooterFunc(func(string) (string, error) {
		return "", nil
	}))

	mux := server.NewMux(
		handler.NewRoomsHandler(rooms),
		handler.NewTemplateHandler(client),
		handler.NewSnapshotHandler(snapshots),
		handler.NewSandboxHandler(sandboxes),
		rpc.NewGenerateHandler(generateSvc),
		verifier,
	)

	srv := server.New(cfg.Port, mux)
	if err := srv.Run(ctx); err != nil {
		log.Fatalf("server: %v", err)
	}
}

func newLLMClient(ctx context.Context, cfg config.LLMConfig) (llm.Client, error) {
	switch cfg.Provider {
	case "gemini":
		return llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	case "groq":
		return llm.NewGroqClient(cfg.GroqAPIKey, cfg.GroqModel)
	default:
		log.Printf("no LLM provider configured, using fake client")
		return &llm.FakeClient{Decision: true}, nil
	}
}

func newRoomStore(cfg config.RoomsConfig) (*roomstore.Store, error) {
	if cfg.PostgresDSN != "" {
		return roomstore.NewPostgres(cfg.PostgresDSN)
	}
	return roomstore.New(cfg.FilePath), nil
}
