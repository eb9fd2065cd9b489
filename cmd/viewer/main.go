package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/cors"

	"chat-viewer/cmd/internal/eventbus"
	"chat-viewer/cmd/internal/logger"
	"chat-viewer/cmd/viewer/clients/chatbotclient"
	"chat-viewer/cmd/viewer/handlers"
	"chat-viewer/cmd/viewer/httpclient"
	"chat-viewer/cmd/viewer/offline"
	"chat-viewer/cmd/viewer/offline/mongostore"
	"chat-viewer/cmd/viewer/offline/sqlstore"
	"chat-viewer/cmd/viewer/router"
	"chat-viewer/cmd/viewer/services"
	"chat-viewer/cmd/viewer/views"
	"chat-viewer/config"
)

// @title           Chat Viewer API
// @version         1.0
// @description     Server-rendered viewer for chat transcripts stored by the chatbot backend
// @BasePath        /
func main() {
	config.InitApp()
	cfg := config.GetConfig()
	logger.Init(cfg.Logging.Level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 오프라인 캐시 저장소
	storage, closeStorage, err := openCacheStorage(ctx, cfg.Cache)
	if err != nil {
		logger.Log.Errorf("failed to open cache storage (%s): %v", cfg.Cache.Store, err)
		os.Exit(1)
	}
	defer closeStorage()

	// 캐시 워커 설치/활성화. 실패해도 네트워크 그대로 동작한다.
	worker := offline.NewWorker(offline.Config{Name: cfg.Cache.Name, Assets: cfg.Cache.Assets}, storage, http.DefaultTransport)
	if err := worker.Install(ctx); err != nil {
		logger.Log.Warnf("cache worker install failed, continuing without offline cache: %v", err)
	} else if err := worker.Activate(ctx); err != nil {
		logger.Log.Warnf("cache worker activate failed: %v", err)
	}

	client := httpclient.New(httpclient.Config{Timeout: cfg.Backend.Timeout, Transport: worker})
	backend := chatbotclient.New(httpclient.NewBaseClientWithClient(client, cfg.Backend.BaseURL))

	// EventBus
	bus := newEventBus(ctx, cfg.Events)
	defer bus.Close()

	viewer := services.NewViewerService(backend, bus, cfg.Events.Topic)
	// 연결 점검은 캐시 워커를 거치지 않는다. 캐시가 대신 응답하면 오프라인을 알아챌 수 없다.
	pingClient := chatbotclient.New(httpclient.NewBaseClientWithClient(httpclient.New(httpclient.Config{Timeout: 10 * time.Second}), cfg.Backend.BaseURL))
	monitor := services.NewConnectivityMonitor(pingClient, viewer, cfg.Backend.ProbeUserID, cfg.Backend.ProbeInterval)
	go monitor.Run(ctx)

	renderer, err := views.New(views.Options{
		Title:          cfg.UI.Title,
		BreakpointPx:   cfg.UI.MobileBreakpointPx,
		StylesheetHref: assetHref(cfg.UI.StylesheetURL, cfg.Cache.AssetBaseURL),
		IconHref:       assetHref(cfg.UI.IconURL, cfg.Cache.AssetBaseURL),
		Sanitize:       cfg.UI.Sanitize(),
	})
	if err != nil {
		logger.Log.Errorf("failed to parse templates: %v", err)
		os.Exit(1)
	}

	r := router.New(router.Deps{
		Viewer:       viewer,
		Backend:      services.NewBackendService(backend),
		Monitor:      monitor,
		Views:        renderer,
		Worker:       worker,
		AssetClient:  client,
		AssetBaseURL: cfg.Cache.AssetBaseURL,
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", handlers.HeaderFragment, "X-Request-Id"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           c.Handler(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Infof("chat viewer listening on %s (backend=%s, cache=%s/%s)", srv.Addr, cfg.Backend.BaseURL, cfg.Cache.Store, worker.State())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Errorf("http server error: %v", err)
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Log.Info("received shutdown signal, shutting down chat viewer...")
	case <-ctx.Done():
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorf("http server shutdown error: %v", err)
	}

	logger.Log.Info("chat viewer stopped")
}

func openCacheStorage(ctx context.Context, cfg config.CacheConfig) (offline.CacheStorage, func(), error) {
	switch cfg.Store {
	case config.CacheStoreMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		store, err := mongostore.Connect(connectCtx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := store.Close(closeCtx); err != nil {
				logger.Log.Warnf("mongo cache store close: %v", err)
			}
		}, nil
	case config.CacheStoreSQLite:
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, err
			}
		}
		store, err := sqlstore.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Log.Warnf("sqlite cache store close: %v", err)
			}
		}, nil
	default:
		return offline.NewMemoryStorage(), func() {}, nil
	}
}

func newEventBus(ctx context.Context, cfg config.EventsConfig) eventbus.EventBus {
	if !cfg.Enabled {
		return eventbus.NoopEventBus{}
	}
	if err := eventbus.EnsureTopic(ctx, cfg.Brokers, eventbus.NewTopic(cfg.Topic), 3); err != nil {
		logger.Log.Errorf("failed to ensure eventbus topic %s: %v", cfg.Topic, err)
	}
	bus, err := eventbus.NewKafkaEventBus(cfg.Brokers)
	if err != nil {
		logger.Log.Errorf("failed to create event bus, message events disabled: %v", err)
		return eventbus.NoopEventBus{}
	}
	return bus
}

// assetHref 는 캐시 워커가 프록시하는 외부 에셋 URL 을 /assets 경로로 바꾼다.
func assetHref(assetURL, assetBaseURL string) string {
	base := strings.TrimRight(assetBaseURL, "/")
	if base != "" && strings.HasPrefix(assetURL, base+"/") {
		return "/assets" + strings.TrimPrefix(assetURL, base)
	}
	return assetURL
}
