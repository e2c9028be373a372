package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"social-insights-service/internal/collector"
	"social-insights-service/internal/insight"
	"social-insights-service/internal/progress"
	"social-insights-service/internal/provider"
	"social-insights-service/internal/repository/postgresql"
	"social-insights-service/internal/service"
	httptransport "social-insights-service/internal/transport/http"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpAddr := envOr("HTTP_ADDR", ":8080")
	pgDSN := mustEnv("POSTGRES_DSN")
	redisAddr := os.Getenv("REDIS_ADDR")
	apifyToken := os.Getenv("APIFY_API_TOKEN")
	geminiKey := os.Getenv("GEMINI_API_KEY")
	geminiModel := envOr("GEMINI_MODEL", "gemini-2.5-flash")
	progressTTL := time.Duration(envIntOr("PROGRESS_TTL_SECONDS", 3600)) * time.Second

	// Postgres
	pool, err := postgresql.NewPool(ctx, pgDSN)
	if err != nil {
		log.Fatalf("pg: %v", err)
	}
	defer pool.Close()
	repo := postgresql.NewAnalysisRepository(pool)

	// Progress store: Redis when configured, in-process map otherwise.
	var store progress.Store
	if redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("redis: %v", err)
		}
		store = progress.NewRedisStore(rdb, "", progressTTL)
	} else {
		store = progress.NewMemoryStore()
	}

	// Scrape provider. An empty token is fine: the collector degrades
	// to synthetic data and the pipeline still completes.
	scraper := provider.NewClient(apifyToken)
	if apifyToken == "" {
		log.Printf("[server] APIFY_API_TOKEN not set, collectors will serve fallback data")
	}

	// Insight synthesizer, same story for the model key.
	var gen insight.TextGenerator
	if geminiKey != "" {
		g, err := insight.NewGeminiGenerator(ctx, geminiKey, geminiModel)
		if err != nil {
			log.Fatalf("gemini: %v", err)
		}
		defer g.Close()
		gen = g
	} else {
		log.Printf("[server] GEMINI_API_KEY not set, insights will use the fixed fallback")
	}

	svc := service.NewAnalysisService(store, collector.New(scraper), insight.NewSynthesizer(gen), repo)
	handler := httptransport.NewHandler(svc)

	srv := &http.Server{
		Addr:              httpAddr,
		Handler:           httptransport.Routes(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[server] listening addr=%s redis=%t apify=%t gemini=%t",
			httpAddr, redisAddr != "", apifyToken != "", geminiKey != "")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[server] shutdown error: %v", err)
	}
	log.Println("server stopped")
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("missing env: %s", key)
	}
	return v
}

func envOr(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func envIntOr(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}
