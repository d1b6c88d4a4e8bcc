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
	"github.com/redis/go-redis/v9"

	"github.com/avvvet/homebuddy-agent/internal/agent"
	"github.com/avvvet/homebuddy-agent/internal/analytics"
	"github.com/avvvet/homebuddy-agent/internal/config"
	"github.com/avvvet/homebuddy-agent/internal/dispatch"
	"github.com/avvvet/homebuddy-agent/internal/expense"
	"github.com/avvvet/homebuddy-agent/internal/intent"
	"github.com/avvvet/homebuddy-agent/internal/llm"
	"github.com/avvvet/homebuddy-agent/internal/server"
	"github.com/avvvet/homebuddy-agent/internal/session"
	"github.com/avvvet/homebuddy-agent/internal/slots"
	"github.com/avvvet/homebuddy-agent/internal/transport"
)

func main() {
	// Load .env file if it exists (for development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	log.Println("🚀 Starting HomeBuddy Agent Service...")

	cfg := config.Load()
	log.Printf("📋 Service: %s", cfg.ServiceName)
	log.Printf("📡 NATS URL: %s", cfg.NatsURL)
	log.Printf("🤖 LLM Model: %s", cfg.LLMModel)
	log.Printf("💾 Redis URL: %s", cfg.RedisURL)

	if cfg.LLMAPIKey == "" {
		log.Fatal("❌ LLM_API_KEY environment variable is required")
	}

	// Connect to Redis; session and expense stores share the client
	log.Println("🔌 Connecting to Redis...")
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("❌ Invalid Redis URL: %v", err)
	}
	redisClient := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		cancel()
		log.Fatalf("❌ Failed to connect to Redis: %v", err)
	}
	cancel()
	defer redisClient.Close()
	log.Println("✅ Redis connected")

	sessionStore := session.NewRedisStoreWithClient(redisClient, cfg.SessionTTL)
	expenseStore := expense.NewRedisStoreWithClient(redisClient)

	// LLM provider
	provider, err := llm.NewOpenAIProvider(cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMBaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to initialize LLM provider: %v", err)
	}
	log.Println("✅ LLM provider initialized")

	// Core pipeline
	resolver := intent.NewResolver(provider, cfg.IntentThreshold, cfg.LLMTimeout, cfg.HistoryWindowTurns)
	validator := slots.NewValidator(time.Now)
	analyticsService := analytics.NewService(expenseStore, time.Now)
	dispatcher := dispatch.NewDispatcher(expenseStore, analyticsService, time.Now)
	orchestrator := agent.NewOrchestrator(sessionStore, resolver, validator, dispatcher, time.Now)
	log.Println("✅ Orchestrator initialized")

	// NATS transport
	log.Println("📡 Connecting to NATS...")
	natsTransport, err := transport.NewNATSTransport(cfg, orchestrator, analyticsService)
	if err != nil {
		log.Fatalf("❌ Failed to initialize NATS transport: %v", err)
	}
	defer natsTransport.Close()

	if err := natsTransport.Start(); err != nil {
		log.Fatalf("❌ Failed to start NATS transport: %v", err)
	}

	// HTTP dashboard server
	httpServer := server.NewServer(cfg.HTTPAddr, orchestrator, expenseStore, analyticsService)
	go func() {
		log.Printf("🌐 HTTP dashboard listening on %s", cfg.HTTPAddr)
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ HTTP server failed: %v", err)
		}
	}()

	log.Println("✅ HomeBuddy Agent Service is running!")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.Printf("🛑 Received signal: %v", sig)
	log.Println("🔄 Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️ Error shutting down HTTP server: %v", err)
	}
	if err := natsTransport.Close(); err != nil {
		log.Printf("⚠️ Error closing NATS transport: %v", err)
	}

	log.Println("👋 HomeBuddy Agent Service stopped")
}
