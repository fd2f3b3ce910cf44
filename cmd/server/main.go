package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"quiz-show/internal/api"
	"quiz-show/internal/config"
	"quiz-show/internal/console"
	"quiz-show/internal/game"
	"quiz-show/internal/storage"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file from parent directory
	if err := godotenv.Load("../.env"); err != nil {
		// Try current directory as fallback
		if err := godotenv.Load(".env"); err != nil {
			log.Println("💡 No .env file found, using environment variables only")
		}
	} else {
		log.Println("✅ Loaded environment from ../.env")
	}

	log.Println("🎤 ================================")
	log.Println("🎤  QUIZ SHOW - ROUND ENGINE")
	log.Println("🎤 ================================")

	// Load centralized configuration
	appConfig := config.Load()
	rules := appConfig.Rules
	serverCfg := appConfig.Server
	storageCfg := appConfig.Storage

	log.Printf("📐 Rules: R1 +%d/-%d%%, R2 +%d, R3 +%d, lucky loser ≥%d%%, slots %d/%d",
		rules.RoundOne.CorrectPoints, rules.RoundOne.HealthPenalty,
		rules.RoundTwo.CorrectPoints, rules.RoundThree.CorrectPoints,
		rules.LuckyLoserThreshold, rules.RoundTwoSlots, rules.RoundThreeSlots)

	engine := game.NewEngine(game.EngineConfig{
		Rules:        rules,
		TickInterval: appConfig.Timer.TickInterval,
	})

	// Start event log
	if storageCfg.EventLogPath != "" {
		if err := engine.StartEventLog(storageCfg.EventLogPath); err != nil {
			log.Printf("⚠️ Event log disabled: %v", err)
		} else {
			log.Printf("📝 Event log: %s", storageCfg.EventLogPath)
		}
	}

	// Save slots
	var db *sql.DB
	var saves api.SaveStore
	if storageCfg.DBPath != "" {
		var err error
		db, err = storage.Open(storageCfg.DBPath)
		if err != nil {
			log.Printf("⚠️ Save slots disabled: %v", err)
		} else {
			saves = storage.NewSaveRepository(db)
			log.Printf("💾 Save slots: %s", storageCfg.DBPath)
		}
	}

	// Start debug server
	if serverCfg.DebugServer {
		debugCfg := api.DefaultObservabilityConfig()
		if addr := os.Getenv("DEBUG_ADDR"); addr != "" {
			debugCfg.ListenAddr = addr
		}
		debugCfg.BasicAuthUser = os.Getenv("DEBUG_USER")
		debugCfg.BasicAuthPass = os.Getenv("DEBUG_PASS")
		api.StartDebugServer(debugCfg)
	}

	server := api.NewServer(engine, saves, api.ServerConfig{
		CORSOrigins:         serverCfg.CORSOrigins,
		DefaultTimerSeconds: appConfig.Timer.DefaultSeconds,
	})

	// Start game engine (countdown scheduler)
	engine.Start()
	log.Println("✅ Game Engine started")

	// Start API server in goroutine
	addr := ":" + strconv.Itoa(serverCfg.Port)
	go func() {
		log.Printf("🌐 API server on http://localhost%s", addr)
		if err := server.Start(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if serverCfg.HostConsole {
		c := console.New(console.NewHandler(engine, appConfig.Timer.DefaultSeconds), os.Stdin, os.Stdout)
		go func() {
			if err := c.Run(ctx); err != nil && ctx.Err() == nil {
				log.Printf("⚠️ Host console stopped: %v", err)
			}
		}()
	}

	// Wait for shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("✅ Server ready! Press Ctrl+C to stop.")
	<-quit

	log.Println("🛑 Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Stop(shutdownCtx); err != nil {
		log.Printf("⚠️ HTTP shutdown: %v", err)
	}

	engine.Stop()
	engine.StopEventLog()
	if db != nil {
		db.Close()
	}
	log.Println("👋 Goodbye!")
}
