package main

import (
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"snowfight/internal/api"
	"snowfight/internal/arena"
	"snowfight/internal/config"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load("../.env"); err != nil {
		if err := godotenv.Load(".env"); err != nil {
			log.Println("💡 No .env file found, using environment variables only")
		}
	} else {
		log.Println("✅ Loaded environment from ../.env")
	}

	log.Println("🎮 ================================")
	log.Println("🎮  SNOWFIGHT ARENA - GO ENGINE")
	log.Println("🎮 ================================")

	appConfig := config.Load()
	log.Printf("🗺️  World: %gx%g, cell %g", appConfig.World.Width, appConfig.World.Height, appConfig.World.CellSize)
	log.Printf("🛡️ Limits: %d total conns, %d per IP, %.0f req/s",
		appConfig.Limits.MaxConnectionsTotal, appConfig.Limits.MaxConnectionsPerIP, appConfig.Limits.RequestsPerSecond)
	log.Printf("⚙️  Workers: %d", appConfig.Server.WorkerCount)

	debugCfg := api.DefaultObservabilityConfig()
	if os.Getenv("DISABLE_DEBUG_SERVER") != "true" {
		if err := api.StartDebugServer(debugCfg); err != nil {
			log.Printf("⚠️ Debug server disabled: %v", err)
		}
	}

	a := arena.New(appConfig, api.PrometheusMetrics{})
	a.Run()
	log.Println("✅ Arena started")

	server := api.NewServer(a, appConfig)

	port := strconv.Itoa(appConfig.Server.Port)
	addr := ":" + port
	go func() {
		log.Printf("🌐 API server on http://localhost%s", addr)
		log.Printf("🔌 WebSocket: ws://localhost%s/ws", addr)
		if err := server.Start(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("✅ Server ready! Press Ctrl+C to stop.")
	<-quit

	log.Println("🛑 Shutting down...")
	server.Stop()
	a.Stop()
	log.Println("👋 Goodbye!")
}
