package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rdab4510/collaborative-canvas/internal/api"
	"github.com/rdab4510/collaborative-canvas/internal/canvas"
	"github.com/rdab4510/collaborative-canvas/internal/db"
	"github.com/rdab4510/collaborative-canvas/internal/registry"
	"github.com/rdab4510/collaborative-canvas/internal/ws"
)

func main() {
	var database *db.Database
	if dbPath := os.Getenv("CANVAS_DB_PATH"); dbPath != "" {
		var err error
		database, err = db.New(dbPath)
		if err != nil {
			log.Fatalf("Failed to initialize archive: %v", err)
		}
		defer database.Close()
		log.Printf("Stroke archive: %s", dbPath)
	} else {
		log.Println("Stroke archive disabled (set CANVAS_DB_PATH to enable)")
	}

	reg := registry.New()
	history := canvas.NewStore()

	hub := ws.NewHub(reg, history, database)
	go hub.Run()

	sweeper := registry.NewSweeper(reg, sweepConfigFromEnv())
	sweeper.Start()

	apiHandler := api.New(hub, reg, history, database)

	// WebSocket endpoint
	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWs(hub, w, r)
	})

	http.HandleFunc("/health", apiHandler.HealthHandler)
	http.HandleFunc("/api/stats", apiHandler.StatsHandler)
	http.HandleFunc("/api/rooms", apiHandler.RoomsRouter)
	http.HandleFunc("/api/rooms/", apiHandler.RoomsRouter)
	http.HandleFunc("/api/operations", apiHandler.OperationsHandler)

	// Apply CORS middleware
	handler := corsMiddleware(http.DefaultServeMux)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		sweeper.Stop()
		if database != nil {
			database.Close()
		}
		os.Exit(0)
	}()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Canvas relay server starting on :%s", port)
	log.Println("Endpoints:")
	log.Println("  - WebSocket:  /ws?room={roomId}")
	log.Println("  - Health:     GET /health")
	log.Println("  - Stats:      GET /api/stats")
	log.Println("  - Rooms:      GET /api/rooms")
	log.Println("  - Room:       GET /api/rooms/{id}")
	log.Println("  - Operations: GET /api/operations?room={roomId}")

	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatal("ListenAndServe: ", err)
	}
}

func sweepConfigFromEnv() registry.SweepConfig {
	cfg := registry.DefaultSweepConfig()
	if v := os.Getenv("CANVAS_ROOM_TTL_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxRoomAge = time.Duration(n) * time.Minute
		}
	}
	if v := os.Getenv("CANVAS_SWEEP_INTERVAL_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Interval = time.Duration(n) * time.Minute
		}
	}
	return cfg
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
