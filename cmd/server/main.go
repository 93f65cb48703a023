package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"

	"swampbook/internal/config"
	"swampbook/internal/database"
	"swampbook/internal/engine"
	"swampbook/internal/engine/actors"
	"swampbook/internal/handlers"
	"swampbook/internal/middleware"
	"swampbook/internal/utils"
	"swampbook/internal/websocket"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	middleware.SetJWTSecret(cfg.JWTSecret)

	metrics := utils.NewMetricsCollector()

	mongodb, err := database.NewMongoDB(cfg.Database.URI, cfg.Database.Name)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongodb.Close(ctx); err != nil {
			log.Printf("Error closing MongoDB connection: %v", err)
		}
	}()

	hub := websocket.NewHub()

	system := actor.NewActorSystem()
	eng := engine.NewEngine(system, mongodb, hub, metrics)

	hub.OnUserOffline = func(userID uuid.UUID) {
		system.Root.Send(eng.GetUserActor(), &actors.UpdateActivityMsg{UserID: userID, IsOnline: false})
	}
	go hub.Run()

	server := handlers.NewServer(system, system.Root, eng, metrics, mongodb, hub, cfg)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Starting server on %s", addr)
	if err := http.ListenAndServe(addr, server.Router()); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
