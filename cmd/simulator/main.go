package main

import (
	"context"
	"log"
	"time"

	"swampbook/simulator"
)

func main() {
	config := simulator.SimConfig{
		NumUsers:         10,
		FriendsPerUser:   3,
		SimulationTime:   5 * time.Minute,
		MessageFrequency: 12.0,
		TypingChance:     0.5,
		PostFrequency:    2.0,
		LikeChance:       0.4,
		ServerURL:        "http://localhost:8080",
	}

	sim := simulator.NewSimulator(config)
	ctx, cancel := context.WithTimeout(context.Background(), config.SimulationTime)
	defer cancel()

	log.Printf("Starting simulation with configuration:")
	log.Printf("- Server URL: %s", config.ServerURL)
	log.Printf("- Number of users: %d", config.NumUsers)
	log.Printf("- Friends per user: %d", config.FriendsPerUser)
	log.Printf("- Simulation time: %v", config.SimulationTime)
	log.Printf("- Message frequency: %.2f messages/user/min", config.MessageFrequency)
	log.Printf("- Typing chance: %.1f%%", config.TypingChance*100)
	log.Printf("- Post frequency: %.2f posts/user/min", config.PostFrequency)
	log.Printf("- Like chance: %.1f%%", config.LikeChance*100)

	if err := sim.Run(ctx); err != nil {
		log.Fatalf("Simulation failed: %v", err)
	}

	metrics := sim.GetMetrics()
	log.Printf("\nSimulation completed. Final metrics:")
	log.Printf("- Total users: %d", metrics.TotalUsers)
	log.Printf("- Total messages: %d", metrics.TotalMessages)
	log.Printf("- Total posts: %d", metrics.TotalPosts)
	log.Printf("- Total likes: %d", metrics.TotalLikes)
	log.Printf("- Average latency: %v", metrics.AverageLatency)
	log.Printf("- Requests/sec: %.2f", metrics.RequestsPerSecond)
	log.Printf("- Error count: %d", metrics.ErrorCount)
}
