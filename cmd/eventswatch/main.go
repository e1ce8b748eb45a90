// Tails the generation lifecycle events on the NATS stream. Ops tool for
// checking what the assistant is emitting without attaching a real consumer.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"ai-storycraft-be/pkg/events"
	natsbus "ai-storycraft-be/pkg/nats"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	url := os.Getenv("NATS_URL")
	if url == "" {
		url = "nats://localhost:4222"
	}

	sub, err := natsbus.NewSubscriber(url)
	if err != nil {
		log.Fatalf("Error: Failed to connect to NATS: %v", err)
	}
	defer sub.Close()

	err = sub.Subscribe("events.generation.>", "eventswatch", func(ctx context.Context, event events.Event) error {
		log.Printf("[EVENT] %s: %v", event.EventType(), event.Payload())
		return nil
	})
	if err != nil {
		log.Fatalf("Error: Failed to subscribe: %v", err)
	}

	log.Println("Watching events.generation.> (Ctrl+C to stop)")
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop
}
