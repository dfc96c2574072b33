package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"screening-bot-be/internal/config"
	"screening-bot-be/pkg/events"
	pktNats "screening-bot-be/pkg/nats"
)

// events tails the session lifecycle events relayed to NATS, one JSON line per
// event. Use -type to follow a single event type.
func main() {
	eventType := flag.String("type", "", "event type to follow, e.g. session.completed (default: all)")
	durable := flag.String("durable", "events-tail", "durable consumer name")
	flag.Parse()

	cfg := config.Load()
	if cfg.App.NatsURL == "" {
		log.Fatal("NATS_URL is not set")
	}

	sub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer sub.Close()

	subject := pktNats.SubjectPrefix + ">"
	if *eventType != "" {
		subject = pktNats.Subject(*eventType)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stopConsuming, err := sub.Subscribe(ctx, subject, *durable, func(ctx context.Context, event events.Event) error {
		line, err := events.Encode(event)
		if err != nil {
			return err
		}
		fmt.Println(string(line))
		return nil
	})
	if err != nil {
		log.Fatalf("Failed to subscribe: %v", err)
	}
	defer stopConsuming()

	log.Printf("Following %s", subject)
	<-ctx.Done()
}
