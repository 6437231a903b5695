package main

import (
	"context"
	"log"
	"os"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"

	"lokapasar/internal/infrastructure/listener"
	"lokapasar/pkg/config"
)

// The hosting runtime cannot hold an indefinitely long-lived connection, so
// each run observes the message table for one bounded window and exits; an
// external scheduler re-triggers it.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	var opt option.ClientOption

	serviceAccountJSON := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON")
	if serviceAccountJSON != "" {
		opt = option.WithCredentialsJSON([]byte(serviceAccountJSON))
	} else {
		serviceAccountPath := os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH")
		if serviceAccountPath == "" {
			log.Fatalf("Firebase credentials missing: set FIREBASE_SERVICE_ACCOUNT_JSON or FIREBASE_SERVICE_ACCOUNT_PATH")
		}
		if _, err := os.Stat(serviceAccountPath); os.IsNotExist(err) {
			log.Fatalf("Service account file does not exist: %s", serviceAccountPath)
		}
		opt = option.WithCredentialsFile(serviceAccountPath)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opt)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	l := listener.New(listener.NewFirestoreSource(firestoreClient))

	summary, err := l.Run(ctx, cfg.ListenWindow)
	if err != nil {
		log.Fatalf("Failed to establish change stream: %v", err)
	}

	log.Printf("Listener finished: observed %d change(s) in %s", summary.Events, summary.Elapsed)
}
