package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/bitjob/backend/internal/config"
	"github.com/bitjob/backend/internal/infrastructure/dynamo"
	jwtinfra "github.com/bitjob/backend/internal/infrastructure/jwt"
	"github.com/bitjob/backend/internal/infrastructure/mailqueue"
	redisinfra "github.com/bitjob/backend/internal/infrastructure/redis"
	s3infra "github.com/bitjob/backend/internal/infrastructure/s3"
	"github.com/bitjob/backend/internal/infrastructure/smtp"
	transporthttp "github.com/bitjob/backend/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	// Redis holds the one-time codes and verified markers.
	redisClient, err := redisinfra.NewClient(cfg)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	codeStore := redisinfra.NewCodeStore(redisClient)

	// JWT provider (optional — graceful fallback if keys are missing).
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
	} else {
		log.Printf("WARN: JWT provider not available: %v", err)
	}

	// S3 store for project attachments.
	s3Client := s3infra.NewClient(cfg)
	s3Store := s3infra.NewStore(s3Client, cfg.S3BucketName)

	// SMTP mailer behind a worker-pool queue.
	mailer := smtp.NewMailer(cfg)
	mailQueue := mailqueue.NewQueue(mailer, cfg.MailWorkers, cfg.MailQueueSize)
	defer mailQueue.Close()

	deps := &transporthttp.Deps{
		UserRepo:     dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users),
		ProjectRepo:  dynamo.NewProjectRepo(dynamoClient, cfg.DynamoTables.Projects),
		CategoryRepo: dynamo.NewCategoryRepo(dynamoClient, cfg.DynamoTables.Categories),
		TagRepo:      dynamo.NewTagRepo(dynamoClient, cfg.DynamoTables.Tags),
		FileRepo:     dynamo.NewProjectFileRepo(dynamoClient, cfg.DynamoTables.ProjectFiles),
		CodeStore:    codeStore,
		S3Store:      s3Store,
		MailQueue:    mailQueue,
		JWTProvider:  jwtProvider,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
