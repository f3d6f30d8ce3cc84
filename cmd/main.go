package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/messaging"
	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"google.golang.org/api/option"

	"github.com/CarlosSprekelsen/Marketplace-Evelyn/internal/config"
	"github.com/CarlosSprekelsen/Marketplace-Evelyn/internal/metrics"
	"github.com/CarlosSprekelsen/Marketplace-Evelyn/utils"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}
	cfg := config.LoadConfig()

	port := os.Getenv("PORT")
	if port == "" {
		port = ":4001"
	} else {
		port = ":" + port
	}

	addr := flag.String("addr", port, "HTTP network address")
	flag.Parse()

	infoLog := log.New(os.Stdout, "INFO\t", log.Ldate|log.Ltime)
	errorLog := log.New(os.Stderr, "ERROR\t", log.Ldate|log.Ltime|log.Lshortfile)

	db, err := openDB(cfg.Database.URL)
	if err != nil {
		errorLog.Fatal(err)
	}
	defer db.Close()

	tokenManager, err := utils.NewManager(cfg.Auth.SigningKey)
	if err != nil {
		errorLog.Fatal(err)
	}

	fcmClient := newMessagingClient(cfg.Firebase.CredentialsFile, errorLog)
	sink := newMetricsSink(cfg, infoLog, errorLog)

	app := initializeApp(db, fcmClient, sink, cfg.Auth.SigningKey, tokenManager, errorLog, infoLog)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	startRequestExpirer(ctx, app.requestService, infoLog, errorLog)
	startRecurringGenerator(ctx, app.recurringService, infoLog, errorLog)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowCredentials: true,
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
	})

	srv := &http.Server{
		Addr:         *addr,
		ErrorLog:     errorLog,
		Handler:      c.Handler(app.routes()),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	infoLog.Printf("Starting server on %s", *addr)
	if err := srv.ListenAndServe(); err != nil {
		errorLog.Fatal(err)
	}
}

func openDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

// newMessagingClient builds the FCM client, or returns nil so push becomes a
// no-op when no credentials are configured.
func newMessagingClient(credentialsFile string, errorLog *log.Logger) *messaging.Client {
	if credentialsFile == "" {
		errorLog.Println("firebase credentials not configured, push notifications disabled")
		return nil
	}
	app, err := firebase.NewApp(context.Background(), nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		errorLog.Printf("failed to initialize firebase app: %v", err)
		return nil
	}
	client, err := app.Messaging(context.Background())
	if err != nil {
		errorLog.Printf("failed to initialize fcm client: %v", err)
		return nil
	}
	return client
}

func newMetricsSink(cfg config.Config, infoLog, errorLog *log.Logger) metrics.Sink {
	if cfg.Redis.Addr == "" {
		return metrics.NopSink{}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
	})
	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		errorLog.Printf("redis unavailable, metrics disabled: %v", err)
		return metrics.NopSink{}
	}
	infoLog.Printf("metrics sink connected to redis at %s", cfg.Redis.Addr)
	return metrics.NewRedisSink(client, "marketplace")
}
