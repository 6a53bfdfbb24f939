package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	campaigns "github.com/fundverse/escrow-service/campaigns"
	escrow "github.com/fundverse/escrow-service/escrow"
	store "github.com/fundverse/escrow-service/store"
	transfers "github.com/fundverse/escrow-service/transfers"
)

// Config carries environment settings and the wired collaborators handed to
// the controllers.
type Config struct {
	Port           string
	DBName         string
	MongoClient    *mongo.Client
	JWTSecret      string
	AccessTTL      time.Duration
	RefreshTTL     time.Duration
	CampaignAPIURL string
	Operators      []string
	EscrowAccount  string

	Store     store.Store
	Campaigns campaigns.Client
	Tracker   *transfers.Tracker
	Escrow    *escrow.Service
}

// Load reads .env plus the environment and connects to MongoDB. The Mongo
// client is the store's lifecycle anchor: opened here, disconnected via
// Store.Close at shutdown.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		DBName:         getEnv("DB_NAME", "fundverse_escrow"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		AccessTTL:      getDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTTL:     getDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		CampaignAPIURL: os.Getenv("CAMPAIGN_API_URL"),
		EscrowAccount:  getEnv("ESCROW_ACCOUNT", "escrow"),
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.CampaignAPIURL == "" {
		return nil, fmt.Errorf("CAMPAIGN_API_URL is required")
	}
	if ops := os.Getenv("OPERATOR_IDS"); ops != "" {
		for _, id := range strings.Split(ops, ",") {
			if id = strings.TrimSpace(id); id != "" {
				cfg.Operators = append(cfg.Operators, id)
			}
		}
	}

	uri := getEnv("MONGODB_URI", "mongodb://localhost:27017")
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	cfg.MongoClient = client
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("invalid duration in %s, using default %s", key, fallback)
	}
	return fallback
}
