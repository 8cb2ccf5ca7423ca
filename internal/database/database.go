package database

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"pricewatch_back_end/internal/config"
)

var (
	DB    *pgxpool.Pool
	Redis *redis.Client
)

// ConnectDatabases opens the Postgres pool and the Redis client. Any failure
// here is fatal: the process cannot do anything useful without its stores.
func ConnectDatabases(cfg *config.Config) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	connectPostgres(ctx, cfg)
	connectRedis(ctx, cfg)

	log.Println("✅ All datastores connected")
}

func connectPostgres(ctx context.Context, cfg *config.Config) {
	if cfg.DatabaseURL == "" {
		log.Fatal("❌ DATABASE_URL must be set")
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to create postgres pool: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("❌ Failed to ping postgres: %v", err)
	}

	DB = pool
	log.Println("✅ Connected to postgres")

	if err := initSchema(ctx, pool); err != nil {
		log.Fatalf("❌ Failed to initialize schema: %v", err)
	}
	log.Println("✅ Schema ready")
}

func connectRedis(ctx context.Context, cfg *config.Config) {
	Redis = redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})

	if err := Redis.Ping(ctx).Err(); err != nil {
		// Redis only backs rate limiting and response caching; the tracker
		// still works without it, so this is not fatal.
		log.Printf("⚠️  Redis unavailable at %s: %v", cfg.RedisAddr, err)
		return
	}
	log.Println("✅ Connected to redis")
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	const schema = `
CREATE TABLE IF NOT EXISTS products (
	id            BIGSERIAL PRIMARY KEY,
	url           TEXT NOT NULL UNIQUE,
	title         TEXT NOT NULL,
	image         TEXT,
	current_price DOUBLE PRECISION NOT NULL,
	target_price  DOUBLE PRECISION,
	user_email    TEXT,
	metadata      JSONB,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS price_history (
	id         BIGSERIAL PRIMARY KEY,
	product_id BIGINT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
	price      DOUBLE PRECISION NOT NULL,
	email_sent BOOLEAN NOT NULL DEFAULT FALSE,
	checked_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_price_history_product ON price_history(product_id);

CREATE TABLE IF NOT EXISTS alternate_offers (
	id         BIGSERIAL PRIMARY KEY,
	product_id BIGINT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
	platform   TEXT NOT NULL,
	title      TEXT NOT NULL,
	url        TEXT NOT NULL,
	price      TEXT,
	scraped_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_alternate_offers_product ON alternate_offers(product_id);
`
	_, err := pool.Exec(ctx, schema)
	return err
}
