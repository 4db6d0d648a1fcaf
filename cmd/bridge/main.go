package main

import (
	"context"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/gopi-c-k/gopzCollab-sub000/internal/bridge"
	"github.com/gopi-c-k/gopzCollab-sub000/internal/collab"
	"github.com/gopi-c-k/gopzCollab-sub000/internal/config"
	"github.com/gopi-c-k/gopzCollab-sub000/internal/database"
	docrepo "github.com/gopi-c-k/gopzCollab-sub000/internal/document/repository"
	"github.com/gopi-c-k/gopzCollab-sub000/internal/notify"
	"github.com/gopi-c-k/gopzCollab-sub000/internal/oidc"
	"github.com/gopi-c-k/gopzCollab-sub000/internal/sessions"
	"github.com/gopi-c-k/gopzCollab-sub000/internal/tokens"
	"github.com/gopi-c-k/gopzCollab-sub000/pkg/logger"
	"github.com/gopi-c-k/gopzCollab-sub000/pkg/metrics"
	"github.com/gopi-c-k/gopzCollab-sub000/pkg/middleware"
)

// Standalone sync bridge process. Runs only the websocket fan-out plus the
// lifecycle hooks it needs (checkpoint on last disconnect). Deploy a single
// instance per document shard: rooms are process-local.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Init(cfg.Server.Environment, os.Getenv("LOG_LEVEL"))

	port := os.Getenv("BRIDGE_PORT")
	if port == "" {
		port = "5021"
	}

	ctx := context.Background()

	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warnf("cannot connect to Redis: %v", err)
			redisClient = nil
		}
	}

	var docs docrepo.Store
	var registry sessions.Registry
	if cfg.MongoDB.URI != "" {
		client, err := database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
		if err != nil {
			logger.Warnf("cannot connect to MongoDB (%v); using memory stores", err)
		} else {
			db := client.Database(cfg.MongoDB.Database)
			docs = docrepo.NewMongoStore(db.Collection("documents"))
			registry = sessions.NewMongoRegistry(db.Collection("sessions"))
			defer func() { _ = client.Disconnect(ctx) }()
		}
	}
	if docs == nil {
		docs = docrepo.NewMemoryStore()
	}
	if registry == nil {
		if redisClient != nil {
			registry = sessions.NewRedisRegistry(redisClient, "")
		} else {
			registry = sessions.NewMemoryRegistry()
		}
	}

	var notifier notify.Notifier = notify.NopNotifier{}
	if redisClient != nil {
		notifier = notify.NewRedisNotifier(redisClient, "")
	}

	orch := collab.NewOrchestrator(docs, registry, notifier)
	hub := bridge.NewHub(orch, cfg.Bridge)

	var verifier middleware.Verifier
	if cfg.JWT.Secret != "" {
		verifier = tokens.NewHSVerifier(cfg.JWT.Secret)
	} else if strings.EqualFold(os.Getenv("ALLOW_INSECURE_TOKEN"), "true") {
		logger.Warn("bridge running with insecure token verification")
		verifier = oidc.NewInsecureVerifier()
	}
	if verifier == nil {
		logger.Fatalf("no identity verifier configured: set JWT_SECRET or ALLOW_INSECURE_TOKEN=true")
	}

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy", "rooms": hub.RoomCount()})
	})

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	ws := r.Group("/", middleware.AuthMiddleware(verifier))
	bridge.RegisterRoutes(ws, hub)

	logger.Infof("sync bridge listening on :%s", port)
	if err := r.Run(":" + port); err != nil {
		logger.Fatalf("bridge server failed: %v", err)
	}
}
