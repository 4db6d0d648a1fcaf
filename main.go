package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/gopi-c-k/gopzCollab-sub000/handlers"
	"github.com/gopi-c-k/gopzCollab-sub000/internal/archive"
	"github.com/gopi-c-k/gopzCollab-sub000/internal/bridge"
	"github.com/gopi-c-k/gopzCollab-sub000/internal/collab"
	collabhandler "github.com/gopi-c-k/gopzCollab-sub000/internal/collab/handler"
	"github.com/gopi-c-k/gopzCollab-sub000/internal/config"
	"github.com/gopi-c-k/gopzCollab-sub000/internal/database"
	dochandler "github.com/gopi-c-k/gopzCollab-sub000/internal/document/handler"
	docrepo "github.com/gopi-c-k/gopzCollab-sub000/internal/document/repository"
	docservice "github.com/gopi-c-k/gopzCollab-sub000/internal/document/service"
	"github.com/gopi-c-k/gopzCollab-sub000/internal/notify"
	"github.com/gopi-c-k/gopzCollab-sub000/internal/oidc"
	"github.com/gopi-c-k/gopzCollab-sub000/internal/reaper"
	"github.com/gopi-c-k/gopzCollab-sub000/internal/sessions"
	"github.com/gopi-c-k/gopzCollab-sub000/internal/tokens"
	"github.com/gopi-c-k/gopzCollab-sub000/internal/users"
	"github.com/gopi-c-k/gopzCollab-sub000/pkg/logger"
	"github.com/gopi-c-k/gopzCollab-sub000/pkg/metrics"
	"github.com/gopi-c-k/gopzCollab-sub000/pkg/middleware"
)

var startTime = time.Now()

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Init(cfg.Server.Environment, os.Getenv("LOG_LEVEL"))
	logger.Infof("config loaded: oidc=%v mongo=%v redis=%v", cfg.OIDC.IssuerURL != "", cfg.MongoDB.URI != "", cfg.Redis.Host != "")

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// Lightweight CORS middleware for dev/test: production should sit
	// behind a stricter proxy policy.
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	})

	ctx := context.Background()

	// Connect to Redis early so the limiter and notifier can use it
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			redisClient = nil
		} else {
			logger.Infof("connected to Redis at %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && redisClient != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(redisClient, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	// Connect to MongoDB with retry/backoff to tolerate startup races
	var mongoClient *mongo.Client
	if cfg.MongoDB.URI != "" {
		const maxAttempts = 5
		backoff := time.Second
		var errConn error
		for attempt := 1; attempt <= maxAttempts; attempt++ {
			mongoClient, errConn = database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
			if errConn == nil {
				break
			}
			logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, maxAttempts, errConn)
			if attempt < maxAttempts {
				time.Sleep(backoff)
				backoff *= 2
			}
		}
		if errConn != nil {
			logger.Warnf("could not connect to MongoDB after %d attempts: %v", maxAttempts, errConn)
			mongoClient = nil
		} else {
			defer func() { _ = mongoClient.Disconnect(ctx) }()
		}
	}

	// Stores: Mongo when available, memory otherwise (dev/test)
	var docs docrepo.Store
	var registry sessions.Registry
	var userSvc *users.Service
	var archiveCol *mongo.Collection
	if mongoClient != nil {
		db := mongoClient.Database(cfg.MongoDB.Database)
		docs = docrepo.NewMongoStore(db.Collection("documents"))
		registry = sessions.NewMongoRegistry(db.Collection("sessions"))
		userSvc = users.NewService(users.NewMongoUserRepository(db.Collection("users")))
		archiveCol = db.Collection("checkpoint_archive")
	} else if redisClient != nil {
		logger.Warnf("MongoDB unavailable; using memory documents with Redis session registry")
		docs = docrepo.NewMemoryStore()
		registry = sessions.NewRedisRegistry(redisClient, "")
	} else {
		logger.Warnf("no durable storage configured; using in-memory stores")
		docs = docrepo.NewMemoryStore()
		registry = sessions.NewMemoryRegistry()
	}

	var notifier notify.Notifier = notify.NopNotifier{}
	if redisClient != nil {
		notifier = notify.NewRedisNotifier(redisClient, "")
	}

	var archiver *archive.Archiver
	if cfg.Archive.Endpoint != "" {
		blobs, err := archive.NewBlobStore(cfg.Archive)
		if err != nil {
			logger.Warnf("checkpoint archive disabled: %v", err)
		} else {
			archiver = archive.NewArchiver(blobs, archiveCol)
			logger.Infof("checkpoint archive enabled: bucket=%s", cfg.Archive.Bucket)
		}
	}

	docSvc := docservice.NewService(docs)
	orch := collab.NewOrchestrator(docs, registry, notifier).WithArchiver(archiver)
	hub := bridge.NewHub(orch, cfg.Bridge)

	// Identity: OIDC provider when configured, shared-secret HS256
	// otherwise; insecure claims parsing only behind explicit opt-in.
	var verifier middleware.Verifier
	if cfg.OIDC.IssuerURL != "" && cfg.OIDC.ClientID != "" {
		ver, err := oidc.NewVerifier(ctx, strings.TrimRight(cfg.OIDC.IssuerURL, "/"), cfg.OIDC.ClientID)
		if err != nil {
			logger.Warnf("failed to initialize OIDC verifier: %v", err)
		} else {
			verifier = ver
		}
	}
	if verifier == nil && cfg.JWT.Secret != "" {
		verifier = tokens.NewHSVerifier(cfg.JWT.Secret)
		logger.Infof("using HS256 token verification")
	}
	if verifier == nil && strings.EqualFold(os.Getenv("ALLOW_INSECURE_TOKEN"), "true") {
		logger.Warn("enabling insecure token verification (integration mode)")
		verifier = oidc.NewInsecureVerifier()
	}
	if verifier == nil {
		logger.Fatalf("no identity verifier configured: set OIDC_ISSUER_URL/OIDC_CLIENT_ID or JWT_SECRET")
	}

	// Basic health endpoint
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// readiness: 200 only when the critical dependencies are available
	r.GET("/ready", func(c *gin.Context) {
		deps := map[string]bool{
			"storage":  docs != nil && registry != nil,
			"mongodb":  mongoClient != nil,
			"redis":    redisClient != nil || cfg.Redis.Host == "",
			"identity": verifier != nil,
		}
		ready := deps["storage"] && deps["identity"] && deps["redis"]
		status := http.StatusOK
		state := "ready"
		if !ready {
			status = http.StatusServiceUnavailable
			state = "not_ready"
		}
		c.JSON(status, gin.H{"status": state, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	handlers.RegisterSwagger(r)

	api := r.Group("/api/v1", middleware.AuthMiddleware(verifier))
	dochandler.RegisterDocumentRoutes(api, docSvc)
	collabhandler.RegisterSessionRoutes(api, orch)
	api.GET("/me", func(c *gin.Context) {
		claims, _ := middleware.Claims(c)
		if userSvc != nil {
			if u, err := userSvc.UpsertFromClaims(c.Request.Context(), claims); err == nil && u != nil {
				c.JSON(http.StatusOK, gin.H{"user": u})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"claims": claims})
	})

	ws := r.Group("/", middleware.AuthMiddleware(verifier))
	bridge.RegisterRoutes(ws, hub)

	// background reaper for abandoned sessions
	reapCtx, cancelReaper := context.WithCancel(ctx)
	defer cancelReaper()
	go reaper.New(registry, orch, cfg.Session.PingTimeout, cfg.Session.ReapInterval).Run(reapCtx)

	// Expose Prometheus metrics
	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("starting gopzcollab session core on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
