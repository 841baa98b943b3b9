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

	"github.com/aidigest/aidigest/backend/go-services/handlers"
	"github.com/aidigest/aidigest/backend/go-services/internal/auth"
	"github.com/aidigest/aidigest/backend/go-services/internal/authcache"
	"github.com/aidigest/aidigest/backend/go-services/internal/config"
	"github.com/aidigest/aidigest/backend/go-services/internal/database"
	"github.com/aidigest/aidigest/backend/go-services/internal/identity"
	"github.com/aidigest/aidigest/backend/go-services/internal/storage"
	"github.com/aidigest/aidigest/backend/go-services/internal/users"
	"github.com/aidigest/aidigest/backend/go-services/pkg/logger"
	"github.com/aidigest/aidigest/backend/go-services/pkg/metrics"
	"github.com/aidigest/aidigest/backend/go-services/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// logging first (controlled with LOG_LEVEL env: debug|info|warn|error|fatal)
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: oidc=%v mongo=%v redis=%v", cfg.OIDC.Issuer != "", cfg.MongoDB.URI != "", cfg.Redis.Host != "")

	r := gin.New()
	r.Use(middleware.CORSMiddleware(cfg.CORS.Origins))
	r.Use(gin.Logger(), gin.Recovery())

	ctx := context.Background()

	// Connect to Redis early so the rate limiter and the principal cache can
	// use it when configured.
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

	// Optional global rate limiter (per-user when authenticated, otherwise per-IP)
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && redisClient != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(redisClient, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	// Identity provider verifier. Startup continues without one so the
	// diagnostics endpoints stay reachable; protected routes answer 500
	// until it is configured.
	var verifier auth.Verifier
	if cfg.OIDC.Issuer != "" && cfg.OIDC.ClientID != "" {
		ver, err := identity.NewVerifier(ctx, cfg.OIDC.Issuer, cfg.OIDC.ClientID)
		if err != nil {
			logger.Warnf("failed to initialize OIDC verifier: %v", err)
		} else {
			verifier = ver
		}
	}
	if verifier == nil && strings.EqualFold(strings.TrimSpace(os.Getenv("ALLOW_INSECURE_TOKEN")), "true") {
		logger.Warn("enabling insecure token verifier (integration mode)")
		verifier = identity.NewInsecureVerifier()
	}

	// MongoDB is the one hard dependency: retry with backoff to tolerate
	// startup races, then give up.
	var client *mongo.Client
	const maxAttempts = 5
	backoff := time.Second
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		client, err = database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
		if err == nil {
			break
		}
		logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, maxAttempts, err)
		if attempt < maxAttempts {
			time.Sleep(backoff)
			backoff *= 2
		}
	}
	if err != nil {
		logger.Fatalf("could not connect to MongoDB after %d attempts: %v", maxAttempts, err)
	}
	defer func() { _ = client.Disconnect(ctx) }()
	logger.Infof("connected to MongoDB database %q", cfg.MongoDB.Database)

	db := client.Database(cfg.MongoDB.Database)
	repo := users.NewMongoRepository(db.Collection("users"))
	userSvc := users.NewService(repo)

	// Redis-backed principal cache cuts repeat verifier round-trips.
	var principalCache middleware.PrincipalCache
	if redisClient != nil {
		principalCache = authcache.New(redisClient, "principal:", 5*time.Minute)
	}

	// Optional avatar object storage.
	var avatars *storage.AvatarStore
	if mc := storage.LoadMinIOConfig(); mc.Endpoint != "" {
		avatars, err = storage.NewAvatarStore(mc)
		if err != nil {
			logger.Warnf("avatar storage unavailable: %v", err)
			avatars = nil
		} else {
			logger.Infof("avatar storage ready (bucket %s)", mc.Bucket)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// readiness: 200 only when critical dependencies are available
	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{}

		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		deps["mongodb"] = client.Ping(pingCtx, nil) == nil
		if !deps["mongodb"] {
			ready = false
		}

		if cfg.OIDC.Issuer != "" {
			deps["oidc"] = verifier != nil
			if !deps["oidc"] {
				ready = false
			}
		} else {
			deps["oidc"] = true
		}

		if cfg.Redis.Host != "" && cfg.RateLimit.UseRedis {
			deps["redis"] = redisClient != nil
			if !deps["redis"] {
				ready = false
			}
		} else {
			deps["redis"] = true
		}

		status := http.StatusOK
		state := "ready"
		if !ready {
			status = http.StatusServiceUnavailable
			state = "not_ready"
		}
		c.JSON(status, gin.H{"status": state, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	authGate := middleware.AuthMiddleware(verifier, principalCache)
	api := r.Group("/api")
	handlers.NewAuthHandler(userSvc, verifier, cfg).Register(api, authGate)
	handlers.NewUserHandler(userSvc, db, avatars).Register(api, authGate)
	handlers.NewSystemHandler(cfg, db, verifier).Register(api)
	handlers.RegisterSwagger(r)

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Debugf("services: verifier=%v cache=%v avatars=%v", verifier != nil, principalCache != nil, avatars != nil)
	logger.Infof("starting user service on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
