package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/terrenospy/terrenospy/handlers"
	"github.com/terrenospy/terrenospy/internal/config"
	"github.com/terrenospy/terrenospy/internal/database"
	"github.com/terrenospy/terrenospy/internal/store"
	"github.com/terrenospy/terrenospy/internal/terreno/repository"
	"github.com/terrenospy/terrenospy/pkg/logger"
	"github.com/terrenospy/terrenospy/pkg/metrics"
	"github.com/terrenospy/terrenospy/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// initialize logging (can be controlled with LOG_LEVEL env: debug|info|warn|error|fatal)
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: data_file=%s base_dir=%s mongo=%v redis=%v", cfg.Store.DataFile, cfg.Server.BaseDir, cfg.MongoDB.URI != "", cfg.Redis.Host != "")

	r := gin.New()

	// Permissive CORS: the admin panel is served from the same origin in
	// production but file:// and dev setups still need it.
	r.Use(middleware.CORSMiddleware())
	r.Use(gin.Logger(), gin.Recovery())

	// Connect to Redis early so the rate-limiter can use it when configured
	var importedRedis *redis.Client
	if cfg.Redis.Host != "" {
		importedRedis = redis.NewClient(&redis.Options{Addr: cfg.Redis.Host + ":" + cfg.Redis.Port, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := importedRedis.Ping(context.Background()).Err(); err == nil {
			logger.Infof("Connected to Redis: %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		} else {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			importedRedis = nil
		}
	}

	// Optional global rate limiter (per-admin when authenticated, otherwise per-IP)
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && importedRedis != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(importedRedis, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	// Basic health endpoint
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	fileStore := store.NewFileStore(cfg.Store.DataFile)

	// Optional Mongo mirror: when configured, every accepted PUT is copied
	// into a collection in the background. Retry/backoff tolerates startup
	// races with the database container.
	var mirror *repository.MongoRepo
	var mongoClient *mongo.Client
	if cfg.MongoDB.URI != "" {
		const maxAttempts = 5
		backoff := time.Second
		var errConn error
		for attempt := 1; attempt <= maxAttempts; attempt++ {
			mongoClient, errConn = database.ConnectMongo(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.Timeout)
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
			logger.Warnf("could not connect to MongoDB after %d attempts, mirror disabled: %v", maxAttempts, errConn)
		} else {
			defer func() { _ = mongoClient.Disconnect(context.Background()) }()
			col := mongoClient.Database(cfg.MongoDB.Database).Collection("documents")
			mirror = repository.NewMongoRepo(col)
			logger.Infof("Mongo mirror enabled (db=%s)", cfg.MongoDB.Database)
		}
	}

	// readiness endpoint: 200 only when critical dependencies are available
	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{}

		// storage readiness: the backing file must be readable (it is the
		// single source of durability)
		if _, err := fileStore.Read(); err != nil {
			deps["storage"] = false
			ready = false
		} else {
			deps["storage"] = true
		}

		// Redis readiness only matters when the limiter depends on it
		if cfg.Redis.Host != "" && cfg.RateLimit.UseRedis {
			deps["redis"] = importedRedis != nil
			if !deps["redis"] {
				ready = false
			}
		} else {
			deps["redis"] = true
		}

		// the mirror is best-effort; report it but never block readiness
		deps["mongo_mirror"] = mirror != nil

		status := http.StatusOK
		state := "ready"
		if !ready {
			status = http.StatusServiceUnavailable
			state = "not_ready"
		}
		c.JSON(status, gin.H{"status": state, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	// Register handlers
	handlers.NewDataHandler(fileStore, mirror, cfg.Store.MaxBodyBytes).Register(r)
	handlers.NewAuthHandler(cfg).Register(r)
	handlers.NewSiteHandler(cfg).Register(r)
	handlers.RegisterSwagger(r)

	// Expose Prometheus metrics
	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Everything else is a static asset under the base directory
	handlers.RegisterStatic(r, cfg.Server.BaseDir)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	logger.Infof("Servidor iniciado en http://%s", addr)
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
