package main

import (
	"crypto/tls"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"taskdash-api/api"
	"taskdash-api/command"
	"taskdash-api/storage"
)

func main() {
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}

	store := buildStore()

	historyLimit := 0
	if v := os.Getenv("HISTORY_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			log.Fatalf("invalid HISTORY_LIMIT: %v", v)
		}
		historyLimit = n
	}

	logger := log.New()
	dispatcher := command.NewDispatcher(store, historyLimit, logger)

	otel.SetTracerProvider(sdktrace.NewTracerProvider())

	e := echo.New()
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	api.Register(e, store, dispatcher, buildAuth(), logger)

	listenAddr := ":8080"
	if val, ok := os.LookupEnv("PORT"); ok {
		listenAddr = ":" + val
	}

	e.Logger.Fatal(e.Start(listenAddr))
}

// buildStore assembles the task store: in-memory by default, Azure Table
// Storage when a connection string is configured, optionally wrapped with a
// Redis list cache.
func buildStore() api.Storage {
	var store api.Storage

	connStr := os.Getenv("STORAGE_CONNECTION_STRING")
	tasksTable := os.Getenv("TASKS_TABLE")
	switch {
	case connStr != "" && tasksTable != "":
		tables, err := storage.NewTables(connStr, tasksTable)
		if err != nil {
			log.Fatalf("storage: %v", err)
		}
		store = tables
		log.Info("using table storage backend")
	case connStr != "" || tasksTable != "":
		log.Fatal("STORAGE_CONNECTION_STRING and TASKS_TABLE must be set together")
		return nil
	default:
		store = storage.NewMemory()
		log.Info("using in-memory task store")
	}

	redisConn := os.Getenv("REDIS_CONNECTION_STRING")
	if redisConn == "" {
		return store
	}
	redisOpts, err := redis.ParseURL(redisConn)
	if err != nil {
		// Azure-style "host:port,password=...,ssl=true" connection strings.
		parts := strings.Split(redisConn, ",")
		redisOpts = &redis.Options{Addr: parts[0]}
		for _, p := range parts[1:] {
			kv := strings.SplitN(p, "=", 2)
			if len(kv) != 2 {
				continue
			}
			switch strings.ToLower(kv[0]) {
			case "password":
				redisOpts.Password = kv[1]
			case "ssl":
				if strings.ToLower(kv[1]) == "true" {
					redisOpts.TLSConfig = &tls.Config{}
				}
			}
		}
	}

	ttl := 5 * time.Minute
	if v := os.Getenv("CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			log.Fatalf("invalid CACHE_TTL: %v", err)
		}
		ttl = d
	}

	log.Info("redis list cache enabled")
	return storage.NewCache(store, redis.NewClient(redisOpts), ttl)
}

// buildAuth selects the authenticator. The dashboard is single-user, so the
// default accepts everything; JWT validation is opt-in.
func buildAuth() api.Authenticator {
	if secret := os.Getenv("AUTH_SHARED_SECRET"); secret != "" {
		log.Info("shared-secret auth enabled")
		return api.NewSharedSecretAuth([]byte(secret))
	}

	domainName := os.Getenv("AUTH_DOMAIN")
	audience := os.Getenv("AUTH_AUDIENCE")
	if domainName == "" && audience == "" {
		return api.AllowAll{}
	}
	if domainName == "" || audience == "" {
		log.Fatal("AUTH_DOMAIN and AUTH_AUDIENCE must be set together")
	}

	jwksURL := fmt.Sprintf("https://%s/.well-known/jwks.json", domainName)
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{})
	if err != nil {
		log.Fatalf("jwks: %v", err)
	}
	log.Info("jwks auth enabled")
	return api.NewJWKSAuth(jwks, audience, "https://"+domainName+"/")
}
