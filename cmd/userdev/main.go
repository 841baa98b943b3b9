package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aidigest/aidigest/backend/go-services/handlers"
	"github.com/aidigest/aidigest/backend/go-services/internal/config"
	"github.com/aidigest/aidigest/backend/go-services/internal/database"
	"github.com/aidigest/aidigest/backend/go-services/internal/identity"
	"github.com/aidigest/aidigest/backend/go-services/internal/users"
	"github.com/aidigest/aidigest/backend/go-services/pkg/middleware"
)

// Development server: runs the user API without an identity provider by
// accepting unsigned tokens, and falls back to an in-memory store when no
// MongoDB is reachable. Never deploy this binary.
func main() {
	port := os.Getenv("USER_DEV_PORT")
	if port == "" {
		port = "5010"
	}

	r := gin.New()
	r.Use(gin.Recovery())

	var repo users.Repository = users.NewMemoryRepository()
	if uri := os.Getenv("MONGODB_URI"); uri != "" {
		client, err := database.ConnectMongo(context.Background(), uri, 10*time.Second)
		if err != nil {
			log.Printf("warning: cannot connect to MongoDB (%v) — using memory-backed repo", err)
		} else {
			dbName := os.Getenv("MONGODB_DATABASE")
			if dbName == "" {
				dbName = "aidigest"
			}
			repo = users.NewMongoRepository(client.Database(dbName).Collection("users"))
		}
	}
	svc := users.NewService(repo)

	verifier := identity.NewInsecureVerifier()
	gate := middleware.AuthMiddleware(verifier, nil)

	cfg := &config.Config{}
	api := r.Group("/api")
	handlers.NewAuthHandler(svc, verifier, cfg).Register(api, gate)
	handlers.NewUserHandler(svc, nil, nil).Register(api, gate)
	handlers.RegisterSwagger(r)

	log.Printf("user dev service listening on :%s (insecure tokens accepted)", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
