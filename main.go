package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"github.com/pagemill/cms-backend/internal/auth"
	"github.com/pagemill/cms-backend/internal/config"
	"github.com/pagemill/cms-backend/internal/db"
	"github.com/pagemill/cms-backend/internal/middleware"
	"github.com/pagemill/cms-backend/internal/pages"
	"github.com/pagemill/cms-backend/internal/site"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "Server is up!")
}

func main() {
	_ = godotenv.Load(".env.local")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	gdb, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}
	log.Println("Connected to database")

	if err := auth.Init(gdb); err != nil {
		log.Fatal(err)
	}
	if err := pages.Init(gdb); err != nil {
		log.Fatal(err)
	}
	if err := site.Init(gdb); err != nil {
		log.Fatal(err)
	}

	store := auth.NewGormStore(gdb)
	hasher := auth.NewHasher(cfg.HashTime, cfg.HashMemoryKB, cfg.HashThreads)
	tokens := auth.NewTokenIssuer(cfg.TokenSecret, cfg.TokenTTL)
	svc := auth.NewService(store, hasher, tokens)

	if cfg.AdminSeedPath != "" {
		if err := auth.SeedFromFile(context.Background(), store, hasher, cfg.AdminSeedPath); err != nil {
			log.Fatal("Failed to apply user seed: ", err)
		}
	}

	principals := auth.NewPrincipalInfo(store)
	requireAuth := middleware.RequireAuth(tokens, principals)
	requireAdmin := middleware.RequireAdmin(tokens, principals)
	optionalAuth := middleware.OptionalAuth(tokens, principals)
	loginLimit := middleware.RateLimit(rate.Every(time.Second), 10)

	authHandler := auth.NewHandler(svc, store, cfg.TokenTTL)
	pageHandler := pages.NewHandler(pages.NewGormStore(gdb), principals)
	siteHandler := site.NewHandler(site.NewGormStore(gdb))

	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	r.Get("/", RootHandler)

	r.Route("/api", func(api chi.Router) {
		authHandler.RegisterRoutes(api, auth.RouteGates{
			RequireAuth:  requireAuth,
			RequireAdmin: requireAdmin,
			RateLimit:    loginLimit,
		})
		api.Mount("/pages", pageHandler.SetupRoutes(pages.RouteGates{
			RequireAuth:  requireAuth,
			OptionalAuth: optionalAuth,
		}))
		api.Mount("/website", siteHandler.SetupRoutes(site.RouteGates{
			RequireAdmin: requireAdmin,
		}))
	})

	log.Printf("Server listening on port :%s...", cfg.Port)
	if err := http.ListenAndServe("0.0.0.0:"+cfg.Port, r); err != nil {
		log.Fatal(err)
	}
}
