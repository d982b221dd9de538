package main

import (
	"fmt"
	"log"
	"net/http"

	"nfedit/internal/config"
	"nfedit/internal/handler"
	"nfedit/internal/router"
	"nfedit/internal/session"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store := session.NewStore(cfg.Export.ResetAfter)

	// Initialize handlers
	sessionH := handler.NewSessionHandler(store, cfg.Upload.MaxFileSizeBytes())
	healthH := handler.NewHealthHandler()

	// Setup router
	r := router.Setup(sessionH, healthH, cfg.CORS.AllowedOrigins)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	log.Printf("Server starting on %s", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}
