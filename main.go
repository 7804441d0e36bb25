package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	if err := LoadEnv(); err != nil {
		log.Fatalf("%v", err)
	}
	cfg, err := ParseConfig(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	tuning, err := LoadTuning(cfg.Tuning)
	if err != nil {
		log.Fatalf("%v", err)
	}
	catalog, err := LoadMapCatalog(cfg.Maps)
	if err != nil {
		log.Fatalf("%v", err)
	}

	var db *DB
	var analytics *Analytics
	if cfg.DBPath != "" {
		db, err = OpenDB(cfg.DBPath)
		if err != nil {
			log.Fatalf("%v", err)
		}
		defer db.Close()
		analytics = NewAnalytics(db)
		defer analytics.Stop()
	}

	sessions := NewSessionManager(GameOptions{
		Catalog:   catalog,
		Tuning:    tuning,
		DB:        db,
		Analytics: analytics,
		RecordDir: cfg.RecordDir,
	})
	hub := NewHub(sessions, db, analytics)
	go hub.Run()

	mux := SetupRoutes(hub, cfg)

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	server := &http.Server{Addr: cfg.Addr, Handler: mux}

	go func() {
		log.Printf("Server starting on %s", cfg.Addr)
		log.Printf("Serving client files from %s", cfg.ClientDir)
		log.Printf("Tick %dms, %d maps", tuning.TickMs, len(catalog.Maps))
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down...")
	server.Close()
	sessions.StopAll()
	hub.Stop()
}
