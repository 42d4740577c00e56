package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/adriian-oc/oposiciones-app/internal/analytics"
	api "github.com/adriian-oc/oposiciones-app/internal/api/http"
	auth "github.com/adriian-oc/oposiciones-app/internal/auth/middleware"
	"github.com/adriian-oc/oposiciones-app/internal/catalog"
	"github.com/adriian-oc/oposiciones-app/internal/config"
	"github.com/adriian-oc/oposiciones-app/internal/db"
	"github.com/adriian-oc/oposiciones-app/internal/exam"
	"github.com/adriian-oc/oposiciones-app/internal/grading"
	storage "github.com/adriian-oc/oposiciones-app/internal/storage"
	syncx "github.com/adriian-oc/oposiciones-app/internal/sync"
	"github.com/adriian-oc/oposiciones-app/internal/users"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	cat := catalog.NewStore(dbh)
	if cfg.SeedThemes {
		n, err := cat.SeedThemes(ctx)
		if err != nil {
			log.Fatalf("seed themes: %v", err)
		}
		if n > 0 {
			log.Printf("seeded %d themes", n)
		}
	}

	userStore := users.NewStore(dbh)
	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		created, err := userStore.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			log.Fatalf("bootstrap admin: %v", err)
		}
		if created {
			log.Printf("admin account created: %s", cfg.AdminEmail)
		}
	}

	// --- Auth ---
	authSvc := auth.NewAuthService(cfg.AuthSecret, cfg.TokenTTL, auth.NewSessionStore(dbh))

	// --- Exams and analytics ---
	scorer := grading.NewScorer(
		grading.WithMaxScore(cfg.Scoring.MaxScore),
		grading.WithCorrectWeight(cfg.Scoring.CorrectWeight),
		grading.WithIncorrectPenalty(cfg.Scoring.IncorrectPenalty),
		grading.WithUnansweredPenalty(cfg.Scoring.UnansweredPenalty),
		grading.WithPassRatio(cfg.Scoring.PassRatio),
	)
	examStore := exam.NewSQLStore(dbh)
	an := analytics.NewService(analytics.NewStore(dbh), cat, examStore)
	events := syncx.NewEventRepo(dbh, "")
	exams := exam.NewService(examStore, cat, scorer,
		exam.WithRecorder(an),
		exam.WithEvents(events),
	)

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	r := api.NewRouter(api.Deps{
		Auth:        authSvc,
		Users:       userStore,
		Catalog:     cat,
		Exams:       exams,
		Analytics:   an,
		Blobs:       bs,
		Events:      events,
		CORSOrigins: cfg.CORSOrigins,
		RequestLog:  true,
	})

	log.Printf("%s listening on %s (mode=%s, db=%s)", api.ServiceName, cfg.HTTPAddr, cfg.Mode, cfg.DBDriver)
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Fatal(err)
	}
}
