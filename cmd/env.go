package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/mazirhxxx/listlab/internal/clean"
	"github.com/mazirhxxx/listlab/internal/store"
	"github.com/mazirhxxx/listlab/pkg/restdb"
	"github.com/mazirhxxx/listlab/pkg/scoring"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "listlab.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	case "rest":
		opts := []restdb.Option{}
		if cfg.Clean.MutationsPerSec > 0 {
			opts = append(opts, restdb.WithMutationRate(cfg.Clean.MutationsPerSec))
		}
		return store.NewREST(restdb.NewClient(cfg.Store.RestBaseURL, cfg.Store.RestKey, opts...)), nil
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initScoring() (scoring.Client, error) {
	if cfg.Scoring.WebhookURL == "" {
		return nil, eris.New("scoring webhook URL is required (LISTLAB_SCORING_WEBHOOK_URL)")
	}
	var opts []scoring.Option
	if cfg.Scoring.TimeoutSecs > 0 {
		opts = append(opts, scoring.WithTimeout(time.Duration(cfg.Scoring.TimeoutSecs)*time.Second))
	}
	return scoring.NewClient(cfg.Scoring.WebhookURL, opts...), nil
}

// mutationLimiter returns the rate limiter applied to cleaning mutations,
// or nil when throttling is disabled.
func mutationLimiter() *rate.Limiter {
	if cfg.Clean.MutationsPerSec <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(cfg.Clean.MutationsPerSec), 1)
}

func initCleaner(leads store.LeadStore) *clean.Cleaner {
	return clean.New(leads, mutationLimiter())
}
