package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/michaelzhang78901-alt/freight-tracker/internal/model"
	"github.com/michaelzhang78901-alt/freight-tracker/internal/scraper"
	"github.com/michaelzhang78901-alt/freight-tracker/internal/storage"
)

// ErrScrapeFailed indicates both route scrapes came back empty, so there is
// nothing worth persisting for this run.
var ErrScrapeFailed = errors.New("service: scraping failed for all routes")

// Service orchestrates fetching both routes, differential computation, and
// persistence.
type Service struct {
	fetcher scraper.RouteFetcher
	store   storage.SnapshotStore
	routes  []scraper.Route
	logger  zerolog.Logger
}

// New constructs the aggregation service over the fixed route pair.
func New(fetcher scraper.RouteFetcher, store storage.SnapshotStore, logger zerolog.Logger) *Service {
	return &Service{
		fetcher: fetcher,
		store:   store,
		routes:  scraper.Routes,
		logger:  logger.With().Str("component", "service").Logger(),
	}
}

// Aggregate fetches the routes sequentially, pacing between attempts, and
// returns a snapshot holding whatever readings succeeded. The differential is
// computed only when both routes are present. The snapshot is returned
// unconditionally; persistence is the caller's decision.
func (s *Service) Aggregate(ctx context.Context) model.Snapshot {
	snapshot := model.NewSnapshot(time.Now())

	for i, route := range s.routes {
		if i > 0 {
			s.fetcher.Pace(ctx)
		}

		reading, err := s.fetcher.FetchRoute(ctx, route)
		if err != nil {
			s.logger.Warn().Err(err).Str("route", route.Code).Msg("route reading absent this run")
			continue
		}
		snapshot.Routes[route.Code] = reading
	}

	fbx01, okLA := snapshot.Routes[model.RouteFBX01]
	fbx11, okRT := snapshot.Routes[model.RouteFBX11]
	if okLA && okRT {
		differential := model.NewDifferential(fbx01.Rate, fbx11.Rate)
		snapshot.Differential = &differential
	}

	return snapshot
}

// RunOnce aggregates and persists the result when at least one route
// succeeded. When both routes failed it returns ErrScrapeFailed and leaves
// the previously persisted snapshot and history untouched.
func (s *Service) RunOnce(ctx context.Context) (model.Snapshot, error) {
	snapshot := s.Aggregate(ctx)
	if len(snapshot.Routes) == 0 {
		return snapshot, ErrScrapeFailed
	}

	if err := s.store.SaveSnapshot(snapshot); err != nil {
		return snapshot, fmt.Errorf("persist snapshot: %w", err)
	}

	event := s.logger.Info().Str("date", snapshot.Date).Int("routes", len(snapshot.Routes))
	if snapshot.Differential != nil {
		event = event.
			Str("differential", snapshot.Differential.Amount.String()).
			Str("interpretation", snapshot.Differential.Interpretation)
	}
	event.Msg("aggregation run persisted")

	return snapshot, nil
}

// Tick adapts RunOnce for the scheduler. A failed cycle is reported for
// logging only; the stale snapshot stays in place until the next interval.
func (s *Service) Tick(ctx context.Context) error {
	_, err := s.RunOnce(ctx)
	return err
}
