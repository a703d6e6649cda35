package iri

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"railpulse/internal/db"
	"railpulse/internal/metrics"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// TimetableFetcher is satisfied by *Client; tests swap in canned pages.
type TimetableFetcher interface {
	FetchTimetable(ctx context.Context, targetURL string) (*TimetablePage, error)
}

type Saver struct {
	store   *db.Store
	logger  zerolog.Logger
	metrics *metrics.Collector
}

func NewSaver(store *db.Store, logger zerolog.Logger, m *metrics.Collector) *Saver {
	return &Saver{store: store, logger: logger.With().Str("component", "station_sync").Logger(), metrics: m}
}

func (s *Saver) SavePage(ctx context.Context, page *TimetablePage) (int, error) {
	saved := 0
	for _, st := range page.Stations {
		if err := s.store.UpsertStation(ctx, st); err != nil {
			return saved, fmt.Errorf("train %s: %w", page.TrainNo, err)
		}
		saved++
	}
	s.metrics.AddStationsSynced(saved)
	return saved, nil
}

// ExecuteSyncCycle fetches every timetable URL and upserts its stations.
// Fetch failures are logged and skipped; store failures abort the cycle.
func (s *Saver) ExecuteSyncCycle(ctx context.Context, fetcher TimetableFetcher, concurrency int, urls []string) error {
	if concurrency <= 0 {
		concurrency = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, u := range urls {
		g.Go(func() error {
			page, err := fetcher.FetchTimetable(gctx, u)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					s.logger.Warn().Err(err).Str("url", u).Msg("failed to fetch timetable")
				}
				return nil
			}
			n, err := s.SavePage(gctx, page)
			if err != nil {
				s.logger.Error().Err(err).Str("url", u).Msg("failed to save stations")
				return err
			}
			s.logger.Debug().Str("train_no", page.TrainNo).Int("stations", n).Msg("processed")
			return nil
		})
	}
	return g.Wait()
}

// LoadURLs reads "train_no,source_url" lines, skipping the header.
func LoadURLs(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	var urls []string
	scanner := bufio.NewScanner(file)
	// Skip header
	scanner.Scan()
	for scanner.Scan() {
		fields := strings.SplitN(scanner.Text(), ",", 2)
		if len(fields) != 2 {
			continue
		}
		if u := strings.TrimSpace(fields[1]); u != "" {
			urls = append(urls, u)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return urls, nil
}
