package eta

import (
	"context"
	"time"

	"railpulse/internal/ist"
	"railpulse/internal/metrics"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	modeUpcoming = "upcoming"
	modeNext     = "next"
)

// ProgressQuery identifies one train run. Src, Dst and DepartureDate give
// sources that key their feed by route the context they need.
type ProgressQuery struct {
	TrainNumber   string
	Src           string
	Dst           string
	DepartureDate string
}

// ProgressFetcher returns a live feed snapshot for one train.
type ProgressFetcher interface {
	FetchProgress(ctx context.Context, q ProgressQuery) (Progress, error)
}

// Route is the rider's journey: boarding at Src, alighting at Dst.
type Route struct {
	Src string
	Dst string
}

type Ranker struct {
	fetcher     ProgressFetcher
	concurrency int
	nextModel   SpeedModel
	logger      zerolog.Logger
	metrics     *metrics.Collector
}

type RankerOption func(*Ranker)

// WithConcurrency caps in-flight feed fetches per request.
func WithConcurrency(n int) RankerOption {
	return func(r *Ranker) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithNextTrainModel sets the speed heuristic used by Next.
func WithNextTrainModel(m SpeedModel) RankerOption {
	return func(r *Ranker) { r.nextModel = m }
}

func WithLogger(l zerolog.Logger) RankerOption {
	return func(r *Ranker) { r.logger = l.With().Str("component", "ranker").Logger() }
}

func WithMetrics(m *metrics.Collector) RankerOption {
	return func(r *Ranker) { r.metrics = m }
}

func NewRanker(fetcher ProgressFetcher, opts ...RankerOption) *Ranker {
	r := &Ranker{
		fetcher:     fetcher,
		concurrency: 8,
		nextModel:   FlatRate,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Upcoming estimates every candidate departing strictly after now, in
// candidate order. Trains without an estimate are left out.
func (r *Ranker) Upcoming(ctx context.Context, candidates []TrainCandidate, route Route, now time.Time) []UpcomingTrain {
	start := time.Now()
	defer func() { r.metrics.ObserveRanking(modeUpcoming, time.Since(start)) }()

	out := []UpcomingTrain{}
	for _, res := range r.collect(ctx, candidates, route, now, DelayAdjusted, modeUpcoming) {
		if res == nil {
			continue
		}
		out = append(out, UpcomingTrain{
			TrainNumber:   res.Train.TrainNumber,
			TrainName:     res.Train.TrainName,
			DepartureTime: res.Train.DepartureTime,
			Live:          res.Live,
		})
	}
	return out
}

// Next returns the upcoming candidate with the lowest ETA, or nil when none
// has one. Ties go to the earlier candidate.
func (r *Ranker) Next(ctx context.Context, candidates []TrainCandidate, route Route, now time.Time) *BestCandidate {
	start := time.Now()
	defer func() { r.metrics.ObserveRanking(modeNext, time.Since(start)) }()

	return pickBest(r.collect(ctx, candidates, route, now, r.nextModel, modeNext))
}

// pickBest folds left to right; strict less-than keeps the first of equals.
func pickBest(results []*BestCandidate) *BestCandidate {
	var best *BestCandidate
	for _, res := range results {
		if res == nil || res.Live.EtaMinutes == nil {
			continue
		}
		if best == nil || *res.Live.EtaMinutes < *best.Live.EtaMinutes {
			best = res
		}
	}
	return best
}

// FilterUpcoming keeps candidates whose departure is strictly after now.
// Candidates with unparsable timestamps are dropped.
func (r *Ranker) FilterUpcoming(candidates []TrainCandidate, now time.Time, mode string) []TrainCandidate {
	var upcoming []TrainCandidate
	for _, c := range candidates {
		dep, err := ist.ParseDeparture(c.DepartureDate, c.DepartureTime)
		if err != nil {
			r.logger.Debug().Err(err).Str("train_no", c.TrainNumber).Msg("skipping train with unparsable departure")
			r.metrics.ObserveEstimate(mode, "malformed_timestamp")
			continue
		}
		if !ist.IsUpcoming(dep, now) {
			r.metrics.ObserveEstimate(mode, "departed")
			continue
		}
		upcoming = append(upcoming, c)
	}
	return upcoming
}

// collect fans out one feed fetch per upcoming train and returns results
// aligned with the filtered candidate order; nil marks a skipped train.
func (r *Ranker) collect(ctx context.Context, candidates []TrainCandidate, route Route, now time.Time, model SpeedModel, mode string) []*BestCandidate {
	upcoming := r.FilterUpcoming(candidates, now, mode)
	results := make([]*BestCandidate, len(upcoming))

	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, c := range upcoming {
		g.Go(func() error {
			progress, err := r.fetcher.FetchProgress(ctx, ProgressQuery{
				TrainNumber:   c.TrainNumber,
				Src:           route.Src,
				Dst:           route.Dst,
				DepartureDate: c.DepartureDate,
			})
			if err != nil {
				r.logger.Warn().Err(err).Str("train_no", c.TrainNumber).Msg("live feed fetch failed, skipping train")
				r.metrics.ObserveEstimate(mode, "fetch_error")
				return nil
			}

			live, reason := Estimate(progress, route.Src, now, model)
			if reason != SkipNone {
				r.logger.Debug().Str("train_no", c.TrainNumber).Str("reason", string(reason)).Msg("no estimate")
				r.metrics.ObserveEstimate(mode, string(reason))
				return nil
			}
			r.metrics.ObserveEstimate(mode, "ok")
			results[i] = &BestCandidate{Train: c, Live: live}
			return nil
		})
	}
	_ = g.Wait()

	return results
}
