// Package predictor trains naive Bayes classifier on played matches and answers win/loss odds
// for a team of enemy champions. The live model is rebuilt from the store and swapped atomically,
// so predictions are never blocked by retraining.
package predictor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/umputun/should-i-play/app/storage"
	"github.com/umputun/should-i-play/lib/bayes"
)

//go:generate moq --out mocks/store.go --pkg mocks --with-resets --skip-ensure . Store

// labels used for matches
const (
	Positive bayes.Label = "positive" // match won
	Negative bayes.Label = "negative" // match lost
)

// Store is a matches storage, source of training data
type Store interface {
	Iterator(ctx context.Context) (iter.Seq2[storage.Match, error], error)
	Add(ctx context.Context, match storage.Match) (storage.Match, error)
	ImportNeDB(ctx context.Context, r io.Reader) (*storage.ImportStats, error)
}

// Odds is a prediction result, percentages of win and loss summing to 100
type Odds struct {
	Positive float64 `json:"positive"`
	Negative float64 `json:"negative"`
}

// Stats is a summary of the live model
type Stats struct {
	bayes.Stats
	ReloadedAt time.Time `json:"reloaded_at,omitempty"`
	Skipped    int       `json:"skipped"` // stored records ignored on the last reload
}

// Predictor keeps trained classifier and rebuilds it from the store on demand
type Predictor struct {
	store    Store
	model    atomic.Pointer[model]
	reloadMu sync.Mutex
}

type model struct {
	clf        *bayes.Classifier[int]
	reloadedAt time.Time
	skipped    int
}

// New makes a predictor for the store. The predictor has no model until the first successful Reload.
func New(store Store) *Predictor {
	return &Predictor{store: store}
}

// Reload reads all matches from the store, trains a new classifier and replaces the live one.
// Undecodable records are skipped. On store failure or empty data set the live model stays as is.
func (p *Predictor) Reload(ctx context.Context) error {
	p.reloadMu.Lock()
	defer p.reloadMu.Unlock()

	st := time.Now()
	m, err := p.build(ctx)
	if err != nil {
		reloadsTotal.WithLabelValues("error").Inc()
		return err
	}
	p.model.Store(m)

	reloadsTotal.WithLabelValues("ok").Inc()
	documentsGauge.Set(float64(m.clf.Documents()))
	vocabularyGauge.Set(float64(m.clf.VocabularySize()))
	log.Printf("[INFO] model reloaded, documents: %d, vocabulary: %d, skipped: %d, took: %v",
		m.clf.Documents(), m.clf.VocabularySize(), m.skipped, time.Since(st))
	return nil
}

func (p *Predictor) build(ctx context.Context) (*model, error) {
	matches, err := p.store.Iterator(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read matches: %w", err)
	}

	clf := bayes.New[int]()
	skipped := new(multierror.Error)
	for match, err := range matches {
		if err != nil {
			if !errors.Is(err, storage.ErrBadRecord) {
				return nil, fmt.Errorf("failed to read matches: %w", err)
			}
			skipped = multierror.Append(skipped, err)
			continue
		}
		if err := clf.AddDocument(match.Enemies, labelOf(match.Win)); err != nil {
			return nil, fmt.Errorf("failed to add match %s: %w", match.ExtID, err)
		}
	}
	if skipped.Len() > 0 {
		log.Printf("[WARN] skipped %d bad records: %v", skipped.Len(), skipped)
	}

	if err := clf.Train(); err != nil {
		return nil, fmt.Errorf("failed to train model: %w", err)
	}
	return &model{clf: clf, reloadedAt: time.Now(), skipped: skipped.Len()}, nil
}

// Predict returns odds to win and lose against the enemy champions.
// Unknown champions don't affect the result, the list without known champions gets the overall win rate.
// Returns bayes.ErrNotTrained if the model was never loaded.
func (p *Predictor) Predict(keys []int) (Odds, error) {
	st := time.Now()
	m := p.model.Load()
	if m == nil {
		predictionsTotal.WithLabelValues("error").Inc()
		return Odds{}, bayes.ErrNotTrained
	}
	pct, err := m.clf.Percentages(keys)
	if err != nil {
		predictionsTotal.WithLabelValues("error").Inc()
		return Odds{}, fmt.Errorf("failed to classify: %w", err)
	}
	res := Odds{Positive: pct[Positive], Negative: pct[Negative]}

	outcome := string(Negative)
	if res.Positive >= res.Negative {
		outcome = string(Positive)
	}
	predictionsTotal.WithLabelValues(outcome).Inc()
	predictionDuration.Observe(time.Since(st).Seconds())
	return res, nil
}

// Record stores a played match. The live model is not changed until the next Reload.
func (p *Predictor) Record(ctx context.Context, match storage.Match) (storage.Match, error) {
	res, err := p.store.Add(ctx, match)
	if err != nil {
		return storage.Match{}, fmt.Errorf("failed to record match: %w", err)
	}
	return res, nil
}

// Import loads matches from nedb data and reloads the model.
// Stats are returned together with the error if some records were skipped.
func (p *Predictor) Import(ctx context.Context, r io.Reader) (*storage.ImportStats, error) {
	stats, err := p.store.ImportNeDB(ctx, r)
	if stats == nil {
		return nil, fmt.Errorf("failed to import matches: %w", err)
	}
	if err != nil {
		log.Printf("[WARN] some records not imported: %v", err)
	}
	if rerr := p.Reload(ctx); rerr != nil {
		return stats, fmt.Errorf("failed to reload after import: %w", rerr)
	}
	return stats, nil
}

// Stats returns summary of the live model, empty state if not loaded yet
func (p *Predictor) Stats() Stats {
	m := p.model.Load()
	if m == nil {
		return Stats{Stats: bayes.Stats{State: bayes.StateEmpty}}
	}
	return Stats{Stats: m.clf.Stats(), ReloadedAt: m.reloadedAt, Skipped: m.skipped}
}

// Run reloads the model every interval until the context is canceled.
// Zero interval disables periodic reloads, Run just waits for the context.
func (p *Predictor) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}
	log.Printf("[INFO] periodic model reload every %v", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Printf("[INFO] periodic reload stopped, %v", ctx.Err())
			return nil
		case <-ticker.C:
			if err := p.Reload(ctx); err != nil {
				log.Printf("[WARN] periodic reload failed: %v", err)
			}
		}
	}
}

func labelOf(win bool) bayes.Label {
	if win {
		return Positive
	}
	return Negative
}
