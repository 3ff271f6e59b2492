package loader

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/profilesync/internal/client/client"
	"github.com/dmitrijs2005/profilesync/internal/client/models"
	"github.com/dmitrijs2005/profilesync/internal/client/repositories/history"
	"github.com/dmitrijs2005/profilesync/internal/logging"
	"github.com/panjf2000/ants/v2"
)

const localHistoryLimit = 100

// Dashboard is the settled result of the three secondary loaders.
type Dashboard struct {
	Goals   State[[]models.Goal]
	Badges  State[[]models.Badge]
	History State[[]models.HistoryItem]
}

// DashboardLoader runs the goals, badges and history loaders on a bounded
// worker pool. History falls back to the local activity history.
type DashboardLoader struct {
	backend client.Client
	history history.Repository
	pool    *ants.Pool
	opts    Options
	logger  logging.Logger
}

func NewDashboardLoader(backend client.Client, repo history.Repository, opts Options, workers int, logger logging.Logger) (*DashboardLoader, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if workers < 1 {
		workers = 1
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	return &DashboardLoader{
		backend: backend,
		history: repo,
		pool:    pool,
		opts:    opts,
		logger:  logger.With("component", "dashboard"),
	}, nil
}

func (d *DashboardLoader) Close() {
	d.pool.Release()
}

func (d *DashboardLoader) Load(ctx context.Context, userID string) (Dashboard, error) {
	goals := New("goals", func(ctx context.Context) ([]models.Goal, error) {
		return d.backend.ListGoals(ctx, userID)
	}, nil, d.opts, d.logger)

	badges := New("badges", func(ctx context.Context) ([]models.Badge, error) {
		return d.backend.ListBadges(ctx, userID)
	}, nil, d.opts, d.logger)

	var localHistory Fetcher[[]models.HistoryItem]
	if d.history != nil {
		localHistory = func(ctx context.Context) ([]models.HistoryItem, error) {
			return d.history.List(ctx, userID, localHistoryLimit)
		}
	}
	hist := New("history", func(ctx context.Context) ([]models.HistoryItem, error) {
		return d.backend.ListHistory(ctx, userID)
	}, localHistory, d.opts, d.logger)

	var out Dashboard
	tasks := []func(){
		func() { out.Goals = goals.Load(ctx) },
		func() { out.Badges = badges.Load(ctx) },
		func() { out.History = hist.Load(ctx) },
	}

	var workers sync.WaitGroup
	for _, task := range tasks {
		workers.Add(1)
		if err := d.pool.Submit(func() {
			defer workers.Done()
			task()
		}); err != nil {
			workers.Done()
			workers.Wait()
			return Dashboard{}, fmt.Errorf("submit task to worker pool: %w", err)
		}
	}
	workers.Wait()

	return out, nil
}
