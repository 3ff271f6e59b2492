package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/profilesync/internal/client/activity"
	"github.com/dmitrijs2005/profilesync/internal/client/backup"
	"github.com/dmitrijs2005/profilesync/internal/client/client"
	"github.com/dmitrijs2005/profilesync/internal/client/config"
	"github.com/dmitrijs2005/profilesync/internal/client/loader"
	"github.com/dmitrijs2005/profilesync/internal/client/models"
	"github.com/dmitrijs2005/profilesync/internal/client/repositories/history"
	"github.com/dmitrijs2005/profilesync/internal/client/services"
	"github.com/dmitrijs2005/profilesync/internal/logging"
	"github.com/dmitrijs2005/profilesync/internal/resilience"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

const pingTimeout = 3 * time.Second

// sessionAPI is the part of services.SessionManager the REPL drives.
type sessionAPI interface {
	Start(ctx context.Context)
	Close()
	Profile() *models.Profile
	Ready() <-chan struct{}
	SplashDone() <-chan struct{}
	SignIn(ctx context.Context, email, password string) (*models.Profile, error)
	SignUp(ctx context.Context, email, password, name string) (*models.PendingUser, error)
	SignOut(ctx context.Context) error
	UpdateProfile(ctx context.Context, patch models.ProfilePatch, act *models.Activity) (*models.Profile, error)
	RefreshProfile(ctx context.Context) (*models.Profile, error)
}

type dashboardAPI interface {
	Load(ctx context.Context, userID string) (loader.Dashboard, error)
	Close()
}

type pinger interface {
	Ping(ctx context.Context) error
}

type App struct {
	config    *config.Config
	logger    logging.Logger
	session   sessionAPI
	dashboard dashboardAPI
	backend   pinger
	closers   []func() error
	reader    *bufio.Reader
	out       io.Writer
	now       func() time.Time

	mu   sync.Mutex
	mode Mode
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	db, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		logger.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	store := backup.NewSQLiteStore(db)
	breaker := resilience.New(resilience.Settings{
		Threshold:  c.BreakerFailureThreshold,
		Cooldown:   c.BreakerOpenTimeout,
		TrialCalls: 1,
	}, resilience.OnStateChange(func(from, to resilience.State) {
		logger.Warn(ctx, "backend circuit changed", "from", from.String(), "to", to.String())
	}))

	backend, err := client.NewGRPCClient(c.ServerEndpointAddr, store, logger,
		client.WithBreaker(breaker),
		client.WithRequestTimeout(c.RequestTimeout),
	)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	hist := history.NewSQLiteRepository(db)
	rules := activity.NewStreakRules(hist, activity.WithLogger(logger))

	manager := services.NewSessionManager(backend, store, services.Options{
		SeedItemID:        c.SeedItemID,
		SplashMinDuration: c.SplashMinDuration,
		DeferredStart:     c.DeferredStart,
		SafetyTimeout:     c.SafetyTimeout,
		SignOutTimeout:    c.SignOutTimeout,
	}, logger,
		services.WithActivityRules(rules),
		services.WithCurrentURL(c.LaunchURL),
	)

	dash, err := loader.NewDashboardLoader(backend, hist, loader.Options{
		Timeout:     c.LoaderTimeout,
		MaxRetries:  c.LoaderMaxRetries,
		BackoffBase: c.LoaderBackoffBase,
	}, c.LoaderWorkers, logger)
	if err != nil {
		manager.Close()
		_ = backend.Close()
		_ = db.Close()
		return nil, err
	}

	return &App{
		config:    c,
		logger:    logger,
		session:   manager,
		dashboard: dash,
		backend:   backend,
		closers:   []func() error{backend.Close, db.Close},
		reader:    bufio.NewReader(os.Stdin),
		out:       os.Stdout,
		now:       time.Now,
	}, nil
}

// Run bootstraps the session and serves the REPL until exit or ctx is done.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	a.session.Start(ctx)

	printlnFn("Welcome to profilesync CLI (type 'help' for commands)")
	a.waitUntilLoaded(ctx)

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) Close() {
	a.session.Close()
	a.dashboard.Close()
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.logger.Warn(context.Background(), "close failed", "error", err)
		}
	}
}

// waitUntilLoaded shows the splash line until the session is resolved and
// the minimum splash time has passed.
func (a *App) waitUntilLoaded(ctx context.Context) {
	printlnFn("Loading...")
	for _, ch := range []<-chan struct{}{a.session.Ready(), a.session.SplashDone()} {
		select {
		case <-ch:
		case <-ctx.Done():
			return
		}
	}
	if p := a.session.Profile(); p != nil {
		printlnFn(fmt.Sprintf("Signed in as %s", p.DisplayName()))
	}
}

func (a *App) isLoggedIn() bool {
	return a.session.Profile() != nil
}

func (a *App) getMode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()

	if changed {
		a.logger.Info(context.Background(), "switched mode", "mode", mode)
	}
}

// getStatus renders the "<email> <mode>" part of the prompt.
func (a *App) getStatus() string {
	s := ""
	if p := a.session.Profile(); p != nil && p.Email != "" {
		s = p.Email + " "
	}
	if m := a.getMode(); m != "" {
		s += string(m)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	a.checkOnline(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkOnline(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	err := a.backend.Ping(pctx)
	cancel()

	if err != nil {
		a.setMode(ModeOffline)
	} else {
		a.setMode(ModeOnline)
	}
}
