package directory

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/leadscout/internal/config"
	"github.com/sells-group/leadscout/internal/scorer"
)

// ErrClosed is returned by operations on a closed session.
var ErrClosed = eris.New("directory: session closed")

// State is the session's position in a search run.
type State int32

const (
	StateUninitialized State = iota
	StateSessionActive
	StateSearchingCompany
	StateSearchingEmployees
	StateExtractingResults
	StateVerifyingCandidate
	StateIdle
	StateClosed
)

var stateNames = [...]string{
	"uninitialized", "session_active", "searching_company", "searching_employees",
	"extracting_results", "verifying_candidate", "idle", "closed",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Ranker orders extracted candidates by persona fit.
type Ranker interface {
	Rank(ctx context.Context, candidates []scorer.Candidate, targets []string) []scorer.Scored
}

// Options tunes a Session.
type Options struct {
	BaseURL           string
	Timing            config.DirectoryDurations
	DiagnosticsDir    string
	NavigationsPerMin float64
}

// OptionsFromConfig maps directory config onto session options.
func OptionsFromConfig(cfg config.DirectoryConfig) Options {
	return Options{
		BaseURL:           cfg.BaseURL,
		Timing:            cfg.Durations(),
		DiagnosticsDir:    cfg.DiagnosticsDir,
		NavigationsPerMin: cfg.NavigationsPerMin,
	}
}

// Session owns one browser and one page. All operations run sequentially;
// verification navigates away from the results page, so nothing about a
// run can be parallelized.
type Session struct {
	mu      sync.Mutex
	browser Browser
	page    Page
	mapping *Mapping
	ranker  Ranker
	opts    Options
	limiter *rate.Limiter
	state   atomic.Int32

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// Open starts a session on browser. The session takes ownership of browser
// and closes it on Close.
func Open(ctx context.Context, browser Browser, mapping *Mapping, ranker Ranker, opts Options) (*Session, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://www.linkedin.com"
	}
	if mapping == nil {
		mapping = NewMapping(nil)
	}

	page, err := browser.NewPage(ctx)
	if err != nil {
		browser.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "directory: open session")
	}

	s := &Session{
		browser: browser,
		page:    page,
		mapping: mapping,
		ranker:  ranker,
		opts:    opts,
		limiter: newLimiter(opts.NavigationsPerMin),
		sleep:   sleepCtx,
		now:     time.Now,
	}
	s.setState(StateSessionActive)
	return s, nil
}

// OpenChrome launches Chrome with the configured profile directory and opens
// a session on it.
func OpenChrome(ctx context.Context, cfg config.DirectoryConfig, mapping *Mapping, ranker Ranker) (*Session, error) {
	d := cfg.Durations()
	chrome, err := LaunchChrome(ctx, ChromeOptions{
		UserDataDir:    cfg.UserDataDir,
		Headless:       cfg.Headless,
		ExecPath:       cfg.ExecPath,
		ViewportWidth:  cfg.ViewportWidth,
		ViewportHeight: cfg.ViewportHeight,
		NavTimeout:     d.NavTimeout,
	})
	if err != nil {
		return nil, err
	}
	return Open(ctx, chrome, mapping, ranker, OptionsFromConfig(cfg))
}

// State reports the current session state.
func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) setState(st State) {
	prev := State(s.state.Swap(int32(st)))
	if prev != st {
		zap.L().Debug("directory: state", zap.String("from", prev.String()), zap.String("to", st.String()))
	}
}

// Close tears down the page and the browser. It waits for an in-flight run
// to finish.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.State() == StateClosed {
		return nil
	}
	s.setState(StateClosed)

	if err := s.page.Close(); err != nil {
		zap.L().Warn("directory: close page", zap.Error(err))
	}
	return s.browser.Close()
}

func (s *Session) checkOpen() error {
	if s.State() == StateClosed {
		return ErrClosed
	}
	return nil
}

// visit navigates the session page, pacing loads and waiting settle for
// dynamic content. The directory gives no render-complete signal.
func (s *Session) visit(ctx context.Context, url string, settle time.Duration) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "directory: pace navigation")
	}
	if err := s.page.Navigate(ctx, url); err != nil {
		return err
	}
	return s.sleep(ctx, settle)
}

func newLimiter(perMin float64) *rate.Limiter {
	if perMin <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(perMin/60), 1)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
