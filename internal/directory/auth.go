package directory

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
)

// AuthState is the outcome of a login check.
type AuthState int

const (
	AuthAuthenticated AuthState = iota
	AuthTimedOut
)

func (a AuthState) String() string {
	if a == AuthAuthenticated {
		return "authenticated"
	}
	return "timed_out"
}

var signedOutMarkers = []string{"Sign in", "Join now"}

func signedOut(text string) bool {
	for _, m := range signedOutMarkers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

// EnsureAuthenticated checks the current page for sign-in markers. When the
// session is signed out it waits for a manual login in the visible browser,
// then reloads the page.
func (s *Session) EnsureAuthenticated(ctx context.Context) (AuthState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return AuthTimedOut, err
	}
	return s.ensureAuthenticated(ctx)
}

func (s *Session) ensureAuthenticated(ctx context.Context) (AuthState, error) {
	text, err := s.page.BodyText(ctx)
	if err != nil {
		return AuthTimedOut, err
	}
	if !signedOut(text) {
		return AuthAuthenticated, nil
	}

	timeout := s.opts.Timing.LoginTimeout
	zap.L().Warn("directory: login required, log in manually in the browser window",
		zap.Duration("timeout", timeout),
	)
	state, err := s.awaitLogin(ctx, timeout)
	if err != nil {
		return state, err
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return state, err
	}
	if err := s.page.Reload(ctx); err != nil {
		return state, err
	}
	if err := s.sleep(ctx, s.opts.Timing.Settle); err != nil {
		return state, err
	}

	if state == AuthTimedOut {
		zap.L().Warn("directory: login wait timed out, continuing")
	} else {
		zap.L().Info("directory: logged in")
	}
	return state, nil
}

// AwaitLogin polls the page until the sign-in markers disappear or timeout
// elapses. It only returns an error when ctx is done.
func (s *Session) AwaitLogin(ctx context.Context, timeout time.Duration) (AuthState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return AuthTimedOut, err
	}
	return s.awaitLogin(ctx, timeout)
}

func (s *Session) awaitLogin(ctx context.Context, timeout time.Duration) (AuthState, error) {
	poll := s.opts.Timing.LoginPoll
	if poll <= 0 {
		poll = 2 * time.Second
	}
	deadline := s.now().Add(timeout)

	for {
		if err := s.sleep(ctx, poll); err != nil {
			return AuthTimedOut, err
		}
		text, err := s.page.BodyText(ctx)
		switch {
		case err != nil:
			// Pages fail to read mid-navigation while the user logs in.
			zap.L().Debug("directory: login poll", zap.Error(err))
		case !signedOut(text):
			return AuthAuthenticated, nil
		}
		if !s.now().Before(deadline) {
			return AuthTimedOut, nil
		}
	}
}
