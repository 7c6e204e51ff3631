package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadscout/internal/config"
	"github.com/sells-group/leadscout/internal/directory"
	"github.com/sells-group/leadscout/internal/lock"
	"github.com/sells-group/leadscout/internal/oracle"
	"github.com/sells-group/leadscout/internal/pipeline"
	"github.com/sells-group/leadscout/internal/resilience"
	"github.com/sells-group/leadscout/internal/scorer"
	"github.com/sells-group/leadscout/internal/store"
	anthropicpkg "github.com/sells-group/leadscout/pkg/anthropic"
	"github.com/sells-group/leadscout/pkg/ollama"
)

// appEnv holds the initialized store, oracle, optional directory session and
// the pipeline built over them.
type appEnv struct {
	Store    store.Store
	Oracle   oracle.Oracle
	Session  *directory.Session // nil unless the directory was requested
	Pipeline *pipeline.Pipeline

	closers []func() error
}

// Close releases resources in reverse order of acquisition.
func (e *appEnv) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			zap.L().Warn("close resource", zap.Error(err))
		}
	}
}

// initEnv validates config for mode and builds the environment. With
// withDirectory the persistent browser is launched; failing to acquire it is
// fatal. Callers should defer env.Close().
func initEnv(ctx context.Context, mode string, withDirectory bool) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	env := &appEnv{}
	st, err := initStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	env.Store = st
	env.closers = append(env.closers, st.Close)

	if err := st.Migrate(ctx); err != nil {
		env.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	// Read mode serves stored data only and never consults the oracle.
	if mode == "read" {
		env.Pipeline = pipeline.New(cfg, st, nil, nil, nil)
		return env, nil
	}

	orc, err := initOracle(cfg)
	if err != nil {
		env.Close()
		return nil, err
	}
	env.Oracle = orc

	var searcher pipeline.Searcher
	var locker lock.Locker
	if withDirectory {
		l, closeLock, err := lock.New(ctx, cfg.Lock)
		if err != nil {
			env.Close()
			return nil, eris.Wrap(err, "init session lock")
		}
		env.closers = append(env.closers, closeLock)
		locker = l

		sess, err := initDirectory(ctx, cfg.Directory, orc)
		if err != nil {
			env.Close()
			return nil, err
		}
		env.Session = sess
		env.closers = append(env.closers, sess.Close)
		searcher = sess
	}

	env.Pipeline = pipeline.New(cfg, st, orc, searcher, locker)
	return env, nil
}

func initStore(ctx context.Context, sc config.StoreConfig) (store.Store, error) {
	switch sc.Driver {
	case "sqlite":
		dsn := sc.DatabaseURL
		if dsn == "" {
			dsn = "leadscout.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, sc.DatabaseURL, &store.PoolConfig{
			MaxConns: sc.MaxConns,
			MinConns: sc.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", sc.Driver)
	}
}

func initOracle(c *config.Config) (oracle.Oracle, error) {
	var completer oracle.Completer
	switch c.Oracle.Provider {
	case "anthropic":
		completer = &oracle.AnthropicCompleter{
			Client:    anthropicpkg.NewClient(c.Anthropic.Key),
			Model:     c.Anthropic.Model,
			MaxTokens: c.Anthropic.MaxTokens,
		}
	case "ollama":
		oc, err := ollama.New(c.Ollama.ServerURL, c.Ollama.Model)
		if err != nil {
			return nil, eris.Wrap(err, "init ollama")
		}
		completer = oc
	default:
		return nil, eris.Errorf("unsupported oracle provider: %s", c.Oracle.Provider)
	}

	guard := resilience.NewGuard(c.Oracle.Provider,
		resilience.FromRetryConfig(c.Oracle.MaxAttempts, c.Oracle.InitialBackoffMs, c.Oracle.MaxBackoffMs),
		resilience.FromCircuitConfig(c.Oracle.FailureThreshold, c.Oracle.ResetTimeoutSecs),
	)
	opts := []oracle.Option{oracle.WithGuard(guard)}
	if c.Oracle.TimeoutSecs > 0 {
		opts = append(opts, oracle.WithTimeout(time.Duration(c.Oracle.TimeoutSecs)*time.Second))
	}

	zap.L().Info("oracle configured",
		zap.String("provider", c.Oracle.Provider),
		zap.Int("max_attempts", c.Oracle.MaxAttempts),
	)
	return oracle.NewLLMOracle(completer, opts...), nil
}

func initDirectory(ctx context.Context, dc config.DirectoryConfig, fit scorer.FitScorer) (*directory.Session, error) {
	mapping := directory.NewMapping(nil)
	if dc.CompanyMappingFile != "" {
		m, err := directory.LoadMapping(dc.CompanyMappingFile)
		if err != nil {
			return nil, eris.Wrap(err, "load company mapping")
		}
		mapping = m
	}

	ranker := scorer.NewRanker(fit, dc.MinFitScore)
	sess, err := directory.OpenChrome(ctx, dc, mapping, ranker)
	if err != nil {
		return nil, eris.Wrap(err, "open directory session")
	}
	zap.L().Info("directory session ready",
		zap.String("user_data_dir", dc.UserDataDir),
		zap.Int("mapped_companies", mapping.Len()),
	)
	return sess, nil
}
