package watch

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/go-hclog"

	replaycmd "github.com/0xPolygon/evm-tracecheck/command/replay"
	"github.com/0xPolygon/evm-tracecheck/replay"
	"github.com/0xPolygon/evm-tracecheck/replay/cache"
	"github.com/0xPolygon/evm-tracecheck/tracer/streamtracer"
)

type watchParams struct {
	chain    string
	rpcURL   string
	cacheDir string
	engine   string
	interval time.Duration
	logLevel string

	env *replay.Config
}

func (p *watchParams) initEnv() {
	if p.env == nil {
		p.env = replay.ConfigFromEnv()
	}

	if p.rpcURL == "" {
		p.rpcURL = p.env.RPCURL
	}

	if p.cacheDir == "" {
		p.cacheDir = p.env.CacheDir
	}
}

func (p *watchParams) validate() error {
	if p.rpcURL == "" {
		return errors.New("no RPC endpoint given, set --rpc-url or " + replay.EnvRPCURL)
	}

	if !replay.EngineSupported(p.engine) {
		return errors.New("engine " + p.engine + " is not registered")
	}

	if p.interval <= 0 {
		return errors.New("interval must be positive")
	}

	return nil
}

func (p *watchParams) logger() hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:  "tracecheck",
		Level: hclog.LevelFromString(p.logLevel),
	})
}

// resultRunner is a single replay round the watch loop schedules
type resultRunner interface {
	run(ctx context.Context) (*replaycmd.ReplayResult, error)
}

type watchRunner struct {
	chain    string
	replayer *replay.Replayer
}

// run replays the most recent block once and classifies its trace
func (r *watchRunner) run(ctx context.Context) (*replaycmd.ReplayResult, error) {
	t, number, err := r.replayer.ReplayLatest(ctx)
	if err != nil {
		return nil, err
	}

	return replaycmd.NewReplayResult(r.chain, number, t)
}

// newRunner builds the replayer shared by every run, so the response
// cache is reused across the whole watch
func (p *watchParams) newRunner(logger hclog.Logger) (*watchRunner, func(), error) {
	var (
		responseCache *cache.Cache
		err           error
	)

	if p.cacheDir != "" {
		responseCache, err = cache.NewLevelDBCache(p.cacheDir, logger)
		if err != nil {
			return nil, nil, err
		}
	}

	cleanup := func() {
		if responseCache != nil {
			_ = responseCache.Close()
		}
	}

	opts := []replay.FetcherOption{
		replay.WithLogger(logger),
	}
	if responseCache != nil {
		opts = append(opts, replay.WithCache(responseCache))
	}

	fetcher, err := replay.NewFetcher(p.chain, p.rpcURL, opts...)
	if err != nil {
		cleanup()

		return nil, nil, err
	}

	engine, err := replay.NewEngine(replay.EngineType(p.engine), logger)
	if err != nil {
		cleanup()

		return nil, nil, err
	}

	replayer := replay.NewReplayer(fetcher, engine, streamtracer.Config{}, logger)

	return &watchRunner{chain: p.chain, replayer: replayer}, cleanup, nil
}
