package replay

import (
	"errors"

	"github.com/hashicorp/go-hclog"

	"github.com/0xPolygon/evm-tracecheck/replay"
	"github.com/0xPolygon/evm-tracecheck/replay/cache"
	"github.com/0xPolygon/evm-tracecheck/tracer/streamtracer"
)

var (
	errNoRPCEndpoint = errors.New("no RPC endpoint given, set --rpc-url or " + replay.EnvRPCURL)
	errNoBlockGiven  = errors.New("no block selected, set --block or --latest")
)

type replayParams struct {
	chain         string
	rpcURL        string
	cacheDir      string
	engine        string
	blockNumber   uint64
	blockSet      bool
	latest        bool
	captureMemory bool
	captureStack  bool
	logLevel      string

	env *replay.Config
}

func (p *replayParams) initEnv() {
	if p.env == nil {
		p.env = replay.ConfigFromEnv()
	}

	// flags win over the environment
	if p.rpcURL == "" {
		p.rpcURL = p.env.RPCURL
	}

	if p.cacheDir == "" {
		p.cacheDir = p.env.CacheDir
	}
}

func (p *replayParams) validate() error {
	if p.rpcURL == "" {
		return errNoRPCEndpoint
	}

	if !p.blockSet && !p.latest {
		return errNoBlockGiven
	}

	if !replay.EngineSupported(p.engine) {
		return errors.New("engine " + p.engine + " is not registered")
	}

	return nil
}

func (p *replayParams) tracerConfig() streamtracer.Config {
	return streamtracer.Config{
		EnableMemory: p.captureMemory,
		EnableStack:  p.captureStack,
	}
}

func (p *replayParams) logger() hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:  "tracecheck",
		Level: hclog.LevelFromString(p.logLevel),
	})
}

func (p *replayParams) newReplayer(logger hclog.Logger) (*replay.Replayer, *cache.Cache, error) {
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

	opts := []replay.FetcherOption{
		replay.WithLogger(logger),
	}
	if responseCache != nil {
		opts = append(opts, replay.WithCache(responseCache))
	}

	fetcher, err := replay.NewFetcher(p.chain, p.rpcURL, opts...)
	if err != nil {
		closeCache(responseCache)

		return nil, nil, err
	}

	engine, err := replay.NewEngine(replay.EngineType(p.engine), logger)
	if err != nil {
		closeCache(responseCache)

		return nil, nil, err
	}

	return replay.NewReplayer(fetcher, engine, p.tracerConfig(), logger), responseCache, nil
}

func closeCache(c *cache.Cache) {
	if c != nil {
		_ = c.Close()
	}
}
