package command

const (
	// DefaultChainName is the chain the replay runs against when none is given
	DefaultChainName = "mainnet"

	// DefaultWatchInterval is the cadence of the periodic replay
	DefaultWatchInterval = "10m"
)

const (
	JSONOutputFlag = "json"
	ChainFlag      = "chain"
	RPCURLFlag     = "rpc-url"
	CacheDirFlag   = "cache-dir"
	BlockFlag      = "block"
	MemoryFlag     = "capture-memory"
	StackFlag      = "capture-stack"
	IntervalFlag   = "interval"
	LogLevelFlag   = "log-level"
)
