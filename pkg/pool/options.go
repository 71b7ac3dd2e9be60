package pool

import "time"

const (
	defaultName                   = "generic"
	defaultMax                    = 1
	defaultMin                    = 0
	defaultPriorityRange          = 1
	defaultNumTestsPerEvictionRun = 3
	defaultIdleTimeout            = 30 * time.Second

	readyPollInterval = 100 * time.Millisecond
)

// Options configure a Pool. Zero-valued fields take their documented
// defaults; the pointer fields exist because their zero value is meaningful
// (MaxWaitingClients of 0 admits no waiters at all, Fifo and Autostart
// default to true).
type Options struct {
	// Name labels the pool in logs, metrics, and stats.
	Name string

	// Max bounds the total number of resources (live plus in-flight
	// creations). Values below 1 fall back to 1.
	Max int
	// Min is the number of resources the pool keeps pre-provisioned.
	// Clamped into [0, Max].
	Min int

	// MaxWaitingClients, when set, caps the waiting queue; an acquire that
	// would exceed it fails immediately. Nil means unlimited.
	MaxWaitingClients *int

	// PriorityRange is the number of priority slots (0 is highest). Values
	// below 1 fall back to 1.
	PriorityRange int

	// Fifo selects the order idle resources are handed out: true (default)
	// reuses the oldest-returned resource first, false the newest.
	Fifo *bool

	// TestOnBorrow validates a resource before dispatching it to a waiter;
	// validation failure destroys the resource and the waiter stays queued.
	TestOnBorrow bool
	// TestOnReturn validates a resource on release before it rejoins the
	// idle set; failure destroys it.
	TestOnReturn bool

	// Autostart starts the pool at construction (default true). When false
	// the pool starts lazily on the first acquire or an explicit Start.
	Autostart *bool

	// AcquireTimeout bounds how long an acquire may wait for a resource.
	// Zero disables the timeout.
	AcquireTimeout time.Duration
	// DestroyTimeout bounds how long the pool waits on factory destruction
	// before surfacing a destroy-timeout event. The underlying destroy is
	// not aborted. Zero disables the timeout.
	DestroyTimeout time.Duration

	// EvictionRunInterval is the period of the idle-eviction sweep. Zero
	// disables eviction.
	EvictionRunInterval time.Duration
	// NumTestsPerEvictionRun caps how many idle resources one sweep
	// examines. Values below 1 fall back to 3.
	NumTestsPerEvictionRun int
	// SoftIdleTimeout evicts resources idle longer than this while more
	// than Min are available. Zero or negative disables soft eviction.
	SoftIdleTimeout time.Duration
	// IdleTimeout evicts resources idle longer than this regardless of the
	// available count. Zero or negative falls back to 30s.
	IdleTimeout time.Duration
}

// settings is the frozen, fully-defaulted form of Options the pool runs on.
type settings struct {
	name                   string
	max                    int
	min                    int
	maxWaitingClients      int // negative means unlimited
	priorityRange          int
	fifo                   bool
	testOnBorrow           bool
	testOnReturn           bool
	autostart              bool
	acquireTimeout         time.Duration
	destroyTimeout         time.Duration
	evictionRunInterval    time.Duration
	numTestsPerEvictionRun int
	softIdleTimeout        time.Duration
	idleTimeout            time.Duration
}

func normalizeOptions(opts Options) settings {
	cfg := settings{
		name:                   opts.Name,
		max:                    opts.Max,
		min:                    opts.Min,
		maxWaitingClients:      -1,
		priorityRange:          opts.PriorityRange,
		fifo:                   true,
		testOnBorrow:           opts.TestOnBorrow,
		testOnReturn:           opts.TestOnReturn,
		autostart:              true,
		acquireTimeout:         opts.AcquireTimeout,
		destroyTimeout:         opts.DestroyTimeout,
		evictionRunInterval:    opts.EvictionRunInterval,
		numTestsPerEvictionRun: opts.NumTestsPerEvictionRun,
		softIdleTimeout:        opts.SoftIdleTimeout,
		idleTimeout:            opts.IdleTimeout,
	}

	if cfg.name == "" {
		cfg.name = defaultName
	}
	if cfg.max < 1 {
		cfg.max = defaultMax
	}
	if cfg.min < 0 {
		cfg.min = defaultMin
	}
	if cfg.min > cfg.max {
		cfg.min = cfg.max
	}
	if opts.MaxWaitingClients != nil && *opts.MaxWaitingClients >= 0 {
		cfg.maxWaitingClients = *opts.MaxWaitingClients
	}
	if cfg.priorityRange < 1 {
		cfg.priorityRange = defaultPriorityRange
	}
	if opts.Fifo != nil {
		cfg.fifo = *opts.Fifo
	}
	if opts.Autostart != nil {
		cfg.autostart = *opts.Autostart
	}
	if cfg.acquireTimeout < 0 {
		cfg.acquireTimeout = 0
	}
	if cfg.destroyTimeout < 0 {
		cfg.destroyTimeout = 0
	}
	if cfg.evictionRunInterval < 0 {
		cfg.evictionRunInterval = 0
	}
	if cfg.numTestsPerEvictionRun < 1 {
		cfg.numTestsPerEvictionRun = defaultNumTestsPerEvictionRun
	}
	if cfg.softIdleTimeout < 0 {
		cfg.softIdleTimeout = 0
	}
	if cfg.idleTimeout <= 0 {
		cfg.idleTimeout = defaultIdleTimeout
	}
	return cfg
}
