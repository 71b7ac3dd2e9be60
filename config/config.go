// Package config loads pool options from YAML documents and environment
// overrides. Unknown keys are ignored; malformed numeric values silently fall
// back to the pool defaults rather than failing the load.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/esroyo/generic-pool/pkg/pool"
)

// document is the YAML shape: options live under a top-level pool key.
type document struct {
	Pool rawOptions `yaml:"pool"`
}

// rawOptions keeps every field loosely typed so a malformed scalar degrades
// to the default instead of aborting the parse.
type rawOptions struct {
	Name                      any `yaml:"name"`
	Max                       any `yaml:"max"`
	Min                       any `yaml:"min"`
	MaxWaitingClients         any `yaml:"maxWaitingClients"`
	PriorityRange             any `yaml:"priorityRange"`
	Fifo                      any `yaml:"fifo"`
	TestOnBorrow              any `yaml:"testOnBorrow"`
	TestOnReturn              any `yaml:"testOnReturn"`
	Autostart                 any `yaml:"autostart"`
	AcquireTimeoutMillis      any `yaml:"acquireTimeoutMillis"`
	DestroyTimeoutMillis      any `yaml:"destroyTimeoutMillis"`
	EvictionRunIntervalMillis any `yaml:"evictionRunIntervalMillis"`
	NumTestsPerEvictionRun    any `yaml:"numTestsPerEvictionRun"`
	SoftIdleTimeoutMillis     any `yaml:"softIdleTimeoutMillis"`
	IdleTimeoutMillis         any `yaml:"idleTimeoutMillis"`
}

// Parse decodes a YAML document into pool options.
func Parse(data []byte) (pool.Options, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return pool.Options{}, fmt.Errorf("parse pool config: %w", err)
	}
	return doc.Pool.toOptions(), nil
}

// Load reads and parses the YAML file at path.
func Load(path string) (pool.Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return pool.Options{}, fmt.Errorf("read pool config: %w", err)
	}
	return Parse(data)
}

// FromEnv applies POOL_* environment overrides on top of base. Recognized
// variables: POOL_NAME, POOL_MAX, POOL_MIN, POOL_MAX_WAITING_CLIENTS,
// POOL_ACQUIRE_TIMEOUT_MS, POOL_EVICTION_INTERVAL_MS, POOL_IDLE_TIMEOUT_MS.
func FromEnv(base pool.Options) pool.Options {
	opts := base
	if v := strings.TrimSpace(os.Getenv("POOL_NAME")); v != "" {
		opts.Name = v
	}
	if n, ok := envInt("POOL_MAX"); ok {
		opts.Max = n
	}
	if n, ok := envInt("POOL_MIN"); ok {
		opts.Min = n
	}
	if n, ok := envInt("POOL_MAX_WAITING_CLIENTS"); ok {
		limit := n
		opts.MaxWaitingClients = &limit
	}
	if d, ok := envMillis("POOL_ACQUIRE_TIMEOUT_MS"); ok {
		opts.AcquireTimeout = d
	}
	if d, ok := envMillis("POOL_EVICTION_INTERVAL_MS"); ok {
		opts.EvictionRunInterval = d
	}
	if d, ok := envMillis("POOL_IDLE_TIMEOUT_MS"); ok {
		opts.IdleTimeout = d
	}
	return opts
}

func (r rawOptions) toOptions() pool.Options {
	opts := pool.Options{}
	if s, ok := r.Name.(string); ok {
		opts.Name = strings.TrimSpace(s)
	}
	if n, ok := coerceInt(r.Max); ok {
		opts.Max = n
	}
	if n, ok := coerceInt(r.Min); ok {
		opts.Min = n
	}
	if n, ok := coerceInt(r.MaxWaitingClients); ok {
		limit := n
		opts.MaxWaitingClients = &limit
	}
	if n, ok := coerceInt(r.PriorityRange); ok {
		opts.PriorityRange = n
	}
	if b, ok := coerceBool(r.Fifo); ok {
		fifo := b
		opts.Fifo = &fifo
	}
	if b, ok := coerceBool(r.TestOnBorrow); ok {
		opts.TestOnBorrow = b
	}
	if b, ok := coerceBool(r.TestOnReturn); ok {
		opts.TestOnReturn = b
	}
	if b, ok := coerceBool(r.Autostart); ok {
		autostart := b
		opts.Autostart = &autostart
	}
	if n, ok := coerceInt(r.AcquireTimeoutMillis); ok {
		opts.AcquireTimeout = time.Duration(n) * time.Millisecond
	}
	if n, ok := coerceInt(r.DestroyTimeoutMillis); ok {
		opts.DestroyTimeout = time.Duration(n) * time.Millisecond
	}
	if n, ok := coerceInt(r.EvictionRunIntervalMillis); ok {
		opts.EvictionRunInterval = time.Duration(n) * time.Millisecond
	}
	if n, ok := coerceInt(r.NumTestsPerEvictionRun); ok {
		opts.NumTestsPerEvictionRun = n
	}
	if n, ok := coerceInt(r.SoftIdleTimeoutMillis); ok {
		opts.SoftIdleTimeout = time.Duration(n) * time.Millisecond
	}
	if n, ok := coerceInt(r.IdleTimeoutMillis); ok {
		opts.IdleTimeout = time.Duration(n) * time.Millisecond
	}
	return opts
}

func coerceInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

func coerceBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		if err != nil {
			return false, false
		}
		return parsed, true
	default:
		return false, false
	}
}

func envInt(key string) (int, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envMillis(key string) (time.Duration, bool) {
	n, ok := envInt(key)
	if !ok {
		return 0, false
	}
	return time.Duration(n) * time.Millisecond, true
}
