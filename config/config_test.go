package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseFullDocument(t *testing.T) {
	opts, err := Parse([]byte(`
pool:
  name: workers
  max: 8
  min: 2
  maxWaitingClients: 0
  priorityRange: 3
  fifo: false
  testOnBorrow: true
  autostart: false
  acquireTimeoutMillis: 250
  destroyTimeoutMillis: 100
  evictionRunIntervalMillis: 1000
  numTestsPerEvictionRun: 5
  softIdleTimeoutMillis: 2000
  idleTimeoutMillis: 30000
`))
	require.NoError(t, err)

	require.Equal(t, "workers", opts.Name)
	require.Equal(t, 8, opts.Max)
	require.Equal(t, 2, opts.Min)
	require.NotNil(t, opts.MaxWaitingClients)
	require.Equal(t, 0, *opts.MaxWaitingClients)
	require.Equal(t, 3, opts.PriorityRange)
	require.NotNil(t, opts.Fifo)
	require.False(t, *opts.Fifo)
	require.True(t, opts.TestOnBorrow)
	require.False(t, opts.TestOnReturn)
	require.NotNil(t, opts.Autostart)
	require.False(t, *opts.Autostart)
	require.Equal(t, 250*time.Millisecond, opts.AcquireTimeout)
	require.Equal(t, 100*time.Millisecond, opts.DestroyTimeout)
	require.Equal(t, time.Second, opts.EvictionRunInterval)
	require.Equal(t, 5, opts.NumTestsPerEvictionRun)
	require.Equal(t, 2*time.Second, opts.SoftIdleTimeout)
	require.Equal(t, 30*time.Second, opts.IdleTimeout)
}

func TestParseMalformedNumbersFallBack(t *testing.T) {
	opts, err := Parse([]byte(`
pool:
  max: []
  min: asf
`))
	require.NoError(t, err)
	// Malformed values degrade to zero-values; the pool normalizer then
	// applies max=1, min=0.
	require.Equal(t, 0, opts.Max)
	require.Equal(t, 0, opts.Min)
	require.Nil(t, opts.MaxWaitingClients)
}

func TestParseIgnoresUnknownKeys(t *testing.T) {
	opts, err := Parse([]byte(`
pool:
  max: 4
  flux: capacitor
other: section
`))
	require.NoError(t, err)
	require.Equal(t, 4, opts.Max)
}

func TestParseNumericStrings(t *testing.T) {
	opts, err := Parse([]byte(`
pool:
  max: "6"
  fifo: "true"
`))
	require.NoError(t, err)
	require.Equal(t, 6, opts.Max)
	require.NotNil(t, opts.Fifo)
	require.True(t, *opts.Fifo)
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("pool: [unclosed"))
	require.Error(t, err)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pool.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pool:\n  max: 3\n"), 0o600))

	opts, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 3, opts.Max)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("POOL_NAME", "env-pool")
	t.Setenv("POOL_MAX", "9")
	t.Setenv("POOL_MIN", "2")
	t.Setenv("POOL_MAX_WAITING_CLIENTS", "4")
	t.Setenv("POOL_ACQUIRE_TIMEOUT_MS", "500")
	t.Setenv("POOL_EVICTION_INTERVAL_MS", "bogus")

	base, err := Parse([]byte("pool:\n  max: 3\n  evictionRunIntervalMillis: 100\n"))
	require.NoError(t, err)

	opts := FromEnv(base)
	require.Equal(t, "env-pool", opts.Name)
	require.Equal(t, 9, opts.Max)
	require.Equal(t, 2, opts.Min)
	require.NotNil(t, opts.MaxWaitingClients)
	require.Equal(t, 4, *opts.MaxWaitingClients)
	require.Equal(t, 500*time.Millisecond, opts.AcquireTimeout)
	// Malformed env values leave the base untouched.
	require.Equal(t, 100*time.Millisecond, opts.EvictionRunInterval)
}
