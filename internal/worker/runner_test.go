package worker

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunnerExecutesSubmitted(t *testing.T) {
	r := New(0)
	var n atomic.Int32
	for i := 0; i < 16; i++ {
		r.Go(func() { n.Add(1) })
	}
	r.Wait()
	require.Equal(t, int32(16), n.Load())
}

func TestRunnerBoundedStillCompletes(t *testing.T) {
	r := New(2)
	var n atomic.Int32
	for i := 0; i < 8; i++ {
		r.Go(func() { n.Add(1) })
	}
	r.Wait()
	require.Equal(t, int32(8), n.Load())
}

func TestRunnerRecoversPanics(t *testing.T) {
	r := New(0)
	done := make(chan struct{})
	r.Go(func() {
		defer close(done)
		panic("boom")
	})
	<-done
	// A panicking task must not poison the runner.
	var ran atomic.Bool
	r.Go(func() { ran.Store(true) })
	r.Wait()
	require.True(t, ran.Load())
}

func TestRunnerIgnoresNil(t *testing.T) {
	r := New(0)
	r.Go(nil)
	r.Wait()
}
