package pool

import (
	"bytes"
	"fmt"
	"sync"
	"sync/atomic"

	json "github.com/goccy/go-json"
)

// Stats is a point-in-time snapshot of the pool, suitable for periodic
// export or debugging endpoints.
type Stats struct {
	Name            string `json:"name"`
	Size            int    `json:"size"`
	Available       int    `json:"available"`
	Borrowed        int    `json:"borrowed"`
	Pending         int    `json:"pending"`
	Max             int    `json:"max"`
	Min             int    `json:"min"`
	SpareCapacity   int    `json:"spare_capacity"`
	Created         uint64 `json:"created"`
	CreateFailures  uint64 `json:"create_failures"`
	Destroyed       uint64 `json:"destroyed"`
	DestroyFailures uint64 `json:"destroy_failures"`
	AcquireTimeouts uint64 `json:"acquire_timeouts"`
	Evicted         uint64 `json:"evicted"`
}

// counters accumulates monotonic lifecycle totals independently of the
// mutex-guarded gauges.
type counters struct {
	created         atomic.Uint64
	createFailures  atomic.Uint64
	destroyed       atomic.Uint64
	destroyFailures atomic.Uint64
	acquireTimeouts atomic.Uint64
	evicted         atomic.Uint64
}

var statsEncoderPool = sync.Pool{
	New: func() any {
		return bytes.NewBuffer(make([]byte, 0, 512))
	},
}

// JSON marshals the snapshot with HTML escaping disabled.
func (s Stats) JSON() ([]byte, error) {
	buf := statsEncoderPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		statsEncoderPool.Put(buf)
	}()
	buf.Reset()
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("encode pool stats: %w", err)
	}
	data := buf.Bytes()
	if len(data) > 0 && data[len(data)-1] == '\n' {
		data = data[:len(data)-1]
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}
