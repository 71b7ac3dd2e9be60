package pool

import "time"

// shouldEvict decides whether an idle resource is destroyed by the sweep.
// Soft idle trims surplus above the minimum set aggressively; hard idle
// eventually reaps even minimum-set stragglers, after which ensureMinimum
// tops the pool back up.
func shouldEvict[T comparable](cfg settings, pr *pooledResource[T], availableCount int, now time.Time) bool {
	idleTime := now.Sub(pr.lastIdleTime)
	if cfg.softIdleTimeout > 0 && idleTime > cfg.softIdleTimeout && availableCount > cfg.min {
		return true
	}
	if idleTime > cfg.idleTimeout {
		return true
	}
	return false
}
