package security

import (
	"sync"
	"time"

	"scanpay/internal/services/monitor"
)

const (
	scanCooldown  = time.Second
	scansPerMin   = 30
	scansPerHour  = 200
	globalLimitID = "global"
)

// RateLimitResult reports the limiter decision.
type RateLimitResult struct {
	Allowed        bool      `json:"allowed"`
	RemainingScans int       `json:"remaining_scans"`
	ResetTime      time.Time `json:"reset_time"`
	Reason         string    `json:"reason,omitempty"`
}

// rateLimiter enforces a process-wide cooldown between scans plus
// per-identity sliding-window caps. The log is pruned of entries older
// than one hour on each call.
type rateLimiter struct {
	mu       sync.Mutex
	clock    monitor.Clock
	lastScan time.Time
	log      map[string][]time.Time
}

func newRateLimiter(clock monitor.Clock) *rateLimiter {
	return &rateLimiter{
		clock: clock,
		log:   make(map[string][]time.Time),
	}
}

func (rl *rateLimiter) Check(userID string) RateLimitResult {
	if userID == "" {
		userID = globalLimitID
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	entries := pruneOlderThan(rl.log[userID], now.Add(-time.Hour))
	rl.log[userID] = entries

	minuteCutoff := now.Add(-time.Minute)
	minuteCount := 0
	var oldestInMinute time.Time
	for _, t := range entries {
		if t.After(minuteCutoff) {
			if minuteCount == 0 {
				oldestInMinute = t
			}
			minuteCount++
		}
	}

	// A denied cooldown check consumes no rate-limit slot.
	if !rl.lastScan.IsZero() && now.Sub(rl.lastScan) < scanCooldown {
		return RateLimitResult{
			Allowed:        false,
			RemainingScans: scansPerMin - minuteCount,
			ResetTime:      rl.lastScan.Add(scanCooldown),
			Reason:         "cooldown",
		}
	}

	if minuteCount >= scansPerMin {
		return RateLimitResult{
			Allowed:        false,
			RemainingScans: 0,
			ResetTime:      oldestInMinute.Add(time.Minute),
			Reason:         "per-minute limit",
		}
	}

	if len(entries) >= scansPerHour {
		return RateLimitResult{
			Allowed:        false,
			RemainingScans: 0,
			ResetTime:      entries[0].Add(time.Hour),
			Reason:         "per-hour limit",
		}
	}

	rl.log[userID] = append(entries, now)
	rl.lastScan = now

	return RateLimitResult{
		Allowed:        true,
		RemainingScans: scansPerMin - minuteCount - 1,
		ResetTime:      now.Add(time.Minute),
	}
}

func pruneOlderThan(entries []time.Time, cutoff time.Time) []time.Time {
	idx := 0
	for idx < len(entries) && !entries[idx].After(cutoff) {
		idx++
	}
	return entries[idx:]
}
