package retry

import (
	"math/rand"
	"time"
)

// backoff returns the delay before retry attempt (0-indexed): BaseDelay
// doubled per attempt, capped at MaxDelay, with ±Jitter randomness applied
// last so the cap still bounds the expected delay.
func backoff(cfg Config, attempt int) time.Duration {
	delay := float64(cfg.BaseDelay)
	for n := 0; n < attempt; n++ {
		delay *= 2
		if delay >= float64(cfg.MaxDelay) {
			delay = float64(cfg.MaxDelay)
			break
		}
	}
	if delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	if cfg.Jitter > 0 {
		delay += delay * cfg.Jitter * (rand.Float64()*2 - 1)
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}
