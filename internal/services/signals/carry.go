package signals

import (
	"time"

	applogger "CoinStrat/pkg/logger"
)

// DefaultWarnLimit is how many carry-forward warnings each factor logs per run.
const DefaultWarnLimit = 3

// carryTracker counts the days a factor reused its previous score.
// One tracker belongs to one computation run.
type carryTracker struct {
	factor string
	limit  int
	count  int
	log    *applogger.Logger
}

func newCarryTracker(factor string, limit int, l *applogger.Logger) *carryTracker {
	if l == nil {
		l = applogger.Nop()
	}
	return &carryTracker{factor: factor, limit: limit, log: l}
}

// carry records a missing input on date and returns prev unchanged.
func (c *carryTracker) carry(date time.Time, prev int) int {
	c.count++
	if c.count <= c.limit {
		c.log.Warn("input missing, carrying previous score",
			applogger.String("factor", c.factor),
			applogger.Date("date", date),
			applogger.Int("score", prev),
		)
		if c.count == c.limit {
			c.log.Warn("further carry-forward warnings suppressed", applogger.String("factor", c.factor))
		}
	}
	return prev
}

// summarize logs the final count once the run is over.
func (c *carryTracker) summarize() {
	if c.count > c.limit {
		c.log.Info("carry-forward summary",
			applogger.String("factor", c.factor),
			applogger.Int("days", c.count),
		)
	}
}
