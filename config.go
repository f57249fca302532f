package gotablecache

import (
	"log"
	"time"

	"github.com/Keksclan/goTableCache/metrics"
	"github.com/Keksclan/goTableCache/tracing"
)

// config holds the internal configuration assembled via functional options.
type config struct {
	table           string
	prefix          string
	ttlAttribute    string
	consistentReads bool
	createTable     bool

	logger  *log.Logger
	nowFunc func() time.Time
	metrics *metrics.Set
	tracing *tracing.Config

	frontMaxCost int64
	frontTTL     time.Duration
}

func defaultConfig() config {
	return config{
		table:   DefaultTable,
		logger:  log.Default(),
		nowFunc: time.Now,
	}
}
