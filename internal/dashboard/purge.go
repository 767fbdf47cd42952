package dashboard

import (
	"fmt"
	"time"

	"inflation-dashboard/internal/metrics"

	"github.com/robfig/cron"
	"github.com/rs/zerolog/log"
)

// UploadPurger removes expired upload results.
type UploadPurger interface {
	PurgeExpired(now time.Time) (int, error)
	Count() (int, error)
}

// Purger runs the upload purge on a cron schedule.
type Purger struct {
	store   UploadPurger
	metrics *metrics.MetricsWrapper
	cron    *cron.Cron
	now     func() time.Time
}

// NewPurger schedules store purges. schedule uses cron syntax, including
// descriptors such as "@every 10m".
func NewPurger(store UploadPurger, schedule string, metricsWrapper *metrics.MetricsWrapper) (*Purger, error) {
	p := &Purger{
		store:   store,
		metrics: metricsWrapper,
		cron:    cron.New(),
		now:     time.Now,
	}

	if err := p.cron.AddFunc(schedule, func() {
		if _, err := p.Purge(); err != nil {
			log.Error().Err(err).Msg("Upload purge failed")
		}
	}); err != nil {
		return nil, fmt.Errorf("invalid purge schedule %q: %w", schedule, err)
	}
	return p, nil
}

func (p *Purger) Start() {
	p.cron.Start()
	log.Info().Msg("Upload purge scheduled")
}

func (p *Purger) Stop() {
	p.cron.Stop()
}

// Purge removes expired uploads now and refreshes the stored-uploads gauge.
func (p *Purger) Purge() (int, error) {
	removed, err := p.store.PurgeExpired(p.now())
	if err != nil {
		return 0, err
	}
	p.metrics.PurgedUploads(removed)

	if n, err := p.store.Count(); err == nil {
		p.metrics.StoredUploads().Set(float64(n))
	}

	if removed > 0 {
		log.Info().Int("removed", removed).Msg("Expired uploads purged")
	}
	return removed, nil
}
