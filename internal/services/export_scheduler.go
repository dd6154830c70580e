package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const exportRunTimeout = 10 * time.Minute

// Exporter is the job the scheduler runs.
type Exporter interface {
	ExportDecided(ctx context.Context) (*ExportResult, error)
}

// ExportScheduler runs the decided-application export on a cron schedule.
type ExportScheduler struct {
	cron     *cron.Cron
	exporter Exporter
}

func NewExportScheduler(exporter Exporter, schedule string) (*ExportScheduler, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	s := &ExportScheduler{
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
		exporter: exporter,
	}
	if _, err := s.cron.AddFunc(schedule, s.Run); err != nil {
		return nil, fmt.Errorf("invalid export schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *ExportScheduler) Start() {
	s.cron.Start()
	logrus.WithField("entries", len(s.cron.Entries())).Info("Export scheduler started")
}

// Stop stops scheduling and waits for a running export to finish or ctx to
// expire.
func (s *ExportScheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		logrus.Warn("Export scheduler stopped before the running export finished")
	}
}

// Run performs one export.
func (s *ExportScheduler) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), exportRunTimeout)
	defer cancel()

	result, err := s.exporter.ExportDecided(ctx)
	if err != nil {
		logrus.WithError(err).Error("Scheduled export failed")
		return
	}
	logrus.WithFields(logrus.Fields{
		"batch_id":     result.BatchID,
		"applications": result.Applications,
	}).Info("Scheduled export finished")
}
