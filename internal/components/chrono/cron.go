package chrono

import (
	"context"
	"fmt"
	"tapascrap/internal/components/telemetry"

	"github.com/robfig/cron/v3"
)

// CronAPI is the interface that anything depending on things to happen on a cron job should use.
type CronAPI interface {
	Cron(spec string, callback func()) (cron.Job, error)
}

// StandardCron is the standard implementation of CronAPI using `github.com/robfig/cron/v3`.
// A job that is still running when its next tick arrives is skipped for that tick.
type StandardCron struct {
	cron  *cron.Cron
	chain cron.Chain
}

// NewStandardCron is the constructor of StandardCron, the scheduler is started immediately.
func NewStandardCron(tel telemetry.API, location API) StandardCron {
	logger := cronLogger{tel: tel}
	cronner := cron.New(
		cron.WithLogger(logger),
		cron.WithLocation(location.Location()),
	)
	cronner.Start()

	return StandardCron{
		cron:  cronner,
		chain: cron.NewChain(cron.SkipIfStillRunning(logger)),
	}
}

// Cron schedules callback and returns the scheduled job. Running the returned job by hand
// shares the skip guard with the scheduled runs.
func (s StandardCron) Cron(spec string, callback func()) (cron.Job, error) {
	job := s.chain.Then(cron.FuncJob(callback))
	_, err := s.cron.AddJob(spec, job)
	if err != nil {
		return nil, err
	}
	return job, nil
}

// Stop stops scheduling, the returned context is done once running jobs finish.
func (s StandardCron) Stop() context.Context {
	return s.cron.Stop()
}

type cronLogger struct {
	tel telemetry.API
}

func (l cronLogger) formatParams(keysAndValues []any) []any {
	params := []any{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		params = append(params, fmt.Sprintf("%v: %v", keysAndValues[i], keysAndValues[i+1]))
	}
	return params
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.tel.ReportDebug(
		fmt.Sprintf("cron: %s", msg),
		l.formatParams(keysAndValues)...,
	)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.tel.ReportBroken(
		"cron",
		fmt.Errorf("%s: %w", msg, err),
		l.formatParams(keysAndValues),
	)
}
