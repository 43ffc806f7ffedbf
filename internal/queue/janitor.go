package queue

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const DefaultSweepSpec = "@every 30m"

type Sweeper interface {
	Sweep() int
}

// Janitor runs Sweep on a cron schedule.
type Janitor struct {
	c   *cron.Cron
	log zerolog.Logger
}

func NewJanitor(s Sweeper, spec string, log zerolog.Logger) (*Janitor, error) {
	if spec == "" {
		spec = DefaultSweepSpec
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	c := cron.New(cron.WithParser(parser), cron.WithChain(cron.Recover(cron.DiscardLogger)))

	if _, err := c.AddFunc(spec, func() { s.Sweep() }); err != nil {
		return nil, fmt.Errorf("schedule sweep %q: %w", spec, err)
	}
	return &Janitor{c: c, log: log}, nil
}

func (j *Janitor) Start() {
	j.c.Start()
	j.log.Info().Msg("job janitor started")
}

// Stop halts the schedule and waits for a sweep in progress.
func (j *Janitor) Stop(ctx context.Context) {
	select {
	case <-j.c.Stop().Done():
	case <-ctx.Done():
	}
}
