package web

import (
	"time"

	"github.com/cybertec-postgresql/pg_timetable_web/internal/pgengine"
	"github.com/robfig/cron/v3"
)

const previewRuns = 3

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// schedulePreview is the cron form of a config schedule with upcoming runs
type schedulePreview struct {
	Expression string
	Next       []time.Time
	Error      string
}

func newSchedulePreview(c pgengine.ChainConfig, now time.Time) schedulePreview {
	p := schedulePreview{Expression: c.CronExpression()}
	sched, err := cronParser.Parse(p.Expression)
	if err != nil {
		p.Error = err.Error()
		return p
	}
	for t := now; len(p.Next) < previewRuns; {
		t = sched.Next(t)
		if t.IsZero() {
			break
		}
		p.Next = append(p.Next, t)
	}
	return p
}
