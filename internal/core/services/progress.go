package services

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/chatlens-labs/chatlens-cli/internal/core/domain"
)

// progressInterval is the minimum spacing between throttled events.
const progressInterval = 100 * time.Millisecond

// progressEmitter throttles progress callbacks from tight loops.
// The first event, stage transitions and terminal events always pass;
// intermediate events are dropped when they arrive faster than the
// limiter allows. Percentages never decrease.
type progressEmitter struct {
	fn      domain.ProgressFunc
	limiter *rate.Limiter

	lastStage   string
	lastPercent float64
}

func newProgressEmitter(fn domain.ProgressFunc) *progressEmitter {
	return &progressEmitter{
		fn:      fn,
		limiter: rate.NewLimiter(rate.Every(progressInterval), 1),
	}
}

// step emits a throttled intermediate event.
func (e *progressEmitter) step(stage string, done, total int) {
	if e.fn == nil {
		return
	}
	if stage == e.lastStage && !e.limiter.Allow() {
		return
	}
	e.send(stage, done, total, "")
}

// finish emits the stage's final event, bypassing the throttle.
func (e *progressEmitter) finish(stage string, done, total int) {
	if e.fn == nil {
		return
	}
	e.send(stage, done, total, "")
}

// done emits the terminal success event at 100 percent.
func (e *progressEmitter) done(message string) {
	if e.fn == nil {
		return
	}
	e.lastPercent = 100
	e.fn(domain.Progress{Stage: domain.StageDone, Percent: 100, Message: message})
}

// fail emits the terminal error event. The percentage freezes at the
// last reported value.
func (e *progressEmitter) fail(err error) {
	if e.fn == nil {
		return
	}
	e.fn(domain.Progress{
		Stage:   domain.StageError,
		Percent: e.lastPercent,
		Message: err.Error(),
	})
}

func (e *progressEmitter) send(stage string, done, total int, message string) {
	percent := e.lastPercent
	if total > 0 {
		percent = float64(done) / float64(total) * 100
		if percent > 100 {
			percent = 100
		}
	}
	if percent < e.lastPercent {
		percent = e.lastPercent
	}
	e.lastStage = stage
	e.lastPercent = percent
	e.fn(domain.Progress{
		Stage:   stage,
		Done:    done,
		Total:   total,
		Percent: percent,
		Message: message,
	})
}
