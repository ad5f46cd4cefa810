package submission

import (
	"time"

	"go.uber.org/zap"
)

// Observer receives lifecycle callbacks from the coordinator. Callbacks never
// see payloads or credentials.
type Observer interface {
	StepStarted(form string, step int, name string)
	StepFinished(form string, step int, name string, status int, elapsed time.Duration, err error)
	Finished(form string, outcome Outcome, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) StepStarted(string, int, string)                             {}
func (nopObserver) StepFinished(string, int, string, int, time.Duration, error) {}
func (nopObserver) Finished(string, Outcome, time.Duration)                     {}

// Observers fans callbacks out to several observers in order.
type Observers []Observer

func (o Observers) StepStarted(form string, step int, name string) {
	for _, obs := range o {
		obs.StepStarted(form, step, name)
	}
}

func (o Observers) StepFinished(form string, step int, name string, status int, elapsed time.Duration, err error) {
	for _, obs := range o {
		obs.StepFinished(form, step, name, status, elapsed, err)
	}
}

func (o Observers) Finished(form string, outcome Outcome, elapsed time.Duration) {
	for _, obs := range o {
		obs.Finished(form, outcome, elapsed)
	}
}

// LogObserver writes structured step and outcome logs.
type LogObserver struct {
	Logger *zap.Logger
}

func (l LogObserver) logger() *zap.Logger {
	if l.Logger == nil {
		return zap.NewNop()
	}
	return l.Logger
}

func (l LogObserver) StepStarted(form string, step int, name string) {
	l.logger().Debug("submission step started",
		zap.String("form", form),
		zap.Int("step", step),
		zap.String("step_name", name),
	)
}

func (l LogObserver) StepFinished(form string, step int, name string, status int, elapsed time.Duration, err error) {
	fields := []zap.Field{
		zap.String("form", form),
		zap.Int("step", step),
		zap.String("step_name", name),
		zap.Int("status", status),
		zap.Duration("elapsed", elapsed),
	}
	if err != nil {
		l.logger().Warn("submission step failed", append(fields, zap.Error(err))...)
		return
	}
	l.logger().Debug("submission step finished", fields...)
}

func (l LogObserver) Finished(form string, outcome Outcome, elapsed time.Duration) {
	fields := []zap.Field{
		zap.String("form", form),
		zap.String("outcome", string(outcome.Kind())),
		zap.Duration("elapsed", elapsed),
	}
	switch o := outcome.(type) {
	case PartialFailure:
		fields = append(fields,
			zap.Int("step", o.Step),
			zap.String("step_name", o.StepName),
			zap.String("reason", string(o.Reason)),
			zap.Int("status", o.Status),
			zap.Strings("completed", o.Completed),
		)
		l.logger().Warn("submission failed", fields...)
	case ValidationRejected:
		fields = append(fields, zap.Int("field_errors", len(o.FieldErrors)))
		l.logger().Info("submission rejected", fields...)
	default:
		l.logger().Info("submission succeeded", fields...)
	}
}
