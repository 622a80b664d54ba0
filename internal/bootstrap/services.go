package bootstrap

import (
	"github.com/turtacn/foia-tracker/internal/application/alerting"
	"github.com/turtacn/foia-tracker/internal/application/appeals"
	"github.com/turtacn/foia-tracker/internal/application/tracking"
	"github.com/turtacn/foia-tracker/pkg/errors"
)

// Services are the application services over one Infrastructure.
type Services struct {
	Tracking tracking.Service
	Alerting alerting.Engine
	Appeals  appeals.Generator
}

// Services wires the tracking service, the alert engine and the appeal
// generator, passing each optional backend only when it was dialed.  Nil
// adapters are never passed as typed interface values.
func (i *Infrastructure) Services() (*Services, error) {
	thresholds, err := i.Config.Tracker.ThresholdSet(i.Calculator.Registry())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "invalid alert thresholds")
	}

	trackOpts := []tracking.Option{
		tracking.WithClock(i.Clock),
		tracking.WithPublisher(i.Publisher),
		tracking.WithAppeals(i.Appeals),
	}
	engineOpts := []alerting.Option{
		alerting.WithClock(i.Clock),
		alerting.WithPublisher(i.Publisher),
		alerting.WithThresholds(thresholds),
	}
	appealOpts := []appeals.Option{
		appeals.WithClock(i.Clock),
		appeals.WithPublisher(i.Publisher),
	}

	if i.Documents != nil {
		trackOpts = append(trackOpts, tracking.WithDocumentStore(i.Documents))
		appealOpts = append(appealOpts, appeals.WithDocumentStore(i.Documents))
	}
	if i.Cache != nil {
		trackOpts = append(trackOpts, tracking.WithCache(i.Cache))
		appealOpts = append(appealOpts, appeals.WithCache(i.Cache))
	}
	if i.ScanLock != nil {
		engineOpts = append(engineOpts, alerting.WithLocker(i.ScanLock))
	}
	if i.Metrics != nil {
		trackOpts = append(trackOpts, tracking.WithMetrics(i.Metrics))
		engineOpts = append(engineOpts, alerting.WithMetrics(i.Metrics))
		appealOpts = append(appealOpts, appeals.WithMetrics(i.Metrics))
	}

	return &Services{
		Tracking: tracking.NewService(i.Requests, i.Calculator, i.Logger, trackOpts...),
		Alerting: alerting.NewEngine(i.Requests, i.Alerts, i.Logger, engineOpts...),
		Appeals:  appeals.NewGenerator(i.Requests, i.Appeals, i.Calculator, i.Logger, appealOpts...),
	}, nil
}

//Personal.AI order the ending
