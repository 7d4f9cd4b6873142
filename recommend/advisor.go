package recommend

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrRemoteDisabled is reported when no model service is configured.
var ErrRemoteDisabled = eris.New("recommend: model service not configured")

// Option configures an Advisor.
type Option func(*Advisor)

// WithTables replaces the built-in rule tables.
func WithTables(t *Tables) Option {
	return func(a *Advisor) { a.tables = t }
}

// WithClock sets the time source used for seasons and request timestamps.
func WithClock(c Clock) Option {
	return func(a *Advisor) { a.now = c }
}

// WithLogger sets the logger. Defaults to zap.L() at construction time.
func WithLogger(l *zap.Logger) Option {
	return func(a *Advisor) { a.log = l }
}

// Advisor is the entry point for recommendations. It asks the model service first
// and builds a rule-based result when that fails. Safe for concurrent use.
type Advisor struct {
	remote Remote
	tables *Tables
	now    Clock
	log    *zap.Logger
}

// NewAdvisor creates an Advisor. A nil remote makes every call use the rule tables.
func NewAdvisor(remote Remote, opts ...Option) *Advisor {
	a := &Advisor{
		remote: remote,
		tables: DefaultTables(),
		now:    time.Now,
		log:    zap.L(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Tables returns the rule tables in use.
func (a *Advisor) Tables() *Tables { return a.tables }

// GetCropRecommendations never fails: a remote error is logged and answered with
// the rule-based result, tagged with source "fallback" and the error message.
func (a *Advisor) GetCropRecommendations(ctx context.Context, req Request) Outcome {
	now := a.now()

	a.log.Info("requesting crop recommendations",
		zap.Float64("latitude", req.Latitude),
		zap.Float64("longitude", req.Longitude),
		zap.String("soil_type", req.SoilType),
		zap.Float64("area", req.Area),
		zap.String("irrigation_frequency", req.IrrigationFrequency),
	)

	raw, err := a.callRemote(ctx, req, now)
	if err == nil {
		return Outcome{Success: true, Data: raw, Source: SourceAIModel}
	}

	a.log.Warn("model service unavailable, using rule tables", zap.Error(err))

	fb := a.tables.Fallback(req, now)
	data, mErr := json.Marshal(fb)
	if mErr != nil {
		// Result holds only strings, numbers and slices of them.
		a.log.Error("encode fallback result", zap.Error(mErr))
	}
	return Outcome{
		Success:  false,
		Data:     data,
		Source:   SourceFallback,
		Error:    err.Error(),
		fallback: fb,
	}
}

func (a *Advisor) callRemote(ctx context.Context, req Request, now time.Time) (json.RawMessage, error) {
	if a.remote == nil {
		return nil, ErrRemoteDisabled
	}
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "recommend: caller cancelled")
	}
	past := req.PastCrops
	if past == nil {
		past = []PastCrop{}
	}
	return a.remote.Recommend(ctx, RemoteRequest{
		Latitude:            req.Latitude,
		Longitude:           req.Longitude,
		SoilType:            req.SoilType,
		Area:                req.Area,
		IrrigationFrequency: req.IrrigationFrequency,
		PastCrops:           past,
		District:            req.District,
		Timestamp:           now.UTC().Format(time.RFC3339),
	})
}

// Fallback builds the rule-based result for req at the advisor's current time.
func (a *Advisor) Fallback(req Request) *Result {
	return a.tables.Fallback(req, a.now())
}

// TestConnection probes the model service health endpoint. It never fails.
func (a *Advisor) TestConnection(ctx context.Context) Health {
	if a.remote == nil {
		return Health{Success: false, Status: StatusDisconnected, Error: ErrRemoteDisabled.Error()}
	}
	raw, err := a.remote.Health(ctx)
	if err != nil {
		return Health{Success: false, Status: StatusDisconnected, Error: err.Error()}
	}
	return Health{Success: true, Status: StatusConnected, Response: raw}
}
