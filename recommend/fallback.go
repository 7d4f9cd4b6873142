package recommend

import "time"

// Fallback builds a rule-based Result. It is a pure function of the request, the
// tables and now.
func (t *Tables) Fallback(req Request, now time.Time) *Result {
	return &Result{
		Crops:       Combine(t.SoilCrops(req.SoilType), t.SeasonalCrops(now)),
		Fertilizers: t.FertilizerAdvice(req.SoilType),
		Irrigation:  t.IrrigationAdvice(req.IrrigationFrequency),
		Confidence:  FallbackConfidence,
		Source:      SourceFallbackModel,
		Region:      t.Regions.Classify(req.Latitude, req.Longitude),
		SoilType:    req.SoilType,
	}
}
