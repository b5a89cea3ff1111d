package scoring

import "decihire/internal/model"

// Classify buckets a single response time
func Classify(elapsedMs int64, t LatencyThresholds) model.Pace {
	switch {
	case elapsedMs < t.TooFastMs:
		return model.PaceFast
	case elapsedMs > t.OptimalMaxMs:
		return model.PaceSlow
	case elapsedMs >= t.OptimalMinMs:
		return model.PaceOptimal
	default:
		return model.PaceSteady
	}
}

// ClassifySession labels the overall latency pattern.
// Impulsive wins over hesitant when both shares are met.
func ClassifySession(paces []model.Pace, t LatencyThresholds) model.Classification {
	if len(paces) == 0 {
		return model.ClassUndetermined
	}
	var fast, slow int
	for _, p := range paces {
		switch p {
		case model.PaceFast:
			fast++
		case model.PaceSlow:
			slow++
		}
	}
	n := float64(len(paces))
	if float64(fast)/n >= t.ImpulsiveShare {
		return model.ClassImpulsive
	}
	if float64(slow)/n >= t.HesitantShare {
		return model.ClassHesitant
	}
	return model.ClassDeliberate
}

func summarize(paces []model.Pace, totalElapsed int64) model.BehaviorSummary {
	s := model.BehaviorSummary{TotalTimeMs: totalElapsed}
	for _, p := range paces {
		switch p {
		case model.PaceFast:
			s.FastResponses++
		case model.PaceSteady:
			s.SteadyResponses++
		case model.PaceOptimal:
			s.OptimalResponses++
		case model.PaceSlow:
			s.SlowResponses++
		}
	}
	return s
}
