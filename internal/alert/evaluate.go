package alert

import "github.com/hamed0406/healthwatch/internal/domain"

// Evaluate compares each sample against the active threshold set and
// reports which metrics are breaching. A sample exactly at the limit
// counts as breaching. Kinds with no configured threshold are skipped
// entirely rather than defaulting to some limit; they can never breach.
func Evaluate(samples []domain.MetricSample, thresholds domain.Thresholds) []domain.BreachResult {
	out := make([]domain.BreachResult, 0, len(samples))
	for _, s := range samples {
		limit, ok := thresholds[s.Kind]
		if !ok {
			continue
		}
		out = append(out, domain.BreachResult{
			Kind:      s.Kind,
			Value:     s.Value,
			Limit:     limit,
			Breaching: s.Value >= limit,
		})
	}
	return out
}
