package router

import "time"

// ProviderHealth tracks the rolling success/latency stats that Reorder
// uses to rank an otherwise rule-ordered provider chain.
type ProviderHealth struct {
	Name string
	SuccessRate float64 // 0..1 over a rolling window
	AvgResponseTime time.Duration
	CircuitState string // "closed" | "open" | "half_open"
}

// Score combines circuit state, success rate, and response time into a
// single ranking number: higher is better, circuit state dominates, then
// success rate, then response time.
func (h ProviderHealth) Score() float64 {
	score := 0.0
	if h.CircuitState == "closed" {
 score += 100.0
	}
	score += h.SuccessRate * 50.0

	if h.AvgResponseTime > 0 {
 ms := float64(h.AvgResponseTime.Milliseconds())
 switch {
 case ms < 100:
 score += 25.0
 case ms < 1000:
 score += 25.0 * (1000.0 - ms) / 900.0
 }
	}

	switch h.CircuitState {
	case "open":
 score -= 50.0
	case "half_open":
 score -= 10.0
	}
	return score
}

// Reorder sorts chain's providers by descending health score, as an
// optional refinement applied after Chain produces the rule-based order:
// the static chain decides WHICH providers are eligible, Reorder decides
// which of those to try FIRST this instant. health entries absent from the
// map are treated as a neutral, never-tried provider (no penalty, no
// bonus) so a provider new to the registry is not starved.
func Reorder(chain []string, health map[string]ProviderHealth) []string {
	type scored struct {
 name string
 score float64
	}
	items := make([]scored, len(chain))
	for i, name := range chain {
 h, ok := health[name]
 if !ok {
 items[i] = scored{name: name, score: 50.0}
 continue
 }
 items[i] = scored{name: name, score: h.Score()}
	}

	// Stable insertion sort descending by score, preserving the static
	// chain's relative order among equal scores.
	for i := 1; i < len(items); i++ {
 j := i
 for j > 0 && items[j-1].score < items[j].score {
 items[j-1], items[j] = items[j], items[j-1]
 j--
 }
	}

	out := make([]string, len(items))
	for i, it := range items {
 out[i] = it.name
	}
	return out
}
