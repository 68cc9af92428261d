package funnel

import "math"

// DefaultRoundTo is the number of decimals kept in percentages.
const DefaultRoundTo = 1

// CalculateRate returns numerator/denominator as a percentage rounded to
// roundTo decimals. A zero denominator yields 0.0, never NaN or Inf.
func CalculateRate(numerator, denominator, roundTo int) float64 {
	if denominator == 0 {
		return 0.0
	}
	return roundHalfAway(float64(numerator)/float64(denominator)*100, roundTo)
}

func roundHalfAway(v float64, places int) float64 {
	if places < 0 {
		places = 0
	}
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

// Rates computes conversion against the immediately preceding stage. The
// first entry is always 100.0 and carries the first stage's name.
func Rates(counts []StageCount) []Rate {
	if len(counts) == 0 {
		return []Rate{}
	}
	out := make([]Rate, len(counts))
	out[0] = Rate{Transition: counts[0].Name, Percentage: 100.0}
	for i := 1; i < len(counts); i++ {
		out[i] = Rate{
			Transition: transition(counts[i-1].Name, counts[i].Name),
			Percentage: CalculateRate(counts[i].Count, counts[i-1].Count, DefaultRoundTo),
		}
	}
	return out
}

// RatesVsTotal computes conversion against the first stage. It is a separate
// series from Rates and is only produced when asked for.
func RatesVsTotal(counts []StageCount) []Rate {
	if len(counts) == 0 {
		return []Rate{}
	}
	out := make([]Rate, len(counts))
	out[0] = Rate{Transition: counts[0].Name, Percentage: 100.0}
	for i := 1; i < len(counts); i++ {
		out[i] = Rate{
			Transition: transition(counts[0].Name, counts[i].Name),
			Percentage: CalculateRate(counts[i].Count, counts[0].Count, DefaultRoundTo),
		}
	}
	return out
}

func transition(from, to string) string {
	return from + " → " + to
}
