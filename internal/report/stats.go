package report

import (
	"context"
	"math"
	"sort"

	"timestudy/models"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// Summary returns per-operation statistics for the report query
func (a *Aggregator) Summary(ctx context.Context, who models.Identity, q Query) ([]models.OperationSummary, error) {
	records, err := a.Records(ctx, who, q)
	if err != nil {
		return nil, err
	}
	return Summarize(records), nil
}

// Summarize groups closed timings with a total by operation, ordered by process name
// and then by first appearance in records.
func Summarize(records []models.TimingRecord) []models.OperationSummary {
	type group struct {
		summary models.OperationSummary
		samples []float64
	}

	var order []uuid.UUID
	groups := make(map[uuid.UUID]*group)
	for _, r := range records {
		if r.EndTime == nil || r.TotalTimeSeconds == nil {
			continue
		}
		g, ok := groups[r.OperationID]
		if !ok {
			g = &group{summary: models.OperationSummary{
				ProcessName:          r.ProcessName,
				OperationID:          r.OperationCode,
				OperationDescription: r.OperationDescription,
				StandardTimeSeconds:  r.StandardTimeSeconds,
			}}
			groups[r.OperationID] = g
			order = append(order, r.OperationID)
		}
		g.samples = append(g.samples, *r.TotalTimeSeconds)
	}

	result := make([]models.OperationSummary, 0, len(order))
	for _, id := range order {
		g := groups[id]
		s := g.summary
		s.Count = len(g.samples)
		s.MeanSeconds, s.StdDevSeconds = stat.MeanStdDev(g.samples, nil)
		if math.IsNaN(s.StdDevSeconds) {
			s.StdDevSeconds = 0
		}
		s.MedianSeconds, _ = stats.Median(g.samples)
		s.P90Seconds = percentile(g.samples, 90)
		result = append(result, s)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].ProcessName < result[j].ProcessName
	})
	return result
}

// percentile uses nearest-rank on the samples; a single sample is its own percentile
func percentile(samples []float64, p float64) float64 {
	v, err := stats.PercentileNearestRank(samples, p)
	if err != nil {
		return 0
	}
	return v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
