package equipment

import (
	"sort"

	"github.com/dmitrijs2005/equipview/internal/common"
)

// Averages holds arithmetic means over complete rows. All three are nil when
// there are no complete rows.
type Averages struct {
	Flowrate    *float64 `json:"flowrate"`
	Pressure    *float64 `json:"pressure"`
	Temperature *float64 `json:"temperature"`
}

// Summary is the aggregate computed once per upload and persisted with it.
type Summary struct {
	TotalCount       int            `json:"total_count"`
	RowCount         int            `json:"row_count"`
	IncompleteCount  int            `json:"incomplete_count"`
	Averages         Averages       `json:"averages"`
	TypeDistribution map[string]int `json:"type_distribution"`
}

// RowWarning describes one incomplete row.
type RowWarning struct {
	Position int      `json:"position"`
	Missing  []string `json:"missing"`
}

// TypeLabel returns the distribution key for a type value.
func TypeLabel(t *string) string {
	if t == nil || IsAbsent(*t) {
		return common.UnknownType
	}
	return *t
}

// Summarize aggregates the complete subset of rows. It never fails.
func Summarize(rows []Row) Summary {
	s := Summary{
		RowCount:         len(rows),
		TypeDistribution: map[string]int{},
	}

	var flow, pres, temp runningMean
	for _, r := range rows {
		if !r.Complete() {
			continue
		}
		s.TotalCount++
		flow.add(*r.Flowrate)
		pres.add(*r.Pressure)
		temp.add(*r.Temperature)
		s.TypeDistribution[TypeLabel(r.Type)]++
	}
	s.IncompleteCount = s.RowCount - s.TotalCount

	if s.TotalCount > 0 {
		s.Averages = Averages{
			Flowrate:    ptr(flow.mean),
			Pressure:    ptr(pres.mean),
			Temperature: ptr(temp.mean),
		}
	}
	return s
}

// runningMean keeps the mean of finite values finite: both terms of the
// update are divided by n before they are subtracted, so no intermediate
// exceeds the largest input in magnitude.
type runningMean struct {
	mean float64
	n    int
}

func (m *runningMean) add(x float64) {
	m.n++
	k := float64(m.n)
	m.mean += x/k - m.mean/k
}

// Warnings lists the incomplete rows with their absent fields.
func Warnings(rows []Row) []RowWarning {
	out := []RowWarning{}
	for _, r := range rows {
		if m := r.MissingFields(); len(m) > 0 {
			out = append(out, RowWarning{Position: r.Position, Missing: m})
		}
	}
	return out
}

// DistributionEntry is one label/count pair.
type DistributionEntry struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// SortedDistribution returns the distribution ordered by label.
func (s Summary) SortedDistribution() []DistributionEntry {
	out := make([]DistributionEntry, 0, len(s.TypeDistribution))
	for k, v := range s.TypeDistribution {
		out = append(out, DistributionEntry{Label: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// DistributionTotal sums the distribution counts.
func (s Summary) DistributionTotal() int {
	total := 0
	for _, v := range s.TypeDistribution {
		total += v
	}
	return total
}

func ptr(f float64) *float64 { return &f }
