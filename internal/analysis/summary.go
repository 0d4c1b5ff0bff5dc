// Package analysis summarizes a scored batch into a compact, Markdown-renderable
// fleet report.
package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/fleetrisk-cli/internal/machine"
	"github.com/KaramelBytes/fleetrisk-cli/internal/risk"
)

// Options controls report contents.
type Options struct {
	// TopN limits the riskiest-machines table.
	TopN int
	// Outliers counts robust Z-score (MAD) outliers per sensor axis.
	Outliers         bool
	OutlierThreshold float64
}

// DefaultOptions returns reasonable defaults for fleet reports.
func DefaultOptions() Options {
	return Options{TopN: 10, Outliers: true, OutlierThreshold: 3.5}
}

// Report is a markdown-friendly summary of one scored batch.
type Report struct {
	Name     string
	Rows     int
	Levels   []LevelCount
	Axes     []AxisSummary
	Riskiest []machine.Scored
	Warnings []string
}

// LevelCount is the number of machines at one risk level.
type LevelCount struct {
	Level   machine.RiskLevel
	Count   int
	Percent float64
}

// AxisSummary captures statistics for one sensor reading.
type AxisSummary struct {
	Name string
	Unit string
	Min  float64
	Max  float64
	Mean float64
	Std  float64
	// Above counts readings past the axis's highest risk threshold.
	Above     int
	Threshold float64
	// Outliers (robust Z via MAD)
	OutliersCount    int
	OutliersMaxAbsZ  float64
	OutlierThreshold float64
}

type axisSpec struct {
	name      string
	unit      string
	threshold float64
	get       func(machine.Record) float64
}

var axes = []axisSpec{
	{"temp", "°C", risk.TempHigh, func(r machine.Record) float64 { return r.Temperature }},
	{"vibration", "mm/s", risk.VibrationHigh, func(r machine.Record) float64 { return r.Vibration }},
	{"runtime", "h", risk.RuntimeHigh, func(r machine.Record) float64 { return r.RuntimeHours }},
}

// Summarize builds a Report over recs.
func Summarize(name string, recs []machine.Scored, opt Options) *Report {
	rep := &Report{Name: name, Rows: len(recs)}
	counts := machine.CountByLevel(recs)
	for i := len(machine.Levels) - 1; i >= 0; i-- {
		l := machine.Levels[i]
		lc := LevelCount{Level: l, Count: counts[l]}
		if len(recs) > 0 {
			lc.Percent = float64(lc.Count) * 100.0 / float64(len(recs))
		}
		rep.Levels = append(rep.Levels, lc)
	}
	if len(recs) == 0 {
		rep.Warnings = append(rep.Warnings, "no machines in batch")
		return rep
	}

	for _, ax := range axes {
		s := AxisSummary{Name: ax.name, Unit: ax.unit, Threshold: ax.threshold, Min: math.Inf(1), Max: math.Inf(-1)}
		// Welford
		var n int
		var mean, m2 float64
		vals := make([]float64, 0, len(recs))
		for _, r := range recs {
			x := ax.get(r.Record)
			vals = append(vals, x)
			n++
			if x < s.Min {
				s.Min = x
			}
			if x > s.Max {
				s.Max = x
			}
			delta := x - mean
			mean += delta / float64(n)
			m2 += delta * (x - mean)
			if x > ax.threshold {
				s.Above++
			}
		}
		s.Mean = mean
		if n > 1 {
			s.Std = math.Sqrt(m2 / float64(n-1))
		}
		if opt.Outliers && len(vals) >= 8 {
			thr := opt.OutlierThreshold
			if thr <= 0 {
				thr = 3.5
			}
			median, mad := medianMAD(vals)
			if mad > 0 {
				for _, v := range vals {
					az := math.Abs(0.6745 * (v - median) / mad)
					if az > thr {
						s.OutliersCount++
					}
					if az > s.OutliersMaxAbsZ {
						s.OutliersMaxAbsZ = az
					}
				}
			}
			s.OutlierThreshold = thr
		}
		rep.Axes = append(rep.Axes, s)
	}

	top := opt.TopN
	if top <= 0 {
		top = 10
	}
	ranked := make([]machine.Scored, len(recs))
	copy(ranked, recs)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].TotalRisk != ranked[j].TotalRisk {
			return ranked[i].TotalRisk > ranked[j].TotalRisk
		}
		return ranked[i].RiskScore > ranked[j].RiskScore
	})
	if len(ranked) > top {
		ranked = ranked[:top]
	}
	// healthy machines are not interesting in a riskiest list
	for len(ranked) > 0 && ranked[len(ranked)-1].RiskLevel == machine.Healthy {
		ranked = ranked[:len(ranked)-1]
	}
	rep.Riskiest = ranked

	seen := make(map[string]int, len(recs))
	for _, r := range recs {
		seen[r.MachineID]++
	}
	var dups []string
	for id, c := range seen {
		if c > 1 {
			dups = append(dups, fmt.Sprintf("%s(%d)", id, c))
		}
	}
	if len(dups) > 0 {
		sort.Strings(dups)
		if len(dups) > 8 {
			dups = append(dups[:8], "...")
		}
		rep.Warnings = append(rep.Warnings, "duplicate machine ids: "+strings.Join(dups, ", "))
	}
	return rep
}

// Markdown renders a compact report suitable for terminals or standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[FLEET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("Fleet: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Machines: %d\n\n", r.Rows))

	b.WriteString("[RISK LEVELS]\n")
	for _, l := range r.Levels {
		b.WriteString(fmt.Sprintf("- %s: %d (%.1f%%)\n", l.Level, l.Count, l.Percent))
	}

	if len(r.Axes) > 0 {
		b.WriteString("\n[SENSORS]\n")
		for _, a := range r.Axes {
			b.WriteString(fmt.Sprintf("- %s [%s]: min %.4g, max %.4g, mean %.4g, std %.4g; above %g: %d",
				a.Name, a.Unit, a.Min, a.Max, a.Mean, a.Std, a.Threshold, a.Above))
			if a.OutlierThreshold > 0 {
				b.WriteString(fmt.Sprintf("; outliers: %d above |z|>%.1f", a.OutliersCount, a.OutlierThreshold))
				if a.OutliersMaxAbsZ > 0 {
					b.WriteString(fmt.Sprintf(" (max |z|≈%.2f)", a.OutliersMaxAbsZ))
				}
			}
			b.WriteString("\n")
		}
	}

	if len(r.Riskiest) > 0 {
		b.WriteString("\n[RISKIEST MACHINES]\n")
		b.WriteString("| machine_id | temp | vibration | runtime | risk_level | risk_score |\n")
		b.WriteString("| --- | --- | --- | --- | --- | --- |\n")
		for _, m := range r.Riskiest {
			b.WriteString(fmt.Sprintf("| %s | %g | %g | %g | %s | %.3f |\n",
				safeVal(m.MachineID), m.Temperature, m.Vibration, m.RuntimeHours, m.RiskLevel, m.RiskScore))
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }

// medianMAD computes median and MAD (median absolute deviation) of values.
func medianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	median = quantile(cp, 0.5)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		d := v - median
		if d < 0 {
			d = -d
		}
		dev[i] = d
	}
	sort.Float64s(dev)
	mad = quantile(dev, 0.5)
	return
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
