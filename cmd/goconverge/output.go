package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/sartorproj/goconverge/convergence"
	"github.com/sartorproj/goconverge/timeseries"
)

type jsonReport struct {
	Series           []jsonSeries       `json:"series"`
	Passed           int                `json:"passed"`
	RobustFirstFrame *float64           `json:"robust_first_frame,omitempty"`
	RobustCutoff     float64            `json:"robust_first_frame_cutoff"`
	AverageProfile   []jsonProfilePoint `json:"average_profile"`
}

type jsonSeries struct {
	ID                      string             `json:"id"`
	Length                  int                `json:"length"`
	CutIndex                int                `json:"cut_index"`
	RetainedFraction        float64            `json:"retained_fraction"`
	EffectiveSamples        float64            `json:"effective_samples"`
	StatisticalInefficiency float64            `json:"statistical_inefficiency"`
	Passed                  bool               `json:"passed"`
	Reason                  convergence.Reason `json:"reason"`
	MaxBlockSize            int                `json:"max_block_size"`
	DecorrelationLag        *int               `json:"decorrelation_lag,omitempty"`
	Profile                 []jsonProfilePoint `json:"profile"`
}

type jsonProfilePoint struct {
	BlockSize int     `json:"block_size"`
	StdErr    float64 `json:"std_err"`
}

func toJSONProfile(p convergence.Profile) []jsonProfilePoint {
	out := make([]jsonProfilePoint, len(p))
	for i, pt := range p {
		out[i] = jsonProfilePoint{BlockSize: pt.BlockSize, StdErr: pt.StdErr}
	}
	return out
}

func writeJSON(w io.Writer, report *convergence.Report, cutoff float64) error {
	out := jsonReport{
		Series:         make([]jsonSeries, 0, report.Len()),
		Passed:         report.PassedCount(),
		RobustCutoff:   cutoff,
		AverageProfile: toJSONProfile(report.AverageProfile()),
	}
	if first, err := report.RobustFirstFrame(cutoff); err == nil {
		out.RobustFirstFrame = &first
	}

	for _, res := range report.Results() {
		s := jsonSeries{
			ID:                      res.ID,
			Length:                  res.Length,
			CutIndex:                res.Verdict.CutIndex,
			RetainedFraction:        res.Verdict.RetainedFraction,
			EffectiveSamples:        res.Verdict.EffectiveSamples,
			StatisticalInefficiency: res.Verdict.StatisticalInefficiency,
			Passed:                  res.Verdict.Passed,
			Reason:                  res.Verdict.Reason,
			MaxBlockSize:            res.Decorrelation.MaxBlockSize,
			Profile:                 toJSONProfile(res.Decorrelation.Profile),
		}
		if res.Decorrelation.Found {
			lag := res.Decorrelation.Lag
			s.DecorrelationLag = &lag
		}
		out.Series = append(out.Series, s)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func writeTable(w io.Writer, report *convergence.Report, cutoff float64) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tN\tCUT\tRETAINED\tNEFF\tG\tVERDICT\tDECORR LAG\tMAX BLOCK\tSE")

	for _, res := range report.Results() {
		v := res.Verdict
		verdict := "ok"
		if !v.Passed {
			verdict = v.Reason.String()
		}
		lag := "-"
		if res.Decorrelation.Found {
			lag = fmt.Sprintf("%d", res.Decorrelation.Lag)
		}
		se := "-"
		if last, ok := res.Decorrelation.Profile.Last(); ok {
			se = fmt.Sprintf("%.4g", last.StdErr)
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.1f%%\t%.1f\t%.2f\t%s\t%s\t%d\t%s\n",
			res.ID, res.Length, v.CutIndex, 100*v.RetainedFraction,
			v.EffectiveSamples, v.StatisticalInefficiency, verdict,
			lag, res.Decorrelation.MaxBlockSize, se)
	}
	tw.Flush()

	fmt.Fprintf(w, "\n%d of %d series passed\n", report.PassedCount(), report.Len())
	if first, err := report.RobustFirstFrame(cutoff); err == nil {
		fmt.Fprintf(w, "Robust first frame: %.1f (series retaining more than %.0f%%)\n", first, 100*cutoff)
	} else {
		fmt.Fprintf(w, "Robust first frame: none (no series retains more than %.0f%%)\n", 100*cutoff)
	}
}

func writeProfile(w io.Writer, s *timeseries.Series, profile convergence.Profile) {
	name := s.Name
	if name == "" {
		name = "series"
	}
	fmt.Fprintf(w, "%s: N=%d mean=%.6g std=%.6g min=%.6g max=%.6g\n\n",
		name, s.Len(), s.Mean(), s.Std(), s.Min(), s.Max())

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "BLOCK\tSE")
	for _, pt := range profile {
		fmt.Fprintf(tw, "%d\t%.6g\n", pt.BlockSize, pt.StdErr)
	}
	tw.Flush()
}
