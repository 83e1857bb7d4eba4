package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/alexisbeaulieu97/volsource/internal/source"
	"github.com/alexisbeaulieu97/volsource/pkg/diff"
	"github.com/alexisbeaulieu97/volsource/internal/volume"
)

type skippedJSON struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

type loadReport struct {
	JobID      string           `json:"job_id,omitempty"`
	Status     string           `json:"status"`
	Forced     bool             `json:"forced,omitempty"`
	Sequences  int              `json:"sequences"`
	TimeSteps  int              `json:"time_steps"`
	Voxels     int              `json:"voxels"`
	Mean       float64          `json:"mean"`
	Sources    []string         `json:"sources"`
	Skipped    []skippedJSON    `json:"skipped,omitempty"`
	Touched    []string         `json:"touched,omitempty"`
	Metadata   *volume.Metadata `json:"metadata,omitempty"`
	DurationMS int64            `json:"duration_ms"`
	Error      string           `json:"error,omitempty"`
	Diff       string           `json:"diff,omitempty"`
}

// buildReport describes out together with what src currently publishes. With
// withDiff the report carries the derived-to-effective metadata diff.
func buildReport(src *source.Source, out source.Outcome, withDiff bool) (loadReport, error) {
	report := loadReport{
		JobID:      out.JobID,
		Status:     string(out.Status),
		Forced:     out.Forced,
		DurationMS: out.Duration.Milliseconds(),
		Touched:    src.Touched().Names(),
		Sources:    []string{},
	}
	if out.Err != nil {
		report.Error = out.Err.Error()
	}
	if out.Warning != nil {
		for _, item := range out.Warning.Skipped {
			report.Skipped = append(report.Skipped, skippedJSON{File: item.Path, Error: item.Err.Error()})
		}
	}

	if coll := src.Output(); coll != nil {
		st := coll.Stats()
		report.Sequences = st.Sequences
		report.TimeSteps = st.TimeSteps
		report.Voxels = st.Voxels
		report.Mean = st.Mean
		report.Sources = coll.Sources()
	}
	md, ok := src.Metadata()
	if ok {
		report.Metadata = &md
	}
	if withDiff && ok {
		if base, hasBase := src.Baseline(); hasBase {
			d, err := metadataDiff(base, md)
			if err != nil {
				return report, err
			}
			report.Diff = d
		}
	}
	return report, nil
}

// metadataDiff renders a unified diff between the YAML forms of two metadata values.
func metadataDiff(derived, effective volume.Metadata) (string, error) {
	before, err := yaml.Marshal(derived)
	if err != nil {
		return "", fmt.Errorf("encode derived metadata: %w", err)
	}
	after, err := yaml.Marshal(effective)
	if err != nil {
		return "", fmt.Errorf("encode effective metadata: %w", err)
	}
	return diff.Unified(string(before), string(after), "derived", "effective"), nil
}

func writeReportJSON(w io.Writer, report loadReport) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

func writeReportText(w io.Writer, report loadReport) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Status:     %s\n", report.Status)
	if report.JobID != "" {
		fmt.Fprintf(&b, "Job:        %s\n", report.JobID)
	}
	fmt.Fprintf(&b, "Sequences:  %d (%d time steps, %d voxels)\n", report.Sequences, report.TimeSteps, report.Voxels)
	if report.Voxels > 0 {
		fmt.Fprintf(&b, "Mean value: %g\n", report.Mean)
	}
	for _, src := range report.Sources {
		fmt.Fprintf(&b, "  - %s\n", src)
	}
	if len(report.Skipped) > 0 {
		fmt.Fprintf(&b, "Skipped:    %d\n", len(report.Skipped))
		for _, item := range report.Skipped {
			fmt.Fprintf(&b, "  ! %s: %s\n", item.File, item.Error)
		}
	}
	if len(report.Touched) > 0 {
		fmt.Fprintf(&b, "Overrides:  %s\n", strings.Join(report.Touched, ", "))
	}
	if report.Error != "" {
		fmt.Fprintf(&b, "Error:      %s\n", report.Error)
	}
	if report.Diff != "" {
		b.WriteString("Overrides diff:\n")
		b.WriteString(report.Diff)
	}
	if report.Metadata != nil {
		data, err := yaml.Marshal(report.Metadata)
		if err != nil {
			return fmt.Errorf("encode metadata: %w", err)
		}
		b.WriteString("Metadata:\n")
		for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
			b.WriteString("  " + line + "\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
