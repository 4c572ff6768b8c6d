// Package report renders search results as the planner's statistics and
// action-trace files.
package report

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/signalsfoundry/constellation-planner/internal/search"
	"github.com/signalsfoundry/constellation-planner/internal/sim/state"
)

const (
	StatisticsExt = ".statistics"
	TraceExt      = ".output"
)

// Statistics summarises one solved search.
type Statistics struct {
	Elapsed    time.Duration
	Cost       float64
	Steps      int
	Expansions int
}

// StatisticsFrom extracts statistics from a search result. Cost and Steps
// stay zero when the result has no goal.
func StatisticsFrom(res search.Result) Statistics {
	stats := Statistics{
		Elapsed:    res.Elapsed,
		Expansions: res.Expansions,
	}
	if res.Goal != nil {
		stats.Cost = res.Goal.G
		stats.Steps = res.Goal.Steps()
	}
	return stats
}

// FormatCost prints integral costs without a fractional part.
func FormatCost(cost float64) string {
	return strconv.FormatFloat(cost, 'f', -1, 64)
}

// WriteStatistics writes the four-line statistics block.
func WriteStatistics(w io.Writer, s Statistics) error {
	_, err := fmt.Fprintf(w, "Overall time: %.2f\nOverall cost: %s\n# Steps: %d\n# Expansions: %d\n",
		s.Elapsed.Seconds(), FormatCost(s.Cost), s.Steps, s.Expansions)
	return err
}

// StepLines renders one numbered line per time step, e.g.
// "1. SAT1: Measure O1, SAT2: IDLE".
func StepLines(actions []state.Action, numSatellites int) []string {
	groups := search.GroupSteps(actions, numSatellites)
	lines := make([]string, 0, len(groups))
	for i, group := range groups {
		parts := make([]string, len(group))
		for j, a := range group {
			parts[j] = a.String()
		}
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, strings.Join(parts, ", ")))
	}
	return lines
}

// WriteTrace writes step lines (see StepLines) to w, newline-terminated.
func WriteTrace(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// Paths returns where the statistics and trace of problemPath are written.
// An empty outDir keeps them next to the problem file.
func Paths(problemPath, outDir string) (statsPath, tracePath string) {
	base := problemPath
	if outDir != "" {
		base = filepath.Join(outDir, filepath.Base(problemPath))
	}
	return base + StatisticsExt, base + TraceExt
}

// WriteFiles writes the statistics and trace files for problemPath and
// returns their paths.
func WriteFiles(problemPath, outDir string, stats Statistics, lines []string) (statsPath, tracePath string, err error) {
	statsPath, tracePath = Paths(problemPath, outDir)
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return "", "", fmt.Errorf("create output dir: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := WriteStatistics(&buf, stats); err != nil {
		return "", "", err
	}
	if err := os.WriteFile(statsPath, buf.Bytes(), 0o644); err != nil {
		return "", "", fmt.Errorf("write statistics: %w", err)
	}

	buf.Reset()
	if err := WriteTrace(&buf, lines); err != nil {
		return "", "", err
	}
	if err := os.WriteFile(tracePath, buf.Bytes(), 0o644); err != nil {
		return "", "", fmt.Errorf("write trace: %w", err)
	}
	return statsPath, tracePath, nil
}
