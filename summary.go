package main

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/AsaiYusuke/jsonpath"
)

// findingLevelsPath extracts the level of each finding from endorctl's JSON
// results.
const findingLevelsPath = "$[*].spec.level"

// findingLevels lists the known levels in severity order, for stable summary
// output.
var findingLevels = []string{
	"FINDING_LEVEL_CRITICAL",
	"FINDING_LEVEL_HIGH",
	"FINDING_LEVEL_MEDIUM",
	"FINDING_LEVEL_LOW",
}

// summarizeFindings counts scan findings by level. Results that contain no
// findings yield an empty count map.
func summarizeFindings(results []byte) (map[string]int, error) {
	counts := make(map[string]int)
	if len(results) == 0 {
		return counts, nil
	}

	var src any
	if err := json.Unmarshal(results, &src); err != nil {
		return nil, fmt.Errorf("unmarshal scan results: %w", err)
	}

	findings, ok := src.([]any)
	if !ok {
		return nil, fmt.Errorf("unexpected scan results shape: want a list of findings")
	}
	if len(findings) == 0 {
		return counts, nil
	}

	values, err := jsonpath.Retrieve(findingLevelsPath, src)
	if err != nil {
		return nil, fmt.Errorf("retrieve finding levels: %w", err)
	}

	for _, value := range values {
		level, ok := value.(string)
		if !ok || level == "" {
			continue
		}
		counts[level]++
	}

	return counts, nil
}

// renderSummary formats the finding counts as a small markdown table.
func renderSummary(counts map[string]int) string {
	var sb strings.Builder
	sb.WriteString("### Endor Labs scan results\n\n")
	sb.WriteString("| Level | Findings |\n")
	sb.WriteString("| --- | ---: |\n")

	var total int
	for _, level := range findingLevels {
		n := counts[level]
		total += n
		label := strings.ToLower(strings.TrimPrefix(level, "FINDING_LEVEL_"))
		fmt.Fprintf(&sb, "| %s | %d |\n", label, n)
	}
	for level, n := range counts {
		if !slices.Contains(findingLevels, level) {
			total += n
		}
	}
	fmt.Fprintf(&sb, "| **total** | **%d** |\n", total)

	return sb.String()
}

// writeStepSummary appends the markdown to the runner's step summary file,
// if the environment provides one.
func writeStepSummary(markdown string) error {
	path := os.Getenv("GITHUB_STEP_SUMMARY")
	if path == "" {
		return nil
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		_ = file.Close()
	}()

	_, err = fmt.Fprintln(file, markdown)
	return err
}
