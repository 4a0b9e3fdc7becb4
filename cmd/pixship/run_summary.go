package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"pixship/internal/config"
	"pixship/internal/pipeline"
)

func renderRunSummary(cfg *config.Config, report *pipeline.Report) string {
	var b strings.Builder
	if report.Outcome == pipeline.OutcomeNoImages {
		fmt.Fprintf(&b, "No images found in %s\n", cfg.Paths.InputDir)
		return b.String()
	}

	headers := []string{"File", "Name", "Before", "After", "Saved", "Status"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft}
	rows := make([][]string, 0, len(report.Files))
	var before, after int64
	for _, f := range report.Files {
		row := []string{fileLabel(f.Source), f.Name, sizeLabel(f.BytesBefore), "", "", string(f.Status)}
		if f.Status == pipeline.FileConverted {
			before += f.BytesBefore
			after += f.BytesAfter
			row[3] = sizeLabel(f.BytesAfter)
			row[4] = fmt.Sprintf("%.1f%%", f.Savings())
		} else if f.Err != nil {
			row[5] = "failed: " + f.Err.Error()
		}
		rows = append(rows, row)
	}
	footer := []string{
		fmt.Sprintf("%d converted, %d failed", report.Converted, report.Failed),
		"",
		sizeLabel(before),
		sizeLabel(after),
		savingsLabel(before, after),
		"",
	}
	b.WriteString(renderTable(headers, rows, aligns, footer))
	b.WriteString("\n")

	fmt.Fprintf(&b, "Outcome: %s\n", report.Outcome)
	for _, w := range report.Warnings {
		fmt.Fprintf(&b, "Warning: %s\n", w)
	}
	return b.String()
}

func fileLabel(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

func sizeLabel(n int64) string {
	if n <= 0 {
		return "-"
	}
	return humanize.Bytes(uint64(n))
}

func savingsLabel(before, after int64) string {
	if before <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", float64(before-after)/float64(before)*100)
}
