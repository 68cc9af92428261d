package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/johnfenner/beecker-sub000/pkg/contracts/domain"
)

var (
	titleColor  = color.New(color.Bold, color.FgHiCyan)
	headerColor = color.New(color.Bold)
	groupColor  = color.New(color.FgHiMagenta)
	warnColor   = color.New(color.FgYellow)
	zeroColor   = color.New(color.FgHiBlack)
)

const stageRow = "%-24s %8s %10s %10s\n"

func printStages(w io.Writer, stages []domain.StageCount, rates, vsTotal []domain.Rate) {
	headerColor.Fprintf(w, stageRow, "STAGE", "COUNT", "VS PREV", "VS TOTAL")
	for i, sc := range stages {
		line := fmt.Sprintf(stageRow, truncate(sc.Name, 24), fmt.Sprint(sc.Count), percent(rates, i), percent(vsTotal, i))
		if sc.Count == 0 {
			zeroColor.Fprint(w, line)
			continue
		}
		fmt.Fprint(w, line)
	}
}

func printDataQuality(w io.Writer, q domain.DataQuality) {
	if q.Total() == 0 {
		return
	}
	fmt.Fprintln(w)
	warnColor.Fprintf(w, "%d cells could not be read:\n", q.Total())
	for _, line := range qualityLines("unrecognized flag", q.UnrecognizedFlags) {
		warnColor.Fprintln(w, line)
	}
	for _, line := range qualityLines("unparsed date", q.UnparsedDates) {
		warnColor.Fprintln(w, line)
	}
}

func qualityLines(kind string, counts map[string]int) []string {
	fields := make([]string, 0, len(counts))
	for f, n := range counts {
		if n > 0 {
			fields = append(fields, f)
		}
	}
	sort.Strings(fields)

	lines := make([]string, len(fields))
	for i, f := range fields {
		lines[i] = fmt.Sprintf("  %-20s %s x%d", f, kind, counts[f])
	}
	return lines
}

func percent(rates []domain.Rate, i int) string {
	if i >= len(rates) {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", rates[i].Percentage)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n-1])) + "…"
}
