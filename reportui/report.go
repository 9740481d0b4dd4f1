package reportui

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Outcome is one row of the per-run HTML report: the result of applying a
// single plan entry during a mirror run.
type Outcome struct {
	SourcePath string
	DestPath   string
	Status     string // "added", "modified", "removed", "matched", "error"
	Detail     string
	Size       int64
}

const reportCSS = `<style>
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; margin: 0; padding: 20px; color: #1a1a1a; }
.container { max-width: 1100px; margin: 0 auto; }
h1 { font-size: 1.75rem; margin-bottom: 1rem; }
.badges { display: flex; gap: 0.75rem; flex-wrap: wrap; margin-bottom: 1.5rem; }
.badge { padding: 0.5rem 0.75rem; border-radius: 6px; border: 1px solid #ddd; background: #f7f7f7; font-size: 0.85rem; }
table { width: 100%; border-collapse: collapse; }
th, td { text-align: left; padding: 0.5rem 0.75rem; border-bottom: 1px solid #eee; font-size: 0.85rem; }
th { background: #fafafa; }
.status-added { color: #1a7f37; }
.status-modified { color: #9a6700; }
.status-removed { color: #cf222e; }
.status-error { color: #cf222e; font-weight: 600; }
a { color: #0969da; text-decoration: none; }
a:hover { text-decoration: underline; }
</style>`

// WriteHTMLReport writes a summary-badges-plus-table report to path,
// adapted from the teacher's reporting.go layout with the mascot
// personality dropped in favor of a plain operational summary.
func WriteHTMLReport(path string, outcomes []Outcome, totalTime time.Duration) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	f.WriteString("<!DOCTYPE html><html><head><meta charset=\"UTF-8\"><title>duskvault report</title>")
	f.WriteString(reportCSS)
	f.WriteString("</head><body><div class=\"container\"><h1>Backup Report</h1>")

	writeBadges(f, outcomes, totalTime)
	writeTable(f, outcomes)

	f.WriteString("</div></body></html>")
	return nil
}

func writeBadges(f *os.File, outcomes []Outcome, totalTime time.Duration) {
	counts := map[string]int{}
	for _, o := range outcomes {
		counts[o.Status]++
	}
	fmt.Fprintf(f, `<div class="badges">
<span class="badge">Total: %d</span>
<span class="badge">Time: %s</span>
<span class="badge">Added: %d</span>
<span class="badge">Modified: %d</span>
<span class="badge">Removed: %d</span>
<span class="badge">Errors: %d</span>
</div>`, len(outcomes), totalTime.Round(time.Millisecond), counts["added"], counts["modified"], counts["removed"], counts["error"])
}

func writeTable(f *os.File, outcomes []Outcome) {
	f.WriteString(`<table><thead><tr><th>Source</th><th>Status</th><th>Destination</th><th>Size</th><th>Detail</th></tr></thead><tbody>`)
	for _, o := range outcomes {
		fmt.Fprintf(f, `<tr>
<td>%s</td>
<td class="status-%s">%s</td>
<td>%s</td>
<td>%s</td>
<td>%s</td>
</tr>`,
			fileLink(o.SourcePath), html.EscapeString(o.Status), strings.Title(o.Status),
			fileLink(o.DestPath), formatSize(o.Size), html.EscapeString(o.Detail))
	}
	f.WriteString("</tbody></table>")
}

func fileLink(path string) string {
	if path == "" {
		return "-"
	}
	escaped := html.EscapeString(path)
	return fmt.Sprintf(`<a href="file://%s">%s</a>`, escaped, html.EscapeString(filepath.Base(path)))
}

func formatSize(bytes int64) string {
	if bytes <= 0 {
		return "-"
	}
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
