package reportui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWriteHTMLReportProducesValidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.html")
	outcomes := []Outcome{
		{SourcePath: "/a/x.txt", DestPath: "/b/x.txt", Status: "added", Size: 10},
		{SourcePath: "/a/y.txt", Status: "error", Detail: "permission denied"},
	}
	if err := WriteHTMLReport(path, outcomes, 2*time.Second); err != nil {
		t.Fatalf("WriteHTMLReport: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	html := string(data)
	if !strings.Contains(html, "x.txt") {
		t.Fatal("expected report to mention x.txt")
	}
	if !strings.Contains(html, "permission denied") {
		t.Fatal("expected report to mention error detail")
	}
}
