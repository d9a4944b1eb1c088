package service

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/benbjohnson/clock"

	"scrapersetup/internal/atomicfile"
)

// FailureReportName is the file written by WriteFailureReport.
const FailureReportName = "teardown-failures.log"

// FailedStep is one entry in the teardown failure report.
type FailedStep struct {
	Step string
	Err  error
}

// WriteFailureReport records failed teardown steps in logDir so manual
// cleanup can be done after the terminal session is gone. The file is
// replaced atomically on each call so only the most recent run is kept. It
// returns the report path.
func WriteFailureReport(logDir string, clk clock.Clock, failed []FailedStep) (string, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] TEARDOWN INCOMPLETE\n", clk.Now().Format("2006-01-02 15:04:05"))
	b.WriteString("The following steps failed and may require manual cleanup:\n")
	for _, f := range failed {
		fmt.Fprintf(&b, "  %s: %v\n", f.Step, f.Err)
	}

	path := filepath.Join(logDir, FailureReportName)
	if err := atomicfile.Write(path, []byte(b.String()), 0644); err != nil {
		return "", err
	}
	return path, nil
}
