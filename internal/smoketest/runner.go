package smoketest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultCommandTimeout = 30 * time.Second
	defaultHTTPTimeout    = 5 * time.Second
)

// Result is the outcome of a single check
type Result struct {
	Name string
	Err  error
}

// Passed reports whether the check succeeded
func (r Result) Passed() bool {
	return r.Err == nil
}

// Report summarizes a run
type Report struct {
	Results []Result
}

// PassedCount returns the number of successful checks
func (r Report) PassedCount() int {
	n := 0
	for _, res := range r.Results {
		if res.Passed() {
			n++
		}
	}
	return n
}

// AllPassed reports whether every check succeeded
func (r Report) AllPassed() bool {
	return r.PassedCount() == len(r.Results)
}

// Runner executes manifest checks and writes a human-readable report
type Runner struct {
	out        io.Writer
	httpClient *http.Client
	logger     *zap.Logger
}

// NewRunner creates a runner writing its report to out
func NewRunner(out io.Writer, logger *zap.Logger) *Runner {
	return &Runner{
		out:        out,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// Run executes every check in order; a failing check never stops the run
func (r *Runner) Run(ctx context.Context, manifest *Manifest) Report {
	fmt.Fprintln(r.out, "ZigStar CC2538 Flasher - Test Suite")
	fmt.Fprintln(r.out, strings.Repeat("=", 40))

	var report Report
	for _, check := range manifest.Checks {
		err := r.runCheck(ctx, check)
		report.Results = append(report.Results, Result{Name: check.Name, Err: err})

		if err != nil {
			fmt.Fprintf(r.out, "✗ %s: %v\n\n", check.Name, err)
			r.logger.Debug("Check failed",
				zap.String("check", check.Name),
				zap.String("kind", check.Kind),
				zap.Error(err))
		} else {
			fmt.Fprintf(r.out, "✓ %s\n\n", check.Name)
		}
	}

	fmt.Fprintf(r.out, "Test Results: %d/%d tests passed\n", report.PassedCount(), len(report.Results))
	if report.AllPassed() {
		fmt.Fprintln(r.out, "✓ All tests passed! The add-on is ready to use.")
	} else {
		fmt.Fprintln(r.out, "✗ Some tests failed. Please check the errors above.")
	}

	return report
}

func (r *Runner) runCheck(ctx context.Context, c Check) error {
	switch c.Kind {
	case KindExecutable:
		return checkExecutable(c.Path)
	case KindFile:
		if _, err := os.Stat(c.Path); err != nil {
			return fmt.Errorf("not found: %w", err)
		}
		return nil
	case KindLookPath:
		if _, err := exec.LookPath(c.Path); err != nil {
			return err
		}
		return nil
	case KindCommand:
		return checkCommand(ctx, c)
	case KindHTTP:
		return r.checkHTTP(ctx, c)
	default:
		return fmt.Errorf("unknown check kind %q", c.Kind)
	}
}

func checkExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("not found: %w", err)
	}
	if info.IsDir() {
		return errors.New("is a directory")
	}
	if info.Mode().Perm()&0111 == 0 {
		return errors.New("exists but is not executable")
	}
	return nil
}

func checkCommand(ctx context.Context, c Check) error {
	timeout := c.Timeout
	if timeout == 0 {
		timeout = defaultCommandTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Command[0], c.Command[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, firstLine(msg))
		}
		return err
	}

	if c.Expect != "" && !strings.Contains(stdout.String(), c.Expect) {
		return fmt.Errorf("output does not contain %q", c.Expect)
	}
	return nil
}

func (r *Runner) checkHTTP(ctx context.Context, c Check) error {
	timeout := c.Timeout
	if timeout == 0 {
		timeout = defaultHTTPTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return err
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
