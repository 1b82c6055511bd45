package lattice

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"abstractor/internal/fca"

	"github.com/cockroachdb/errors"
)

// ErrLatticeComputation marks every failure of the external lattice
// run: missing tool, non-zero exit, timeout, or unreadable output.
var ErrLatticeComputation = errors.New("lattice computation failed")

const defaultTimeout = 5 * time.Minute

// Runner shells out to the FCA tool jar to compute the concept lattice
// of an exported formal context.
type Runner struct {
	JavaPath string
	ToolPath string
	Timeout  time.Duration
}

func NewRunner(toolPath string, timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Runner{
		JavaPath: "java",
		ToolPath: toolPath,
		Timeout:  timeout,
	}
}

// Compute exports the context to a CSV file under workDir, runs the
// tool against it, and returns the validated concept list. The run is
// bounded by the runner's timeout.
func (r *Runner) Compute(ctx context.Context, fctx *fca.Context, workDir string) ([]fca.RawConcept, error) {
	contextPath := filepath.Join(workDir, "context.csv")
	resultPath := filepath.Join(workDir, "lattice.json")

	if err := fctx.WriteFile(contextPath); err != nil {
		return nil, errors.Wrap(err, "export formal context")
	}

	runCtx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, r.JavaPath,
		"-jar", r.ToolPath,
		"lattice", contextPath, resultPath,
		"-i", "CSV",
		"-o", "JSON",
		"-s", "COMMA",
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return nil, errors.Mark(
				errors.Newf("lattice tool exceeded %s", r.Timeout),
				ErrLatticeComputation,
			)
		}
		return nil, errors.Mark(
			errors.Wrapf(err, "lattice tool: %s", strings.TrimSpace(stderr.String())),
			ErrLatticeComputation,
		)
	}

	data, err := os.ReadFile(resultPath)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "read lattice result"), ErrLatticeComputation)
	}
	concepts, err := DecodeResult(data)
	if err != nil {
		return nil, errors.Mark(err, ErrLatticeComputation)
	}
	return concepts, nil
}
