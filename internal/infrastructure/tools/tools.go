// Package tools wraps the external sequence-comparison programs (BLAST,
// MMseqs2, skani) used to transfer annotations between genomes. Each wrapper
// writes its inputs to a work directory, shells out, and parses the tabular
// output.
package tools

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/modelseed/kbutil/internal/infrastructure/logging"
	"github.com/modelseed/kbutil/pkg/errors"
)

// runner executes one external program per call.
type runner struct {
	workDir string
	log     logging.Logger
}

func newRunner(workDir string, log logging.Logger) (*runner, error) {
	if workDir == "" {
		workDir = os.TempDir()
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeToolFailed, "creating work directory")
	}
	return &runner{workDir: workDir, log: log}, nil
}

func (r *runner) run(ctx context.Context, bin string, args ...string) error {
	if _, err := exec.LookPath(bin); err != nil {
		return errors.Wrapf(err, errors.ErrCodeToolNotFound, "%s not found", bin)
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	r.log.Debug("tool finished",
		logging.String("bin", bin),
		logging.Duration("took", time.Since(start)))
	if err != nil {
		if ctx.Err() != nil {
			return errors.Wrapf(ctx.Err(), errors.ErrCodeToolFailed, "%s interrupted", bin)
		}
		return errors.Wrapf(err, errors.ErrCodeToolFailed, "%s failed: %s", bin, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// WriteFASTA writes sequences to path in deterministic (sorted) order.
func WriteFASTA(path string, seqs map[string]string) error {
	ids := make([]string, 0, len(seqs))
	for id := range seqs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var sb strings.Builder
	for _, id := range ids {
		fmt.Fprintf(&sb, ">%s\n%s\n", id, seqs[id])
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return errors.Wrap(err, errors.ErrCodeToolFailed, "writing fasta")
	}
	return nil
}

// ReadFASTA loads a FASTA file into an ID-to-sequence map. Only the first
// whitespace-delimited token of each header is kept as the ID.
func ReadFASTA(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeToolFailed, "reading fasta")
	}
	seqs := make(map[string]string)
	var id string
	var seq strings.Builder
	flush := func() {
		if id != "" {
			seqs[id] = seq.String()
		}
		seq.Reset()
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
		case strings.HasPrefix(line, ">"):
			flush()
			id = ""
			if fields := strings.Fields(line[1:]); len(fields) > 0 {
				id = fields[0]
			}
		default:
			seq.WriteString(line)
		}
	}
	flush()
	return seqs, nil
}

func (r *runner) tempPath(parts ...string) string {
	return filepath.Join(append([]string{r.workDir}, parts...)...)
}
