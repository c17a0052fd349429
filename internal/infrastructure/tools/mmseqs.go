package tools

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/modelseed/kbutil/internal/config"
	"github.com/modelseed/kbutil/internal/infrastructure/logging"
	"github.com/modelseed/kbutil/pkg/errors"
)

// MMseqs wraps mmseqs2 easy-search, a faster alternative to blastp for
// large proteomes. Its tabular output shares the blast outfmt-6 columns.
type MMseqs struct {
	bin     string
	threads int
	runner  *runner
}

// NewMMseqs builds the wrapper from configured binary paths.
func NewMMseqs(cfg config.ToolsConfig, log logging.Logger) (*MMseqs, error) {
	run, err := newRunner(cfg.WorkDir, log)
	if err != nil {
		return nil, err
	}
	bin := cfg.MMseqsBin
	if bin == "" {
		bin = "mmseqs"
	}
	return &MMseqs{bin: bin, threads: cfg.Threads, runner: run}, nil
}

// EasySearch aligns query proteins against target proteins in one shot.
func (m *MMseqs) EasySearch(ctx context.Context, queries, targets map[string]string) ([]Hit, error) {
	queryPath := m.runner.tempPath("mmseqs_query.faa")
	if err := WriteFASTA(queryPath, queries); err != nil {
		return nil, err
	}
	targetPath := m.runner.tempPath("mmseqs_target.faa")
	if err := WriteFASTA(targetPath, targets); err != nil {
		return nil, err
	}
	outPath := m.runner.tempPath("mmseqs.m8")
	tmpDir := m.runner.tempPath("mmseqs_tmp")

	args := []string{
		"easy-search", queryPath, targetPath, outPath, tmpDir,
		"--format-output", "query,target,pident,alnlen,evalue,bits",
	}
	if m.threads > 0 {
		args = append(args, "--threads", fmt.Sprint(m.threads))
	}
	if err := m.runner.run(ctx, m.bin, args...); err != nil {
		return nil, err
	}

	f, err := os.Open(outPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeToolFailed, "opening mmseqs output")
	}
	defer f.Close()

	hits, err := ParseTabular(f)
	if err != nil {
		return nil, err
	}
	// mmseqs reports identity as a 0..1 fraction; normalize to percent.
	for i := range hits {
		if hits[i].Identity <= 1.0 {
			hits[i].Identity *= 100
		}
	}
	return hits, nil
}

// EasyCluster groups proteins by sequence similarity and returns the members
// of each cluster keyed by its representative.
func (m *MMseqs) EasyCluster(ctx context.Context, sequences map[string]string, minIdentity float64) (map[string][]string, error) {
	inPath := m.runner.tempPath("mmseqs_cluster.faa")
	if err := WriteFASTA(inPath, sequences); err != nil {
		return nil, err
	}
	outPrefix := m.runner.tempPath("mmseqs_cluster")
	tmpDir := m.runner.tempPath("mmseqs_cluster_tmp")

	args := []string{"easy-cluster", inPath, outPrefix, tmpDir}
	if minIdentity > 0 {
		args = append(args, "--min-seq-id", fmt.Sprintf("%.2f", minIdentity))
	}
	if m.threads > 0 {
		args = append(args, "--threads", fmt.Sprint(m.threads))
	}
	if err := m.runner.run(ctx, m.bin, args...); err != nil {
		return nil, err
	}

	f, err := os.Open(outPrefix + "_cluster.tsv")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeToolFailed, "opening mmseqs cluster output")
	}
	defer f.Close()
	return ParseClusterTSV(f)
}

// ParseClusterTSV reads the two-column representative/member table that
// easy-cluster writes.
func ParseClusterTSV(r io.Reader) (map[string][]string, error) {
	clusters := make(map[string][]string)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cols := strings.Split(line, "\t")
		if len(cols) < 2 {
			return nil, errors.Newf(errors.ErrCodeToolParse, "short cluster row: %q", line)
		}
		clusters[cols[0]] = append(clusters[cols[0]], cols[1])
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeToolParse, "reading cluster output")
	}
	return clusters, nil
}
