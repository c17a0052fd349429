package tools

import (
	"bufio"
	"context"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/modelseed/kbutil/internal/config"
	"github.com/modelseed/kbutil/internal/infrastructure/logging"
	"github.com/modelseed/kbutil/pkg/errors"
)

// ANIResult is one genome pair from skani dist.
type ANIResult struct {
	RefFile      string
	QueryFile    string
	ANI          float64
	AlignFracRef float64
	AlignFracQry float64
}

// Skani wraps skani for whole-genome average nucleotide identity, used to
// decide whether a reference model's genome is close enough for gene-level
// comparison.
type Skani struct {
	bin    string
	runner *runner
}

// NewSkani builds the wrapper from configured binary paths.
func NewSkani(cfg config.ToolsConfig, log logging.Logger) (*Skani, error) {
	run, err := newRunner(cfg.WorkDir, log)
	if err != nil {
		return nil, err
	}
	bin := cfg.SkaniBin
	if bin == "" {
		bin = "skani"
	}
	return &Skani{bin: bin, runner: run}, nil
}

// Sketch precomputes skani sketches for a set of genome FASTAs so repeated
// Dist calls against the same references are cheap.
func (s *Skani) Sketch(ctx context.Context, outDir string, fastaPaths ...string) error {
	if len(fastaPaths) == 0 {
		return errors.New(errors.ErrCodeValidation, "no genomes to sketch")
	}
	args := append([]string{"sketch"}, fastaPaths...)
	args = append(args, "-o", outDir)
	return s.runner.run(ctx, s.bin, args...)
}

// Dist computes ANI between one reference and one query genome FASTA.
func (s *Skani) Dist(ctx context.Context, refPath, queryPath string) (*ANIResult, error) {
	outPath := s.runner.tempPath("skani.tsv")
	err := s.runner.run(ctx, s.bin, "dist", "-r", refPath, "-q", queryPath, "-o", outPath)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(outPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeToolFailed, "opening skani output")
	}
	defer f.Close()

	results, err := ParseSkani(f)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		// skani emits no row when the genomes share too little sequence.
		return &ANIResult{RefFile: refPath, QueryFile: queryPath}, nil
	}
	return &results[0], nil
}

// ParseSkani reads skani's tab-separated output. The first line is a header
// (Ref_file Query_file ANI Align_fraction_ref Align_fraction_query ...).
func ParseSkani(r io.Reader) ([]ANIResult, error) {
	var results []ANIResult
	scanner := bufio.NewScanner(r)
	first := true
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if first {
			first = false
			if strings.HasPrefix(line, "Ref_file") {
				continue
			}
		}
		cols := strings.Split(line, "\t")
		if len(cols) < 5 {
			return nil, errors.Newf(errors.ErrCodeToolParse, "short skani row: %q", line)
		}
		ani, err := strconv.ParseFloat(cols[2], 64)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrCodeToolParse, "bad ANI %q", cols[2])
		}
		afRef, err := strconv.ParseFloat(cols[3], 64)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrCodeToolParse, "bad align fraction %q", cols[3])
		}
		afQry, err := strconv.ParseFloat(cols[4], 64)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrCodeToolParse, "bad align fraction %q", cols[4])
		}
		results = append(results, ANIResult{
			RefFile:      cols[0],
			QueryFile:    cols[1],
			ANI:          ani,
			AlignFracRef: afRef,
			AlignFracQry: afQry,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeToolParse, "reading skani output")
	}
	return results, nil
}
