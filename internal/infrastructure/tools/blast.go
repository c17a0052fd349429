package tools

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/modelseed/kbutil/internal/config"
	"github.com/modelseed/kbutil/internal/infrastructure/logging"
	"github.com/modelseed/kbutil/pkg/errors"
)

// tabularFields is the outfmt-6 column set shared by blastp and mmseqs.
const tabularFields = "qseqid sseqid pident length evalue bitscore"

// Hit is one pairwise protein alignment from a tabular search.
type Hit struct {
	QueryID   string
	SubjectID string
	Identity  float64 // percent identity
	Length    int     // alignment length
	EValue    float64
	BitScore  float64
}

// Blast wraps the NCBI BLAST+ protein search programs.
type Blast struct {
	makeDBBin string
	blastpBin string
	threads   int
	runner    *runner
}

// NewBlast builds the wrapper from configured binary paths.
func NewBlast(cfg config.ToolsConfig, log logging.Logger) (*Blast, error) {
	run, err := newRunner(cfg.WorkDir, log)
	if err != nil {
		return nil, err
	}
	bin := cfg.BlastBin
	if bin == "" {
		bin = "blastp"
	}
	makeDB := "makeblastdb"
	if dir := strings.TrimSuffix(bin, "blastp"); dir != bin {
		makeDB = dir + "makeblastdb"
	}
	return &Blast{
		makeDBBin: makeDB,
		blastpBin: bin,
		threads:   cfg.Threads,
		runner:    run,
	}, nil
}

// MakeProteinDB formats a protein database from the given sequences and
// returns its path prefix.
func (b *Blast) MakeProteinDB(ctx context.Context, name string, seqs map[string]string) (string, error) {
	fasta := b.runner.tempPath(name + ".faa")
	if err := WriteFASTA(fasta, seqs); err != nil {
		return "", err
	}
	dbPath := b.runner.tempPath(name + ".db")
	err := b.runner.run(ctx, b.makeDBBin,
		"-in", fasta,
		"-dbtype", "prot",
		"-out", dbPath)
	if err != nil {
		return "", err
	}
	return dbPath, nil
}

// Search aligns query proteins against a formatted database.
func (b *Blast) Search(ctx context.Context, queries map[string]string, dbPath string) ([]Hit, error) {
	queryPath := b.runner.tempPath("query.faa")
	if err := WriteFASTA(queryPath, queries); err != nil {
		return nil, err
	}
	outPath := b.runner.tempPath("blast.out")

	args := []string{
		"-db", dbPath,
		"-query", queryPath,
		"-out", outPath,
		"-outfmt", "6 " + tabularFields,
		"-evalue", "1e-5",
	}
	if b.threads > 0 {
		args = append(args, "-num_threads", fmt.Sprint(b.threads))
	}
	if err := b.runner.run(ctx, b.blastpBin, args...); err != nil {
		return nil, err
	}

	f, err := os.Open(outPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeToolFailed, "opening blast output")
	}
	defer f.Close()
	return ParseTabular(f)
}

// ParseTabular reads outfmt-6 style hits (qseqid sseqid pident length
// evalue bitscore). Comment lines and short rows are skipped.
func ParseTabular(r io.Reader) ([]Hit, error) {
	var hits []Hit
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
			continue
		}
		cols := strings.Fields(line)
		if len(cols) < 6 {
			continue
		}
		identity, err := strconv.ParseFloat(cols[2], 64)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrCodeToolParse, "bad identity %q", cols[2])
		}
		length, err := strconv.Atoi(cols[3])
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrCodeToolParse, "bad length %q", cols[3])
		}
		evalue, err := strconv.ParseFloat(cols[4], 64)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrCodeToolParse, "bad evalue %q", cols[4])
		}
		bits, err := strconv.ParseFloat(cols[5], 64)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrCodeToolParse, "bad bitscore %q", cols[5])
		}
		hits = append(hits, Hit{
			QueryID:   cols[0],
			SubjectID: cols[1],
			Identity:  identity,
			Length:    length,
			EValue:    evalue,
			BitScore:  bits,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeToolParse, "reading hits")
	}
	return hits, nil
}

// BestHits keeps the highest-scoring hit per query.
func BestHits(hits []Hit) map[string]Hit {
	best := make(map[string]Hit)
	for _, h := range hits {
		if prev, ok := best[h.QueryID]; !ok || h.BitScore > prev.BitScore {
			best[h.QueryID] = h
		}
	}
	return best
}
