package tools

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFASTASortsIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seqs.faa")
	require.NoError(t, WriteFASTA(path, map[string]string{
		"b0394": "MAVK",
		"b2388": "MTKY",
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, ">b0394\nMAVK\n>b2388\nMTKY\n", string(data))
}

func TestParseTabular(t *testing.T) {
	output := strings.NewReader(`# BLASTP 2.14.0+
# Fields: qseqid sseqid pident length evalue bitscore
b2388	fig|83333.111.peg.1	99.683	315	1e-180	512.0
b2388	fig|83333.111.peg.9	34.500	120	2e-10	61.2
b0394	fig|83333.111.peg.2	100.000	287	0.0	581.0

`)
	hits, err := ParseTabular(output)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, Hit{
		QueryID:   "b2388",
		SubjectID: "fig|83333.111.peg.1",
		Identity:  99.683,
		Length:    315,
		EValue:    1e-180,
		BitScore:  512.0,
	}, hits[0])
}

func TestParseTabularRejectsGarbage(t *testing.T) {
	_, err := ParseTabular(strings.NewReader("q\ts\tnot-a-number\t10\t0.0\t50\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not-a-number")
}

func TestBestHits(t *testing.T) {
	hits := []Hit{
		{QueryID: "b2388", SubjectID: "weak", BitScore: 61.2},
		{QueryID: "b2388", SubjectID: "strong", BitScore: 512.0},
		{QueryID: "b0394", SubjectID: "only", BitScore: 581.0},
	}
	best := BestHits(hits)
	require.Len(t, best, 2)
	assert.Equal(t, "strong", best["b2388"].SubjectID)
	assert.Equal(t, "only", best["b0394"].SubjectID)
}

func TestParseSkani(t *testing.T) {
	output := strings.NewReader(
		"Ref_file\tQuery_file\tANI\tAlign_fraction_ref\tAlign_fraction_query\tRef_name\tQuery_name\n" +
			"ref.fna\tquery.fna\t98.42\t91.30\t89.75\tchr1\tchr1\n")
	results, err := ParseSkani(output)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, ANIResult{
		RefFile:      "ref.fna",
		QueryFile:    "query.fna",
		ANI:          98.42,
		AlignFracRef: 91.30,
		AlignFracQry: 89.75,
	}, results[0])
}

func TestParseSkaniShortRow(t *testing.T) {
	_, err := ParseSkani(strings.NewReader("ref.fna\tquery.fna\t98.42\n"))
	require.Error(t, err)
}

func TestParseClusterTSV(t *testing.T) {
	in := "repA\trepA\nrepA\tmember1\nrepA\tmember2\nrepB\trepB\n"
	clusters, err := ParseClusterTSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"repA", "member1", "member2"}, clusters["repA"])
	assert.Equal(t, []string{"repB"}, clusters["repB"])
}

func TestParseClusterTSVShortRow(t *testing.T) {
	_, err := ParseClusterTSV(strings.NewReader("lonely\n"))
	assert.Error(t, err)
}

func TestReadFASTA(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.faa")
	require.NoError(t, os.WriteFile(path, []byte(">protA description here\nMTKYA\nLVGDV\n>protB\nIELDW\n"), 0o644))

	seqs, err := ReadFASTA(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"protA": "MTKYALVGDV",
		"protB": "IELDW",
	}, seqs)
}
