package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadEmbeddings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "embeddings.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"protein_id": "fig|83333.1.peg.1", "genome_id": "83333.1", "embedding": [0.1, 0.2]},
		{"protein_id": "fig|83333.1.peg.2", "genome_id": "83333.1", "embedding": [0.3, 0.4]}
	]`), 0o644))

	records, err := readEmbeddings(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "fig|83333.1.peg.1", records[0].ProteinID)
	assert.Equal(t, []float32{0.3, 0.4}, records[1].Embedding)
}

func TestReadEmbeddingsRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "embeddings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"not": "a list"}`), 0o644))

	_, err := readEmbeddings(path)
	assert.Error(t, err)
}
