package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCommand_Subcommands(t *testing.T) {
	cmd := NewRootCommand()

	names := make([]string, 0, len(cmd.Commands()))
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	for _, want := range []string{"standardize", "compare", "serve", "migrate", "curate", "genome", "cluster", "ani", "deploy", "workspace", "protein", "align"} {
		assert.Contains(t, names, want)
	}
}

func TestNewRootCommand_PersistentFlags(t *testing.T) {
	cmd := NewRootCommand()

	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("log-level"))
}

func TestRootCommand_Help(t *testing.T) {
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "ModelSEED")
	assert.Contains(t, out.String(), "standardize")
}

func TestStandardizeCommand_RequiresModel(t *testing.T) {
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"standardize"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model")
}

func TestCurateCommands_RequiredFlags(t *testing.T) {
	for _, args := range [][]string{
		{"curate", "propose"},
		{"curate", "list"},
		{"curate", "decide"},
	} {
		cmd := NewRootCommand()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetArgs(args)
		assert.Error(t, cmd.Execute(), "args %v", args)
	}
}
