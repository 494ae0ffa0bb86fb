package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/gocrdt/texttree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetSession gives each test a fresh engine and agent cache, since
// session and resolvedAgent are process-lifetime globals.
func resetSession(t *testing.T) {
	t.Helper()
	session = texttree.New()
	resolvedAgent = ""
}

func TestInsertCmdAppliesToSharedSession(t *testing.T) {
	resetSession(t)
	require.NoError(t, insertCmd.RunE(insertCmd, []string{"0", "hello"}))
	assert.Equal(t, "hello", session.Text())
}

func TestDeleteCmdAppliesToSharedSession(t *testing.T) {
	resetSession(t)
	require.NoError(t, insertCmd.RunE(insertCmd, []string{"0", "hello"}))
	require.NoError(t, deleteCmd.RunE(deleteCmd, []string{"1", "3"}))
	assert.Equal(t, "ho", session.Text())
}

func TestInsertCmdRejectsBadPosition(t *testing.T) {
	resetSession(t)
	err := insertCmd.RunE(insertCmd, []string{"x", "hi"})
	assert.Error(t, err)
}

func TestLocalAgentIsCachedAcrossCalls(t *testing.T) {
	resetSession(t)
	first := localAgent()
	second := localAgent()
	assert.Equal(t, first, second, "blank --agent config must not mint a new id per call")
}

func TestCheckCmdPassesOnConsistentSession(t *testing.T) {
	resetSession(t)
	require.NoError(t, insertCmd.RunE(insertCmd, []string{"0", "hello"}))
	require.NoError(t, checkCmd.RunE(checkCmd, nil))
}

func TestMergeTraceCmdAppliesTxnsFromFile(t *testing.T) {
	resetSession(t)

	source := texttree.New()
	require.NoError(t, source.LocalInsert("mike", 0, "hi"))
	txns := source.TxnsInRange(texttree.LVRange{Start: 0, End: 2})

	path := filepath.Join(t.TempDir(), "trace.jsonl")
	f, err := os.Create(path)
	require.NoError(t, err)
	enc := json.NewEncoder(f)
	for _, txn := range txns {
		require.NoError(t, enc.Encode(txn))
	}
	require.NoError(t, f.Close())

	require.NoError(t, mergeTraceCmd.RunE(mergeTraceCmd, []string{path}))
	assert.Equal(t, "hi", session.Text())
}
