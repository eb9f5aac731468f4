package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryCmd_HasLimitFlag(t *testing.T) {
	flag := historyCmd.Flags().Lookup("limit")
	require.NotNil(t, flag)
	assert.Equal(t, "n", flag.Shorthand)
	assert.Equal(t, "20", flag.DefValue)
}

func TestHistoryCmd_Lists(t *testing.T) {
	mocks, cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand(t, "", "history", "-n", "5")

	require.NoError(t, err)
	assert.Equal(t, 5, mocks.history.limit)
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "Model:    ahotrod/albert_xxlargev1_squad2_512")
	assert.Contains(t, out, "Records:  3 (1 failed, 1 cached)")
	assert.Contains(t, out, "Duration: 1.5s")
}

func TestHistoryCmd_Empty(t *testing.T) {
	mocks, cleanup := setupTestServices()
	defer cleanup()
	mocks.history.runs = nil

	out, err := executeCommand(t, "", "history")

	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded.")
}

func TestHistoryCmd_NoService(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	historyService = nil

	_, err := executeCommand(t, "", "history")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "history service not configured")
}
