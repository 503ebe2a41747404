package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitDestination(t *testing.T) {
	kind, id := splitDestination("mt5:1001")
	assert.Equal(t, "mt5", kind)
	assert.Equal(t, "1001", id)

	kind, id = splitDestination("wallet")
	assert.Equal(t, "wallet", kind)
	assert.Empty(t, id)
}

func TestParseDate(t *testing.T) {
	d, err := parseDate("")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	d, err = parseDate("2025-01-31")
	require.NoError(t, err)
	assert.Equal(t, time.January, d.Month())
	assert.Equal(t, 31, d.Day())

	_, err = parseDate("31/01/2025")
	assert.Error(t, err)
}

func TestInlineMessage(t *testing.T) {
	check := inlineMessage(func(s string) string {
		if s == "5" {
			return "Minimum deposit is $10."
		}
		return ""
	})
	assert.EqualError(t, check("5"), "Minimum deposit is $10.")
	assert.NoError(t, check("50"))
}

func TestShortAddress(t *testing.T) {
	assert.Equal(t, "T123", shortAddress("T123"))
	assert.Equal(t, "TQn9Y2…Lk3mPq", shortAddress("TQn9Y2khEsLJW1ChVWFMSMeRDow5Lk3mPq"))
}

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"login"}, {"logout"}, {"overview"}, {"deposit"}, {"withdraw"},
		{"reports", "history"}, {"reports", "statement"},
		{"support", "list"}, {"support", "open"}, {"support", "show"},
		{"support", "reply"}, {"support", "watch"},
	} {
		c, _, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], c.Name())
	}
}
