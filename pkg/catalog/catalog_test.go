package catalog

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *Catalog {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "sub", "devices.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestReplaceAndSearch(t *testing.T) {
	c := openTest(t)
	ctx := t.Context()

	updated, err := c.UpdatedAt(ctx)
	require.NoError(t, err)
	assert.True(t, updated.IsZero())

	require.NoError(t, c.Replace(ctx, []string{
		"AT28C256@DIP28", "27C256@DIP28", "W25Q32JV@SOIC8", "AT28C256@DIP28", " ", "ATMEGA328P_A@TQFP32",
	}))

	n, err := c.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	tests := []struct {
		name   string
		substr string
		limit  int
		want   []string
	}{
		{"case insensitive", "at28c", 0, []string{"AT28C256@DIP28"}},
		{"contains", "256", 0, []string{"27C256@DIP28", "AT28C256@DIP28"}},
		{"empty matches all", "", 0, []string{"27C256@DIP28", "AT28C256@DIP28", "ATMEGA328P_A@TQFP32", "W25Q32JV@SOIC8"}},
		{"limit", "", 2, []string{"27C256@DIP28", "AT28C256@DIP28"}},
		{"underscore is literal", "p_a", 0, []string{"ATMEGA328P_A@TQFP32"}},
		{"percent is literal", "%", 0, nil},
		{"no match", "gal", 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Search(ctx, tt.substr, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	updated, err = c.UpdatedAt(ctx)
	require.NoError(t, err)
	assert.False(t, updated.IsZero())
}

func TestReplaceOverwrites(t *testing.T) {
	c := openTest(t)
	ctx := t.Context()

	require.NoError(t, c.Replace(ctx, []string{"A", "B"}))
	require.NoError(t, c.Replace(ctx, []string{"C"}))

	all, err := c.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"C"}, all)
}

func TestPersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devices.db")
	c, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, c.Replace(t.Context(), []string{"GAL16V8"}))
	require.NoError(t, c.Close())

	c, err = Open(path)
	require.NoError(t, err)
	defer c.Close()
	all, err := c.All(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{"GAL16V8"}, all)
}
