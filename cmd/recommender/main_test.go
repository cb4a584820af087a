package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadReceipt(t *testing.T) {
	dir := t.TempDir()

	bare := filepath.Join(dir, "bare.json")
	require.NoError(t, os.WriteFile(bare, []byte(`[{"barcode":"1","quantity":2}]`), 0o600))
	items, err := readReceipt(bare)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 2.0, items[0].Quantity)

	wrapped := filepath.Join(dir, "wrapped.json")
	require.NoError(t, os.WriteFile(wrapped, []byte(`{"items":[{"barcode":"1"},{"barcode":"2","unit_price":1.5}]}`), 0o600))
	items, err = readReceipt(wrapped)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 1.5, items[1].UnitPrice)

	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`nope`), 0o600))
	_, err = readReceipt(broken)
	assert.Error(t, err)

	_, err = readReceipt(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, map[string]int{"a": 1}))
	assert.Equal(t, "{\n  \"a\": 1\n}\n", buf.String())
}
