package storage

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataURLStorage(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	url, err := DataURLStorage{}.Upload(context.Background(), bytes.NewReader(png), "receipt.png", "receipts")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "data:image/png;base64,"), url)
}

func TestDataURLStorageRejectsEmptyAndOversized(t *testing.T) {
	_, err := DataURLStorage{}.Upload(context.Background(), bytes.NewReader(nil), "empty.jpg", "receipts")
	assert.Error(t, err)

	big := bytes.Repeat([]byte{'a'}, MaxUploadBytes+1)
	_, err = DataURLStorage{}.Upload(context.Background(), bytes.NewReader(big), "big.bin", "receipts")
	assert.Error(t, err)
}
