package pdf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePageRange(t *testing.T) {
	tests := []struct {
		name        string
		pageRange   string
		want        []int
		expectError bool
	}{
		{
			name:      "empty range returns nil",
			pageRange: "",
			want:      nil,
		},
		{
			name:      "single page",
			pageRange: "3",
			want:      []int{3},
		},
		{
			name:      "multiple single pages",
			pageRange: "1,3,5",
			want:      []int{1, 3, 5},
		},
		{
			name:      "simple range",
			pageRange: "1-5",
			want:      []int{1, 2, 3, 4, 5},
		},
		{
			name:      "mixed pages and ranges",
			pageRange: "1,3-5,7",
			want:      []int{1, 3, 4, 5, 7},
		},
		{
			name:      "range with spaces",
			pageRange: " 1 - 3 , 5 ",
			want:      []int{1, 2, 3, 5},
		},
		{
			name:        "invalid page number",
			pageRange:   "abc",
			expectError: true,
		},
		{
			name:        "invalid range format",
			pageRange:   "1-2-3",
			expectError: true,
		},
		{
			name:        "start greater than end",
			pageRange:   "5-1",
			expectError: true,
		},
		{
			name:        "zero page",
			pageRange:   "0",
			expectError: true,
		},
		{
			name:        "zero start page",
			pageRange:   "0-3",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePageRange(tt.pageRange)
			if tt.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsPDF(t *testing.T) {
	dir := t.TempDir()

	pdfPath := filepath.Join(dir, "doc.pdf")
	require.NoError(t, os.WriteFile(pdfPath, []byte("%PDF-1.7\nsome content"), 0o600))
	assert.True(t, IsPDF(pdfPath))

	// Extension lies; content decides.
	fakePath := filepath.Join(dir, "fake.pdf")
	require.NoError(t, os.WriteFile(fakePath, []byte("PNG garbage"), 0o600))
	assert.False(t, IsPDF(fakePath))

	shortPath := filepath.Join(dir, "short.pdf")
	require.NoError(t, os.WriteFile(shortPath, []byte("%P"), 0o600))
	assert.False(t, IsPDF(shortPath))

	assert.False(t, IsPDF(filepath.Join(dir, "missing.pdf")))
}

func TestValidateDocumentErrors(t *testing.T) {
	dir := t.TempDir()

	err := ValidateDocument(filepath.Join(dir, "missing.pdf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot access")

	err = ValidateDocument(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "directory")

	notPDF := filepath.Join(dir, "note.txt")
	require.NoError(t, os.WriteFile(notPDF, []byte("hello"), 0o600))
	err = ValidateDocument(notPDF)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a PDF")

	// Header matches but the body is garbage: the PDF library rejects it.
	truncated := filepath.Join(dir, "broken.pdf")
	require.NoError(t, os.WriteFile(truncated, []byte("%PDF-1.7\ngarbage"), 0o600))
	err = ValidateDocument(truncated)
	require.Error(t, err)
}
