package pdf

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

var pdfMagic = []byte("%PDF-")

// IsPDF reports whether the file at path starts with the PDF header.
// Extension is ignored: content sniffing only.
func IsPDF(path string) bool {
	f, err := os.Open(path) //nolint:gosec // G304: user-provided document path is expected
	if err != nil {
		return false
	}
	defer func() { _ = f.Close() }()

	header := make([]byte, len(pdfMagic))
	if _, err := f.Read(header); err != nil {
		return false
	}
	return bytes.Equal(header, pdfMagic)
}

// PageCount returns the number of pages in the PDF at path.
func PageCount(path string) (int, error) {
	count, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read page count: %w", err)
	}
	return count, nil
}

// ValidateDocument checks that path exists, is a PDF, and is readable
// by the PDF library. Encrypted documents are rejected.
func ValidateDocument(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot access document: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a PDF", path)
	}
	if !IsPDF(path) {
		return fmt.Errorf("%s is not a PDF document", path)
	}
	if _, err := api.PageCountFile(path); err != nil {
		if isEncryptionError(err) {
			return fmt.Errorf("document %s is password protected: %w", path, err)
		}
		return fmt.Errorf("document %s is not readable: %w", path, err)
	}
	return nil
}

func isEncryptionError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "encrypted") ||
		strings.Contains(msg, "password") ||
		strings.Contains(msg, "decrypt")
}

// ParsePageRange parses a page range string like "1-5" or "1,3,5" into
// a sorted-as-given list of 1-based page numbers. Empty input means all
// pages and returns nil.
func ParsePageRange(pageRange string) ([]int, error) {
	if pageRange == "" {
		return nil, nil
	}

	var pages []int
	for _, part := range strings.Split(pageRange, ",") {
		part = strings.TrimSpace(part)
		tokenPages, err := parseRangeToken(part)
		if err != nil {
			return nil, err
		}
		pages = append(pages, tokenPages...)
	}
	return pages, nil
}

// parseRangeToken parses either a single page token ("3") or a range
// token ("1-5").
func parseRangeToken(part string) ([]int, error) {
	if strings.Contains(part, "-") {
		rangeParts := strings.Split(part, "-")
		if len(rangeParts) != 2 {
			return nil, fmt.Errorf("invalid range format: %s", part)
		}
		start, err := strconv.Atoi(strings.TrimSpace(rangeParts[0]))
		if err != nil {
			return nil, fmt.Errorf("invalid start page: %s", rangeParts[0])
		}
		end, err := strconv.Atoi(strings.TrimSpace(rangeParts[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid end page: %s", rangeParts[1])
		}
		if start < 1 {
			return nil, fmt.Errorf("page numbers start at 1, got %d", start)
		}
		if start > end {
			return nil, fmt.Errorf("start page %d greater than end page %d", start, end)
		}
		out := make([]int, 0, end-start+1)
		for i := start; i <= end; i++ {
			out = append(out, i)
		}
		return out, nil
	}

	page, err := strconv.Atoi(part)
	if err != nil {
		return nil, fmt.Errorf("invalid page number: %s", part)
	}
	if page < 1 {
		return nil, fmt.Errorf("page numbers start at 1, got %d", page)
	}
	return []int{page}, nil
}
