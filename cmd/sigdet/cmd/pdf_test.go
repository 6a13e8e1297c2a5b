package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPDFCommand(t *testing.T) {
	assert.NotNil(t, pdfCmd)
	assert.True(t, strings.HasPrefix(pdfCmd.Use, "pdf"))
	assert.NotEmpty(t, pdfCmd.Short)
	assert.NotEmpty(t, pdfCmd.Long)
}

func TestPDFCommandHelp(t *testing.T) {
	command := pdfCmd
	buf := new(bytes.Buffer)
	command.SetOut(buf)
	command.SetErr(buf)
	err := command.Help()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "PDF")
	assert.Contains(t, output, "Usage:")
	assert.Contains(t, output, "Flags:")
}

func TestPDFCommandFlags(t *testing.T) {
	flags := pdfCmd.Flags()

	for _, name := range []string{
		"format", "output", "pages", "confidence", "iou",
		"model", "dpi", "workers", "progress",
	} {
		assert.NotNil(t, flags.Lookup(name), "Expected flag '%s' not found", name)
	}
}

func TestServeCommand(t *testing.T) {
	assert.NotNil(t, serveCmd)
	assert.Equal(t, "serve", serveCmd.Use)

	flags := serveCmd.Flags()
	for _, name := range []string{
		"host", "port", "cors-origin", "max-upload-size",
		"timeout", "shutdown-timeout",
	} {
		assert.NotNil(t, flags.Lookup(name), "Expected flag '%s' not found", name)
	}
}

func TestDetectCommand(t *testing.T) {
	assert.NotNil(t, detectCmd)
	assert.True(t, strings.HasPrefix(detectCmd.Use, "detect"))

	flags := detectCmd.Flags()
	for _, name := range []string{"format", "pages", "confidence", "iou", "workers"} {
		assert.NotNil(t, flags.Lookup(name), "Expected flag '%s' not found", name)
	}
}
