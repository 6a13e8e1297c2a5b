package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageCommand(t *testing.T) {
	assert.NotNil(t, imageCmd)
	assert.True(t, strings.HasPrefix(imageCmd.Use, "image"))
	assert.NotEmpty(t, imageCmd.Short)
	assert.NotEmpty(t, imageCmd.Long)
}

func TestImageCommandHelp(t *testing.T) {
	command := imageCmd
	buf := new(bytes.Buffer)
	command.SetOut(buf)
	command.SetErr(buf)
	err := command.Help()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "signatures")
	assert.Contains(t, output, "Usage:")
	assert.Contains(t, output, "Flags:")
}

func TestImageCommandFlags(t *testing.T) {
	flags := imageCmd.Flags()

	for _, name := range []string{
		"format", "output", "confidence", "iou", "model",
		"overlay-dir", "crops-dir", "box-color",
	} {
		assert.NotNil(t, flags.Lookup(name), "Expected flag '%s' not found", name)
	}
}

func TestValidateOutputFormat(t *testing.T) {
	require.NoError(t, validateOutputFormat(""))
	require.NoError(t, validateOutputFormat("text"))
	require.NoError(t, validateOutputFormat("json"))
	require.NoError(t, validateOutputFormat("yaml"))

	err := validateOutputFormat("xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid output format")
}

func TestValidateThreshold(t *testing.T) {
	require.NoError(t, validateThreshold("confidence", 0))
	require.NoError(t, validateThreshold("confidence", 0.5))
	require.NoError(t, validateThreshold("confidence", 1))

	err := validateThreshold("confidence", 1.5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "confidence")

	require.Error(t, validateThreshold("IoU", -0.1))
}

func TestWriteOutputToFile(t *testing.T) {
	path := t.TempDir() + "/out.txt"

	buf := new(bytes.Buffer)
	imageCmd.SetOut(buf)
	require.NoError(t, writeOutput(imageCmd, path, "hello\n"))

	assert.Empty(t, buf.String())
	assert.FileExists(t, path)
}

func TestWriteOutputToStdout(t *testing.T) {
	buf := new(bytes.Buffer)
	imageCmd.SetOut(buf)
	require.NoError(t, writeOutput(imageCmd, "", "hello\n"))
	assert.Equal(t, "hello\n", buf.String())
}
