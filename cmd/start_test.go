package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStartCmd(t *testing.T) {
	cmd := newStartCmd()
	assert.Equal(t, "start [dir]", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
}

func TestRunWatch_RejectsMissingDirectory(t *testing.T) {
	chdirTemp(t)

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})

	err := runWatch(cmd, "/no/such/dir")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "watch configuration")
}
