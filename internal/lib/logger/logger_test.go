package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	New(EnvLocal, &buf).Debug("hello", "k", "v")
	assert.Contains(t, buf.String(), "msg=hello")
	assert.Contains(t, buf.String(), "k=v")

	buf.Reset()
	New(EnvDev, &buf).Debug("hello")
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])

	buf.Reset()
	New(EnvProd, &buf).Debug("hidden")
	assert.Empty(t, buf.String())
	New(EnvProd, &buf).Info("shown")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}
