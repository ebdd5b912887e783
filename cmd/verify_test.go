package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetVerifyFlags(t *testing.T) {
	t.Helper()
	origDescribe, origFile := verifyDescribe, verifyAvatarFile
	t.Cleanup(func() {
		verifyDescribe, verifyAvatarFile = origDescribe, origFile
	})
	verifyDescribe, verifyAvatarFile = "", ""
}

func TestVerifyAvatarSpec_RequiresSource(t *testing.T) {
	resetVerifyFlags(t)

	_, err := verifyAvatarSpec()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "avatar is required")
}

func TestVerifyAvatarSpec_MutuallyExclusive(t *testing.T) {
	resetVerifyFlags(t)
	verifyDescribe = "founders"
	verifyAvatarFile = "avatar.json"

	_, err := verifyAvatarSpec()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestVerifyAvatarSpec_FromDescription(t *testing.T) {
	resetVerifyFlags(t)
	verifyDescribe = "US wealth managers, hiring SDRs"

	spec, err := verifyAvatarSpec()
	require.NoError(t, err)
	assert.Contains(t, spec.Geography, "Us")
	assert.NotEmpty(t, spec.IntentSignals)
}

func TestVerifyAvatarSpec_FromFile(t *testing.T) {
	resetVerifyFlags(t)

	path := filepath.Join(t.TempDir(), "avatar.json")
	data := `{"name":"Boston Dentists","geography":["Boston"],"roles_primary":["Owner"],"thresholds":{"accept_min":0.7,"review_min":0.45}}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	verifyAvatarFile = path

	spec, err := verifyAvatarSpec()
	require.NoError(t, err)
	assert.Equal(t, "Boston Dentists", spec.Name)
	assert.Equal(t, []string{"Boston"}, spec.Geography)
}

func TestVerifyAvatarSpec_BadFile(t *testing.T) {
	resetVerifyFlags(t)

	path := filepath.Join(t.TempDir(), "avatar.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
	verifyAvatarFile = path

	_, err := verifyAvatarSpec()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse avatar file")
}
