package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-boot/framework/container"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LOG_LEVEL", "error")
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "goboot 0.1.0\n", out)
}

func TestDescribe_All(t *testing.T) {
	out, err := run(t, "describe")
	require.NoError(t, err)

	var infos []container.DefinitionInfo
	require.NoError(t, json.Unmarshal([]byte(out), &infos))
	var names []string
	for _, info := range infos {
		names = append(names, info.Name)
	}
	assert.Subset(t, names, []string{"cat", "dog", "logService", "visitor"})
}

func TestDescribe_OneWithManifest(t *testing.T) {
	out, err := run(t, "describe", "keepers:keeper", "--manifest", "app/manifests/keepers.yaml")
	require.NoError(t, err)

	var info container.DefinitionInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "keeper", info.Name)
	assert.Equal(t, "keepers", info.Namespace)
	assert.Equal(t, "file", info.CreateFrom)
	assert.True(t, strings.HasSuffix(info.SrcPath, "keepers.yaml"))
}

func TestDescribe_Unknown(t *testing.T) {
	_, err := run(t, "describe", "ghost")
	assert.EqualError(t, err, "ghost is not bound")
}
