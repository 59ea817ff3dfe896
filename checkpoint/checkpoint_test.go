package checkpoint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factivity_trainer/model"
)

func TestBestModelPath(t *testing.T) {
	p := BestModelPath("out/", "factuality", 0.01, "megaverid", "l1")
	assert.Equal(t, "out/wsd_model_factuality_0.01_pre_megaverid_l1_.pth", p)

	p = BestModelPath("", "factuality", 0, "", "")
	assert.Equal(t, "wsd_model_factuality_0_pre_none_none_.pth", p)

	// deterministic for identical configs
	assert.Equal(t,
		BestModelPath("x/", "a", 0.5, "b", "smoothl1"),
		BestModelPath("x/", "a", 0.5, "b", "smoothl1"))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.pth")

	sd := model.StateDict{
		"w": {0.25, -1.5, 3},
		"b": {0.125},
	}
	require.NoError(t, Save(path, sd))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, sd, got)
}

func TestSaveOverwrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.pth")

	require.NoError(t, Save(path, model.StateDict{"w": {1}}))
	require.NoError(t, Save(path, model.StateDict{"w": {2}}))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, model.StateDict{"w": {2}}, got)

	// no stray temp files left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.pth"))
	assert.Error(t, err)
}
