package pathresolver

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveHome(t *testing.T) {
	home, err := os.UserHomeDir()
	assert.NoError(t, err)
	assert.Equal(t, home+"/corpus", Resolve("~/corpus"))
}

func TestResolveEnvVar(t *testing.T) {
	t.Setenv("TLDR_TEST_DIR", "/data/corpus")
	assert.Equal(t, "/data/corpus/docs", Resolve("$TLDR_TEST_DIR/docs"))
	assert.Equal(t, "/data/corpus/docs", Resolve("${TLDR_TEST_DIR}/docs"))
}

func TestResolveUnsetEnvVar(t *testing.T) {
	os.Unsetenv("TLDR_TEST_UNSET")
	assert.Equal(t, "/docs", Resolve("$TLDR_TEST_UNSET/docs"))
}

func TestResolveNoMarkers(t *testing.T) {
	assert.Equal(t, "/abs/path/file.pdf", Resolve("/abs/path/file.pdf"))
}

func TestResolveEmpty(t *testing.T) {
	assert.Equal(t, "", Resolve(""))
}
