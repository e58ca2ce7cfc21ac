package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	info := Get()
	assert.NotEmpty(t, info.GoVersion)
	assert.Contains(t, info.Platform, "/")
}

func TestSemver(t *testing.T) {
	assert.Nil(t, Info{Version: "dev"}.Semver())
	assert.Nil(t, Info{Version: "not a version"}.Semver())

	v := Info{Version: "1.4.2"}.Semver()
	require.NotNil(t, v)
	assert.Equal(t, uint64(1), v.Major())
}

func TestString(t *testing.T) {
	dev := Info{Version: "dev", CommitHash: "abc1234", BuildTime: "now"}
	assert.Contains(t, dev.String(), "edict dev")

	tagged := Info{Version: "1.0.0", CommitHash: "abc1234", BuildTime: "now"}
	assert.Contains(t, tagged.String(), "edict 1.0.0")
}

func TestShort(t *testing.T) {
	assert.Equal(t, "abc1234", Info{CommitHash: "abc1234def"}.Short())
	assert.Equal(t, "ab", Info{CommitHash: "ab"}.Short())
}
