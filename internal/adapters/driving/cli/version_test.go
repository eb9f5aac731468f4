package cli

import (
	"context"
	"errors"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withVersion(t *testing.T, v string) {
	t.Helper()
	original := version
	version = v
	t.Cleanup(func() { version = original })
}

func TestVersionCmd(t *testing.T) {
	t.Run("prints version with build platform", func(t *testing.T) {
		withVersion(t, "1.2.3")

		out, err := executeCommand(t, "", "version")
		require.NoError(t, err)
		assert.Contains(t, out, "quanswer version 1.2.3")
		assert.Contains(t, out, runtime.GOOS+"/"+runtime.GOARCH)
	})

	t.Run("defaults to dev", func(t *testing.T) {
		withVersion(t, "dev")

		out, err := executeCommand(t, "", "version")
		require.NoError(t, err)
		assert.Contains(t, out, "quanswer version dev")
	})

	t.Run("short prints only the version", func(t *testing.T) {
		withVersion(t, "1.2.3")

		out, err := executeCommand(t, "", "version", "--short")
		require.NoError(t, err)
		assert.Equal(t, "1.2.3\n", out)
	})

	t.Run("skips service setup", func(t *testing.T) {
		prev := factory
		SetFactory(func(context.Context, Config) (*Services, error) {
			return nil, errors.New("factory must not run")
		})
		defer SetFactory(prev)

		_, err := executeCommand(t, "", "version")
		assert.NoError(t, err)
	})

	t.Run("rejects arguments", func(t *testing.T) {
		_, err := executeCommand(t, "", "version", "extra")
		assert.Error(t, err)
	})
}

func TestSetVersion_FromDev(t *testing.T) {
	withVersion(t, "dev")

	SetVersion("2.0.0")
	assert.Equal(t, "2.0.0", version)
}
