package probe

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/zksync-wallet/internal/test"
)

func TestReadiness(t *testing.T) {
	node := test.NewNode(t)
	cfg := test.ServerConfig(node)

	require.NoError(t, runReadiness(t.Context(), cfg, true))

	node.Close()
	assert.ErrorIs(t, runReadiness(t.Context(), cfg, false), errNotReady)
}

func TestLiveness(t *testing.T) {
	node := test.NewNode(t)
	cfg := test.ServerConfig(node)

	dir := t.TempDir()
	cfg.Management.ProbeWriteablePathsAbs = []string{dir}
	cfg.Management.ProbeWriteableTouchfile = ".healthy"
	cfg.Management.LivenessTimeout = time.Second

	require.NoError(t, runLiveness(t.Context(), cfg, true))
	_, err := os.Stat(filepath.Join(dir, ".healthy"))
	require.NoError(t, err)

	cfg.Management.ProbeWriteablePathsAbs = []string{filepath.Join(dir, "missing")}
	assert.ErrorIs(t, runLiveness(t.Context(), cfg, false), errNotHealthy)
}
