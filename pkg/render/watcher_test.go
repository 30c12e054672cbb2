package render

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"pdf-annotator-be/internal/pkg/logger"
	"pdf-annotator-be/pkg/annotation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIconWatcherReloadsOnChange(t *testing.T) {
	builtin, err := BuiltinIcons(16)
	require.NoError(t, err)
	tick, ok := builtin.Get(annotation.TypeTick)
	require.True(t, ok)

	dir := t.TempDir()
	icons, err := LoadIconDir(dir)
	require.Error(t, err)
	_, ok = icons.Get(annotation.TypeTick)
	require.False(t, ok)

	w := NewIconWatcher(icons, logger.NewNopLogger())
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, IconFileName(annotation.TypeTick)), tick.PNG, 0o600))

	assert.Eventually(t, func() bool {
		_, ok := icons.Get(annotation.TypeTick)
		return ok
	}, 5*time.Second, 50*time.Millisecond)
}

func TestIconWatcherWithoutDirIsNoop(t *testing.T) {
	icons, err := BuiltinIcons(16)
	require.NoError(t, err)

	w := NewIconWatcher(icons, logger.NewNopLogger())
	require.NoError(t, w.Start())
	w.Stop()

	_, ok := icons.Get(annotation.TypeCross)
	assert.True(t, ok)
}
