package preferences

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/accctl/internal/foundation/errors"
)

func TestJSONStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.json")

	s, err := Open(path)
	require.NoError(t, err)
	assert.Nil(t, s.Get().SelectedProfile)
	assert.False(t, s.Get().ResetUnplugged)

	name := "night"
	require.NoError(t, s.SetSelectedProfile(&name))
	require.NoError(t, s.SetResetUnplugged(true))
	name = "mutated"

	reopened, err := Open(path)
	require.NoError(t, err)
	got := reopened.Get()
	require.NotNil(t, got.SelectedProfile)
	assert.Equal(t, "night", *got.SelectedProfile)
	assert.True(t, got.ResetUnplugged)

	require.NoError(t, reopened.SetSelectedProfile(nil))
	reopened, err = Open(path)
	require.NoError(t, err)
	assert.Nil(t, reopened.Get().SelectedProfile)
}

func TestOpenCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.json")
	require.NoError(t, os.WriteFile(path, []byte("nope"), 0o600))

	_, err := Open(path)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryStorage))
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	s := NewMemory()
	name := "day"
	require.NoError(t, s.SetSelectedProfile(&name))

	p := s.Get()
	*p.SelectedProfile = "changed"
	assert.Equal(t, "day", *s.Get().SelectedProfile)
}
