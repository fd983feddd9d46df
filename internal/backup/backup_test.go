package backup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/winenv/envkit/pkg/types"
)

func testSets() []*types.VariableSet {
	user := types.NewVariableSet(types.ScopeUser)
	user.Put(types.Variable{Name: "GOPATH", Value: `C:\Users\me\go`, Kind: types.KindPlain})
	user.Put(types.Variable{Name: "Path", Value: `C:\Go\bin;C:\tools`, Kind: types.KindPathLike})
	return []*types.VariableSet{user}
}

// writeAged drops a snapshot file with a controlled timestamp straight into
// the directory, so retention tests do not have to sleep between captures.
func writeAged(t *testing.T, m *Manager, createdAt time.Time, seq int) string {
	t.Helper()
	doc := snapshotFile{
		ID:        createdAt.UTC().Format("20060102T150405Z") + fmt.Sprintf("-%08x", seq),
		CreatedAt: createdAt.UTC(),
		Scopes: []snapScope{{
			Scope:     "user",
			Variables: []snapVar{{Name: "SEQ", Kind: "plain", Value: fmt.Sprint(seq)}},
		}},
	}
	out, err := yaml.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(m.Dir(), doc.ID+snapshotExt), out, 0o644))
	return doc.ID
}

func TestCreateAndLoad(t *testing.T) {
	m, err := New(t.TempDir(), DefaultRetention())
	require.NoError(t, err)

	info, err := m.Create(testSets(), "before upgrade")
	require.NoError(t, err)
	assert.NotEmpty(t, info.ID)
	assert.Equal(t, "before upgrade", info.Note)
	assert.Equal(t, []types.Scope{types.ScopeUser}, info.Scopes)
	assert.FileExists(t, info.Path)

	sets, loaded, err := m.Load(info.ID)
	require.NoError(t, err)
	assert.Equal(t, info.ID, loaded.ID)
	require.Contains(t, sets, types.ScopeUser)
	assert.True(t, testSets()[0].Equal(sets[types.ScopeUser]))
}

func TestCreateIdenticalContentIsIdempotent(t *testing.T) {
	m, err := New(t.TempDir(), DefaultRetention())
	require.NoError(t, err)

	first, err := m.Create(testSets(), "")
	require.NoError(t, err)
	second, err := m.Create(testSets(), "")
	require.NoError(t, err)

	// Identical content shares the digest suffix. When both captures land in
	// the same second the second one is a no-op on the same file.
	assert.Equal(t, first.ID[len(first.ID)-8:], second.ID[len(second.ID)-8:])
	if first.ID == second.ID {
		infos, err := m.List()
		require.NoError(t, err)
		assert.Len(t, infos, 1)
	}
}

func TestCreateDifferentContentDifferentIDs(t *testing.T) {
	m, err := New(t.TempDir(), DefaultRetention())
	require.NoError(t, err)

	first, err := m.Create(testSets(), "")
	require.NoError(t, err)

	changed := testSets()
	changed[0].Put(types.Variable{Name: "GOPATH", Value: `D:\go`, Kind: types.KindPlain})
	second, err := m.Create(changed, "")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
}

func TestLoadMissing(t *testing.T) {
	m, err := New(t.TempDir(), DefaultRetention())
	require.NoError(t, err)

	_, _, err = m.Load("20200101T000000Z-deadbeef")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrSnapshotNotFound), "got %v", err)
}

func TestListNewestFirstSkipsUnreadable(t *testing.T) {
	m, err := New(t.TempDir(), DefaultRetention())
	require.NoError(t, err)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	old := writeAged(t, m, base, 1)
	newer := writeAged(t, m, base.Add(time.Hour), 2)
	require.NoError(t, os.WriteFile(filepath.Join(m.Dir(), "corrupt.yaml"), []byte("scope: [unclosed"), 0o644))

	infos, err := m.List()
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, newer, infos[0].ID)
	assert.Equal(t, old, infos[1].ID)
}

func TestDeleteMissing(t *testing.T) {
	m, err := New(t.TempDir(), DefaultRetention())
	require.NoError(t, err)

	err = m.Delete("nope")
	assert.True(t, errors.Is(err, types.ErrSnapshotNotFound), "got %v", err)
}

func TestPruneMaxCount(t *testing.T) {
	m, err := New(t.TempDir(), RetentionPolicy{MaxCount: 3, KeepLatest: 1})
	require.NoError(t, err)

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		writeAged(t, m, base.Add(time.Duration(i)*time.Hour), i)
	}

	removed, err := m.Prune()
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	infos, err := m.List()
	require.NoError(t, err)
	assert.Len(t, infos, 3)
}

func TestPruneMaxAgeRespectsKeepLatest(t *testing.T) {
	m, err := New(t.TempDir(), RetentionPolicy{MaxAge: time.Hour, KeepLatest: 2})
	require.NoError(t, err)

	ancient := time.Now().UTC().Add(-48 * time.Hour)
	for i := 0; i < 4; i++ {
		writeAged(t, m, ancient.Add(time.Duration(i)*time.Minute), i)
	}

	// Every snapshot is past MaxAge, but the newest two are protected.
	removed, err := m.Prune()
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	infos, err := m.List()
	require.NoError(t, err)
	assert.Len(t, infos, 2)
}

func TestPruneNothingToDo(t *testing.T) {
	m, err := New(t.TempDir(), DefaultRetention())
	require.NoError(t, err)

	_, err = m.Create(testSets(), "")
	require.NoError(t, err)

	removed, err := m.Prune()
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}
