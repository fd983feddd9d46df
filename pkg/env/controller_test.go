package env

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/winenv/envkit/internal/envreg"
	"github.com/winenv/envkit/pkg/types"
)

func newTestController(t *testing.T) (*Controller, *envreg.Memory) {
	t.Helper()
	mem := envreg.NewMemory()
	c, err := New(mem, Config{BackupDir: t.TempDir()})
	require.NoError(t, err)
	return c, mem
}

func snapshotCount(t *testing.T, c *Controller) int {
	t.Helper()
	infos, err := c.ListSnapshots()
	require.NoError(t, err)
	return len(infos)
}

func TestNewNilAccessor(t *testing.T) {
	_, err := New(nil, Config{})
	assert.Error(t, err)
}

func TestAddGetDelete(t *testing.T) {
	c, _ := newTestController(t)

	require.NoError(t, c.Add(types.ScopeUser, "GOPATH", `C:\go`, types.KindPlain))

	v, err := c.Get(types.ScopeUser, "gopath")
	require.NoError(t, err)
	assert.Equal(t, "GOPATH", v.Name)
	assert.Equal(t, `C:\go`, v.Value)

	require.NoError(t, c.Delete(types.ScopeUser, "GOPATH"))
	_, err = c.Get(types.ScopeUser, "GOPATH")
	assert.True(t, errors.Is(err, types.ErrNotFound), "got %v", err)
}

func TestAddExistingConflicts(t *testing.T) {
	c, _ := newTestController(t)

	require.NoError(t, c.Add(types.ScopeUser, "EDITOR", "nvim", types.KindPlain))
	err := c.Add(types.ScopeUser, "editor", "vim", types.KindPlain)
	assert.True(t, errors.Is(err, types.ErrConflict), "got %v", err)

	// The original survives untouched.
	v, err := c.Get(types.ScopeUser, "EDITOR")
	require.NoError(t, err)
	assert.Equal(t, "nvim", v.Value)
}

func TestUpdateMissingNotFound(t *testing.T) {
	c, _ := newTestController(t)
	err := c.Update(types.ScopeUser, "NOPE", "x")
	assert.True(t, errors.Is(err, types.ErrNotFound), "got %v", err)
}

func TestUpdatePreservesKind(t *testing.T) {
	c, _ := newTestController(t)

	require.NoError(t, c.Add(types.ScopeUser, "MY_DIRS", `C:\a;C:\b`, types.KindPathLike))
	require.NoError(t, c.Update(types.ScopeUser, "MY_DIRS", `C:\c`))

	v, err := c.Get(types.ScopeUser, "MY_DIRS")
	require.NoError(t, err)
	assert.Equal(t, types.KindPathLike, v.Kind)
}

func TestDeleteMissingLeavesScopeUnchanged(t *testing.T) {
	c, _ := newTestController(t)
	require.NoError(t, c.Add(types.ScopeUser, "KEEP", "1", types.KindPlain))
	before, err := c.Read(types.ScopeUser)
	require.NoError(t, err)

	err = c.Delete(types.ScopeUser, "ABSENT")
	assert.True(t, errors.Is(err, types.ErrNotFound), "got %v", err)

	after, err := c.Read(types.ScopeUser)
	require.NoError(t, err)
	assert.True(t, before.Equal(after))
	assert.False(t, c.CanRedo())
}

func TestValidationRejectsBeforeAnySnapshot(t *testing.T) {
	c, _ := newTestController(t)
	err := c.Add(types.ScopeUser, "BAD=NAME", "x", types.KindPlain)
	require.Error(t, err)
	assert.Equal(t, 0, snapshotCount(t, c))
	assert.False(t, c.CanUndo())
}

func TestSystemScopeAccessDeniedBeforeSnapshot(t *testing.T) {
	c, mem := newTestController(t)
	mem.DenySystemWrites = true

	err := c.Add(types.ScopeSystem, "MACHINE_VAR", "x", types.KindPlain)
	assert.True(t, errors.Is(err, types.ErrAccessDenied), "got %v", err)

	// The privilege probe runs in the validating phase; nothing was captured
	// and nothing landed.
	assert.Equal(t, 0, snapshotCount(t, c))
	assert.False(t, c.CanUndo())
	assert.Equal(t, 0, mem.BroadcastCount)
}

func TestKindPinnedForSession(t *testing.T) {
	c, _ := newTestController(t)

	require.NoError(t, c.Add(types.ScopeUser, "MY_DIRS", `C:\a`, types.KindPathLike))
	require.NoError(t, c.Delete(types.ScopeUser, "MY_DIRS"))

	err := c.Add(types.ScopeUser, "my_dirs", "plain now", types.KindPlain)
	assert.True(t, errors.Is(err, types.ErrKindMismatch), "got %v", err)
}

func TestUndoRedoSequence(t *testing.T) {
	c, _ := newTestController(t)

	require.NoError(t, c.Add(types.ScopeUser, "A", "1", types.KindPlain))
	require.NoError(t, c.Add(types.ScopeUser, "B", "2", types.KindPlain))
	require.NoError(t, c.Update(types.ScopeUser, "A", "1b"))
	require.NoError(t, c.Delete(types.ScopeUser, "B"))

	final, err := c.Read(types.ScopeUser)
	require.NoError(t, err)

	// Unwind everything.
	for c.CanUndo() {
		_, err := c.Undo()
		require.NoError(t, err)
	}
	set, err := c.Read(types.ScopeUser)
	require.NoError(t, err)
	assert.Empty(t, set.Vars)

	// Replay everything.
	for c.CanRedo() {
		_, err := c.Redo()
		require.NoError(t, err)
	}
	set, err = c.Read(types.ScopeUser)
	require.NoError(t, err)
	assert.True(t, final.Equal(set))

	_, err = c.Redo()
	assert.True(t, errors.Is(err, types.ErrNothingToRedo), "got %v", err)
}

func TestUndoEmptyHistory(t *testing.T) {
	c, _ := newTestController(t)
	_, err := c.Undo()
	assert.True(t, errors.Is(err, types.ErrNothingToUndo), "got %v", err)
}

func TestMutationClearsRedoFuture(t *testing.T) {
	c, _ := newTestController(t)

	require.NoError(t, c.Add(types.ScopeUser, "A", "1", types.KindPlain))
	_, err := c.Undo()
	require.NoError(t, err)
	require.True(t, c.CanRedo())

	require.NoError(t, c.Add(types.ScopeUser, "B", "2", types.KindPlain))
	assert.False(t, c.CanRedo())
}

func TestSetSegmentsUndo(t *testing.T) {
	c, _ := newTestController(t)

	require.NoError(t, c.SetSegments(types.ScopeUser, "Path", []string{`C:\a`, `C:\b`}))
	require.NoError(t, c.SetSegments(types.ScopeUser, "Path", []string{`C:\b`, `C:\a`, `C:\c`}))

	v, err := c.Get(types.ScopeUser, "Path")
	require.NoError(t, err)
	assert.Equal(t, []string{`C:\b`, `C:\a`, `C:\c`}, v.Segments())

	_, err = c.Undo()
	require.NoError(t, err)
	v, err = c.Get(types.ScopeUser, "Path")
	require.NoError(t, err)
	assert.Equal(t, []string{`C:\a`, `C:\b`}, v.Segments())

	// Undoing the creating edit removes the variable entirely.
	_, err = c.Undo()
	require.NoError(t, err)
	_, err = c.Get(types.ScopeUser, "Path")
	assert.True(t, errors.Is(err, types.ErrNotFound), "got %v", err)
}

func TestSetSegmentsRejectsDuplicates(t *testing.T) {
	c, _ := newTestController(t)
	err := c.SetSegments(types.ScopeUser, "Path", []string{`C:\a`, `C:\b`, `c:\a\`})
	require.Error(t, err)
	assert.Equal(t, 0, snapshotCount(t, c))
}

func TestBroadcastOncePerMutation(t *testing.T) {
	c, mem := newTestController(t)

	require.NoError(t, c.Add(types.ScopeUser, "A", "1", types.KindPlain))
	assert.Equal(t, 1, mem.BroadcastCount)

	require.NoError(t, c.Update(types.ScopeUser, "A", "2"))
	assert.Equal(t, 2, mem.BroadcastCount)

	_, err := c.Undo()
	require.NoError(t, err)
	assert.Equal(t, 3, mem.BroadcastCount)

	require.NoError(t, c.Delete(types.ScopeUser, "A"))
	assert.Equal(t, 4, mem.BroadcastCount)
}

func TestSearch(t *testing.T) {
	c, _ := newTestController(t)
	require.NoError(t, c.Add(types.ScopeUser, "GOPATH", `C:\go`, types.KindPlain))
	require.NoError(t, c.Add(types.ScopeUser, "EDITOR", "nvim", types.KindPlain))
	require.NoError(t, c.Add(types.ScopeSystem, "JAVA_HOME", `C:\java`, types.KindPlain))

	hits, err := c.Search("go", SearchName)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "GOPATH", hits[0].Name)

	hits, err = c.Search("c:\\", SearchValue)
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	hits, err = c.Search("java", SearchBoth)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, types.ScopeSystem, hits[0].Scope)
}

// -----------------------------------------------------------------------------
// Bulk import
// -----------------------------------------------------------------------------

func importBatch(records ...types.Record) *types.ImportBatch {
	return &types.ImportBatch{Records: records}
}

func TestBulkImportApply(t *testing.T) {
	c, _ := newTestController(t)

	batch := importBatch(
		types.Record{Scope: types.ScopeUser, Name: "A", Value: "1", Kind: types.KindPlain, Action: types.ActionSet},
		types.Record{Scope: types.ScopeSystem, Name: "B", Value: "2", Kind: types.KindPlain, Action: types.ActionSet},
	)
	require.NoError(t, c.BulkImport(batch, types.ConflictSkip))

	_, err := c.Get(types.ScopeUser, "A")
	assert.NoError(t, err)
	_, err = c.Get(types.ScopeSystem, "B")
	assert.NoError(t, err)
}

func TestBulkImportConflictFailRejectsWholeBatch(t *testing.T) {
	c, _ := newTestController(t)
	require.NoError(t, c.Add(types.ScopeUser, "EXISTING", "old", types.KindPlain))

	records := make([]types.Record, 0, 10)
	for i := 0; i < 9; i++ {
		records = append(records, types.Record{
			Scope: types.ScopeUser, Name: fmt.Sprintf("FRESH_%d", i), Value: "1",
			Kind: types.KindPlain, Action: types.ActionSet,
		})
	}
	records = append(records, types.Record{
		Scope: types.ScopeUser, Name: "existing", Value: "new",
		Kind: types.KindPlain, Action: types.ActionSet,
	})
	err := c.BulkImport(importBatch(records...), types.ConflictFail)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrConflict), "got %v", err)

	var conflict *types.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, []string{"existing"}, conflict.Names)

	// Zero records applied: none of the fresh names landed, EXISTING kept
	// its value.
	set, err := c.Read(types.ScopeUser)
	require.NoError(t, err)
	require.Len(t, set.Vars, 1)
	v, err := c.Get(types.ScopeUser, "EXISTING")
	require.NoError(t, err)
	assert.Equal(t, "old", v.Value)
}

func TestBulkImportSkipKeepsExisting(t *testing.T) {
	c, _ := newTestController(t)
	require.NoError(t, c.Add(types.ScopeUser, "EXISTING", "old", types.KindPlain))

	batch := importBatch(
		types.Record{Scope: types.ScopeUser, Name: "EXISTING", Value: "new", Kind: types.KindPlain, Action: types.ActionSet},
		types.Record{Scope: types.ScopeUser, Name: "FRESH", Value: "1", Kind: types.KindPlain, Action: types.ActionSet},
	)
	require.NoError(t, c.BulkImport(batch, types.ConflictSkip))

	v, err := c.Get(types.ScopeUser, "EXISTING")
	require.NoError(t, err)
	assert.Equal(t, "old", v.Value)
	_, err = c.Get(types.ScopeUser, "FRESH")
	assert.NoError(t, err)
}

func TestBulkImportOverwriteUndo(t *testing.T) {
	c, _ := newTestController(t)
	require.NoError(t, c.Add(types.ScopeUser, "EXISTING", "old", types.KindPlain))

	batch := importBatch(
		types.Record{Scope: types.ScopeUser, Name: "EXISTING", Value: "new", Kind: types.KindPlain, Action: types.ActionSet},
		types.Record{Scope: types.ScopeUser, Name: "FRESH", Value: "1", Kind: types.KindPlain, Action: types.ActionSet},
	)
	require.NoError(t, c.BulkImport(batch, types.ConflictOverwrite))

	// One undo reverses the whole batch.
	_, err := c.Undo()
	require.NoError(t, err)

	v, err := c.Get(types.ScopeUser, "EXISTING")
	require.NoError(t, err)
	assert.Equal(t, "old", v.Value)
	_, err = c.Get(types.ScopeUser, "FRESH")
	assert.True(t, errors.Is(err, types.ErrNotFound))
}

func TestBulkImportDeleteRecords(t *testing.T) {
	c, _ := newTestController(t)
	require.NoError(t, c.Add(types.ScopeUser, "DOOMED", "x", types.KindPlain))

	batch := importBatch(
		types.Record{Scope: types.ScopeUser, Name: "DOOMED", Action: types.ActionDelete},
		types.Record{Scope: types.ScopeUser, Name: "NEVER_WAS", Action: types.ActionDelete},
	)
	require.NoError(t, c.BulkImport(batch, types.ConflictSkip))

	_, err := c.Get(types.ScopeUser, "DOOMED")
	assert.True(t, errors.Is(err, types.ErrNotFound))
}

func TestBulkImportPartialApply(t *testing.T) {
	c, mem := newTestController(t)
	mem.FailWriteOf = "BROKEN"

	batch := importBatch(
		types.Record{Scope: types.ScopeUser, Name: "FIRST", Value: "1", Kind: types.KindPlain, Action: types.ActionSet},
		types.Record{Scope: types.ScopeUser, Name: "BROKEN", Value: "2", Kind: types.KindPlain, Action: types.ActionSet},
		types.Record{Scope: types.ScopeUser, Name: "LAST", Value: "3", Kind: types.KindPlain, Action: types.ActionSet},
	)
	err := c.BulkImport(batch, types.ConflictSkip)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrPartialApply), "got %v", err)

	var partial *types.PartialApplyError
	require.True(t, errors.As(err, &partial))
	require.Len(t, partial.Applied, 1)
	assert.Equal(t, "FIRST", partial.Applied[0].Name)

	// The pre-batch snapshot exists for recovery, but the failed batch never
	// reached the undo history.
	assert.GreaterOrEqual(t, snapshotCount(t, c), 1)
	assert.False(t, c.CanUndo())
}

func TestBulkImportEmpty(t *testing.T) {
	c, _ := newTestController(t)
	assert.Error(t, c.BulkImport(nil, types.ConflictSkip))
	assert.Error(t, c.BulkImport(importBatch(), types.ConflictSkip))
}

// -----------------------------------------------------------------------------
// Snapshots and restore
// -----------------------------------------------------------------------------

func TestSnapshotAndRestore(t *testing.T) {
	c, _ := newTestController(t)
	require.NoError(t, c.Add(types.ScopeUser, "FOO", "original", types.KindPlain))

	info, err := c.Snapshot([]types.Scope{types.ScopeUser}, "baseline")
	require.NoError(t, err)

	require.NoError(t, c.Update(types.ScopeUser, "FOO", "changed"))
	require.NoError(t, c.Add(types.ScopeUser, "BAR", "later", types.KindPlain))

	require.NoError(t, c.Restore(info.ID))
	v, err := c.Get(types.ScopeUser, "FOO")
	require.NoError(t, err)
	assert.Equal(t, "original", v.Value)
	_, err = c.Get(types.ScopeUser, "BAR")
	assert.True(t, errors.Is(err, types.ErrNotFound))

	// Restore is a normal operation on the history: undoing it brings the
	// pre-restore state back, including the variable the restore removed.
	_, err = c.Undo()
	require.NoError(t, err)
	v, err = c.Get(types.ScopeUser, "FOO")
	require.NoError(t, err)
	assert.Equal(t, "changed", v.Value)
	v, err = c.Get(types.ScopeUser, "BAR")
	require.NoError(t, err)
	assert.Equal(t, "later", v.Value)
}

func TestRestoreReAddsDeletedVariable(t *testing.T) {
	c, _ := newTestController(t)
	require.NoError(t, c.Add(types.ScopeUser, "FOO", "keepme", types.KindPlain))

	info, err := c.Snapshot([]types.Scope{types.ScopeUser}, "")
	require.NoError(t, err)

	require.NoError(t, c.Delete(types.ScopeUser, "FOO"))
	require.NoError(t, c.Restore(info.ID))

	v, err := c.Get(types.ScopeUser, "FOO")
	require.NoError(t, err)
	assert.Equal(t, "keepme", v.Value)
}

func TestRestoreMissingSnapshot(t *testing.T) {
	c, _ := newTestController(t)
	err := c.Restore("20200101T000000Z-deadbeef")
	assert.True(t, errors.Is(err, types.ErrSnapshotNotFound), "got %v", err)
}

func TestMutationsCreateAutoBackups(t *testing.T) {
	c, _ := newTestController(t)
	require.NoError(t, c.Add(types.ScopeUser, "A", "1", types.KindPlain))
	assert.GreaterOrEqual(t, snapshotCount(t, c), 1)
}

func TestSkipAutoBackup(t *testing.T) {
	mem := envreg.NewMemory()
	dir := t.TempDir()
	c, err := New(mem, Config{BackupDir: dir, SkipAutoBackup: true})
	require.NoError(t, err)

	require.NoError(t, c.Add(types.ScopeUser, "A", "1", types.KindPlain))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// Undo still works without the snapshot; history is independent.
	_, err = c.Undo()
	require.NoError(t, err)
}

// -----------------------------------------------------------------------------
// Export / decode
// -----------------------------------------------------------------------------

func TestExportDecodeRoundTrip(t *testing.T) {
	c, _ := newTestController(t)
	require.NoError(t, c.Add(types.ScopeUser, "EDITOR", "nvim", types.KindPlain))
	require.NoError(t, c.SetSegments(types.ScopeUser, "Path", []string{`C:\go\bin`, `C:\tools`}))

	for _, format := range []string{"yaml", "json", "csv", "reg"} {
		data, err := c.ExportAll(format, types.ScopeUser)
		require.NoError(t, err, format)

		batch, err := DecodeBatch(format, data)
		require.NoError(t, err, format)
		assert.Len(t, batch.Records, 2, format)
	}
}

func TestExportAllUnknownFormat(t *testing.T) {
	c, _ := newTestController(t)
	_, err := c.ExportAll("xml")
	assert.Error(t, err)
}

func TestDecodeBatchFile(t *testing.T) {
	batch, err := DecodeBatchFile("vars.json", []byte(`[{"scope":"user","variables":[{"name":"X","value":"1"}]}]`))
	require.NoError(t, err)
	require.Len(t, batch.Records, 1)
	assert.Equal(t, "X", batch.Records[0].Name)

	_, err = DecodeBatchFile("noext", nil)
	assert.Error(t, err)
}

func TestCheckVariableWarnings(t *testing.T) {
	c, _ := newTestController(t)

	warnings, err := c.CheckVariable(types.Variable{
		Scope: types.ScopeUser,
		Name:  "Path",
		Value: `C:\definitely\not\a\real\dir\xyzzy`,
		Kind:  types.KindPathLike,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, warnings)

	_, err = c.CheckVariable(types.Variable{Scope: types.ScopeUser, Name: "", Value: "x"})
	assert.Error(t, err)
}
