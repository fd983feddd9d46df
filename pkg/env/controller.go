package env

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/winenv/envkit/internal/backup"
	"github.com/winenv/envkit/internal/codec"
	"github.com/winenv/envkit/internal/envreg"
	"github.com/winenv/envkit/internal/logging"
	"github.com/winenv/envkit/internal/undo"
	"github.com/winenv/envkit/internal/validate"
	"github.com/winenv/envkit/pkg/types"
)

// SearchField selects which variable fields Search matches against.
type SearchField int

const (
	SearchName SearchField = iota
	SearchValue
	SearchBoth
)

// Controller orchestrates the accessor, validator, backup manager, and undo
// stack behind the engine's public operations. Mutations serialize through
// one mutex; reads share it.
type Controller struct {
	mu      sync.RWMutex
	cfg     Config
	acc     envreg.Accessor
	backups *backup.Manager
	history *undo.Stack

	// kinds pins each touched name to one kind for the session, upholding
	// the no-kind-change-mid-session invariant.
	kinds map[string]types.VarKind

	log zerolog.Logger
}

// New builds a controller over the given accessor. cfg zero-values fall back
// to DefaultConfig.
func New(acc envreg.Accessor, cfg Config) (*Controller, error) {
	if acc == nil {
		return nil, &types.Error{Kind: types.ErrKindState, Msg: "env: nil accessor"}
	}
	cfg = cfg.withDefaults()
	backups, err := backup.New(cfg.BackupDir, cfg.Retention)
	if err != nil {
		return nil, err
	}
	return &Controller{
		cfg:     cfg,
		acc:     acc,
		backups: backups,
		history: undo.NewStack(cfg.UndoLimit),
		kinds:   make(map[string]types.VarKind),
		log:     logging.Logger("env"),
	}, nil
}

// Open wires a controller to the live registry. It fails on platforms
// without one.
func Open(cfg Config) (*Controller, error) {
	acc, err := envreg.OpenLive()
	if err != nil {
		return nil, err
	}
	return New(acc, cfg)
}

// -----------------------------------------------------------------------------
// Read-only operations
// -----------------------------------------------------------------------------

// Read enumerates one scope.
func (c *Controller) Read(scope types.Scope) (*types.VariableSet, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.acc.Read(scope)
}

// Get returns one variable by case-insensitive name.
func (c *Controller) Get(scope types.Scope, name string) (types.Variable, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	set, err := c.acc.Read(scope)
	if err != nil {
		return types.Variable{}, err
	}
	v, ok := set.Lookup(name)
	if !ok {
		return types.Variable{}, c.notFound(scope, name)
	}
	return v, nil
}

// Search returns variables from both scopes whose name and/or value contains
// the query, case-insensitively.
func (c *Controller) Search(query string, field SearchField) ([]types.Variable, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	q := strings.ToLower(query)
	var out []types.Variable
	for _, scope := range types.BothScopes {
		set, err := c.acc.Read(scope)
		if err != nil {
			return nil, err
		}
		for _, v := range set.Vars {
			nameHit := strings.Contains(strings.ToLower(v.Name), q)
			valueHit := strings.Contains(strings.ToLower(v.Value), q)
			switch field {
			case SearchName:
				valueHit = false
			case SearchValue:
				nameHit = false
			}
			if nameHit || valueHit {
				out = append(out, v)
			}
		}
	}
	return out, nil
}

// ExportAll serializes the given scopes in the named format ("yaml", "json",
// "csv", "reg").
func (c *Controller) ExportAll(format string, scopes ...types.Scope) ([]byte, error) {
	f, err := codec.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	if len(scopes) == 0 {
		scopes = types.BothScopes
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	sets := make([]*types.VariableSet, 0, len(scopes))
	for _, scope := range scopes {
		set, err := c.acc.Read(scope)
		if err != nil {
			return nil, err
		}
		sets = append(sets, set)
	}
	return codec.For(f).Encode(sets)
}

// DecodeBatch parses external bytes into a not-yet-applied import batch.
func DecodeBatch(format string, data []byte) (*types.ImportBatch, error) {
	f, err := codec.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	return codec.For(f).Decode(data)
}

// DecodeBatchFile picks the codec from the file extension.
func DecodeBatchFile(path string, data []byte) (*types.ImportBatch, error) {
	cd, err := codec.ForPath(path)
	if err != nil {
		return nil, err
	}
	return cd.Decode(data)
}

// CheckVariable runs the full validation rule set without touching the
// registry, returning advisory warnings (e.g. PATH segments whose directory
// does not exist).
func (c *Controller) CheckVariable(v types.Variable) ([]string, error) {
	warnings, err := validate.Variable(v)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(warnings))
	for _, w := range warnings {
		out = append(out, fmt.Sprintf("segment %d (%s): %s", w.Index, w.Segment, w.Message))
	}
	return out, nil
}

// -----------------------------------------------------------------------------
// Single-variable mutations
// -----------------------------------------------------------------------------

// Add creates a variable. It fails with a conflict if the name already
// exists in the scope (case-insensitively).
func (c *Controller) Add(scope types.Scope, name, value string, kind types.VarKind) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	set, err := c.validateWrite(scope, name, value, kind)
	if err != nil {
		return err
	}
	if _, exists := set.Lookup(name); exists {
		return &types.Error{
			Kind: types.ErrKindConflict,
			Msg:  fmt.Sprintf("env: %s already exists in %s scope", name, scope),
			Err:  types.ErrConflict,
		}
	}
	cmd := &undo.Command{
		Desc:    fmt.Sprintf("add %s (%s)", name, scope),
		Scope:   scope,
		Name:    name,
		Forward: func() error { return c.acc.Write(scope, name, value, kind) },
		Inverse: func() error { return c.acc.Delete(scope, name) },
	}
	return c.commit([]types.Scope{scope}, cmd)
}

// Update replaces an existing variable's value, preserving its kind. It
// fails with NotFound if the name is absent.
func (c *Controller) Update(scope types.Scope, name, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	set, err := c.acc.Read(scope)
	if err != nil {
		return err
	}
	prev, exists := set.Lookup(name)
	if !exists {
		return c.notFound(scope, name)
	}
	if _, err := c.validateWrite(scope, name, value, prev.Kind); err != nil {
		return err
	}
	cmd := &undo.Command{
		Desc:    fmt.Sprintf("update %s (%s)", name, scope),
		Scope:   scope,
		Name:    name,
		Forward: func() error { return c.acc.Write(scope, name, value, prev.Kind) },
		Inverse: func() error { return c.acc.Write(scope, prev.Name, prev.Value, prev.Kind) },
	}
	return c.commit([]types.Scope{scope}, cmd)
}

// Delete removes a variable. It fails with NotFound, leaving the scope
// untouched, if the name is absent.
func (c *Controller) Delete(scope types.Scope, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	set, err := c.acc.Read(scope)
	if err != nil {
		return err
	}
	prev, exists := set.Lookup(name)
	if !exists {
		return c.notFound(scope, name)
	}
	if err := c.acc.CheckWritable(scope); err != nil {
		return err
	}
	cmd := &undo.Command{
		Desc:    fmt.Sprintf("delete %s (%s)", name, scope),
		Scope:   scope,
		Name:    name,
		Forward: func() error { return c.acc.Delete(scope, prev.Name) },
		Inverse: func() error { return c.acc.Write(scope, prev.Name, prev.Value, prev.Kind) },
	}
	return c.commit([]types.Scope{scope}, cmd)
}

// SetSegments replaces the ordered segment list of a PathLike variable,
// creating it if absent. This is the add/remove/reorder primitive for PATH
// editing; segment order is preserved exactly as given.
func (c *Controller) SetSegments(scope types.Scope, name string, segments []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	value := types.JoinSegments(segments)
	set, err := c.validateWrite(scope, name, value, types.KindPathLike)
	if err != nil {
		return err
	}
	prev, existed := set.Lookup(name)
	cmd := &undo.Command{
		Desc:    fmt.Sprintf("edit segments of %s (%s)", name, scope),
		Scope:   scope,
		Name:    name,
		Forward: func() error { return c.acc.Write(scope, name, value, types.KindPathLike) },
		Inverse: func() error {
			if !existed {
				return c.acc.Delete(scope, name)
			}
			return c.acc.Write(scope, prev.Name, prev.Value, prev.Kind)
		},
	}
	return c.commit([]types.Scope{scope}, cmd)
}

// -----------------------------------------------------------------------------
// Bulk import
// -----------------------------------------------------------------------------

// BulkImport validates the whole batch, then applies it under the conflict
// policy. With ConflictFail, one existing name rejects the whole batch with
// a ConflictError and nothing is applied. A failure partway through the
// apply phase is fatal for the batch and reported as a PartialApplyError
// listing the records that did land.
func (c *Controller) BulkImport(batch *types.ImportBatch, policy types.ConflictPolicy) error {
	if batch == nil || len(batch.Records) == 0 {
		return &types.Error{Kind: types.ErrKindValidation, Msg: "env: empty import batch"}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	scopes := batch.Scopes()

	// Validating: every record, before anything is applied.
	pre := make(map[types.Scope]*types.VariableSet, len(scopes))
	for _, scope := range scopes {
		set, err := c.acc.Read(scope)
		if err != nil {
			return err
		}
		pre[scope] = set
		if err := c.acc.CheckWritable(scope); err != nil {
			return err
		}
	}
	var conflicts []string
	apply := make([]types.Record, 0, len(batch.Records))
	for _, rec := range batch.Records {
		if rec.Action == types.ActionSet {
			if _, err := validate.Variable(types.Variable{Scope: rec.Scope, Name: rec.Name, Value: rec.Value, Kind: rec.Kind}); err != nil {
				return err
			}
			if err := c.pinKind(rec.Scope, rec.Name, rec.Kind); err != nil {
				return err
			}
			if _, exists := pre[rec.Scope].Lookup(rec.Name); exists {
				switch policy {
				case types.ConflictFail:
					conflicts = append(conflicts, rec.Name)
					continue
				case types.ConflictSkip:
					continue
				}
			}
		} else if _, exists := pre[rec.Scope].Lookup(rec.Name); !exists {
			// Deleting an absent name is a no-op, as regedit treats it.
			continue
		}
		apply = append(apply, rec)
	}
	if len(conflicts) > 0 {
		return &types.ConflictError{Names: conflicts}
	}

	run := func() error {
		applied := make([]types.Record, 0, len(apply))
		for _, rec := range apply {
			var err error
			if rec.Action == types.ActionDelete {
				err = c.acc.Delete(rec.Scope, rec.Name)
			} else {
				err = c.acc.Write(rec.Scope, rec.Name, rec.Value, rec.Kind)
			}
			if err != nil {
				return &types.PartialApplyError{Applied: applied, Err: err}
			}
			applied = append(applied, rec)
		}
		return nil
	}
	inverse := func() error {
		for i := len(apply) - 1; i >= 0; i-- {
			rec := apply[i]
			prev, existed := pre[rec.Scope].Lookup(rec.Name)
			var err error
			if existed {
				err = c.acc.Write(rec.Scope, prev.Name, prev.Value, prev.Kind)
			} else {
				err = c.acc.Delete(rec.Scope, rec.Name)
			}
			if err != nil {
				return err
			}
		}
		return nil
	}
	cmd := &undo.Command{
		Desc:    fmt.Sprintf("import %d record(s), policy %s", len(apply), policy),
		Forward: run,
		Inverse: inverse,
	}
	return c.commit(scopes, cmd)
}

// -----------------------------------------------------------------------------
// Undo / redo / restore
// -----------------------------------------------------------------------------

// Undo reverses the most recent committed operation and returns its
// description. Fails with NothingToUndo on empty history.
func (c *Controller) Undo() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cmd, err := c.history.Undo()
	if err != nil {
		return "", err
	}
	if err := cmd.Inverse(); err != nil {
		// The inverse failed partway; state is between two known points.
		// Reported, never retried; snapshots remain the recovery path.
		return "", fmt.Errorf("env: undo of %q failed: %w", cmd.Desc, err)
	}
	c.log.Info().Str("op", cmd.Desc).Msg("undone")
	return cmd.Desc, nil
}

// Redo replays the most recently undone operation.
func (c *Controller) Redo() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cmd, err := c.history.Redo()
	if err != nil {
		return "", err
	}
	if err := cmd.Forward(); err != nil {
		return "", fmt.Errorf("env: redo of %q failed: %w", cmd.Desc, err)
	}
	c.log.Info().Str("op", cmd.Desc).Msg("redone")
	return cmd.Desc, nil
}

// Restore rewrites the captured scopes of a snapshot over the live registry.
// It is a mutating operation like any other: the pre-restore state is
// snapshotted first and the restore lands on the undo history.
func (c *Controller) Restore(snapshotID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	target, info, err := c.backups.Load(snapshotID)
	if err != nil {
		return err
	}
	pre := make(map[types.Scope]*types.VariableSet, len(target))
	for scope := range target {
		cur, err := c.acc.Read(scope)
		if err != nil {
			return err
		}
		pre[scope] = cur
		if err := c.acc.CheckWritable(scope); err != nil {
			return err
		}
	}
	cmd := &undo.Command{
		Desc:    fmt.Sprintf("restore snapshot %s", info.ID),
		Forward: func() error { return c.applyState(target, pre) },
		Inverse: func() error { return c.applyState(pre, target) },
	}
	return c.commit(info.Scopes, cmd)
}

// applyState drives each scope from a reference state to a desired state:
// write what differs, delete what the desired state lacks.
func (c *Controller) applyState(desired, reference map[types.Scope]*types.VariableSet) error {
	for scope, want := range desired {
		have := reference[scope]
		for _, v := range want.Vars {
			if cur, ok := have.Lookup(v.Name); ok && cur.Value == v.Value && cur.Kind == v.Kind {
				continue
			}
			if err := c.acc.Write(scope, v.Name, v.Value, v.Kind); err != nil {
				return err
			}
		}
		for _, name := range have.Names() {
			if _, keep := want.Lookup(name); !keep {
				if err := c.acc.Delete(scope, name); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// -----------------------------------------------------------------------------
// Snapshots
// -----------------------------------------------------------------------------

// Snapshot captures the given scopes on demand without mutating them.
func (c *Controller) Snapshot(scopes []types.Scope, note string) (types.SnapshotInfo, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(scopes) == 0 {
		scopes = types.BothScopes
	}
	sets := make([]*types.VariableSet, 0, len(scopes))
	for _, scope := range scopes {
		set, err := c.acc.Read(scope)
		if err != nil {
			return types.SnapshotInfo{}, err
		}
		sets = append(sets, set)
	}
	return c.backups.Create(sets, note)
}

// ListSnapshots returns all snapshots, newest first.
func (c *Controller) ListSnapshots() ([]types.SnapshotInfo, error) {
	return c.backups.List()
}

// PruneSnapshots applies the retention policy and reports how many
// snapshots were removed.
func (c *Controller) PruneSnapshots() (int, error) {
	return c.backups.Prune()
}

// DeleteSnapshot removes one snapshot explicitly.
func (c *Controller) DeleteSnapshot(id string) error {
	return c.backups.Delete(id)
}

// CanUndo reports whether in-session history is available.
func (c *Controller) CanUndo() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.history.CanUndo()
}

// CanRedo reports whether a redo future is available.
func (c *Controller) CanRedo() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.history.CanRedo()
}

// -----------------------------------------------------------------------------
// Pipeline internals
// -----------------------------------------------------------------------------

// validateWrite runs the Validating phase for one variable write: rules,
// kind pinning, and the privilege probe. It returns the scope's current set
// for existence decisions. No registry change and no snapshot happen here.
func (c *Controller) validateWrite(scope types.Scope, name, value string, kind types.VarKind) (*types.VariableSet, error) {
	warnings, err := validate.Variable(types.Variable{Scope: scope, Name: name, Value: value, Kind: kind})
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		c.log.Warn().
			Str("name", name).
			Int("segment", w.Index).
			Str("value", w.Segment).
			Msg(w.Message)
	}
	if err := c.pinKind(scope, name, kind); err != nil {
		return nil, err
	}
	if err := c.acc.CheckWritable(scope); err != nil {
		return nil, err
	}
	return c.acc.Read(scope)
}

// commit runs BackingUp → Applying → (accessor-level Notifying) for an
// already-validated command. Failures before Applying leave the registry
// unchanged; Applying failures are surfaced verbatim, never retried.
func (c *Controller) commit(scopes []types.Scope, cmd *undo.Command) error {
	if !c.cfg.SkipAutoBackup {
		sets := make([]*types.VariableSet, 0, len(scopes))
		for _, scope := range scopes {
			set, err := c.acc.Read(scope)
			if err != nil {
				return err
			}
			sets = append(sets, set)
		}
		if _, err := c.backups.Create(sets, cmd.Desc); err != nil {
			return err
		}
	}
	if err := cmd.Forward(); err != nil {
		return err
	}
	c.history.Push(cmd)
	c.log.Info().Str("op", cmd.Desc).Msg("committed")
	return nil
}

func (c *Controller) pinKind(scope types.Scope, name string, kind types.VarKind) error {
	key := scope.String() + "\x00" + strings.ToLower(name)
	if pinned, ok := c.kinds[key]; ok && pinned != kind {
		return &types.Error{
			Kind: types.ErrKindState,
			Msg:  fmt.Sprintf("env: %s changed kind from %s to %s mid-session", name, pinned, kind),
			Err:  types.ErrKindMismatch,
		}
	}
	c.kinds[key] = kind
	return nil
}

func (c *Controller) notFound(scope types.Scope, name string) error {
	return &types.Error{
		Kind: types.ErrKindNotFound,
		Msg:  fmt.Sprintf("env: %s not found in %s scope", name, scope),
		Err:  types.ErrNotFound,
	}
}
