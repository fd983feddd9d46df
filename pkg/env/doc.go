/*
Package env is the environment-variable management engine: reading,
validating, mutating, and safely rolling back the variables in the System and
User registry scopes.

# Quick Start

Open the live registry and set a variable:

	ctl, err := env.Open(env.DefaultConfig())
	if err != nil {
	    log.Fatal(err)
	}
	err = ctl.Add(types.ScopeUser, "GOPATH", `C:\Users\me\go`, types.KindPlain)

# Safety Discipline

Every mutating operation runs the same pipeline: validate, snapshot the
affected scopes, apply through the registry accessor, push a reversible
command, broadcast the change. A failure before the apply phase leaves the
registry untouched; a failure during a multi-record apply is reported with
the records already applied so the snapshot can reconcile.

Undo and redo operate on the in-session command history:

	desc, err := ctl.Undo()

History is bounded and ephemeral. Snapshots are the durable recovery path:

	info, err := ctl.Snapshot(types.BothScopes, "before cleanup")
	err = ctl.Restore(info.ID)

Restore pre-snapshots the live state first, so a restore is itself undoable.

# Import and Export

Batches decode from YAML, JSON, CSV, or regedit-compatible .reg bytes and are
validated as a unit before any record is applied:

	batch, err := env.DecodeBatch("yaml", data)
	err = ctl.BulkImport(batch, types.ConflictFail)

With ConflictFail, one colliding name rejects the whole batch and nothing is
applied.

# Concurrency

The controller serializes mutating operations through one mutex; reads
proceed concurrently with each other but never observe a half-applied batch.
No operation spawns background workers.
*/
package env
