// Package envreg provides typed access to the two registry keys holding
// environment variables. It carries no business logic: validation, backups,
// and undo live above it in the controller.
package envreg

import "github.com/winenv/envkit/pkg/types"

// Registry key paths, relative to their hive roots. They must match the keys
// the native Control Panel editor uses so changes are mutually visible.
const (
	// UserEnvKey holds User-scope variables under HKEY_CURRENT_USER.
	UserEnvKey = `Environment`

	// SystemEnvKey holds System-scope variables under HKEY_LOCAL_MACHINE.
	SystemEnvKey = `SYSTEM\CurrentControlSet\Control\Session Manager\Environment`
)

// Accessor is typed read/write/enumerate access to one machine's two
// variable scopes. Every Write and Delete that succeeds triggers Broadcast
// exactly once. Privilege failures on the System scope surface as
// types.ErrAccessDenied and are never retried; elevation is the caller's
// concern. Privilege is probed per call, not cached, since it can change
// between calls.
type Accessor interface {
	// Read enumerates one scope into a VariableSet.
	Read(scope types.Scope) (*types.VariableSet, error)

	// Write creates or replaces one variable. PathLike and %-referencing
	// values are stored as REG_EXPAND_SZ, everything else as REG_SZ.
	Write(scope types.Scope, name, value string, kind types.VarKind) error

	// Delete removes one variable. Missing names return types.ErrNotFound.
	Delete(scope types.Scope, name string) error

	// CheckWritable probes write access to a scope without mutating it.
	// Unelevated callers get types.ErrAccessDenied for the System scope.
	CheckWritable(scope types.Scope) error

	// Broadcast notifies other processes that the environment changed.
	// Best-effort: failures are logged, never returned, and never block.
	Broadcast()
}
