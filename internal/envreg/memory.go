package envreg

import (
	"fmt"

	"github.com/winenv/envkit/pkg/types"
)

// Memory is an in-memory Accessor with the same contract as the live one,
// including the broadcast-per-successful-mutation side effect. It backs the
// engine's tests and non-Windows development builds.
type Memory struct {
	sets map[types.Scope]*types.VariableSet

	// DenySystemWrites makes System-scope mutations fail with AccessDenied,
	// simulating an unelevated process.
	DenySystemWrites bool

	// FailWriteOf makes writes of one (case-sensitive) name fail with a
	// generic error, for exercising partial-apply paths.
	FailWriteOf string

	// BroadcastCount counts Broadcast invocations.
	BroadcastCount int
}

// NewMemory returns an empty in-memory accessor.
func NewMemory() *Memory {
	return &Memory{
		sets: map[types.Scope]*types.VariableSet{
			types.ScopeUser:   types.NewVariableSet(types.ScopeUser),
			types.ScopeSystem: types.NewVariableSet(types.ScopeSystem),
		},
	}
}

func (m *Memory) Read(scope types.Scope) (*types.VariableSet, error) {
	return m.sets[scope].Clone(), nil
}

func (m *Memory) Write(scope types.Scope, name, value string, kind types.VarKind) error {
	if err := m.checkMutable(scope, name); err != nil {
		return err
	}
	m.sets[scope].Put(types.Variable{Scope: scope, Name: name, Value: value, Kind: kind})
	m.Broadcast()
	return nil
}

func (m *Memory) Delete(scope types.Scope, name string) error {
	if err := m.checkMutable(scope, name); err != nil {
		return err
	}
	if !m.sets[scope].Remove(name) {
		return &types.Error{
			Kind: types.ErrKindNotFound,
			Msg:  fmt.Sprintf("envreg: %s scope: delete %s", scope, name),
			Err:  types.ErrNotFound,
		}
	}
	m.Broadcast()
	return nil
}

func (m *Memory) CheckWritable(scope types.Scope) error {
	if scope == types.ScopeSystem && m.DenySystemWrites {
		return &types.Error{
			Kind: types.ErrKindAccessDenied,
			Msg:  fmt.Sprintf("envreg: %s scope: probe write access", scope),
			Err:  types.ErrAccessDenied,
		}
	}
	return nil
}

func (m *Memory) Broadcast() {
	m.BroadcastCount++
}

func (m *Memory) checkMutable(scope types.Scope, name string) error {
	if scope == types.ScopeSystem && m.DenySystemWrites {
		return &types.Error{
			Kind: types.ErrKindAccessDenied,
			Msg:  fmt.Sprintf("envreg: %s scope: %s", scope, name),
			Err:  types.ErrAccessDenied,
		}
	}
	if m.FailWriteOf != "" && m.FailWriteOf == name {
		return fmt.Errorf("envreg: simulated write failure for %s", name)
	}
	return nil
}
