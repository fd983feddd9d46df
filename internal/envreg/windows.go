//go:build windows

package envreg

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/rs/zerolog"
	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"

	"github.com/winenv/envkit/internal/logging"
	"github.com/winenv/envkit/pkg/types"
)

const (
	hwndBroadcast    = 0xFFFF
	wmSettingChange  = 0x001A
	smtoAbortIfHung  = 0x0002
	broadcastTimeout = 5000 // milliseconds
)

var (
	user32             = windows.NewLazySystemDLL("user32.dll")
	sendMessageTimeout = user32.NewProc("SendMessageTimeoutW")
)

// liveAccessor talks to the real registry through the Win32 registry API.
type liveAccessor struct {
	log zerolog.Logger
}

// OpenLive returns the Accessor backed by the live registry.
func OpenLive() (Accessor, error) {
	return &liveAccessor{log: logging.Logger("envreg")}, nil
}

func rootFor(scope types.Scope) (registry.Key, string) {
	if scope == types.ScopeSystem {
		return registry.LOCAL_MACHINE, SystemEnvKey
	}
	return registry.CURRENT_USER, UserEnvKey
}

func (a *liveAccessor) Read(scope types.Scope) (*types.VariableSet, error) {
	root, path := rootFor(scope)
	k, err := registry.OpenKey(root, path, registry.QUERY_VALUE)
	if err != nil {
		return nil, wrapRegError(scope, "open", err)
	}
	defer k.Close()

	names, err := k.ReadValueNames(-1)
	if err != nil {
		return nil, wrapRegError(scope, "enumerate", err)
	}
	set := types.NewVariableSet(scope)
	for _, name := range names {
		value, _, err := k.GetStringValue(name)
		if err != nil {
			if errors.Is(err, registry.ErrUnexpectedType) {
				// Non-string values under the environment keys are not
				// environment variables; skip them.
				a.log.Debug().Str("scope", scope.String()).Str("name", name).Msg("skipping non-string value")
				continue
			}
			return nil, wrapRegError(scope, "read "+name, err)
		}
		set.Put(types.Variable{Scope: scope, Name: name, Value: value, Kind: types.DetectKind(name)})
	}
	return set, nil
}

func (a *liveAccessor) Write(scope types.Scope, name, value string, kind types.VarKind) error {
	root, path := rootFor(scope)
	k, err := registry.OpenKey(root, path, registry.SET_VALUE)
	if err != nil {
		return wrapRegError(scope, "open for write", err)
	}
	defer k.Close()

	v := types.Variable{Name: name, Value: value, Kind: kind}
	if v.Expandable() {
		err = k.SetExpandStringValue(name, value)
	} else {
		err = k.SetStringValue(name, value)
	}
	if err != nil {
		return wrapRegError(scope, "write "+name, err)
	}
	a.Broadcast()
	return nil
}

func (a *liveAccessor) Delete(scope types.Scope, name string) error {
	root, path := rootFor(scope)
	k, err := registry.OpenKey(root, path, registry.SET_VALUE)
	if err != nil {
		return wrapRegError(scope, "open for delete", err)
	}
	defer k.Close()

	if err := k.DeleteValue(name); err != nil {
		return wrapRegError(scope, "delete "+name, err)
	}
	a.Broadcast()
	return nil
}

func (a *liveAccessor) CheckWritable(scope types.Scope) error {
	root, path := rootFor(scope)
	k, err := registry.OpenKey(root, path, registry.SET_VALUE)
	if err != nil {
		return wrapRegError(scope, "probe write access", err)
	}
	return k.Close()
}

// Broadcast posts WM_SETTINGCHANGE "Environment" to every top-level window so
// shells and Explorer refresh their environment blocks. Failure is logged at
// warn and never escalated; the registry change has already committed.
func (a *liveAccessor) Broadcast() {
	param, err := windows.UTF16PtrFromString("Environment")
	if err != nil {
		a.log.Warn().Err(err).Msg("environment change broadcast skipped")
		return
	}
	var result uintptr
	r, _, callErr := sendMessageTimeout.Call(
		uintptr(hwndBroadcast),
		uintptr(wmSettingChange),
		0,
		uintptr(unsafe.Pointer(param)),
		uintptr(smtoAbortIfHung),
		uintptr(broadcastTimeout),
		uintptr(unsafe.Pointer(&result)),
	)
	if r == 0 {
		a.log.Warn().Err(callErr).Msg("environment change broadcast failed")
	}
}

// wrapRegError converts Win32 registry failures into the engine's taxonomy,
// keeping scope and operation context.
func wrapRegError(scope types.Scope, op string, err error) error {
	msg := fmt.Sprintf("envreg: %s scope: %s", scope, op)
	switch {
	case errors.Is(err, windows.ERROR_ACCESS_DENIED):
		return &types.Error{Kind: types.ErrKindAccessDenied, Msg: msg, Err: types.ErrAccessDenied}
	case errors.Is(err, registry.ErrNotExist):
		return &types.Error{Kind: types.ErrKindNotFound, Msg: msg, Err: types.ErrNotFound}
	default:
		return &types.Error{Kind: types.ErrKindState, Msg: msg, Err: err}
	}
}
