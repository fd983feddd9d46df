//go:build !windows

package envreg

import "github.com/winenv/envkit/pkg/types"

// OpenLive requires the Win32 registry; on other platforms it reports the
// engine unsupported. The in-memory accessor remains available for tests and
// development.
func OpenLive() (Accessor, error) {
	return nil, &types.Error{
		Kind: types.ErrKindState,
		Msg:  "envreg: live registry access requires windows",
	}
}
