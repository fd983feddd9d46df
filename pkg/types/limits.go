package types

// ============================================================================
// Windows Environment Block Limits
// ============================================================================
// These constants define the limits Windows imposes on environment variables.
// They are checked by the validator before any registry write.

const (
	// MaxValueLen is the hard limit for an environment variable's value,
	// in characters. This is the documented cap for the whole expanded
	// PATH as well; exceeding it silently truncates in some shells.
	MaxValueLen = 32767

	// MaxNameLen is the practical limit for an environment variable name.
	// Windows accepts longer registry value names, but the environment
	// block APIs and the Control Panel editor cap at this length.
	MaxNameLen = 255

	// MaxSegmentLen is the classic MAX_PATH limit for a single PATH
	// segment. Long-path-aware systems accept more, so exceeding it is a
	// warning rather than an error.
	MaxSegmentLen = 260
)
