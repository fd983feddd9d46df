// Package validate holds the pure validation rules applied to every edit,
// interactive or batch, before anything touches the registry.
package validate

import (
	"fmt"
	"os"
	"strings"

	"github.com/winenv/envkit/pkg/types"
)

// Validation sentinels. Contextual errors wrap these.
var (
	// ErrEmptyName indicates a name that is empty or whitespace-only.
	ErrEmptyName = &types.Error{Kind: types.ErrKindValidation, Msg: "validate: empty name"}

	// ErrIllegalCharacter indicates a character the environment block cannot hold.
	ErrIllegalCharacter = &types.Error{Kind: types.ErrKindValidation, Msg: "validate: illegal character"}

	// ErrReservedName indicates a name the command processor provides dynamically.
	ErrReservedName = &types.Error{Kind: types.ErrKindValidation, Msg: "validate: reserved name"}

	// ErrTooLong indicates a name or value beyond the Windows limit.
	ErrTooLong = &types.Error{Kind: types.ErrKindValidation, Msg: "validate: too long"}

	// ErrEmptySegment indicates an empty entry in a PathLike value.
	ErrEmptySegment = &types.Error{Kind: types.ErrKindValidation, Msg: "validate: empty path segment"}

	// ErrDuplicateSegment indicates a repeated entry in a PathLike value.
	ErrDuplicateSegment = &types.Error{Kind: types.ErrKindValidation, Msg: "validate: duplicate path segment"}
)

// reservedNames are pseudo-variables cmd.exe computes per reference; storing
// them in the registry shadows the dynamic behavior and confuses every shell.
var reservedNames = map[string]bool{
	"cd":            true,
	"date":          true,
	"time":          true,
	"random":        true,
	"errorlevel":    true,
	"cmdcmdline":    true,
	"cmdextversion": true,
}

// DuplicateSegmentError pinpoints a repeated PathLike segment.
type DuplicateSegmentError struct {
	Segment    string
	Index      int // index of the duplicate occurrence
	FirstIndex int // index of the original occurrence it repeats
}

func (e *DuplicateSegmentError) Error() string {
	return fmt.Sprintf("validate: duplicate path segment %q at index %d (first at %d)", e.Segment, e.Index, e.FirstIndex)
}

func (e *DuplicateSegmentError) Unwrap() error { return ErrDuplicateSegment }

// Warning is a non-fatal validation finding. Warnings never block an edit.
type Warning struct {
	Segment string
	Index   int
	Message string
}

// StatDir reports whether a directory exists. Swappable so segment checks
// stay deterministic under test; the default probes the filesystem.
var StatDir = func(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Name checks an environment variable name: non-empty, within the Windows
// length limit, free of '=' and NUL, and not a reserved dynamic name.
func Name(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if len(name) > types.MaxNameLen {
		return &types.Error{
			Kind: types.ErrKindValidation,
			Msg:  fmt.Sprintf("validate: name %q exceeds %d characters", name[:16]+"...", types.MaxNameLen),
			Err:  ErrTooLong,
		}
	}
	if strings.ContainsAny(name, "=\x00") {
		return &types.Error{
			Kind: types.ErrKindValidation,
			Msg:  fmt.Sprintf("validate: name %q contains an illegal character", name),
			Err:  ErrIllegalCharacter,
		}
	}
	if reservedNames[strings.ToLower(name)] {
		return &types.Error{
			Kind: types.ErrKindValidation,
			Msg:  fmt.Sprintf("validate: %q is a reserved dynamic name", name),
			Err:  ErrReservedName,
		}
	}
	return nil
}

// Value checks a variable value against the Windows environment block limits.
// The same rules apply to both kinds; PathLike values additionally go through
// Segments.
func Value(kind types.VarKind, value string) error {
	if len(value) > types.MaxValueLen {
		return &types.Error{
			Kind: types.ErrKindValidation,
			Msg:  fmt.Sprintf("validate: value exceeds %d characters", types.MaxValueLen),
			Err:  ErrTooLong,
		}
	}
	if strings.ContainsRune(value, '\x00') {
		return &types.Error{
			Kind: types.ErrKindValidation,
			Msg:  "validate: value contains NUL",
			Err:  ErrIllegalCharacter,
		}
	}
	return nil
}

// SegmentKey normalizes a segment for duplicate comparison: case folded,
// surrounding whitespace removed, trailing path separators trimmed. "C:\Go\"
// and "c:\go" count as the same directory.
func SegmentKey(segment string) string {
	s := strings.TrimSpace(segment)
	s = strings.TrimRight(s, `\/`)
	return strings.ToLower(s)
}

// Segments checks an ordered PathLike segment list. Empty and duplicate
// segments are fatal; segments pointing at directories that do not exist (or
// exceeding the classic MAX_PATH) are returned as warnings only.
func Segments(segments []string) ([]Warning, error) {
	seen := make(map[string]int, len(segments))
	var warnings []Warning
	for i, seg := range segments {
		key := SegmentKey(seg)
		if key == "" {
			return nil, &types.Error{
				Kind: types.ErrKindValidation,
				Msg:  fmt.Sprintf("validate: empty path segment at index %d", i),
				Err:  ErrEmptySegment,
			}
		}
		if first, dup := seen[key]; dup {
			return nil, &DuplicateSegmentError{Segment: seg, Index: i, FirstIndex: first}
		}
		seen[key] = i
		if len(seg) > types.MaxSegmentLen {
			warnings = append(warnings, Warning{
				Segment: seg,
				Index:   i,
				Message: fmt.Sprintf("segment exceeds %d characters", types.MaxSegmentLen),
			})
		}
		if expanded := expandPercent(seg); !StatDir(expanded) {
			warnings = append(warnings, Warning{
				Segment: seg,
				Index:   i,
				Message: "directory does not exist",
			})
		}
	}
	return warnings, nil
}

// Variable runs the full rule set for one variable: name, value, and (for
// PathLike) segments. Returned warnings are advisory.
func Variable(v types.Variable) ([]Warning, error) {
	if err := Name(v.Name); err != nil {
		return nil, err
	}
	if err := Value(v.Kind, v.Value); err != nil {
		return nil, err
	}
	if v.Kind == types.KindPathLike {
		return Segments(v.Segments())
	}
	return nil, nil
}

// expandPercent resolves %NAME% references against the process environment so
// existence warnings on segments like %JAVA_HOME%\bin check the real path.
// Unmatched or unknown references are left verbatim.
func expandPercent(s string) string {
	var b strings.Builder
	for {
		i := strings.IndexByte(s, '%')
		if i < 0 {
			b.WriteString(s)
			return b.String()
		}
		j := strings.IndexByte(s[i+1:], '%')
		if j < 0 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:i])
		name := s[i+1 : i+1+j]
		if v := os.Getenv(name); v != "" {
			b.WriteString(v)
		} else {
			b.WriteString(s[i : i+j+2])
		}
		s = s[i+j+2:]
	}
}
