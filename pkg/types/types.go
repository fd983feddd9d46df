package types

import (
	"sort"
	"strings"
	"time"
)

// -----------------------------------------------------------------------------
// Scopes
// -----------------------------------------------------------------------------

// Scope identifies which registry root a variable belongs to. System-scope
// writes require elevation; User-scope writes do not.
type Scope int

const (
	// ScopeUser is the per-account namespace under HKEY_CURRENT_USER.
	ScopeUser Scope = iota
	// ScopeSystem is the machine-wide namespace under HKEY_LOCAL_MACHINE.
	ScopeSystem
)

// BothScopes lists every scope, in the order exports enumerate them.
var BothScopes = []Scope{ScopeUser, ScopeSystem}

func (s Scope) String() string {
	switch s {
	case ScopeUser:
		return "user"
	case ScopeSystem:
		return "system"
	default:
		return "unknown"
	}
}

// ParseScope converts a textual scope name ("user", "system") to a Scope.
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user":
		return ScopeUser, nil
	case "system", "machine":
		return ScopeSystem, nil
	default:
		return 0, &Error{Kind: ErrKindValidation, Msg: "unknown scope " + s}
	}
}

// -----------------------------------------------------------------------------
// Variables
// -----------------------------------------------------------------------------

// VarKind distinguishes opaque string variables from ordered path lists.
type VarKind int

const (
	// KindPlain is an opaque string value.
	KindPlain VarKind = iota
	// KindPathLike is an ordered sequence of path segments joined by the
	// platform separator (PATH and similarly structured entries).
	KindPathLike
)

func (k VarKind) String() string {
	if k == KindPathLike {
		return "pathlike"
	}
	return "plain"
}

// ParseKind converts a textual kind name to a VarKind.
func ParseKind(s string) (VarKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "plain":
		return KindPlain, nil
	case "pathlike", "path":
		return KindPathLike, nil
	default:
		return 0, &Error{Kind: ErrKindValidation, Msg: "unknown kind " + s}
	}
}

// PathSeparator joins PathLike segments. Windows environment blocks use ';'
// regardless of the shell in use.
const PathSeparator = ";"

// pathLikeNames are variables whose values are conventionally ';'-joined
// ordered lists. Used when an import format carries no explicit kind.
var pathLikeNames = map[string]bool{
	"path":         true,
	"pathext":      true,
	"psmodulepath": true,
	"classpath":    true,
	"include":      true,
	"lib":          true,
	"libpath":      true,
}

// DetectKind guesses the kind of an imported variable when the source format
// does not carry one. Well-known list-valued names are PathLike; everything
// else is Plain.
func DetectKind(name string) VarKind {
	if pathLikeNames[strings.ToLower(name)] {
		return KindPathLike
	}
	return KindPlain
}

// Variable is one named entry in a scope. Names are unique within a scope
// under case-insensitive comparison; values are case-preserving.
type Variable struct {
	Scope Scope
	Name  string
	Value string
	Kind  VarKind
}

// Segments splits a PathLike value into its ordered segments. The split
// preserves authored order and drops nothing, including empty segments, so
// validation can point at them by index.
func (v Variable) Segments() []string {
	if v.Value == "" {
		return nil
	}
	return strings.Split(v.Value, PathSeparator)
}

// JoinSegments builds a PathLike value from ordered segments.
func JoinSegments(segments []string) string {
	return strings.Join(segments, PathSeparator)
}

// Expandable reports whether the variable should round-trip through the
// registry as REG_EXPAND_SZ. PathLike values always do; Plain values do when
// they reference other variables with %NAME% syntax.
func (v Variable) Expandable() bool {
	if v.Kind == KindPathLike {
		return true
	}
	return strings.Count(v.Value, "%") >= 2
}

// -----------------------------------------------------------------------------
// Variable sets
// -----------------------------------------------------------------------------

// VariableSet is the full collection of variables for one scope at one point
// in time. Entry order is insignificant; the set keeps entries sorted by
// folded name so exports and comparisons are deterministic. Segment order
// inside a PathLike value is significant and preserved exactly.
type VariableSet struct {
	Scope Scope
	Vars  []Variable
}

// NewVariableSet returns an empty set for the scope.
func NewVariableSet(scope Scope) *VariableSet {
	return &VariableSet{Scope: scope}
}

// Lookup finds a variable by case-insensitive name.
func (s *VariableSet) Lookup(name string) (Variable, bool) {
	for _, v := range s.Vars {
		if strings.EqualFold(v.Name, name) {
			return v, true
		}
	}
	return Variable{}, false
}

// Put inserts or replaces a variable, keyed case-insensitively by name.
func (s *VariableSet) Put(v Variable) {
	v.Scope = s.Scope
	for i, existing := range s.Vars {
		if strings.EqualFold(existing.Name, v.Name) {
			s.Vars[i] = v
			return
		}
	}
	s.Vars = append(s.Vars, v)
	sort.Slice(s.Vars, func(i, j int) bool {
		return strings.ToLower(s.Vars[i].Name) < strings.ToLower(s.Vars[j].Name)
	})
}

// Remove deletes a variable by case-insensitive name. It reports whether the
// variable was present.
func (s *VariableSet) Remove(name string) bool {
	for i, v := range s.Vars {
		if strings.EqualFold(v.Name, name) {
			s.Vars = append(s.Vars[:i], s.Vars[i+1:]...)
			return true
		}
	}
	return false
}

// Names returns the variable names in sorted (folded) order.
func (s *VariableSet) Names() []string {
	names := make([]string, len(s.Vars))
	for i, v := range s.Vars {
		names[i] = v.Name
	}
	return names
}

// Clone returns a deep copy of the set.
func (s *VariableSet) Clone() *VariableSet {
	out := &VariableSet{Scope: s.Scope, Vars: make([]Variable, len(s.Vars))}
	copy(out.Vars, s.Vars)
	return out
}

// Equal reports whether two sets hold the same variables. Names compare
// case-insensitively; values and segment order compare exactly.
func (s *VariableSet) Equal(other *VariableSet) bool {
	if s.Scope != other.Scope || len(s.Vars) != len(other.Vars) {
		return false
	}
	for _, v := range s.Vars {
		o, ok := other.Lookup(v.Name)
		if !ok || o.Value != v.Value || o.Kind != v.Kind {
			return false
		}
	}
	return true
}

// -----------------------------------------------------------------------------
// Import batches
// -----------------------------------------------------------------------------

// Action is what an import record asks the engine to do.
type Action int

const (
	// ActionSet creates or updates a variable.
	ActionSet Action = iota
	// ActionDelete removes a variable (a `"name"=-` line in .reg input).
	ActionDelete
)

func (a Action) String() string {
	if a == ActionDelete {
		return "delete"
	}
	return "set"
}

// Record is one parsed, not-yet-applied entry of an import batch.
type Record struct {
	Scope  Scope
	Name   string
	Value  string
	Kind   VarKind
	Action Action
}

// ImportBatch is a decoded, not-yet-applied set of records. The batch is
// validated as a unit before any member is applied.
type ImportBatch struct {
	Records []Record
}

// Scopes returns the distinct scopes the batch touches, in BothScopes order.
func (b *ImportBatch) Scopes() []Scope {
	seen := map[Scope]bool{}
	for _, r := range b.Records {
		seen[r.Scope] = true
	}
	var out []Scope
	for _, s := range BothScopes {
		if seen[s] {
			out = append(out, s)
		}
	}
	return out
}

// ConflictPolicy governs how bulk import handles names that already exist.
type ConflictPolicy int

const (
	// ConflictSkip leaves existing variables untouched and applies the rest.
	ConflictSkip ConflictPolicy = iota
	// ConflictOverwrite replaces existing variables.
	ConflictOverwrite
	// ConflictFail rejects the whole batch if any name already exists.
	ConflictFail
)

func (p ConflictPolicy) String() string {
	switch p {
	case ConflictOverwrite:
		return "overwrite"
	case ConflictFail:
		return "fail"
	default:
		return "skip"
	}
}

// ParseConflictPolicy converts a textual policy name to a ConflictPolicy.
func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "skip":
		return ConflictSkip, nil
	case "overwrite":
		return ConflictOverwrite, nil
	case "fail":
		return ConflictFail, nil
	default:
		return 0, &Error{Kind: ErrKindValidation, Msg: "unknown conflict policy " + s}
	}
}

// -----------------------------------------------------------------------------
// Snapshots
// -----------------------------------------------------------------------------

// SnapshotInfo describes one immutable point-in-time capture. The ID embeds
// the creation timestamp and a digest of the payload, so two captures of
// different content can never collide or overwrite each other.
type SnapshotInfo struct {
	ID        string    `yaml:"id"`
	CreatedAt time.Time `yaml:"created_at"`
	Scopes    []Scope   `yaml:"-"`
	Note      string    `yaml:"note,omitempty"`
	Path      string    `yaml:"-"`
}
