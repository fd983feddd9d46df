package types

import (
	"errors"
	"testing"
)

func TestParseScope(t *testing.T) {
	tests := []struct {
		in       string
		expected Scope
		wantErr  bool
	}{
		{"user", ScopeUser, false},
		{"USER", ScopeUser, false},
		{" system ", ScopeSystem, false},
		{"machine", ScopeSystem, false},
		{"global", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseScope(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseScope(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.expected {
			t.Errorf("ParseScope(%q) = %v, %v; want %v", tt.in, got, err, tt.expected)
		}
	}
}

func TestDetectKind(t *testing.T) {
	tests := []struct {
		name     string
		expected VarKind
	}{
		{"Path", KindPathLike},
		{"PATH", KindPathLike},
		{"PSModulePath", KindPathLike},
		{"PATHEXT", KindPathLike},
		{"CLASSPATH", KindPathLike},
		{"GOPATH", KindPlain},
		{"EDITOR", KindPlain},
	}
	for _, tt := range tests {
		if got := DetectKind(tt.name); got != tt.expected {
			t.Errorf("DetectKind(%q) = %v, want %v", tt.name, got, tt.expected)
		}
	}
}

func TestVariableExpandable(t *testing.T) {
	tests := []struct {
		v        Variable
		expected bool
	}{
		{Variable{Name: "Path", Value: `C:\a`, Kind: KindPathLike}, true},
		{Variable{Name: "JAVA_HOME", Value: `%ProgramFiles%\Java`, Kind: KindPlain}, true},
		{Variable{Name: "GOPATH", Value: `C:\go`, Kind: KindPlain}, false},
		{Variable{Name: "PROMPT", Value: `100%`, Kind: KindPlain}, false},
	}
	for _, tt := range tests {
		if got := tt.v.Expandable(); got != tt.expected {
			t.Errorf("%s Expandable = %v, want %v", tt.v.Name, got, tt.expected)
		}
	}
}

func TestVariableSegments(t *testing.T) {
	v := Variable{Name: "Path", Value: `C:\a;;C:\b`, Kind: KindPathLike}
	segs := v.Segments()
	if len(segs) != 3 || segs[1] != "" {
		t.Fatalf("Segments = %q, want 3 with empty middle", segs)
	}
	if (Variable{}).Segments() != nil {
		t.Fatal("empty value should yield nil segments")
	}
	if JoinSegments(segs) != v.Value {
		t.Fatal("JoinSegments should invert Segments")
	}
}

func TestVariableSetCaseInsensitiveNames(t *testing.T) {
	s := NewVariableSet(ScopeUser)
	s.Put(Variable{Name: "Path", Value: `C:\a`})
	s.Put(Variable{Name: "PATH", Value: `C:\b`})

	if len(s.Vars) != 1 {
		t.Fatalf("expected one entry, got %d", len(s.Vars))
	}
	v, ok := s.Lookup("path")
	if !ok || v.Value != `C:\b` {
		t.Fatalf("Lookup = %+v, %v", v, ok)
	}
	// The replacing Put wins the name's casing.
	if v.Name != "PATH" {
		t.Fatalf("Name = %q, want PATH", v.Name)
	}
	if !s.Remove("pAtH") {
		t.Fatal("Remove should match case-insensitively")
	}
	if len(s.Vars) != 0 {
		t.Fatal("set should be empty after Remove")
	}
}

func TestVariableSetSortedNames(t *testing.T) {
	s := NewVariableSet(ScopeUser)
	s.Put(Variable{Name: "ZULU"})
	s.Put(Variable{Name: "alpha"})
	s.Put(Variable{Name: "Mike"})

	names := s.Names()
	want := []string{"alpha", "Mike", "ZULU"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("Names = %v, want %v", names, want)
		}
	}
}

func TestVariableSetEqual(t *testing.T) {
	a := NewVariableSet(ScopeUser)
	a.Put(Variable{Name: "Path", Value: `C:\a;C:\b`, Kind: KindPathLike})

	b := NewVariableSet(ScopeUser)
	b.Put(Variable{Name: "PATH", Value: `C:\a;C:\b`, Kind: KindPathLike})
	if !a.Equal(b) {
		t.Fatal("sets differing only in name case should be equal")
	}

	b.Put(Variable{Name: "PATH", Value: `C:\b;C:\a`, Kind: KindPathLike})
	if a.Equal(b) {
		t.Fatal("segment order is significant")
	}

	c := a.Clone()
	if !a.Equal(c) {
		t.Fatal("clone should equal original")
	}
	c.Put(Variable{Name: "EXTRA"})
	if a.Equal(c) || len(a.Vars) != 1 {
		t.Fatal("clone must not share backing storage")
	}
}

func TestImportBatchScopes(t *testing.T) {
	b := &ImportBatch{Records: []Record{
		{Scope: ScopeSystem, Name: "A"},
		{Scope: ScopeUser, Name: "B"},
		{Scope: ScopeSystem, Name: "C"},
	}}
	scopes := b.Scopes()
	if len(scopes) != 2 || scopes[0] != ScopeUser || scopes[1] != ScopeSystem {
		t.Fatalf("Scopes = %v", scopes)
	}
}

func TestParseConflictPolicy(t *testing.T) {
	for in, want := range map[string]ConflictPolicy{
		"":          ConflictSkip,
		"skip":      ConflictSkip,
		"overwrite": ConflictOverwrite,
		"FAIL":      ConflictFail,
	} {
		got, err := ParseConflictPolicy(in)
		if err != nil || got != want {
			t.Errorf("ParseConflictPolicy(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseConflictPolicy("merge"); err == nil {
		t.Error("expected error for unknown policy")
	}
}

func TestErrorWrapping(t *testing.T) {
	contextual := &Error{Kind: ErrKindNotFound, Msg: "engine: FOO", Err: ErrNotFound}
	if !errors.Is(contextual, ErrNotFound) {
		t.Fatal("contextual error should match its sentinel")
	}
	if errors.Is(contextual, ErrSnapshotNotFound) {
		t.Fatal("distinct sentinels of the same kind must not match")
	}

	conflict := &ConflictError{Names: []string{"A", "B"}}
	if !errors.Is(conflict, ErrConflict) {
		t.Fatal("ConflictError should unwrap to ErrConflict")
	}

	partial := &PartialApplyError{Applied: []Record{{Name: "A"}}, Err: errors.New("boom")}
	if !errors.Is(partial, ErrPartialApply) {
		t.Fatal("PartialApplyError should unwrap to ErrPartialApply")
	}
}
