// Package backup creates, lists, prunes, and reads point-in-time captures of
// the variable scopes. Snapshots are the durable recovery path; the in-memory
// undo history is not.
package backup

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/winenv/envkit/internal/logging"
	"github.com/winenv/envkit/pkg/types"
)

// snapshotExt is the on-disk extension of snapshot files.
const snapshotExt = ".yaml"

// RetentionPolicy bounds how many snapshots survive pruning.
type RetentionPolicy struct {
	// MaxCount removes snapshots beyond this many, oldest first. 0 means
	// unlimited.
	MaxCount int `yaml:"max_count"`

	// MaxAge removes snapshots older than this. 0 means unlimited.
	MaxAge time.Duration `yaml:"max_age"`

	// KeepLatest snapshots are never removed, regardless of count or age.
	KeepLatest int `yaml:"keep_latest"`
}

// DefaultRetention matches the tool's historical default of ten retained
// backups, with the newest three always kept.
func DefaultRetention() RetentionPolicy {
	return RetentionPolicy{MaxCount: 10, KeepLatest: 3}
}

// Manager owns one snapshot directory.
type Manager struct {
	dir    string
	policy RetentionPolicy
	log    zerolog.Logger
}

// New opens (creating if needed) the snapshot directory.
func New(dir string, policy RetentionPolicy) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("backup: create dir %s: %w", dir, err)
	}
	return &Manager{dir: dir, policy: policy, log: logging.Logger("backup")}, nil
}

// Dir returns the snapshot directory.
func (m *Manager) Dir() string { return m.dir }

// snapshotFile is the serialized snapshot document.
type snapshotFile struct {
	ID        string      `yaml:"id"`
	CreatedAt time.Time   `yaml:"created_at"`
	Note      string      `yaml:"note,omitempty"`
	Scopes    []snapScope `yaml:"scopes"`
}

type snapScope struct {
	Scope     string    `yaml:"scope"`
	Variables []snapVar `yaml:"variables"`
}

type snapVar struct {
	Name  string `yaml:"name"`
	Kind  string `yaml:"kind"`
	Value string `yaml:"value"`
}

// Create captures the given sets without mutating anything. The snapshot id
// embeds the creation timestamp and a digest of the captured content, so a
// snapshot can never overwrite a different one; capturing identical content
// within the same second is a no-op returning the existing snapshot.
func (m *Manager) Create(sets []*types.VariableSet, note string) (types.SnapshotInfo, error) {
	now := time.Now().UTC().Truncate(time.Second)

	doc := snapshotFile{CreatedAt: now, Note: note}
	for _, set := range sets {
		sc := snapScope{Scope: set.Scope.String(), Variables: []snapVar{}}
		for _, v := range set.Vars {
			sc.Variables = append(sc.Variables, snapVar{Name: v.Name, Kind: v.Kind.String(), Value: v.Value})
		}
		doc.Scopes = append(doc.Scopes, sc)
	}

	body, err := yaml.Marshal(doc.Scopes)
	if err != nil {
		return types.SnapshotInfo{}, fmt.Errorf("backup: marshal: %w", err)
	}
	digest := sha256.Sum256(body)
	doc.ID = now.Format("20060102T150405Z") + "-" + hex.EncodeToString(digest[:4])

	out, err := yaml.Marshal(doc)
	if err != nil {
		return types.SnapshotInfo{}, fmt.Errorf("backup: marshal: %w", err)
	}

	path := filepath.Join(m.dir, doc.ID+snapshotExt)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		// Same second, same content: the capture already exists.
		return m.info(doc), nil
	}
	if err != nil {
		return types.SnapshotInfo{}, fmt.Errorf("backup: write %s: %w", path, err)
	}
	defer f.Close()
	if _, err := f.Write(out); err != nil {
		return types.SnapshotInfo{}, fmt.Errorf("backup: write %s: %w", path, err)
	}
	m.log.Info().Str("id", doc.ID).Int("scopes", len(doc.Scopes)).Msg("snapshot created")
	return m.info(doc), nil
}

func (m *Manager) info(doc snapshotFile) types.SnapshotInfo {
	info := types.SnapshotInfo{
		ID:        doc.ID,
		CreatedAt: doc.CreatedAt,
		Note:      doc.Note,
		Path:      filepath.Join(m.dir, doc.ID+snapshotExt),
	}
	for _, sc := range doc.Scopes {
		if scope, err := types.ParseScope(sc.Scope); err == nil {
			info.Scopes = append(info.Scopes, scope)
		}
	}
	return info
}

// Load reads one snapshot's captured sets. Missing ids fail with
// types.ErrSnapshotNotFound.
func (m *Manager) Load(id string) (map[types.Scope]*types.VariableSet, types.SnapshotInfo, error) {
	data, err := os.ReadFile(filepath.Join(m.dir, id+snapshotExt))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, types.SnapshotInfo{}, &types.Error{
			Kind: types.ErrKindNotFound,
			Msg:  "backup: snapshot " + id,
			Err:  types.ErrSnapshotNotFound,
		}
	}
	if err != nil {
		return nil, types.SnapshotInfo{}, fmt.Errorf("backup: read snapshot %s: %w", id, err)
	}

	var doc snapshotFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, types.SnapshotInfo{}, fmt.Errorf("backup: parse snapshot %s: %w", id, err)
	}
	sets := make(map[types.Scope]*types.VariableSet, len(doc.Scopes))
	for _, sc := range doc.Scopes {
		scope, err := types.ParseScope(sc.Scope)
		if err != nil {
			return nil, types.SnapshotInfo{}, fmt.Errorf("backup: snapshot %s: %w", id, err)
		}
		set := types.NewVariableSet(scope)
		for _, v := range sc.Variables {
			kind, err := types.ParseKind(v.Kind)
			if err != nil {
				return nil, types.SnapshotInfo{}, fmt.Errorf("backup: snapshot %s: %w", id, err)
			}
			set.Put(types.Variable{Scope: scope, Name: v.Name, Value: v.Value, Kind: kind})
		}
		sets[scope] = set
	}
	return sets, m.info(doc), nil
}

// List returns all snapshots, newest first. Unreadable files are skipped
// with a warning rather than failing the listing.
func (m *Manager) List() ([]types.SnapshotInfo, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("backup: list %s: %w", m.dir, err)
	}
	var infos []types.SnapshotInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), snapshotExt) {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), snapshotExt)
		_, info, err := m.Load(id)
		if err != nil {
			m.log.Warn().Err(err).Str("file", entry.Name()).Msg("skipping unreadable snapshot")
			continue
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool {
		if !infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].CreatedAt.After(infos[j].CreatedAt)
		}
		return infos[i].ID > infos[j].ID
	})
	return infos, nil
}

// Delete removes one snapshot explicitly.
func (m *Manager) Delete(id string) error {
	err := os.Remove(filepath.Join(m.dir, id+snapshotExt))
	if errors.Is(err, fs.ErrNotExist) {
		return &types.Error{
			Kind: types.ErrKindNotFound,
			Msg:  "backup: snapshot " + id,
			Err:  types.ErrSnapshotNotFound,
		}
	}
	return err
}

// Prune applies the retention policy and reports how many snapshots were
// removed. The newest KeepLatest snapshots survive regardless of age.
func (m *Manager) Prune() (int, error) {
	infos, err := m.List()
	if err != nil {
		return 0, err
	}
	now := time.Now().UTC()
	removed := 0
	for i, info := range infos {
		if i < m.policy.KeepLatest {
			continue
		}
		tooMany := m.policy.MaxCount > 0 && i >= m.policy.MaxCount
		tooOld := m.policy.MaxAge > 0 && now.Sub(info.CreatedAt) > m.policy.MaxAge
		if !tooMany && !tooOld {
			continue
		}
		if err := m.Delete(info.ID); err != nil {
			return removed, err
		}
		m.log.Info().Str("id", info.ID).Msg("snapshot pruned")
		removed++
	}
	return removed, nil
}
