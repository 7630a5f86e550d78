package sync

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"
)

// ManifestName is the per-item manifest file written next to synced parts.
// It records what was last pulled so Status can tell local edits apart from
// files that merely exist.
const ManifestName = ".fabctl-manifest.yaml"

// Manifest is the sync bookkeeping for one item directory.
type Manifest struct {
	ItemID      string            `yaml:"item_id"`
	WorkspaceID string            `yaml:"workspace_id"`
	ItemType    string            `yaml:"item_type"`
	Format      string            `yaml:"format,omitempty"`
	SyncedAt    time.Time         `yaml:"synced_at"`
	// Parts maps part path to the blake3 hex digest of its decoded payload.
	Parts map[string]string `yaml:"parts"`
}

// hashBytes returns the blake3 hex digest of data.
func hashBytes(data []byte) string {
	sum := blake3.Sum256(data)
	return fmt.Sprintf("%x", sum[:])
}

// writeManifest persists the manifest into dir.
func writeManifest(dir string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestName), data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// readManifest loads the manifest from dir. A missing manifest is not an
// error; it returns nil.
func readManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if m.Parts == nil {
		m.Parts = make(map[string]string)
	}
	return &m, nil
}
