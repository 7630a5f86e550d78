// Package sync materializes item definitions into local folders and reads
// them back for push. A blake3 manifest written at pull time lets Status
// detect local edits without talking to the service.
package sync

import (
	"context"
	"encoding/base64"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mattjoyce/fabctl/internal/fabric"
)

// PartState classifies one definition part relative to the last pull.
type PartState string

const (
	PartClean    PartState = "clean"
	PartModified PartState = "modified"
	PartAdded    PartState = "added"
	PartDeleted  PartState = "deleted"
)

// PartStatus is the sync state of one part path.
type PartStatus struct {
	Path  string
	State PartState
}

// Manager owns the local side of definition sync.
type Manager struct {
	root string
	now  func() time.Time
}

// NewManager creates a Manager rooted at root.
func NewManager(root string) (*Manager, error) {
	trimmed := strings.TrimSpace(root)
	if trimmed == "" {
		return nil, fmt.Errorf("sync root directory is empty")
	}
	return &Manager{
		root: filepath.Clean(trimmed),
		now:  time.Now,
	}, nil
}

// ItemDir returns the default local directory for an item:
// <root>/<workspace display name>/<item display name>.<item type>.
func (m *Manager) ItemDir(workspaceName string, item fabric.Item) string {
	return filepath.Join(m.root, safeName(workspaceName), safeName(item.DisplayName)+"."+item.Type)
}

// Pull writes def into dir, decoding part payloads, and records the manifest.
// Parts that vanished from the remote definition are removed locally.
func (m *Manager) Pull(ctx context.Context, dir string, item fabric.Item, def *fabric.ItemDefinition) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create item directory: %w", err)
	}

	previous, err := readManifest(dir)
	if err != nil {
		return err
	}

	manifest := &Manifest{
		ItemID:      item.ID,
		WorkspaceID: item.WorkspaceID,
		ItemType:    item.Type,
		Format:      def.Format,
		SyncedAt:    m.now().UTC(),
		Parts:       make(map[string]string, len(def.Parts)),
	}

	for _, part := range def.Parts {
		rel, err := safePartPath(part.Path)
		if err != nil {
			return err
		}

		payload, err := base64.StdEncoding.DecodeString(part.Payload)
		if err != nil {
			return fmt.Errorf("decode part %s: %w", part.Path, err)
		}

		target := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("create part directory for %s: %w", part.Path, err)
		}
		if err := os.WriteFile(target, payload, 0o644); err != nil {
			return fmt.Errorf("write part %s: %w", part.Path, err)
		}
		manifest.Parts[part.Path] = hashBytes(payload)
	}

	// Remove parts the remote definition no longer carries.
	if previous != nil {
		for path := range previous.Parts {
			if _, still := manifest.Parts[path]; still {
				continue
			}
			rel, err := safePartPath(path)
			if err != nil {
				continue
			}
			_ = os.Remove(filepath.Join(dir, rel))
		}
	}

	return writeManifest(dir, manifest)
}

// BuildDefinition reads dir back into a definition for push. Every regular
// file except the manifest becomes an InlineBase64 part; paths use forward
// slashes relative to dir.
func (m *Manager) BuildDefinition(ctx context.Context, dir string) (*fabric.ItemDefinition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	manifest, err := readManifest(dir)
	if err != nil {
		return nil, err
	}

	var def fabric.ItemDefinition
	if manifest != nil {
		def.Format = manifest.Format
	}

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Name() == ManifestName {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read part %s: %w", rel, err)
		}

		def.Parts = append(def.Parts, fabric.DefinitionPart{
			Path:        filepath.ToSlash(rel),
			Payload:     base64.StdEncoding.EncodeToString(data),
			PayloadType: "InlineBase64",
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(def.Parts, func(i, j int) bool {
		return def.Parts[i].Path < def.Parts[j].Path
	})
	return &def, nil
}

// Status compares dir against its manifest part by part.
func (m *Manager) Status(ctx context.Context, dir string) ([]PartStatus, error) {
	manifest, err := readManifest(dir)
	if err != nil {
		return nil, err
	}
	if manifest == nil {
		return nil, fmt.Errorf("no manifest in %s: item was never pulled", dir)
	}

	local, err := m.BuildDefinition(ctx, dir)
	if err != nil {
		return nil, err
	}

	var out []PartStatus
	seen := make(map[string]bool, len(local.Parts))

	for _, part := range local.Parts {
		seen[part.Path] = true
		want, pulled := manifest.Parts[part.Path]
		if !pulled {
			out = append(out, PartStatus{Path: part.Path, State: PartAdded})
			continue
		}

		payload, err := base64.StdEncoding.DecodeString(part.Payload)
		if err != nil {
			return nil, fmt.Errorf("decode local part %s: %w", part.Path, err)
		}
		if hashBytes(payload) == want {
			out = append(out, PartStatus{Path: part.Path, State: PartClean})
		} else {
			out = append(out, PartStatus{Path: part.Path, State: PartModified})
		}
	}

	for path := range manifest.Parts {
		if !seen[path] {
			out = append(out, PartStatus{Path: path, State: PartDeleted})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// Dirty reports whether any part deviates from the last pull.
func (m *Manager) Dirty(ctx context.Context, dir string) (bool, error) {
	statuses, err := m.Status(ctx, dir)
	if err != nil {
		return false, err
	}
	for _, st := range statuses {
		if st.State != PartClean {
			return true, nil
		}
	}
	return false, nil
}

// safeName strips path separators from display names used as directory
// segments.
func safeName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, string(os.PathSeparator), "_")
	name = strings.ReplaceAll(name, "/", "_")
	if name == "" {
		name = "_"
	}
	return name
}

// safePartPath validates a remote part path and converts it to a local
// relative path. Absolute paths and traversal segments are rejected: part
// paths come from the service but must never escape the item directory.
func safePartPath(partPath string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(partPath))
	if cleaned == "." || cleaned == "" {
		return "", fmt.Errorf("empty part path")
	}
	if filepath.IsAbs(cleaned) || strings.HasPrefix(cleaned, "..") {
		return "", fmt.Errorf("part path %q escapes item directory", partPath)
	}
	return cleaned, nil
}
