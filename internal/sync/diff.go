package sync

import (
	"encoding/base64"
	"fmt"
	"sort"
	"strings"

	"github.com/mattjoyce/fabctl/internal/fabric"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// DiffDefinitions renders a human-readable diff between two definitions,
// local against remote, part by part. Binary-looking parts are summarized
// rather than diffed.
func DiffDefinitions(local, remote *fabric.ItemDefinition) (string, error) {
	localParts, err := partsByPath(local)
	if err != nil {
		return "", err
	}
	remoteParts, err := partsByPath(remote)
	if err != nil {
		return "", err
	}

	paths := make(map[string]bool)
	for p := range localParts {
		paths[p] = true
	}
	for p := range remoteParts {
		paths[p] = true
	}

	ordered := make([]string, 0, len(paths))
	for p := range paths {
		ordered = append(ordered, p)
	}
	sort.Strings(ordered)

	dmp := diffmatchpatch.New()
	var b strings.Builder

	for _, path := range ordered {
		lc, inLocal := localParts[path]
		rc, inRemote := remoteParts[path]

		switch {
		case !inRemote:
			fmt.Fprintf(&b, "--- %s (local only)\n", path)
		case !inLocal:
			fmt.Fprintf(&b, "--- %s (remote only)\n", path)
		case lc == rc:
			continue
		case isBinary(lc) || isBinary(rc):
			fmt.Fprintf(&b, "--- %s (binary, %d -> %d bytes)\n", path, len(rc), len(lc))
		default:
			fmt.Fprintf(&b, "--- %s\n", path)
			diffs := dmp.DiffMain(rc, lc, true)
			dmp.DiffCleanupSemantic(diffs)
			b.WriteString(dmp.DiffPrettyText(diffs))
			if !strings.HasSuffix(b.String(), "\n") {
				b.WriteString("\n")
			}
		}
	}

	return b.String(), nil
}

func partsByPath(def *fabric.ItemDefinition) (map[string]string, error) {
	out := make(map[string]string, len(def.Parts))
	for _, part := range def.Parts {
		payload, err := base64.StdEncoding.DecodeString(part.Payload)
		if err != nil {
			return nil, fmt.Errorf("decode part %s: %w", part.Path, err)
		}
		out[part.Path] = string(payload)
	}
	return out, nil
}

// isBinary is a cheap NUL-byte sniff.
func isBinary(s string) bool {
	return strings.ContainsRune(s, '\x00')
}
