package main

import (
	"os"
	"path/filepath"

	"github.com/aiproto/aiproto/pkg/manifest"
)

// loadBundledManifests reads every *.json manifest under dir and returns a
// manifest.StaticResolver seeded with all of them, plus the raw map for
// credential lookups. Manifest file discovery is an out-of-core-scope
// concern (§1); this is the thin loader shim the core's seam exists for.
func loadBundledManifests(dir string) (*manifest.StaticResolver, map[string]*manifest.Manifest, error) {
	entries, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, nil, err
	}

	out := make(map[string]*manifest.Manifest, len(entries))
	for _, path := range entries {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, err
		}
		m, err := manifest.Parse(data, manifest.FormatJSON, manifest.ModeStrict)
		if err != nil {
			return nil, nil, err
		}
		out[m.ProviderID] = m
	}

	if len(out) == 0 {
		return nil, nil, &noManifestsError{dir: dir}
	}

	return manifest.NewStaticResolver(out), out, nil
}

type noManifestsError struct{ dir string }

func (e *noManifestsError) Error() string {
	return "no manifests found under " + e.dir
}
