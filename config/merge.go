package config

import (
	"path/filepath"
	"sort"
)

// Loader decodes one configuration document (e.g. a YAML file matched by an
// `include` glob) into the same generic tree shape as the top-level
// configuration. Injected by the caller (cmd/sauna, which owns YAML
// decoding) so this package stays format-agnostic.
type Loader func(path string) (map[string]any, error)

// MergeIncludes resolves tree's `include` glob (if any), loads every
// matching file in sorted lexicographic order via load, and merges each
// document into tree in turn: mappings update key by key (recursing into
// nested mappings), lists concatenate, and scalars are overridden by the
// later document. The `include` key itself is stripped from the result.
func MergeIncludes(tree map[string]any, load Loader) (map[string]any, error) {
	merged := cloneMap(tree)

	pattern, ok := merged["include"].(string)
	delete(merged, "include")
	if !ok || pattern == "" {
		return merged, nil
	}

	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	for _, path := range matches {
		doc, err := load(path)
		if err != nil {
			return nil, err
		}
		merged = mergeMap(merged, doc)
	}

	return merged, nil
}

// mergeMap overlays patch onto base, returning a new map. base is not
// mutated.
func mergeMap(base, patch map[string]any) map[string]any {
	out := cloneMap(base)
	for k, pv := range patch {
		bv, exists := out[k]
		if !exists {
			out[k] = pv
			continue
		}

		bm, bIsMap := bv.(map[string]any)
		pm, pIsMap := pv.(map[string]any)
		if bIsMap && pIsMap {
			out[k] = mergeMap(bm, pm)
			continue
		}

		bs, bIsSlice := bv.([]any)
		ps, pIsSlice := pv.([]any)
		if bIsSlice && pIsSlice {
			combined := make([]any, 0, len(bs)+len(ps))
			combined = append(combined, bs...)
			combined = append(combined, ps...)
			out[k] = combined
			continue
		}

		// Scalars, or mismatched shapes: the patch value overrides.
		out[k] = pv
	}
	return out
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
