package team

import (
	"fmt"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"

	"github.com/randalmurphal/enrich/response"
)

// FilesFromPatch lists the paths touched by a unified diff. Deleted files
// report their old path; everything else reports the new one.
func FilesFromPatch(patch string) ([]string, error) {
	files, _, err := gitdiff.Parse(strings.NewReader(patch))
	if err != nil {
		return nil, fmt.Errorf("parse patch: %w", err)
	}
	var names []string
	for _, f := range files {
		name := f.NewName
		if f.IsDelete || name == "" {
			name = f.OldName
		}
		if name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// NamedFiles collects the files a response is about: metadata.files,
// data.files and the paths of a unified diff in data.diff. Order is
// preserved and duplicates dropped. An unparsable diff is ignored.
func NamedFiles(r *response.Response) []string {
	var files []string
	seen := make(map[string]bool)
	add := func(names []string) {
		for _, n := range names {
			if n != "" && !seen[n] {
				seen[n] = true
				files = append(files, n)
			}
		}
	}

	add(stringList(r.Metadata["files"]))
	add(stringList(r.Data["files"]))
	if patch, ok := r.Data["diff"].(string); ok && patch != "" {
		if names, err := FilesFromPatch(patch); err == nil {
			add(names)
		}
	}
	return files
}

func stringList(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return []string{t}
	default:
		return nil
	}
}
