package fileset

import (
	"os"
	"path/filepath"
	"slices"

	"github.com/meigma/assembly/internal/pathutil"
	"github.com/meigma/assembly/internal/platform"
)

// buildClosure returns every proper ancestor of each file's relative path,
// once, sorted by name.
//
// The relative parent chain and the origin parent chain are walked in
// lockstep. The origin side never climbs above root, so levels introduced by
// a relocation prefix take the metadata of root itself. When a level is
// already recorded all of its ancestors are too and the walk stops.
func buildClosure(root string, files []FileInfo, names *platform.NameResolver) ([]Directory, error) {
	root = filepath.Clean(root)
	seen := make(map[string]struct{})
	stats := make(map[string]Directory)
	var dirs []Directory

	for i := range files {
		rel := pathutil.Parent(pathutil.Normalize(files[i].Relative))
		origin := filepath.Dir(files[i].Origin)
		for rel != "" {
			if _, ok := seen[rel]; ok {
				break
			}
			meta, ok := stats[origin]
			if !ok {
				var err error
				meta, err = statDirectory(origin, names)
				if err != nil {
					return nil, err
				}
				stats[origin] = meta
			}
			meta.Name = rel
			dirs = append(dirs, meta)
			seen[rel] = struct{}{}

			rel = pathutil.Parent(rel)
			if origin != root && len(origin) > len(root) {
				origin = filepath.Dir(origin)
			}
		}
	}

	slices.SortFunc(dirs, CompareDirectories)
	return dirs, nil
}

func statDirectory(path string, names *platform.NameResolver) (Directory, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Directory{}, err
	}
	uid, gid := platform.FileOwner(info)
	return Directory{
		Mode:      info.Mode().Perm(),
		UserName:  names.UserName(uid),
		GroupName: names.GroupName(gid),
		UID:       uid,
		GID:       gid,
		ModTime:   info.ModTime(),
	}, nil
}
