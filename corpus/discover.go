package corpus

import (
	"errors"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/meghashyamc/apidoxsearch/logger"
)

const discoveredPageName = "search.html"

// Discover walks root for per-library corpus files called name and mounts each at
// "<dir>/search.html" with library scope.
func Discover(logger logger.Logger, root string, name string) ([]Mount, error) {
	var mounts []Mount

	err := filepath.Walk(root, func(filePath string, info os.FileInfo, err error) error {
		if err != nil {
			logger.Error("could not walk through file or directory", "path", filePath, "err", err.Error())
			if errors.Is(err, os.ErrPermission) {
				return nil
			}
			return err
		}

		// Skip directories that start with '.' but not the root directory
		if info.IsDir() && strings.HasPrefix(info.Name(), ".") && filePath != root {
			return filepath.SkipDir
		}

		if info.IsDir() || info.Name() != name {
			return nil
		}

		rel, err := filepath.Rel(root, filePath)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		mounts = append(mounts, Mount{
			Route:  "/" + path.Join(path.Dir(rel), discoveredPageName),
			Scope:  ScopeLibrary,
			Corpus: rel,
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("discovered library corpora", "root", root, "count", len(mounts))
	return mounts, nil
}
