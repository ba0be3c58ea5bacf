// Package discovery scans a directory tree for procedure collection
// manifests and loads them without manual registration. Files load
// concurrently; aggregation is deterministic because the file list is sorted
// before loading. Load failures are always fatal, while invalid exports are
// governed by a configurable policy.
package discovery

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/dphaener/relay/procedure"
)

// Policy decides what happens when an export resembles a collection but
// fails strict validation.
type Policy string

const (
	// PolicyThrow aborts discovery with a typed error (the default)
	PolicyThrow Policy = "throw"
	// PolicyWarn logs the problem, records a warning, and continues
	PolicyWarn Policy = "warn"
	// PolicySilent records a warning in the result without logging
	PolicySilent Policy = "silent"
)

// Options configures one discovery run
type Options struct {
	// Recursive walks subdirectories as well
	Recursive bool

	// Extensions is the file extension allow-list (default .yaml/.yml/.json)
	Extensions []string

	// Exclude holds glob patterns matched against file base names
	// (default test, spec, and index files)
	Exclude []string

	// OnInvalidExport selects the invalid-export policy (default throw)
	OnInvalidExport Policy

	// Loader loads a file's exports (default ManifestLoader)
	Loader Loader

	// Handlers resolves manifest handler names to functions
	Handlers *procedure.HandlerRegistry

	// AllowMissingHandlers compiles unresolved handler names against a
	// placeholder that fails at call time. Inspection tooling sets this to
	// describe manifests without the application's handlers loaded.
	AllowMissingHandlers bool

	// Logger receives warn-policy diagnostics (default zap.NewNop)
	Logger *zap.Logger
}

// DefaultExtensions is the default file extension allow-list
var DefaultExtensions = []string{".yaml", ".yml", ".json"}

// DefaultExcludes is the default exclude-glob list
var DefaultExcludes = []string{"*_test.*", "*.spec.*", "index.*"}

// skipDirs are directory names never descended into
var skipDirs = map[string]bool{
	"testdata":     true,
	"node_modules": true,
	"vendor":       true,
	".git":         true,
}

// Warning records a non-fatal discovery problem
type Warning struct {
	File    string
	Export  string
	Message string
}

// Result is the immutable snapshot of one discovery run. It is produced
// fresh per call and never cached.
type Result struct {
	Collections  []*procedure.Collection
	ScannedFiles []string
	LoadedFiles  []string
	Warnings     []Warning
}

// Discover scans a directory for collection manifests and compiles every
// valid export. It fails with a typed error if the directory does not exist,
// any matched file fails to load, or no valid collection is found.
func Discover(dir string, opts Options) (*Result, error) {
	opts = withDefaults(opts)

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, directoryNotFound(dir, err)
		}
		if os.IsPermission(err) {
			return nil, permissionDenied(dir, err)
		}
		return nil, directoryNotFound(dir, err)
	}
	if !info.IsDir() {
		return nil, invalidFileType(dir)
	}

	files, err := scanFiles(dir, opts)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, noFilesScanned(dir)
	}

	loaded, err := loadAll(files, opts.Loader)
	if err != nil {
		return nil, err
	}

	result := &Result{ScannedFiles: files}
	seen := make(map[string]string) // namespace -> file that claimed it

	for _, lf := range loaded {
		result.LoadedFiles = append(result.LoadedFiles, lf.file)

		names := make([]string, 0, len(lf.exports))
		for name := range lf.exports {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			value := lf.exports[name]
			if !collectionCandidate(value) {
				// Unrelated constants and utilities are allowed alongside
				// collections.
				continue
			}

			collection, buildErr := buildCollection(value, opts.Handlers, opts.AllowMissingHandlers)
			if buildErr == nil {
				if prev, dup := seen[collection.Namespace()]; dup {
					buildErr = &duplicateNamespaceError{
						namespace: collection.Namespace(),
						first:     prev,
					}
				}
			}
			if buildErr != nil {
				if handleErr := handleInvalid(result, opts, lf.file, name, buildErr); handleErr != nil {
					return nil, handleErr
				}
				continue
			}

			seen[collection.Namespace()] = lf.file
			result.Collections = append(result.Collections, collection)
		}
	}

	if len(result.Collections) == 0 {
		return nil, noValidCollections(dir)
	}
	return result, nil
}

func withDefaults(opts Options) Options {
	if len(opts.Extensions) == 0 {
		opts.Extensions = DefaultExtensions
	}
	if opts.Exclude == nil {
		opts.Exclude = DefaultExcludes
	}
	if opts.OnInvalidExport == "" {
		opts.OnInvalidExport = PolicyThrow
	}
	if opts.Loader == nil {
		opts.Loader = ManifestLoader{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return opts
}

// scanFiles collects matching files under dir, sorted for deterministic
// ordering.
func scanFiles(dir string, opts Options) ([]string, error) {
	var files []string

	accept := func(p string) {
		base := filepath.Base(p)
		if !hasExtension(base, opts.Extensions) {
			return
		}
		if matchesAny(base, opts.Exclude) {
			return
		}
		files = append(files, p)
	}

	if opts.Recursive {
		err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				if os.IsPermission(err) {
					return permissionDenied(p, err)
				}
				return err
			}
			if d.IsDir() {
				if p != dir && skipDirs[d.Name()] {
					return filepath.SkipDir
				}
				return nil
			}
			accept(p)
			return nil
		})
		if err != nil {
			if de, ok := err.(*Error); ok {
				return nil, de
			}
			return nil, fileLoadError(dir, err)
		}
	} else {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsPermission(err) {
				return nil, permissionDenied(dir, err)
			}
			return nil, fileLoadError(dir, err)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			accept(filepath.Join(dir, e.Name()))
		}
	}

	sort.Strings(files)
	return files, nil
}

type loadedFile struct {
	file    string
	exports Exports
	err     error
}

// loadAll loads every file concurrently. Results come back in the sorted
// input order so aggregation stays deterministic, and the first failing file
// in that order aborts the run.
func loadAll(files []string, loader Loader) ([]loadedFile, error) {
	results := make([]loadedFile, len(files))

	var wg sync.WaitGroup
	for i, file := range files {
		wg.Add(1)
		go func(i int, file string) {
			defer wg.Done()
			exports, err := loader.Load(file)
			results[i] = loadedFile{file: file, exports: exports, err: err}
		}(i, file)
	}
	wg.Wait()

	for _, r := range results {
		if r.err != nil {
			if os.IsPermission(r.err) {
				return nil, permissionDenied(r.file, r.err)
			}
			return nil, fileLoadError(r.file, r.err)
		}
	}
	return results, nil
}

func handleInvalid(result *Result, opts Options, file, export string, cause error) error {
	switch opts.OnInvalidExport {
	case PolicyThrow:
		return invalidExport(file, export, cause)
	case PolicyWarn:
		opts.Logger.Warn("invalid collection export",
			zap.String("file", file),
			zap.String("export", export),
			zap.Error(cause))
	}
	result.Warnings = append(result.Warnings, Warning{
		File:    file,
		Export:  export,
		Message: cause.Error(),
	})
	return nil
}

type duplicateNamespaceError struct {
	namespace string
	first     string
}

func (e *duplicateNamespaceError) Error() string {
	return "namespace " + e.namespace + " already defined in " + e.first
}

func hasExtension(name string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range extensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

func matchesAny(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, _ := path.Match(pattern, name); ok {
			return true
		}
	}
	return false
}
