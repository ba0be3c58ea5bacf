package discovery

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dphaener/relay/procedure"
)

const validManifest = `
posts:
  namespace: posts
  procedures:
    listPosts:
      kind: query
      handler: posts.list
    createPost:
      kind: mutation
      handler: posts.create
      input:
        fields:
          - name: title
            type: string
            required: true
`

const invalidKindManifest = `
users:
  namespace: users
  procedures:
    listUsers:
      kind: subscription
      handler: users.list
`

func testRegistry(t *testing.T) *procedure.HandlerRegistry {
	t.Helper()
	r := procedure.NewHandlerRegistry()
	noop := func(ctx *procedure.Context, input any) (any, error) { return nil, nil }
	for _, name := range []string{"posts.list", "posts.create", "users.list"} {
		require.NoError(t, r.Register(name, noop))
	}
	return r
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDiscoverFindsCollections(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "posts.yaml", validManifest)

	result, err := Discover(dir, Options{Handlers: testRegistry(t)})
	require.NoError(t, err)

	require.Len(t, result.Collections, 1)
	c := result.Collections[0]
	assert.Equal(t, "posts", c.Namespace())
	assert.Equal(t, []string{"createPost", "listPosts"}, c.Names())

	create, ok := c.Procedure("createPost")
	require.True(t, ok)
	assert.Equal(t, procedure.KindMutation, create.Kind())
	require.NotNil(t, create.InputSchema())
	assert.Equal(t, "title", create.InputSchema().Fields()[0].Name)

	assert.Len(t, result.ScannedFiles, 1)
	assert.Len(t, result.LoadedFiles, 1)
	assert.Empty(t, result.Warnings)
}

func TestDiscoverIgnoresUnrelatedExports(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "posts.yaml", validManifest)
	writeFile(t, dir, "constants.yaml", "page_size: 25\nfeature_flags:\n  beta: true\n")

	result, err := Discover(dir, Options{Handlers: testRegistry(t)})
	require.NoError(t, err)
	assert.Len(t, result.Collections, 1)
	assert.Len(t, result.LoadedFiles, 2)
	assert.Empty(t, result.Warnings)
}

func TestDiscoverDirectoryNotFound(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "missing"), Options{})

	var derr *Error
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, KindDirectoryNotFound, derr.Kind)
	assert.NotEmpty(t, derr.Hint)
}

func TestDiscoverPathIsFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "posts.yaml", validManifest)

	_, err := Discover(path, Options{})

	var derr *Error
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, KindInvalidFileType, derr.Kind)
}

func TestDiscoverNoFilesScanned(t *testing.T) {
	_, err := Discover(t.TempDir(), Options{})

	var derr *Error
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, KindNoProceduresFound, derr.Kind)
	assert.Contains(t, derr.Hint, "no files matched")
}

func TestDiscoverNoValidCollections(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "constants.yaml", "page_size: 25\n")

	_, err := Discover(dir, Options{})

	var derr *Error
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, KindNoProceduresFound, derr.Kind)
	assert.Contains(t, derr.Hint, "none exported a valid collection")
}

func TestDiscoverLoadFailureIsAlwaysFatal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "posts.yaml", validManifest)
	writeFile(t, dir, "broken.yaml", "namespace: [unclosed\n  procedures: {")

	// Even the most permissive policy does not tolerate load failures
	_, err := Discover(dir, Options{
		Handlers:        testRegistry(t),
		OnInvalidExport: PolicySilent,
	})

	var derr *Error
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, KindFileLoadError, derr.Kind)
	assert.Contains(t, derr.File, "broken.yaml")
}

func TestDiscoverInvalidExportPolicies(t *testing.T) {
	t.Run("throw aborts with file and export", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "users.yaml", invalidKindManifest)
		writeFile(t, dir, "posts.yaml", validManifest)

		_, err := Discover(dir, Options{Handlers: testRegistry(t)})

		var derr *Error
		require.True(t, errors.As(err, &derr))
		assert.Equal(t, KindInvalidExport, derr.Kind)
		assert.Contains(t, derr.File, "users.yaml")
		assert.Equal(t, "users", derr.Export)
	})

	t.Run("warn records a warning and continues", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "users.yaml", invalidKindManifest)
		writeFile(t, dir, "posts.yaml", validManifest)

		result, err := Discover(dir, Options{
			Handlers:        testRegistry(t),
			OnInvalidExport: PolicyWarn,
		})
		require.NoError(t, err)

		assert.Len(t, result.Collections, 1)
		require.Len(t, result.Warnings, 1)
		assert.Contains(t, result.Warnings[0].File, "users.yaml")
		assert.Equal(t, "users", result.Warnings[0].Export)
	})

	t.Run("silent still records the warning", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "users.yaml", invalidKindManifest)
		writeFile(t, dir, "posts.yaml", validManifest)

		result, err := Discover(dir, Options{
			Handlers:        testRegistry(t),
			OnInvalidExport: PolicySilent,
		})
		require.NoError(t, err)
		assert.Len(t, result.Warnings, 1)
	})
}

func TestDiscoverUnregisteredHandlerIsInvalidExport(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "posts.yaml", validManifest)

	_, err := Discover(dir, Options{Handlers: procedure.NewHandlerRegistry()})

	var derr *Error
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, KindInvalidExport, derr.Kind)
}

func TestDiscoverAllowMissingHandlers(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "posts.yaml", validManifest)

	result, err := Discover(dir, Options{AllowMissingHandlers: true})
	require.NoError(t, err)
	require.Len(t, result.Collections, 1)

	// The placeholder handler compiles but refuses to run
	p, _ := result.Collections[0].Procedure("listPosts")
	_, err = p.Invoke(procedure.Background(), nil)
	assert.Error(t, err)
}

func TestDiscoverRecursive(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, filepath.Join("api", "posts.yaml"), validManifest)
	writeFile(t, dir, filepath.Join("testdata", "fixture.yaml"), invalidKindManifest)
	writeFile(t, dir, filepath.Join("node_modules", "dep.yaml"), invalidKindManifest)

	result, err := Discover(dir, Options{
		Recursive: true,
		Handlers:  testRegistry(t),
	})
	require.NoError(t, err)
	assert.Len(t, result.Collections, 1)
	assert.Len(t, result.ScannedFiles, 1, "excluded directories are never descended into")
}

func TestDiscoverNonRecursiveSkipsSubdirs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "posts.yaml", validManifest)
	writeFile(t, dir, filepath.Join("nested", "users.yaml"), invalidKindManifest)

	result, err := Discover(dir, Options{Handlers: testRegistry(t)})
	require.NoError(t, err)
	assert.Len(t, result.ScannedFiles, 1)
}

func TestDiscoverFilters(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "posts.yaml", validManifest)
	writeFile(t, dir, "posts_test.yaml", invalidKindManifest)
	writeFile(t, dir, "index.yaml", invalidKindManifest)
	writeFile(t, dir, "notes.txt", "not a manifest")

	result, err := Discover(dir, Options{Handlers: testRegistry(t)})
	require.NoError(t, err)
	require.Len(t, result.ScannedFiles, 1)
	assert.Contains(t, result.ScannedFiles[0], "posts.yaml")
}

func TestDiscoverJSONManifest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "posts.json", `{
  "posts": {
    "namespace": "posts",
    "procedures": {
      "listPosts": {"kind": "query", "handler": "posts.list"}
    }
  }
}`)

	result, err := Discover(dir, Options{Handlers: testRegistry(t)})
	require.NoError(t, err)
	assert.Len(t, result.Collections, 1)
}

func TestDiscoverDuplicateNamespace(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", validManifest)
	writeFile(t, dir, "b.yaml", validManifest)

	result, err := Discover(dir, Options{
		Handlers:        testRegistry(t),
		OnInvalidExport: PolicyWarn,
	})
	require.NoError(t, err)
	assert.Len(t, result.Collections, 1)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0].Message, "already defined")
}

func TestDiscoverDeterministicOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "zebra.yaml", `
zebra:
  namespace: zebra
  procedures:
    listItems: {kind: query, handler: posts.list}
`)
	writeFile(t, dir, "alpha.yaml", validManifest)

	for i := 0; i < 5; i++ {
		result, err := Discover(dir, Options{Handlers: testRegistry(t)})
		require.NoError(t, err)
		require.Len(t, result.Collections, 2)
		assert.Equal(t, "posts", result.Collections[0].Namespace())
		assert.Equal(t, "zebra", result.Collections[1].Namespace())
	}
}

func TestDiscoverResultIsFreshPerCall(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "posts.yaml", validManifest)

	first, err := Discover(dir, Options{Handlers: testRegistry(t)})
	require.NoError(t, err)

	writeFile(t, dir, "zebra.yaml", `
zebra:
  namespace: zebra
  procedures:
    listItems: {kind: query, handler: posts.list}
`)

	second, err := Discover(dir, Options{Handlers: testRegistry(t)})
	require.NoError(t, err)
	assert.Len(t, first.Collections, 1)
	assert.Len(t, second.Collections, 2)
}

func TestDiscoverDeprecationFromManifest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "posts.yaml", `
posts:
  namespace: posts
  procedures:
    listPosts:
      kind: query
      handler: posts.list
      deprecated: use searchPosts instead
`)

	result, err := Discover(dir, Options{Handlers: testRegistry(t)})
	require.NoError(t, err)

	p, _ := result.Collections[0].Procedure("listPosts")
	deprecated, notice := p.Deprecated()
	assert.True(t, deprecated)
	assert.Equal(t, "use searchPosts instead", notice)
}
