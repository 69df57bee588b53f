package module

import (
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// fixtureResolver resolves import keys against an in-memory map, so
// tests can exercise splicing and cycle detection without touching
// the filesystem.
type fixtureResolver struct {
	files map[string]string
}

func (f fixtureResolver) ResolveAndLoad(key string) (string, string, error) {
	src, ok := f.files[key]
	if !ok {
		return "", "", fmt.Errorf("no fixture for %q", key)
	}
	return key, src, nil
}

func TestLoadSplicesImportedStatementsBeforeRoot(t *testing.T) {
	r := fixtureResolver{files: map[string]string{
		"Greeter.ss": `func greet() -> String { return "hi" }`,
	}}
	loader := NewLoader(r)
	stmts, err := loader.Load("main.ss", `
import "Greeter.ss"
print(greet())
`)
	require.NoError(t, err)
	require.Len(t, stmts, 2)
}

func TestLoadDetectsCircularImport(t *testing.T) {
	r := fixtureResolver{files: map[string]string{
		"A.ss": `import "B.ss"`,
		"B.ss": `import "A.ss"`,
	}}
	loader := NewLoader(r)
	_, err := loader.Load("A.ss", `import "B.ss"`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "circular import")
}

func TestLoadMemoizesSharedImport(t *testing.T) {
	r := fixtureResolver{files: map[string]string{
		"Shared.ss": `func helper() -> Int { return 1 }`,
		"Left.ss":   `import "Shared.ss"`,
		"Right.ss":  `import "Shared.ss"`,
	}}
	loader := NewLoader(r)
	stmts, err := loader.Load("main.ss", `
import "Left.ss"
import "Right.ss"
`)
	require.NoError(t, err)
	// helper() spliced in once per import site, since splicing is
	// per-import-statement rather than per-distinct-file.
	require.Len(t, stmts, 2)
}

func TestNamespaceDerivesFileStem(t *testing.T) {
	require.Equal(t, "Strings", Namespace("utils/Strings.ss"))
	require.Equal(t, "Greeter", Namespace("Greeter.ss"))
}

func TestFileResolverAppendsExtension(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(dir+"/Greeter.ss", []byte(`func greet() -> String { return "hi" }`), 0o644))
	r := FileResolver{BaseDir: dir}
	fullPath, source, err := r.ResolveAndLoad("Greeter")
	require.NoError(t, err)
	require.Equal(t, dir+"/Greeter.ss", fullPath)
	require.Contains(t, source, "greet")
}
