package parse

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hew-build/hew/src/core"
)

// writeTree writes a set of build files under a fresh temp dir and returns it.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, contents := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	}
	return root
}

func noVars() map[string]core.Value { return map[string]core.Value{} }

func TestLoadOneBuildFileAppliesEarlyPhase(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.hew": `{
		  'variables': {'lib_name': 'sausage'},
		  'product': 'lib<(lib_name).so',
		}`,
	})
	m, err := LoadOneBuildFile(filepath.Join(root, "a.hew"), noVars())
	require.NoError(t, err)
	product, _ := m.GetStr("product")
	assert.Equal(t, core.Str("libsausage.so"), product)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadOneBuildFile(filepath.Join(t.TempDir(), "nope.hew"), noVars())
	assert.Error(t, err)
}

func TestIncludesAreInlined(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.hew": `{
		  'includes': ['common/defaults.hew'],
		  'defines': ['LOCAL'],
		}`,
		"common/defaults.hew": `{
		  'defines': ['COMMON'],
		  'sources': ['helper.cc'],
		}`,
	})
	m, err := LoadOneBuildFile(filepath.Join(root, "a.hew"), noVars())
	require.NoError(t, err)
	assert.False(t, m.Has("includes"))
	defines, _ := m.GetList("defines")
	// The including file's list takes the appended include contents.
	assert.Equal(t, 2, defines.Len())
	assert.True(t, defines.Contains(core.Str("LOCAL")))
	assert.True(t, defines.Contains(core.Str("COMMON")))
	// Path lists from the include are rewritten relative to the includer.
	sources, _ := m.GetList("sources")
	assert.Equal(t, []core.Value{core.Str("common/helper.cc")}, sources.Items)
}

func TestNestedIncludes(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.hew":     `{'includes': ['inner.hew']}`,
		"inner.hew": `{'includes': ['innermost.hew'], 'defines': ['INNER']}`,
		"innermost.hew": `{
		  'defines': ['INNERMOST'],
		}`,
	})
	m, err := LoadOneBuildFile(filepath.Join(root, "a.hew"), noVars())
	require.NoError(t, err)
	defines, _ := m.GetList("defines")
	assert.Equal(t, 2, defines.Len())
}

func TestIncludesInsideTargets(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.hew": `{
		  'targets': [{
		    'name': 'exe',
		    'type': 'executable',
		    'includes': ['extra.hew'],
		  }],
		}`,
		"extra.hew": `{'defines': ['EXTRA']}`,
	})
	m, err := LoadOneBuildFile(filepath.Join(root, "a.hew"), noVars())
	require.NoError(t, err)
	targets, _ := m.GetList("targets")
	spec := targets.Items[0].(*core.Map)
	assert.False(t, spec.Has("includes"))
	defines, _ := spec.GetList("defines")
	assert.Equal(t, []core.Value{core.Str("EXTRA")}, defines.Items)
}

func TestLoadTargetBuildFileChasesDependencies(t *testing.T) {
	root := writeTree(t, map[string]string{
		"app/a.hew": `{
		  'targets': [{
		    'name': 'exe',
		    'type': 'executable',
		    'dependencies': ['../lib/b.hew:mylib'],
		  }],
		}`,
		"lib/b.hew": `{
		  'targets': [{
		    'name': 'mylib',
		    'type': 'static_library',
		  }],
		}`,
	})
	loaded := core.NewFileSet()
	require.NoError(t, LoadTargetBuildFile(filepath.Join(root, "app/a.hew"), loaded, noVars()))
	assert.Equal(t, 2, loaded.Len())
	assert.True(t, loaded.Contains(filepath.Join(root, "lib/b.hew")))
}

func TestLoadIsMemoized(t *testing.T) {
	// Two files depending on each other's targets must not recurse forever.
	root := writeTree(t, map[string]string{
		"a.hew": `{
		  'targets': [{'name': 'a', 'type': 'none', 'dependencies': ['b.hew:b']}],
		}`,
		"b.hew": `{
		  'targets': [{'name': 'b', 'type': 'none', 'dependencies': ['a.hew:a']}],
		}`,
	})
	loaded := core.NewFileSet()
	require.NoError(t, LoadTargetBuildFile(filepath.Join(root, "a.hew"), loaded, noVars()))
	assert.Equal(t, 2, loaded.Len())
}

func TestLoadOrderIsDepthFirst(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.hew": `{
		  'targets': [
		    {'name': 'a', 'type': 'none', 'dependencies': ['b.hew:b']},
		    {'name': 'a2', 'type': 'none', 'dependencies': ['c.hew:c']},
		  ],
		}`,
		"b.hew": `{'targets': [{'name': 'b', 'type': 'none'}]}`,
		"c.hew": `{'targets': [{'name': 'c', 'type': 'none'}]}`,
	})
	loaded := core.NewFileSet()
	require.NoError(t, LoadTargetBuildFile(filepath.Join(root, "a.hew"), loaded, noVars()))
	assert.Equal(t, []string{
		filepath.Join(root, "a.hew"),
		filepath.Join(root, "b.hew"),
		filepath.Join(root, "c.hew"),
	}, loaded.Paths())
}

func TestParseErrorNamesTheFile(t *testing.T) {
	root := writeTree(t, map[string]string{"bad.hew": `{'key': }`})
	_, err := LoadOneBuildFile(filepath.Join(root, "bad.hew"), noVars())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.hew")
}
