package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/sfmeta/internal/files/filesystem"
)

func TestForceIgnore_Denies(t *testing.T) {
	fi, err := NewForceIgnore("/proj", []string{
		"*.log",
		"!keep.log",
		"node_modules/",
		"/force-app/main/default/classes/Secret.cls",
		"**/jsconfig.json",
	})
	require.NoError(t, err)

	tests := []struct {
		path   string
		denied bool
	}{
		{"/proj/debug.log", true},
		{"/proj/force-app/nested/trace.log", true},
		{"/proj/force-app/keep.log", false},
		{"/proj/node_modules/lib/index.js", true},
		{"/proj/force-app/main/default/classes/Secret.cls", true},
		{"/proj/other/force-app/main/default/classes/Secret.cls", false},
		{"/proj/force-app/main/default/lwc/jsconfig.json", true},
		{"/proj/force-app/main/default/classes/Foo.cls", false},
		{"/proj/force-app/.eslintrc", true},
		{"/proj/force-app/Foo.cls.dup", true},
		{"/elsewhere/debug.log", false},
		{"/proj", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.denied, fi.Denies(tt.path))
			assert.Equal(t, !tt.denied, fi.Accepts(tt.path))
		})
	}
}

func TestForceIgnore_NilAcceptsEverything(t *testing.T) {
	var fi *ForceIgnore
	assert.False(t, fi.Denies("/proj/anything.log"))
}

func TestParseIgnoreFile(t *testing.T) {
	patterns := ParseIgnoreFile([]byte("# comment\n\n  **/*.md  \n!README.md\n"))
	assert.Equal(t, []string{"**/*.md", "!README.md"}, patterns)
}

func TestLoadForceIgnore(t *testing.T) {
	tree := filesystem.NewMemoryTree("/proj")
	tree.AddFile(".forceignore", "**/profiles\n")

	fi, err := LoadForceIgnore(tree, "/proj")
	require.NoError(t, err)
	assert.True(t, fi.Denies("/proj/force-app/profiles/Admin.profile-meta.xml"))

	empty, err := LoadForceIgnore(filesystem.NewMemoryTree("/other"), "/other")
	require.NoError(t, err)
	assert.False(t, empty.Denies("/other/force-app/profiles/Admin.profile-meta.xml"))
}
