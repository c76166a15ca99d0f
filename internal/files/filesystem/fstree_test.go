package filesystem

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestZipTree(t *testing.T) {
	data := buildZip(t, map[string]string{
		"unpackaged/package.xml":     "<Package/>",
		"unpackaged/classes/Foo.cls": "public class Foo {}",
		"unpackaged/classes/Bar.cls": "public class Bar {}",
	})

	tree, err := NewZipTree(data)
	require.NoError(t, err)

	require.True(t, tree.IsDirectory("unpackaged"))
	require.True(t, tree.IsDirectory("/unpackaged/classes"))
	require.True(t, tree.Exists("unpackaged/package.xml"))

	names, err := tree.ReadDirectory("unpackaged/classes")
	require.NoError(t, err)
	require.Equal(t, []string{"Bar.cls", "Foo.cls"}, names)

	content, err := tree.ReadFile("unpackaged/classes/Foo.cls")
	require.NoError(t, err)
	require.Equal(t, "public class Foo {}", string(content))

	files, err := Files(tree, "")
	require.NoError(t, err)
	require.Len(t, files, 3)
}

func TestZipTree_InvalidArchive(t *testing.T) {
	_, err := NewZipTree([]byte("not a zip"))
	require.Error(t, err)
}
