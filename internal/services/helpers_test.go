package services

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vvka-141/sfmeta/internal/components"
	"github.com/vvka-141/sfmeta/internal/config"
	"github.com/vvka-141/sfmeta/internal/convert"
	"github.com/vvka-141/sfmeta/internal/files/filesystem"
	"github.com/vvka-141/sfmeta/internal/registry"
	"github.com/vvka-141/sfmeta/internal/resolve"
	"github.com/vvka-141/sfmeta/internal/transfer"
)

const defaultDir = "/proj/force-app/main/default"

const classMeta = `<?xml version="1.0" encoding="UTF-8"?>
<ApexClass xmlns="http://soap.sforce.com/2006/04/metadata">
    <apiVersion>61.0</apiVersion>
    <status>Active</status>
</ApexClass>
`

var fast = transfer.PollingOptions{Frequency: time.Millisecond, Timeout: 5 * time.Second}

func projectTree(classes ...string) *filesystem.MemoryTree {
	tree := filesystem.NewMemoryTree("/")
	for _, name := range classes {
		tree.AddFile(defaultDir+"/classes/"+name+".cls", "public class "+name+" {}\n")
		tree.AddFile(defaultDir+"/classes/"+name+".cls-meta.xml", classMeta)
	}
	return tree
}

func resolveSet(t *testing.T, tree filesystem.TreeContainer) *components.ComponentSet {
	t.Helper()
	set, err := resolve.FromSource(resolve.SourceOptions{
		Paths:    []string{defaultDir},
		Registry: registry.Default(),
		Tree:     tree,
	})
	require.NoError(t, err)
	return set
}

func testSettings() *config.Settings {
	s := config.Defaults()
	s.PollErrorRetryLimit = 3
	return &s
}

func testOptions(tree filesystem.WritableTree, extra ...Option) []Option {
	cv := convert.New(
		convert.WithTree(tree),
		convert.WithLookupEnv(func(string) (string, bool) { return "", false }),
	)
	return append([]Option{WithTree(tree), WithConverter(cv), WithSettings(testSettings())}, extra...)
}

// zipOf builds a base64 retrieve payload from path/content pairs.
func zipOf(t *testing.T, files map[string]string) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = io.WriteString(w, content)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func unzip(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	out := make(map[string]string, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		out[f.Name] = string(content)
	}
	return out
}
