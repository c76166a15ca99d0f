package manifest

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/sfmeta/pkg/sfmeta"
)

const expectedManifest = `<?xml version="1.0" encoding="UTF-8"?>
<Package xmlns="http://soap.sforce.com/2006/04/metadata">
    <types>
        <members>A</members>
        <members>B</members>
        <name>ApexClass</name>
    </types>
    <types>
        <members>Account</members>
        <name>CustomObject</name>
    </types>
    <version>60.0</version>
</Package>
`

func samplePackage() sfmeta.Package {
	return sfmeta.Package{
		Types: []sfmeta.PackageTypeMembers{
			{Name: "ApexClass", Members: []string{"A", "B"}},
			{Name: "CustomObject", Members: []string{"Account"}},
		},
		Version: "60.0",
	}
}

func TestEncode_DefaultIndentation(t *testing.T) {
	assert.Equal(t, expectedManifest, string(Encode(samplePackage(), "")))
}

func TestEncode_FullNameAndIndent(t *testing.T) {
	pkg := samplePackage()
	pkg.FullName = "MyPackage"

	out := string(Encode(pkg, "  "))
	assert.True(t, strings.Contains(out, "\n  <fullName>MyPackage</fullName>\n  <types>"), out)
}

func TestDecode_RoundTrip(t *testing.T) {
	pkg, err := Decode([]byte(expectedManifest), "package.xml")
	require.NoError(t, err)
	assert.Equal(t, samplePackage(), *pkg)
}

func TestDecode_SyntaxErrorHasLine(t *testing.T) {
	broken := "<?xml version=\"1.0\"?>\n<Package>\n  <types>\n    <name>ApexClass</types>\n</Package>\n"

	_, err := Decode([]byte(broken), "package.xml")
	require.Error(t, err)

	var me *ManifestError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, "package.xml", me.FilePath)
	assert.Equal(t, 4, me.Line)
	assert.Contains(t, err.Error(), "Hint:")
	assert.True(t, sfmeta.IsDescriptive(err))
}

func TestReadFileAndWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "package.xml")

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, samplePackage(), ""))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))

	pkg, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, pkg.Members("ApexClass"))

	_, err = ReadFile(filepath.Join(dir, "missing.xml"))
	require.Error(t, err)
}
