package convert

import (
	"archive/zip"
	"bytes"
	"io"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vvka-141/sfmeta/internal/components"
	"github.com/vvka-141/sfmeta/internal/files/filesystem"
	"github.com/vvka-141/sfmeta/internal/registry"
	"github.com/vvka-141/sfmeta/internal/resolve"
)

const projectDir = "/proj"
const defaultDir = "/proj/force-app/main/default"

const classMeta = `<?xml version="1.0" encoding="UTF-8"?>
<ApexClass xmlns="http://soap.sforce.com/2006/04/metadata">
    <apiVersion>61.0</apiVersion>
    <status>Active</status>
</ApexClass>
`

const accountSource = `<?xml version="1.0" encoding="UTF-8"?>
<CustomObject xmlns="http://soap.sforce.com/2006/04/metadata">
    <label>Account</label>
    <sharingModel>ReadWrite</sharingModel>
</CustomObject>
`

const regionField = `<?xml version="1.0" encoding="UTF-8"?>
<CustomField xmlns="http://soap.sforce.com/2006/04/metadata">
    <fullName>Region__c</fullName>
    <label>Region</label>
    <type>Text</type>
</CustomField>
`

const activeRule = `<?xml version="1.0" encoding="UTF-8"?>
<ValidationRule xmlns="http://soap.sforce.com/2006/04/metadata">
    <fullName>Active</fullName>
    <active>true</active>
</ValidationRule>
`

const accountMetadata = `<?xml version="1.0" encoding="UTF-8"?>
<CustomObject xmlns="http://soap.sforce.com/2006/04/metadata">
    <label>Account</label>
    <sharingModel>ReadWrite</sharingModel>
    <fields>
        <fullName>Region__c</fullName>
        <label>Region</label>
        <type>Text</type>
    </fields>
    <validationRules>
        <fullName>Active</fullName>
        <active>true</active>
    </validationRules>
</CustomObject>
`

const labelsXML = `<?xml version="1.0" encoding="UTF-8"?>
<CustomLabels xmlns="http://soap.sforce.com/2006/04/metadata">
    <labels>
        <fullName>Greeting</fullName>
        <language>en_US</language>
        <value>Hello</value>
    </labels>
</CustomLabels>
`

const layoutXML = `<?xml version="1.0" encoding="UTF-8"?>
<Layout xmlns="http://soap.sforce.com/2006/04/metadata">
    <showHighlightsPanel>true</showHighlightsPanel>
</Layout>
`

const folderXML = `<?xml version="1.0" encoding="UTF-8"?>
<EmailFolder xmlns="http://soap.sforce.com/2006/04/metadata">
    <name>Marketing</name>
</EmailFolder>
`

func resourceMeta(contentType string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<StaticResource xmlns="http://soap.sforce.com/2006/04/metadata">
    <cacheControl>Public</cacheControl>
    <contentType>` + contentType + `</contentType>
</StaticResource>
`
}

func bundleMeta() string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<LightningComponentBundle xmlns="http://soap.sforce.com/2006/04/metadata">
    <isExposed>false</isExposed>
</LightningComponentBundle>
`
}

var fixedNow = time.UnixMilli(1700000000000)

// sourceFiles is a small source format project, keyed by path below defaultDir.
func sourceFiles() map[string]string {
	return map[string]string{
		"classes/Foo.cls":                                                "public class Foo {}\n",
		"classes/Foo.cls-meta.xml":                                       classMeta,
		"objects/Account/Account.object-meta.xml":                        accountSource,
		"objects/Account/fields/Region__c.field-meta.xml":                regionField,
		"objects/Account/validationRules/Active.validationRule-meta.xml": activeRule,
		"labels/CustomLabels.labels-meta.xml":                            labelsXML,
		"layouts/Account-Default.layout-meta.xml":                        layoutXML,
		"email/Marketing.emailFolder-meta.xml":                           folderXML,
	}
}

func newTree(files map[string]string, base string) *filesystem.MemoryTree {
	tree := filesystem.NewMemoryTree("/")
	for rel, content := range files {
		tree.AddFile(base+"/"+rel, content)
	}
	return tree
}

func resolveSet(t *testing.T, tree filesystem.TreeContainer, path string) *components.ComponentSet {
	t.Helper()
	set, err := resolve.FromSource(resolve.SourceOptions{
		Paths:    []string{path},
		Registry: registry.Default(),
		Tree:     tree,
	})
	require.NoError(t, err)
	return set
}

func newConverter(tree filesystem.WritableTree, opts ...Option) *Converter {
	base := []Option{
		WithTree(tree),
		WithClock(func() time.Time { return fixedNow }),
		WithLookupEnv(func(string) (string, bool) { return "", false }),
	}
	return New(append(base, opts...)...)
}

func readTree(t *testing.T, tree filesystem.TreeContainer, path string) string {
	t.Helper()
	data, err := tree.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// unzip returns the archive's entries by name.
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

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
