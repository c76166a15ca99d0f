package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/sfmeta/internal/components"
	"github.com/vvka-141/sfmeta/pkg/sfmeta"
)

func TestComponentsFromPath_SourceFormat(t *testing.T) {
	resolver := NewMetadataResolver(nil, sourceTree())

	found, err := resolver.ComponentsFromPath(defaultDir, nil)
	require.NoError(t, err)
	got := byKey(t, found)
	require.Len(t, got, 11)

	tests := []struct {
		key     string
		xml     string
		content string
	}{
		{"ApexClass:Foo", "classes/Foo.cls-meta.xml", "classes/Foo.cls"},
		{"CustomObject:Account", "objects/Account/Account.object-meta.xml", "objects/Account"},
		{"LightningComponentBundle:widget", "lwc/widget/widget.js-meta.xml", "lwc/widget"},
		{"AuraDefinitionBundle:card", "aura/card/card.cmp-meta.xml", "aura/card"},
		{"StaticResource:Logo", "staticresources/Logo.resource-meta.xml", "staticresources/Logo.png"},
		{"StaticResource:Lib", "staticresources/Lib.resource-meta.xml", "staticresources/Lib"},
		{"EmailFolder:Marketing", "email/Marketing.emailFolder-meta.xml", ""},
		{"EmailTemplate:Marketing/Welcome", "email/Marketing/Welcome.email-meta.xml", "email/Marketing/Welcome.email"},
		{"CustomLabels:CustomLabels", "labels/CustomLabels.labels-meta.xml", ""},
		{"DigitalExperienceBundle:site/Portal", "digitalExperiences/site/Portal/Portal.digitalExperience-meta.xml", "digitalExperiences/site/Portal"},
		{"CustomObjectTranslation:Account-es", "objectTranslations/Account-es/Account-es.objectTranslation-meta.xml", "objectTranslations/Account-es"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			c, ok := got[tt.key]
			require.True(t, ok, "missing %s", tt.key)
			assert.Equal(t, defaultDir+"/"+tt.xml, c.XML)
			if tt.content == "" {
				assert.Empty(t, c.Content)
			} else {
				assert.Equal(t, defaultDir+"/"+tt.content, c.Content)
			}
		})
	}
}

func TestComponentsFromPath_DecomposedChildrenStayWithParent(t *testing.T) {
	resolver := NewMetadataResolver(nil, sourceTree())

	found, err := resolver.ComponentsFromPath(defaultDir+"/objects/Account/fields/Region__c.field-meta.xml", nil)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "CustomObject", found[0].Type.Name)
	assert.Equal(t, "Account", found[0].FullName)

	children, err := found[0].GetChildren()
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "Account.Region__c", children[0].FullName)
}

func TestComponentsFromPath_SingleFile(t *testing.T) {
	resolver := NewMetadataResolver(nil, sourceTree())

	found, err := resolver.ComponentsFromPath(defaultDir+"/classes/Foo.cls", nil)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Foo", found[0].FullName)
	assert.Equal(t, defaultDir+"/classes/Foo.cls-meta.xml", found[0].XML)

	found, err = resolver.ComponentsFromPath(defaultDir+"/lwc/widget", nil)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "LightningComponentBundle", found[0].Type.Name)
}

func TestComponentsFromPath_MetadataFormat(t *testing.T) {
	resolver := NewMetadataResolver(nil, metadataTree())

	found, err := resolver.ComponentsFromPath("/mdapi", nil)
	require.NoError(t, err)
	got := byKey(t, found)
	require.Len(t, got, 6)

	assert.Equal(t, "/mdapi/objects/Account.object", got["CustomObject:Account"].XML)
	assert.Empty(t, got["CustomObject:Account"].Content)
	assert.Equal(t, "/mdapi/staticresources/Logo.resource", got["StaticResource:Logo"].Content)
	assert.Equal(t, "/mdapi/email/Marketing-meta.xml", got["EmailFolder:Marketing"].XML)
	assert.Equal(t, "/mdapi/email/Marketing/Welcome.email", got["EmailTemplate:Marketing/Welcome"].Content)
	assert.Equal(t, "/mdapi/labels/CustomLabels.labels", got["CustomLabels:CustomLabels"].XML)
	assert.Equal(t, "/mdapi/classes/Foo.cls", got["ApexClass:Foo"].Content)
}

func TestComponentsFromPath_Include(t *testing.T) {
	resolver := NewMetadataResolver(nil, sourceTree())

	include := components.New(nil,
		components.Member{Type: "ApexClass", FullName: "Foo"},
		components.Member{Type: "CustomField", FullName: "Account.Region__c"},
	)
	found, err := resolver.ComponentsFromPath(defaultDir, include)
	require.NoError(t, err)

	got := byKey(t, found)
	assert.Len(t, got, 2)
	assert.Contains(t, got, "ApexClass:Foo")
	assert.Contains(t, got, "CustomObject:Account")
}

func TestComponentsFromPath_ForceIgnore(t *testing.T) {
	tree := sourceTree()
	fi, err := NewForceIgnore("/proj", []string{"classes/", "**/Logo.*"})
	require.NoError(t, err)
	resolver := NewMetadataResolver(nil, tree, WithForceIgnore(fi))

	found, err := resolver.ComponentsFromPath(defaultDir, nil)
	require.NoError(t, err)
	got := byKey(t, found)

	assert.NotContains(t, got, "ApexClass:Foo")
	assert.NotContains(t, got, "StaticResource:Logo")
	assert.Contains(t, got, "StaticResource:Lib")
	assert.Contains(t, resolver.IgnoredPaths(), defaultDir+"/classes")
	assert.Contains(t, resolver.IgnoredPaths(), defaultDir+"/staticresources/Logo.png")
}

func TestComponentsFromPath_MissingPath(t *testing.T) {
	resolver := NewMetadataResolver(nil, sourceTree())

	_, err := resolver.ComponentsFromPath("/proj/nope", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, sfmeta.ErrInvalidConfig)
}

func TestComponentsFromFiles_AnchorsAtRoot(t *testing.T) {
	tree := sourceTree()
	resolver := NewMetadataResolver(nil, tree)

	found, err := resolver.ComponentsFromFiles(defaultDir, []string{
		defaultDir + "/staticresources/Lib/lwc/shim.js",
		defaultDir + "/staticresources/Lib/index.js",
		defaultDir + "/digitalExperiences/site/Portal/sfdc_cms__view/home/content.json",
		defaultDir + "/objects/Account/fields/Region__c.field-meta.xml",
		defaultDir + "/objects/Account/Account.object-meta.xml",
		defaultDir + "/README.md",
	})
	require.NoError(t, err)

	got := byKey(t, found)
	assert.Len(t, got, 3)
	assert.Contains(t, got, "StaticResource:Lib")
	assert.Contains(t, got, "DigitalExperienceBundle:site/Portal")
	assert.Contains(t, got, "CustomObject:Account")
}
