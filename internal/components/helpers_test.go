package components

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vvka-141/sfmeta/internal/files/filesystem"
	"github.com/vvka-141/sfmeta/internal/registry"
)

const ns = `xmlns="http://soap.sforce.com/2006/04/metadata"`

func mustType(t *testing.T, name string) *registry.MetadataType {
	t.Helper()
	mt, err := registry.Default().TypeByName(name)
	require.NoError(t, err)
	return mt
}

// fixtureTree builds a small source-format project under /proj.
func fixtureTree() *filesystem.MemoryTree {
	tree := filesystem.NewMemoryTree("/proj")
	tree.AddFile("objects/Account/Account.object-meta.xml",
		"<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<CustomObject "+ns+"/>\n")
	tree.AddFile("objects/Account/fields/Region__c.field-meta.xml",
		"<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<CustomField "+ns+">\n    <fullName>Region__c</fullName>\n</CustomField>\n")
	tree.AddFile("objects/Widget__c/Widget__c.object-meta.xml",
		"<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<CustomObject "+ns+">\n    <label>Widget</label>\n</CustomObject>\n")
	tree.AddFile("objects/Widget__c/fields/Size__c.field-meta.xml",
		"<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<CustomField "+ns+">\n    <fullName>Size__c</fullName>\n</CustomField>\n")
	tree.AddFile("labels/CustomLabels.labels-meta.xml",
		"<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<CustomLabels "+ns+">\n"+
			"    <labels>\n        <fullName>Greeting</fullName>\n    </labels>\n"+
			"    <labels>\n        <fullName>Farewell</fullName>\n    </labels>\n</CustomLabels>\n")
	tree.AddFile("objectTranslations/Account-es/Account-es.objectTranslation-meta.xml",
		"<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<CustomObjectTranslation "+ns+"/>\n")
	tree.AddFile("objectTranslations/Account-es/Region__c.fieldTranslation-meta.xml",
		"<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<CustomFieldTranslation "+ns+">\n    <name>Region__c</name>\n</CustomFieldTranslation>\n")
	return tree
}

func objectComponent(t *testing.T, tree filesystem.TreeContainer, name string) *SourceComponent {
	return &SourceComponent{
		Type:     mustType(t, "CustomObject"),
		FullName: name,
		XML:      "/proj/objects/" + name + "/" + name + ".object-meta.xml",
		Content:  "/proj/objects/" + name,
		Tree:     tree,
	}
}
