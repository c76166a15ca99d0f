package resolve

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vvka-141/sfmeta/internal/components"
	"github.com/vvka-141/sfmeta/internal/files/filesystem"
)

const defaultDir = "/proj/force-app/main/default"

func meta(root string) string {
	return "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<" + root +
		" xmlns=\"http://soap.sforce.com/2006/04/metadata\"/>\n"
}

// sourceTree builds a source format project under /proj.
func sourceTree() *filesystem.MemoryTree {
	tree := filesystem.NewMemoryTree("/proj")
	add := func(rel, content string) { tree.AddFile("force-app/main/default/"+rel, content) }

	add("classes/Foo.cls", "public class Foo {}")
	add("classes/Foo.cls-meta.xml", meta("ApexClass"))
	add("objects/Account/Account.object-meta.xml", meta("CustomObject"))
	add("objects/Account/fields/Region__c.field-meta.xml", meta("CustomField"))
	add("lwc/widget/widget.js", "export default class Widget {}")
	add("lwc/widget/widget.html", "<template></template>")
	add("lwc/widget/widget.js-meta.xml", meta("LightningComponentBundle"))
	add("aura/card/card.cmp", "<aura:component/>")
	add("aura/card/card.cmp-meta.xml", meta("AuraDefinitionBundle"))
	add("staticresources/Logo.resource-meta.xml", meta("StaticResource"))
	add("staticresources/Logo.png", "png")
	add("staticresources/Lib.resource-meta.xml", meta("StaticResource"))
	add("staticresources/Lib/index.js", "lib")
	add("staticresources/Lib/lwc/shim.js", "shim")
	add("email/Marketing.emailFolder-meta.xml", meta("EmailFolder"))
	add("email/Marketing/Welcome.email", "Hello")
	add("email/Marketing/Welcome.email-meta.xml", meta("EmailTemplate"))
	add("labels/CustomLabels.labels-meta.xml", meta("CustomLabels"))
	add("digitalExperiences/site/Portal/Portal.digitalExperience-meta.xml", meta("DigitalExperienceBundle"))
	add("digitalExperiences/site/Portal/sfdc_cms__view/home/content.json", "{}")
	add("objectTranslations/Account-es/Account-es.objectTranslation-meta.xml", meta("CustomObjectTranslation"))
	add("objectTranslations/Account-es/Region__c.fieldTranslation-meta.xml", meta("CustomFieldTranslation"))
	add("README.md", "docs")
	return tree
}

// metadataTree builds a metadata API format directory under /mdapi.
func metadataTree() *filesystem.MemoryTree {
	tree := filesystem.NewMemoryTree("/mdapi")
	tree.AddFile("package.xml", "<Package/>")
	tree.AddFile("classes/Foo.cls", "public class Foo {}")
	tree.AddFile("classes/Foo.cls-meta.xml", meta("ApexClass"))
	tree.AddFile("objects/Account.object", meta("CustomObject"))
	tree.AddFile("staticresources/Logo.resource", "zip")
	tree.AddFile("staticresources/Logo.resource-meta.xml", meta("StaticResource"))
	tree.AddFile("email/Marketing-meta.xml", meta("EmailFolder"))
	tree.AddFile("email/Marketing/Welcome.email", "Hello")
	tree.AddFile("email/Marketing/Welcome.email-meta.xml", meta("EmailTemplate"))
	tree.AddFile("labels/CustomLabels.labels", meta("CustomLabels"))
	return tree
}

func byKey(t *testing.T, found []*components.SourceComponent) map[string]*components.SourceComponent {
	t.Helper()
	out := make(map[string]*components.SourceComponent, len(found))
	for _, c := range found {
		key := c.Type.Name + ":" + c.FullName
		_, dup := out[key]
		require.False(t, dup, "duplicate component %s", key)
		out[key] = c
	}
	return out
}
