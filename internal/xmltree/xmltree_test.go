package xmltree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const customObject = `<?xml version="1.0" encoding="UTF-8"?>
<CustomObject xmlns="http://soap.sforce.com/2006/04/metadata">
    <label>Account</label>
    <fields>
        <fullName>Region__c</fullName>
        <label>Region &amp; Zone</label>
    </fields>
    <enableHistory/>
</CustomObject>
`

func TestParse(t *testing.T) {
	root, err := Parse([]byte(customObject))
	require.NoError(t, err)

	assert.Equal(t, "CustomObject", root.Name)
	ns, ok := root.Attr("xmlns")
	require.True(t, ok)
	assert.Equal(t, "http://soap.sforce.com/2006/04/metadata", ns)

	assert.Equal(t, "Account", root.ChildText("label"))
	fields := root.Elements("fields")
	require.Len(t, fields, 1)
	assert.Equal(t, "Region__c", fields[0].ChildText("fullName"))
	assert.Equal(t, "Region & Zone", fields[0].ChildText("label"))
	assert.Nil(t, root.Child("missing"))
}

func TestMarshal_RoundTrip(t *testing.T) {
	root, err := Parse([]byte(customObject))
	require.NoError(t, err)

	assert.Equal(t, customObject, string(Marshal(root, "    ")))
}

func TestMarshal_PreservesMultilineText(t *testing.T) {
	doc := Header + "\n<ApexClass>\n  <body>line one\nline two \"quoted\"</body>\n</ApexClass>\n"
	root, err := Parse([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, doc, string(Marshal(root, "  ")))
}

func TestMarshal_PrefixedAttributes(t *testing.T) {
	doc := Header + "\n<CustomMetadata xmlns=\"http://soap.sforce.com/2006/04/metadata\" xmlns:xsi=\"http://www.w3.org/2001/XMLSchema-instance\">\n" +
		"    <value xsi:type=\"xsd:string\">x</value>\n</CustomMetadata>\n"
	root, err := Parse([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, doc, string(Marshal(root, "    ")))
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("<a><b></a>"))
	require.Error(t, err)

	_, err = Parse([]byte(""))
	require.Error(t, err)
}

func TestNode_Helpers(t *testing.T) {
	root := &Node{Name: "CustomLabels"}
	root.SetNamespace("urn:one")
	root.SetNamespace("urn:two")
	root.Append(NewElement("labels", ""), NewElement("labels", ""))

	ns, _ := root.Attr("xmlns")
	assert.Equal(t, "urn:two", ns)
	assert.Len(t, root.Attrs, 1)
	assert.Len(t, root.Elements("labels"), 2)

	clone := root.Clone()
	clone.Children[0].Text = "changed"
	assert.Equal(t, "", root.Children[0].Text)
}
