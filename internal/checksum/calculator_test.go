package checksum

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSHA256Calculator_CalculateRaw(t *testing.T) {
	calc := New()

	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		calc.CalculateRaw(nil))

	a := calc.CalculateRaw([]byte("<ApexClass/>"))
	assert.Len(t, a, 64)
	assert.Equal(t, a, calc.CalculateRaw([]byte("<ApexClass/>")))
	assert.NotEqual(t, a, calc.CalculateRaw([]byte("<ApexClass />")))
}

func TestSHA256Calculator_CalculateNormalized(t *testing.T) {
	calc := New()
	base := "<CustomObject>\n    <label>Widget</label>\n</CustomObject>\n"

	tests := []struct {
		name    string
		content string
		same    bool
	}{
		{"identical", base, true},
		{"crlf line endings", "<CustomObject>\r\n    <label>Widget</label>\r\n</CustomObject>\r\n", true},
		{"trailing whitespace", "<CustomObject>  \n    <label>Widget</label>\t\n</CustomObject>", true},
		{"blank lines", "<CustomObject>\n\n    <label>Widget</label>\n\n</CustomObject>\n", true},
		{"comment", "<CustomObject>\n    <!-- generated -->\n    <label>Widget</label>\n</CustomObject>\n", true},
		{"byte order mark", "\xEF\xBB\xBF" + base, true},
		{"different value", "<CustomObject>\n    <label>Gadget</label>\n</CustomObject>\n", false},
		{"different indentation", "<CustomObject>\n  <label>Widget</label>\n</CustomObject>\n", false},
	}

	want := calc.CalculateNormalized([]byte(base))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc.CalculateNormalized([]byte(tt.content))
			if tt.same {
				assert.Equal(t, want, got)
			} else {
				assert.NotEqual(t, want, got)
			}
		})
	}
}

func TestSHA256Calculator_CommentsInsideCDATA(t *testing.T) {
	calc := New()

	withMarker := "<body><![CDATA[<!-- keep -->]]></body>"
	without := "<body><![CDATA[]]></body>"
	assert.NotEqual(t, calc.CalculateNormalized([]byte(withMarker)), calc.CalculateNormalized([]byte(without)))

	assert.Equal(t,
		"<body><![CDATA[<!-- keep -->]]></body>",
		calc.removeComments("<body><!-- drop --><![CDATA[<!-- keep -->]]></body>"))
}

func TestSHA256Calculator_UnterminatedComment(t *testing.T) {
	calc := New()
	assert.Equal(t, "<a>", calc.removeComments("<a><!-- never closed"))
}

func TestSHA256Calculator_Equal(t *testing.T) {
	calc := New()
	assert.True(t, calc.Equal([]byte("a\r\n"), []byte("a\n")))
	assert.False(t, calc.Equal([]byte("a"), []byte("b")))
}

func TestCalculatorInterface(t *testing.T) {
	var _ Calculator = New()
}
