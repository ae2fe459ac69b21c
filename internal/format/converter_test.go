package format_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hal9000y/mail-agent/internal/format"
)

func TestHTML2Text(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "paragraphs",
			input:    `<html><body><p>Hello <b>world</b>!</p><p>Second</p></body></html>`,
			expected: "Hello world!\nSecond",
		},
		{
			name:     "fragment",
			input:    `Just <i>some</i> text`,
			expected: "Just some text",
		},
		{
			name:     "line breaks",
			input:    `<div>Line one<br>Line two<br><br>Line four</div>`,
			expected: "Line one\nLine two\n\nLine four",
		},
		{
			name:     "list",
			input:    `<ul><li>One</li><li>Two</li></ul>`,
			expected: "- One\n- Two",
		},
		{
			name:     "table cells",
			input:    `<table><tr><td>A</td><td>B</td></tr><tr><td>C</td><td>D</td></tr></table>`,
			expected: "A B\nC D",
		},
		{
			name: "hidden elements",
			input: `<html><head><title>T</title><style>p{color:red}</style></head>
				<body><script>alert(1)</script><p>Visible</p><noscript>nojs</noscript></body></html>`,
			expected: "Visible",
		},
		{
			name: "whitespace collapsed",
			input: `<p>
				Dear   Bob,
			</p>
			<p>  See you   tomorrow.  </p>`,
			expected: "Dear Bob,\nSee you tomorrow.",
		},
		{
			name:     "entities",
			input:    `<p>Tom &amp; Jerry &lt;3</p>`,
			expected: "Tom & Jerry <3",
		},
		{
			name:     "empty",
			input:    ``,
			expected: "",
		},
	}

	cnv := format.Converter{}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := cnv.HTML2Text([]byte(tc.input))
			require.NoError(t, err)
			assert.Equal(t, tc.expected, result)
		})
	}
}
