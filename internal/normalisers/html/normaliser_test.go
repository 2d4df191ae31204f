package html

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobilemutex/zim-mcp/internal/core/domain"
)

const article = `<!DOCTYPE html>
<html>
<head>
  <title> Go &amp; Gophers </title>
  <meta name="description" content="All about Go">
  <style>body { color: red; }</style>
</head>
<body>
  <h1 id="top">Go <em>language</em></h1>
  <p>Go was designed at Google.<br>It is compiled.</p>
  <script>var x = "hidden";</script>
  <img src="gopher.png"><img src="logo.png" alt="logo"/>
  <h2 class="section" id='history'>History</h2>
  <p>See <a href="/wiki/C">C</a> and <a href="https://go.dev">the <b>site</b></a>.</p>
  <h3></h3>
  <a name="anchor">no href</a>
  <a href="">empty</a>
</body>
</html>`

func TestNew(t *testing.T) {
	normaliser := New()
	require.NotNil(t, normaliser)
	assert.IsType(t, &Normaliser{}, normaliser)
}

func TestSupportedMIMETypes(t *testing.T) {
	mimeTypes := New().SupportedMIMETypes()

	require.NotEmpty(t, mimeTypes)
	assert.Contains(t, mimeTypes, "text/html")
	assert.Contains(t, mimeTypes, "application/xhtml+xml")
	assert.Len(t, mimeTypes, 2)
}

func TestText(t *testing.T) {
	text := New().Text(article)

	assert.Contains(t, text, "Go language")
	assert.Contains(t, text, "Go was designed at Google. It is compiled.")
	assert.Contains(t, text, "See C and the site.")
	assert.NotContains(t, text, "hidden")
	assert.NotContains(t, text, "color: red")
	assert.NotContains(t, text, "<")
	assert.NotContains(t, text, "  ")
	assert.NotContains(t, text, "\n")
}

func TestText_Cases(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"plain text untouched", "hello world", "hello world"},
		{"whitespace collapsed", "a \t\n\n b", "a b"},
		{"entities decoded", "<p>Fish &amp; chips &lt;3</p>", "Fish & chips <3"},
		{"comments removed", "a<!-- secret -->b", "ab"},
		{"adjacent blocks separated", "<div>one</div><div>two</div>", "one two"},
	}

	n := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Text(tt.input))
		})
	}
}

func TestTitleAndDescription(t *testing.T) {
	n := New()

	title, ok := n.Title(article)
	require.True(t, ok)
	assert.Equal(t, "Go & Gophers", title)

	desc, ok := n.Description(article)
	require.True(t, ok)
	assert.Equal(t, "All about Go", desc)

	_, ok = n.Title("<p>no title</p>")
	assert.False(t, ok)
	_, ok = n.Description("<meta name=\"keywords\" content=\"go\">")
	assert.False(t, ok)
}

func TestCounts(t *testing.T) {
	n := New()

	assert.Equal(t, 2, n.CountImages(article))
	assert.Equal(t, 3, n.CountLinks(article))
	assert.Equal(t, 0, n.CountImages("plain"))
	assert.Equal(t, 0, n.CountLinks("<a name=\"x\">x</a>"))
}

func TestHeadings(t *testing.T) {
	headings := New().Headings(article)

	assert.Equal(t, []domain.Heading{
		{Level: 1, ID: "top", Text: "Go language"},
		{Level: 2, ID: "history", Text: "History"},
	}, headings)
}

func TestLinks(t *testing.T) {
	links := New().Links(article)

	assert.Equal(t, []domain.Link{
		{Href: "/wiki/C", Text: "C"},
		{Href: "https://go.dev", Text: "the site"},
	}, links)
}

func TestMalformedMarkup(t *testing.T) {
	n := New()
	input := "<h1>unterminated <a href='x'>link <p>text"

	assert.NotPanics(t, func() {
		n.Text(input)
		n.Headings(input)
		n.Links(input)
	})
	assert.Empty(t, n.Headings(input))
	assert.Empty(t, n.Links(input))
}
