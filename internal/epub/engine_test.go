package epub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testView(pages ...string) *View {
	return &View{pages: pages}
}

func TestParseLocator(t *testing.T) {
	page, offset, err := parseLocator("spine:3")
	require.NoError(t, err)
	assert.Equal(t, 3, page)
	assert.Equal(t, 0, offset)

	page, offset, err = parseLocator("spine:12@450")
	require.NoError(t, err)
	assert.Equal(t, 12, page)
	assert.Equal(t, 450, offset)

	for _, bad := range []string{"", "spine:", "spine:x", "spine:1@x", "cfi(/6/4)", "3"} {
		_, _, err := parseLocator(bad)
		assert.Error(t, err, "locator %q", bad)
	}
}

func TestNavigationClamps(t *testing.T) {
	v := testView("one", "two", "three")

	assert.Equal(t, 1, v.CurrentPage())
	v.Prev()
	assert.Equal(t, 1, v.CurrentPage(), "prev clamps at the first page")

	v.Next()
	v.Next()
	assert.Equal(t, 3, v.CurrentPage())
	v.Next()
	assert.Equal(t, 3, v.CurrentPage(), "next clamps at the last page")
}

func TestLocatorRoundTrip(t *testing.T) {
	v := testView("one", "two", "three")
	v.Next()

	loc := v.Locator()
	assert.Equal(t, "spine:1", loc)

	v2 := testView("one", "two", "three")
	require.NoError(t, v2.DisplayAt(loc))
	assert.Equal(t, v.CurrentPage(), v2.CurrentPage())
	assert.Equal(t, "two", v2.PageText())
}

func TestDisplayAtOutOfRange(t *testing.T) {
	v := testView("only")
	assert.Error(t, v.DisplayAt("spine:5"))
	assert.Error(t, v.DisplayAt("spine:-1"))
	assert.Equal(t, 1, v.CurrentPage(), "a bad locator leaves the view where it was")
}

func TestSearch(t *testing.T) {
	v := testView(
		"the quick brown fox",
		"jumps over the lazy dog",
		"the fox returns",
	)
	v.page = 2

	matches, err := v.Search("Fox")
	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Equal(t, 1, matches[0].Page)
	assert.Equal(t, 3, matches[1].Page)
	assert.Contains(t, matches[0].Excerpt, "fox")

	// all matches stay highlighted and the view jumped to the first
	assert.Equal(t, matches, v.Highlights())
	assert.Equal(t, 1, v.CurrentPage())
}

func TestSearchNoResults(t *testing.T) {
	v := testView("nothing to see here")

	_, err := v.Search("unicorn")
	assert.ErrorIs(t, err, ErrNoResults)
	assert.Empty(t, v.Highlights())

	_, err = v.Search("   ")
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestSearchClearsPriorHighlights(t *testing.T) {
	v := testView("alpha beta", "beta gamma")

	_, err := v.Search("beta")
	require.NoError(t, err)
	require.Len(t, v.Highlights(), 2)

	_, err = v.Search("gamma")
	require.NoError(t, err)
	assert.Len(t, v.Highlights(), 1)

	_, err = v.Search("nope")
	assert.ErrorIs(t, err, ErrNoResults)
	assert.Empty(t, v.Highlights(), "a failed search leaves no stale highlights")
}

func TestFlattenXHTML(t *testing.T) {
	doc := []byte(`<html><head><style>p { color: red }</style></head>
		<body><p>Hello   <b>world</b></p><script>alert(1)</script></body></html>`)
	assert.Equal(t, "Hello world", flattenXHTML(doc))
}

func TestFlattenXHTMLMalformed(t *testing.T) {
	// html.Parse is forgiving, but whatever happens the page text must
	// not come back empty.
	got := flattenXHTML([]byte("plain old text, no markup"))
	assert.Equal(t, "plain old text, no markup", got)
}
