package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	require.Equal(t, "a b c", CleanText("  a \n\t b   c \u0000"))
	require.Equal(t, "", CleanText(" \n "))
}

func TestIntegers(t *testing.T) {
	n, ok := FirstInt("p1234")
	require.True(t, ok)
	require.Equal(t, int64(1234), n)
	_, ok = FirstInt("none")
	require.False(t, ok)

	n, ok = QueryInt("./viewtopic.php?f=5&t=11", "t")
	require.True(t, ok)
	require.Equal(t, int64(11), n)
	_, ok = QueryInt("./viewtopic.php?f=5", "t")
	require.False(t, ok)
	_, ok = QueryInt("./viewtopic.php?t=abc", "t")
	require.False(t, ok)
}

func TestSelections(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<div id="item" data-uid="u42">
		<!-- label -->
		<span>Joined:</span>
		<span>  today  </span>
	</div>`))
	require.NoError(t, err)

	item := doc.Find("#item")
	n, ok := AttrInt(item, "data-uid")
	require.True(t, ok)
	require.Equal(t, int64(42), n)
	_, ok = AttrInt(item, "data-missing")
	require.False(t, ok)

	children := SignificantChildren(item)
	require.Len(t, children, 2)
	require.Equal(t, "Joined:", CleanText(GetText(children[0])))
	require.Equal(t, "today", CleanText(GetText(children[1])))

	require.Equal(t, "", Text(doc.Find("#missing")))
	require.Nil(t, SignificantChildren(doc.Find("#missing")))
}
