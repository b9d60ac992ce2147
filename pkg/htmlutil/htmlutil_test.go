package htmlutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func TestGetText(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(`<div id="x"> Change <b>test</b>
		day </div>`))
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "Change test day", CleanText(GetText(doc)))
}

func TestAttr(t *testing.T) {
	node := &html.Node{
		Type: html.ElementNode,
		Data: "input",
		Attr: []html.Attribute{
			{Key: "id", Val: "test-choice-earliest"},
			{Key: "checked"},
		},
	}
	value, ok := Attr(node, "id")
	require.True(t, ok)
	require.Equal(t, "test-choice-earliest", value)
	require.True(t, HasAttr(node, "checked"))
	require.False(t, HasAttr(node, "disabled"))
	require.False(t, HasAttr(nil, "id"))
}
