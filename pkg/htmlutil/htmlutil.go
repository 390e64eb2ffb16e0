package htmlutil

import (
	"bytes"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

// CleanText strips non-printable characters and collapses whitespace.
func CleanText(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, s)
	s = strings.TrimSpace(s)
	return innerWhitespace.ReplaceAllString(s, " ")
}

// Text is the cleaned text of a selection, "" for an empty selection.
func Text(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	return CleanText(sel.Text())
}

var digitsRegex = regexp.MustCompile(`\d+`)

// FirstInt parses the first run of digits found in s.
func FirstInt(s string) (int64, bool) {
	match := digitsRegex.FindString(s)
	if match == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(match, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// AttrInt parses the first run of digits in the attribute of the first element in sel.
func AttrInt(sel *goquery.Selection, attr string) (int64, bool) {
	value, exists := sel.First().Attr(attr)
	if !exists {
		return 0, false
	}
	return FirstInt(value)
}

// QueryInt reads an integer query parameter out of an href, relative or absolute.
func QueryInt(href, key string) (int64, bool) {
	link, err := url.Parse(href)
	if err != nil {
		return 0, false
	}
	value := link.Query().Get(key)
	if value == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// SignificantChildren lists the direct children of the first element in sel, skipping comments
// and whitespace-only text nodes.
func SignificantChildren(sel *goquery.Selection) []*html.Node {
	if sel.Length() == 0 {
		return nil
	}
	var out []*html.Node
	for child := sel.Get(0).FirstChild; child != nil; child = child.NextSibling {
		switch child.Type {
		case html.CommentNode:
			continue
		case html.TextNode:
			if strings.TrimSpace(child.Data) == "" {
				continue
			}
		}
		out = append(out, child)
	}
	return out
}
