package tapatalk

import (
	"strconv"
	"strings"
	"tapascrap/pkg/htmlutil"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Parser holds the settings shared by the extractors. Extractors never fail on a missing
// optional element, they leave the matching field at its zero value.
type Parser struct {
	AuthorMode AuthorMode
	// Location is used for dates rendered without a zone.
	Location *time.Location
}

func NewParser(mode AuthorMode, location *time.Location) Parser {
	if mode == "" {
		mode = AuthorAuto
	}
	if location == nil {
		location = time.UTC
	}
	return Parser{AuthorMode: mode, Location: location}
}

// ReadPagination reads the first pagination widget of a listing: the total item count is the
// first number of its text, the page count is the highest page number linked from it.
func ReadPagination(doc *goquery.Document) Pagination {
	widget := doc.Find("div.pagination").First()
	result := Pagination{Pages: 1}
	if widget.Length() == 0 {
		return result
	}

	if items, ok := htmlutil.FirstInt(widget.Text()); ok {
		result.Items = items
	}
	widget.Find("a.button, li.active > span").Each(func(_ int, s *goquery.Selection) {
		page, err := strconv.ParseInt(strings.TrimSpace(s.Text()), 10, 64)
		if err != nil {
			return
		}
		if page > result.Pages {
			result.Pages = page
		}
	})
	return result
}

// lastForumId is the id carried by the last breadcrumb, skipping the given id.
func lastForumId(doc *goquery.Document, skip int64) int64 {
	crumbs := doc.Find("span[data-forum-id]")
	for i := crumbs.Length() - 1; i >= 0; i-- {
		id, ok := htmlutil.AttrInt(crumbs.Eq(i), "data-forum-id")
		if !ok || id == 0 || id == skip {
			continue
		}
		return id
	}
	return 0
}

// authorFromLink reads an author out of a profile anchor (href with a u= parameter).
func authorFromLink(anchor *goquery.Selection) (Author, bool) {
	if anchor.Length() == 0 {
		return Author{}, false
	}
	href, _ := anchor.First().Attr("href")
	id, ok := htmlutil.QueryInt(href, "u")
	if !ok {
		return Author{}, false
	}
	return Author{Id: id, Name: htmlutil.Text(anchor.First())}, true
}
