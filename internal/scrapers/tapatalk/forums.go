package tapatalk

import (
	"fmt"
	"tapascrap/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// Forum reads the header of a forum page. Unknown forums render a message box instead of the
// forum title.
func (p Parser) Forum(doc *goquery.Document, id int64) (Forum, error) {
	if doc.Find("#message, h2.message-title").Length() > 0 {
		return Forum{}, fmt.Errorf("%w: forum %d", ErrResourceAbsent, id)
	}
	title := doc.Find("h2.forum-title").First()
	if title.Length() == 0 {
		title = doc.Find("h2").First()
	}
	if title.Length() == 0 {
		return Forum{}, fmt.Errorf("%w: forum %d has no title", ErrResourceAbsent, id)
	}

	return Forum{
		Id:          id,
		Name:        htmlutil.Text(title),
		Description: htmlutil.Text(doc.Find("p.forum-description").First()),
		ParentId:    lastForumId(doc, id),
		Pagination:  ReadPagination(doc),
	}, nil
}
