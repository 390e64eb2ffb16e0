package tapatalk

import (
	"fmt"
	"net/url"
	"strings"
	"tapascrap/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

const (
	AnnouncementContainer = "div.forumbg.announcement"
	TopicContainer        = "div.forumbg:not(.announcement)"
)

// lastPostId reads the post id out of a link to the last post, either as the p= parameter or as
// a #p123 fragment.
func lastPostId(href string) int64 {
	if id, ok := htmlutil.QueryInt(href, "p"); ok {
		return id
	}
	link, err := url.Parse(href)
	if err != nil {
		return 0
	}
	if !strings.HasPrefix(link.Fragment, "p") {
		return 0
	}
	id, _ := htmlutil.FirstInt(link.Fragment)
	return id
}

func (p Parser) topicSummary(row *goquery.Selection, announcement bool) (TopicSummary, bool) {
	title := row.Find("a.topictitle").First()
	href, _ := title.Attr("href")
	id, ok := htmlutil.QueryInt(href, "t")
	if !ok {
		return TopicSummary{}, false
	}

	poster := row.Find(".topic-poster").First()
	author, ok := authorFromLink(poster.Find("a.username, a.username-coloured"))
	if !ok {
		author = Guest
		if uid, ok := htmlutil.AttrInt(row.Find("[data-uid]"), "data-uid"); ok {
			author.Id = uid
			author.Name = ""
		}
	}
	created, _ := poster.Find("time").First().Attr("datetime")

	lastPost := row.Find("dd.lastpost").First()
	lastHref := ""
	lastPost.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if lastPostId(href) != 0 {
			lastHref = href
			return false
		}
		return true
	})
	lastDate, _ := lastPost.Find("time").First().Attr("datetime")

	return TopicSummary{
		Id:           id,
		Name:         htmlutil.Text(title),
		Author:       author,
		Date:         parseTimePtr(created, p.Location),
		LastPostDate: parseTimePtr(lastDate, p.Location),
		LastPostId:   lastPostId(lastHref),
		Views:        Scale(htmlutil.Text(row.Find("dd.views").First())),
		Posts:        Scale(htmlutil.Text(row.Find("dd.posts").First())) + 1,

		Pinned:       row.Find("i.fa-thumb-tack").Length() > 0,
		Locked:       row.Find("i.fa-lock").Length() > 0,
		Announcement: announcement,
		Poll:         row.Find("i.fa-bar-chart").Length() > 0,
	}, true
}

// TopicSummaries lists the topic rows found in the given container of a forum page. Rows without
// a readable topic link are skipped.
func (p Parser) TopicSummaries(doc *goquery.Document, container string, announcement bool) []TopicSummary {
	var out []TopicSummary
	doc.Find(container).Find("li.row").Each(func(_ int, row *goquery.Selection) {
		summary, ok := p.topicSummary(row, announcement)
		if ok {
			out = append(out, summary)
		}
	})
	return out
}

// ForumTopics lists announcements followed by normal topics.
func (p Parser) ForumTopics(doc *goquery.Document) []TopicSummary {
	return append(
		p.TopicSummaries(doc, AnnouncementContainer, true),
		p.TopicSummaries(doc, TopicContainer, false)...,
	)
}

// TopicDetail reads the header of the first page of a topic.
func (p Parser) TopicDetail(doc *goquery.Document, id int64) (TopicDetail, error) {
	if doc.Find(postContainerSelector).Length() == 0 {
		return TopicDetail{}, fmt.Errorf("%w: topic %d", ErrResourceAbsent, id)
	}

	headline := doc.Find("h1[itemprop=headline]").First()
	author := Guest
	if headline.Length() > 0 {
		profile := headline.Parent().Find("dl[data-uid]").First()
		if uid, ok := htmlutil.AttrInt(profile, "data-uid"); ok && uid != 0 {
			author = Author{
				Id:   uid,
				Name: htmlutil.Text(profile.Find("a.username, a.username-coloured").First()),
			}
		}
	}

	first := doc.Find(postContainerSelector).Find("div.postbody").First()
	created, _ := first.Find("time").First().Attr("datetime")

	return TopicDetail{
		Id:         id,
		ForumId:    lastForumId(doc, 0),
		Name:       htmlutil.Text(headline),
		Author:     author,
		Date:       parseTimePtr(created, p.Location),
		Pagination: ReadPagination(doc),
	}, nil
}
