package tapatalk

import (
	"fmt"
	"strconv"
	"strings"
	"tapascrap/pkg/htmlutil"
	"tapascrap/pkg/textutil"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func (p Parser) memberField(member *Member, label string, value *goquery.Selection) {
	switch {
	case textutil.MatchLabel(label, "birthday", "date of birth"):
		birthday := htmlutil.Text(value)
		if birthday != "" {
			member.Birthday = &birthday
		}
	case textutil.MatchLabel(label, "joined"):
		member.Joined = p.timespan(value)
	case textutil.MatchLabel(label, "last active", "last visited"):
		member.Active = p.timespan(value)
	case textutil.MatchLabel(label, "total posts", "posts"):
		text := htmlutil.Text(value.Find("a").First())
		if text == "" {
			text = htmlutil.Text(value)
		}
		if n, err := ParseScaled(text); err == nil {
			member.Posts = &n
		}
	case textutil.MatchLabel(label, "groups"):
		member.HasGroups = true
		value.Find("option").Each(func(_ int, option *goquery.Selection) {
			raw, _ := option.Attr("value")
			id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
			if err != nil || id == 0 {
				return
			}
			member.Groups = append(member.Groups, Group{Id: id, Name: htmlutil.Text(option)})
		})
	}
}

// timespan prefers the exact timestamp carried by the title of a relative date.
func (p Parser) timespan(value *goquery.Selection) *time.Time {
	span := value.Find("span.timespan").First()
	if title, ok := span.Attr("title"); ok {
		if t := parseTimePtr(title, p.Location); t != nil {
			return t
		}
	}
	return parseTimePtr(htmlutil.Text(value), p.Location)
}

// Member reads a profile page.
func (p Parser) Member(doc *goquery.Document, id int64) (Member, error) {
	username := doc.Find("span.edit-username-span[data-origin-name]").First()
	if username.Length() == 0 {
		return Member{}, fmt.Errorf("%w: member %d", ErrResourceAbsent, id)
	}
	name, _ := username.Attr("data-origin-name")

	member := Member{
		Id:   id,
		Name: strings.TrimSpace(name),
		Rank: htmlutil.Text(doc.Find("span.profile-rank-name").First()),
	}

	doc.Find("div.group").Eq(1).Find("div.cl-af").Each(func(_ int, item *goquery.Selection) {
		children := htmlutil.SignificantChildren(item)
		if len(children) < 2 {
			return
		}
		label := nodeText(children[0])
		p.memberField(&member, label, item.Contents().FilterNodes(children[1]))
	})

	signature := doc.Find("div.signature.standalone").First()
	if signature.Length() > 0 {
		if content, err := signature.Html(); err == nil {
			content = strings.TrimSpace(content)
			member.Signature = &content
		}
	}
	return member, nil
}

func nodeText(node *html.Node) string {
	return htmlutil.CleanText(htmlutil.GetText(node))
}
