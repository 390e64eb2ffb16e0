package tapatalk

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"tapascrap/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

const postContainerSelector = "div.viewtopic_wrapper.topic_data_for_js"

var (
	scriptUserIdRegex   = regexp.MustCompile(`["']?user_?id["']?\s*[:=]\s*["']?(\d+)`)
	scriptUsernameRegex = regexp.MustCompile(`["']?user_?name["']?\s*[:=]\s*["']((?:[^"'\\]|\\.)*)["']`)
)

// authorFromScript reads the author out of the script payload rendered next to a post.
func authorFromScript(wrapper *goquery.Selection) (Author, bool) {
	var author Author
	found := false
	wrapper.ChildrenFiltered("script").EachWithBreak(func(_ int, script *goquery.Selection) bool {
		text := script.Text()
		idGroups := scriptUserIdRegex.FindStringSubmatch(text)
		if idGroups == nil {
			return true
		}
		id, err := strconv.ParseInt(idGroups[1], 10, 64)
		if err != nil {
			return true
		}
		author.Id = id
		if nameGroups := scriptUsernameRegex.FindStringSubmatch(text); nameGroups != nil {
			name, err := strconv.Unquote(`"` + strings.ReplaceAll(nameGroups[1], `"`, `\"`) + `"`)
			if err != nil {
				name = nameGroups[1]
			}
			author.Name = name
		}
		found = true
		return false
	})
	return author, found
}

// authorFromAttributes reads the author out of the profile block next to a post.
func authorFromAttributes(wrapper *goquery.Selection) (Author, bool) {
	profile := wrapper.Find("dl").First()
	id, ok := htmlutil.AttrInt(profile, "data-uid")
	if !ok {
		return authorFromLink(wrapper.Find("a.username, a.username-coloured"))
	}
	name := htmlutil.Text(profile.Find("a[itemprop=name]").First())
	if name == "" {
		name = htmlutil.Text(profile.Find("a.username, a.username-coloured").First())
	}
	return Author{Id: id, Name: name}, true
}

func (p Parser) postAuthor(wrapper *goquery.Selection) Author {
	var author Author
	var ok bool
	switch p.AuthorMode {
	case AuthorScript:
		author, ok = authorFromScript(wrapper)
	case AuthorAttributes:
		author, ok = authorFromAttributes(wrapper)
	default:
		author, ok = authorFromScript(wrapper)
		if !ok {
			author, ok = authorFromAttributes(wrapper)
		}
	}
	if !ok || author.Id == 0 {
		return Guest
	}
	return author
}

// postContent serializes the body of a post after dropping the last hide marker.
func postContent(body *goquery.Selection) string {
	content := body.Find("div.content").First()
	if content.Length() == 0 {
		return ""
	}
	content.Find("i.hide").Last().Remove()
	html, err := content.Html()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(html)
}

// Posts extracts one record per post body of a topic page.
func (p Parser) Posts(doc *goquery.Document, topicId int64) ([]Post, error) {
	container := doc.Find(postContainerSelector).First()
	if container.Length() == 0 {
		return nil, fmt.Errorf("%w: topic %d has no post list", ErrResourceAbsent, topicId)
	}

	var posts []Post
	container.Find("div.postbody").Each(func(_ int, body *goquery.Selection) {
		id, ok := htmlutil.AttrInt(body, "id")
		if !ok {
			return
		}
		datetime, _ := body.Find("time").First().Attr("datetime")
		posts = append(posts, Post{
			Id:      id,
			TopicId: topicId,
			Author:  p.postAuthor(body.Parent()),
			Date:    parseTimePtr(datetime, p.Location),
			Content: postContent(body),
		})
	})
	return posts, nil
}
