package archive

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
)

type fakePost struct {
	id     int64
	userId int64
	name   string
	body   string
}

type fakeTopic struct {
	id      int64
	forumId int64
	title   string
	posts   []fakePost
}

type fakeMember struct {
	id     int64
	name   string
	groups map[int64]string
}

// fakeBoard renders a tiny phpBB board, unknown forums get the message box page and unknown
// topics or members a 404.
type fakeBoard struct {
	perPage int

	forumName     string
	parentId      int64
	announcements []int64
	topics        map[int64]fakeTopic
	members       map[int64]fakeMember

	mutex    sync.Mutex
	requests int
}

func (b *fakeBoard) pagination(items, perPage, start int) string {
	pages := (items + perPage - 1) / perPage
	if pages < 1 {
		pages = 1
	}
	var out strings.Builder
	fmt.Fprintf(&out, `<div class="pagination">%d items &bull; <ul>`, items)
	for page := 1; page <= pages; page++ {
		if (page-1)*perPage == start {
			fmt.Fprintf(&out, `<li class="active"><span>%d</span></li>`, page)
			continue
		}
		fmt.Fprintf(&out, `<li><a class="button" href="#">%d</a></li>`, page)
	}
	out.WriteString(`</ul></div>`)
	return out.String()
}

func (b *fakeBoard) topicRow(topic fakeTopic) string {
	first := topic.posts[0]
	last := topic.posts[len(topic.posts)-1]
	return fmt.Sprintf(`<li class="row"><dl class="row-item"><dt>
		<a href="./viewtopic.php?f=%d&amp;t=%d" class="topictitle">%s</a>
		<div class="topic-poster">by <a href="./memberlist.php?mode=viewprofile&amp;u=%d" class="username">%s</a>
		<time datetime="2020-02-01T08:00:00+00:00">x</time></div></dt>
		<dd class="posts">%d <dfn>Replies</dfn></dd>
		<dd class="views">1.5k <dfn>Views</dfn></dd>
		<dd class="lastpost"><span><a href="./viewtopic.php?p=%d#p%d">last</a></span></dd>
		</dl></li>`,
		topic.forumId, topic.id, topic.title, first.userId, first.name,
		len(topic.posts)-1, last.id, last.id,
	)
}

func (b *fakeBoard) forumPage(id, parentId int64) string {
	var announcements, normal strings.Builder
	count := 0
	for _, topicId := range b.announcements {
		announcements.WriteString(b.topicRow(b.topics[topicId]))
	}
	parent := ""
	if parentId != 0 {
		parent = fmt.Sprintf(`<span class="crumb" data-forum-id="%d"><a>Board</a></span>`, parentId)
	}
	for topicId, topic := range b.topics {
		if topic.forumId != id || isIn(b.announcements, topicId) {
			continue
		}
		normal.WriteString(b.topicRow(topic))
		count++
	}
	return fmt.Sprintf(`<html><body>
		%s<span class="crumb" data-forum-id="%d"><a>%s</a></span>
		<h2 class="forum-title">%s</h2>
		<p class="forum-description">Everything else</p>
		%s
		<div class="forumbg announcement"><ul class="topiclist">%s</ul></div>
		<div class="forumbg"><ul class="topiclist">%s</ul></div>
		</body></html>`,
		parent, id, b.forumName, b.forumName, b.pagination(count, 25, 0),
		announcements.String(), normal.String(),
	)
}

func (b *fakeBoard) topicPage(topic fakeTopic, start int) string {
	var posts strings.Builder
	for i := start; i < len(topic.posts) && i < start+b.perPage; i++ {
		post := topic.posts[i]
		profile := ""
		if post.userId != 0 {
			profile = fmt.Sprintf(
				`<dl class="postprofile" data-uid="%d"><dt><a itemprop="name">%s</a></dt></dl>`,
				post.userId, post.name,
			)
		}
		fmt.Fprintf(&posts, `<div class="post">%s<div class="postbody" id="p%d">
			<time datetime="2020-02-%02dT08:00:00+00:00">x</time>
			<div class="content">%s<i class="hide">marker</i></div>
			</div></div>`,
			profile, post.id, i+1, post.body,
		)
	}
	first := topic.posts[0]
	return fmt.Sprintf(`<html><body>
		<span class="crumb" data-forum-id="%d"><a>%s</a></span>
		<div><h1 itemprop="headline">%s</h1><dl data-uid="%d"><a class="username">%s</a></dl></div>
		%s
		<div class="viewtopic_wrapper topic_data_for_js">%s</div>
		</body></html>`,
		topic.forumId, b.forumName, topic.title, first.userId, first.name,
		b.pagination(len(topic.posts), b.perPage, start), posts.String(),
	)
}

func (b *fakeBoard) memberPage(member fakeMember) string {
	groups := ""
	if member.groups != nil {
		var options strings.Builder
		for id, name := range member.groups {
			fmt.Fprintf(&options, `<option value="%d">%s</option>`, id, name)
		}
		groups = fmt.Sprintf(`<div class="cl-af"><span>Groups:</span><select>%s</select></div>`, options.String())
	}
	return fmt.Sprintf(`<html><body>
		<span class="edit-username-span" data-origin-name="%s">%s</span>
		<span class="profile-rank-name">Member</span>
		<div class="group"></div>
		<div class="group">
			<div class="cl-af"><span>Joined:</span><span><span class="timespan" title="2010-05-06T07:08:09+00:00">long ago</span></span></div>
			<div class="cl-af"><span>Total posts:</span><span><a href="#">%d</a></span></div>
			%s
		</div>
		</body></html>`,
		member.name, member.name, member.id*10, groups,
	)
}

// setParent renders a parent breadcrumb in front of the forum's own.
func (b *fakeBoard) setParent(id int64) {
	b.mutex.Lock()
	b.parentId = id
	b.mutex.Unlock()
}

func (b *fakeBoard) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mutex.Lock()
	b.requests++
	parentId := b.parentId
	b.mutex.Unlock()

	query := r.URL.Query()
	start, _ := strconv.Atoi(query.Get("start"))
	switch r.URL.Path {
	case "/viewforum.php":
		id, _ := strconv.ParseInt(query.Get("f"), 10, 64)
		if id != 1 {
			fmt.Fprint(w, `<html><body><div id="message"><h2 class="message-title">Information</h2></div></body></html>`)
			return
		}
		fmt.Fprint(w, b.forumPage(id, parentId))
	case "/viewtopic.php":
		id, _ := strconv.ParseInt(query.Get("t"), 10, 64)
		topic, ok := b.topics[id]
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, b.topicPage(topic, start))
	case "/memberlist.php":
		id, _ := strconv.ParseInt(query.Get("u"), 10, 64)
		member, ok := b.members[id]
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, b.memberPage(member))
	default:
		http.NotFound(w, r)
	}
}

func isIn(ids []int64, id int64) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func newFakeBoard() *fakeBoard {
	return &fakeBoard{
		perPage:       2,
		forumName:     "General",
		announcements: []int64{3},
		topics: map[int64]fakeTopic{
			3: {
				id:      3,
				forumId: 1,
				title:   "Read this first",
				posts:   []fakePost{{id: 300, userId: 2, name: "Admin", body: "Be nice"}},
			},
			4: {
				id:      4,
				forumId: 1,
				title:   "Hello",
				posts: []fakePost{
					{id: 400, userId: 42, name: "Alice", body: "Hi <b>all</b>"},
					{id: 401, userId: 43, name: "Bob", body: "Hey"},
					{id: 402, userId: 0, name: "", body: "Anonymous reply"},
				},
			},
		},
		members: map[int64]fakeMember{
			42: {id: 42, name: "Alice", groups: map[int64]string{5: "Administrators"}},
			43: {id: 43, name: "Bob"},
		},
	}
}

func serveFakeBoard(board *fakeBoard) *httptest.Server {
	return httptest.NewServer(board)
}
