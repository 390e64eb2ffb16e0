package tapatalk

import (
	"context"
	"fmt"
	"tapascrap/internal/components/assert"
	"tapascrap/internal/components/telemetry"
)

const report_walk_page = "walk.page"

// Walker follows the pagination of topics and forums.
type Walker struct {
	Fetcher       Fetcher
	Parser        Parser
	PostsPerPage  int64
	TopicsPerPage int64

	tel telemetry.API
}

func NewWalker(fetcher Fetcher, parser Parser, postsPerPage, topicsPerPage int64, tel telemetry.API) Walker {
	assert.NotNil(fetcher)
	assert.NotNil(tel)
	assert.Positive("posts per page", int(postsPerPage))
	assert.Positive("topics per page", int(topicsPerPage))

	return Walker{
		Fetcher:       fetcher,
		Parser:        parser,
		PostsPerPage:  postsPerPage,
		TopicsPerPage: topicsPerPage,
		tel:           telemetry.NewScopedAPI("walk", tel),
	}
}

// WalkTopic visits every page of a topic in order. The first page decides whether the topic
// exists, a failing follow-up page is reported and skipped. An error from visit stops the walk.
func (w Walker) WalkTopic(ctx context.Context, id int64, visit func(detail TopicDetail, start int64, posts []Post) error) (TopicDetail, error) {
	doc, err := w.Fetcher.Topic(ctx, id, 0)
	if err != nil {
		return TopicDetail{}, err
	}
	detail, err := w.Parser.TopicDetail(doc, id)
	if err != nil {
		return TopicDetail{}, err
	}
	posts, err := w.Parser.Posts(doc, id)
	if err != nil {
		return TopicDetail{}, err
	}
	if err := visit(detail, 0, posts); err != nil {
		return detail, err
	}

	for page := int64(1); page < detail.Pagination.Pages; page++ {
		if err := ctx.Err(); err != nil {
			return detail, err
		}
		start := page * w.PostsPerPage
		doc, err := w.Fetcher.Topic(ctx, id, start)
		if err == nil {
			posts, err = w.Parser.Posts(doc, id)
		}
		if err != nil {
			w.tel.ReportDebug(report_walk_page, fmt.Sprintf("topic %d start %d: %v", id, start, err))
			continue
		}
		if err := visit(detail, start, posts); err != nil {
			return detail, err
		}
	}
	return detail, nil
}

// WalkForum visits every page of a forum in order, announcements are repeated on each page.
func (w Walker) WalkForum(ctx context.Context, id int64, visit func(forum Forum, start int64, topics []TopicSummary) error) (Forum, error) {
	doc, err := w.Fetcher.Forum(ctx, id, 0)
	if err != nil {
		return Forum{}, err
	}
	forum, err := w.Parser.Forum(doc, id)
	if err != nil {
		return Forum{}, err
	}
	if err := visit(forum, 0, w.Parser.ForumTopics(doc)); err != nil {
		return forum, err
	}

	for page := int64(1); page < forum.Pagination.Pages; page++ {
		if err := ctx.Err(); err != nil {
			return forum, err
		}
		start := page * w.TopicsPerPage
		doc, err := w.Fetcher.Forum(ctx, id, start)
		if err != nil {
			w.tel.ReportDebug(report_walk_page, fmt.Sprintf("forum %d start %d: %v", id, start, err))
			continue
		}
		if err := visit(forum, start, w.Parser.ForumTopics(doc)); err != nil {
			return forum, err
		}
	}
	return forum, nil
}
