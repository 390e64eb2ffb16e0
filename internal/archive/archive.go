package archive

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strconv"
	"tapascrap/internal/components/assert"
	"tapascrap/internal/components/chrono"
	"tapascrap/internal/components/telemetry"
	"tapascrap/internal/config"
	"tapascrap/internal/db"
	"tapascrap/internal/scrapers/tapatalk"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

const (
	report_db_query      = "db.query"
	report_scrape_forum  = "scrape-forum"
	report_scrape_topic  = "scrape-topic"
	report_scrape_member = "scrape-member"
	report_pass          = "pass"
)

const (
	configLastRunId       = "last_run_id"
	configLastRunPass     = "last_run_pass"
	configLastRunAt       = "last_run_at"
	configLastRunFinished = "last_run_finished_at"
	configCreatedAt       = "created_at"
)

type Options struct {
	Forums config.Range
	Topics config.Range
	// Progress receives the carriage-return progress line, nil discards it.
	Progress io.Writer
}

// Scraper archives a board into the database in three passes: forums (with the topic rows
// listed in them), topics (with their posts) and members.
type Scraper struct {
	db     *db.Queries
	makeTx db.MakeTx
	walker tapatalk.Walker
	time   chrono.API
	tel    telemetry.API

	forums   config.Range
	topics   config.Range
	progress io.Writer
}

func NewScraper(
	queries *db.Queries,
	makeTx db.MakeTx,
	walker tapatalk.Walker,
	time chrono.API,
	tel telemetry.API,
	opts Options,
) Scraper {
	assert.NotNil(queries)
	assert.NotNil(makeTx)
	assert.NotNil(time)
	assert.NotNil(tel)

	progress := opts.Progress
	if progress == nil {
		progress = io.Discard
	}

	return Scraper{
		db:       queries,
		makeTx:   makeTx,
		walker:   walker,
		time:     time,
		tel:      telemetry.NewScopedAPI("archive", tel),
		forums:   opts.Forums,
		topics:   opts.Topics,
		progress: progress,
	}
}

// Setup creates the missing tables, the Guest user and records the configured bounds the first
// time it runs against a database.
func (s Scraper) Setup(ctx context.Context) error {
	err := s.db.CreateSchema(ctx)
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "CreateSchema")
		return err
	}
	err = s.db.Ensure(ctx, db.KindUser, 0)
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "Ensure", "guest")
		return err
	}

	bounds := []struct {
		key   string
		value int64
	}{
		{key: "forums.start", value: s.forums.Start},
		{key: "forums.end", value: s.forums.End},
		{key: "topics.start", value: s.topics.Start},
		{key: "topics.end", value: s.topics.End},
	}
	for _, b := range bounds {
		_, err := s.db.SetConfigIfAbsent(ctx, b.key, strconv.FormatInt(b.value, 10))
		if err != nil {
			s.tel.ReportBroken(report_db_query, err, "SetConfigIfAbsent", b.key)
			return err
		}
	}
	created, err := s.db.SetConfigIfAbsent(ctx, configCreatedAt, s.time.Now().Format(time.RFC3339))
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "SetConfigIfAbsent", configCreatedAt)
		return err
	}
	if created {
		s.tel.ReportDebug("created archive", s.forums, s.topics)
	}
	return nil
}

func rangeIds(r config.Range) []int64 {
	ids := make([]int64, 0, r.Len())
	for id := r.Start; id <= r.End; id++ {
		ids = append(ids, id)
	}
	return ids
}

// pass records a run and calls scrape for every id, it stops at the first error.
func (s Scraper) pass(ctx context.Context, name string, ids []int64, scrape func(ctx context.Context, id int64) error) error {
	runId := uuid.NewString()
	start := s.time.Now()
	for key, value := range map[string]string{
		configLastRunId:   runId,
		configLastRunPass: name,
		configLastRunAt:   start.Format(time.RFC3339),
	} {
		err := s.db.SetConfig(ctx, key, value)
		if err != nil {
			s.tel.ReportBroken(report_db_query, err, "SetConfig", key)
			return err
		}
	}
	s.tel.ReportDebug("start pass", name, runId, len(ids))

	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := scrape(ctx, id)
		if err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			s.tel.ReportBroken(report_pass, fmt.Errorf("%s %d: %w", name, id, err), runId)
			return err
		}
		s.tel.ReportCount(name+".scraped", int64(i+1))
	}
	fmt.Fprintln(s.progress)

	err := s.db.SetConfig(ctx, configLastRunFinished, s.time.Now().Format(time.RFC3339))
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "SetConfig", configLastRunFinished)
		return err
	}
	s.tel.ReportDebug("finish pass", name, runId, humanize.RelTime(start, s.time.Now(), "", "later"))
	return nil
}

// skip reports whether err only means the resource is not there, in which case it is reported
// and swallowed.
func (s Scraper) skip(report string, id int64, err error) bool {
	if !tapatalk.IsAbsent(err) {
		return false
	}
	s.tel.ReportDebug(report, fmt.Sprintf("skip %d", id), err.Error())
	return true
}

// ScrapeForums archives the given forums, every configured forum if none are given.
func (s Scraper) ScrapeForums(ctx context.Context, ids ...int64) error {
	if len(ids) == 0 {
		ids = rangeIds(s.forums)
	}
	return s.pass(ctx, "forums", ids, s.ScrapeForum)
}

// ScrapeForum writes the forum and every topic row listed in it. An absent forum writes nothing.
func (s Scraper) ScrapeForum(ctx context.Context, id int64) error {
	tx, discard, commit, err := s.makeTx(ctx)
	if err != nil {
		s.tel.ReportBroken(report_db_query, fmt.Errorf("make tx: %w", err))
		return err
	}
	defer discard()

	read := int64(0)
	_, err = s.walker.WalkForum(ctx, id, func(forum tapatalk.Forum, start int64, topics []tapatalk.TopicSummary) error {
		if start == 0 {
			err := tx.Ensure(ctx, db.KindForum, forum.ParentId)
			if err != nil {
				return err
			}
			err = tx.UpsertForum(ctx, db.UpsertForumParams{
				Id:          forum.Id,
				Name:        forum.Name,
				Description: forum.Description,
				ParentId:    forum.ParentId,
				Topics:      forum.Pagination.Items,
			})
			if err != nil {
				return err
			}
		}

		for _, topic := range topics {
			err := tx.Ensure(ctx, db.KindUser, topic.Author.Id)
			if err != nil {
				return err
			}
			err = tx.UpsertTopicSummary(ctx, db.UpsertTopicSummaryParams{
				Id:           topic.Id,
				ForumId:      db.NullId(forum.Id),
				UserId:       topic.Author.Id,
				Name:         topic.Name,
				Date:         db.NullTime(topic.Date),
				LastPostDate: db.NullTime(topic.LastPostDate),
				Views:        topic.Views,
				Posts:        topic.Posts,
				LastPostId:   db.NullId(topic.LastPostId),
				Pinned:       topic.Pinned,
				Locked:       topic.Locked,
				Announcement: topic.Announcement,
				Poll:         topic.Poll,
			})
			if err != nil {
				return err
			}
			if !topic.Announcement {
				read++
			}
			fmt.Fprintf(
				s.progress,
				"\rParsing forum %d. Reading topic %s / %s.",
				id, humanize.Comma(read), humanize.Comma(forum.Pagination.Items),
			)
		}
		return nil
	})
	if s.skip(report_scrape_forum, id, err) {
		return nil
	}
	if err != nil {
		if ctx.Err() == nil {
			s.tel.ReportBroken(report_scrape_forum, err, id)
		}
		return err
	}

	err = commit()
	if err != nil {
		s.tel.ReportBroken(report_db_query, fmt.Errorf("commit: %w", err), "forum", id)
		return err
	}
	return nil
}

// ScrapeTopics archives the given topics, every configured topic if none are given.
func (s Scraper) ScrapeTopics(ctx context.Context, ids ...int64) error {
	if len(ids) == 0 {
		ids = rangeIds(s.topics)
	}
	return s.pass(ctx, "topics", ids, s.ScrapeTopic)
}

// ScrapeTopic writes the topic and all of its posts. An absent topic writes nothing.
func (s Scraper) ScrapeTopic(ctx context.Context, id int64) error {
	tx, discard, commit, err := s.makeTx(ctx)
	if err != nil {
		s.tel.ReportBroken(report_db_query, fmt.Errorf("make tx: %w", err))
		return err
	}
	defer discard()

	read := int64(0)
	_, err = s.walker.WalkTopic(ctx, id, func(detail tapatalk.TopicDetail, start int64, posts []tapatalk.Post) error {
		if start == 0 {
			err := tx.Ensure(ctx, db.KindForum, detail.ForumId)
			if err != nil {
				return err
			}
			err = tx.Ensure(ctx, db.KindUser, detail.Author.Id)
			if err != nil {
				return err
			}
			err = tx.UpsertTopicDetail(ctx, db.UpsertTopicDetailParams{
				Id:      detail.Id,
				ForumId: db.NullId(detail.ForumId),
				UserId:  detail.Author.Id,
				Name:    detail.Name,
				Date:    db.NullTime(detail.Date),
				Posts:   sql.NullInt64{Int64: detail.Pagination.Items, Valid: detail.Pagination.Items > 0},
			})
			if err != nil {
				return err
			}
		}

		for _, post := range posts {
			err := tx.Ensure(ctx, db.KindUser, post.Author.Id)
			if err != nil {
				return err
			}
			err = tx.UpsertPost(ctx, db.UpsertPostParams{
				Id:      post.Id,
				TopicId: detail.Id,
				UserId:  post.Author.Id,
				Date:    db.NullTime(post.Date),
				Content: post.Content,
			})
			if err != nil {
				return err
			}
			read++
		}
		fmt.Fprintf(
			s.progress,
			"\rParsing topic %d. Reading post %s / %s.",
			id, humanize.Comma(read), humanize.Comma(detail.Pagination.Items),
		)
		return nil
	})
	if s.skip(report_scrape_topic, id, err) {
		return nil
	}
	if err != nil {
		if ctx.Err() == nil {
			s.tel.ReportBroken(report_scrape_topic, err, id)
		}
		return err
	}

	err = commit()
	if err != nil {
		s.tel.ReportBroken(report_db_query, fmt.Errorf("commit: %w", err), "topic", id)
		return err
	}
	return nil
}

// ScrapeMembers archives the given members, every known user if none are given.
func (s Scraper) ScrapeMembers(ctx context.Context, ids ...int64) error {
	if len(ids) == 0 {
		var err error
		ids, err = s.db.UserIDs(ctx)
		if err != nil {
			s.tel.ReportBroken(report_db_query, err, "UserIDs")
			return err
		}
	}
	return s.pass(ctx, "members", ids, s.ScrapeMember)
}

// ScrapeMember fills the row of a user from their profile page. An absent profile leaves the
// existing row untouched.
func (s Scraper) ScrapeMember(ctx context.Context, id int64) error {
	doc, err := s.walker.Fetcher.Member(ctx, id)
	var member tapatalk.Member
	if err == nil {
		member, err = s.walker.Parser.Member(doc, id)
	}
	if s.skip(report_scrape_member, id, err) {
		return nil
	}
	if err != nil {
		s.tel.ReportBroken(report_scrape_member, err, id)
		return err
	}

	tx, discard, commit, err := s.makeTx(ctx)
	if err != nil {
		s.tel.ReportBroken(report_db_query, fmt.Errorf("make tx: %w", err))
		return err
	}
	defer discard()

	err = s.writeMember(ctx, tx, member)
	if err != nil {
		s.tel.ReportBroken(report_scrape_member, err, id)
		return err
	}
	err = commit()
	if err != nil {
		s.tel.ReportBroken(report_db_query, fmt.Errorf("commit: %w", err), "member", id)
		return err
	}
	fmt.Fprintf(s.progress, "\rReading member %d (%s).", id, member.Name)
	return nil
}

func (s Scraper) writeMember(ctx context.Context, tx *db.Queries, member tapatalk.Member) error {
	rank := db.NullString(nil)
	if member.Rank != "" {
		rank = db.NullString(&member.Rank)
	}
	err := tx.UpsertUser(ctx, db.UpsertUserParams{
		Id:        member.Id,
		Name:      member.Name,
		Rank:      rank,
		Birthday:  db.NullString(member.Birthday),
		Joined:    db.NullTime(member.Joined),
		Active:    db.NullTime(member.Active),
		Signature: db.NullString(member.Signature),
		Posts:     db.NullInt(member.Posts),
	})
	if err != nil {
		return err
	}
	if !member.HasGroups {
		return nil
	}

	groupIds := make([]int64, 0, len(member.Groups))
	for _, group := range member.Groups {
		err := tx.UpsertGroup(ctx, group.Id, group.Name)
		if err != nil {
			return err
		}
		groupIds = append(groupIds, group.Id)
	}
	return tx.SetUserGroups(ctx, member.Id, groupIds)
}

// ScrapeAll runs the forum, topic and member passes in that order.
func (s Scraper) ScrapeAll(ctx context.Context) error {
	err := s.ScrapeForums(ctx)
	if err != nil {
		return err
	}
	err = s.ScrapeTopics(ctx)
	if err != nil {
		return err
	}
	return s.ScrapeMembers(ctx)
}
