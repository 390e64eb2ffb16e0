package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

type Queries struct {
	db sqlx.ExtContext
}

func New(db sqlx.ExtContext) *Queries {
	return &Queries{db: db}
}

// NullTime formats an optional timestamp the way every date column stores it.
func NullTime(t *time.Time) sql.NullString {
	if t == nil || t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

func NullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func NullInt(n *int64) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *n, Valid: true}
}

// NullId maps the 0 placeholder id to NULL.
func NullId(id int64) sql.NullInt64 {
	if id == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: id, Valid: true}
}

const ensureGuest = `INSERT INTO users (id, name) VALUES (0, 'Guest')
ON CONFLICT (id) DO UPDATE SET name = 'Guest'`

// Ensure creates an id-only row if none exists yet so that rows referencing it can be written
// before it is scraped. User 0 is the Guest, forum 0 is the board root and has no row.
func (q *Queries) Ensure(ctx context.Context, kind Kind, id int64) error {
	var err error
	switch {
	case kind == KindUser && id == 0:
		_, err = q.db.ExecContext(ctx, ensureGuest)
	case id == 0:
		return nil
	case kind == KindForum, kind == KindTopic, kind == KindUser, kind == KindGroup:
		_, err = q.db.ExecContext(ctx, fmt.Sprintf(`INSERT OR IGNORE INTO "%s" (id) VALUES (?)`, kind), id)
	default:
		return fmt.Errorf("ensure: unknown kind %q", kind)
	}
	if err != nil {
		return fmt.Errorf("ensure %s %d: %w", kind, id, err)
	}
	return nil
}

type UpsertForumParams struct {
	Id          int64  `db:"id"`
	Name        string `db:"name"`
	Description string `db:"description"`
	ParentId    int64  `db:"parent_id"`
	Topics      int64  `db:"topics"`
}

const upsertForum = `INSERT INTO forums (id, name, description, parent_id, topics)
VALUES (:id, :name, :description, :parent_id, :topics)
ON CONFLICT (id) DO UPDATE SET
    name = excluded.name,
    description = excluded.description,
    parent_id = excluded.parent_id,
    topics = excluded.topics`

func (q *Queries) UpsertForum(ctx context.Context, arg UpsertForumParams) error {
	_, err := sqlx.NamedExecContext(ctx, q.db, upsertForum, arg)
	if err != nil {
		return fmt.Errorf("upsert forum %d: %w", arg.Id, err)
	}
	return nil
}

type UpsertTopicSummaryParams struct {
	Id           int64          `db:"id"`
	ForumId      sql.NullInt64  `db:"forum_id"`
	UserId       int64          `db:"user_id"`
	Name         string         `db:"name"`
	Date         sql.NullString `db:"date"`
	LastPostDate sql.NullString `db:"last_post_date"`
	Views        int64          `db:"views"`
	Posts        int64          `db:"posts"`
	LastPostId   sql.NullInt64  `db:"last_post_id"`
	Pinned       bool           `db:"pinned"`
	Locked       bool           `db:"locked"`
	Announcement bool           `db:"announcement"`
	Poll         bool           `db:"poll"`
}

// announcements are listed in every forum, the first forum they were seen in is kept
const upsertTopicSummary = `INSERT INTO topics (
    id, forum_id, user_id, name, date, last_post_date, views, posts, last_post_id,
    pinned, locked, announcement, poll
) VALUES (
    :id, :forum_id, :user_id, :name, :date, :last_post_date, :views, :posts, :last_post_id,
    :pinned, :locked, :announcement, :poll
)
ON CONFLICT (id) DO UPDATE SET
    forum_id = CASE WHEN excluded.announcement THEN COALESCE(topics.forum_id, excluded.forum_id)
        ELSE COALESCE(excluded.forum_id, topics.forum_id) END,
    user_id = CASE WHEN excluded.user_id = 0 THEN COALESCE(topics.user_id, 0) ELSE excluded.user_id END,
    name = excluded.name,
    date = COALESCE(excluded.date, topics.date),
    last_post_date = COALESCE(excluded.last_post_date, topics.last_post_date),
    views = excluded.views,
    posts = excluded.posts,
    last_post_id = COALESCE(excluded.last_post_id, topics.last_post_id),
    pinned = excluded.pinned,
    locked = excluded.locked,
    announcement = excluded.announcement,
    poll = excluded.poll`

func (q *Queries) UpsertTopicSummary(ctx context.Context, arg UpsertTopicSummaryParams) error {
	_, err := sqlx.NamedExecContext(ctx, q.db, upsertTopicSummary, arg)
	if err != nil {
		return fmt.Errorf("upsert topic summary %d: %w", arg.Id, err)
	}
	return nil
}

type UpsertTopicDetailParams struct {
	Id      int64          `db:"id"`
	ForumId sql.NullInt64  `db:"forum_id"`
	UserId  int64          `db:"user_id"`
	Name    string         `db:"name"`
	Date    sql.NullString `db:"date"`
	Posts   sql.NullInt64  `db:"posts"`
}

// the topic page knows less than the forum listing, only what it carries is overwritten
const upsertTopicDetail = `INSERT INTO topics (id, forum_id, user_id, name, date, posts)
VALUES (:id, :forum_id, :user_id, :name, :date, :posts)
ON CONFLICT (id) DO UPDATE SET
    forum_id = COALESCE(excluded.forum_id, topics.forum_id),
    user_id = CASE WHEN excluded.user_id = 0 THEN COALESCE(topics.user_id, 0) ELSE excluded.user_id END,
    name = COALESCE(NULLIF(excluded.name, ''), topics.name),
    date = COALESCE(excluded.date, topics.date),
    posts = COALESCE(excluded.posts, topics.posts)`

func (q *Queries) UpsertTopicDetail(ctx context.Context, arg UpsertTopicDetailParams) error {
	_, err := sqlx.NamedExecContext(ctx, q.db, upsertTopicDetail, arg)
	if err != nil {
		return fmt.Errorf("upsert topic detail %d: %w", arg.Id, err)
	}
	return nil
}

type UpsertPostParams struct {
	Id      int64          `db:"id"`
	TopicId int64          `db:"topic_id"`
	UserId  int64          `db:"user_id"`
	Date    sql.NullString `db:"date"`
	Content string         `db:"content"`
}

const upsertPost = `INSERT INTO posts (id, topic_id, user_id, date, content)
VALUES (:id, :topic_id, :user_id, :date, :content)
ON CONFLICT (id) DO UPDATE SET
    topic_id = excluded.topic_id,
    user_id = excluded.user_id,
    date = COALESCE(excluded.date, posts.date),
    content = excluded.content`

func (q *Queries) UpsertPost(ctx context.Context, arg UpsertPostParams) error {
	_, err := sqlx.NamedExecContext(ctx, q.db, upsertPost, arg)
	if err != nil {
		return fmt.Errorf("upsert post %d: %w", arg.Id, err)
	}
	return nil
}

type UpsertUserParams struct {
	Id        int64          `db:"id"`
	Name      string         `db:"name"`
	Rank      sql.NullString `db:"rank"`
	Birthday  sql.NullString `db:"birthday"`
	Joined    sql.NullString `db:"joined"`
	Active    sql.NullString `db:"active"`
	Signature sql.NullString `db:"signature"`
	Posts     sql.NullInt64  `db:"posts"`
}

// fields missing from a profile page keep what an earlier scrape found
const upsertUser = `INSERT INTO users (id, name, rank, birthday, joined, active, signature, posts)
VALUES (:id, :name, :rank, :birthday, :joined, :active, :signature, :posts)
ON CONFLICT (id) DO UPDATE SET
    name = excluded.name,
    rank = COALESCE(excluded.rank, users.rank),
    birthday = COALESCE(excluded.birthday, users.birthday),
    joined = COALESCE(excluded.joined, users.joined),
    active = COALESCE(excluded.active, users.active),
    signature = COALESCE(excluded.signature, users.signature),
    posts = COALESCE(excluded.posts, users.posts)`

func (q *Queries) UpsertUser(ctx context.Context, arg UpsertUserParams) error {
	_, err := sqlx.NamedExecContext(ctx, q.db, upsertUser, arg)
	if err != nil {
		return fmt.Errorf("upsert user %d: %w", arg.Id, err)
	}
	return nil
}

func (q *Queries) UpsertGroup(ctx context.Context, id int64, name string) error {
	_, err := q.db.ExecContext(
		ctx,
		`INSERT INTO "groups" (id, name) VALUES (?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name`,
		id, name,
	)
	if err != nil {
		return fmt.Errorf("upsert group %d: %w", id, err)
	}
	return nil
}

// SetUserGroups replaces the memberships of a user, the groups must exist.
func (q *Queries) SetUserGroups(ctx context.Context, userId int64, groupIds []int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM users_groups WHERE user_id = ?`, userId)
	if err != nil {
		return fmt.Errorf("clear groups of user %d: %w", userId, err)
	}
	for _, groupId := range groupIds {
		_, err := q.db.ExecContext(
			ctx,
			`INSERT OR IGNORE INTO users_groups (user_id, group_id) VALUES (?, ?)`,
			userId, groupId,
		)
		if err != nil {
			return fmt.Errorf("add user %d to group %d: %w", userId, groupId, err)
		}
	}
	return nil
}

func (q *Queries) SetConfig(ctx context.Context, key, value string) error {
	_, err := q.db.ExecContext(
		ctx,
		`INSERT INTO configs (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set config %s: %w", key, err)
	}
	return nil
}

// SetConfigIfAbsent writes value only if key has never been set and reports whether it did.
func (q *Queries) SetConfigIfAbsent(ctx context.Context, key, value string) (bool, error) {
	res, err := q.db.ExecContext(ctx, `INSERT OR IGNORE INTO configs (key, value) VALUES (?, ?)`, key, value)
	if err != nil {
		return false, fmt.Errorf("set config %s: %w", key, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set config %s: rows affected: %w", key, err)
	}
	return affected > 0, nil
}

// GetConfig returns false if the key has never been set.
func (q *Queries) GetConfig(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := sqlx.GetContext(ctx, q.db, &value, `SELECT value FROM configs WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get config %s: %w", key, err)
	}
	return value, true, nil
}

type Config struct {
	Key   string `db:"key"`
	Value string `db:"value"`
}

func (q *Queries) Configs(ctx context.Context) ([]Config, error) {
	var out []Config
	err := sqlx.SelectContext(ctx, q.db, &out, `SELECT key, value FROM configs ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list configs: %w", err)
	}
	return out, nil
}

// UserIDs lists every known user except the Guest.
func (q *Queries) UserIDs(ctx context.Context) ([]int64, error) {
	var out []int64
	err := sqlx.SelectContext(ctx, q.db, &out, `SELECT id FROM users WHERE id != 0 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

type Count struct {
	Table string
	Rows  int64
}

// Counts returns the row count of every table.
func (q *Queries) Counts(ctx context.Context) ([]Count, error) {
	out := make([]Count, 0, len(Tables))
	for _, table := range Tables {
		var rows int64
		err := sqlx.GetContext(ctx, q.db, &rows, fmt.Sprintf(`SELECT count(*) FROM "%s"`, table))
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		out = append(out, Count{Table: table, Rows: rows})
	}
	return out, nil
}

type User struct {
	Id        int64          `db:"id"`
	Name      sql.NullString `db:"name"`
	Rank      sql.NullString `db:"rank"`
	Birthday  sql.NullString `db:"birthday"`
	Joined    sql.NullString `db:"joined"`
	Active    sql.NullString `db:"active"`
	Signature sql.NullString `db:"signature"`
	Posts     sql.NullInt64  `db:"posts"`
}

func (q *Queries) GetUser(ctx context.Context, id int64) (User, error) {
	var user User
	err := sqlx.GetContext(ctx, q.db, &user, `SELECT * FROM users WHERE id = ?`, id)
	if err != nil {
		return User{}, fmt.Errorf("get user %d: %w", id, err)
	}
	return user, nil
}

type Topic struct {
	Id           int64          `db:"id"`
	ForumId      sql.NullInt64  `db:"forum_id"`
	UserId       sql.NullInt64  `db:"user_id"`
	Name         sql.NullString `db:"name"`
	Date         sql.NullString `db:"date"`
	LastPostDate sql.NullString `db:"last_post_date"`
	Views        sql.NullInt64  `db:"views"`
	Posts        sql.NullInt64  `db:"posts"`
	LastPostId   sql.NullInt64  `db:"last_post_id"`
	Pinned       bool           `db:"pinned"`
	Locked       bool           `db:"locked"`
	Announcement bool           `db:"announcement"`
	Poll         bool           `db:"poll"`
}

func (q *Queries) GetTopic(ctx context.Context, id int64) (Topic, error) {
	var topic Topic
	err := sqlx.GetContext(ctx, q.db, &topic, `SELECT * FROM topics WHERE id = ?`, id)
	if err != nil {
		return Topic{}, fmt.Errorf("get topic %d: %w", id, err)
	}
	return topic, nil
}

type Post struct {
	Id      int64          `db:"id"`
	TopicId int64          `db:"topic_id"`
	UserId  int64          `db:"user_id"`
	Date    sql.NullString `db:"date"`
	Content sql.NullString `db:"content"`
}

func (q *Queries) TopicPosts(ctx context.Context, topicId int64) ([]Post, error) {
	var out []Post
	err := sqlx.SelectContext(ctx, q.db, &out, `SELECT * FROM posts WHERE topic_id = ? ORDER BY id`, topicId)
	if err != nil {
		return nil, fmt.Errorf("list posts of topic %d: %w", topicId, err)
	}
	return out, nil
}

type Forum struct {
	Id          int64          `db:"id"`
	Name        sql.NullString `db:"name"`
	Description sql.NullString `db:"description"`
	ParentId    int64          `db:"parent_id"`
	Topics      sql.NullInt64  `db:"topics"`
}

func (q *Queries) GetForum(ctx context.Context, id int64) (Forum, error) {
	var forum Forum
	err := sqlx.GetContext(ctx, q.db, &forum, `SELECT * FROM forums WHERE id = ?`, id)
	if err != nil {
		return Forum{}, fmt.Errorf("get forum %d: %w", id, err)
	}
	return forum, nil
}

func (q *Queries) UserGroups(ctx context.Context, userId int64) ([]int64, error) {
	var out []int64
	err := sqlx.SelectContext(ctx, q.db, &out, `SELECT group_id FROM users_groups WHERE user_id = ? ORDER BY group_id`, userId)
	if err != nil {
		return nil, fmt.Errorf("list groups of user %d: %w", userId, err)
	}
	return out, nil
}
