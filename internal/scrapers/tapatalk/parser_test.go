package tapatalk

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func loadFixture(t testing.TB, name string) *goquery.Document {
	t.Helper()
	f, err := os.Open(filepath.Join("testdata", name))
	require.NoError(t, err)
	defer f.Close()
	doc, err := goquery.NewDocumentFromReader(f)
	require.NoError(t, err)
	return doc
}

func date(value string) *time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return &t
}

func ptr[T any](value T) *T {
	return &value
}

func TestScale(t *testing.T) {
	cases := []struct {
		input    string
		expected int64
	}{
		{input: "1.2k", expected: 1200},
		{input: "1.2K Replies", expected: 1200},
		{input: "3m", expected: 3_000_000},
		{input: "12.3M views", expected: 12_300_000},
		{input: "5", expected: 5},
		{input: "4 Replies", expected: 4},
		{input: "3 messages", expected: 3},
		{input: "1,234", expected: 1234},
		{input: "1,234,567 Views", expected: 1_234_567},
		{input: "1,5k", expected: 1500},
		{input: "2.5", expected: 3},
		{input: "0.0005k", expected: 1},
		{input: "", expected: 0},
		{input: "no replies", expected: 0},
	}
	for _, test := range cases {
		require.Equal(t, test.expected, Scale(test.input), "input %q", test.input)
	}

	_, err := ParseScaled("none")
	require.Error(t, err)
}

func TestParseTime(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	cases := []struct {
		input    string
		expected time.Time
	}{
		{
			input:    "2012-03-04T10:20:30+00:00",
			expected: time.Date(2012, time.March, 4, 10, 20, 30, 0, time.UTC),
		},
		{
			input:    "Sun Mar 04, 2012 10:20 am",
			expected: time.Date(2012, time.March, 4, 10, 20, 0, 0, paris),
		},
		{
			input:    "Mon Mar 05, 2012 8:05 pm",
			expected: time.Date(2012, time.March, 5, 20, 5, 0, 0, paris),
		},
		{
			input:    "2015-01-02 03:04:05",
			expected: time.Date(2015, time.January, 2, 3, 4, 5, 0, paris),
		},
	}
	for _, test := range cases {
		got, ok := ParseTime(test.input, paris)
		require.True(t, ok, "input %q", test.input)
		require.True(t, test.expected.Equal(got), "input %q: expected %v, got %v", test.input, test.expected, got)
	}

	_, ok := ParseTime("", paris)
	require.False(t, ok)
	_, ok = ParseTime("yesterday-ish", paris)
	require.False(t, ok)
}

func TestReadPagination(t *testing.T) {
	require.Equal(t, Pagination{Items: 23, Pages: 3}, ReadPagination(loadFixture(t, "topic.html")))
	require.Equal(t, Pagination{Items: 57, Pages: 3}, ReadPagination(loadFixture(t, "forum.html")))
	require.Equal(t, Pagination{Items: 0, Pages: 1}, ReadPagination(loadFixture(t, "member.html")))
}

func TestPosts(t *testing.T) {
	cases := []struct {
		mode    AuthorMode
		authors []Author
	}{
		{
			mode:    AuthorAuto,
			authors: []Author{{Id: 42, Name: "Alice"}, {Id: 44, Name: "Bob"}, Guest},
		},
		{
			mode:    AuthorScript,
			authors: []Author{{Id: 42, Name: "Alice"}, Guest, Guest},
		},
		{
			mode:    AuthorAttributes,
			authors: []Author{{Id: 43, Name: "Alicia"}, {Id: 44, Name: "Bob"}, Guest},
		},
	}

	for _, test := range cases {
		// extraction mutates the body, every mode gets a fresh document
		doc := loadFixture(t, "topic.html")
		posts, err := NewParser(test.mode, time.UTC).Posts(doc, 7)
		require.NoError(t, err)

		expected := []Post{
			{
				Id:      101,
				TopicId: 7,
				Author:  test.authors[0],
				Date:    date("2012-03-04T10:20:30Z"),
				// only the trailing marker is removed, earlier ones are part of the body
				Content: `Hello <b>world</b><i class="hide">first</i>`,
			},
			{
				Id:      102,
				TopicId: 7,
				Author:  test.authors[1],
				Date:    date("2012-03-05T08:00:00Z"),
				Content: "Second post",
			},
			{
				Id:      103,
				TopicId: 7,
				Author:  test.authors[2],
				Content: "Anonymous",
			},
		}
		if diff := cmp.Diff(expected, posts); diff != "" {
			t.Fatalf("mode %s: unexpected posts (-want +got):\n%s", test.mode, diff)
		}
	}

	_, err := NewParser(AuthorAuto, time.UTC).Posts(loadFixture(t, "topic_missing.html"), 9)
	require.ErrorIs(t, err, ErrResourceAbsent)
	require.True(t, IsAbsent(err))
}

func TestTopicDetail(t *testing.T) {
	parser := NewParser(AuthorAuto, time.UTC)

	detail, err := parser.TopicDetail(loadFixture(t, "topic.html"), 7)
	require.NoError(t, err)
	expected := TopicDetail{
		Id:         7,
		ForumId:    5,
		Name:       "Welcome thread",
		Author:     Author{Id: 42, Name: "Alice"},
		Date:       date("2012-03-04T10:20:30Z"),
		Pagination: Pagination{Items: 23, Pages: 3},
	}
	if diff := cmp.Diff(expected, detail); diff != "" {
		t.Fatalf("unexpected detail (-want +got):\n%s", diff)
	}

	_, err = parser.TopicDetail(loadFixture(t, "topic_missing.html"), 9)
	require.ErrorIs(t, err, ErrResourceAbsent)
}

func TestTopicSummaries(t *testing.T) {
	parser := NewParser(AuthorAuto, time.UTC)
	doc := loadFixture(t, "forum.html")

	announcements := parser.TopicSummaries(doc, AnnouncementContainer, true)
	require.Len(t, announcements, 1)
	require.True(t, announcements[0].Announcement)

	topics := parser.ForumTopics(doc)
	expected := []TopicSummary{
		{
			Id:           10,
			Name:         "Read this first",
			Author:       Author{Id: 2, Name: "Admin"},
			Date:         date("2010-01-01T12:00:00Z"),
			LastPostDate: date("2010-01-01T12:00:00Z"),
			LastPostId:   150,
			Views:        9900,
			Posts:        1,
			Announcement: true,
		},
		{
			Id:           11,
			Name:         "Rules",
			Author:       Author{Id: 42, Name: "Alice"},
			Date:         date("2011-02-03T04:05:06Z"),
			LastPostDate: date("2011-03-01T00:00:00Z"),
			LastPostId:   205,
			Views:        120,
			Posts:        5,
			Pinned:       true,
			Locked:       true,
			Poll:         true,
		},
		{
			Id:     12,
			Name:   "Levels of the week",
			Author: Author{Id: 77},
			Views:  3456,
			Posts:  1201,
		},
	}
	if diff := cmp.Diff(expected, topics); diff != "" {
		t.Fatalf("unexpected topics (-want +got):\n%s", diff)
	}

	for _, topic := range topics {
		require.Equal(t, topic.Id == 10, topic.Announcement, "topic %d", topic.Id)
	}
}

func TestForum(t *testing.T) {
	parser := NewParser(AuthorAuto, time.UTC)

	forum, err := parser.Forum(loadFixture(t, "forum.html"), 5)
	require.NoError(t, err)
	require.Equal(t, Forum{
		Id:          5,
		Name:        "Général",
		Description: "Tout ce qui concerne N.",
		ParentId:    1,
		Pagination:  Pagination{Items: 57, Pages: 3},
	}, forum)

	forum, err = parser.Forum(loadFixture(t, "forum.html"), 1)
	require.NoError(t, err)
	require.Equal(t, int64(5), forum.ParentId)

	_, err = parser.Forum(loadFixture(t, "forum_missing.html"), 99)
	require.ErrorIs(t, err, ErrResourceAbsent)
}

func TestMember(t *testing.T) {
	parser := NewParser(AuthorAuto, time.UTC)

	member, err := parser.Member(loadFixture(t, "member.html"), 42)
	require.NoError(t, err)
	expected := Member{
		Id:        42,
		Name:      "Alice",
		Rank:      "Site Admin",
		Birthday:  ptr("12 March 1990"),
		Joined:    date("2010-05-06T07:08:09Z"),
		Active:    date("2015-01-02T03:04:05Z"),
		Posts:     ptr(int64(1234)),
		Signature: ptr("Cheers <b>A</b>"),
		HasGroups: true,
		Groups: []Group{
			{Id: 2, Name: "Registered users"},
			{Id: 5, Name: "Administrators"},
		},
	}
	if diff := cmp.Diff(expected, member); diff != "" {
		t.Fatalf("unexpected member (-want +got):\n%s", diff)
	}

	_, err = parser.Member(loadFixture(t, "member_missing.html"), 404)
	require.ErrorIs(t, err, ErrResourceAbsent)
}

func TestParseAuthorMode(t *testing.T) {
	mode, err := ParseAuthorMode("")
	require.NoError(t, err)
	require.Equal(t, AuthorAuto, mode)

	mode, err = ParseAuthorMode("script")
	require.NoError(t, err)
	require.Equal(t, AuthorScript, mode)

	_, err = ParseAuthorMode("guess")
	require.Error(t, err)
}
