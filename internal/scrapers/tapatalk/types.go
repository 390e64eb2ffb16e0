package tapatalk

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnavailable is returned by the fetcher when a page could not be retrieved or parsed.
	ErrUnavailable = errors.New("resource unavailable")
	// ErrResourceAbsent is returned by extractors when a page lacks the container that
	// identifies the resource, which is what the forum renders for deleted or unknown ids.
	ErrResourceAbsent = errors.New("resource absent")
)

// IsAbsent reports whether err means the resource should be skipped.
func IsAbsent(err error) bool {
	return errors.Is(err, ErrUnavailable) || errors.Is(err, ErrResourceAbsent)
}

// AuthorMode selects how the author of a post is read.
type AuthorMode string

const (
	// AuthorAttributes reads the profile block next to the post (dl[data-uid], a[itemprop=name]).
	AuthorAttributes AuthorMode = "attributes"
	// AuthorScript reads the user_id/username pair out of the script embedded with the post.
	AuthorScript AuthorMode = "script"
	// AuthorAuto tries the script payload first and falls back to the attributes.
	AuthorAuto AuthorMode = "auto"
)

func ParseAuthorMode(s string) (AuthorMode, error) {
	switch AuthorMode(s) {
	case AuthorAttributes, AuthorScript, AuthorAuto:
		return AuthorMode(s), nil
	case "":
		return AuthorAuto, nil
	}
	return "", fmt.Errorf("unknown author mode %q", s)
}

type Author struct {
	Id   int64
	Name string
}

// Guest is the author of anonymous posts.
var Guest = Author{Id: 0, Name: "Guest"}

type Pagination struct {
	// Items is the total amount of items (posts, topics) across all pages.
	Items int64
	// Pages is at least 1.
	Pages int64
}

type Post struct {
	Id      int64
	TopicId int64
	Author  Author
	Date    *time.Time
	// Content is the inner html of the post body without the trailing hide marker.
	Content string
}

type TopicDetail struct {
	Id         int64
	ForumId    int64
	Name       string
	Author     Author
	Date       *time.Time
	Pagination Pagination
}

type TopicSummary struct {
	Id           int64
	Name         string
	Author       Author
	Date         *time.Time
	LastPostDate *time.Time
	LastPostId   int64
	Views        int64
	// Posts counts the first post and the replies.
	Posts int64

	Pinned       bool
	Locked       bool
	Announcement bool
	Poll         bool
}

type Forum struct {
	Id          int64
	Name        string
	Description string
	// ParentId is 0 for root forums.
	ParentId   int64
	Pagination Pagination
}

type Group struct {
	Id   int64
	Name string
}

// Member is a profile page, a nil field was absent from the page.
type Member struct {
	Id        int64
	Name      string
	Rank      string
	Birthday  *string
	Joined    *time.Time
	Active    *time.Time
	Posts     *int64
	Signature *string

	// HasGroups is false when the profile has no groups field at all.
	HasGroups bool
	Groups    []Group
}
