package model

import "time"

// Article is a published post.
//
// Slug is assigned once at creation and never recomputed, even when the title
// changes. TagList is always kept in ascending order so output is stable.
// Favorited and Author.Following are relative to the viewer; FavoritesCount is
// always the number of favorite edges, never a stored counter.
type Article struct {
	ID             string    `json:"-"`
	Slug           string    `json:"slug"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Body           string    `json:"body"`
	TagList        []string  `json:"tagList"`
	AuthorID       string    `json:"-"`
	Author         Profile   `json:"author"`
	Favorited      bool      `json:"favorited"`
	FavoritesCount int       `json:"favoritesCount"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// ArticlePatch is a partial update of an article. A nil field is left
// unchanged; a non-nil TagList replaces the whole tag set.
type ArticlePatch struct {
	Title       *string
	Description *string
	Body        *string
	TagList     *[]string
}

// Comment belongs to exactly one article. IDs are assigned by storage and
// increase monotonically.
type Comment struct {
	ID        int64     `json:"id"`
	Body      string    `json:"body"`
	AuthorID  string    `json:"-"`
	ArticleID string    `json:"-"`
	Author    Profile   `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FavoriteEdge records that UserID favorited ArticleID.
type FavoriteEdge struct {
	UserID    string `json:"userId"`
	ArticleID string `json:"articleId"`
}
