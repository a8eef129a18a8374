package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/xid"

	"github.com/sakif/conduit/internal/auth"
	"github.com/sakif/conduit/internal/model"
	sqliteRepo "github.com/sakif/conduit/internal/repository/sqlite"
)

// fixtureFile is the on-disk seed format. Rows refer to each other by
// username and slug rather than by storage ID, so the file stays readable:
//
//	{
//	  "users":     [{"username": "jake", "email": "jake@jake.jake", "password": "jakejake"}],
//	  "articles":  [{"slug": "articleslug-1", "title": "...", "author": "jake", "tagList": ["dragons"]}],
//	  "comments":  [{"article": "articleslug-1", "author": "jake", "body": "..."}],
//	  "favorites": [{"user": "jake", "article": "articleslug-1"}],
//	  "follows":   [{"follower": "jake", "followee": "celeb"}]
//	}
type fixtureFile struct {
	Users []struct {
		Username string  `json:"username"`
		Email    string  `json:"email"`
		Password string  `json:"password"`
		Bio      *string `json:"bio"`
		Image    *string `json:"image"`
	} `json:"users"`
	Articles []struct {
		Slug        string   `json:"slug"`
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Body        string   `json:"body"`
		Author      string   `json:"author"`
		TagList     []string `json:"tagList"`
	} `json:"articles"`
	Comments []struct {
		Article string `json:"article"`
		Author  string `json:"author"`
		Body    string `json:"body"`
	} `json:"comments"`
	Favorites []struct {
		User    string `json:"user"`
		Article string `json:"article"`
	} `json:"favorites"`
	Follows []struct {
		Follower string `json:"follower"`
		Followee string `json:"followee"`
	} `json:"follows"`
}

// existingIDs finds rows already in the database, so re-seeding a user or
// article keeps its ID and everything stored under it. Both return "" for a
// row that does not exist yet.
type existingIDs struct {
	user    func(username string) (string, error)
	article func(slug string) (string, error)
}

// noExistingIDs is used when the database was just cleared.
var noExistingIDs = existingIDs{
	user:    func(string) (string, error) { return "", nil },
	article: func(string) (string, error) { return "", nil },
}

// idOr returns existing when it is set, otherwise a fresh xid.
func idOr(existing string) string {
	if existing != "" {
		return existing
	}
	return xid.New().String()
}

// loadFixture decodes r and resolves it into a storage fixture. Plaintext
// passwords are hashed with passwords; an unknown username or slug is an
// error rather than a dangling row.
func loadFixture(r io.Reader, passwords *auth.PasswordService, existing existingIDs) (sqliteRepo.Fixture, error) {
	var file fixtureFile
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&file); err != nil {
		return sqliteRepo.Fixture{}, fmt.Errorf("decoding fixture: %w", err)
	}

	var f sqliteRepo.Fixture
	userIDs := make(map[string]string, len(file.Users))
	articleIDs := make(map[string]string, len(file.Articles))

	for _, u := range file.Users {
		hash, err := passwords.Hash(u.Password)
		if err != nil {
			return f, fmt.Errorf("hashing password for %q: %w", u.Username, err)
		}
		known, err := existing.user(u.Username)
		if err != nil {
			return f, fmt.Errorf("looking up user %q: %w", u.Username, err)
		}
		id := idOr(known)
		userIDs[u.Username] = id
		f.Users = append(f.Users, model.User{
			ID:           id,
			Username:     u.Username,
			Email:        u.Email,
			PasswordHash: hash,
			Bio:          u.Bio,
			Image:        u.Image,
		})
	}

	user := func(username string) (string, error) {
		id, ok := userIDs[username]
		if !ok {
			return "", fmt.Errorf("unknown user %q", username)
		}
		return id, nil
	}
	article := func(slug string) (string, error) {
		id, ok := articleIDs[slug]
		if !ok {
			return "", fmt.Errorf("unknown article %q", slug)
		}
		return id, nil
	}

	for _, a := range file.Articles {
		authorID, err := user(a.Author)
		if err != nil {
			return f, fmt.Errorf("article %q: %w", a.Slug, err)
		}
		known, err := existing.article(a.Slug)
		if err != nil {
			return f, fmt.Errorf("looking up article %q: %w", a.Slug, err)
		}
		id := idOr(known)
		articleIDs[a.Slug] = id
		f.Articles = append(f.Articles, model.Article{
			ID:          id,
			Slug:        a.Slug,
			Title:       a.Title,
			Description: a.Description,
			Body:        a.Body,
			AuthorID:    authorID,
			TagList:     a.TagList,
		})
	}

	for i, c := range file.Comments {
		authorID, err := user(c.Author)
		if err != nil {
			return f, fmt.Errorf("comment %d: %w", i, err)
		}
		articleID, err := article(c.Article)
		if err != nil {
			return f, fmt.Errorf("comment %d: %w", i, err)
		}
		f.Comments = append(f.Comments, model.Comment{Body: c.Body, AuthorID: authorID, ArticleID: articleID})
	}

	for _, fav := range file.Favorites {
		userID, err := user(fav.User)
		if err != nil {
			return f, fmt.Errorf("favorite: %w", err)
		}
		articleID, err := article(fav.Article)
		if err != nil {
			return f, fmt.Errorf("favorite: %w", err)
		}
		f.Favorites = append(f.Favorites, model.FavoriteEdge{UserID: userID, ArticleID: articleID})
	}

	for _, fol := range file.Follows {
		followerID, err := user(fol.Follower)
		if err != nil {
			return f, fmt.Errorf("follow: %w", err)
		}
		followeeID, err := user(fol.Followee)
		if err != nil {
			return f, fmt.Errorf("follow: %w", err)
		}
		f.Follows = append(f.Follows, model.FollowEdge{FollowerID: followerID, FolloweeID: followeeID})
	}

	return f, nil
}
