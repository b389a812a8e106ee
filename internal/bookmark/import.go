package bookmark

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/MrSnakeDoc/bookmarkpack/internal/domain"
	"github.com/MrSnakeDoc/bookmarkpack/internal/enrich"
	"github.com/MrSnakeDoc/bookmarkpack/internal/logger"
	"github.com/MrSnakeDoc/bookmarkpack/internal/sources/homepage"
)

const (
	MsgWrongFile = "Wrong input file."

	githubSite = "https://github.com"
)

// ParseNetscape reads a browser bookmark export (NETSCAPE-Bookmark-file-1).
// Every anchor becomes an input: href as URL, text as name and, when it is a
// data URI, the icon attribute as favicon.
func ParseNetscape(r io.Reader) ([]domain.BookmarkInput, error) {
	z := html.NewTokenizer(r)

	var (
		inputs  = []domain.BookmarkInput{}
		current *domain.BookmarkInput
		text    strings.Builder
	)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return inputs, nil
			}
			return nil, fmt.Errorf("parse bookmarks file: %w", z.Err())

		case html.StartTagToken:
			tok := z.Token()
			if tok.DataAtom != atom.A {
				continue
			}
			current = anchorInput(tok)
			text.Reset()

		case html.TextToken:
			if current != nil {
				text.Write(z.Text())
			}

		case html.EndTagToken:
			if current == nil {
				continue
			}
			if name, _ := z.TagName(); string(name) != "a" {
				continue
			}
			if name := strings.Join(strings.Fields(text.String()), " "); name != "" {
				name = truncateRunes(name, domain.MaxNameLength)
				current.Name = &name
			}
			if current.URL != nil {
				inputs = append(inputs, *current)
			}
			current = nil
		}
	}
}

func anchorInput(tok html.Token) *domain.BookmarkInput {
	in := &domain.BookmarkInput{}
	for _, a := range tok.Attr {
		switch strings.ToLower(a.Key) {
		case "href":
			if href := strings.TrimSpace(a.Val); href != "" {
				in.URL = &href
			}
		case "icon":
			if domain.IsDataURI(a.Val) {
				icon := a.Val
				in.Favicon = &icon
			}
		}
	}
	return in
}

// ImportNetscape adds every bookmark of a browser export.
func (m *Manager) ImportNetscape(ctx context.Context, userID primitive.ObjectID, r io.Reader, f enrich.Flags) ([]domain.Bookmark, error) {
	inputs, err := ParseNetscape(r)
	if err != nil {
		return nil, domain.BadRequest(MsgWrongFile)
	}
	return m.Add(ctx, userID, inputs, f)
}

// ImportHomepage adds every link of a Homepage bookmarks.yaml or services.yaml.
func (m *Manager) ImportHomepage(ctx context.Context, userID primitive.ObjectID, data []byte, f enrich.Flags) ([]domain.Bookmark, error) {
	entries, err := homepage.Parse(data)
	if err != nil {
		m.log.Debug("homepage import rejected", logger.Error(err))
		return nil, domain.BadRequest(MsgWrongFile)
	}
	return m.Add(ctx, userID, homepage.ToInputs(entries), f)
}

// ImportGitHub adds the repositories starred by a GitHub user.
func (m *Manager) ImportGitHub(ctx context.Context, userID primitive.ObjectID, username string, f enrich.Flags) ([]domain.Bookmark, error) {
	if m.github == nil {
		return nil, domain.BadRequest("GitHub import is disabled")
	}
	repos, err := m.github.Starred(ctx, username)
	if err != nil {
		return nil, err
	}

	// every repository shares the same site icon
	var favicon string
	if f.Favicon && len(repos) > 0 {
		favicon = m.enricher.Extract(ctx, githubSite, enrich.Flags{Favicon: true}).Favicon
	}

	inputs := make([]domain.BookmarkInput, 0, len(repos))
	for _, r := range repos {
		in := domain.BookmarkInput{URL: ptr(r.HTMLURL)}
		if r.Name != "" {
			in.Name = ptr(r.Name)
		}
		if favicon != "" {
			in.Favicon = ptr(favicon)
		}
		inputs = append(inputs, in)
	}
	return m.Add(ctx, userID, inputs, f)
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

func ptr[T any](v T) *T { return &v }
