package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestUserBookmarkCollection(t *testing.T) {
	now := time.Now()
	u := &User{}

	a := NewBookmark(BookmarkInput{URL: strPtr("https://a.example.com")}, now)
	b := NewBookmark(BookmarkInput{URL: strPtr("https://b.example.com")}, now)
	c := NewBookmark(BookmarkInput{URL: strPtr("https://c.example.com")}, now)
	u.AppendBookmarks(a, b, c)

	if a.ID == b.ID || b.ID == c.ID {
		t.Fatal("bookmark ids must be distinct")
	}

	if got := u.Bookmark(b.ID); got == nil || got.URL != "https://b.example.com" {
		t.Fatalf("Bookmark(b) = %+v", got)
	}

	if !u.RemoveBookmark(b.ID) {
		t.Fatal("RemoveBookmark(b) = false")
	}
	if u.RemoveBookmark(b.ID) {
		t.Fatal("second RemoveBookmark(b) should report false")
	}
	if len(u.Bookmarks) != 2 || u.Bookmarks[0].ID != a.ID || u.Bookmarks[1].ID != c.ID {
		t.Fatalf("remaining order broken: %+v", u.Bookmarks)
	}
	if u.Bookmark(primitive.NewObjectID()) != nil {
		t.Error("unknown id should not resolve")
	}
}

func TestBookmarkApply(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tags := []string{"x"}
	b := NewBookmark(BookmarkInput{URL: strPtr("https://example.com"), Name: strPtr("old"), Tags: &tags}, created)
	id := b.ID

	edited := created.Add(time.Hour)
	b.Apply(BookmarkInput{Notes: strPtr("new notes")}, edited)

	if b.ID != id {
		t.Error("Apply changed the id")
	}
	if b.Name != "old" || b.URL != "https://example.com" || len(b.Tags) != 1 {
		t.Errorf("absent fields were modified: %+v", b)
	}
	if b.Notes != "new notes" {
		t.Errorf("Notes = %q", b.Notes)
	}
	if !b.Updated.Equal(edited) {
		t.Errorf("Updated = %v, want %v", b.Updated, edited)
	}

	tags[0] = "mutated"
	if b.Tags[0] != "x" {
		t.Error("tags slice is shared with the input")
	}
}

func TestErrorIs(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NotFound("Unknown user."))
	if !errors.Is(err, ErrNotFound) {
		t.Error("errors.Is(not found, ErrNotFound) = false")
	}
	if errors.Is(err, ErrConflict) {
		t.Error("errors.Is(not found, ErrConflict) = true")
	}

	var de *Error
	if !errors.As(err, &de) || de.Message != "Unknown user." {
		t.Errorf("errors.As lost the message: %+v", de)
	}
}

func TestProviders(t *testing.T) {
	if _, ok := ParseProvider("twitter"); ok {
		t.Error("twitter should not be a provider")
	}
	p, ok := ParseProvider("google")
	if !ok {
		t.Fatal("google should be a provider")
	}

	u := &User{}
	u.SetProvider(p, "123")
	if u.Google != "123" || u.Provider(ProviderGoogle) != "123" {
		t.Errorf("SetProvider did not link google: %+v", u)
	}
	if ProviderField(ProviderFacebook) != FieldFacebook {
		t.Error("facebook lookup field mismatch")
	}
}

func TestPublicHidesPrivateData(t *testing.T) {
	now := time.Now()
	hidden := true
	u := &User{Email: "jane@example.com", Username: "jane", Google: "g-1"}
	u.AppendBookmarks(
		NewBookmark(BookmarkInput{URL: strPtr("https://a.example.com")}, now),
		NewBookmark(BookmarkInput{URL: strPtr("https://b.example.com"), Hidden: &hidden}, now),
	)

	p := u.Public()
	if p.Username != "jane" {
		t.Errorf("Username = %q", p.Username)
	}
	if len(p.Bookmarks) != 1 || p.Bookmarks[0].URL != "https://a.example.com" {
		t.Errorf("Bookmarks = %+v, want only the visible one", p.Bookmarks)
	}

	if p := (&User{}).Public(); p.Bookmarks == nil {
		t.Error("Bookmarks should be an empty list, not null")
	}
}
