package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// MaxNameLength is the maximum number of characters of a bookmark name.
	MaxNameLength = 240
	// MaxNotesLength is the maximum number of characters of bookmark notes.
	MaxNotesLength = 820
)

// Bookmark is a saved URL with its metadata.
// Bookmarks only exist embedded in their owner's User document.
type Bookmark struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is assigned when the bookmark is created and never changes.
	ID primitive.ObjectID `bson:"_id" json:"id"`

	// ─────────────────────────────
	// Content
	// ─────────────────────────────

	// URL is the bookmarked address, as submitted.
	URL string `bson:"url" json:"url"`

	// Name is a display name, filled from the page title when requested.
	Name string `bson:"name" json:"name"`

	// Notes is free text attached by the owner.
	Notes string `bson:"notes" json:"notes"`

	// Tags is an ordered set, duplicates are rejected at validation.
	Tags []string `bson:"tags" json:"tags"`

	// Favicon is a data URI (data:<mime>;base64,<payload>) or empty.
	Favicon string `bson:"favicon,omitempty" json:"favicon,omitempty"`

	// Hidden bookmarks are kept out of public listings by clients.
	Hidden bool `bson:"hidden" json:"hidden"`

	// ─────────────────────────────
	// Metadata
	// ─────────────────────────────

	// Updated is set on creation and on every edit.
	Updated time.Time `bson:"updated" json:"updated"`
}

// BookmarkInput is a client-submitted bookmark, used for add, edit and delete.
// A nil field was absent from the payload.
type BookmarkInput struct {
	ID      *string   `json:"id,omitempty"`
	URL     *string   `json:"url,omitempty"`
	Name    *string   `json:"name,omitempty"`
	Notes   *string   `json:"notes,omitempty"`
	Tags    *[]string `json:"tags,omitempty"`
	Favicon *string   `json:"favicon,omitempty"`
	Hidden  *bool     `json:"hidden,omitempty"`
}

// NewBookmark builds a bookmark from a validated input.
func NewBookmark(in BookmarkInput, now time.Time) Bookmark {
	b := Bookmark{
		ID:      primitive.NewObjectID(),
		Tags:    []string{},
		Updated: now,
	}
	b.Apply(in, now)
	return b
}

// Apply overwrites the fields present in the input. ID is never touched.
func (b *Bookmark) Apply(in BookmarkInput, now time.Time) {
	if in.URL != nil {
		b.URL = *in.URL
	}
	if in.Name != nil {
		b.Name = *in.Name
	}
	if in.Notes != nil {
		b.Notes = *in.Notes
	}
	if in.Tags != nil {
		b.Tags = append([]string{}, (*in.Tags)...)
	}
	if in.Favicon != nil {
		b.Favicon = *in.Favicon
	}
	if in.Hidden != nil {
		b.Hidden = *in.Hidden
	}
	b.Updated = now
}
