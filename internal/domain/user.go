package domain

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Provider is an OAuth identity provider a user can link.
type Provider string

const (
	ProviderFacebook Provider = "facebook"
	ProviderGoogle   Provider = "google"
)

// ParseProvider returns the provider named s.
func ParseProvider(s string) (Provider, bool) {
	switch Provider(s) {
	case ProviderFacebook, ProviderGoogle:
		return Provider(s), true
	}
	return "", false
}

// User is the account aggregate. It owns its bookmarks: they are only
// reachable, created, changed and removed through the methods below.
type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email    string             `bson:"email" json:"email,omitempty"`
	Username string             `bson:"username,omitempty" json:"username,omitempty"`
	Password string             `bson:"password,omitempty" json:"-"`
	Picture  string             `bson:"picture,omitempty" json:"picture,omitempty"`
	Facebook string             `bson:"facebook,omitempty" json:"facebook,omitempty"`
	Google   string             `bson:"google,omitempty" json:"google,omitempty"`
	Verified bool               `bson:"verified" json:"verified"`

	VerificationToken    string    `bson:"verificationToken,omitempty" json:"-"`
	ResetPasswordToken   string    `bson:"resetPasswordToken,omitempty" json:"-"`
	ResetPasswordExpires time.Time `bson:"resetPasswordExpires,omitempty" json:"-"`

	Created time.Time `bson:"created" json:"created"`
	Version int64     `bson:"version" json:"-"`

	Bookmarks []Bookmark `bson:"bookmarks,omitempty" json:"bookmarks,omitempty"`

	loaded Projection
}

// Projection selects the optional field groups of a User read from the store.
// Profile fields are always loaded.
type Projection struct {
	Password  bool // password hash
	Secrets   bool // verification and reset tokens
	Bookmarks bool // bookmark collection
}

// ProjectionAll loads every field.
var ProjectionAll = Projection{Password: true, Secrets: true, Bookmarks: true}

// Loaded returns the field groups this User was read with. A User built in
// memory reports every group as loaded.
func (u *User) Loaded() Projection {
	if u.ID.IsZero() {
		return ProjectionAll
	}
	return u.loaded
}

// SetLoaded is called by stores after a read.
func (u *User) SetLoaded(p Projection) { u.loaded = p }

// Provider returns the linked id for p.
func (u *User) Provider(p Provider) string {
	switch p {
	case ProviderFacebook:
		return u.Facebook
	case ProviderGoogle:
		return u.Google
	}
	return ""
}

// SetProvider links (or unlinks, with an empty id) the provider account.
func (u *User) SetProvider(p Provider, id string) {
	switch p {
	case ProviderFacebook:
		u.Facebook = id
	case ProviderGoogle:
		u.Google = id
	}
}

// FindBookmark returns the position of the bookmark with the given id.
func (u *User) FindBookmark(id primitive.ObjectID) (int, bool) {
	for i := range u.Bookmarks {
		if u.Bookmarks[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

// Bookmark returns a pointer into the collection, nil when absent.
func (u *User) Bookmark(id primitive.ObjectID) *Bookmark {
	if i, ok := u.FindBookmark(id); ok {
		return &u.Bookmarks[i]
	}
	return nil
}

// AppendBookmarks adds bookmarks at the end, in the given order.
func (u *User) AppendBookmarks(bs ...Bookmark) {
	u.Bookmarks = append(u.Bookmarks, bs...)
}

// RemoveBookmark deletes the bookmark keeping the relative order of the others.
func (u *User) RemoveBookmark(id primitive.ObjectID) bool {
	i, ok := u.FindBookmark(id)
	if !ok {
		return false
	}
	u.Bookmarks = append(u.Bookmarks[:i], u.Bookmarks[i+1:]...)
	return true
}

// PublicUser is what anyone can see of an account: no email, no provider
// links and no hidden bookmarks.
type PublicUser struct {
	ID        primitive.ObjectID `json:"id"`
	Username  string             `json:"username,omitempty"`
	Picture   string             `json:"picture,omitempty"`
	Verified  bool               `json:"verified"`
	Created   time.Time          `json:"created"`
	Bookmarks []Bookmark         `json:"bookmarks"`
}

func (u *User) Public() PublicUser {
	visible := make([]Bookmark, 0, len(u.Bookmarks))
	for _, b := range u.Bookmarks {
		if !b.Hidden {
			visible = append(visible, b)
		}
	}
	return PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		Picture:   u.Picture,
		Verified:  u.Verified,
		Created:   u.Created,
		Bookmarks: visible,
	}
}

// UserField names the fields users can be looked up by.
type UserField string

const (
	FieldEmail             UserField = "email"
	FieldUsername          UserField = "username"
	FieldFacebook          UserField = "facebook"
	FieldGoogle            UserField = "google"
	FieldVerificationToken UserField = "verificationToken"
	FieldResetToken        UserField = "resetPasswordToken"
)

// ProviderField returns the lookup field of an OAuth provider.
func ProviderField(p Provider) UserField {
	if p == ProviderFacebook {
		return FieldFacebook
	}
	return FieldGoogle
}

// UserStore persists users. Lookups return ErrNotFound when nothing matches.
// Save returns ErrConflict when the stored document changed since it was read
// and a validation Error when a unique field is already taken.
type UserStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID, p Projection) (*User, error)
	FindByField(ctx context.Context, field UserField, value string, p Projection) (*User, error)
	Create(ctx context.Context, u *User) error
	Save(ctx context.Context, u *User) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteUnverifiedBefore(ctx context.Context, before time.Time) (int64, error)
	ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}
