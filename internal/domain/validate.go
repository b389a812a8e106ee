package domain

import (
	"net"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MsgInvalidURL       = "Invalid URL."
	MsgNameTooLong      = "Name must have less than 240 characters."
	MsgNotesTooLong     = "Notes must have less than 820 characters."
	MsgInvalidID        = "Invalid bookmark ID."
	MsgDuplicateTags    = "Tags must be unique."
	MsgInvalidFavicon   = "Favicon must be a data URI."
	MsgInvalidEmail     = "Email is not valid."
	MsgPasswordTooShort = "Password must be at least 4 characters long."
	MsgInvalidUsername  = "Username must only contain letters, numbers and dashes."
	MsgReservedName     = "This username is reserved."
)

const (
	maxURLLength      = 2083
	minPasswordLength = 4
)

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9-]+$`)

// IsURL accepts http, https and ftp URLs with a real host. The scheme may be
// omitted, "example.com/page" is valid.
func IsURL(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(raw) > maxURLLength || strings.ContainsAny(raw, " \t\r\n") {
		return false
	}
	u, err := url.Parse(WithScheme(raw))
	if err != nil {
		return false
	}
	// "mailto:x@host" would otherwise parse as userinfo once prefixed
	if u.User != nil && !strings.Contains(raw, "://") {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "ftp":
	default:
		return false
	}
	host := u.Hostname()
	if host == "" {
		return false
	}
	if net.ParseIP(host) != nil {
		return true
	}
	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return false
	}
	for _, l := range labels {
		if l == "" || strings.HasPrefix(l, "-") || strings.HasSuffix(l, "-") {
			return false
		}
	}
	return true
}

// WithScheme prefixes raw with http:// when it has no scheme.
func WithScheme(raw string) string {
	if strings.Contains(raw, "://") {
		return raw
	}
	return "http://" + raw
}

// ParseObjectID parses a bookmark or user identifier.
func ParseObjectID(s string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

// IsEmail reports whether s is a bare address like "a@b.tld".
func IsEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || addr.Name != "" {
		return false
	}
	at := strings.LastIndex(s, "@")
	return at > 0 && strings.Contains(s[at+1:], ".")
}

// NormalizeEmail is the stored form of an email address.
func NormalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// ValidatePassword checks the password policy.
func ValidatePassword(field, password string) []FieldError {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return []FieldError{{Field: field, Message: MsgPasswordTooShort}}
	}
	return nil
}

// ValidateEmail checks the address syntax.
func ValidateEmail(email string) []FieldError {
	if !IsEmail(email) {
		return []FieldError{{Field: "email", Value: email, Message: MsgInvalidEmail}}
	}
	return nil
}

// ValidateUsername checks the characters and the reserved list.
func ValidateUsername(username string) []FieldError {
	if !usernameRe.MatchString(username) {
		return []FieldError{{Field: "username", Value: username, Message: MsgInvalidUsername}}
	}
	if IsReserved(username) {
		return []FieldError{{Field: "username", Value: username, Message: MsgReservedName}}
	}
	return nil
}

// ValidateBookmark checks one entry of an add (requireURL) or edit (requireID)
// batch and returns every failing field.
func ValidateBookmark(in BookmarkInput, index int, requireURL, requireID bool) []FieldError {
	var errs []FieldError
	add := func(field string, value any, msg string) {
		errs = append(errs, FieldError{Field: field, Value: value, Message: msg, Index: At(index)})
	}

	if requireID {
		switch {
		case in.ID == nil:
			add("id", nil, MsgInvalidID)
		default:
			if _, ok := ParseObjectID(*in.ID); !ok {
				add("id", *in.ID, MsgInvalidID)
			}
		}
	}

	switch {
	case in.URL == nil && requireURL:
		add("url", nil, MsgInvalidURL)
	case in.URL != nil && !IsURL(*in.URL):
		add("url", *in.URL, MsgInvalidURL)
	}

	if in.Name != nil && utf8.RuneCountInString(*in.Name) > MaxNameLength {
		add("name", *in.Name, MsgNameTooLong)
	}
	if in.Notes != nil && utf8.RuneCountInString(*in.Notes) > MaxNotesLength {
		add("notes", *in.Notes, MsgNotesTooLong)
	}
	if in.Tags != nil && hasDuplicates(*in.Tags) {
		add("tags", *in.Tags, MsgDuplicateTags)
	}
	if in.Favicon != nil && *in.Favicon != "" && !IsDataURI(*in.Favicon) {
		add("favicon", *in.Favicon, MsgInvalidFavicon)
	}

	return errs
}

// IsDataURI reports whether s looks like data:<mime>[;base64],<payload>.
func IsDataURI(s string) bool {
	if !strings.HasPrefix(s, "data:") {
		return false
	}
	return strings.Contains(s, ",")
}

func hasDuplicates(tags []string) bool {
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			return true
		}
		seen[t] = struct{}{}
	}
	return false
}
