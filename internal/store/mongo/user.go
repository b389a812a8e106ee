package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/MrSnakeDoc/bookmarkpack/internal/domain"
)

// caseInsensitive compares usernames ignoring case. Queries must use it to
// hit the username index.
var caseInsensitive = &options.Collation{Locale: "en", Strength: 2}

const (
	// CollectionUsers holds one document per account, bookmarks embedded.
	CollectionUsers = "users"

	msgUnknownUser = "Unknown user."
)

// Store persists users in MongoDB. It implements domain.UserStore.
type Store struct {
	users *mongo.Collection
	now   func() time.Time
}

// NewStore creates a store over the users collection of db.
func NewStore(db *mongo.Database) *Store {
	return &Store{
		users: db.Collection(CollectionUsers),
		now:   time.Now,
	}
}

// EnsureIndexes creates the unique and lookup indexes. Safe to call on every start.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	sparse := func(name string) *options.IndexOptions {
		return options.Index().SetSparse(true).SetName(name)
	}
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("email_unique")},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true).SetCollation(caseInsensitive).SetName("username_unique")},
		{Keys: bson.D{{Key: "facebook", Value: 1}}, Options: sparse("facebook")},
		{Keys: bson.D{{Key: "google", Value: 1}}, Options: sparse("google")},
		{Keys: bson.D{{Key: "verificationToken", Value: 1}}, Options: sparse("verification_token")},
		{Keys: bson.D{{Key: "resetPasswordToken", Value: 1}}, Options: sparse("reset_token")},
	}
	if _, err := s.users.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}
	return nil
}

// Ping checks the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.users.Database().Client().Ping(ctx, readpref.Primary())
}

func (s *Store) FindByID(ctx context.Context, id primitive.ObjectID, p domain.Projection) (*domain.User, error) {
	return s.findOne(ctx, bson.M{"_id": id}, p, options.FindOne())
}

func (s *Store) FindByField(ctx context.Context, field domain.UserField, value string, p domain.Projection) (*domain.User, error) {
	if value == "" {
		return nil, domain.NotFound(msgUnknownUser)
	}
	opts := options.FindOne()
	if field == domain.FieldUsername {
		opts.SetCollation(caseInsensitive)
	}
	return s.findOne(ctx, bson.M{string(field): value}, p, opts)
}

func (s *Store) findOne(ctx context.Context, filter bson.M, p domain.Projection, opts *options.FindOneOptions) (*domain.User, error) {
	if proj := projection(p); proj != nil {
		opts.SetProjection(proj)
	}

	var u domain.User
	if err := s.users.FindOne(ctx, filter, opts).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.NotFound(msgUnknownUser)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	u.SetLoaded(p)
	return &u, nil
}

// projection excludes the field groups p does not ask for.
func projection(p domain.Projection) bson.M {
	excl := bson.M{}
	if !p.Password {
		excl["password"] = 0
	}
	if !p.Secrets {
		excl["verificationToken"] = 0
		excl["resetPasswordToken"] = 0
		excl["resetPasswordExpires"] = 0
	}
	if !p.Bookmarks {
		excl["bookmarks"] = 0
	}
	if len(excl) == 0 {
		return nil
	}
	return excl
}

func (s *Store) Create(ctx context.Context, u *domain.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.Created.IsZero() {
		u.Created = s.now().UTC()
	}
	u.Version = 0

	if _, err := s.users.InsertOne(ctx, u); err != nil {
		return translateWriteError(err, u)
	}
	u.SetLoaded(domain.ProjectionAll)
	return nil
}

// Save writes the field groups u was loaded with, conditional on the version
// it was read at.
func (s *Store) Save(ctx context.Context, u *domain.User) error {
	set := bson.M{
		"email":    u.Email,
		"verified": u.Verified,
	}
	unset := bson.M{}
	setOrUnset := func(key, value string) {
		if value == "" {
			unset[key] = ""
			return
		}
		set[key] = value
	}

	setOrUnset("username", u.Username)
	setOrUnset("picture", u.Picture)
	setOrUnset("facebook", u.Facebook)
	setOrUnset("google", u.Google)

	loaded := u.Loaded()
	if loaded.Password {
		setOrUnset("password", u.Password)
	}
	if loaded.Secrets {
		setOrUnset("verificationToken", u.VerificationToken)
		setOrUnset("resetPasswordToken", u.ResetPasswordToken)
		if u.ResetPasswordExpires.IsZero() {
			unset["resetPasswordExpires"] = ""
		} else {
			set["resetPasswordExpires"] = u.ResetPasswordExpires
		}
	}
	if loaded.Bookmarks {
		bookmarks := u.Bookmarks
		if bookmarks == nil {
			bookmarks = []domain.Bookmark{}
		}
		set["bookmarks"] = bookmarks
	}

	update := bson.M{"$set": set, "$inc": bson.M{"version": 1}}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	res, err := s.users.UpdateOne(ctx, versionFilter(u.ID, u.Version), update)
	if err != nil {
		return translateWriteError(err, u)
	}
	if res.MatchedCount == 0 {
		n, err := s.users.CountDocuments(ctx, bson.M{"_id": u.ID})
		if err != nil {
			return fmt.Errorf("failed to check user existence: %w", err)
		}
		if n == 0 {
			return domain.NotFound(msgUnknownUser)
		}
		return domain.Conflict(domain.MsgConcurrentWrite)
	}

	u.Version++
	return nil
}

// versionFilter matches the document only if nobody saved it since it was read.
// Documents written before versioning have no version field.
func versionFilter(id primitive.ObjectID, version int64) bson.M {
	if version == 0 {
		return bson.M{"_id": id, "$or": bson.A{
			bson.M{"version": 0},
			bson.M{"version": bson.M{"$exists": false}},
		}}
	}
	return bson.M{"_id": id, "version": version}
}

func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.users.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.NotFound(msgUnknownUser)
	}
	return nil
}

// DeleteUnverifiedBefore removes password accounts never verified and created
// before the given time. Accounts linked to a provider are kept.
func (s *Store) DeleteUnverifiedBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.users.DeleteMany(ctx, bson.M{
		"verified": false,
		"created":  bson.M{"$lt": before},
		"facebook": bson.M{"$exists": false},
		"google":   bson.M{"$exists": false},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete unverified users: %w", err)
	}
	return res.DeletedCount, nil
}

func (s *Store) ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.users.UpdateMany(ctx,
		bson.M{"resetPasswordExpires": bson.M{"$lt": now}},
		bson.M{
			"$unset": bson.M{"resetPasswordToken": "", "resetPasswordExpires": ""},
			"$inc":   bson.M{"version": 1},
		},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to clear expired reset tokens: %w", err)
	}
	return res.ModifiedCount, nil
}

// translateWriteError turns unique index violations into validation errors.
func translateWriteError(err error, u *domain.User) error {
	if !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("failed to write user: %w", err)
	}
	field, value := "email", u.Email
	if strings.Contains(err.Error(), "username") {
		field, value = "username", u.Username
	}
	return domain.Invalid(domain.FieldError{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf("The %s %q is already in use.", field, value),
	})
}
