package account

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/MrSnakeDoc/bookmarkpack/internal/domain"
	"github.com/MrSnakeDoc/bookmarkpack/internal/logger"
	"github.com/MrSnakeDoc/bookmarkpack/internal/mailer"
	"github.com/MrSnakeDoc/bookmarkpack/internal/oauth"
	"github.com/MrSnakeDoc/bookmarkpack/internal/store/memory"
	"github.com/MrSnakeDoc/bookmarkpack/internal/token"
)

type outbox struct {
	*mailer.Mailer
	mu   sync.Mutex
	sent []mailer.Message
}

func (o *outbox) Send(_ context.Context, msg mailer.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, msg)
	return nil
}

func (o *outbox) last(t *testing.T) mailer.Message {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	require.NotEmpty(t, o.sent, "no email sent")
	return o.sent[len(o.sent)-1]
}

type fakeOAuth struct {
	profiles map[string]oauth.Profile // code -> profile
}

func (f *fakeOAuth) Exchange(_ context.Context, _ domain.Provider, code, _, _ string) (oauth.Profile, error) {
	p, ok := f.profiles[code]
	if !ok {
		return oauth.Profile{}, domain.Unauthorized(oauth.MsgAuthFailed)
	}
	return p, nil
}

type fixture struct {
	svc    *Service
	store  *memory.Store
	tokens *token.Issuer
	mail   *outbox
	oauth  *fakeOAuth
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:  memory.NewStore(),
		tokens: token.NewIssuer("0123456789abcdef0123", time.Hour),
		mail:   &outbox{Mailer: mailer.New(mailer.Options{AppURL: "https://app.example.com"}, logger.NewNop())},
		oauth: &fakeOAuth{profiles: map[string]oauth.Profile{
			"google-jane":  {ID: "g-1", Email: "Jane@Example.com", Picture: "https://lh3.example.com/jane.jpg"},
			"google-other": {ID: "g-2", Email: "other@example.com"},
			"no-email":     {ID: "g-3"},
		}},
	}
	f.svc = NewService(f.store, f.tokens, f.mail, f.oauth, logger.NewNop(), Options{BcryptCost: bcrypt.MinCost})
	return f
}

// subject returns the user id carried by a session token.
func (f *fixture) subject(t *testing.T, tok string) primitive.ObjectID {
	t.Helper()
	sub, err := f.tokens.Verify(tok)
	require.NoError(t, err)
	id, err := primitive.ObjectIDFromHex(sub)
	require.NoError(t, err)
	return id
}

func (f *fixture) signup(t *testing.T, email, password string) primitive.ObjectID {
	t.Helper()
	tok, err := f.svc.Signup(context.Background(), SignupInput{Email: email, Password: password})
	require.NoError(t, err)
	return f.subject(t, tok)
}

func (f *fixture) verify(t *testing.T) {
	t.Helper()
	link := f.mail.last(t).Body
	i := strings.Index(link, "/#/verify/")
	require.GreaterOrEqual(t, i, 0)
	tok := strings.Fields(link[i+len("/#/verify/"):])[0]
	require.NoError(t, f.svc.ConfirmVerification(context.Background(), tok))
}

func TestSignupAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id := f.signup(t, " Jane@Example.com ", "secret")

	u, err := f.store.FindByID(ctx, id, domain.ProjectionAll)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", u.Email)
	assert.NotEqual(t, "secret", u.Password, "password is hashed")
	assert.False(t, u.Verified)
	assert.NotEmpty(t, u.VerificationToken)
	assert.Contains(t, f.mail.last(t).Body, "https://app.example.com/#/verify/"+u.VerificationToken)

	tok, err := f.svc.Login(ctx, "JANE@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, id, f.subject(t, tok))
}

func TestSignupValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Signup(context.Background(), SignupInput{Email: "nope", Password: "abc", Username: "admin"})

	var derr *domain.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.KindInvalid, derr.Kind)
	fields := make([]string, 0, len(derr.Errors))
	for _, e := range derr.Errors {
		fields = append(fields, e.Field)
	}
	assert.Equal(t, []string{"email", "password", "username"}, fields)
}

func TestSignupEmailInUse(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "jane@example.com", "secret")

	_, err := f.svc.Signup(context.Background(), SignupInput{Email: "JANE@example.com", Password: "other"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestLoginFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signup(t, "jane@example.com", "secret")

	_, err := f.svc.Login(ctx, "jane@example.com", "wrong")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.svc.Login(ctx, "nobody@example.com", "secret")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.svc.Login(ctx, "", "")
	assert.ErrorIs(t, err, domain.ErrInvalid)
}

func TestVerification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.signup(t, "jane@example.com", "secret")

	require.NoError(t, f.svc.RequestVerification(ctx, "jane@example.com"))
	f.verify(t)

	u, _ := f.store.FindByID(ctx, id, domain.ProjectionAll)
	assert.True(t, u.Verified)
	assert.Empty(t, u.VerificationToken)

	err := f.svc.RequestVerification(ctx, "jane@example.com")
	assert.ErrorIs(t, err, domain.ErrConflict, "already verified")

	err = f.svc.RequestVerification(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, domain.ErrBadRequest)

	err = f.svc.ConfirmVerification(ctx, "unknown-token")
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestPasswordReset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.signup(t, "jane@example.com", "secret")

	require.NoError(t, f.svc.RequestReset(ctx, "jane@example.com"))
	u, _ := f.store.FindByID(ctx, id, domain.ProjectionAll)
	require.NotEmpty(t, u.ResetPasswordToken)
	assert.WithinDuration(t, time.Now().Add(ResetTokenTTL), u.ResetPasswordExpires, time.Minute)
	assert.Contains(t, f.mail.last(t).Body, "/#/reset/"+u.ResetPasswordToken)

	err := f.svc.ConfirmReset(ctx, u.ResetPasswordToken, "ab")
	assert.ErrorIs(t, err, domain.ErrInvalid)

	require.NoError(t, f.svc.ConfirmReset(ctx, u.ResetPasswordToken, "new-secret"))
	assert.Contains(t, f.mail.last(t).Body, "has just been changed")

	_, err = f.svc.Login(ctx, "jane@example.com", "new-secret")
	assert.NoError(t, err)

	err = f.svc.ConfirmReset(ctx, u.ResetPasswordToken, "again")
	assert.ErrorIs(t, err, domain.ErrBadRequest, "tokens are single use")
}

func TestPasswordResetExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signup(t, "jane@example.com", "secret")
	require.NoError(t, f.svc.RequestReset(ctx, "jane@example.com"))

	u, _ := f.store.FindByField(ctx, domain.FieldEmail, "jane@example.com", domain.ProjectionAll)
	f.svc.now = func() time.Time { return time.Now().Add(2 * ResetTokenTTL) }

	err := f.svc.ConfirmReset(ctx, u.ResetPasswordToken, "new-secret")
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestOAuthCreatesVerifiedAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tok, err := f.svc.OAuthLogin(ctx, domain.ProviderGoogle, OAuthInput{Code: "google-jane"}, nil)
	require.NoError(t, err)
	id := f.subject(t, tok)

	u, _ := f.store.FindByID(ctx, id, domain.Projection{})
	assert.True(t, u.Verified)
	assert.Equal(t, "g-1", u.Google)
	assert.Equal(t, "jane@example.com", u.Email)
	assert.Equal(t, "https://lh3.example.com/jane.jpg", u.Picture)

	again, err := f.svc.OAuthLogin(ctx, domain.ProviderGoogle, OAuthInput{Code: "google-jane"}, nil)
	require.NoError(t, err)
	assert.Equal(t, id, f.subject(t, again), "second login returns the linked account")
}

func TestOAuthEmailInUse(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "jane@example.com", "secret")

	_, err := f.svc.OAuthLogin(context.Background(), domain.ProviderGoogle, OAuthInput{Code: "google-jane"}, nil)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestOAuthWithoutEmail(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.OAuthLogin(context.Background(), domain.ProviderGoogle, OAuthInput{Code: "no-email"}, nil)
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestOAuthBadCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.OAuthLogin(ctx, domain.ProviderGoogle, OAuthInput{Code: "bogus"}, nil)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.svc.OAuthLogin(ctx, domain.ProviderGoogle, OAuthInput{}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalid)
}

func TestOAuthLinkAndUnlink(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.signup(t, "jane@example.com", "secret")

	_, err := f.svc.OAuthLogin(ctx, domain.ProviderGoogle, OAuthInput{Code: "google-other"}, &id)
	assert.ErrorIs(t, err, domain.ErrForbidden, "unverified accounts cannot link")

	f.verify(t)
	tok, err := f.svc.OAuthLogin(ctx, domain.ProviderGoogle, OAuthInput{Code: "google-other"}, &id)
	require.NoError(t, err)
	assert.Equal(t, id, f.subject(t, tok))

	u, _ := f.store.FindByID(ctx, id, domain.Projection{})
	assert.Equal(t, "g-2", u.Google)

	_, err = f.svc.OAuthLogin(ctx, domain.ProviderGoogle, OAuthInput{Code: "google-other"}, &id)
	assert.ErrorIs(t, err, domain.ErrConflict, "provider account already linked")

	assert.ErrorIs(t, f.svc.Unlink(ctx, id, "twitter"), domain.ErrBadRequest)
	require.NoError(t, f.svc.Unlink(ctx, id, "google"))
	u, _ = f.store.FindByID(ctx, id, domain.Projection{})
	assert.Empty(t, u.Google)
}

func TestEditAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.signup(t, "jane@example.com", "secret")
	name := "jane-doe"

	err := f.svc.EditAccount(ctx, id, AccountInput{Username: &name})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	f.verify(t)
	require.NoError(t, f.svc.EditAccount(ctx, id, AccountInput{Username: &name}))

	u, err := f.svc.Account(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "jane-doe", u.Username)

	bad := "not a url"
	reserved := "admin"
	err = f.svc.EditAccount(ctx, id, AccountInput{Username: &reserved, Picture: &bad})
	var derr *domain.Error
	require.ErrorAs(t, err, &derr)
	assert.Len(t, derr.Errors, 2)

	public, err := f.svc.UserByUsername(ctx, "Jane-Doe")
	require.NoError(t, err)
	assert.Equal(t, id, public.ID)

	_, err = f.svc.UserByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEditPasswordAndEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.signup(t, "jane@example.com", "secret")
	f.verify(t)

	assert.ErrorIs(t, f.svc.EditPassword(ctx, id, "wrong", "new-secret"), domain.ErrUnauthorized)
	assert.ErrorIs(t, f.svc.EditPassword(ctx, id, "", "x"), domain.ErrInvalid)
	require.NoError(t, f.svc.EditPassword(ctx, id, "secret", "new-secret"))

	assert.ErrorIs(t, f.svc.EditEmail(ctx, id, "new@example.com", "secret"), domain.ErrUnauthorized)
	require.NoError(t, f.svc.EditEmail(ctx, id, "New@Example.com", "new-secret"))

	_, err := f.svc.Login(ctx, "new@example.com", "new-secret")
	assert.NoError(t, err)
}

func TestDeleteAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.signup(t, "jane@example.com", "secret")

	assert.ErrorIs(t, f.svc.DeleteAccount(ctx, id, ""), domain.ErrInvalid)
	assert.ErrorIs(t, f.svc.DeleteAccount(ctx, id, "wrong"), domain.ErrUnauthorized)
	require.NoError(t, f.svc.DeleteAccount(ctx, id, "secret"))

	_, err := f.svc.Account(ctx, id)
	assert.ErrorIs(t, err, domain.ErrBadRequest)
	assert.Equal(t, 0, f.store.Count())
}

func TestMeIncludesBookmarks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.signup(t, "jane@example.com", "secret")

	u, err := f.svc.Me(ctx, id)
	require.NoError(t, err)
	assert.NotNil(t, u.Bookmarks)
	assert.Empty(t, u.Password)
}
