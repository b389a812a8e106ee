// Package account implements signup, login, verification, password reset,
// OAuth linking and profile management.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/MrSnakeDoc/bookmarkpack/internal/domain"
	"github.com/MrSnakeDoc/bookmarkpack/internal/logger"
	"github.com/MrSnakeDoc/bookmarkpack/internal/mailer"
	"github.com/MrSnakeDoc/bookmarkpack/internal/metrics"
	"github.com/MrSnakeDoc/bookmarkpack/internal/oauth"
)

const (
	MsgEmailInUse        = "Email already in use."
	MsgWrongCredentials  = "Wrong email and/or password."
	MsgWrongPassword     = "Wrong password."
	MsgNoSuchEmail       = "No account with that email address exists."
	MsgAlreadyVerified   = "Account already verified."
	MsgUserNotFound      = "User not found."
	MsgInvalidResetToken = "Password reset token is invalid or has expired."
	MsgMustVerify        = "You must verify your account first."
	MsgUnknownProvider   = "Unknown OAuth Provider."
	MsgProviderNoEmail   = "The provider did not share an email address."
	MsgInvalidPicture    = "Invalid picture URL."

	// ResetTokenTTL is how long a password reset link stays valid.
	ResetTokenTTL = time.Hour
)

// TokenIssuer creates session tokens for a user id.
type TokenIssuer interface {
	Issue(subject string) (string, error)
}

// Mailer builds and delivers the account emails. Implemented by *mailer.Mailer.
type Mailer interface {
	Send(ctx context.Context, msg mailer.Message) error
	Verify(to, token string) mailer.Message
	Reset(to, token string) mailer.Message
	ResetConfirm(to string) mailer.Message
}

// OAuth resolves an authorization code into a provider profile.
// Implemented by *oauth.Client.
type OAuth interface {
	Exchange(ctx context.Context, p domain.Provider, code, clientID, redirectURI string) (oauth.Profile, error)
}

type Options struct {
	BcryptCost int // defaults to bcrypt.DefaultCost
}

// Service runs account operations.
type Service struct {
	store  domain.UserStore
	tokens TokenIssuer
	mail   Mailer
	oauth  OAuth
	log    logger.Logger
	cost   int
	now    func() time.Time
}

func NewService(store domain.UserStore, tokens TokenIssuer, mail Mailer, oa OAuth, log logger.Logger, opts Options) *Service {
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		store:  store,
		tokens: tokens,
		mail:   mail,
		oauth:  oa,
		log:    log,
		cost:   opts.BcryptCost,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

type SignupInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username,omitempty"`
}

// Signup creates a password account and sends the verification link.
func (s *Service) Signup(ctx context.Context, in SignupInput) (string, error) {
	email := domain.NormalizeEmail(in.Email)

	var errs []domain.FieldError
	errs = append(errs, domain.ValidateEmail(email)...)
	errs = append(errs, domain.ValidatePassword("password", in.Password)...)
	if in.Username != "" {
		errs = append(errs, domain.ValidateUsername(in.Username)...)
	}
	if len(errs) > 0 {
		return "", domain.Invalid(errs...)
	}

	if _, err := s.store.FindByField(ctx, domain.FieldEmail, email, domain.Projection{}); err == nil {
		return "", domain.Conflict(MsgEmailInUse)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return "", err
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return "", err
	}

	u := &domain.User{
		Email:             email,
		Username:          in.Username,
		Password:          hash,
		VerificationToken: domain.NewToken(),
	}
	if err := s.store.Create(ctx, u); err != nil {
		return "", err
	}
	metrics.AccountEvents.WithLabelValues("signup").Inc()
	s.log.Info("account created", logger.String("user_id", u.ID.Hex()))

	// the account exists either way, the link can be requested again
	if err := s.mail.Send(ctx, s.mail.Verify(u.Email, u.VerificationToken)); err != nil {
		s.log.Warn("failed to send verification email",
			logger.String("user_id", u.ID.Hex()),
			logger.Error(err))
	}

	return s.tokens.Issue(u.ID.Hex())
}

// Login checks the credentials of a password account.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	var errs []domain.FieldError
	if strings.TrimSpace(email) == "" {
		errs = append(errs, domain.FieldError{Field: "email", Message: "Email is required."})
	}
	if password == "" {
		errs = append(errs, domain.FieldError{Field: "password", Message: "Password is required."})
	}
	if len(errs) > 0 {
		return "", domain.Invalid(errs...)
	}

	u, err := s.store.FindByField(ctx, domain.FieldEmail, domain.NormalizeEmail(email), domain.Projection{Password: true})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.AccountEvents.WithLabelValues("login_failed").Inc()
			return "", domain.Unauthorized(MsgWrongCredentials)
		}
		return "", err
	}
	if !checkPassword(u.Password, password) {
		metrics.AccountEvents.WithLabelValues("login_failed").Inc()
		return "", domain.Unauthorized(MsgWrongCredentials)
	}

	metrics.AccountEvents.WithLabelValues("login").Inc()
	return s.tokens.Issue(u.ID.Hex())
}

// RequestVerification issues a new verification link.
func (s *Service) RequestVerification(ctx context.Context, email string) error {
	u, err := s.byEmail(ctx, email, domain.Projection{Secrets: true})
	if err != nil {
		return err
	}
	if u.Verified {
		return domain.Conflict(MsgAlreadyVerified)
	}

	u.VerificationToken = domain.NewToken()
	if err := s.store.Save(ctx, u); err != nil {
		return err
	}
	return s.mail.Send(ctx, s.mail.Verify(u.Email, u.VerificationToken))
}

// ConfirmVerification marks the owner of token as verified.
func (s *Service) ConfirmVerification(ctx context.Context, token string) error {
	u, err := s.store.FindByField(ctx, domain.FieldVerificationToken, token, domain.Projection{Secrets: true})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.BadRequest(MsgUserNotFound)
		}
		return err
	}
	if u.Verified {
		return domain.BadRequest(MsgUserNotFound)
	}

	u.Verified = true
	u.VerificationToken = ""
	if err := s.store.Save(ctx, u); err != nil {
		return err
	}
	metrics.AccountEvents.WithLabelValues("verified").Inc()
	return nil
}

// RequestReset issues a password reset link valid for ResetTokenTTL.
func (s *Service) RequestReset(ctx context.Context, email string) error {
	u, err := s.byEmail(ctx, email, domain.Projection{Secrets: true})
	if err != nil {
		return err
	}

	u.ResetPasswordToken = domain.NewToken()
	u.ResetPasswordExpires = s.now().Add(ResetTokenTTL)
	if err := s.store.Save(ctx, u); err != nil {
		return err
	}
	return s.mail.Send(ctx, s.mail.Reset(u.Email, u.ResetPasswordToken))
}

// ConfirmReset sets a new password for the owner of a valid reset token.
func (s *Service) ConfirmReset(ctx context.Context, token, password string) error {
	if errs := domain.ValidatePassword("password", password); len(errs) > 0 {
		return domain.Invalid(errs...)
	}

	u, err := s.store.FindByField(ctx, domain.FieldResetToken, token, domain.ProjectionAll)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.BadRequest(MsgInvalidResetToken)
		}
		return err
	}
	if !u.ResetPasswordExpires.After(s.now()) {
		return domain.BadRequest(MsgInvalidResetToken)
	}

	hash, err := s.hash(password)
	if err != nil {
		return err
	}
	u.Password = hash
	u.ResetPasswordToken = ""
	u.ResetPasswordExpires = time.Time{}
	if err := s.store.Save(ctx, u); err != nil {
		return err
	}
	metrics.AccountEvents.WithLabelValues("reset").Inc()

	if err := s.mail.Send(ctx, s.mail.ResetConfirm(u.Email)); err != nil {
		s.log.Warn("failed to send reset confirmation", logger.String("user_id", u.ID.Hex()), logger.Error(err))
	}
	return nil
}

type OAuthInput struct {
	Code        string `json:"code"`
	ClientID    string `json:"clientId"`
	RedirectURI string `json:"redirectUri"`
}

// OAuthLogin signs in with a provider. With a caller the provider account is
// linked to it; otherwise the linked account is returned or a verified one is
// created.
func (s *Service) OAuthLogin(ctx context.Context, p domain.Provider, in OAuthInput, caller *primitive.ObjectID) (string, error) {
	if in.Code == "" {
		return "", domain.Invalid(domain.FieldError{Field: "code", Message: "Code is required."})
	}

	profile, err := s.oauth.Exchange(ctx, p, in.Code, in.ClientID, in.RedirectURI)
	if err != nil {
		return "", err
	}

	existing, err := s.store.FindByField(ctx, domain.ProviderField(p), profile.ID, domain.Projection{})
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return "", err
	}

	if caller != nil {
		if existing != nil {
			return "", domain.Conflict(fmt.Sprintf("There is already a %s account that belongs to you.", providerName(p)))
		}
		return s.link(ctx, *caller, p, profile)
	}

	if existing != nil {
		metrics.AccountEvents.WithLabelValues("oauth_login").Inc()
		return s.tokens.Issue(existing.ID.Hex())
	}

	email := domain.NormalizeEmail(profile.Email)
	if email == "" {
		return "", domain.BadRequest(MsgProviderNoEmail)
	}
	if _, err := s.store.FindByField(ctx, domain.FieldEmail, email, domain.Projection{}); err == nil {
		return "", domain.Conflict(MsgEmailInUse)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return "", err
	}

	u := &domain.User{Email: email, Picture: profile.Picture, Verified: true}
	u.SetProvider(p, profile.ID)
	if err := s.store.Create(ctx, u); err != nil {
		return "", err
	}
	metrics.AccountEvents.WithLabelValues("signup").Inc()
	s.log.Info("account created", logger.String("user_id", u.ID.Hex()), logger.String("provider", string(p)))

	return s.tokens.Issue(u.ID.Hex())
}

func (s *Service) link(ctx context.Context, caller primitive.ObjectID, p domain.Provider, profile oauth.Profile) (string, error) {
	u, err := s.store.FindByID(ctx, caller, domain.Projection{})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.BadRequest(MsgUserNotFound)
		}
		return "", err
	}
	if !u.Verified {
		return "", domain.Forbidden(MsgMustVerify)
	}

	u.SetProvider(p, profile.ID)
	if u.Picture == "" {
		u.Picture = profile.Picture
	}
	if err := s.store.Save(ctx, u); err != nil {
		return "", err
	}
	metrics.AccountEvents.WithLabelValues("oauth_link").Inc()
	return s.tokens.Issue(u.ID.Hex())
}

// Unlink removes the provider link of the caller.
func (s *Service) Unlink(ctx context.Context, caller primitive.ObjectID, provider string) error {
	p, ok := domain.ParseProvider(provider)
	if !ok {
		return domain.BadRequest(MsgUnknownProvider)
	}
	u, err := s.caller(ctx, caller, domain.Projection{})
	if err != nil {
		return err
	}
	u.SetProvider(p, "")
	return s.store.Save(ctx, u)
}

// Account returns the caller without bookmarks.
func (s *Service) Account(ctx context.Context, caller primitive.ObjectID) (*domain.User, error) {
	return s.caller(ctx, caller, domain.Projection{})
}

// Me returns the caller with bookmarks.
func (s *Service) Me(ctx context.Context, caller primitive.ObjectID) (*domain.User, error) {
	u, err := s.caller(ctx, caller, domain.Projection{Bookmarks: true})
	if err != nil {
		return nil, err
	}
	if u.Bookmarks == nil {
		u.Bookmarks = []domain.Bookmark{}
	}
	return u, nil
}

type AccountInput struct {
	Username *string `json:"username,omitempty"`
	Picture  *string `json:"picture,omitempty"`
}

// EditAccount changes the username and/or picture. Empty values are ignored.
func (s *Service) EditAccount(ctx context.Context, caller primitive.ObjectID, in AccountInput) error {
	var errs []domain.FieldError
	if in.Username != nil && *in.Username != "" {
		errs = append(errs, domain.ValidateUsername(*in.Username)...)
	}
	if in.Picture != nil && *in.Picture != "" && !domain.IsURL(*in.Picture) {
		errs = append(errs, domain.FieldError{Field: "picture", Value: *in.Picture, Message: MsgInvalidPicture})
	}
	if len(errs) > 0 {
		return domain.Invalid(errs...)
	}

	u, err := s.verifiedCaller(ctx, caller, domain.Projection{})
	if err != nil {
		return err
	}
	if in.Username != nil && *in.Username != "" {
		u.Username = *in.Username
	}
	if in.Picture != nil && *in.Picture != "" {
		u.Picture = *in.Picture
	}
	return s.store.Save(ctx, u)
}

// DeleteAccount removes the caller after checking the password.
func (s *Service) DeleteAccount(ctx context.Context, caller primitive.ObjectID, password string) error {
	if password == "" {
		return domain.Invalid(domain.FieldError{Field: "password", Message: "Password is required."})
	}

	u, err := s.caller(ctx, caller, domain.Projection{Password: true})
	if err != nil {
		return err
	}
	if !checkPassword(u.Password, password) {
		return domain.Unauthorized(MsgWrongPassword)
	}
	if err := s.store.Delete(ctx, u.ID); err != nil {
		return err
	}
	metrics.AccountEvents.WithLabelValues("deleted").Inc()
	s.log.Info("account deleted", logger.String("user_id", u.ID.Hex()))
	return nil
}

// EditPassword replaces the caller's password.
func (s *Service) EditPassword(ctx context.Context, caller primitive.ObjectID, oldPassword, newPassword string) error {
	var errs []domain.FieldError
	if oldPassword == "" {
		errs = append(errs, domain.FieldError{Field: "oldPassword", Message: "Current password is required."})
	}
	errs = append(errs, domain.ValidatePassword("newPassword", newPassword)...)
	if len(errs) > 0 {
		return domain.Invalid(errs...)
	}

	u, err := s.verifiedCaller(ctx, caller, domain.Projection{Password: true})
	if err != nil {
		return err
	}
	if !checkPassword(u.Password, oldPassword) {
		return domain.Unauthorized(MsgWrongPassword)
	}

	hash, err := s.hash(newPassword)
	if err != nil {
		return err
	}
	u.Password = hash
	return s.store.Save(ctx, u)
}

// EditEmail replaces the caller's email.
func (s *Service) EditEmail(ctx context.Context, caller primitive.ObjectID, email, password string) error {
	email = domain.NormalizeEmail(email)

	var errs []domain.FieldError
	errs = append(errs, domain.ValidateEmail(email)...)
	if password == "" {
		errs = append(errs, domain.FieldError{Field: "password", Message: "Password is required."})
	}
	if len(errs) > 0 {
		return domain.Invalid(errs...)
	}

	u, err := s.verifiedCaller(ctx, caller, domain.Projection{Password: true})
	if err != nil {
		return err
	}
	if !checkPassword(u.Password, password) {
		return domain.Unauthorized(MsgWrongPassword)
	}
	u.Email = email
	return s.store.Save(ctx, u)
}

// UserByUsername returns the public profile of a user.
func (s *Service) UserByUsername(ctx context.Context, username string) (domain.PublicUser, error) {
	u, err := s.store.FindByField(ctx, domain.FieldUsername, username, domain.Projection{Bookmarks: true})
	if err != nil {
		return domain.PublicUser{}, err
	}
	return u.Public(), nil
}

func (s *Service) byEmail(ctx context.Context, email string, p domain.Projection) (*domain.User, error) {
	email = domain.NormalizeEmail(email)
	if errs := domain.ValidateEmail(email); len(errs) > 0 {
		return nil, domain.Invalid(errs...)
	}
	u, err := s.store.FindByField(ctx, domain.FieldEmail, email, p)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.BadRequest(MsgNoSuchEmail)
	}
	return u, err
}

func (s *Service) caller(ctx context.Context, id primitive.ObjectID, p domain.Projection) (*domain.User, error) {
	u, err := s.store.FindByID(ctx, id, p)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.BadRequest(MsgUserNotFound)
	}
	return u, err
}

func (s *Service) verifiedCaller(ctx context.Context, id primitive.ObjectID, p domain.Projection) (*domain.User, error) {
	u, err := s.caller(ctx, id, p)
	if err != nil {
		return nil, err
	}
	if !u.Verified {
		return nil, domain.Forbidden(MsgMustVerify)
	}
	return u, nil
}

func (s *Service) hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

func checkPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func providerName(p domain.Provider) string {
	switch p {
	case domain.ProviderFacebook:
		return "Facebook"
	case domain.ProviderGoogle:
		return "Google"
	}
	return string(p)
}
