package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Abdurahmanit/merchsy/internal/marketplace/domain"
	"github.com/Abdurahmanit/merchsy/internal/marketplace/query"
	"github.com/Abdurahmanit/merchsy/internal/platform/logger"

	"go.uber.org/zap"
)

const minPasswordLength = 6

var usernamePattern = regexp.MustCompile(`^[a-z0-9_.]{3,30}$`)

// AccountUsecase implements registration, login, profiles and the follow graph.
type AccountUsecase struct {
	users     domain.UserRepository
	auth      domain.AuthService
	presenter *Presenter
	mailer    domain.Mailer
	events    domain.EventPublisher
	pageSize  int
	logger    *logger.Logger
}

// NewAccountUsecase wires the account flows. mailer and events may be nil.
func NewAccountUsecase(users domain.UserRepository, auth domain.AuthService, presenter *Presenter, mailer domain.Mailer, events domain.EventPublisher, pageSize int, log *logger.Logger) *AccountUsecase {
	if pageSize <= 0 {
		pageSize = query.PageSize
	}
	return &AccountUsecase{
		users:     users,
		auth:      auth,
		presenter: presenter,
		mailer:    mailer,
		events:    events,
		pageSize:  pageSize,
		logger:    log.Named("AccountUsecase"),
	}
}

type RegisterInput struct {
	Name     string
	Username string
	Email    string
	Password string
	Bio      string
}

func (in *RegisterInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Username = strings.ToLower(strings.TrimSpace(in.Username))
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Bio = strings.TrimSpace(in.Bio)

	switch {
	case in.Name == "":
		return fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	case !usernamePattern.MatchString(in.Username):
		return fmt.Errorf("%w: username must be 3-30 characters of letters, digits, '_' or '.'", domain.ErrInvalidInput)
	case utf8.RuneCountInString(in.Password) < minPasswordLength:
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, minPasswordLength)
	case utf8.RuneCountInString(in.Bio) > domain.MaxBioLength:
		return fmt.Errorf("%w: bio must be at most %d characters", domain.ErrInvalidInput, domain.MaxBioLength)
	}
	if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		return fmt.Errorf("%w: email is invalid", domain.ErrInvalidInput)
	}
	return nil
}

// Register creates an account and returns its profile and a session token.
func (uc *AccountUsecase) Register(ctx context.Context, in RegisterInput) (*domain.Profile, string, error) {
	if err := in.normalize(); err != nil {
		return nil, "", err
	}
	uc.logger.Info("Registering account", zap.String("username", in.Username))

	hash, err := uc.auth.HashPassword(in.Password)
	if err != nil {
		return nil, "", err
	}
	user := &domain.User{
		Name:         in.Name,
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Bio:          in.Bio,
		CreatedAt:    time.Now().UTC(),
	}
	if err := uc.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateAccount) {
			return nil, "", err
		}
		uc.logger.Error("Failed to create account", zap.Error(err))
		return nil, "", storeError("create account", err)
	}

	token, err := uc.auth.IssueToken(user.ID)
	if err != nil {
		return nil, "", err
	}

	if uc.mailer != nil {
		if err := uc.mailer.SendWelcome(ctx, user.Email, user.Name); err != nil {
			uc.logger.Warn("Welcome email not sent", zap.String("user_id", user.ID.Hex()), zap.Error(err))
		}
	}
	publish(ctx, uc.events, uc.logger, SubjectAccountRegistered, map[string]any{
		"user_id":  user.ID.Hex(),
		"username": user.Username,
	})

	return uc.presenter.Profiles(ctx, []*domain.User{user})[0], token, nil
}

// Login accepts a username or an email. Unknown accounts and wrong passwords
// are indistinguishable to the caller.
func (uc *AccountUsecase) Login(ctx context.Context, login, password string) (string, error) {
	login = strings.ToLower(strings.TrimSpace(login))
	if login == "" || password == "" {
		return "", fmt.Errorf("%w: login and password are required", domain.ErrInvalidInput)
	}

	user, err := uc.users.FindByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.ErrInvalidCredentials
		}
		return "", storeError("find account", err)
	}
	if err := uc.auth.VerifyCredentials(user.PasswordHash, password); err != nil {
		uc.logger.Info("Rejected login", zap.String("user_id", user.ID.Hex()))
		return "", domain.ErrInvalidCredentials
	}
	return uc.auth.IssueToken(user.ID)
}

func (uc *AccountUsecase) Profile(ctx context.Context, id domain.ID) (*domain.Profile, error) {
	user, err := uc.users.FindByID(ctx, id)
	if err != nil {
		return nil, storeError("get profile", err)
	}
	return uc.presenter.Profiles(ctx, []*domain.User{user})[0], nil
}

// Search matches term against usernames and display names. A blank term
// lists every account.
func (uc *AccountUsecase) Search(ctx context.Context, term, rawCursor string) (*domain.AccountPage, error) {
	cursor, err := query.ParseCursor(rawCursor)
	if err != nil {
		return nil, err
	}
	pred := query.TextSearch(domain.NormalizeQuery(term), query.FieldUsername, query.FieldName)

	users, err := uc.users.Find(ctx, query.Page(pred, cursor, uc.pageSize))
	if err != nil {
		return nil, storeError("search accounts", err)
	}
	total, err := uc.users.Count(ctx, pred)
	if err != nil {
		return nil, storeError("count accounts", err)
	}
	return &domain.AccountPage{Users: uc.presenter.Profiles(ctx, users), ResultCount: total}, nil
}

func (uc *AccountUsecase) Follow(ctx context.Context, viewerID, targetID domain.ID) error {
	viewer, err := uc.edgeEnds(ctx, viewerID, targetID)
	if err != nil {
		return err
	}
	if domain.ContainsID(viewer.Following, targetID) {
		return domain.ErrAlreadyFollowing
	}
	if err := uc.users.Follow(ctx, viewerID, targetID); err != nil {
		return storeError("follow", err)
	}
	publish(ctx, uc.events, uc.logger, SubjectAccountFollowed, map[string]any{
		"follower_id": viewerID.Hex(),
		"target_id":   targetID.Hex(),
	})
	return nil
}

func (uc *AccountUsecase) Unfollow(ctx context.Context, viewerID, targetID domain.ID) error {
	viewer, err := uc.edgeEnds(ctx, viewerID, targetID)
	if err != nil {
		return err
	}
	if !domain.ContainsID(viewer.Following, targetID) {
		return domain.ErrNotFollowing
	}
	if err := uc.users.Unfollow(ctx, viewerID, targetID); err != nil {
		return storeError("unfollow", err)
	}
	publish(ctx, uc.events, uc.logger, SubjectAccountUnfollowed, map[string]any{
		"follower_id": viewerID.Hex(),
		"target_id":   targetID.Hex(),
	})
	return nil
}

// edgeEnds validates a follow edge and returns the viewer.
func (uc *AccountUsecase) edgeEnds(ctx context.Context, viewerID, targetID domain.ID) (*domain.User, error) {
	if viewerID.IsZero() {
		return nil, domain.ErrUnauthenticated
	}
	if viewerID == targetID {
		return nil, fmt.Errorf("%w: cannot follow yourself", domain.ErrInvalidInput)
	}
	if _, err := uc.users.FindByID(ctx, targetID); err != nil {
		return nil, storeError("load target", err)
	}
	viewer, err := uc.users.FindByID(ctx, viewerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, storeError("load viewer", err)
	}
	return viewer, nil
}
