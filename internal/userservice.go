package internal

import (
	"net/http"
	"strings"

	"github.com/bebevio27-prog/calendar/internal/ctxhelper"
	"github.com/bebevio27-prog/calendar/internal/models"
	"github.com/bebevio27-prog/calendar/internal/repos"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

// UserService provides access to the logged-in user's profile
type UserService interface {
	// Profile returns the profile of the logged-in user
	Profile(ctx context.Context) (*models.User, error)
	// UpdateProfile applies a partial update to the logged-in user's profile
	UpdateProfile(ctx context.Context, patch ProfilePatch) (*models.User, error)
}

// -- UserService implementation ---------------------------------------------------------------------------------------

type userService struct {
	users  repos.UserRepo
	logger *logrus.Entry
}

// NewUserService creates a new user service instance
func NewUserService(ur repos.UserRepo, logger *logrus.Entry) UserService {
	return &userService{
		users:  ur,
		logger: logger,
	}
}

// Profile returns the profile of the logged-in user
func (s *userService) Profile(ctx context.Context) (*models.User, error) {
	u := ctxhelper.User(ctx)
	if u == nil {
		return nil, MakeError(http.StatusForbidden, ErrCodeNotLoggedIn, "This function needs a logged-in user")
	}
	current, err := s.users.GetByID(u.ID)
	if err != nil {
		if err == repos.ErrEntityNotExisting {
			return nil, MakeError(http.StatusNotFound, ErrCodeUserNotFound, "User does not exist")
		}
		return nil, MakeErrorWithData(
			http.StatusInternalServerError,
			ErrCodeRepoError,
			"Error while retrieving user profile",
			err,
		)
	}
	return current, nil
}

// UpdateProfile applies a partial update to the logged-in user's profile
func (s *userService) UpdateProfile(ctx context.Context, patch ProfilePatch) (*models.User, error) {
	current, err := s.Profile(ctx)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		if name := strings.TrimSpace(*patch.Name); name != "" {
			current.Name = name
		}
	}
	if err := s.users.Update(current); err != nil {
		return nil, MakeErrorWithData(
			http.StatusInternalServerError,
			ErrCodeRepoError,
			"Error while updating user profile",
			err,
		)
	}
	return current, nil
}
