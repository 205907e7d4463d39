package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stemsi/siakad-backend/internal/model"
	"github.com/stemsi/siakad-backend/internal/repository"
	"github.com/stemsi/siakad-backend/internal/response"
	"github.com/stemsi/siakad-backend/internal/validator"
)

// UserService manages login identities and their administrator records.
type UserService struct {
	repo *repository.Repository
	auth *AuthService
	log  zerolog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(repo *repository.Repository, auth *AuthService, log zerolog.Logger) *UserService {
	return &UserService{
		repo: repo,
		auth: auth,
		log:  log.With().Str("component", "user_service").Logger(),
	}
}

// List retrieves users with search, role filter and pagination.
func (s *UserService) List(ctx context.Context, filter model.UserFilter, p, perPage int) ([]model.User, *response.Pagination, error) {
	p, perPage, limit, offset := page(p, perPage)
	users, total, err := s.repo.Users.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, nil, classify(s.log, "list users", err)
	}
	return users, newPagination(p, perPage, total), nil
}

// Get retrieves a user and, for admins, its administrator record.
func (s *UserService) Get(ctx context.Context, id int) (*model.User, *model.Administrator, error) {
	u, err := s.repo.Users.GetByID(ctx, id)
	if err != nil {
		return nil, nil, classify(s.log, "get user", err)
	}
	if !u.IsAdmin() {
		return u, nil, nil
	}
	a, err := s.repo.Administrators.GetByUserID(ctx, id)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, nil, classify(s.log, "get administrator", err)
	}
	return u, a, nil
}

// validate runs the field rules and the uniqueness checks of in. excludeID is
// the user being updated, or 0 on create.
func (s *UserService) validate(ctx context.Context, in *model.UserInput, excludeID int) (validator.Errors, error) {
	errs := validator.Check(in)
	if excludeID == 0 && in.Password == "" {
		errs.Add("password", "password is required")
	}

	if _, bad := errs["username"]; !bad {
		taken, err := s.repo.Users.UsernameExists(ctx, in.Username, excludeID)
		if err != nil {
			return nil, err
		}
		if taken {
			errs.Add("username", "username is already taken")
		}
	}
	if _, bad := errs["email"]; !bad {
		taken, err := s.repo.Users.EmailExists(ctx, in.Email, excludeID)
		if err != nil {
			return nil, err
		}
		if taken {
			errs.Add("email", "email is already registered")
		}
	}
	if in.Role == model.RoleAdmin && in.AdminCode != "" {
		taken, err := s.repo.Administrators.CodeExists(ctx, in.AdminCode, excludeID)
		if err != nil {
			return nil, err
		}
		if taken {
			errs.Add("admin_code", "admin code is already taken")
		}
	}
	return errs, nil
}

// Create validates and inserts a user. Admin users get their Administrator
// record in the same transaction.
func (s *UserService) Create(ctx context.Context, in model.UserInput) (*model.User, error) {
	in.Normalize()
	errs, err := s.validate(ctx, &in, 0)
	if err != nil {
		return nil, classify(s.log, "validate user", err)
	}
	if err := validationResult(errs); err != nil {
		return nil, err
	}

	hash, err := s.auth.HashPassword(in.Password)
	if err != nil {
		return nil, classify(s.log, "hash password", err)
	}

	u := &model.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		FullName:     in.FullName,
		Phone:        in.Phone,
		Role:         in.Role,
		IsActive:     in.IsActive == nil || *in.IsActive,
	}

	err = s.repo.WithTx(ctx, func(r *repository.Repository) error {
		if err := r.Users.Create(ctx, u); err != nil {
			return err
		}
		if u.IsAdmin() {
			return createAdministrator(ctx, r, u.ID, in.AdminCode, in.Department)
		}
		return nil
	})
	if err != nil {
		return nil, classify(s.log, "create user", err)
	}

	s.log.Info().Int("user_id", u.ID).Str("role", string(u.Role)).Msg("user created")
	return u, nil
}

func createAdministrator(ctx context.Context, r *repository.Repository, userID int, code, department string) error {
	if code == "" {
		code = fmt.Sprintf("ADMIN%03d", userID)
	}
	return r.Administrators.Create(ctx, &model.Administrator{
		UserID:     userID,
		AdminCode:  code,
		Department: department,
	})
}

// Update modifies a user. An empty password keeps the current one. Changing the
// role to admin creates the Administrator record; changing it away removes it.
func (s *UserService) Update(ctx context.Context, id int, in model.UserInput) (*model.User, error) {
	u, err := s.repo.Users.GetByID(ctx, id)
	if err != nil {
		return nil, classify(s.log, "get user", err)
	}

	in.Normalize()
	errs, err := s.validate(ctx, &in, id)
	if err != nil {
		return nil, classify(s.log, "validate user", err)
	}
	if err := validationResult(errs); err != nil {
		return nil, err
	}

	var hash string
	if in.Password != "" {
		if hash, err = s.auth.HashPassword(in.Password); err != nil {
			return nil, classify(s.log, "hash password", err)
		}
	}

	wasAdmin := u.IsAdmin()
	oldRole, wasActive := u.Role, u.IsActive
	u.Username = in.Username
	u.Email = in.Email
	u.FullName = in.FullName
	u.Phone = in.Phone
	u.Role = in.Role
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}

	err = s.repo.WithTx(ctx, func(r *repository.Repository) error {
		if err := r.Users.Update(ctx, u); err != nil {
			return err
		}
		if hash != "" {
			if err := r.Users.UpdatePassword(ctx, u.ID, hash); err != nil {
				return err
			}
		}

		switch {
		case u.IsAdmin() && !wasAdmin:
			return createAdministrator(ctx, r, u.ID, in.AdminCode, in.Department)
		case u.IsAdmin():
			a, err := r.Administrators.GetByUserID(ctx, u.ID)
			if errors.Is(err, repository.ErrNotFound) {
				return createAdministrator(ctx, r, u.ID, in.AdminCode, in.Department)
			}
			if err != nil {
				return err
			}
			if in.AdminCode != "" {
				a.AdminCode = in.AdminCode
			}
			a.Department = in.Department
			return r.Administrators.Update(ctx, a)
		case wasAdmin:
			return r.Administrators.DeleteByUserID(ctx, u.ID)
		}
		return nil
	})
	if err != nil {
		return nil, classify(s.log, "update user", err)
	}

	if u.Role != oldRole || (wasActive && !u.IsActive) || hash != "" {
		if err := s.revokeSession(ctx, u.ID, "user updated"); err != nil {
			return nil, err
		}
	}
	return u, nil
}

// revokeSession ends the user's session so the next request has to log in again
// and picks up the stored role and active flag.
func (s *UserService) revokeSession(ctx context.Context, userID int, reason string) error {
	if err := s.auth.RevokeSession(ctx, userID); err != nil {
		return classify(s.log, "revoke session", err)
	}
	s.log.Info().Int("user_id", userID).Str("reason", reason).Msg("session revoked")
	return nil
}

// Delete removes a user and ends their session. The caller cannot delete their
// own account.
func (s *UserService) Delete(ctx context.Context, caller model.Identity, id int) error {
	if caller.UserID == id {
		return ErrForbidden
	}
	if err := s.repo.Users.Delete(ctx, id); err != nil {
		return classify(s.log, "delete user", err)
	}
	s.log.Info().Int("user_id", id).Int("by", caller.UserID).Msg("user deleted")
	return s.revokeSession(ctx, id, "user deleted")
}

// ActivateInactive activates every inactive user and returns how many changed.
func (s *UserService) ActivateInactive(ctx context.Context) (int, error) {
	n, err := s.repo.Users.ActivateInactive(ctx)
	if err != nil {
		return 0, classify(s.log, "activate users", err)
	}
	return n, nil
}

// Register creates a student account through public self-registration.
func (s *UserService) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	in := req.UserInput
	in.Role = model.RoleStudent
	in.IsActive = nil
	in.AdminCode = ""
	in.Department = ""

	if req.ConfirmPassword != in.Password {
		in.Normalize()
		errs, err := s.validate(ctx, &in, 0)
		if err != nil {
			return nil, classify(s.log, "validate user", err)
		}
		errs.Add("confirm_password", "passwords do not match")
		return nil, &ValidationError{Fields: errs}
	}
	return s.Create(ctx, in)
}

// Login authenticates by username or email and issues a session token.
func (s *UserService) Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error) {
	u, err := s.repo.Users.GetByLogin(ctx, req.Login)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, classify(s.log, "login lookup", err)
	}
	if err := s.auth.CheckPassword(u.PasswordHash, req.Password); err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrAccountInactive
	}

	token, err := s.auth.GenerateToken(ctx, u)
	if err != nil {
		return nil, classify(s.log, "generate token", err)
	}
	if err := s.repo.Users.TouchLastLogin(ctx, u.ID); err != nil {
		s.log.Warn().Err(err).Int("user_id", u.ID).Msg("failed to record last login")
	}

	return &model.LoginResponse{Token: token, User: model.NewUserView(u)}, nil
}

// Logout revokes the caller's active session.
func (s *UserService) Logout(ctx context.Context, caller model.Identity) error {
	if err := s.auth.RevokeSession(ctx, caller.UserID); err != nil {
		return classify(s.log, "revoke session", err)
	}
	return nil
}

// ChangePassword replaces the caller's password after verifying the old one.
// The caller has to log in again afterwards.
func (s *UserService) ChangePassword(ctx context.Context, caller model.Identity, req model.ChangePasswordRequest) error {
	u, err := s.repo.Users.GetByID(ctx, caller.UserID)
	if err != nil {
		return classify(s.log, "get user", err)
	}
	if err := s.auth.CheckPassword(u.PasswordHash, req.OldPassword); err != nil {
		return invalid("old_password", "current password is incorrect")
	}

	hash, err := s.auth.HashPassword(req.NewPassword)
	if err != nil {
		return classify(s.log, "hash password", err)
	}
	if err := s.repo.Users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return classify(s.log, "update password", err)
	}
	return s.revokeSession(ctx, u.ID, "password changed")
}
