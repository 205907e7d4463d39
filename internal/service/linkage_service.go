package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/stemsi/siakad-backend/internal/model"
	"github.com/stemsi/siakad-backend/internal/repository"
)

// LinkageService pairs student Users with their Student records through the
// explicit students.user_id link.
type LinkageService struct {
	repo *repository.Repository
	auth *AuthService
	log  zerolog.Logger
}

// NewLinkageService creates a new LinkageService.
func NewLinkageService(repo *repository.Repository, auth *AuthService, log zerolog.Logger) *LinkageService {
	return &LinkageService{
		repo: repo,
		auth: auth,
		log:  log.With().Str("component", "linkage_service").Logger(),
	}
}

// maxCodeSuffix bounds the suffixed student ids tried when the plain one is taken.
const maxCodeSuffix = 20

// StudentCodeFor synthesizes the student id of an auto-created Student.
func StudentCodeFor(userID int) string {
	return fmt.Sprintf("STU%05d", userID)
}

// SplitFullName splits on the first whitespace run: the first token is the
// first name, the remainder the last name.
func SplitFullName(fullName string) (string, string) {
	name := strings.TrimSpace(fullName)
	i := strings.IndexFunc(name, unicode.IsSpace)
	if i < 0 {
		return name, ""
	}
	return name[:i], strings.TrimSpace(name[i:])
}

// ResolveStudent returns the Student paired with a student User. It looks up the
// explicit link first, then an unlinked Student with the same email (linking it),
// and otherwise creates one. Calling it again for the same User returns the same row.
func (s *LinkageService) ResolveStudent(ctx context.Context, caller model.Identity) (*model.Student, error) {
	if caller.Role != model.RoleStudent {
		return nil, ErrForbidden
	}

	u, err := s.repo.Users.GetByID(ctx, caller.UserID)
	if err != nil {
		return nil, classify(s.log, "get user", err)
	}

	st, err := s.repo.Students.GetByUserID(ctx, u.ID)
	if err == nil {
		return st, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, classify(s.log, "get linked student", err)
	}

	st, err = s.repo.Students.GetByEmail(ctx, u.Email)
	switch {
	case err == nil:
		if st.UserID != nil && *st.UserID != u.ID {
			s.log.Warn().Int("user_id", u.ID).Int("student_id", st.ID).Msg("email matches a student linked to another user")
			return nil, invalid("email", "email belongs to a student linked to another account")
		}
		if err := s.repo.Students.Link(ctx, st.ID, u.ID); err != nil {
			return nil, classify(s.log, "link student", err)
		}
		st.UserID = &u.ID
		s.log.Info().Int("user_id", u.ID).Int("student_id", st.ID).Msg("student linked by email")
		return st, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, classify(s.log, "get student by email", err)
	}

	first, last := SplitFullName(u.FullName)
	if first == "" {
		first = u.Username
	}
	// A manually created Student may already hold STU%05d; fall back to a suffixed id.
	for n := 0; n <= maxCodeSuffix; n++ {
		code := StudentCodeFor(u.ID)
		if n > 0 {
			code = fmt.Sprintf("%s-%d", code, n)
		}
		st = &model.Student{
			StudentCode: code,
			FirstName:   first,
			LastName:    last,
			Email:       u.Email,
			Phone:       u.Phone,
			UserID:      &u.ID,
		}
		err = s.repo.Students.Create(ctx, st)
		if err == nil {
			s.log.Info().Int("user_id", u.ID).Int("student_id", st.ID).Str("student_code", code).Msg("student auto-created")
			return st, nil
		}
		// A concurrent resolve for the same user may have won the insert.
		if existing, lookupErr := s.repo.Students.GetByUserID(ctx, u.ID); lookupErr == nil {
			return existing, nil
		}
		if !errors.Is(err, repository.ErrDuplicateStudentCode) {
			break
		}
	}
	return nil, classify(s.log, "create student", err)
}

// SyncOptions tunes SyncAll.
type SyncOptions struct {
	// NameFallback matches an unlinked Student by first name when neither the
	// link nor the email finds one. Only a single unambiguous candidate is used.
	NameFallback bool
}

// SyncResult counts the outcome of SyncAll.
type SyncResult struct {
	Synced    int `json:"synced"`
	Failed    int `json:"failed"`
	Unmatched int `json:"unmatched"`
}

// SyncAll overwrites the contact fields of every student User's Student with the
// User's values. Last writer wins; conflicts are not detected.
func (s *LinkageService) SyncAll(ctx context.Context, opts SyncOptions) (SyncResult, error) {
	var result SyncResult

	users, err := s.repo.Users.ListByRole(ctx, model.RoleStudent)
	if err != nil {
		return result, classify(s.log, "list student users", err)
	}

	for i := range users {
		u := &users[i]
		st, err := s.match(ctx, u, opts)
		if err != nil {
			s.log.Error().Err(err).Int("user_id", u.ID).Msg("sync lookup failed")
			result.Failed++
			continue
		}
		if st == nil {
			result.Unmatched++
			continue
		}

		// The body may run more than once; each attempt starts from the matched row.
		err = s.repo.WithTx(ctx, func(r *repository.Repository) error {
			next := *st
			if next.UserID == nil {
				if err := r.Students.Link(ctx, next.ID, u.ID); err != nil {
					return err
				}
				next.UserID = &u.ID
			}
			next.Email = u.Email
			next.Phone = u.Phone
			if first, last := SplitFullName(u.FullName); first != "" {
				next.FirstName, next.LastName = first, last
			}
			return r.Students.Update(ctx, &next)
		})
		if err != nil {
			s.log.Warn().Err(err).Int("user_id", u.ID).Int("student_id", st.ID).Msg("sync failed")
			result.Failed++
			continue
		}
		result.Synced++
	}

	s.log.Info().Int("synced", result.Synced).Int("failed", result.Failed).Int("unmatched", result.Unmatched).Msg("user/student sync finished")
	return result, nil
}

// match finds the Student of u, or nil when there is none.
func (s *LinkageService) match(ctx context.Context, u *model.User, opts SyncOptions) (*model.Student, error) {
	st, err := s.repo.Students.GetByUserID(ctx, u.ID)
	if err == nil {
		return st, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	st, err = s.repo.Students.GetByEmail(ctx, u.Email)
	if err == nil {
		if st.UserID != nil {
			return nil, nil
		}
		return st, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	if !opts.NameFallback {
		return nil, nil
	}
	first, _ := SplitFullName(u.FullName)
	if first == "" {
		return nil, nil
	}
	candidates, err := s.repo.Students.ListUnlinkedByFirstName(ctx, first)
	if err != nil {
		return nil, err
	}
	if len(candidates) != 1 {
		return nil, nil
	}
	return &candidates[0], nil
}

// AccountResult counts the outcome of CreateAccountsForStudents.
type AccountResult struct {
	Created int `json:"created"`
	Linked  int `json:"linked"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// CreateAccountsForStudents gives every unlinked Student a student User. The
// username is the student id when usable, and the initial password is the
// student id. A Student whose email already belongs to an unlinked student User
// is linked to it instead.
func (s *LinkageService) CreateAccountsForStudents(ctx context.Context) (AccountResult, error) {
	var result AccountResult

	students, err := s.repo.Students.ListAll(ctx)
	if err != nil {
		return result, classify(s.log, "list students", err)
	}

	for i := range students {
		st := &students[i]
		if st.UserID != nil {
			result.Skipped++
			continue
		}

		outcome, err := s.createAccount(ctx, st)
		if err != nil {
			s.log.Warn().Err(err).Int("student_id", st.ID).Msg("account creation failed")
			result.Failed++
			continue
		}
		switch outcome {
		case accountCreated:
			result.Created++
		case accountLinked:
			result.Linked++
		default:
			result.Skipped++
		}
	}

	s.log.Info().Int("created", result.Created).Int("linked", result.Linked).Int("skipped", result.Skipped).Int("failed", result.Failed).Msg("student accounts processed")
	return result, nil
}

type accountOutcome int

const (
	accountSkipped accountOutcome = iota
	accountCreated
	accountLinked
)

func (s *LinkageService) createAccount(ctx context.Context, st *model.Student) (accountOutcome, error) {
	existing, err := s.repo.Users.GetByEmail(ctx, st.Email)
	switch {
	case err == nil:
		if existing.Role != model.RoleStudent {
			return accountSkipped, nil
		}
		if _, err := s.repo.Students.GetByUserID(ctx, existing.ID); err == nil {
			return accountSkipped, nil
		} else if !errors.Is(err, repository.ErrNotFound) {
			return accountSkipped, err
		}
		if err := s.repo.Students.Link(ctx, st.ID, existing.ID); err != nil {
			return accountSkipped, err
		}
		return accountLinked, nil
	case !errors.Is(err, repository.ErrNotFound):
		return accountSkipped, err
	}

	username, err := s.pickUsername(ctx, st)
	if err != nil {
		return accountSkipped, err
	}
	hash, err := s.auth.HashPassword(st.StudentCode)
	if err != nil {
		return accountSkipped, err
	}

	u := &model.User{
		Username:     username,
		Email:        st.Email,
		PasswordHash: hash,
		FullName:     st.FullName(),
		Phone:        st.Phone,
		Role:         model.RoleStudent,
		IsActive:     true,
	}
	err = s.repo.WithTx(ctx, func(r *repository.Repository) error {
		if err := r.Users.Create(ctx, u); err != nil {
			return err
		}
		return r.Students.Link(ctx, st.ID, u.ID)
	})
	if err != nil {
		return accountSkipped, err
	}
	st.UserID = &u.ID
	return accountCreated, nil
}

// pickUsername tries the student id, then the email's local part, then the
// name with a numeric suffix.
func (s *LinkageService) pickUsername(ctx context.Context, st *model.Student) (string, error) {
	local, _, _ := strings.Cut(st.Email, "@")
	candidates := []string{st.StudentCode, local}

	base := strings.ToLower(strings.ReplaceAll(st.FirstName+st.LastName, " ", ""))
	if utf8.RuneCountInString(base) < 4 {
		base = "student" + base
	}
	for n := 1; n <= 50; n++ {
		candidates = append(candidates, fmt.Sprintf("%s%d", base, n))
	}

	for _, c := range candidates {
		if utf8.RuneCountInString(c) < 4 {
			continue
		}
		taken, err := s.repo.Users.UsernameExists(ctx, c, 0)
		if err != nil {
			return "", err
		}
		if !taken {
			return c, nil
		}
	}
	return "", fmt.Errorf("no free username for student %d", st.ID)
}
