package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/medicare/emr/internal/platform/auth"
)

var validRoles = map[string]bool{
	auth.RoleAdmin: true, auth.RoleDoctor: true, auth.RoleNurse: true,
	auth.RolePharmacist: true, auth.RolePatient: true,
}

type Service struct {
	users UserRepository
}

func NewService(users UserRepository) *Service {
	return &Service{users: users}
}

func (s *Service) CreateUser(ctx context.Context, u *User) error {
	u.Subject = strings.TrimSpace(u.Subject)
	if u.Subject == "" {
		return fmt.Errorf("subject is required")
	}
	if err := clean(u); err != nil {
		return err
	}
	u.IsActive = true
	return s.users.Create(ctx, u)
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *Service) GetUserBySubject(ctx context.Context, subject string) (*User, error) {
	return s.users.GetBySubject(ctx, subject)
}

// UpdateUser edits profile and role fields. The subject and active flag are
// kept from the stored account.
func (s *Service) UpdateUser(ctx context.Context, u *User) error {
	existing, err := s.users.GetByID(ctx, u.ID)
	if err != nil {
		return err
	}
	u.Subject = existing.Subject
	u.IsActive = existing.IsActive
	u.CreatedAt = existing.CreatedAt
	if err := clean(u); err != nil {
		return err
	}
	return s.users.Update(ctx, u)
}

func (s *Service) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return s.users.Delete(ctx, id)
}

func (s *Service) ListUsers(ctx context.Context, role string, limit, offset int) ([]*User, int, error) {
	if role != "" && !validRoles[role] {
		return nil, 0, fmt.Errorf("invalid role: %q", role)
	}
	return s.users.List(ctx, role, limit, offset)
}

func (s *Service) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	if _, err := s.users.GetByID(ctx, id); err != nil {
		return err
	}
	return s.users.SetActive(ctx, id, active)
}

// CurrentUser resolves the caller. A caller without a stored account still
// gets their token identity back.
func (s *Service) CurrentUser(ctx context.Context) (*CurrentUser, error) {
	subject := auth.UserIDFromContext(ctx)
	if subject == "" {
		return nil, fmt.Errorf("no authenticated user")
	}
	cu := &CurrentUser{UserID: subject, Roles: auth.RolesFromContext(ctx)}
	if id, ok := auth.PatientIDFromContext(ctx); ok {
		cu.PatientID = &id
	}
	if u, err := s.users.GetBySubject(ctx, subject); err == nil {
		cu.Account = u
		if cu.PatientID == nil {
			cu.PatientID = u.PatientID
		}
	}
	return cu, nil
}

func clean(u *User) error {
	u.Email = strings.TrimSpace(u.Email)
	u.DisplayName = strings.TrimSpace(u.DisplayName)
	if u.Email == "" || !strings.Contains(u.Email, "@") {
		return fmt.Errorf("a valid email is required")
	}
	if u.DisplayName == "" {
		return fmt.Errorf("display_name is required")
	}
	if !validRoles[u.Role] {
		return fmt.Errorf("invalid role: %q", u.Role)
	}
	if u.Role == auth.RolePatient && u.PatientID == nil {
		return fmt.Errorf("patient accounts require patient_id")
	}
	if u.Role != auth.RolePatient {
		u.PatientID = nil
	}
	return nil
}
