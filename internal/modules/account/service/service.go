package account

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/url"
	"strings"

	"anoa.com/rewardshub/internal/entity"
	accountDto "anoa.com/rewardshub/internal/modules/account/dto"
	userRepo "anoa.com/rewardshub/internal/modules/account/repository"
	"anoa.com/rewardshub/pkg/apperror"
	"anoa.com/rewardshub/pkg/database"
	"github.com/google/uuid"
)

const (
	referralCodeLength   = 8
	referralCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	maxCodeAttempts      = 5
)

type AccountService interface {
	// EnsureAccount returns the local user for an authenticated identity, creating it on
	// first sight with a fresh referral code.
	EnsureAccount(ctx context.Context, userID uuid.UUID, email string) (*entity.User, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*entity.User, error)
	FindByReferralCode(ctx context.Context, code string) (*entity.User, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*accountDto.ProfileResponse, error)
	ReferralLink(code string) string
}

type accountService struct {
	repo    userRepo.UserRepository
	siteURL string
	newCode func() (string, error)
}

func NewAccountService(repo userRepo.UserRepository, siteURL string) AccountService {
	return &accountService{
		repo:    repo,
		siteURL: strings.TrimRight(siteURL, "/"),
		newCode: GenerateReferralCode,
	}
}

// GenerateReferralCode returns a random code without look-alike characters (0/O, 1/I).
func GenerateReferralCode() (string, error) {
	var sb strings.Builder
	max := big.NewInt(int64(len(referralCodeAlphabet)))
	for i := 0; i < referralCodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(referralCodeAlphabet[n.Int64()])
	}
	return sb.String(), nil
}

// NormalizeReferralCode uppercases and trims user input.
func NormalizeReferralCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (s *accountService) EnsureAccount(ctx context.Context, userID uuid.UUID, email string) (*entity.User, error) {
	if userID == uuid.Nil {
		return nil, apperror.ErrNotAuthenticated
	}

	user, err := s.repo.FindByID(ctx, userID)
	switch {
	case err == nil:
		return s.backfill(ctx, user, email)
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, err
	}

	role, err := s.repo.FindRoleByName(ctx, entity.RoleMember)
	if err != nil {
		return nil, fmt.Errorf("member role: %w", err)
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return nil, err
		}

		user := &entity.User{
			ID:           userID,
			Email:        email,
			DisplayName:  displayNameFromEmail(email),
			ReferralCode: &code,
			RoleID:       &role.ID,
		}
		err = s.repo.Create(ctx, user)
		if err == nil {
			slog.Info("account created", "user_id", userID)
			user.Role = *role
			return user, nil
		}
		if !database.IsUniqueViolation(err) {
			return nil, err
		}

		// Either a concurrent request created this user or the code collided.
		if existing, findErr := s.repo.FindByID(ctx, userID); findErr == nil {
			return s.backfill(ctx, existing, email)
		}
	}

	return nil, fmt.Errorf("could not allocate a unique referral code")
}

func (s *accountService) backfill(ctx context.Context, user *entity.User, email string) (*entity.User, error) {
	if email != "" && user.Email != email {
		if err := s.repo.UpdateEmail(ctx, user.ID, email); err != nil {
			return nil, err
		}
		user.Email = email
	}
	if user.ReferralCode != nil {
		return user, nil
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return nil, err
		}
		assigned, err := s.repo.AssignReferralCode(ctx, user.ID, code)
		if err != nil {
			if database.IsUniqueViolation(err) {
				continue
			}
			return nil, err
		}
		if !assigned {
			// Another request assigned one first.
			return s.repo.FindByID(ctx, user.ID)
		}
		user.ReferralCode = &code
		return user, nil
	}

	return nil, fmt.Errorf("could not allocate a unique referral code")
}

func (s *accountService) GetUser(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	return s.repo.FindByID(ctx, userID)
}

func (s *accountService) FindByReferralCode(ctx context.Context, code string) (*entity.User, error) {
	return s.repo.FindByReferralCode(ctx, NormalizeReferralCode(code))
}

func (s *accountService) GetProfile(ctx context.Context, userID uuid.UUID) (*accountDto.ProfileResponse, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile := &accountDto.ProfileResponse{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        user.Role.Name,
	}
	if user.ReferralCode != nil {
		profile.ReferralCode = *user.ReferralCode
		profile.ReferralLink = s.ReferralLink(*user.ReferralCode)
	}
	return profile, nil
}

func (s *accountService) ReferralLink(code string) string {
	if code == "" {
		return ""
	}
	return fmt.Sprintf("%s/register?ref=%s", s.siteURL, url.QueryEscape(code))
}

func displayNameFromEmail(email string) string {
	local, _, found := strings.Cut(email, "@")
	if !found || local == "" {
		return "Member"
	}
	return local
}
