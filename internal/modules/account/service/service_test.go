package account

import (
	"context"
	"strings"
	"testing"

	"anoa.com/rewardshub/internal/entity"
	userRepo "anoa.com/rewardshub/internal/modules/account/repository"
	"anoa.com/rewardshub/internal/testutil"
	"anoa.com/rewardshub/pkg/apperror"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateReferralCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := GenerateReferralCode()
		require.NoError(t, err)
		assert.Len(t, code, referralCodeLength)
		for _, ch := range code {
			assert.True(t, strings.ContainsRune(referralCodeAlphabet, ch), "unexpected %q", ch)
		}
		seen[code] = true
	}
	assert.Greater(t, len(seen), 45)
}

func TestEnsureAccountIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewAccountService(userRepo.NewUserRepository(db), "https://rewards.example/")
	ctx := context.Background()
	id := uuid.New()

	first, err := svc.EnsureAccount(ctx, id, "dana@example.com")
	require.NoError(t, err)
	require.NotNil(t, first.ReferralCode)
	assert.Equal(t, "dana", first.DisplayName)
	assert.Equal(t, entity.RoleMember, first.Role.Name)

	second, err := svc.EnsureAccount(ctx, id, "dana@example.com")
	require.NoError(t, err)
	assert.Equal(t, *first.ReferralCode, *second.ReferralCode)

	var count int64
	require.NoError(t, db.Model(&entity.User{}).Where("id = ?", id).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	profile, err := svc.GetProfile(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "https://rewards.example/register?ref="+*first.ReferralCode, profile.ReferralLink)
}

func TestEnsureAccountRetriesOnCodeCollision(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, entity.RoleMember, "TAKEN123")

	codes := []string{"TAKEN123", "FRESH456"}
	svc := &accountService{
		repo: userRepo.NewUserRepository(db),
		newCode: func() (string, error) {
			c := codes[0]
			codes = codes[1:]
			return c, nil
		},
	}

	user, err := svc.EnsureAccount(context.Background(), uuid.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "FRESH456", *user.ReferralCode)
	assert.Equal(t, "Member", user.DisplayName)
}

func TestEnsureAccountBackfillsMissingCode(t *testing.T) {
	db := testutil.NewDB(t)
	legacy := testutil.CreateUser(t, db, entity.RoleAdmin, "")
	svc := NewAccountService(userRepo.NewUserRepository(db), "")

	user, err := svc.EnsureAccount(context.Background(), legacy.ID, "new@example.com")
	require.NoError(t, err)
	require.NotNil(t, user.ReferralCode)
	assert.Equal(t, "new@example.com", user.Email)
	assert.True(t, user.CanModerate())
}

func TestFindByReferralCodeNormalizes(t *testing.T) {
	db := testutil.NewDB(t)
	owner := testutil.CreateUser(t, db, entity.RoleMember, "ABCD2345")
	svc := NewAccountService(userRepo.NewUserRepository(db), "")

	found, err := svc.FindByReferralCode(context.Background(), "  abcd2345 ")
	require.NoError(t, err)
	assert.Equal(t, owner.ID, found.ID)

	_, err = svc.FindByReferralCode(context.Background(), "NOPE")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestEnsureAccountRejectsNilID(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewAccountService(userRepo.NewUserRepository(db), "")
	_, err := svc.EnsureAccount(context.Background(), uuid.Nil, "")
	assert.ErrorIs(t, err, apperror.ErrNotAuthenticated)
}
