package rewards

import (
	"context"
	"testing"
	"time"

	"anoa.com/rewardshub/internal/entity"
	userRepo "anoa.com/rewardshub/internal/modules/account/repository"
	accountService "anoa.com/rewardshub/internal/modules/account/service"
	checkinRepo "anoa.com/rewardshub/internal/modules/checkin/repository"
	checkinService "anoa.com/rewardshub/internal/modules/checkin/service"
	ledgerRepo "anoa.com/rewardshub/internal/modules/ledger/repository"
	ledgerService "anoa.com/rewardshub/internal/modules/ledger/service"
	notifRepo "anoa.com/rewardshub/internal/modules/notification/repository"
	notifService "anoa.com/rewardshub/internal/modules/notification/service"
	referralRepo "anoa.com/rewardshub/internal/modules/referral/repository"
	referralService "anoa.com/rewardshub/internal/modules/referral/service"
	spotlightRepo "anoa.com/rewardshub/internal/modules/spotlight/repository"
	spotlightService "anoa.com/rewardshub/internal/modules/spotlight/service"
	"anoa.com/rewardshub/internal/testutil"
	"anoa.com/rewardshub/pkg/apperror"
	"anoa.com/rewardshub/pkg/dto"
	"anoa.com/rewardshub/pkg/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type engine struct {
	rewards   RewardsService
	checkins  checkinService.CheckinService
	referrals referralService.ReferralService
	claims    spotlightService.ClaimService
}

func newEngine(t *testing.T) (engine, func(role, code string) *entity.User, *entity.SpotlightCandidate) {
	t.Helper()
	db := testutil.NewDB(t)

	ledger := ledgerService.NewLedgerService(ledgerRepo.NewLedgerRepository(db))
	accounts := accountService.NewAccountService(userRepo.NewUserRepository(db), "https://rewards.example")
	checkins := checkinService.NewCheckinService(db, checkinRepo.NewCheckinRepository(db), ledger, 5)
	referrals := referralService.NewReferralService(db, referralRepo.NewReferralRepository(db), accounts, ledger, nil, 10000)
	catalog := spotlightService.NewCatalogService(spotlightRepo.NewSpotlightRepository(db), nil, time.Minute, 50)
	notifier := notifService.NewNotificationService(notifRepo.NewNotificationRepository(db), nil)
	claims := spotlightService.NewClaimService(db, spotlightRepo.NewClaimRepository(db), catalog, accounts, ledger,
		storage.NewMemoryStorage(), notifier, nil, spotlightService.ClaimOptions{MaxEvidenceBytes: 1 << 20, DefaultReward: 50})

	e := engine{
		rewards:   NewRewardsService(accounts, ledger, checkins, referrals, catalog, claims),
		checkins:  checkins,
		referrals: referrals,
		claims:    claims,
	}
	newUser := func(role, code string) *entity.User { return testutil.CreateUser(t, db, role, code) }
	return e, newUser, testutil.CreateSpotlight(t, db, 50)
}

func TestRewardsSnapshotReflectsEveryStep(t *testing.T) {
	e, newUser, spotlight := newEngine(t)
	ctx := context.Background()
	member := newUser(entity.RoleMember, "MEMB2345")
	moderator := newUser(entity.RoleModerator, "MODR2345")

	snap, err := e.rewards.GetRewardsSnapshot(ctx, member.ID)
	require.NoError(t, err)
	assert.Zero(t, snap.Balance)
	assert.Empty(t, snap.Last7DaysCheckins)
	assert.Zero(t, snap.Streak)
	assert.Len(t, snap.Week, 7)
	require.NotNil(t, snap.ActiveSpotlight)
	assert.Equal(t, spotlight.ID, snap.ActiveSpotlight.ID)
	assert.Nil(t, snap.LatestSpotlightClaim)
	assert.Equal(t, "https://rewards.example/register?ref=MEMB2345", snap.Profile.ReferralLink)

	claimed, err := e.checkins.ClaimDailyPoints(ctx, member.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 5, claimed.Balance)
	assert.Equal(t, 1, claimed.Streak)

	submitted, err := e.claims.SubmitSpotlightClaim(ctx, member.ID, spotlight.ID, "me@tool.example", dto.EvidenceFile{
		Data: []byte("\x89PNG\r\n\x1a\nbody"), FileName: "proof.png", ContentType: "image/png",
	})
	require.NoError(t, err)

	snap, err = e.rewards.GetRewardsSnapshot(ctx, member.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 5, snap.Balance, "a pending claim awards nothing")
	assert.Len(t, snap.Last7DaysCheckins, 1)
	assert.True(t, snap.ClaimedToday)
	require.NotNil(t, snap.LatestSpotlightClaim)
	assert.Equal(t, entity.ClaimPending, snap.LatestSpotlightClaim.Status)

	_, err = e.claims.ReviewClaim(ctx, moderator.ID, submitted.ID, entity.ClaimApproved, "")
	require.NoError(t, err)

	snap, err = e.rewards.GetRewardsSnapshot(ctx, member.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 55, snap.Balance)
	assert.Equal(t, "Newcomer", snap.Tier.Tier)
	assert.Equal(t, entity.ClaimApproved, snap.LatestSpotlightClaim.Status)
}

func TestRewardsSnapshotIncludesReferralStats(t *testing.T) {
	e, newUser, _ := newEngine(t)
	ctx := context.Background()
	referrer := newUser(entity.RoleMember, "REFR2345")
	newbie := newUser(entity.RoleMember, "NEWB2345")

	_, err := e.referrals.ApplyReferral(ctx, newbie.ID, "REFR2345")
	require.NoError(t, err)

	snap, err := e.rewards.GetRewardsSnapshot(ctx, referrer.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 10000, snap.Balance)
	assert.Equal(t, "Gold", snap.Tier.Tier)
	require.NotNil(t, snap.Referral)
	assert.EqualValues(t, 1, snap.Referral.Referrals)
	assert.EqualValues(t, 10000, snap.Referral.PointsEarned)
}

func TestRewardsSnapshotRequiresKnownUser(t *testing.T) {
	e, _, _ := newEngine(t)

	_, err := e.rewards.GetRewardsSnapshot(context.Background(), uuid.Nil)
	assert.ErrorIs(t, err, apperror.ErrNotAuthenticated)

	_, err = e.rewards.GetRewardsSnapshot(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
