package spotlight

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"anoa.com/rewardshub/internal/entity"
	userRepo "anoa.com/rewardshub/internal/modules/account/repository"
	accountService "anoa.com/rewardshub/internal/modules/account/service"
	ledgerRepo "anoa.com/rewardshub/internal/modules/ledger/repository"
	ledgerService "anoa.com/rewardshub/internal/modules/ledger/service"
	notifRepo "anoa.com/rewardshub/internal/modules/notification/repository"
	notifService "anoa.com/rewardshub/internal/modules/notification/service"
	spotlightDto "anoa.com/rewardshub/internal/modules/spotlight/dto"
	spotlightRepo "anoa.com/rewardshub/internal/modules/spotlight/repository"
	"anoa.com/rewardshub/internal/testutil"
	"anoa.com/rewardshub/pkg/apperror"
	"anoa.com/rewardshub/pkg/dto"
	"anoa.com/rewardshub/pkg/storage"
	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const reward = 75

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR fake image body")

func evidence() dto.EvidenceFile {
	return dto.EvidenceFile{Data: pngBytes, FileName: "my screenshot (1).png", ContentType: "image/png"}
}

// MockStorage is a testify mock of storage.ObjectStorage.
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	args := m.Called(ctx, key, r, size, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// failingCreateRepo simulates the claim insert failing after the upload succeeded.
type failingCreateRepo struct {
	spotlightRepo.ClaimRepository
}

func (r failingCreateRepo) Create(ctx context.Context, claim *entity.SpotlightClaimRequest) error {
	return errors.New("insert failed")
}

// staleClaimRepo always reports the claim as pending, as a reviewer racing another would see it.
type staleClaimRepo struct {
	spotlightRepo.ClaimRepository
}

func (r staleClaimRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.SpotlightClaimRequest, error) {
	claim, err := r.ClaimRepository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	claim.Status = entity.ClaimPending
	return claim, nil
}

type fixture struct {
	db        *gorm.DB
	svc       *claimService
	ledger    ledgerService.LedgerService
	store     storage.ObjectStorage
	spotlight *entity.SpotlightCandidate
	member    *entity.User
	moderator *entity.User
}

type fixtureOption func(*claimService)

func withRepo(wrap func(spotlightRepo.ClaimRepository) spotlightRepo.ClaimRepository) fixtureOption {
	return func(s *claimService) { s.repo = wrap(s.repo) }
}

func withStorage(store storage.ObjectStorage) fixtureOption {
	return func(s *claimService) { s.storage = store }
}

func newFixture(t *testing.T, opts ...fixtureOption) fixture {
	t.Helper()
	db := testutil.NewDB(t)

	ledger := ledgerService.NewLedgerService(ledgerRepo.NewLedgerRepository(db))
	accounts := accountService.NewAccountService(userRepo.NewUserRepository(db), "https://rewards.example")
	catalog := NewCatalogService(spotlightRepo.NewSpotlightRepository(db), nil, time.Minute, 50)
	notifier := notifService.NewNotificationService(notifRepo.NewNotificationRepository(db), nil)
	store := storage.NewMemoryStorage()

	svc := NewClaimService(db, spotlightRepo.NewClaimRepository(db), catalog, accounts, ledger, store, notifier, nil, ClaimOptions{
		MaxEvidenceBytes: 1024,
		RateLimit:        10 * time.Second,
		DefaultReward:    50,
	}).(*claimService)

	clock := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	for _, opt := range opts {
		opt(svc)
	}

	return fixture{
		db:        db,
		svc:       svc,
		ledger:    ledger,
		store:     svc.storage,
		spotlight: testutil.CreateSpotlight(t, db, reward),
		member:    testutil.CreateUser(t, db, entity.RoleMember, "MEMB2345"),
		moderator: testutil.CreateUser(t, db, entity.RoleModerator, "MODR2345"),
	}
}

func (f fixture) claimCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&entity.SpotlightClaimRequest{}).Count(&n).Error)
	return n
}

func (f fixture) balance(t *testing.T, userID uuid.UUID) int64 {
	t.Helper()
	b, err := f.ledger.GetBalance(context.Background(), userID)
	require.NoError(t, err)
	return b
}

func TestSubmitSpotlightClaimRecordsPendingClaim(t *testing.T) {
	f := newFixture(t)

	claim, err := f.svc.SubmitSpotlightClaim(context.Background(), f.member.ID, f.spotlight.ID, " me@tool.example ", evidence())
	require.NoError(t, err)

	assert.Equal(t, entity.ClaimPending, claim.Status)
	assert.Equal(t, "me@tool.example", claim.ExternalEmail)
	assert.Contains(t, claim.EvidenceURI, f.member.ID.String()+"/"+f.spotlight.ID.String()+"/")
	assert.Contains(t, claim.EvidenceURI, "-my_screenshot_1_.png")

	mem := f.store.(*storage.MemoryStorage)
	assert.Equal(t, 1, mem.Len())
	assert.EqualValues(t, 1, f.claimCount(t))
	assert.Zero(t, f.balance(t, f.member.ID), "submitting never awards points")
}

func TestSubmitSpotlightClaimRemovesUploadWhenInsertFails(t *testing.T) {
	f := newFixture(t, withRepo(func(r spotlightRepo.ClaimRepository) spotlightRepo.ClaimRepository {
		return failingCreateRepo{r}
	}))

	_, err := f.svc.SubmitSpotlightClaim(context.Background(), f.member.ID, f.spotlight.ID, "me@tool.example", evidence())
	require.ErrorIs(t, err, apperror.ErrClaimRecordFailed)

	mem := f.store.(*storage.MemoryStorage)
	assert.Zero(t, mem.Len(), "the uploaded evidence is removed")
	assert.Zero(t, f.claimCount(t))

	var orphans int64
	require.NoError(t, f.db.Model(&entity.OrphanEvidence{}).Count(&orphans).Error)
	assert.Zero(t, orphans)
}

func TestSubmitSpotlightClaimRecordsOrphanWhenCompensationFails(t *testing.T) {
	store := new(MockStorage)
	f := newFixture(t, withStorage(store), withRepo(func(r spotlightRepo.ClaimRepository) spotlightRepo.ClaimRepository {
		return failingCreateRepo{r}
	}))

	store.On("Put", mock.Anything, mock.Anything, mock.Anything, int64(len(pngBytes)), "image/png").Return("mem://evidence", nil).Once()
	store.On("Delete", mock.Anything, mock.Anything).Return(errors.New("bucket unavailable")).Once()

	_, err := f.svc.SubmitSpotlightClaim(context.Background(), f.member.ID, f.spotlight.ID, "me@tool.example", evidence())
	require.ErrorIs(t, err, apperror.ErrClaimRecordFailed)

	var orphans []entity.OrphanEvidence
	require.NoError(t, f.db.Find(&orphans).Error)
	require.Len(t, orphans, 1)
	assert.Contains(t, orphans[0].Key, f.member.ID.String())

	store.On("Delete", mock.Anything, orphans[0].Key).Return(nil).Once()
	removed, err := f.svc.SweepOrphanEvidence(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	var left int64
	require.NoError(t, f.db.Model(&entity.OrphanEvidence{}).Count(&left).Error)
	assert.Zero(t, left)
	store.AssertExpectations(t)
}

func TestSweepOrphanEvidenceKeepsFailures(t *testing.T) {
	store := new(MockStorage)
	f := newFixture(t, withStorage(store))
	ctx := context.Background()

	require.NoError(t, f.svc.repo.RecordOrphan(ctx, "u/s/1-a.png", "test"))
	store.On("Delete", mock.Anything, "u/s/1-a.png").Return(errors.New("still down")).Once()

	removed, err := f.svc.SweepOrphanEvidence(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)

	var orphan entity.OrphanEvidence
	require.NoError(t, f.db.First(&orphan).Error)
	assert.Equal(t, 1, orphan.Attempts)
	assert.Equal(t, "still down", orphan.LastError)
}

func TestSubmitSpotlightClaimUploadFailure(t *testing.T) {
	store := new(MockStorage)
	f := newFixture(t, withStorage(store))
	store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("timeout")).Once()

	_, err := f.svc.SubmitSpotlightClaim(context.Background(), f.member.ID, f.spotlight.ID, "me@tool.example", evidence())
	require.ErrorIs(t, err, apperror.ErrEvidenceUploadFailed)

	assert.Zero(t, f.claimCount(t))
	store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestSubmitSpotlightClaimValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name        string
		spotlightID uuid.UUID
		email       string
		file        dto.EvidenceFile
		wantErr     error
	}{
		{"bad email", f.spotlight.ID, "not-an-email", evidence(), apperror.ErrInvalidInput},
		{"missing email", f.spotlight.ID, "  ", evidence(), apperror.ErrInvalidInput},
		{"empty evidence", f.spotlight.ID, "me@tool.example", dto.EvidenceFile{FileName: "a.png"}, apperror.ErrInvalidInput},
		{"too large", f.spotlight.ID, "me@tool.example", dto.EvidenceFile{Data: bytes.Repeat([]byte{1}, 2048), ContentType: "image/png"}, apperror.ErrInvalidInput},
		{"not an image", f.spotlight.ID, "me@tool.example", dto.EvidenceFile{Data: []byte("plain text"), FileName: "a.txt"}, apperror.ErrInvalidInput},
		{"unknown spotlight", uuid.New(), "me@tool.example", evidence(), apperror.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.SubmitSpotlightClaim(ctx, f.member.ID, tt.spotlightID, tt.email, tt.file)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.Zero(t, f.claimCount(t))
	assert.Zero(t, f.store.(*storage.MemoryStorage).Len())
}

func TestSubmitSpotlightClaimRateLimited(t *testing.T) {
	f := newFixture(t)
	rdb, rmock := redismock.NewClientMock()
	f.svc.redisClient = rdb

	k := "rate_limit:user:" + f.member.ID.String() + ":spotlight_claim"
	rmock.ExpectSetNX(k, "locked", 10*time.Second).SetVal(false)
	rmock.ExpectPTTL(k).SetVal(6400 * time.Millisecond)

	_, err := f.svc.SubmitSpotlightClaim(context.Background(), f.member.ID, f.spotlight.ID, "me@tool.example", evidence())
	assert.ErrorIs(t, err, apperror.ErrRateLimitExceeded)
	assert.Equal(t, http.StatusTooManyRequests, apperror.MapErrorToStatus(err))

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "you can submit one claim every 10 seconds, please try again in 7 seconds", appErr.Message)
	assert.NoError(t, rmock.ExpectationsWereMet())
	assert.Zero(t, f.store.(*storage.MemoryStorage).Len())
}

func TestGetLatestClaimStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	latest, err := f.svc.GetLatestClaimStatus(ctx, f.member.ID, f.spotlight.ID)
	require.NoError(t, err)
	assert.Nil(t, latest)

	first, err := f.svc.SubmitSpotlightClaim(ctx, f.member.ID, f.spotlight.ID, "me@tool.example", evidence())
	require.NoError(t, err)
	_, err = f.svc.ReviewClaim(ctx, f.moderator.ID, first.ID, entity.ClaimRejected, "blurry")
	require.NoError(t, err)

	second, err := f.svc.SubmitSpotlightClaim(ctx, f.member.ID, f.spotlight.ID, "me@tool.example", evidence())
	require.NoError(t, err)

	latest, err = f.svc.GetLatestClaimStatus(ctx, f.member.ID, f.spotlight.ID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, second.ID, latest.ID)
	assert.Equal(t, entity.ClaimPending, latest.Status)
}

func TestReviewClaimApprovesExactlyOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	claim, err := f.svc.SubmitSpotlightClaim(ctx, f.member.ID, f.spotlight.ID, "me@tool.example", evidence())
	require.NoError(t, err)

	reviewed, err := f.svc.ReviewClaim(ctx, f.moderator.ID, claim.ID, entity.ClaimApproved, "looks good")
	require.NoError(t, err)
	assert.Equal(t, entity.ClaimApproved, reviewed.Status)
	require.NotNil(t, reviewed.ReviewNote)
	assert.Equal(t, "looks good", *reviewed.ReviewNote)
	assert.Equal(t, int64(reward), f.balance(t, f.member.ID))

	_, err = f.svc.ReviewClaim(ctx, f.moderator.ID, claim.ID, entity.ClaimApproved, "")
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
	_, err = f.svc.ReviewClaim(ctx, f.moderator.ID, claim.ID, entity.ClaimRejected, "")
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
	assert.Equal(t, int64(reward), f.balance(t, f.member.ID))

	var notes []entity.Notification
	require.NoError(t, f.db.Where("user_id = ?", f.member.ID).Find(&notes).Error)
	require.Len(t, notes, 1)
	assert.Equal(t, entity.NotificationClaimApproved, notes[0].Type)
	assert.EqualValues(t, reward, notes[0].Points)
}

func TestReviewClaimLosingRaceDoesNotPayTwice(t *testing.T) {
	f := newFixture(t, withRepo(func(r spotlightRepo.ClaimRepository) spotlightRepo.ClaimRepository {
		return staleClaimRepo{r}
	}))
	ctx := context.Background()

	claim, err := f.svc.SubmitSpotlightClaim(ctx, f.member.ID, f.spotlight.ID, "me@tool.example", evidence())
	require.NoError(t, err)

	_, err = f.svc.ReviewClaim(ctx, f.moderator.ID, claim.ID, entity.ClaimApproved, "")
	require.NoError(t, err)
	_, err = f.svc.ReviewClaim(ctx, f.moderator.ID, claim.ID, entity.ClaimApproved, "")
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)

	var events int64
	require.NoError(t, f.db.Model(&entity.AwardEvent{}).Where("kind = ?", entity.AwardSpotlightClaim).Count(&events).Error)
	assert.EqualValues(t, 1, events)
}

func TestReviewClaimRejectAwardsNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	claim, err := f.svc.SubmitSpotlightClaim(ctx, f.member.ID, f.spotlight.ID, "me@tool.example", evidence())
	require.NoError(t, err)

	reviewed, err := f.svc.ReviewClaim(ctx, f.moderator.ID, claim.ID, entity.ClaimRejected, "")
	require.NoError(t, err)
	assert.Equal(t, entity.ClaimRejected, reviewed.Status)
	assert.Nil(t, reviewed.ReviewNote)
	assert.Zero(t, f.balance(t, f.member.ID))
}

func TestReviewClaimRequiresModerator(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	claim, err := f.svc.SubmitSpotlightClaim(ctx, f.member.ID, f.spotlight.ID, "me@tool.example", evidence())
	require.NoError(t, err)

	_, err = f.svc.ReviewClaim(ctx, f.member.ID, claim.ID, entity.ClaimApproved, "")
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	_, err = f.svc.ReviewClaim(ctx, uuid.New(), claim.ID, entity.ClaimApproved, "")
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	_, err = f.svc.ReviewClaim(ctx, f.moderator.ID, claim.ID, entity.ClaimPending, "")
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
	_, err = f.svc.ReviewClaim(ctx, f.moderator.ID, uuid.New(), entity.ClaimApproved, "")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	latest, err := f.svc.GetLatestClaimStatus(ctx, f.member.ID, f.spotlight.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ClaimPending, latest.Status)
}

func TestListClaimsFiltersByStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.svc.SubmitSpotlightClaim(ctx, f.member.ID, f.spotlight.ID, "me@tool.example", evidence())
		require.NoError(t, err)
	}
	all, err := f.svc.ListClaims(ctx, spotlightDto.ListClaimsQuery{})
	require.NoError(t, err)
	require.Len(t, all.Data, 3)

	_, err = f.svc.ReviewClaim(ctx, f.moderator.ID, all.Data[0].ID, entity.ClaimApproved, "")
	require.NoError(t, err)

	pending, err := f.svc.ListClaims(ctx, spotlightDto.ListClaimsQuery{Status: "pending"})
	require.NoError(t, err)
	assert.Len(t, pending.Data, 2)
	assert.EqualValues(t, 2, pending.Meta.TotalItems)
}

func TestReviewClaimConcurrentApprovalsPayOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	claim, err := f.svc.SubmitSpotlightClaim(ctx, f.member.ID, f.spotlight.ID, "me@tool.example", evidence())
	require.NoError(t, err)

	const reviewers = 10
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		ok   int
		errs []error
	)
	for i := 0; i < reviewers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.ReviewClaim(ctx, f.moderator.ID, claim.ID, entity.ClaimApproved, "")
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			ok++
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	require.Len(t, errs, reviewers-1)
	for _, err := range errs {
		assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
	}
	assert.Equal(t, int64(reward), f.balance(t, f.member.ID))
}
