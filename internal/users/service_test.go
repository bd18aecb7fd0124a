package users

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/greenbuddy/greenbuddy-backend/pkg/config"
	"github.com/greenbuddy/greenbuddy-backend/pkg/db/models"
	pkgerrors "github.com/greenbuddy/greenbuddy-backend/pkg/errors"
	"github.com/greenbuddy/greenbuddy-backend/pkg/pagination"
	"github.com/greenbuddy/greenbuddy-backend/pkg/security"
	"github.com/greenbuddy/greenbuddy-backend/pkg/storage/cloudinary"
	"gorm.io/gorm"
)

var testPasswordConfig = config.PasswordConfig{
	ArgonMemoryKB:    8,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     8,
	ArgonKeyLen:      16,
}

func TestGetProfile(t *testing.T) {
	user := testUser(t, "greta", "pw12345")
	svc, deps := buildTestService(t, user)
	_ = deps

	dto, err := svc.GetProfile(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if dto.Username != "greta" {
		t.Fatalf("unexpected username %s", dto.Username)
	}
}

func TestGetProfileUnknownUser(t *testing.T) {
	svc, _ := buildTestService(t, nil)

	_, err := svc.GetProfile(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestListUsersEmptyIsSuccess(t *testing.T) {
	svc, _ := buildTestService(t, nil)

	list, err := svc.ListUsers(context.Background(), pagination.Params{})
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if list == nil {
		t.Fatal("expected empty slice, not nil")
	}
	if len(list) != 0 {
		t.Fatalf("expected no users, got %d", len(list))
	}
}

func TestUpdateProfileForbiddenForOtherUsers(t *testing.T) {
	user := testUser(t, "greta", "pw12345")
	svc, _ := buildTestService(t, user)

	_, err := svc.UpdateProfile(context.Background(), uuid.New(), user.ID, UpdateProfileRequest{})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden error, got %v", err)
	}
}

func TestUpdateProfileRejectsExistingEmail(t *testing.T) {
	user := testUser(t, "greta", "pw12345")
	svc, _ := buildTestService(t, user)

	email := user.Email
	_, err := svc.UpdateProfile(context.Background(), user.ID, user.ID, UpdateProfileRequest{Email: &email})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestUpdateProfileRejectsUnchangedPassword(t *testing.T) {
	user := testUser(t, "greta", "pw12345")
	svc, _ := buildTestService(t, user)

	password := "pw12345"
	_, err := svc.UpdateProfile(context.Background(), user.ID, user.ID, UpdateProfileRequest{Password: &password})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestUpdateProfileAppliesChanges(t *testing.T) {
	user := testUser(t, "greta", "pw12345")
	svc, deps := buildTestService(t, user)

	location := "Berlin"
	intro := "I grow tomatoes."
	password := "newpassword"
	dto, err := svc.UpdateProfile(context.Background(), user.ID, user.ID, UpdateProfileRequest{
		Location:     &location,
		Introduction: &intro,
		Password:     &password,
	})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if dto.Location == nil || *dto.Location != "Berlin" {
		t.Fatalf("expected location updated, got %v", dto.Location)
	}
	if deps.users.updated == nil {
		t.Fatal("expected user persisted")
	}
	ok, err := security.VerifyPassword("newpassword", deps.users.updated.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("expected new password hash stored, ok=%v err=%v", ok, err)
	}
}

func TestUpdateImageReplacesAndCleansOldAsset(t *testing.T) {
	user := testUser(t, "greta", "pw12345")
	oldID := "greenbuddy/old"
	user.ImageID = &oldID
	svc, deps := buildTestService(t, user)

	dto, err := svc.UpdateImage(context.Background(), user.ID, user.ID, "me.jpg", strings.NewReader("bytes"))
	if err != nil {
		t.Fatalf("update image: %v", err)
	}
	if dto.Image == nil || *dto.Image != "https://res.cloudinary.com/demo/new.jpg" {
		t.Fatalf("unexpected image url %v", dto.Image)
	}
	if len(deps.cleaner.cleaned) != 1 || deps.cleaner.cleaned[0] != "greenbuddy/old" {
		t.Fatalf("expected old asset cleaned, got %v", deps.cleaner.cleaned)
	}
}

func TestDeleteAccountCascades(t *testing.T) {
	user := testUser(t, "greta", "pw12345")
	imageID := "greenbuddy/avatar"
	user.ImageID = &imageID
	svc, deps := buildTestService(t, user)
	deps.ads.imageIDs = []string{"greenbuddy/ad1", "greenbuddy/ad2"}

	resp, err := svc.DeleteAccount(context.Background(), user.ID, user.ID)
	if err != nil {
		t.Fatalf("delete account: %v", err)
	}
	if resp.DeletedUser == nil || resp.DeletedUser.ID != user.ID {
		t.Fatal("expected deleted user echoed back")
	}

	for _, step := range []string{"saves_by_user", "saves_for_owned_ads", "ads_by_user", "user"} {
		if !deps.ads.called[step] && step != "user" {
			t.Fatalf("expected cascade step %s", step)
		}
	}
	if !deps.users.deleted {
		t.Fatal("expected user row deleted")
	}
	if len(deps.sessions.revoked) != 1 || deps.sessions.revoked[0] != user.ID.String() {
		t.Fatalf("expected sessions revoked for user, got %v", deps.sessions.revoked)
	}
	if len(deps.cleaner.cleaned) != 3 {
		t.Fatalf("expected ad images plus avatar cleaned, got %v", deps.cleaner.cleaned)
	}
}

func TestDeleteAccountForbiddenForOtherUsers(t *testing.T) {
	user := testUser(t, "greta", "pw12345")
	svc, _ := buildTestService(t, user)

	_, err := svc.DeleteAccount(context.Background(), uuid.New(), user.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden error, got %v", err)
	}
}

type testDeps struct {
	users    *stubUserRepo
	ads      *stubAdRepo
	cleaner  *stubCleaner
	sessions *stubSessions
}

func buildTestService(t *testing.T, user *models.User) (Service, *testDeps) {
	t.Helper()
	deps := &testDeps{
		users:    &stubUserRepo{user: user},
		ads:      &stubAdRepo{called: map[string]bool{}},
		cleaner:  &stubCleaner{},
		sessions: &stubSessions{},
	}
	svc, err := NewService(ServiceParams{
		UserRepo:       deps.users,
		AdRepo:         deps.ads,
		TxRunner:       stubTxRunner{},
		Uploader:       stubUploader{},
		Cleaner:        deps.cleaner,
		Sessions:       deps.sessions,
		PasswordConfig: testPasswordConfig,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, deps
}

func testUser(t *testing.T, username, password string) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, testPasswordConfig)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return &models.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		Consent:      true,
	}
}

type stubUserRepo struct {
	user    *models.User
	updated *models.User
	deleted bool
}

func (s *stubUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if s.user != nil && s.user.ID == id {
		copied := *s.user
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if s.user != nil && s.user.Email == email {
		copied := *s.user
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	if s.user == nil {
		return []models.User{}, nil
	}
	return []models.User{*s.user}, nil
}

func (s *stubUserRepo) Update(ctx context.Context, user *models.User) error {
	s.updated = user
	return nil
}

func (s *stubUserRepo) DeleteTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	s.deleted = true
	return nil
}

type stubAdRepo struct {
	imageIDs []string
	called   map[string]bool
}

func (s *stubAdRepo) ListImageIDsByUserTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]string, error) {
	s.called["list_images"] = true
	return s.imageIDs, nil
}

func (s *stubAdRepo) DeleteSavesByUserTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	s.called["saves_by_user"] = true
	return nil
}

func (s *stubAdRepo) DeleteSavesForOwnedAdsTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	s.called["saves_for_owned_ads"] = true
	return nil
}

func (s *stubAdRepo) DeleteByUserTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	s.called["ads_by_user"] = true
	return nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubUploader struct{}

func (stubUploader) Upload(ctx context.Context, filename string, content io.Reader) (*cloudinary.UploadResult, error) {
	return &cloudinary.UploadResult{
		PublicID:  "greenbuddy/new",
		SecureURL: "https://res.cloudinary.com/demo/new.jpg",
	}, nil
}

type stubCleaner struct {
	cleaned []string
}

func (s *stubCleaner) Cleanup(ctx context.Context, publicIDs []string) error {
	s.cleaned = append(s.cleaned, publicIDs...)
	return nil
}

type stubSessions struct {
	revoked []string
}

func (s *stubSessions) RevokeAllForUser(ctx context.Context, userID string) error {
	s.revoked = append(s.revoked, userID)
	return nil
}
