package users

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/greenbuddy/greenbuddy-backend/internal/media"
	"github.com/greenbuddy/greenbuddy-backend/pkg/config"
	"github.com/greenbuddy/greenbuddy-backend/pkg/db/models"
	pkgerrors "github.com/greenbuddy/greenbuddy-backend/pkg/errors"
	"github.com/greenbuddy/greenbuddy-backend/pkg/logger"
	"github.com/greenbuddy/greenbuddy-backend/pkg/pagination"
	"github.com/greenbuddy/greenbuddy-backend/pkg/security"
	"gorm.io/gorm"
)

// Service exposes profile management and account deletion.
type Service interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
	ListUsers(ctx context.Context, params pagination.Params) ([]UserDTO, error)
	UpdateProfile(ctx context.Context, actorID, targetID uuid.UUID, req UpdateProfileRequest) (*UserDTO, error)
	UpdateImage(ctx context.Context, actorID, targetID uuid.UUID, filename string, content io.Reader) (*UserDTO, error)
	DeleteAccount(ctx context.Context, actorID, targetID uuid.UUID) (*DeleteAccountResponse, error)
}

type userRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	Update(ctx context.Context, user *models.User) error
	DeleteTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type adRepository interface {
	ListImageIDsByUserTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]string, error)
	DeleteSavesByUserTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
	DeleteSavesForOwnedAdsTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
	DeleteByUserTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type mediaCleaner interface {
	Cleanup(ctx context.Context, publicIDs []string) error
}

type sessionRevoker interface {
	RevokeAllForUser(ctx context.Context, userID string) error
}

type service struct {
	users       userRepository
	ads         adRepository
	tx          txRunner
	uploader    media.Uploader
	cleaner     mediaCleaner
	sessions    sessionRevoker
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
}

// ServiceParams bundles the dependencies required to build a users service.
type ServiceParams struct {
	UserRepo       userRepository
	AdRepo         adRepository
	TxRunner       txRunner
	Uploader       media.Uploader
	Cleaner        mediaCleaner
	Sessions       sessionRevoker
	PasswordConfig config.PasswordConfig
	Logger         *logger.Logger
}

// NewService constructs a users service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.AdRepo == nil {
		return nil, fmt.Errorf("ad repository is required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.Uploader == nil {
		return nil, fmt.Errorf("uploader is required")
	}
	if params.Cleaner == nil {
		return nil, fmt.Errorf("media cleaner is required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session revoker is required")
	}
	return &service{
		users:       params.UserRepo,
		ads:         params.AdRepo,
		tx:          params.TxRunner,
		uploader:    params.Uploader,
		cleaner:     params.Cleaner,
		sessions:    params.Sessions,
		passwordCfg: params.PasswordConfig,
		logg:        params.Logger,
	}, nil
}

func (s *service) GetProfile(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *service) ListUsers(ctx context.Context, params pagination.Params) ([]UserDTO, error) {
	params = params.Normalize()
	list, err := s.users.List(ctx, params.Limit, params.Offset)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	return FromModels(list), nil
}

func (s *service) UpdateProfile(ctx context.Context, actorID, targetID uuid.UUID, req UpdateProfileRequest) (*UserDTO, error) {
	if err := ensureSelf(actorID, targetID, "you can only update your own profile"); err != nil {
		return nil, err
	}

	user, err := s.loadUser(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if _, err := s.users.FindByEmail(ctx, email); err == nil {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "user with given email already exists")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup email")
		}
		user.Email = email
	}

	if req.Password != nil {
		same, err := security.VerifyPassword(*req.Password, user.PasswordHash)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
		}
		if same {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "the new password can not be the same as the old password")
		}
		hash, err := security.HashPassword(*req.Password, s.passwordCfg)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
		}
		user.PasswordHash = hash
	}

	if req.Location != nil {
		user.Location = req.Location
	}
	if req.Introduction != nil {
		user.Introduction = req.Introduction
	}
	if req.Consent != nil {
		user.Consent = *req.Consent
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user")
	}
	return FromModel(user), nil
}

func (s *service) UpdateImage(ctx context.Context, actorID, targetID uuid.UUID, filename string, content io.Reader) (*UserDTO, error) {
	if err := ensureSelf(actorID, targetID, "you can only update your own profile"); err != nil {
		return nil, err
	}

	user, err := s.loadUser(ctx, targetID)
	if err != nil {
		return nil, err
	}

	uploaded, err := s.uploader.Upload(ctx, filename, content)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload image")
	}

	previousImageID := user.ImageID
	imageURL := uploaded.SecureURL
	if imageURL == "" {
		imageURL = uploaded.URL
	}
	user.Image = &imageURL
	user.ImageID = &uploaded.PublicID

	if err := s.users.Update(ctx, user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user")
	}

	// The replaced asset is removed best effort once the row points at the
	// new one.
	if previousImageID != nil {
		if err := s.cleaner.Cleanup(ctx, []string{*previousImageID}); err != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "public_id", *previousImageID), "previous profile image cleanup failed")
		}
	}

	return FromModel(user), nil
}

func (s *service) DeleteAccount(ctx context.Context, actorID, targetID uuid.UUID) (*DeleteAccountResponse, error) {
	if err := ensureSelf(actorID, targetID, "you can only delete your own account"); err != nil {
		return nil, err
	}

	user, err := s.loadUser(ctx, targetID)
	if err != nil {
		return nil, err
	}

	var orphanedImageIDs []string
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		imageIDs, err := s.ads.ListImageIDsByUserTx(ctx, tx, targetID)
		if err != nil {
			return fmt.Errorf("collect ad images: %w", err)
		}
		orphanedImageIDs = imageIDs

		if err := s.ads.DeleteSavesByUserTx(ctx, tx, targetID); err != nil {
			return fmt.Errorf("remove own bookmarks: %w", err)
		}
		if err := s.ads.DeleteSavesForOwnedAdsTx(ctx, tx, targetID); err != nil {
			return fmt.Errorf("remove bookmarks on owned ads: %w", err)
		}
		if err := s.ads.DeleteByUserTx(ctx, tx, targetID); err != nil {
			return fmt.Errorf("delete ads: %w", err)
		}
		if err := s.users.DeleteTx(ctx, tx, targetID); err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete account")
	}

	// Rows are gone. Sessions and hosted images are cleaned up best effort;
	// their failure never undoes the deletion.
	if err := s.sessions.RevokeAllForUser(ctx, targetID.String()); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithUserID(ctx, targetID.String()), "session revocation failed after account deletion")
	}

	if user.ImageID != nil {
		orphanedImageIDs = append(orphanedImageIDs, *user.ImageID)
	}
	if len(orphanedImageIDs) > 0 {
		if err := s.cleaner.Cleanup(ctx, orphanedImageIDs); err != nil && s.logg != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"user_id":     targetID.String(),
				"image_count": len(orphanedImageIDs),
			})
			s.logg.Error(logCtx, "media cleanup failed after account deletion", err)
		}
	}

	return &DeleteAccountResponse{
		Message:     "account has been deleted",
		DeletedUser: FromModel(user),
	}, nil
}

func (s *service) loadUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

func ensureSelf(actorID, targetID uuid.UUID, message string) error {
	if actorID == uuid.Nil || targetID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if actorID != targetID {
		return pkgerrors.New(pkgerrors.CodeForbidden, message)
	}
	return nil
}
