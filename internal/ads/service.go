package ads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/greenbuddy/greenbuddy-backend/internal/media"
	"github.com/greenbuddy/greenbuddy-backend/pkg/db/models"
	pkgerrors "github.com/greenbuddy/greenbuddy-backend/pkg/errors"
	"github.com/greenbuddy/greenbuddy-backend/pkg/logger"
)

// pickupDateLayouts accepts RFC3339 timestamps as well as the shapes emitted
// by datetime-local and date form inputs.
var pickupDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02",
}

// Service exposes listing management, search and bookmarks.
type Service interface {
	Create(ctx context.Context, ownerID uuid.UUID, req CreateAdRequest, filename string, image io.Reader) (*AdDTO, error)
	Search(ctx context.Context, params SearchParams) ([]AdDTO, error)
	GetByID(ctx context.Context, adID uuid.UUID) (*AdDTO, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]AdDTO, error)
	Update(ctx context.Context, actorID, adID uuid.UUID, req UpdateAdRequest) (*AdDTO, error)
	Delete(ctx context.Context, actorID, adID uuid.UUID) (*AdDTO, error)
	SaveAd(ctx context.Context, actorID, adID uuid.UUID) (*AdDTO, error)
	UnsaveAd(ctx context.Context, actorID, adID uuid.UUID) (*AdDTO, error)
	ListSaved(ctx context.Context, userID uuid.UUID) ([]AdDTO, error)
}

type adRepository interface {
	Create(ctx context.Context, ad *models.Ad) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Ad, error)
	Search(ctx context.Context, params SearchParams) ([]models.Ad, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Ad, error)
	Update(ctx context.Context, ad *models.Ad) error
	Delete(ctx context.Context, id uuid.UUID) error
	Save(ctx context.Context, adID, userID uuid.UUID) error
	Unsave(ctx context.Context, adID, userID uuid.UUID) error
	ListSavedByUser(ctx context.Context, userID uuid.UUID) ([]models.Ad, error)
	ListSaverIDs(ctx context.Context, adIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error)
}

type mediaCleaner interface {
	Cleanup(ctx context.Context, publicIDs []string) error
}

type service struct {
	ads      adRepository
	uploader media.Uploader
	cleaner  mediaCleaner
	logg     *logger.Logger
}

// ServiceParams bundles the dependencies required to build an ads service.
type ServiceParams struct {
	AdRepo   adRepository
	Uploader media.Uploader
	Cleaner  mediaCleaner
	Logger   *logger.Logger
}

// NewService constructs an ads service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.AdRepo == nil {
		return nil, fmt.Errorf("ad repository is required")
	}
	if params.Uploader == nil {
		return nil, fmt.Errorf("uploader is required")
	}
	if params.Cleaner == nil {
		return nil, fmt.Errorf("media cleaner is required")
	}
	return &service{
		ads:      params.AdRepo,
		uploader: params.Uploader,
		cleaner:  params.Cleaner,
		logg:     params.Logger,
	}, nil
}

func (s *service) Create(ctx context.Context, ownerID uuid.UUID, req CreateAdRequest, filename string, image io.Reader) (*AdDTO, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if image == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image is required")
	}

	quantity, err := parseQuantity(req.Quantity)
	if err != nil {
		return nil, err
	}
	pickupDate, err := parsePickupDate(req.PickupDate)
	if err != nil {
		return nil, err
	}

	uploaded, err := s.uploader.Upload(ctx, filename, image)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload image")
	}
	imageURL := uploaded.SecureURL
	if imageURL == "" {
		imageURL = uploaded.URL
	}

	ad := &models.Ad{
		UserID:      ownerID,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Product:     strings.TrimSpace(req.Product),
		Quantity:    quantity,
		Unit:        strings.TrimSpace(req.Unit),
		Address:     strings.TrimSpace(req.Address),
		Observation: req.Observation,
		PickupDate:  pickupDate,
		Image:       &imageURL,
		ImageID:     &uploaded.PublicID,
	}
	if err := s.ads.Create(ctx, ad); err != nil {
		// The row never existed, so the uploaded asset is orphaned.
		if cleanupErr := s.cleaner.Cleanup(ctx, []string{uploaded.PublicID}); cleanupErr != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "public_id", uploaded.PublicID), "orphaned upload cleanup failed")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create ad")
	}

	return FromModel(ad, nil), nil
}

func (s *service) Search(ctx context.Context, params SearchParams) ([]AdDTO, error) {
	list, err := s.ads.Search(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search ads")
	}
	return s.toDTOs(ctx, list)
}

func (s *service) GetByID(ctx context.Context, adID uuid.UUID) (*AdDTO, error) {
	ad, err := s.loadAd(ctx, adID)
	if err != nil {
		return nil, err
	}
	return s.toDTO(ctx, ad)
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID) ([]AdDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	list, err := s.ads.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list user ads")
	}
	return s.toDTOs(ctx, list)
}

func (s *service) Update(ctx context.Context, actorID, adID uuid.UUID, req UpdateAdRequest) (*AdDTO, error) {
	ad, err := s.loadOwnedAd(ctx, actorID, adID, "you can only update your own ads")
	if err != nil {
		return nil, err
	}

	if req.Quantity != nil {
		quantity, err := parseQuantity(*req.Quantity)
		if err != nil {
			return nil, err
		}
		ad.Quantity = quantity
	}
	if req.PickupDate != nil {
		pickupDate, err := parsePickupDate(*req.PickupDate)
		if err != nil {
			return nil, err
		}
		ad.PickupDate = pickupDate
	}
	if req.Title != nil {
		ad.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		ad.Description = strings.TrimSpace(*req.Description)
	}
	if req.Product != nil {
		ad.Product = strings.TrimSpace(*req.Product)
	}
	if req.Unit != nil {
		ad.Unit = strings.TrimSpace(*req.Unit)
	}
	if req.Address != nil {
		ad.Address = strings.TrimSpace(*req.Address)
	}
	if req.Observation != nil {
		ad.Observation = req.Observation
	}

	if err := s.ads.Update(ctx, ad); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update ad")
	}
	return s.toDTO(ctx, ad)
}

func (s *service) Delete(ctx context.Context, actorID, adID uuid.UUID) (*AdDTO, error) {
	ad, err := s.loadOwnedAd(ctx, actorID, adID, "you can only delete your own ads")
	if err != nil {
		return nil, err
	}

	if err := s.ads.Delete(ctx, adID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete ad")
	}

	// The row is gone; the hosted image goes best effort.
	if ad.ImageID != nil {
		if err := s.cleaner.Cleanup(ctx, []string{*ad.ImageID}); err != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithAdID(ctx, adID.String()), "ad image cleanup failed")
		}
	}

	return FromModel(ad, nil), nil
}

func (s *service) SaveAd(ctx context.Context, actorID, adID uuid.UUID) (*AdDTO, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	ad, err := s.loadAd(ctx, adID)
	if err != nil {
		return nil, err
	}
	if err := s.ads.Save(ctx, adID, actorID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save ad")
	}
	return s.toDTO(ctx, ad)
}

func (s *service) UnsaveAd(ctx context.Context, actorID, adID uuid.UUID) (*AdDTO, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	ad, err := s.loadAd(ctx, adID)
	if err != nil {
		return nil, err
	}
	if err := s.ads.Unsave(ctx, adID, actorID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "unsave ad")
	}
	return s.toDTO(ctx, ad)
}

func (s *service) ListSaved(ctx context.Context, userID uuid.UUID) ([]AdDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	list, err := s.ads.ListSavedByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list saved ads")
	}
	return s.toDTOs(ctx, list)
}

func (s *service) loadAd(ctx context.Context, adID uuid.UUID) (*models.Ad, error) {
	if adID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ad id is required")
	}
	ad, err := s.ads.FindByID(ctx, adID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "ad not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ad")
	}
	return ad, nil
}

func (s *service) loadOwnedAd(ctx context.Context, actorID, adID uuid.UUID, message string) (*models.Ad, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	ad, err := s.loadAd(ctx, adID)
	if err != nil {
		return nil, err
	}
	if ad.UserID != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, message)
	}
	return ad, nil
}

func (s *service) toDTO(ctx context.Context, ad *models.Ad) (*AdDTO, error) {
	savers, err := s.ads.ListSaverIDs(ctx, []uuid.UUID{ad.ID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load savers")
	}
	return FromModel(ad, savers[ad.ID]), nil
}

func (s *service) toDTOs(ctx context.Context, list []models.Ad) ([]AdDTO, error) {
	ids := make([]uuid.UUID, 0, len(list))
	for i := range list {
		ids = append(ids, list[i].ID)
	}
	savers, err := s.ads.ListSaverIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load savers")
	}
	return FromModels(list, savers), nil
}

func parseQuantity(raw string) (decimal.Decimal, error) {
	quantity, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a number")
	}
	if !quantity.IsPositive() {
		return decimal.Decimal{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero")
	}
	return quantity, nil
}

func parsePickupDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range pickupDateLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "pickupDate must be a valid date")
}
