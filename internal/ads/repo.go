package ads

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/greenbuddy/greenbuddy-backend/pkg/db"
	"github.com/greenbuddy/greenbuddy-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository exposes listing persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an ads repo bound to the provided GORM DB.
func NewRepository(gdb *gorm.DB) *Repository {
	return &Repository{db: gdb}
}

// Create inserts a new listing.
func (r *Repository) Create(ctx context.Context, ad *models.Ad) error {
	return r.db.WithContext(ctx).Create(ad).Error
}

// FindByID loads a listing by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Ad, error) {
	var ad models.Ad
	if err := r.db.WithContext(ctx).First(&ad, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &ad, nil
}

// Search returns listings matching the optional text query and product
// filter, newest first.
func (r *Repository) Search(ctx context.Context, params SearchParams) ([]models.Ad, error) {
	query := r.db.WithContext(ctx).Model(&models.Ad{})

	if q := strings.TrimSpace(params.Query); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(product) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern, pattern)
	}
	if product := strings.TrimSpace(params.Product); product != "" {
		query = query.Where("LOWER(product) = ?", strings.ToLower(product))
	}

	var list []models.Ad
	err := query.
		Order("created_at DESC").
		Limit(params.Limit).
		Offset(params.Offset).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

// ListByUser returns every listing owned by the user, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Ad, error) {
	var list []models.Ad
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

// Update persists all fields of the provided listing.
func (r *Repository) Update(ctx context.Context, ad *models.Ad) error {
	return r.db.WithContext(ctx).Save(ad).Error
}

// Delete removes a single listing.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Ad{}, "id = ?", id).Error
}

// Save bookmarks a listing for the user. Saving twice is a no-op.
func (r *Repository) Save(ctx context.Context, adID, userID uuid.UUID) error {
	err := r.db.WithContext(ctx).Create(&models.AdSave{AdID: adID, UserID: userID}).Error
	if err != nil && db.IsUniqueViolation(err, "ad_saves_ad_user_key") {
		return nil
	}
	return err
}

// Unsave removes the bookmark regardless of prior state.
func (r *Repository) Unsave(ctx context.Context, adID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("ad_id = ? AND user_id = ?", adID, userID).
		Delete(&models.AdSave{}).Error
}

// ListSavedByUser returns the listings the user has bookmarked, newest
// bookmark first.
func (r *Repository) ListSavedByUser(ctx context.Context, userID uuid.UUID) ([]models.Ad, error) {
	var list []models.Ad
	err := r.db.WithContext(ctx).
		Joins("JOIN ad_saves ON ad_saves.ad_id = ads.id").
		Where("ad_saves.user_id = ?", userID).
		Order("ad_saves.created_at DESC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

// ListSaverIDs returns the users who bookmarked each of the given listings.
func (r *Repository) ListSaverIDs(ctx context.Context, adIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	result := make(map[uuid.UUID][]uuid.UUID, len(adIDs))
	if len(adIDs) == 0 {
		return result, nil
	}

	var saves []models.AdSave
	err := r.db.WithContext(ctx).
		Where("ad_id IN ?", adIDs).
		Order("created_at ASC").
		Find(&saves).Error
	if err != nil {
		return nil, err
	}
	for _, save := range saves {
		result[save.AdID] = append(result[save.AdID], save.UserID)
	}
	return result, nil
}

// ListImageIDsByUserTx collects the media handles of every listing the user
// owns, for cleanup after account deletion.
func (r *Repository) ListImageIDsByUserTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]string, error) {
	if tx == nil {
		tx = r.db
	}
	var imageIDs []string
	err := tx.WithContext(ctx).
		Model(&models.Ad{}).
		Where("user_id = ? AND image_id IS NOT NULL", userID).
		Pluck("image_id", &imageIDs).Error
	if err != nil {
		return nil, err
	}
	return imageIDs, nil
}

// DeleteSavesByUserTx removes the user's own bookmarks.
func (r *Repository) DeleteSavesByUserTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.AdSave{}).Error
}

// DeleteSavesForOwnedAdsTx removes every bookmark pointing at listings the
// user owns.
func (r *Repository) DeleteSavesForOwnedAdsTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).
		Where("ad_id IN (?)", tx.Model(&models.Ad{}).Select("id").Where("user_id = ?", userID)).
		Delete(&models.AdSave{}).Error
}

// DeleteByUserTx removes all listings owned by the user.
func (r *Repository) DeleteByUserTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Delete(&models.Ad{}, "user_id = ?", userID).Error
}
