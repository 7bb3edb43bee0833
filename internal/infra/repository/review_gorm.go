package repository

import (
	"context"
	"errors"

	"shopapp/internal/domain/model"
	repo "shopapp/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReviewGormRepository struct {
	db *gorm.DB
}

// DI
func NewReviewGormRepository(db *gorm.DB) *ReviewGormRepository {
	return &ReviewGormRepository{db: db}
}

// (user_id, product_id) キーのupsert。2回目以降はrating/commentを上書き。
func (r *ReviewGormRepository) Upsert(ctx context.Context, review model.Review) (model.Review, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"rating", "comment", "updated_at"}),
		}).
		Create(&review).Error

	if err != nil {
		return model.Review{}, err
	}

	//上書きのときCreateはIDを埋めないので読み直す
	return r.FindByUserAndProduct(ctx, review.UserID, review.ProductID)
}

func (r *ReviewGormRepository) FindByUserAndProduct(ctx context.Context, userID int64, productID int64) (model.Review, error) {
	var rv model.Review

	err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&rv).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Review{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Review{}, err
	}
	return rv, nil
}

// 新しい順
func (r *ReviewGormRepository) ListByProductID(ctx context.Context, productID int64) ([]model.Review, error) {
	var reviews []model.Review

	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at desc").
		Order("id desc").
		Find(&reviews).Error; err != nil {
		return []model.Review{}, err
	}

	return reviews, nil
}

// レビュー0件のときは0
func (r *ReviewGormRepository) AverageRating(ctx context.Context, productID int64) (float64, error) {
	var avg float64

	err := r.db.WithContext(ctx).
		Model(&model.Review{}).
		Where("product_id = ?", productID).
		Select("COALESCE(AVG(rating), 0)").
		Scan(&avg).Error

	if err != nil {
		return 0, err
	}
	return avg, nil
}

func (r *ReviewGormRepository) ExistsByUserAndProduct(ctx context.Context, userID int64, productID int64) (bool, error) {
	var count int64

	err := r.db.WithContext(ctx).
		Model(&model.Review{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).Error

	if err != nil {
		return false, err
	}
	return count > 0, nil
}
