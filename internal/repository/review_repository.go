package repository

import (
	"context"

	"shopapp/internal/domain/model"
)

type ReviewRepository interface {
	// (user, product) キーのupsert。既存があればrating/commentを上書き。
	Upsert(ctx context.Context, review model.Review) (model.Review, error)
	FindByUserAndProduct(ctx context.Context, userID int64, productID int64) (model.Review, error)
	ListByProductID(ctx context.Context, productID int64) ([]model.Review, error)
	// レビュー0件のときは0を返す
	AverageRating(ctx context.Context, productID int64) (float64, error)
	ExistsByUserAndProduct(ctx context.Context, userID int64, productID int64) (bool, error)
}
