package repository

import (
	"context"

	"shopapp/internal/domain/model"
)

type OrderRepository interface {
	Create(ctx context.Context, order model.Order) (int64, error)
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64) ([]model.Order, error)
}

type OrderItemRepository interface {
	CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error)
	// そのユーザーの注文にこの商品が含まれるか（購入済み判定）
	ExistsByUserAndProduct(ctx context.Context, userID int64, productID int64) (bool, error)
}
