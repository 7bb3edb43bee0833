package repository

import (
	"context"
	"errors"

	"shopapp/internal/domain/model"
)

// 数量が下限（1）のため減らせない
var ErrQuantityFloor = errors.New("quantity at floor")

type CartRepository interface {
	// 商品ごとの一覧（Product込み）
	ListByUserID(ctx context.Context, userID int64) ([]model.CartLine, error)
	FindByID(ctx context.Context, lineID int64) (model.CartLine, error)
	// (user, product) が既にあれば数量+1、無ければquantity=1で作成
	UpsertByUserAndProduct(ctx context.Context, userID int64, productID int64) (model.CartLine, error)
	// 数量+1（上限なし）。失われる更新が出ないようDB側で加算する。
	IncrementQuantity(ctx context.Context, lineID int64) (model.CartLine, error)
	// 数量-1。quantity=1のときはErrQuantityFloorで拒否（削除もクランプもしない）。
	DecrementQuantity(ctx context.Context, lineID int64) (model.CartLine, error)
	DeleteByID(ctx context.Context, lineID int64) error
	DeleteByUserID(ctx context.Context, userID int64) error
}
