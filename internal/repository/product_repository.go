package repository

import (
	"context"
	"errors"

	"shopapp/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// 商品の取得だけを約束（この系から商品は書き換えない）。
type ProductRepository interface {
	FindByID(ctx context.Context, id int64) (model.Product, error)
	ListByCategoryID(ctx context.Context, categoryID int64) ([]model.Product, error)
	// 同カテゴリの関連商品（自分自身は除く）
	ListRelated(ctx context.Context, categoryID int64, excludeProductID int64, limit int) ([]model.Product, error)
	// 名前・説明・カテゴリ名の部分一致（大文字小文字を区別しない）
	Search(ctx context.Context, query string) ([]model.Product, error)
}

type CategoryRepository interface {
	List(ctx context.Context) ([]model.Category, error)
	FindByID(ctx context.Context, id int64) (model.Category, error)
}
