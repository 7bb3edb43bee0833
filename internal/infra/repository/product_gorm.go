package repository

import (
	"context"
	"errors"
	"strings"

	"shopapp/internal/domain/model"
	repo "shopapp/internal/repository"

	"gorm.io/gorm"
)

type ProductGormRepository struct {
	db *gorm.DB
}

// DI
func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db}
}

// 商品を画像込みで1件取得
func (r *ProductGormRepository) FindByID(ctx context.Context, id int64) (model.Product, error) {
	var p model.Product

	err := r.db.WithContext(ctx).
		Preload("Images").
		Where("id = ?", id).
		First(&p).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Product{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Product{}, err
	}
	return p, nil
}

// カテゴリの商品一覧
func (r *ProductGormRepository) ListByCategoryID(ctx context.Context, categoryID int64) ([]model.Product, error) {
	var products []model.Product

	if err := r.db.WithContext(ctx).
		Preload("Images").
		Where("category_id = ?", categoryID).
		Order("id asc").
		Find(&products).Error; err != nil {
		return []model.Product{}, err
	}

	return products, nil
}

// 同カテゴリの関連商品（自分自身は除外）
func (r *ProductGormRepository) ListRelated(ctx context.Context, categoryID int64, excludeProductID int64, limit int) ([]model.Product, error) {
	var products []model.Product

	if err := r.db.WithContext(ctx).
		Preload("Images").
		Where("category_id = ? AND id <> ?", categoryID, excludeProductID).
		Order("id asc").
		Limit(limit).
		Find(&products).Error; err != nil {
		return []model.Product{}, err
	}

	return products, nil
}

// 名前・説明・カテゴリ名のILIKE部分一致
func (r *ProductGormRepository) Search(ctx context.Context, query string) ([]model.Product, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return []model.Product{}, nil
	}
	like := "%" + q + "%"

	var products []model.Product

	if err := r.db.WithContext(ctx).
		Joins("JOIN categories ON categories.id = products.category_id").
		Where("products.name ILIKE ? OR products.description ILIKE ? OR categories.name ILIKE ?", like, like, like).
		Preload("Images").
		Order("products.id asc").
		Find(&products).Error; err != nil {
		return []model.Product{}, err
	}

	return products, nil
}

type CategoryGormRepository struct {
	db *gorm.DB
}

// DI
func NewCategoryGormRepository(db *gorm.DB) *CategoryGormRepository {
	return &CategoryGormRepository{db: db}
}

func (r *CategoryGormRepository) List(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category

	if err := r.db.WithContext(ctx).
		Order("id asc").
		Find(&categories).Error; err != nil {
		return []model.Category{}, err
	}

	return categories, nil
}

func (r *CategoryGormRepository) FindByID(ctx context.Context, id int64) (model.Category, error) {
	var c model.Category

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&c).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Category{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Category{}, err
	}
	return c, nil
}
