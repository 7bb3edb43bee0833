package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"shopapp/internal/domain/model"
	repo "shopapp/internal/repository"
)

const relatedProductsLimit = 4

// CatalogUsecase はカタログの読み取り（カテゴリ・商品・検索・商品詳細）。
type CatalogUsecase struct {
	categoryRepo  repo.CategoryRepository
	productRepo   repo.ProductRepository
	reviewRepo    repo.ReviewRepository
	orderItemRepo repo.OrderItemRepository
}

func NewCatalogUsecase(
	categoryRepo repo.CategoryRepository,
	productRepo repo.ProductRepository,
	reviewRepo repo.ReviewRepository,
	orderItemRepo repo.OrderItemRepository,
) *CatalogUsecase {
	return &CatalogUsecase{
		categoryRepo:  categoryRepo,
		productRepo:   productRepo,
		reviewRepo:    reviewRepo,
		orderItemRepo: orderItemRepo,
	}
}

type CategoryListResponse struct {
	Items []model.Category `json:"items"`
}

type CategoryProductsResponse struct {
	Category model.Category  `json:"category"`
	Items    []model.Product `json:"items"`
}

type ProductListResponse struct {
	Items []model.Product `json:"items"`
}

// 商品詳細。フラグは未ログイン（viewerID=0）のときfalse。
type ProductDetailResponse struct {
	Product         model.Product    `json:"product"`
	RelatedProducts []model.Product  `json:"related_products"`
	Reviews         []ReviewResponse `json:"reviews"`
	AverageRating   float64          `json:"average_rating"`
	HasPurchased    bool             `json:"has_purchased"`
	HasReviewed     bool             `json:"has_reviewed"`
}

func (u *CatalogUsecase) ListCategories(ctx context.Context) (CategoryListResponse, error) {
	categories, err := u.categoryRepo.List(ctx)
	if err != nil {
		return CategoryListResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return CategoryListResponse{Items: categories}, nil
}

func (u *CatalogUsecase) CategoryProducts(ctx context.Context, categoryID int64) (CategoryProductsResponse, error) {
	if categoryID <= 0 {
		return CategoryProductsResponse{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	category, err := u.categoryRepo.FindByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return CategoryProductsResponse{}, NewHTTPError(http.StatusNotFound, "category not found")
		}
		return CategoryProductsResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	products, err := u.productRepo.ListByCategoryID(ctx, categoryID)
	if err != nil {
		return CategoryProductsResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return CategoryProductsResponse{Category: category, Items: products}, nil
}

// Search は名前・説明・カテゴリ名の部分一致。空クエリは空の結果。
func (u *CatalogUsecase) Search(ctx context.Context, query string) (ProductListResponse, error) {
	if strings.TrimSpace(query) == "" {
		return ProductListResponse{Items: []model.Product{}}, nil
	}

	products, err := u.productRepo.Search(ctx, query)
	if err != nil {
		return ProductListResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return ProductListResponse{Items: products}, nil
}

// ProductDetail は商品＋関連商品＋レビュー＋平均点＋表示用フラグ。
func (u *CatalogUsecase) ProductDetail(ctx context.Context, productID int64, viewerID int64) (ProductDetailResponse, error) {
	if productID <= 0 {
		return ProductDetailResponse{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	product, err := u.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ProductDetailResponse{}, NewHTTPError(http.StatusNotFound, "product not found")
		}
		return ProductDetailResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	related, err := u.productRepo.ListRelated(ctx, product.CategoryID, product.ID, relatedProductsLimit)
	if err != nil {
		return ProductDetailResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	reviews, err := u.reviewRepo.ListByProductID(ctx, productID)
	if err != nil {
		return ProductDetailResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	avg, err := u.reviewRepo.AverageRating(ctx, productID)
	if err != nil {
		return ProductDetailResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	out := ProductDetailResponse{
		Product:         product,
		RelatedProducts: related,
		AverageRating:   roundRating(avg),
	}

	out.Reviews = make([]ReviewResponse, 0, len(reviews))
	for _, rv := range reviews {
		out.Reviews = append(out.Reviews, toReviewResponse(rv))
	}

	//ログイン中だけ購入済み/レビュー済みを調べる
	if viewerID > 0 {
		purchased, err := u.orderItemRepo.ExistsByUserAndProduct(ctx, viewerID, productID)
		if err != nil {
			return ProductDetailResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		reviewed, err := u.reviewRepo.ExistsByUserAndProduct(ctx, viewerID, productID)
		if err != nil {
			return ProductDetailResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out.HasPurchased = purchased
		out.HasReviewed = reviewed
	}

	return out, nil
}
