package usecase

import (
	"context"
	"errors"
	"math"
	"net/http"
	"time"

	"shopapp/internal/domain/model"
	repo "shopapp/internal/repository"
)

// ReviewUsecase はレビューの投稿と集計を扱う。
// 購入済みかどうかは表示用の情報で、投稿の条件にはしない。
type ReviewUsecase struct {
	reviewRepo    repo.ReviewRepository
	productRepo   repo.ProductRepository
	orderItemRepo repo.OrderItemRepository
}

func NewReviewUsecase(
	reviewRepo repo.ReviewRepository,
	productRepo repo.ProductRepository,
	orderItemRepo repo.OrderItemRepository,
) *ReviewUsecase {
	return &ReviewUsecase{
		reviewRepo:    reviewRepo,
		productRepo:   productRepo,
		orderItemRepo: orderItemRepo,
	}
}

type SubmitReviewInput struct {
	Rating  int
	Comment string
}

type ReviewResponse struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	ProductID int64     `json:"product_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

type ProductReviewsResponse struct {
	Items         []ReviewResponse `json:"items"`
	AverageRating float64          `json:"average_rating"`
}

type ReviewEligibilityResponse struct {
	HasPurchased bool `json:"has_purchased"`
	HasReviewed  bool `json:"has_reviewed"`
}

// SubmitReview は(user, product)キーのupsert。再投稿は同じ行を上書きする。
func (u *ReviewUsecase) SubmitReview(ctx context.Context, userID int64, productID int64, in SubmitReviewInput) (ReviewResponse, error) {
	if userID <= 0 {
		return ReviewResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return ReviewResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if in.Rating < 1 || in.Rating > 5 {
		return ReviewResponse{}, NewHTTPError(http.StatusUnprocessableEntity, "rating must be between 1 and 5")
	}

	if _, err := u.productRepo.FindByID(ctx, productID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ReviewResponse{}, NewHTTPError(http.StatusNotFound, "product not found")
		}
		return ReviewResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	now := time.Now()
	review, err := u.reviewRepo.Upsert(ctx, model.Review{
		UserID:    userID,
		ProductID: productID,
		Rating:    in.Rating,
		Comment:   in.Comment,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return ReviewResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return toReviewResponse(review), nil
}

// ProductReviews はレビュー一覧と平均点（小数1桁、0件なら0）。
func (u *ReviewUsecase) ProductReviews(ctx context.Context, productID int64) (ProductReviewsResponse, error) {
	if productID <= 0 {
		return ProductReviewsResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}

	if _, err := u.productRepo.FindByID(ctx, productID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ProductReviewsResponse{}, NewHTTPError(http.StatusNotFound, "product not found")
		}
		return ProductReviewsResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	reviews, err := u.reviewRepo.ListByProductID(ctx, productID)
	if err != nil {
		return ProductReviewsResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	avg, err := u.reviewRepo.AverageRating(ctx, productID)
	if err != nil {
		return ProductReviewsResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	items := make([]ReviewResponse, 0, len(reviews))
	for _, rv := range reviews {
		items = append(items, toReviewResponse(rv))
	}

	return ProductReviewsResponse{
		Items:         items,
		AverageRating: roundRating(avg),
	}, nil
}

// Eligibility は購入済みフラグとレビュー済みフラグを返す。
// どちらも表示用で、投稿はこの結果に関係なくできる。
func (u *ReviewUsecase) Eligibility(ctx context.Context, userID int64, productID int64) (ReviewEligibilityResponse, error) {
	if userID <= 0 {
		return ReviewEligibilityResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return ReviewEligibilityResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}

	if _, err := u.productRepo.FindByID(ctx, productID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ReviewEligibilityResponse{}, NewHTTPError(http.StatusNotFound, "product not found")
		}
		return ReviewEligibilityResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	purchased, err := u.orderItemRepo.ExistsByUserAndProduct(ctx, userID, productID)
	if err != nil {
		return ReviewEligibilityResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	reviewed, err := u.reviewRepo.ExistsByUserAndProduct(ctx, userID, productID)
	if err != nil {
		return ReviewEligibilityResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return ReviewEligibilityResponse{HasPurchased: purchased, HasReviewed: reviewed}, nil
}

// 小数1桁に丸める
func roundRating(avg float64) float64 {
	return math.Round(avg*10) / 10
}

func toReviewResponse(rv model.Review) ReviewResponse {
	return ReviewResponse{
		ID:        rv.ID,
		UserID:    rv.UserID,
		ProductID: rv.ProductID,
		Rating:    rv.Rating,
		Comment:   rv.Comment,
		CreatedAt: rv.CreatedAt,
	}
}
