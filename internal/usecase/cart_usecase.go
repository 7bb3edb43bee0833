package usecase

import (
	"context"
	"errors"
	"net/http"

	"shopapp/internal/domain/model"
	repo "shopapp/internal/repository"

	"github.com/shopspring/decimal"
)

// CartUsecase は /cart の業務ロジックです。
// 合計は常に商品の現在価格から計算する（キャッシュしない）。
type CartUsecase struct {
	cartRepo    repo.CartRepository
	productRepo repo.ProductRepository
}

func NewCartUsecase(cartRepo repo.CartRepository, productRepo repo.ProductRepository) *CartUsecase {
	return &CartUsecase{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

type CartLineResponse struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int64           `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type CartResponse struct {
	Items []CartLineResponse `json:"items"`
	Total decimal.Decimal    `json:"total"`
}

// 部分更新（非同期）向けの最小ペイロード。
// 全体表示と同じtoCartLineResponseから導出する（二重の計算経路を作らない）。
type LineMutationResponse struct {
	Quantity  int64           `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// AddToCart は商品をカートに入れる。2回目以降は同じ行の数量+1。
func (u *CartUsecase) AddToCart(ctx context.Context, userID int64, productID int64) (CartLineResponse, error) {
	if userID <= 0 {
		return CartLineResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return CartLineResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}

	//商品チェック
	if _, err := u.productRepo.FindByID(ctx, productID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return CartLineResponse{}, NewHTTPError(http.StatusNotFound, "product not found")
		}
		return CartLineResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	line, err := u.cartRepo.UpsertByUserAndProduct(ctx, userID, productID)
	if err != nil {
		return CartLineResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return toCartLineResponse(line), nil
}

// IncreaseLine は数量+1（上限なし）。
func (u *CartUsecase) IncreaseLine(ctx context.Context, userID int64, lineID int64) (LineMutationResponse, error) {
	if _, err := u.ownedLine(ctx, userID, lineID); err != nil {
		return LineMutationResponse{}, err
	}

	line, err := u.cartRepo.IncrementQuantity(ctx, lineID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return LineMutationResponse{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return LineMutationResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	v := toCartLineResponse(line)
	return LineMutationResponse{Quantity: v.Quantity, LineTotal: v.LineTotal}, nil
}

// DecreaseLine は数量-1。quantity=1の行は拒否する（削除はRemoveLineで）。
func (u *CartUsecase) DecreaseLine(ctx context.Context, userID int64, lineID int64) (LineMutationResponse, error) {
	if _, err := u.ownedLine(ctx, userID, lineID); err != nil {
		return LineMutationResponse{}, err
	}

	line, err := u.cartRepo.DecrementQuantity(ctx, lineID)
	if err != nil {
		if errors.Is(err, repo.ErrQuantityFloor) {
			return LineMutationResponse{}, NewHTTPError(http.StatusBadRequest, "cannot decrease quantity below 1")
		}
		if errors.Is(err, repo.ErrNotFound) {
			return LineMutationResponse{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return LineMutationResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	v := toCartLineResponse(line)
	return LineMutationResponse{Quantity: v.Quantity, LineTotal: v.LineTotal}, nil
}

// RemoveLine は明細を削除する（quantity=1でも消せる）。
func (u *CartUsecase) RemoveLine(ctx context.Context, userID int64, lineID int64) (CartResponse, error) {
	if _, err := u.ownedLine(ctx, userID, lineID); err != nil {
		return CartResponse{}, err
	}

	if err := u.cartRepo.DeleteByID(ctx, lineID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return CartResponse{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return u.GetCart(ctx, userID)
}

// GetCart は明細一覧と合計を返す。合計は呼ぶたびに現在価格で計算する。
func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	lines, err := u.cartRepo.ListByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	items := make([]CartLineResponse, 0, len(lines))
	total := decimal.Zero

	for _, ln := range lines {
		v := toCartLineResponse(ln)
		items = append(items, v)
		total = total.Add(v.LineTotal)
	}

	return CartResponse{Items: items, Total: total}, nil
}

// 所有チェック。無ければ404、他人の明細なら403。
func (u *CartUsecase) ownedLine(ctx context.Context, userID int64, lineID int64) (model.CartLine, error) {
	if userID <= 0 {
		return model.CartLine{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if lineID <= 0 {
		return model.CartLine{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	line, err := u.cartRepo.FindByID(ctx, lineID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.CartLine{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return model.CartLine{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if line.UserID != userID {
		return model.CartLine{}, NewHTTPError(http.StatusForbidden, "forbidden")
	}

	return line, nil
}

func toCartLineResponse(line model.CartLine) CartLineResponse {
	price := line.Product.Price

	return CartLineResponse{
		ID:        line.ID,
		ProductID: line.ProductID,
		Name:      line.Product.Name,
		Price:     price,
		Quantity:  line.Quantity,
		LineTotal: price.Mul(decimal.NewFromInt(line.Quantity)),
	}
}
