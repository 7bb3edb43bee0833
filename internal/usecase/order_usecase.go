package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"shopapp/internal/domain/model"
	repo "shopapp/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderUsecase はチェックアウトと注文履歴を扱う。
// カート読み取り→価格読み取り→注文作成→明細作成→カート削除は1トランザクション。
type OrderUsecase struct {
	tx repo.TransactionManager
}

func NewOrderUsecase(tx repo.TransactionManager) *OrderUsecase {
	return &OrderUsecase{tx: tx}
}

type CheckoutInput struct {
	Address        string
	Phone          string
	PaymentMethod  string
	JazzcashNumber string
}

type OrderItemOutput struct {
	ProductID int64           `json:"product_id"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int64           `json:"quantity"`
}

type OrderOutput struct {
	ID            int64             `json:"id"`
	Reference     string            `json:"reference"`
	UserID        int64             `json:"user_id"`
	TotalAmount   decimal.Decimal   `json:"total_amount"`
	Address       string            `json:"address"`
	Phone         string            `json:"phone"`
	PaymentMethod string            `json:"payment_method"`
	CreatedAt     time.Time         `json:"created_at"`
	Items         []OrderItemOutput `json:"items"`
}

// チェックアウト結果。ProductIDsは下流のレビュー導線で使う。
type CheckoutOutput struct {
	Order      OrderOutput `json:"order"`
	ProductIDs []int64     `json:"product_ids"`
	Message    string      `json:"message"`
}

// Checkout はカートを不変の注文スナップショットへ変換する。
// 明細作成が途中で失敗したら注文もカート削除も全部巻き戻る。
// 空カートも通す（0明細・合計0の注文になる）。
func (u *OrderUsecase) Checkout(ctx context.Context, userID int64, in CheckoutInput) (CheckoutOutput, error) {
	if userID <= 0 {
		return CheckoutOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if strings.TrimSpace(in.Address) == "" {
		return CheckoutOutput{}, NewHTTPError(http.StatusBadRequest, "address is required")
	}
	if strings.TrimSpace(in.Phone) == "" {
		return CheckoutOutput{}, NewHTTPError(http.StatusBadRequest, "phone is required")
	}

	var out CheckoutOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		lines, err := r.CartLines().ListByUserID(ctx, userID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//同一トランザクション内の現在価格でスナップショットを作る
		items := make([]model.OrderItem, 0, len(lines))
		productIDs := make([]int64, 0, len(lines))
		total := decimal.Zero
		now := time.Now()

		for _, ln := range lines {
			p, err := r.Products().FindByID(ctx, ln.ProductID)
			if err != nil {
				if errors.Is(err, repo.ErrNotFound) {
					return NewHTTPError(http.StatusNotFound, "product not found")
				}
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}

			items = append(items, model.OrderItem{
				ProductID: ln.ProductID,
				Quantity:  ln.Quantity,
				Price:     p.Price,
				CreatedAt: now,
			})
			productIDs = append(productIDs, ln.ProductID)

			total = total.Add(p.Price.Mul(decimal.NewFromInt(ln.Quantity)))
		}

		order := model.Order{
			UserID:        userID,
			Reference:     uuid.NewString(),
			TotalAmount:   total,
			Address:       in.Address,
			Phone:         in.Phone,
			PaymentMethod: in.PaymentMethod,
			CreatedAt:     now,
		}

		orderID, err := r.Orders().Create(ctx, order)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.OrderItems().CreateBulk(ctx, orderID, items); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.CartLines().DeleteByUserID(ctx, userID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		order.ID = orderID
		for i := range items {
			items[i].OrderID = orderID
		}

		out = CheckoutOutput{
			Order:      toOrderOutput(order, items),
			ProductIDs: productIDs,
			Message:    checkoutMessage(in),
		}
		return nil
	})

	if err != nil {
		return CheckoutOutput{}, err
	}
	return out, nil
}

// ListMyOrders は自分の注文履歴（新しい順）。
func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64) ([]OrderOutput, error) {
	if userID <= 0 {
		return []OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, err := r.Orders().ListByUserID(ctx, userID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			outs = append(outs, toOrderOutput(o, items))
		}
		return nil
	})

	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

func (u *OrderUsecase) GetMyOrder(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusNotFound, "not found")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if o.UserID != userID {
			//他人の注文は「存在しない扱い」にする
			return NewHTTPError(http.StatusNotFound, "not found")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// 支払い方法はラベルで、メッセージ文面だけjazzcash向けに変える。
func checkoutMessage(in CheckoutInput) string {
	if strings.EqualFold(strings.TrimSpace(in.PaymentMethod), "jazzcash") {
		return fmt.Sprintf("Order placed successfully! Payment will be processed through JazzCash (%s)", in.JazzcashNumber)
	}
	return "Order placed successfully! You can pay on delivery."
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID: it.ProductID,
			Price:     it.Price,
			Quantity:  it.Quantity,
		})
	}

	return OrderOutput{
		ID:            o.ID,
		Reference:     o.Reference,
		UserID:        o.UserID,
		TotalAmount:   o.TotalAmount,
		Address:       o.Address,
		Phone:         o.Phone,
		PaymentMethod: o.PaymentMethod,
		CreatedAt:     o.CreatedAt,
		Items:         outItems,
	}
}
