package repository

import (
	"context"
	"errors"
	"time"

	"shopapp/internal/domain/model"
	repo "shopapp/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartGormRepository struct {
	db *gorm.DB
}

// DI
func NewCartGormRepository(db *gorm.DB) *CartGormRepository {
	return &CartGormRepository{db: db}
}

// ユーザーのカート明細を商品込みで一覧取得
func (r *CartGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.CartLine, error) {
	var lines []model.CartLine

	if err := r.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("id asc").
		Find(&lines).Error; err != nil {
		return []model.CartLine{}, err
	}

	return lines, nil
}

// 明細を商品込みで取得
func (r *CartGormRepository) FindByID(ctx context.Context, lineID int64) (model.CartLine, error) {
	var line model.CartLine

	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("id = ?", lineID).
		First(&line).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.CartLine{}, repo.ErrNotFound
	}
	if err != nil {
		return model.CartLine{}, err
	}
	return line, nil
}

// (user, product) が既にあれば数量+1、無ければquantity=1で作成
func (r *CartGormRepository) UpsertByUserAndProduct(ctx context.Context, userID int64, productID int64) (model.CartLine, error) {
	var lineID int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var line model.CartLine

		findErr := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND product_id = ?", userID, productID).
			First(&line).Error

		if findErr == nil {
			//既存ありだったら数量をDB側で加算する
			res := tx.Model(&model.CartLine{}).
				Where("id = ?", line.ID).
				Update("quantity", gorm.Expr("quantity + 1"))

			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return repo.ErrNotFound
			}
			lineID = line.ID
			return nil
		}

		if !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return findErr
		}

		//無い場合はquantity=1で新規作成
		now := time.Now()
		newLine := model.CartLine{
			UserID:    userID,
			ProductID: productID,
			Quantity:  1,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := tx.Omit("Product").Create(&newLine).Error; err != nil {
			//同時作成でユニーク制約に負けたら既存行に加算し直す
			var existing model.CartLine
			retryErr := tx.
				Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("user_id = ? AND product_id = ?", userID, productID).
				First(&existing).Error
			if retryErr != nil {
				return err
			}

			res := tx.Model(&model.CartLine{}).
				Where("id = ?", existing.ID).
				Update("quantity", gorm.Expr("quantity + 1"))
			if res.Error != nil {
				return res.Error
			}
			lineID = existing.ID
			return nil
		}

		lineID = newLine.ID
		return nil
	})

	if err != nil {
		return model.CartLine{}, err
	}
	return r.FindByID(ctx, lineID)
}

// 数量+1（上限なし）。加算はUPDATE一文で行う。
func (r *CartGormRepository) IncrementQuantity(ctx context.Context, lineID int64) (model.CartLine, error) {
	res := r.db.WithContext(ctx).
		Model(&model.CartLine{}).
		Where("id = ?", lineID).
		Update("quantity", gorm.Expr("quantity + 1"))

	if res.Error != nil {
		return model.CartLine{}, res.Error
	}
	if res.RowsAffected == 0 {
		return model.CartLine{}, repo.ErrNotFound
	}

	return r.FindByID(ctx, lineID)
}

// 数量-1。quantity=1の行は更新せずErrQuantityFloorを返す。
func (r *CartGormRepository) DecrementQuantity(ctx context.Context, lineID int64) (model.CartLine, error) {
	res := r.db.WithContext(ctx).
		Model(&model.CartLine{}).
		Where("id = ? AND quantity > 1", lineID).
		Update("quantity", gorm.Expr("quantity - 1"))

	if res.Error != nil {
		return model.CartLine{}, res.Error
	}

	if res.RowsAffected == 0 {
		//行が無いのか、下限で弾かれたのかを区別する
		if _, err := r.FindByID(ctx, lineID); err != nil {
			return model.CartLine{}, err
		}
		return model.CartLine{}, repo.ErrQuantityFloor
	}

	return r.FindByID(ctx, lineID)
}

// 明細を削除
func (r *CartGormRepository) DeleteByID(ctx context.Context, lineID int64) error {
	res := r.db.WithContext(ctx).Delete(&model.CartLine{}, lineID)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// ユーザーの明細を全削除（チェックアウト完了時）
func (r *CartGormRepository) DeleteByUserID(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.CartLine{}).Error
}
