package repository

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type CartLineGormRepository struct {
	db *gorm.DB
}

// DI
func NewCartLineGormRepository(db *gorm.DB) *CartLineGormRepository {
	return &CartLineGormRepository{db: db}
}

var _ repo.CartLineRepository = (*CartLineGormRepository)(nil)

// オーナーの明細を作成順で返す
func (r *CartLineGormRepository) ListByOwner(ctx context.Context, ownerKey string) ([]model.CartLine, error) {
	var lines []model.CartLine

	if err := r.db.WithContext(ctx).
		Where("owner_key = ?", ownerKey).
		Order("created_at asc").
		Order("id asc").
		Find(&lines).Error; err != nil {
		return []model.CartLine{}, fmt.Errorf("list cart lines: %w", err)
	}

	return lines, nil
}

// オーナー×商品で1件取得
func (r *CartLineGormRepository) FindByOwnerAndProduct(ctx context.Context, ownerKey string, productID string, forUpdate bool) (model.CartLine, error) {
	var line model.CartLine

	q := r.db.WithContext(ctx)
	if forUpdate {
		q = lockForUpdate(q)
	}

	err := q.
		Where("owner_key = ? AND product_id = ?", ownerKey, productID).
		Take(&line).Error
	if err != nil {
		return model.CartLine{}, translate(err)
	}
	return line, nil
}

// 明細の新規作成
func (r *CartLineGormRepository) Create(ctx context.Context, line model.CartLine) error {
	if line.Quantity < 1 {
		return fmt.Errorf("create cart line: invalid quantity %d", line.Quantity)
	}
	if err := r.db.WithContext(ctx).Create(&line).Error; err != nil {
		return translate(err)
	}
	return nil
}

// 明細の数量を更新
func (r *CartLineGormRepository) UpdateQuantity(ctx context.Context, lineID string, qty int64, updatedAt time.Time) error {
	if qty < 1 {
		return fmt.Errorf("update cart line: invalid quantity %d", qty)
	}

	res := r.db.WithContext(ctx).
		Model(&model.CartLine{}).
		Where("id = ?", lineID).
		Updates(map[string]interface{}{
			"quantity":   qty,
			"updated_at": updatedAt,
		})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// オーナー×商品の明細を削除
func (r *CartLineGormRepository) DeleteByOwnerAndProduct(ctx context.Context, ownerKey string, productID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("owner_key = ? AND product_id = ?", ownerKey, productID).
		Delete(&model.CartLine{})

	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// オーナーの明細をIDで削除（他のオーナーの行は消さない）
func (r *CartLineGormRepository) DeleteByOwnerAndIDs(ctx context.Context, ownerKey string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	res := r.db.WithContext(ctx).
		Where("owner_key = ? AND id IN ?", ownerKey, ids).
		Delete(&model.CartLine{})

	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// オーナーの明細を全削除
func (r *CartLineGormRepository) DeleteAllByOwner(ctx context.Context, ownerKey string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("owner_key = ?", ownerKey).
		Delete(&model.CartLine{})

	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
