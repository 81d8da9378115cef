package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
)

// カート明細の保存・取得の約束。
// すべての操作はオーナーキーで絞り込む（他のオーナーの行には触れない）。
type CartLineRepository interface {
	//オーナーの明細一覧（作成順）
	ListByOwner(ctx context.Context, ownerKey string) ([]model.CartLine, error)

	//オーナー×商品で1件取得。forUpdateなら行ロック
	FindByOwnerAndProduct(ctx context.Context, ownerKey string, productID string, forUpdate bool) (model.CartLine, error)

	//新規作成。同じオーナー×商品が既にあれば ErrDuplicate
	Create(ctx context.Context, line model.CartLine) error

	//数量とupdated_atを更新
	UpdateQuantity(ctx context.Context, lineID string, qty int64, updatedAt time.Time) error

	//オーナー×商品の明細を削除（無くてもエラーにしない）。削除件数を返す
	DeleteByOwnerAndProduct(ctx context.Context, ownerKey string, productID string) (int64, error)

	//オーナーの明細のうち指定IDだけ削除（注文に入った行の後始末）。削除件数を返す
	DeleteByOwnerAndIDs(ctx context.Context, ownerKey string, ids []string) (int64, error)

	//オーナーの明細を全削除。削除件数を返す
	DeleteAllByOwner(ctx context.Context, ownerKey string) (int64, error)
}
