package usecase

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/internal/validator"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// CartUsecase はカート明細の業務ロジック。
// オーナーごとの操作は ForOwner で得た CartStore を使う。
type CartUsecase struct {
	lines   repo.CartLineRepository
	tx      repo.TransactionManager
	ids     IDGenerator
	clock   Clock
	log     logrus.FieldLogger
	locks   *ownerLocks
	watcher *CartWatcher
}

func NewCartUsecase(
	lines repo.CartLineRepository,
	tx repo.TransactionManager,
	ids IDGenerator,
	clock Clock,
	log logrus.FieldLogger,
	watcher *CartWatcher,
) *CartUsecase {
	if watcher == nil {
		watcher = NewCartWatcher()
	}
	return &CartUsecase{
		lines:   lines,
		tx:      tx,
		ids:     ids,
		clock:   clock,
		log:     log,
		locks:   newOwnerLocks(),
		watcher: watcher,
	}
}

// ForOwner はオーナーキーに束縛したカートを返す。
// キーは正規化される（空ならゲスト用キー）。
func (u *CartUsecase) ForOwner(ownerKey string) *CartStore {
	return &CartStore{u: u, ownerKey: model.NormalizeOwnerKey(ownerKey)}
}

// CartStore は1オーナー分のカート。
// 更新系は失敗してもpanicせず false を返す（原因はログに出す）。
type CartStore struct {
	u        *CartUsecase
	ownerKey string
}

func (s *CartStore) OwnerKey() string {
	return s.ownerKey
}

// AddToCart は商品を追加する。同じ商品の明細があれば数量を足す。
func (s *CartStore) AddToCart(ctx context.Context, snap model.ProductSnapshot, quantity int64) bool {
	log := s.logger().WithField("product_id", snap.ID)

	if quantity < 1 {
		log.WithField("quantity", quantity).Warn("add to cart rejected: quantity must be positive")
		return false
	}
	if err := validator.CheckSnapshot(snap); err != nil {
		log.WithError(err).Warn("add to cart rejected: invalid product")
		return false
	}

	unlock := s.u.locks.lock(s.ownerKey)
	defer unlock()

	add := func(r repo.TxRepos) error {
		now := s.u.clock.Now()

		line, err := r.CartLines().FindByOwnerAndProduct(ctx, s.ownerKey, snap.ID, true)
		if err == nil {
			return r.CartLines().UpdateQuantity(ctx, line.ID, line.Quantity+quantity, now)
		}
		if !errors.Is(err, repo.ErrNotFound) {
			return err
		}

		line = snap.NewCartLine(s.u.ids.NewID(), s.ownerKey, quantity)
		line.CreatedAt = now
		line.UpdatedAt = now
		return r.CartLines().Create(ctx, line)
	}

	err := s.u.tx.WithinTx(ctx, add)
	if errors.Is(err, repo.ErrDuplicate) {
		//別プロセスが先に同じ商品を入れた。次はマージになる
		log.Debug("add to cart: concurrent insert, retrying as merge")
		err = s.u.tx.WithinTx(ctx, add)
	}
	if err != nil {
		log.WithError(err).Error("add to cart failed")
		return false
	}

	s.publish(ctx)
	return true
}

// RemoveFromCart は明細を消す。無ければ何もせず成功。
func (s *CartStore) RemoveFromCart(ctx context.Context, productID string) bool {
	unlock := s.u.locks.lock(s.ownerKey)
	defer unlock()

	return s.remove(ctx, productID)
}

func (s *CartStore) remove(ctx context.Context, productID string) bool {
	var deleted int64
	err := s.u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		n, err := r.CartLines().DeleteByOwnerAndProduct(ctx, s.ownerKey, productID)
		deleted = n
		return err
	})
	if err != nil {
		s.logger().WithField("product_id", productID).WithError(err).Error("remove from cart failed")
		return false
	}

	if deleted > 0 {
		s.publish(ctx)
	}
	return true
}

// UpdateQuantity は数量を上書きする。1未満なら削除。
// 明細が無い場合は作らずに成功を返す。
func (s *CartStore) UpdateQuantity(ctx context.Context, productID string, quantity int64) bool {
	unlock := s.u.locks.lock(s.ownerKey)
	defer unlock()

	if quantity < 1 {
		return s.remove(ctx, productID)
	}

	changed := false
	err := s.u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		line, err := r.CartLines().FindByOwnerAndProduct(ctx, s.ownerKey, productID, true)
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		changed = true
		return r.CartLines().UpdateQuantity(ctx, line.ID, quantity, s.u.clock.Now())
	})
	if err != nil {
		s.logger().WithFields(logrus.Fields{
			"product_id": productID,
			"quantity":   quantity,
		}).WithError(err).Error("update quantity failed")
		return false
	}

	if changed {
		s.publish(ctx)
	}
	return true
}

// ClearCart はこのオーナーの明細をすべて消す
func (s *CartStore) ClearCart(ctx context.Context) bool {
	unlock := s.u.locks.lock(s.ownerKey)
	defer unlock()

	var deleted int64
	err := s.u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		n, err := r.CartLines().DeleteAllByOwner(ctx, s.ownerKey)
		deleted = n
		return err
	})
	if err != nil {
		s.logger().WithError(err).Error("clear cart failed")
		return false
	}

	if deleted > 0 {
		s.publish(ctx)
	}
	return true
}

// Lines は現在の明細（作成順）
func (s *CartStore) Lines(ctx context.Context) ([]model.CartLine, error) {
	return s.u.lines.ListByOwner(ctx, s.ownerKey)
}

// 読み取り失敗時は空のカートとして扱う
func (s *CartStore) linesOrEmpty(ctx context.Context) []model.CartLine {
	lines, err := s.Lines(ctx)
	if err != nil {
		s.logger().WithError(err).Error("read cart failed")
		return nil
	}
	return lines
}

func (s *CartStore) GetTotalItems(ctx context.Context) int64 {
	return model.TotalItems(s.linesOrEmpty(ctx))
}

func (s *CartStore) GetTotalPrice(ctx context.Context) decimal.Decimal {
	return model.TotalPrice(s.linesOrEmpty(ctx))
}

func (s *CartStore) IsInCart(ctx context.Context, productID string) bool {
	return s.GetProductQuantity(ctx, productID) > 0
}

// 明細が無ければ0
func (s *CartStore) GetProductQuantity(ctx context.Context, productID string) int64 {
	line, err := s.u.lines.FindByOwnerAndProduct(ctx, s.ownerKey, productID, false)
	if errors.Is(err, repo.ErrNotFound) {
		return 0
	}
	if err != nil {
		s.logger().WithField("product_id", productID).WithError(err).Error("read cart line failed")
		return 0
	}
	return line.Quantity
}

// Subscribe は更新のたびに最新の明細を受け取る。
// 受信が遅い場合は途中の値を飛ばして最新だけが届く。
func (s *CartStore) Subscribe() (<-chan []model.CartLine, func()) {
	return s.u.watcher.Subscribe(s.ownerKey)
}

// commit後に購読者へ配る（ロック保持中に呼ぶ）
func (s *CartStore) publish(ctx context.Context) {
	if !s.u.watcher.HasSubscribers(s.ownerKey) {
		return
	}

	lines, err := s.u.lines.ListByOwner(context.WithoutCancel(ctx), s.ownerKey)
	if err != nil {
		s.logger().WithError(err).Warn("reload cart for subscribers failed")
		return
	}
	s.u.watcher.Publish(s.ownerKey, lines)
}

func (s *CartStore) logger() logrus.FieldLogger {
	return s.u.log.WithField("owner_key", s.ownerKey)
}
