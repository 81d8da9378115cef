package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/internal/validator"

	"github.com/shopspring/decimal"
)

type ProductUsecase struct {
	productRepo repo.ProductRepository
	tx          repo.TransactionManager
	ids         IDGenerator
	clock       Clock
}

// DI
func NewProductUsecase(
	productRepo repo.ProductRepository,
	tx repo.TransactionManager,
	ids IDGenerator,
	clock Clock,
) *ProductUsecase {
	return &ProductUsecase{
		productRepo: productRepo,
		tx:          tx,
		ids:         ids,
		clock:       clock,
	}
}

// GET /productsの入力DTO
type ListProductsInput struct {
	Page     int
	Limit    int
	Q        string
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Sort     string
}

type ProductListOutput struct {
	Items []model.Product `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

func (u *ProductUsecase) ListPublicProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if in.Page < 1 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if len(in.Q) > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "q too long")
	}
	if len(in.Category) > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "category too long")
	}
	if in.MinPrice != nil && in.MinPrice.IsNegative() {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "min_price must be >= 0")
	}
	if in.MaxPrice != nil && in.MaxPrice.IsNegative() {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "max_price must be >= 0")
	}
	if in.MinPrice != nil && in.MaxPrice != nil && in.MinPrice.GreaterThan(*in.MaxPrice) {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "min_price must be <= max_price")
	}
	switch in.Sort {
	case "", "new", "price_asc", "price_desc":
	default:
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid sort")
	}

	items, total, err := u.productRepo.ListPublic(ctx, repo.ProductListQuery{
		Page:     in.Page,
		Limit:    in.Limit,
		Q:        strings.TrimSpace(in.Q),
		Category: strings.TrimSpace(in.Category),
		MinPrice: in.MinPrice,
		MaxPrice: in.MaxPrice,
		Sort:     in.Sort,
	})
	if err != nil {
		return ProductListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return ProductListOutput{
		Items: items,
		Total: total,
		Page:  in.Page,
		Limit: in.Limit,
	}, nil
}

func (u *ProductUsecase) GetProductDetail(ctx context.Context, productID string) (model.Product, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" || len(productID) > 64 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if !p.IsActive {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	return p, nil
}

// カートに入れる時点の商品スナップショット（公開中のみ）
func (u *ProductUsecase) GetSnapshot(ctx context.Context, productID string) (model.ProductSnapshot, error) {
	p, err := u.GetProductDetail(ctx, productID)
	if err != nil {
		return model.ProductSnapshot{}, err
	}
	return p.Snapshot(), nil
}

type AdminProductInput struct {
	Name          string       `json:"name" validate:"required,max=255"`
	Description   string       `json:"description"`
	Image         string       `json:"image" validate:"required"`
	Category      string       `json:"category" validate:"max=100"`
	Price         model.Price  `json:"price"`
	OriginalPrice *model.Price `json:"original_price"`
	PackAmount    int64        `json:"pack_amount" validate:"gte=0"`
	PackUnit      string       `json:"pack_unit" validate:"max=20"`
	IsActive      bool         `json:"is_active"`
}

func (in AdminProductInput) check() error {
	if err := validator.Check(in); err != nil {
		return NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if in.Price.IsNegative() {
		return NewHTTPError(http.StatusBadRequest, "price must be >= 0")
	}
	if in.OriginalPrice != nil && in.OriginalPrice.IsNegative() {
		return NewHTTPError(http.StatusBadRequest, "original_price must be >= 0")
	}
	return nil
}

func (in AdminProductInput) apply(p *model.Product) {
	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	p.Image = strings.TrimSpace(in.Image)
	p.Category = strings.TrimSpace(in.Category)
	p.Price = model.RoundPrice(in.Price.Decimal)
	p.OriginalPrice = decimal.NullDecimal{}
	if in.OriginalPrice != nil {
		p.OriginalPrice = decimal.NewNullDecimal(model.RoundPrice(in.OriginalPrice.Decimal))
	}
	p.PackAmount = in.PackAmount
	if p.PackAmount == 0 {
		p.PackAmount = 1
	}
	p.PackUnit = strings.TrimSpace(in.PackUnit)
	p.IsActive = in.IsActive
}

func (u *ProductUsecase) AdminCreateProduct(ctx context.Context, actor string, in AdminProductInput) (string, error) {
	if strings.TrimSpace(actor) == "" {
		return "", NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := in.check(); err != nil {
		return "", err
	}

	now := u.clock.Now()
	p := model.Product{
		ID:        u.ids.NewID(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	in.apply(&p)

	created, err := u.productRepo.Create(ctx, p)
	if err != nil {
		return "", NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return created.ID, nil
}

func (u *ProductUsecase) AdminUpdateProduct(ctx context.Context, actor string, productID string, in AdminProductInput) error {
	if strings.TrimSpace(actor) == "" {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if strings.TrimSpace(productID) == "" {
		return NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if err := in.check(); err != nil {
		return err
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Products().FindByID(ctx, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		after := before
		in.apply(&after)
		after.UpdatedAt = u.clock.Now()

		if err := r.Products().Update(ctx, after); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusNotFound, "not found")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//監査ログ（UPDATE_PRODUCT）
		return writeAudit(ctx, r, model.AuditLog{
			Actor:        actor,
			Action:       model.AuditActionUpdateProduct,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   productID,
			BeforeJSON:   toJSON(before),
			AfterJSON:    toJSON(after),
			CreatedAt:    u.clock.Now(),
		})
	})
}

func (u *ProductUsecase) AdminDeleteProduct(ctx context.Context, actor string, productID string) error {
	if strings.TrimSpace(actor) == "" {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if strings.TrimSpace(productID) == "" {
		return NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Products().FindByID(ctx, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.Products().SoftDelete(ctx, productID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusNotFound, "not found")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		return writeAudit(ctx, r, model.AuditLog{
			Actor:        actor,
			Action:       model.AuditActionDeleteProduct,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   productID,
			BeforeJSON:   toJSON(before),
			CreatedAt:    u.clock.Now(),
		})
	})
}

func writeAudit(ctx context.Context, r repo.TxRepos, log model.AuditLog) error {
	if err := r.AuditLogs().Create(ctx, log); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

// 監査ログ用。失敗したら空文字
func toJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
