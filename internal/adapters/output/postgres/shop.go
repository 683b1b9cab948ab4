package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorod-sporta/internal/core/domain/entities"
	"gorod-sporta/internal/core/domain/exceptions"
	"gorod-sporta/internal/infrastructure/db"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const shopItemColumns = `si.id, si.title, si.description, si.price, si.icon, si.image_url, si.category, si.is_active`

type ShopRepository struct {
	db  db.Querier
	log *zap.Logger
}

func NewShopRepository(db db.Querier, log *zap.Logger) *ShopRepository {
	if db == nil {
		log.Fatal("database querier is nil")
	}
	if log == nil {
		log.Fatal("logger is nil")
	}
	return &ShopRepository{
		db:  db,
		log: log,
	}
}

func shopItemDest(item *entities.ShopItem) []any {
	return []any{
		&item.ID,
		&item.Title,
		&item.Description,
		&item.Price,
		&item.Icon,
		&item.ImageURL,
		&item.Category,
		&item.IsActive,
	}
}

func (r *ShopRepository) ListActive(ctx context.Context) ([]entities.ShopItem, error) {
	query := `SELECT ` + shopItemColumns + ` FROM shop_items si WHERE si.is_active ORDER BY si.price, si.id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.log.Error("failed to list shop items", zap.Error(err))
		return nil, fmt.Errorf("list shop items: %w", err)
	}
	defer rows.Close()

	items := make([]entities.ShopItem, 0)
	for rows.Next() {
		var item entities.ShopItem
		if err := rows.Scan(shopItemDest(&item)...); err != nil {
			r.log.Error("failed to scan shop item row", zap.Error(err))
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		r.log.Error("failed to iterate shop item rows", zap.Error(err))
		return nil, err
	}
	return items, nil
}

func (r *ShopRepository) ListStats(ctx context.Context) ([]entities.ShopItemStats, error) {
	query := `SELECT ` + shopItemColumns + `,
			(SELECT COUNT(*) FROM purchases p WHERE p.item_id = si.id)
		FROM shop_items si
		ORDER BY si.price, si.id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.log.Error("failed to list shop item stats", zap.Error(err))
		return nil, fmt.Errorf("list shop item stats: %w", err)
	}
	defer rows.Close()

	items := make([]entities.ShopItemStats, 0)
	for rows.Next() {
		var s entities.ShopItemStats
		if err := rows.Scan(append(shopItemDest(&s.ShopItem), &s.PurchaseCount)...); err != nil {
			r.log.Error("failed to scan shop item stats row", zap.Error(err))
			return nil, err
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		r.log.Error("failed to iterate shop item stats rows", zap.Error(err))
		return nil, err
	}
	return items, nil
}

func (r *ShopRepository) GetActiveItem(ctx context.Context, id int64) (*entities.ShopItem, error) {
	query := `SELECT ` + shopItemColumns + ` FROM shop_items si WHERE si.id = $1 AND si.is_active`

	var item entities.ShopItem
	if err := r.db.QueryRow(ctx, query, id).Scan(shopItemDest(&item)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, exceptions.ErrItemNotFound
		}
		r.log.Error("failed to get shop item", zap.Error(err))
		return nil, fmt.Errorf("get shop item: %w", err)
	}
	return &item, nil
}

func (r *ShopRepository) UpdateItem(ctx context.Context, item *entities.ShopItem) error {
	query := `UPDATE shop_items SET title = $2, description = $3, price = $4, icon = COALESCE(NULLIF($5, ''), icon), is_active = $6
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, item.ID, item.Title, item.Description, item.Price, item.Icon, item.IsActive)
	if err != nil {
		r.log.Error("failed to update shop item", zap.Error(err))
		return fmt.Errorf("update shop item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return exceptions.ErrItemNotFound
	}
	return nil
}

func (r *ShopRepository) CreatePurchase(ctx context.Context, purchase *entities.Purchase) error {
	query := `INSERT INTO purchases (user_id, item_id, price_paid, purchased_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	if err := r.db.QueryRow(ctx, query, purchase.UserID, purchase.ItemID, purchase.PricePaid, purchase.PurchasedAt).
		Scan(&purchase.ID); err != nil {
		r.log.Error("failed to create purchase", zap.Error(err))
		return fmt.Errorf("create purchase: %w", err)
	}
	return nil
}

const purchaseViewQuery = `SELECT p.id, p.user_id, p.item_id, p.price_paid, p.purchased_at,
		si.title, u.first_name, u.last_name, u.telegram_id, u.vk_id
	FROM purchases p
	JOIN shop_items si ON si.id = p.item_id
	JOIN users u ON u.id = p.user_id`

func (r *ShopRepository) listPurchases(ctx context.Context, query string, args ...any) ([]entities.PurchaseView, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("failed to list purchases", zap.Error(err))
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()

	purchases := make([]entities.PurchaseView, 0)
	for rows.Next() {
		var v entities.PurchaseView
		if err := rows.Scan(
			&v.ID, &v.UserID, &v.ItemID, &v.PricePaid, &v.PurchasedAt,
			&v.ItemTitle, &v.FirstName, &v.LastName, &v.TelegramID, &v.VKID,
		); err != nil {
			r.log.Error("failed to scan purchase row", zap.Error(err))
			return nil, err
		}
		purchases = append(purchases, v)
	}
	if err := rows.Err(); err != nil {
		r.log.Error("failed to iterate purchase rows", zap.Error(err))
		return nil, err
	}
	return purchases, nil
}

func (r *ShopRepository) ListPurchases(ctx context.Context, limit int) ([]entities.PurchaseView, error) {
	return r.listPurchases(ctx, purchaseViewQuery+` ORDER BY p.purchased_at DESC, p.id DESC LIMIT $1`, limit)
}

func (r *ShopRepository) ListPurchasesByUser(ctx context.Context, userID int64) ([]entities.PurchaseView, error) {
	return r.listPurchases(ctx, purchaseViewQuery+` WHERE p.user_id = $1 ORDER BY p.purchased_at DESC, p.id DESC`, userID)
}
