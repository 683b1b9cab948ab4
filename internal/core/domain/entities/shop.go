package entities

import (
	"strings"
	"time"

	"gorod-sporta/internal/core/domain/exceptions"
)

type ShopItem struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       int64   `json:"price"`
	Icon        string  `json:"icon"`
	ImageURL    *string `json:"image_url"`
	Category    string  `json:"category"`
	IsActive    bool    `json:"is_active"`
}

func (i *ShopItem) Validate() error {
	i.Title = strings.TrimSpace(i.Title)
	if i.ID <= 0 || i.Title == "" || i.Price < 0 {
		return exceptions.ErrInvalidInput
	}
	return nil
}

type ShopItemStats struct {
	ShopItem
	PurchaseCount int64 `json:"purchase_count"`
}

type Purchase struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	ItemID      int64     `json:"item_id"`
	PricePaid   int64     `json:"price_paid"`
	PurchasedAt time.Time `json:"purchased_at"`
}

// PurchaseView is a purchase joined with the buyer and the item.
type PurchaseView struct {
	Purchase
	ItemTitle  string `json:"item_title"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	TelegramID *int64 `json:"telegram_id"`
	VKID       *int64 `json:"vk_id"`
}

type PurchaseResult struct {
	Coins    int64 `json:"coins"`
	Purchase int64 `json:"purchase_id"`
}
