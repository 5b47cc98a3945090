package dto

import "github.com/Additional-Code/brewbar/internal/entity"

// MenuItemResponse is a purchasable item.
type MenuItemResponse struct {
	ID          int64  `json:"id"`
	Category    string `json:"category"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Emoji       string `json:"emoji"`
}

// FromMenu maps menu entities preserving order.
func FromMenu(items []*entity.MenuItem) []MenuItemResponse {
	out := make([]MenuItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, MenuItemResponse{
			ID:          item.ID,
			Category:    item.Category,
			Name:        item.Name,
			Description: item.Description,
			Price:       item.Price.StringFixed(2),
			Emoji:       item.Emoji,
		})
	}
	return out
}
