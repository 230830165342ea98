package cart

import (
	"github.com/frahmantamala/storefront/internal/core/common/validation"
)

type AddToCartDTO struct {
	ItemID string `json:"itemId"`
}

func (dto AddToCartDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("itemId", dto.ItemID).Required()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// CartResponse lists the caller's cart with the summed price of every line.
type CartResponse struct {
	Items      []*CartItem `json:"items"`
	TotalPrice int64       `json:"totalPrice"`
}

func NewCartResponse(lines []*CartItem) *CartResponse {
	resp := &CartResponse{Items: lines}
	for _, l := range lines {
		if l.Item != nil {
			resp.TotalPrice += l.Item.Price * int64(l.Quantity)
		}
	}
	return resp
}
