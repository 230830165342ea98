package item

import (
	errs "github.com/frahmantamala/storefront/internal"
	"github.com/frahmantamala/storefront/internal/core/common/validation"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type CreateItemDTO struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image,omitempty"`
	LargeImage  string `json:"largeImage,omitempty"`
	Price       int64  `json:"price"`
}

func (dto CreateItemDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("title", dto.Title).Required().MaxLength(200)
	v.Field("description", dto.Description).Required().MaxLength(5000)
	v.Field("image", dto.Image).MaxLength(2048)
	v.Field("largeImage", dto.LargeImage).MaxLength(2048)
	v.Field("price", dto.Price).Custom(priceRule)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// UpdateItemDTO carries a partial update; nil fields are left unchanged.
type UpdateItemDTO struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Price       *int64  `json:"price,omitempty"`
}

func (dto UpdateItemDTO) Validate() error {
	v := validation.NewValidator()
	if dto.Title != nil {
		v.Field("title", dto.Title).Required()
		v.Field("title", *dto.Title).MaxLength(200)
	}
	if dto.Description != nil {
		v.Field("description", dto.Description).Required()
		v.Field("description", *dto.Description).MaxLength(5000)
	}
	if dto.Price != nil {
		v.Field("price", *dto.Price).Custom(priceRule)
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// Apply copies the set fields onto it.
func (dto UpdateItemDTO) Apply(it *Item) {
	if dto.Title != nil {
		it.Title = *dto.Title
	}
	if dto.Description != nil {
		it.Description = *dto.Description
	}
	if dto.Price != nil {
		it.Price = *dto.Price
	}
}

type ItemsResponse struct {
	Items  []*Item `json:"items"`
	Total  int64   `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

func priceRule(value interface{}) *errs.AppError {
	price, _ := value.(int64)
	return validation.ValidateItemPrice(price)
}
