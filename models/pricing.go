package models

import "github.com/shopspring/decimal"

type Pricing struct {
	Base
	Name                 string          `gorm:"column:name;unique" json:"name"`
	ClientUUID           string          `gorm:"column:client_uuid;index" json:"client"`
	EstimationUUID       string          `gorm:"column:estimation_uuid;index" json:"estimation"`
	FinalOfferPrice      decimal.Decimal `gorm:"column:final_offer_price;type:decimal(12,2)" json:"final_offer_price"`
	FinalOfferMargin     decimal.Decimal `gorm:"column:final_offer_margin;type:decimal(12,2)" json:"final_offer_margin"`
	FinalOfferGMPercent  float64         `gorm:"column:final_offer_gross_margin_percentage" json:"final_offer_gross_margin_percentage,omitempty"`
	Discount             float64         `gorm:"column:discount" json:"discount,omitempty"`
	EstimatedMarketCost  float64         `gorm:"column:estimated_market_cost" json:"estimated_market_cost,omitempty"`
	EstimatedMarketPrice float64         `gorm:"column:estimated_market_price" json:"estimated_market_price,omitempty"`
}

func (Pricing) TableName() string {
	return "pricings"
}
