package models

type Estimation struct {
	Base
	Name               string       `gorm:"column:name;unique" json:"name"`
	ClientUUID         string       `gorm:"column:client_uuid;index" json:"client"`
	ContractStartDate  string       `gorm:"column:contract_start_date" json:"contract_start_date,omitempty"`
	ContractEndDate    string       `gorm:"column:contract_end_date" json:"contract_end_date,omitempty"`
	Resource           ResourcePlan `gorm:"column:resource;serializer:json" json:"resource"`
	Billing            string       `gorm:"column:billing" json:"billing,omitempty"`
	EstimationArchived bool         `gorm:"column:estimation_archived" json:"estimation_archived"`
	MarketCost         float64      `gorm:"column:market_cost" json:"market_cost,omitempty"`
	MarketPrice        float64      `gorm:"column:market_price" json:"market_price,omitempty"`
	MarketGM           float64      `gorm:"column:market_gm" json:"market_gm,omitempty"`
	CompanyAvgCost     float64      `gorm:"column:company_avg_cost" json:"company_avg_cost,omitempty"`
	CompanyAvgPrice    float64      `gorm:"column:company_avg_price" json:"company_avg_price,omitempty"`
	CompanyAvgGM       float64      `gorm:"column:company_avg_gm" json:"company_avg_gm,omitempty"`
}

func (Estimation) TableName() string {
	return "estimations"
}
