package models

import "github.com/shopspring/decimal"

// Contract is the master agreement under a client. SOW contracts hang
// off the same client and reference an estimation and pricing.
type Contract struct {
	Base
	ClientUUID      string     `gorm:"column:client_uuid;index" json:"client"`
	Name            string     `gorm:"column:name;unique" json:"name"`
	StartDate       string     `gorm:"column:start_date;index" json:"start_date"`
	EndDate         string     `gorm:"column:end_date" json:"end_date,omitempty"`
	Status          bool       `gorm:"column:status;default:true" json:"status"`
	PaymentTerms    string     `gorm:"column:payment_terms" json:"payment_terms,omitempty"`
	ContractEndType string     `gorm:"column:contract_end_type" json:"contract_end_type,omitempty"`
	ContractVersion float64    `gorm:"column:contract_version;default:1" json:"contract_version"`
	Files           StringList `gorm:"column:files;serializer:json" json:"files,omitempty"`
}

func (Contract) TableName() string {
	return "contracts"
}

// SOW contract types.
const (
	ContractTypeTimeAndMaterial = "TIME_AND_MATERIAL"
	ContractTypeMilestone       = "MILESTONE"
)

type SowContract struct {
	Base
	ClientUUID          string          `gorm:"column:client_uuid;index" json:"client"`
	PricingUUID         string          `gorm:"column:pricing_uuid" json:"pricing"`
	EstimationUUID      string          `gorm:"column:estimation_uuid;index" json:"estimation"`
	ContractSowName     string          `gorm:"column:contractsow_name;unique" json:"contractsow_name"`
	TotalContractAmount decimal.Decimal `gorm:"column:total_contract_amount;type:decimal(10,2)" json:"total_contract_amount"`
	StartDate           string          `gorm:"column:start_date;index" json:"start_date"`
	EndDate             string          `gorm:"column:end_date;index" json:"end_date"`
	ContractSowType     string          `gorm:"column:contractsow_type" json:"contractsow_type"`
	PaymentTermClient   string          `gorm:"column:payment_term_client" json:"payment_term_client,omitempty"`
	PaymentTermContract string          `gorm:"column:payment_term_contract;default:Net 30" json:"payment_term_contract,omitempty"`
	Document            StringList      `gorm:"column:document;serializer:json" json:"document,omitempty"`
}

func (SowContract) TableName() string {
	return "sow_contracts"
}
