package models

// Payment terms offered on client and contract records.
const (
	Net15        = "Net 15"
	Net30        = "Net 30"
	Net45        = "Net 45"
	Net60        = "Net 60"
	Net90        = "Net 90"
	DueOnReceipt = "Due on receipt"
)

type Client struct {
	Base
	Name           string     `gorm:"column:name;unique" json:"name"`
	Address        string     `gorm:"column:address" json:"address,omitempty"`
	City           string     `gorm:"column:city" json:"city,omitempty"`
	State          string     `gorm:"column:state" json:"state,omitempty"`
	Country        string     `gorm:"column:country" json:"country,omitempty"`
	ZipCode        string     `gorm:"column:zip_code" json:"zip_code,omitempty"`
	Deleted        bool       `gorm:"column:deleted" json:"deleted"`
	PaymentTerms   string     `gorm:"column:client_payment_terms" json:"client_payment_terms,omitempty"`
	InvoiceTerms   string     `gorm:"column:client_invoice_terms;default:Active" json:"client_invoice_terms,omitempty"`
	BusinessUnit   string     `gorm:"column:business_unit" json:"business_unit,omitempty"`
	ClientAPEmails StringList `gorm:"column:client_ap_details;serializer:json" json:"client_ap_details,omitempty"`
}

func (Client) TableName() string {
	return "clients"
}

// ClientDocument is the metadata row behind an uploaded contract or PO
// document. File payloads live in external storage; only the stored
// name travels through this service.
type ClientDocument struct {
	Base
	ClientUUID   string `gorm:"column:client_uuid;index" json:"client"`
	DocumentID   string `gorm:"column:document_id" json:"document_id"`
	DocumentType string `gorm:"column:document_type" json:"document_type"`
	BlobName     string `gorm:"column:blob_name" json:"blob_name"`
	Status       string `gorm:"column:status;default:active" json:"status"`
}

func (ClientDocument) TableName() string {
	return "client_documents"
}
