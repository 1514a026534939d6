// internal/models/requisition.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Kind string

const (
	KindService Kind = "SERVICE"
	KindProduct Kind = "PRODUCT"
)

func (k Kind) Label() string {
	switch k {
	case KindService:
		return "Serviço"
	case KindProduct:
		return "Produto"
	}
	return string(k)
}

// ProductStatus là tùy chọn; chuỗi rỗng nghĩa là không chọn.
type ProductStatus string

const (
	ProductStatusNone   ProductStatus = ""
	ProductStatusNew    ProductStatus = "NEW"
	ProductStatusBackup ProductStatus = "BACKUP"
)

func (p ProductStatus) Label() string {
	switch p {
	case ProductStatusNew:
		return "Novo"
	case ProductStatusBackup:
		return "Backup"
	}
	return string(p)
}

type DemandStatus string

const (
	DemandStatusNew      DemandStatus = "NEW"
	DemandStatusForecast DemandStatus = "FORECAST"
)

func (d DemandStatus) Label() string {
	switch d {
	case DemandStatusNew:
		return "Nova"
	case DemandStatusForecast:
		return "Prevista"
	}
	return string(d)
}

type PurchaseType string

const (
	PurchaseTypeOrdinary  PurchaseType = "ORDINARY"
	PurchaseTypeEmergency PurchaseType = "EMERGENCY"
	PurchaseTypeProject   PurchaseType = "PROJECT"
	PurchaseTypeService   PurchaseType = "SERVICE"
)

func (p PurchaseType) Label() string {
	switch p {
	case PurchaseTypeOrdinary:
		return "Ordinária (papelaria, limpeza, etc.)"
	case PurchaseTypeEmergency:
		return "Emergenciais (situações imprevistas)"
	case PurchaseTypeProject:
		return "Projetos (itens específicos para ações pontuais)"
	case PurchaseTypeService:
		return "Serviços (transporte, manutenção, calibração, etc.)"
	}
	return string(p)
}

// Requisition matches a document in the "requisicoes" collection.
type Requisition struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RequestNumber  string             `bson:"requestNumber" json:"requestNumber"` // Mã nghiệp vụ, ví dụ "REQ-20240101000001-3F9A1C"
	RequesterName  string             `bson:"requesterName" json:"requesterName"`
	Metier         string             `bson:"metier" json:"metier"`
	Kind           Kind               `bson:"kind" json:"kind"`
	ProductStatus  ProductStatus      `bson:"productStatus" json:"productStatus"`
	DemandStatus   DemandStatus       `bson:"demandStatus" json:"demandStatus"`
	ProjectLine    string             `bson:"projectLine" json:"projectLine"`
	PurchaseType   PurchaseType       `bson:"purchaseType" json:"purchaseType"`
	LineItems      []LineItem         `bson:"lineItems" json:"lineItems"`
	TotalValue     Money              `bson:"totalValue" json:"totalValue"`
	AttachmentPath string             `bson:"attachmentPath" json:"attachmentPath"` // "" = không có file đính kèm
	Comments       string             `bson:"comments" json:"comments"`
	Risks          string             `bson:"risks" json:"risks"`
	Status         Status             `bson:"status" json:"status"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
}

func (r Requisition) HasAttachment() bool {
	return r.AttachmentPath != ""
}
