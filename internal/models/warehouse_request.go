package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WarehouseRequest matches a document in the "almoxarifado" collection.
// Không có trạng thái: chỉ được tạo hoặc xóa.
type WarehouseRequest struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RequesterName      string             `bson:"requesterName" json:"requesterName" validate:"required"`
	MabecCode          string             `bson:"mabecCode" json:"mabecCode" validate:"required"`
	ProductDescription string             `bson:"productDescription" json:"productDescription" validate:"required"`
	Quantity           int                `bson:"quantity" json:"quantity" validate:"min=1"`
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
}
