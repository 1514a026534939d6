// internal/models/common.go
package models

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Money là giá trị tiền tệ, luôn làm tròn 2 chữ số thập phân.
// Được lưu trong MongoDB dưới dạng Decimal128.
type Money struct {
	amount decimal.Decimal
}

func NewMoney(d decimal.Decimal) Money {
	return Money{amount: d.Round(2)}
}

func MoneyFromFloat(f float64) Money {
	return NewMoney(decimal.NewFromFloat(f))
}

func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid money value %q: %w", s, err)
	}
	return NewMoney(d), nil
}

func (m Money) Decimal() decimal.Decimal { return m.amount }

func (m Money) Add(o Money) Money { return NewMoney(m.amount.Add(o.amount)) }

func (m Money) Mul(quantity int) Money {
	return NewMoney(m.amount.Mul(decimal.NewFromInt(int64(quantity))))
}

func (m Money) IsNegative() bool { return m.amount.IsNegative() }

func (m Money) Equal(o Money) bool { return m.amount.Equal(o.amount) }

func (m Money) Float64() float64 { return m.amount.InexactFloat64() }

func (m Money) String() string { return m.amount.StringFixed(2) }

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	*m = NewMoney(d)
	return nil
}

func (m Money) MarshalBSONValue() (bsontype.Type, []byte, error) {
	d128, err := primitive.ParseDecimal128(m.String())
	if err != nil {
		return 0, nil, err
	}
	return bson.MarshalValue(d128)
}

// UnmarshalBSONValue chấp nhận cả dữ liệu cũ được lưu dạng double hoặc string.
func (m *Money) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: t, Value: data}
	switch t {
	case bson.TypeDecimal128:
		d, err := decimal.NewFromString(rv.Decimal128().String())
		if err != nil {
			return err
		}
		*m = NewMoney(d)
	case bson.TypeDouble:
		*m = MoneyFromFloat(rv.Double())
	case bson.TypeInt32:
		*m = NewMoney(decimal.NewFromInt32(rv.Int32()))
	case bson.TypeInt64:
		*m = NewMoney(decimal.NewFromInt(rv.Int64()))
	case bson.TypeString:
		parsed, err := ParseMoney(rv.StringValue())
		if err != nil {
			return err
		}
		*m = parsed
	case bson.TypeNull, bson.TypeUndefined:
		*m = Money{}
	default:
		return fmt.Errorf("cannot decode money from BSON type %s", t)
	}
	return nil
}

// LineItem là một dòng hàng trong yêu cầu mua.
type LineItem struct {
	Description string `bson:"description" json:"description"`
	Quantity    int    `bson:"quantity" json:"quantity"`
	UnitValue   Money  `bson:"unitValue" json:"unitValue"`
	Subtotal    Money  `bson:"subtotal" json:"subtotal"`
}

// NewLineItem validates the quantity and unit value and computes the subtotal.
func NewLineItem(description string, quantity int, unitValue decimal.Decimal) (LineItem, error) {
	if quantity < 1 {
		return LineItem{}, InvalidField("quantity", "must be at least 1")
	}
	unit := NewMoney(unitValue)
	if unit.IsNegative() {
		return LineItem{}, InvalidField("unitValue", "must not be negative")
	}
	return LineItem{
		Description: description,
		Quantity:    quantity,
		UnitValue:   unit,
		Subtotal:    unit.Mul(quantity),
	}, nil
}

func SumSubtotals(items []LineItem) Money {
	total := Money{}
	for _, item := range items {
		total = total.Add(item.Subtotal)
	}
	return total
}
