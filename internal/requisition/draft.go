package requisition

import (
	"fmt"

	"requisition-form-api-server/internal/models"

	"github.com/shopspring/decimal"
)

// Draft is the list of line items being assembled before submission. It is owned by the
// caller: every operation returns a new Draft and leaves the receiver untouched.
type Draft struct {
	Items []models.LineItem `json:"items"`
}

func (d Draft) AddItem(description string, quantity int, unitValue decimal.Decimal) (Draft, error) {
	item, err := models.NewLineItem(description, quantity, unitValue)
	if err != nil {
		return d, err
	}
	items := make([]models.LineItem, 0, len(d.Items)+1)
	items = append(items, d.Items...)
	return Draft{Items: append(items, item)}, nil
}

func (d Draft) RemoveItem(index int) (Draft, error) {
	if index < 0 || index >= len(d.Items) {
		return d, models.InvalidField("index", fmt.Sprintf("no item at position %d", index))
	}
	items := make([]models.LineItem, 0, len(d.Items)-1)
	items = append(items, d.Items[:index]...)
	return Draft{Items: append(items, d.Items[index+1:]...)}, nil
}

func (d Draft) Total() models.Money {
	return models.SumSubtotals(d.Items)
}
