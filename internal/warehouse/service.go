// internal/warehouse/service.go
package warehouse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"requisition-form-api-server/internal/models"
	"requisition-form-api-server/internal/socket"
	"requisition-form-api-server/internal/store"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const collection = store.CollectionWarehouse

type Notifier interface {
	Publish(event socket.Event)
}

type ItemInput struct {
	RequesterName      string `json:"requesterName"`
	MabecCode          string `json:"mabecCode"`
	ProductDescription string `json:"productDescription"`
	Quantity           int    `json:"quantity"`
}

// PendingList là danh sách các mục chờ gửi; client giữ nó và gửi lại ở mỗi lần gọi.
type PendingList struct {
	Items []models.WarehouseRequest `json:"items"`
}

// Add trims and validates one item, stamps it with now and appends it.
func (l PendingList) Add(in ItemInput, now time.Time) (PendingList, error) {
	item := models.WarehouseRequest{
		RequesterName:      strings.TrimSpace(in.RequesterName),
		MabecCode:          strings.TrimSpace(in.MabecCode),
		ProductDescription: strings.TrimSpace(in.ProductDescription),
		Quantity:           in.Quantity,
		CreatedAt:          now,
	}
	if err := models.Validate(item); err != nil {
		return l, err
	}
	items := make([]models.WarehouseRequest, 0, len(l.Items)+1)
	items = append(items, l.Items...)
	return PendingList{Items: append(items, item)}, nil
}

func (l PendingList) Remove(index int) (PendingList, error) {
	if index < 0 || index >= len(l.Items) {
		return l, models.InvalidField("index", fmt.Sprintf("no item at position %d", index))
	}
	items := make([]models.WarehouseRequest, 0, len(l.Items)-1)
	items = append(items, l.Items[:index]...)
	return PendingList{Items: append(items, l.Items[index+1:]...)}, nil
}

type Service struct {
	Store    store.Store
	Notifier Notifier
	Log      *logrus.Logger
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) logger() *logrus.Entry {
	log := s.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	return log.WithField("module", "warehouse")
}

func (s *Service) publish(event socket.Event) {
	if s.Notifier == nil {
		return
	}
	event.At = s.now()
	s.Notifier.Publish(event)
}

// Send persists every pending item as its own record and returns their ids. The list came
// back from the client, so each item is validated again before anything is written.
// Items are written one by one; on a store failure the ids already written are returned
// with the error. An empty list writes nothing and succeeds.
func (s *Service) Send(ctx context.Context, list PendingList, confirmed bool) ([]string, error) {
	if !confirmed {
		return nil, models.ErrNotConfirmed
	}
	records := make([]models.WarehouseRequest, 0, len(list.Items))
	for i, it := range list.Items {
		it.ID = primitive.NilObjectID
		it.RequesterName = strings.TrimSpace(it.RequesterName)
		it.MabecCode = strings.TrimSpace(it.MabecCode)
		it.ProductDescription = strings.TrimSpace(it.ProductDescription)
		if err := models.Validate(it); err != nil {
			if ve, ok := err.(*models.ValidationError); ok {
				return nil, &models.ValidationError{Code: ve.Code, Field: fmt.Sprintf("items[%d].%s", i, ve.Field), Message: ve.Message}
			}
			return nil, err
		}
		if it.CreatedAt.IsZero() {
			it.CreatedAt = s.now()
		}
		records = append(records, it)
	}

	ids := make([]string, 0, len(records))
	for _, r := range records {
		id, err := s.Store.Create(ctx, collection, r)
		if err != nil {
			s.logger().WithError(err).WithField("written", len(ids)).Error("Failed to create warehouse request")
			return ids, err
		}
		ids = append(ids, id)
		s.publish(socket.Event{Type: socket.EventWarehouseCreated, ID: id})
	}

	s.logger().WithField("count", len(ids)).Info("Warehouse requests sent")
	return ids, nil
}

func (s *Service) List(ctx context.Context) ([]models.WarehouseRequest, error) {
	cursor, err := s.Store.ListAll(ctx, collection)
	if err != nil {
		return nil, err
	}
	return store.All[models.WarehouseRequest](ctx, cursor)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.Store.Delete(ctx, collection, id); err != nil {
		return err
	}
	s.logger().WithField("id", id).Info("Warehouse request deleted")
	s.publish(socket.Event{Type: socket.EventWarehouseDeleted, ID: id})
	return nil
}
