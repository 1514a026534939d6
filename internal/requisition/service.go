// internal/requisition/service.go
package requisition

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"requisition-form-api-server/internal/models"
	"requisition-form-api-server/internal/query"
	"requisition-form-api-server/internal/socket"
	"requisition-form-api-server/internal/storage"
	"requisition-form-api-server/internal/store"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const collection = store.CollectionRequisitions

// Notifier receives record events; *socket.Hub implements it.
type Notifier interface {
	Publish(event socket.Event)
}

// ItemInput is one line item as sent by the form layer. Subtotals are always recomputed.
type ItemInput struct {
	Description string          `json:"description"`
	Quantity    int             `json:"quantity" validate:"min=1"`
	UnitValue   decimal.Decimal `json:"unitValue"`
}

type SubmitInput struct {
	RequesterName string               `json:"requesterName" validate:"required"`
	Metier        string               `json:"metier"`
	Kind          models.Kind          `json:"kind" validate:"required,oneof=SERVICE PRODUCT"`
	ProductStatus models.ProductStatus `json:"productStatus" validate:"omitempty,oneof=NEW BACKUP"`
	DemandStatus  models.DemandStatus  `json:"demandStatus" validate:"required,oneof=NEW FORECAST"`
	ProjectLine   string               `json:"projectLine"`
	PurchaseType  models.PurchaseType  `json:"purchaseType" validate:"required,oneof=ORDINARY EMERGENCY PROJECT SERVICE"`
	Risks         string               `json:"risks"`
	Comments      string               `json:"comments"`
	Items         []ItemInput          `json:"items" validate:"dive"`
	Confirmed     bool                 `json:"confirmed"`
}

// Attachment is an uploaded quote file. Body is read once.
type Attachment struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// Review is the administrative view of the loaded requisitions.
type Review struct {
	NotYetProcessed []models.Requisition `json:"notYetProcessed"`
	Processed       []models.Requisition `json:"processed"`
	History         []models.Requisition `json:"history"`
}

type Service struct {
	Store       store.Store
	Attachments storage.AttachmentStore
	Numberer    Numberer
	Policy      TransitionPolicy
	Notifier    Notifier
	Log         *logrus.Logger
	Now         func() time.Time
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
	return log.WithField("module", "requisition")
}

func (s *Service) publish(event socket.Event) {
	if s.Notifier == nil {
		return
	}
	event.At = s.now()
	s.Notifier.Publish(event)
}

// Submit validates the input, stores the optional attachment and creates the record with
// the initial status. It returns the generated request number.
func (s *Service) Submit(ctx context.Context, in SubmitInput, attachment *Attachment) (string, error) {
	if len(in.Items) == 0 {
		return "", models.ErrEmptyItems
	}
	if !in.Confirmed {
		return "", models.ErrNotConfirmed
	}

	in.RequesterName = strings.TrimSpace(in.RequesterName)
	if err := models.Validate(in); err != nil {
		return "", err
	}

	items := make([]models.LineItem, 0, len(in.Items))
	for i, it := range in.Items {
		item, err := models.NewLineItem(it.Description, it.Quantity, it.UnitValue)
		if err != nil {
			if ve, ok := err.(*models.ValidationError); ok {
				return "", &models.ValidationError{Code: ve.Code, Field: fmt.Sprintf("items[%d].%s", i, ve.Field), Message: ve.Message}
			}
			return "", err
		}
		items = append(items, item)
	}

	now := s.now()
	numberer := s.Numberer
	if numberer == nil {
		numberer = RandomNumberer{}
	}
	number, err := numberer.Next(ctx, now)
	if err != nil {
		return "", err
	}

	attachmentPath := ""
	if attachment != nil && attachment.Body != nil {
		if s.Attachments == nil {
			return "", fmt.Errorf("attachment storage is not configured")
		}
		contentType := attachment.ContentType
		if contentType == "" {
			contentType = storage.ContentType(attachment.Filename)
		}
		attachmentPath, err = s.Attachments.Save(ctx, storage.AttachmentKey(number, attachment.Filename), attachment.Body, contentType)
		if err != nil {
			return "", err
		}
	}

	record := models.Requisition{
		RequestNumber:  number,
		RequesterName:  in.RequesterName,
		Metier:         in.Metier,
		Kind:           in.Kind,
		ProductStatus:  in.ProductStatus,
		DemandStatus:   in.DemandStatus,
		ProjectLine:    in.ProjectLine,
		PurchaseType:   in.PurchaseType,
		LineItems:      items,
		TotalValue:     models.SumSubtotals(items),
		AttachmentPath: attachmentPath,
		Comments:       in.Comments,
		Risks:          in.Risks,
		Status:         models.InitialStatus,
		CreatedAt:      now,
	}

	id, err := s.Store.Create(ctx, collection, record)
	if err != nil {
		entry := s.logger().WithError(err).WithField("requestNumber", number)
		if attachmentPath != "" {
			entry = entry.WithField("orphanAttachment", attachmentPath)
		}
		entry.Error("Failed to create requisition")
		return "", err
	}

	s.logger().WithFields(logrus.Fields{
		"requestNumber": number,
		"id":            id,
		"total":         record.TotalValue.String(),
	}).Info("Requisition submitted")
	s.publish(socket.Event{Type: socket.EventRequisitionCreated, ID: id, RequestNumber: number, Status: string(record.Status)})
	return number, nil
}

// List loads every requisition in creation order.
func (s *Service) List(ctx context.Context) ([]models.Requisition, error) {
	cursor, err := s.Store.ListAll(ctx, collection)
	if err != nil {
		return nil, err
	}
	return store.All[models.Requisition](ctx, cursor)
}

// FindByNumber returns every record carrying the business number (normally one).
func (s *Service) FindByNumber(ctx context.Context, number string) ([]models.Requisition, error) {
	cursor, err := s.Store.FindByField(ctx, collection, "requestNumber", number)
	if err != nil {
		return nil, err
	}
	return store.All[models.Requisition](ctx, cursor)
}

func (s *Service) mustFind(ctx context.Context, number string) ([]models.Requisition, error) {
	matches, err := s.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("requisition %s: %w", number, store.ErrNotFound)
	}
	return matches, nil
}

// Search applies the name and number filters to the full set.
func (s *Service) Search(ctx context.Context, name, number string) ([]models.Requisition, error) {
	records, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return query.Apply(records, name, number), nil
}

func (s *Service) Review(ctx context.Context, name, number string) (Review, error) {
	records, err := s.Search(ctx, name, number)
	if err != nil {
		return Review{}, err
	}
	pending, processed := Partition(records)
	return Review{NotYetProcessed: pending, Processed: processed, History: records}, nil
}

// SetStatus overwrites the status of the record(s) with the given business number. Only the
// status field is written. Every match is checked against the policy before any write.
func (s *Service) SetStatus(ctx context.Context, number, status string) (models.Status, error) {
	next, err := models.ParseStatus(status)
	if err != nil {
		return "", err
	}

	matches, err := s.mustFind(ctx, number)
	if err != nil {
		return "", err
	}
	for _, m := range matches {
		if !s.Policy.Allows(m.Status, next) {
			return "", fmt.Errorf("%w: %s -> %s", ErrTransitionNotAllowed, m.Status, next)
		}
	}
	if len(matches) > 1 {
		s.logger().WithFields(logrus.Fields{"requestNumber": number, "matches": len(matches)}).
			Warn("Business number matches several records, updating all")
	}

	updated, err := s.Store.UpdateManyByField(ctx, collection, "requestNumber", number, "status", next)
	if err != nil {
		return "", err
	}
	if updated == 0 {
		return "", fmt.Errorf("requisition %s: %w", number, store.ErrNotFound)
	}

	for _, m := range matches {
		s.logger().WithFields(logrus.Fields{
			"requestNumber": number,
			"from":          m.Status,
			"to":            next,
		}).Info("Requisition status updated")
		s.publish(socket.Event{Type: socket.EventRequisitionStatusChanged, ID: m.ID.Hex(), RequestNumber: number, Status: string(next)})
	}
	return next, nil
}

// Delete removes the record(s) with the given business number in one write.
func (s *Service) Delete(ctx context.Context, number string) (int, error) {
	matches, err := s.mustFind(ctx, number)
	if err != nil {
		return 0, err
	}
	deleted, err := s.Store.DeleteManyByField(ctx, collection, "requestNumber", number)
	if err != nil {
		return 0, err
	}
	if deleted == 0 {
		return 0, fmt.Errorf("requisition %s: %w", number, store.ErrNotFound)
	}
	for _, m := range matches {
		s.publish(socket.Event{Type: socket.EventRequisitionDeleted, ID: m.ID.Hex(), RequestNumber: number})
	}
	s.logger().WithFields(logrus.Fields{"requestNumber": number, "deleted": deleted}).Info("Requisition deleted")
	return deleted, nil
}

// OpenAttachment resolves the stored quote file of a requisition.
func (s *Service) OpenAttachment(ctx context.Context, number string) (models.Requisition, io.ReadCloser, error) {
	matches, err := s.mustFind(ctx, number)
	if err != nil {
		return models.Requisition{}, nil, err
	}
	record := matches[0]
	if !record.HasAttachment() {
		return record, nil, fmt.Errorf("requisition %s has no attachment: %w", number, store.ErrNotFound)
	}
	if s.Attachments == nil {
		return record, nil, fmt.Errorf("attachment storage is not configured")
	}
	body, err := s.Attachments.Open(ctx, record.AttachmentPath)
	if err != nil {
		return record, nil, err
	}
	return record, body, nil
}
