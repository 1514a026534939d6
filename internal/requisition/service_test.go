package requisition

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"requisition-form-api-server/internal/models"
	"requisition-form-api-server/internal/socket"
	"requisition-form-api-server/internal/storage"
	"requisition-form-api-server/internal/store"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []socket.Event
}

func (n *recordingNotifier) Publish(event socket.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.Type)
	}
	return out
}

// unavailableStore fails every call the way MongoStore does when the server is unreachable.
type unavailableStore struct{}

func (unavailableStore) Create(context.Context, string, interface{}) (string, error) {
	return "", store.ErrStoreUnavailable
}
func (unavailableStore) ListAll(context.Context, string) (store.Cursor, error) {
	return nil, store.ErrStoreUnavailable
}
func (unavailableStore) FindByField(context.Context, string, string, interface{}) (store.Cursor, error) {
	return nil, store.ErrStoreUnavailable
}
func (unavailableStore) UpdateField(context.Context, string, string, string, interface{}) error {
	return store.ErrStoreUnavailable
}
func (unavailableStore) Delete(context.Context, string, string) error {
	return store.ErrStoreUnavailable
}
func (unavailableStore) UpdateManyByField(context.Context, string, string, interface{}, string, interface{}) (int, error) {
	return 0, store.ErrStoreUnavailable
}
func (unavailableStore) DeleteManyByField(context.Context, string, string, interface{}) (int, error) {
	return 0, store.ErrStoreUnavailable
}

// failingWrites reads from the wrapped store but rejects every write.
type failingWrites struct {
	*store.MemoryStore
}

func (failingWrites) UpdateField(context.Context, string, string, string, interface{}) error {
	return store.ErrStoreUnavailable
}
func (failingWrites) Delete(context.Context, string, string) error {
	return store.ErrStoreUnavailable
}
func (failingWrites) UpdateManyByField(context.Context, string, string, interface{}, string, interface{}) (int, error) {
	return 0, store.ErrStoreUnavailable
}
func (failingWrites) DeleteManyByField(context.Context, string, string, interface{}) (int, error) {
	return 0, store.ErrStoreUnavailable
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestService(t *testing.T) (*Service, *store.MemoryStore, *recordingNotifier) {
	t.Helper()
	mem := store.NewMemoryStore()
	notifier := &recordingNotifier{}
	svc := &Service{
		Store:       mem,
		Attachments: storage.NewLocalStore(t.TempDir()),
		Numberer:    RandomNumberer{},
		Policy:      PermissivePolicy(),
		Notifier:    notifier,
		Log:         quietLogger(),
		Now:         func() time.Time { return stamp },
	}
	return svc, mem, notifier
}

func validInput() SubmitInput {
	return SubmitInput{
		RequesterName: "  Ana Souza ",
		Metier:        "Manutenção",
		Kind:          models.KindProduct,
		ProductStatus: models.ProductStatusNew,
		DemandStatus:  models.DemandStatusForecast,
		ProjectLine:   "Linha 3",
		PurchaseType:  models.PurchaseTypeOrdinary,
		Items: []ItemInput{
			{Description: "Papel A4", Quantity: 2, UnitValue: decimal.RequireFromString("25.90")},
			{Description: "Caneta", Quantity: 10, UnitValue: decimal.RequireFromString("1.50")},
		},
		Confirmed: true,
	}
}

func submit(t *testing.T, svc *Service, in SubmitInput) string {
	t.Helper()
	number, err := svc.Submit(context.Background(), in, nil)
	require.NoError(t, err)
	return number
}

func TestService_Submit(t *testing.T) {
	svc, mem, notifier := newTestService(t)

	number := submit(t, svc, validInput())
	assert.Regexp(t, `^REQ-20240315093000-[0-9A-F]{6}$`, number)

	records, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, number, r.RequestNumber)
	assert.Equal(t, "Ana Souza", r.RequesterName)
	assert.Equal(t, models.InitialStatus, r.Status)
	assert.Equal(t, "66.80", r.TotalValue.String())
	require.Len(t, r.LineItems, 2)
	assert.Equal(t, "51.80", r.LineItems[0].Subtotal.String())
	assert.Equal(t, "15.00", r.LineItems[1].Subtotal.String())
	assert.False(t, r.HasAttachment())
	assert.True(t, stamp.Equal(r.CreatedAt))

	assert.Equal(t, 1, mem.Count(store.CollectionRequisitions))
	assert.Equal(t, []string{socket.EventRequisitionCreated}, notifier.types())
}

func TestService_SubmitRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*SubmitInput)
		want  error
		field string
	}{
		{"no items", func(in *SubmitInput) { in.Items = nil }, models.ErrEmptyItems, ""},
		{"not confirmed", func(in *SubmitInput) { in.Confirmed = false }, models.ErrNotConfirmed, ""},
		{"blank requester", func(in *SubmitInput) { in.RequesterName = "   " }, models.ErrMissingField, "requesterName"},
		{"unknown kind", func(in *SubmitInput) { in.Kind = "OTHER" }, models.ErrInvalidField, "kind"},
		{"missing demand status", func(in *SubmitInput) { in.DemandStatus = "" }, models.ErrMissingField, "demandStatus"},
		{"bad product status", func(in *SubmitInput) { in.ProductStatus = "USED" }, models.ErrInvalidField, "productStatus"},
		{"zero quantity", func(in *SubmitInput) { in.Items[1].Quantity = 0 }, models.ErrInvalidField, "items[1].quantity"},
		{"negative unit value", func(in *SubmitInput) { in.Items[0].UnitValue = decimal.NewFromInt(-1) }, models.ErrInvalidField, "items[0].unitValue"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mem, notifier := newTestService(t)
			in := validInput()
			tt.edit(&in)

			_, err := svc.Submit(context.Background(), in, nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), err.Error())
			if tt.field != "" {
				var ve *models.ValidationError
				require.True(t, errors.As(err, &ve))
				assert.Equal(t, tt.field, ve.Field)
			}
			assert.Equal(t, 0, mem.Count(store.CollectionRequisitions))
			assert.Empty(t, notifier.types())
		})
	}
}

func TestService_SubmitOptionalProductStatus(t *testing.T) {
	svc, _, _ := newTestService(t)
	in := validInput()
	in.Kind = models.KindService
	in.ProductStatus = models.ProductStatusNone

	submit(t, svc, in)
}

func TestService_SubmitWithAttachment(t *testing.T) {
	svc, _, _ := newTestService(t)

	number, err := svc.Submit(context.Background(), validInput(), &Attachment{
		Filename: "orcamento.pdf",
		Body:     strings.NewReader("%PDF-1.4 quote"),
	})
	require.NoError(t, err)

	record, body, err := svc.OpenAttachment(context.Background(), number)
	require.NoError(t, err)
	defer body.Close()

	assert.True(t, strings.HasSuffix(record.AttachmentPath, number+"_orcamento.pdf"), record.AttachmentPath)
	content, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 quote", string(content))
}

func TestService_OpenAttachmentMissing(t *testing.T) {
	svc, _, _ := newTestService(t)
	number := submit(t, svc, validInput())

	_, _, err := svc.OpenAttachment(context.Background(), number)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, _, err = svc.OpenAttachment(context.Background(), "REQ-00000000000000-000000")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestService_SetStatus(t *testing.T) {
	svc, mem, notifier := newTestService(t)
	number := submit(t, svc, validInput())
	other := submit(t, svc, validInput())

	records, err := svc.FindByNumber(context.Background(), number)
	require.NoError(t, err)
	require.Len(t, records, 1)
	id := records[0].ID.Hex()

	before, ok := mem.Raw(store.CollectionRequisitions, id)
	require.True(t, ok)
	before = append([]byte(nil), before...)

	got, err := svc.SetStatus(context.Background(), number, "Pago")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, got)

	after, ok := mem.Raw(store.CollectionRequisitions, id)
	require.True(t, ok)
	beforeElems, err := before.Elements()
	require.NoError(t, err)
	afterElems, err := after.Elements()
	require.NoError(t, err)
	require.Len(t, afterElems, len(beforeElems))
	for i := range beforeElems {
		if beforeElems[i].Key() == "status" {
			assert.Equal(t, string(models.StatusPaid), afterElems[i].Value().StringValue())
			continue
		}
		assert.True(t, bytes.Equal(beforeElems[i], afterElems[i]), "field %s changed", beforeElems[i].Key())
	}

	untouched, err := svc.FindByNumber(context.Background(), other)
	require.NoError(t, err)
	assert.Equal(t, models.InitialStatus, untouched[0].Status)

	assert.Equal(t, []string{
		socket.EventRequisitionCreated,
		socket.EventRequisitionCreated,
		socket.EventRequisitionStatusChanged,
	}, notifier.types())
}

func TestService_SetStatusErrors(t *testing.T) {
	svc, _, _ := newTestService(t)
	number := submit(t, svc, validInput())
	ctx := context.Background()

	_, err := svc.SetStatus(ctx, number, "Quase pronto")
	assert.True(t, errors.Is(err, models.ErrInvalidStatus))

	_, err = svc.SetStatus(ctx, "REQ-00000000000000-000000", "PAID")
	assert.ErrorIs(t, err, store.ErrNotFound)

	svc.Policy, err = NewTransitionPolicy(map[string][]string{
		"PENDING_PURCHASE_COMMITTEE": {"RC_CREATED"},
	})
	require.NoError(t, err)

	_, err = svc.SetStatus(ctx, number, "PAID")
	assert.ErrorIs(t, err, ErrTransitionNotAllowed)
	_, err = svc.SetStatus(ctx, number, "RC_CREATED")
	assert.NoError(t, err)

	records, err := svc.FindByNumber(ctx, number)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRCCreated, records[0].Status)
}

func TestService_SetStatusAndDeleteAllMatches(t *testing.T) {
	svc, mem, _ := newTestService(t)
	ctx := context.Background()

	dup := models.Requisition{RequestNumber: "REQ-20240315093000-DUP001", Status: models.InitialStatus}
	_, err := mem.Create(ctx, store.CollectionRequisitions, dup)
	require.NoError(t, err)
	_, err = mem.Create(ctx, store.CollectionRequisitions, dup)
	require.NoError(t, err)

	_, err = svc.SetStatus(ctx, dup.RequestNumber, "REJECTED")
	require.NoError(t, err)

	records, err := svc.FindByNumber(ctx, dup.RequestNumber)
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, r := range records {
		assert.Equal(t, models.StatusRejected, r.Status)
	}

	deleted, err := svc.Delete(ctx, dup.RequestNumber)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
	assert.Equal(t, 0, mem.Count(store.CollectionRequisitions))
}

func TestService_FailedWriteLeavesDuplicatesUntouched(t *testing.T) {
	svc, mem, notifier := newTestService(t)
	ctx := context.Background()

	dup := models.Requisition{RequestNumber: "REQ-20240315093000-DUP002", Status: models.InitialStatus}
	for i := 0; i < 2; i++ {
		_, err := mem.Create(ctx, store.CollectionRequisitions, dup)
		require.NoError(t, err)
	}
	svc.Store = failingWrites{mem}

	_, err := svc.SetStatus(ctx, dup.RequestNumber, "REJECTED")
	assert.ErrorIs(t, err, store.ErrStoreUnavailable)
	_, err = svc.Delete(ctx, dup.RequestNumber)
	assert.ErrorIs(t, err, store.ErrStoreUnavailable)

	records, err := svc.FindByNumber(ctx, dup.RequestNumber)
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, r := range records {
		assert.Equal(t, models.InitialStatus, r.Status)
	}
	assert.Empty(t, notifier.types())
}

func TestService_Delete(t *testing.T) {
	svc, _, notifier := newTestService(t)
	ctx := context.Background()
	keep := submit(t, svc, validInput())
	gone := submit(t, svc, validInput())

	deleted, err := svc.Delete(ctx, gone)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	records, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, keep, records[0].RequestNumber)

	_, err = svc.Delete(ctx, gone)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Contains(t, notifier.types(), socket.EventRequisitionDeleted)
}

func TestService_Review(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	ana := submit(t, svc, validInput())
	in := validInput()
	in.RequesterName = "Bruno Lima"
	bruno := submit(t, svc, in)
	_, err := svc.SetStatus(ctx, bruno, "PAID")
	require.NoError(t, err)

	review, err := svc.Review(ctx, "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{ana}, requestNumbers(review.NotYetProcessed))
	assert.Equal(t, []string{bruno}, requestNumbers(review.Processed))
	assert.Equal(t, []string{ana, bruno}, requestNumbers(review.History))

	review, err = svc.Review(ctx, "bruno", "")
	require.NoError(t, err)
	assert.Empty(t, review.NotYetProcessed)
	assert.Equal(t, []string{bruno}, requestNumbers(review.History))

	found, err := svc.Search(ctx, "", strings.ToLower(ana))
	require.NoError(t, err)
	assert.Equal(t, []string{ana}, requestNumbers(found))
}

func TestService_StoreUnavailable(t *testing.T) {
	svc, _, notifier := newTestService(t)
	svc.Store = unavailableStore{}
	ctx := context.Background()

	_, err := svc.Submit(ctx, validInput(), nil)
	assert.ErrorIs(t, err, store.ErrStoreUnavailable)
	_, err = svc.List(ctx)
	assert.ErrorIs(t, err, store.ErrStoreUnavailable)
	_, err = svc.SetStatus(ctx, "REQ-20240315093000-000001", "PAID")
	assert.ErrorIs(t, err, store.ErrStoreUnavailable)
	_, err = svc.Delete(ctx, "REQ-20240315093000-000001")
	assert.ErrorIs(t, err, store.ErrStoreUnavailable)
	assert.Empty(t, notifier.types())
}
