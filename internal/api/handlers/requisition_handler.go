// internal/api/handlers/requisition_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"requisition-form-api-server/internal/models"
	"requisition-form-api-server/internal/requisition"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type RequisitionHandler struct {
	Service *requisition.Service
	Log     *logrus.Logger
}

// RequisitionView là bản ghi kèm nhãn hiển thị cho các giá trị enum.
type RequisitionView struct {
	models.Requisition
	KindLabel          string `json:"kindLabel"`
	ProductStatusLabel string `json:"productStatusLabel"`
	DemandStatusLabel  string `json:"demandStatusLabel"`
	PurchaseTypeLabel  string `json:"purchaseTypeLabel"`
	StatusLabel        string `json:"statusLabel"`
}

func NewRequisitionView(r models.Requisition) RequisitionView {
	return RequisitionView{
		Requisition:        r,
		KindLabel:          r.Kind.Label(),
		ProductStatusLabel: r.ProductStatus.Label(),
		DemandStatusLabel:  r.DemandStatus.Label(),
		PurchaseTypeLabel:  r.PurchaseType.Label(),
		StatusLabel:        r.Status.Label(),
	}
}

func NewRequisitionViews(records []models.Requisition) []RequisitionView {
	views := make([]RequisitionView, 0, len(records))
	for _, r := range records {
		views = append(views, NewRequisitionView(r))
	}
	return views
}

// StatusSummary is the public projection used by the status lookup page.
type StatusSummary struct {
	RequestNumber string            `json:"requestNumber"`
	RequesterName string            `json:"requesterName"`
	Status        models.Status     `json:"status"`
	StatusLabel   string            `json:"statusLabel"`
	LineItems     []models.LineItem `json:"lineItems"`
	TotalValue    models.Money      `json:"totalValue"`
	CreatedAt     time.Time         `json:"createdAt"`
}

type DraftItemPayload struct {
	Draft       requisition.Draft `json:"draft"`
	Description string            `json:"description"`
	Quantity    int               `json:"quantity"`
	UnitValue   decimal.Decimal   `json:"unitValue"`
}

type DraftRemovePayload struct {
	Draft requisition.Draft `json:"draft"`
	Index int               `json:"index"`
}

type DraftResponse struct {
	Draft requisition.Draft `json:"draft"`
	Total models.Money      `json:"total"`
}

// AddDraftItem thêm một dòng hàng vào bản nháp do client giữ và trả về bản nháp mới.
func (h *RequisitionHandler) AddDraftItem(c *gin.Context) {
	var payload DraftItemPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	draft, err := payload.Draft.AddItem(payload.Description, payload.Quantity, payload.UnitValue)
	if err != nil {
		respondError(c, h.Log, "AddDraftItem", err)
		return
	}
	c.JSON(http.StatusOK, DraftResponse{Draft: draft, Total: draft.Total()})
}

func (h *RequisitionHandler) RemoveDraftItem(c *gin.Context) {
	var payload DraftRemovePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	draft, err := payload.Draft.RemoveItem(payload.Index)
	if err != nil {
		respondError(c, h.Log, "RemoveDraftItem", err)
		return
	}
	c.JSON(http.StatusOK, DraftResponse{Draft: draft, Total: draft.Total()})
}

// Submit accepts either a JSON body or a multipart form with a "payload" JSON field and an
// optional "attachment" file.
func (h *RequisitionHandler) Submit(c *gin.Context) {
	var input requisition.SubmitInput
	var attachment *requisition.Attachment

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := json.Unmarshal([]byte(c.PostForm("payload")), &input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "payload must be a JSON object: " + err.Error()})
			return
		}
		file, header, err := c.Request.FormFile("attachment")
		switch {
		case err == nil:
			defer file.Close()
			attachment = &requisition.Attachment{
				Filename:    header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Body:        file,
			}
		case !errors.Is(err, http.ErrMissingFile):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid attachment: " + err.Error()})
			return
		}
	} else if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	number, err := h.Service.Submit(c.Request.Context(), input, attachment)
	if err != nil {
		respondError(c, h.Log, "Submit", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":        "success",
		"message":       "Requisition submitted successfully",
		"requestNumber": number,
	})
}

// CheckStatus lọc theo tên và/hoặc số yêu cầu.
func (h *RequisitionHandler) CheckStatus(c *gin.Context) {
	records, err := h.Service.Search(c.Request.Context(), c.Query("name"), strings.TrimSpace(c.Query("number")))
	if err != nil {
		respondError(c, h.Log, "CheckStatus", err)
		return
	}

	summaries := make([]StatusSummary, 0, len(records))
	for _, r := range records {
		summaries = append(summaries, StatusSummary{
			RequestNumber: r.RequestNumber,
			RequesterName: r.RequesterName,
			Status:        r.Status,
			StatusLabel:   r.Status.Label(),
			LineItems:     r.LineItems,
			TotalValue:    r.TotalValue,
			CreatedAt:     r.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, summaries)
}

// ListStatuses trả về danh sách trạng thái theo thứ tự quy trình.
func (h *RequisitionHandler) ListStatuses(c *gin.Context) {
	statuses := models.Statuses()
	out := make([]gin.H, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, gin.H{"code": s, "label": s.Label(), "terminal": s.IsTerminal()})
	}
	c.JSON(http.StatusOK, out)
}
