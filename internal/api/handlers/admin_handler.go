// internal/api/handlers/admin_handler.go
package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"requisition-form-api-server/internal/auth"
	"requisition-form-api-server/internal/export"
	"requisition-form-api-server/internal/requisition"
	"requisition-form-api-server/internal/storage"
	"requisition-form-api-server/internal/warehouse"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type AdminHandler struct {
	Requisitions *requisition.Service
	Warehouse    *warehouse.Service
	Authorizer   auth.Authorizer
	Tokens       *auth.TokenIssuer
	Log          *logrus.Logger
}

type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// Login đổi mật khẩu quản trị lấy một JWT.
func (h *AdminHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !h.Authorizer.Authorize(auth.Credentials{Password: req.Password}) {
		h.Log.WithField("clientIP", c.ClientIP()).Warn("Rejected admin login")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect password"})
		return
	}

	token, expiresAt, err := h.Tokens.Issue(auth.RoleAdmin)
	if err != nil {
		respondError(c, h.Log, "Login", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "expiresAt": expiresAt})
}

// Review trả về các yêu cầu chưa xử lý, đã xử lý và toàn bộ lịch sử (đã lọc).
func (h *AdminHandler) Review(c *gin.Context) {
	review, err := h.Requisitions.Review(c.Request.Context(),
		strings.TrimSpace(c.Query("name")),
		strings.TrimSpace(c.Query("number")),
	)
	if err != nil {
		respondError(c, h.Log, "Review", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notYetProcessed": NewRequisitionViews(review.NotYetProcessed),
		"processed":       NewRequisitionViews(review.Processed),
		"history":         NewRequisitionViews(review.History),
	})
}

func (h *AdminHandler) UpdateStatus(c *gin.Context) {
	number := c.Param("number")

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status, err := h.Requisitions.SetStatus(c.Request.Context(), number, req.Status)
	if err != nil {
		respondError(c, h.Log, "UpdateStatus", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "Status updated successfully",
		"requestNumber": number,
		"status":        status,
		"statusLabel":   status.Label(),
	})
}

func (h *AdminHandler) DeleteRequisition(c *gin.Context) {
	number := c.Param("number")

	deleted, err := h.Requisitions.Delete(c.Request.Context(), number)
	if err != nil {
		respondError(c, h.Log, "DeleteRequisition", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Requisition %s deleted successfully", number), "deleted": deleted})
}

// DownloadAttachment stream file báo giá đính kèm.
func (h *AdminHandler) DownloadAttachment(c *gin.Context) {
	record, body, err := h.Requisitions.OpenAttachment(c.Request.Context(), c.Param("number"))
	if err != nil {
		respondError(c, h.Log, "DownloadAttachment", err)
		return
	}
	defer body.Close()

	filename := path.Base(strings.ReplaceAll(record.AttachmentPath, "\\", "/"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.DataFromReader(http.StatusOK, -1, storage.ContentType(filename), body, nil)
}

func (h *AdminHandler) ListWarehouse(c *gin.Context) {
	requests, err := h.Warehouse.List(c.Request.Context())
	if err != nil {
		respondError(c, h.Log, "ListWarehouse", err)
		return
	}
	c.JSON(http.StatusOK, requests)
}

func (h *AdminHandler) DeleteWarehouse(c *gin.Context) {
	id := c.Param("id")
	if err := h.Warehouse.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.Log, "DeleteWarehouse", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Warehouse request deleted successfully", "id": id})
}

// Export tải xuống toàn bộ lịch sử dưới dạng file Excel.
func (h *AdminHandler) Export(c *gin.Context) {
	ctx := c.Request.Context()

	requisitions, err := h.Requisitions.Search(ctx,
		strings.TrimSpace(c.Query("name")),
		strings.TrimSpace(c.Query("number")),
	)
	if err != nil {
		respondError(c, h.Log, "Export", err)
		return
	}
	requests, err := h.Warehouse.List(ctx)
	if err != nil {
		respondError(c, h.Log, "Export", err)
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, requisitions, requests); err != nil {
		respondError(c, h.Log, "Export", err)
		return
	}

	filename := fmt.Sprintf("historico-%s.xlsx", time.Now().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.DataFromReader(http.StatusOK, int64(buf.Len()),
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", &buf, nil)
}
