package handlers

import (
	"net/http"
	"time"

	"requisition-form-api-server/internal/warehouse"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type WarehouseHandler struct {
	Service *warehouse.Service
	Log     *logrus.Logger
}

type PendingAddPayload struct {
	Pending warehouse.PendingList `json:"pending"`
	Item    warehouse.ItemInput   `json:"item"`
}

type PendingRemovePayload struct {
	Pending warehouse.PendingList `json:"pending"`
	Index   int                   `json:"index"`
}

type SendPayload struct {
	Pending   warehouse.PendingList `json:"pending"`
	Confirmed bool                  `json:"confirmed"`
}

func (h *WarehouseHandler) AddPending(c *gin.Context) {
	var payload PendingAddPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pending, err := payload.Pending.Add(payload.Item, time.Now())
	if err != nil {
		respondError(c, h.Log, "AddPending", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pending": pending})
}

func (h *WarehouseHandler) RemovePending(c *gin.Context) {
	var payload PendingRemovePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pending, err := payload.Pending.Remove(payload.Index)
	if err != nil {
		respondError(c, h.Log, "RemovePending", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pending": pending})
}

// Send lưu từng mục trong danh sách chờ thành một bản ghi riêng.
func (h *WarehouseHandler) Send(c *gin.Context) {
	var payload SendPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ids, err := h.Service.Send(c.Request.Context(), payload.Pending, payload.Confirmed)
	if err != nil {
		if len(ids) > 0 {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "createdIDs": ids})
			return
		}
		respondError(c, h.Log, "Send", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":     "success",
		"message":    "Warehouse request sent successfully",
		"createdIDs": ids,
	})
}
