// internal/api/routes/routes.go
package routes

import (
	"requisition-form-api-server/config"
	"requisition-form-api-server/internal/api/handlers"
	"requisition-form-api-server/internal/api/middleware"
	"requisition-form-api-server/internal/auth"
	"requisition-form-api-server/internal/requisition"
	"requisition-form-api-server/internal/socket"
	"requisition-form-api-server/internal/warehouse"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SetupRouter nhận vào các thành phần phụ thuộc và thiết lập các route
func SetupRouter(
	cfg config.Config,
	requisitions *requisition.Service,
	warehouseService *warehouse.Service,
	authorizer auth.Authorizer,
	tokens *auth.TokenIssuer,
	wsHub *socket.Hub,
	log *logrus.Logger,
) *gin.Engine {
	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.AllowedOrigins
	if len(corsConfig.AllowOrigins) == 0 || (len(corsConfig.AllowOrigins) == 1 && corsConfig.AllowOrigins[0] == "*") {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	// Khởi tạo các handlers
	requisitionHandler := &handlers.RequisitionHandler{Service: requisitions, Log: log}
	warehouseHandler := &handlers.WarehouseHandler{Service: warehouseService, Log: log}
	adminHandler := &handlers.AdminHandler{
		Requisitions: requisitions,
		Warehouse:    warehouseService,
		Authorizer:   authorizer,
		Tokens:       tokens,
		Log:          log,
	}
	webSocketHandler := &handlers.WebSocketHandler{Hub: wsHub, Tokens: tokens, Log: log}

	apiV1 := router.Group("/api/v1")
	{
		// === CÁC ROUTE KHÔNG YÊU CẦU XÁC THỰC ===
		apiV1.POST("/auth/login", adminHandler.Login)
		apiV1.GET("/statuses", requisitionHandler.ListStatuses)

		requisitionRoutes := apiV1.Group("/requisitions")
		{
			requisitionRoutes.POST("/draft/items", requisitionHandler.AddDraftItem)
			requisitionRoutes.POST("/draft/items/remove", requisitionHandler.RemoveDraftItem)
			requisitionRoutes.POST("", requisitionHandler.Submit)
			requisitionRoutes.GET("/status", requisitionHandler.CheckStatus)
		}

		warehouseRoutes := apiV1.Group("/warehouse")
		{
			warehouseRoutes.POST("/pending", warehouseHandler.AddPending)
			warehouseRoutes.POST("/pending/remove", warehouseHandler.RemovePending)
			warehouseRoutes.POST("/requests", warehouseHandler.Send)
		}

		// WebSocket tự kiểm tra token qua query string
		apiV1.GET("/admin/ws", webSocketHandler.ServeWs)

		// === CÁC ROUTE YÊU CẦU XÁC THỰC (PROTECTED) ===
		admin := apiV1.Group("/admin")
		admin.Use(middleware.Authenticate(tokens))
		admin.Use(middleware.Authorize(auth.RoleAdmin))
		{
			admin.GET("/requisitions", adminHandler.Review)
			admin.PUT("/requisitions/:number/status", adminHandler.UpdateStatus)
			admin.DELETE("/requisitions/:number", adminHandler.DeleteRequisition)
			admin.GET("/requisitions/:number/attachment", adminHandler.DownloadAttachment)

			admin.GET("/warehouse-requests", adminHandler.ListWarehouse)
			admin.DELETE("/warehouse-requests/:id", adminHandler.DeleteWarehouse)

			admin.GET("/export", adminHandler.Export)
		}
	}

	return router
}
