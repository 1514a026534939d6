// cmd/api/main.go
package main

import (
	"context"
	"time"

	"requisition-form-api-server/config"
	"requisition-form-api-server/internal/api/routes"
	"requisition-form-api-server/internal/auth"
	"requisition-form-api-server/internal/database"
	"requisition-form-api-server/internal/requisition"
	"requisition-form-api-server/internal/socket"
	"requisition-form-api-server/internal/storage"
	"requisition-form-api-server/internal/store"
	"requisition-form-api-server/internal/warehouse"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// 0. Đọc .env nếu có (không bắt buộc)
	_ = godotenv.Load()

	// 1. Load configuration
	cfg, err := config.LoadConfig("./config")
	if err != nil {
		logrus.Fatalf("Could not load config: %v", err)
	}
	log := config.NewLogger(cfg.Log)
	gin.SetMode(cfg.Server.Mode)

	// 2. Kết nối MongoDB
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := database.Connect(ctx, cfg.Mongo)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.WithError(err).Warn("Failed to disconnect from MongoDB")
		}
	}()

	db := client.Database(cfg.Mongo.DBName)
	if err := database.EnsureIndexes(ctx, db); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}
	recordStore := store.NewMongoStore(db)

	// 3. Nơi lưu file báo giá
	attachments, err := storage.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize attachment storage: %v", err)
	}

	// 4. Bộ sinh số yêu cầu: Redis nếu được cấu hình, ngược lại dùng hậu tố ngẫu nhiên
	var numberer requisition.Numberer = requisition.RandomNumberer{}
	if cfg.Redis.Addr != "" {
		rdb := requisition.NewRedisClient(cfg.Redis)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		numberer = requisition.NewRedisNumberer(rdb)
	}

	policy, err := requisition.NewTransitionPolicy(cfg.Workflow.Transitions)
	if err != nil {
		log.Fatalf("Invalid workflow configuration: %v", err)
	}

	// 5. WebSocket hub và các service nghiệp vụ
	wsHub := socket.NewHub(log)

	requisitionService := &requisition.Service{
		Store:       recordStore,
		Attachments: attachments,
		Numberer:    numberer,
		Policy:      policy,
		Notifier:    wsHub,
		Log:         log,
	}
	warehouseService := &warehouse.Service{
		Store:    recordStore,
		Notifier: wsHub,
		Log:      log,
	}

	// 6. Xác thực quản trị
	authorizer, err := auth.NewPasswordAuthorizer(cfg.Admin)
	if err != nil {
		log.Fatalf("Failed to initialize admin authorizer: %v", err)
	}
	tokens, err := auth.NewTokenIssuer(cfg.JWT)
	if err != nil {
		log.Fatalf("Failed to initialize token issuer: %v", err)
	}

	// 7. Truyền tất cả các thành phần cần thiết vào router
	router := routes.SetupRouter(cfg, requisitionService, warehouseService, authorizer, tokens, wsHub, log)

	// 8. Start server
	log.WithFields(logrus.Fields{"port": cfg.Server.Port, "storage": cfg.Storage.Driver}).Info("Starting API server")
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
