package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/eorder_backend/config"
	"github.com/mmdatafocus/eorder_backend/gateway"
	"github.com/mmdatafocus/eorder_backend/middlewares"
	"github.com/mmdatafocus/eorder_backend/models"
	"github.com/mmdatafocus/eorder_backend/utils"
	"github.com/mmdatafocus/eorder_backend/workflow"
	"gorm.io/gorm"
)

var ready atomic.Bool

func main() {
	logger := config.GetLogger()

	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     utils.SplitAndTrim(os.Getenv("CORS_ALLOW_ORIGINS")),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(middlewares.CorrelationMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		if !ready.Load() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "starting"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api", middlewares.AuthMiddleware())
	api.POST("/orders/:id/commit", commitOrderHandler)
	api.POST("/orders/upload", uploadOrdersHandler)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		// Listen before connecting backends; Cloud Run health checks the
		// port, /healthz gates real traffic until the stores are up.
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			config.LogError(logger, "main", "main", "listen", nil, err)
			os.Exit(1)
		}
	}()

	config.ConnectDatabaseWithRetry()
	models.MigrateTable()
	config.ConnectRedisWithRetry()
	ready.Store(true)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		config.LogError(logger, "main", "main", "shutdown", nil, err)
	}
}

// newCommitmentEngine wires the saga against the live backends.
func newCommitmentEngine(db *gorm.DB) *workflow.CommitmentEngine {
	logger := config.GetLogger()
	mulesoftCfg := config.MulesoftFromEnv()
	client := gateway.NewClient(mulesoftCfg, logger, db)
	store := workflow.NewGormStore(db)
	return &workflow.CommitmentEngine{
		Store:             store,
		Master:            store,
		Planning:          gateway.NewIplanClient(client),
		Erp:               gateway.NewSapClient(client),
		Logger:            logger,
		Sender:            mulesoftCfg.Sender,
		SpecialPlants:     config.SpecialPlants(),
		AlternatesEnabled: config.AlternateMaterialEnabled(),
		SapTestRun:        config.SapTestRunEnabled(),
	}
}

func commitOrderHandler(c *gin.Context) {
	ctx := c.Request.Context()
	db := config.GetDB()
	logger := config.GetLogger()

	orderId, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	release, err := workflow.AcquireOrderLock(ctx, config.GetRedisLock(), db, orderId)
	if err != nil {
		if errors.Is(err, utils.ErrorOrderLocked) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		config.LogError(logger, "main", "commitOrderHandler", strconv.Itoa(orderId), nil, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to acquire order lock"})
		return
	}
	defer release()

	engine := newCommitmentEngine(db)
	order, err := engine.Store.GetOrderWithLines(ctx, orderId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		config.LogError(logger, "main", "commitOrderHandler", strconv.Itoa(orderId), nil, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load order"})
		return
	}

	result, err := engine.Commit(ctx, order)
	if err != nil {
		config.LogError(logger, "main", "commitOrderHandler", strconv.Itoa(orderId), nil, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}
