package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"cloud.google.com/go/pubsub"
	"github.com/mmdatafocus/eorder_backend/config"
	"github.com/mmdatafocus/eorder_backend/gateway"
	"github.com/mmdatafocus/eorder_backend/models"
	"github.com/mmdatafocus/eorder_backend/utils"
	"github.com/mmdatafocus/eorder_backend/workflow"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Pull worker draining commit jobs published by the upload flow. One message
// is one commitment run; the per-order lock makes duplicate deliveries safe.
func main() {
	logger := config.GetLogger()

	config.ConnectDatabaseWithRetry()
	models.MigrateTable()
	config.ConnectRedisWithRetry()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := config.GetClient(ctx)
	if err != nil {
		config.LogError(logger, "worker", "main", "pubsub client", nil, err)
		os.Exit(1)
	}

	topicName := os.Getenv("COMMIT_JOB_TOPIC")
	if topicName == "" {
		topicName = "order-commit"
	}
	subName := os.Getenv("COMMIT_JOB_SUBSCRIPTION")
	if subName == "" {
		subName = topicName + "-worker"
	}

	topic, err := config.CreateTopicIfNotExists(client, topicName)
	if err != nil {
		config.LogError(logger, "worker", "main", topicName, nil, err)
		os.Exit(1)
	}
	sub, err := config.CreateSubscriptionIfNotExists(client, subName, topic)
	if err != nil {
		config.LogError(logger, "worker", "main", subName, nil, err)
		os.Exit(1)
	}

	config.LogInfo(logger, "worker", "main", "commit worker listening", logrus.Fields{
		"topic":        topicName,
		"subscription": subName,
	})

	err = sub.Receive(ctx, func(msgCtx context.Context, msg *pubsub.Message) {
		var job config.CommitJobMessage
		if err := json.Unmarshal(msg.Data, &job); err != nil {
			config.LogError(logger, "worker", "Receive", "decode", string(msg.Data), err)
			msg.Ack() // malformed payloads never become deliverable
			return
		}
		if processCommitJob(msgCtx, logger, job) {
			msg.Ack()
		} else {
			msg.Nack()
		}
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		config.LogError(logger, "worker", "main", "receive", nil, err)
		os.Exit(1)
	}
}

// processCommitJob returns true when the message should be acked. Transport
// faults nack for redelivery; business rejections are terminal because the
// saga already recorded them on the order.
func processCommitJob(ctx context.Context, logger *logrus.Logger, job config.CommitJobMessage) bool {
	db := config.GetDB()
	if job.CorrelationId != "" {
		ctx = utils.SetCorrelationIdInContext(ctx, job.CorrelationId)
	}

	release, err := workflow.AcquireOrderLock(ctx, config.GetRedisLock(), db, job.OrderId)
	if err != nil {
		if errors.Is(err, utils.ErrorOrderLocked) {
			return false // another run is active, retry later
		}
		config.LogError(logger, "worker", "processCommitJob", strconv.Itoa(job.OrderId), nil, err)
		return false
	}
	defer release()

	engine := newEngine(db)
	order, err := engine.Store.GetOrderWithLines(ctx, job.OrderId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			config.LogError(logger, "worker", "processCommitJob", strconv.Itoa(job.OrderId), job, err)
			return true // the order is gone, redelivery cannot help
		}
		return false
	}

	result, err := engine.Commit(ctx, order)
	if err != nil {
		config.LogError(logger, "worker", "processCommitJob", strconv.Itoa(job.OrderId), job, err)
		if job.Source == "upload" {
			notifyUploadCommitFailure(logger, job, err)
		}
		return false
	}

	config.LogInfo(logger, "worker", "processCommitJob", "commitment run finished", logrus.Fields{
		"orderId":     job.OrderId,
		"orderNo":     job.OrderNo,
		"success":     result.Success,
		"orderStatus": result.OrderStatus,
		"soNo":        result.SoNo,
	})
	return true
}

var sendUploadFailureMail = utils.SendUploadFailureMail

// Upload-originated jobs have no caller waiting on the HTTP response, so a
// transport fault mails the upload distribution list before the nack.
func notifyUploadCommitFailure(logger *logrus.Logger, job config.CommitJobMessage, cause error) {
	subject, body := utils.UploadCommitFailureMessage(job.OrderNo, cause)
	if err := sendUploadFailureMail(subject, body); err != nil {
		config.LogError(logger, "worker", "notifyUploadCommitFailure", job.OrderNo, nil, err)
	}
}

func newEngine(db *gorm.DB) *workflow.CommitmentEngine {
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
