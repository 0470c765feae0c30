package main

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/mmdatafocus/eorder_backend/config"
	"github.com/mmdatafocus/eorder_backend/models"
	"github.com/mmdatafocus/eorder_backend/utils"
	"github.com/mmdatafocus/eorder_backend/workflow"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var uploadValidator = validator.New()

var sendUploadFailureMail = utils.SendUploadFailureMail

// uploadRow is one spreadsheet line. Rows sharing an order_ref become one
// order with sequentially numbered lines.
type uploadRow struct {
	OrderRef     string `validate:"required"`
	OrderType    string `validate:"required,oneof=domestic export customer"`
	SoldTo       string `validate:"required"`
	ShipTo       string
	ContractNo   string
	Material     string `validate:"required"`
	Plant        string
	Quantity     string `validate:"required"`
	Unit         string
	RequestDate  string
	ItemCategory string
}

type rowError struct {
	Row    int               `json:"row"`
	Errors map[string]string `json:"errors"`
}

func uploadOrdersHandler(c *gin.Context) {
	ctx := c.Request.Context()
	logger := config.GetLogger()
	db := config.GetDB()

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot open uploaded file"})
		return
	}
	defer file.Close()

	workbook, err := excelize.OpenReader(file)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "not a readable spreadsheet"})
		return
	}
	defer workbook.Close()

	rows, err := workbook.GetRows(workbook.GetSheetName(0))
	if err != nil || len(rows) < 2 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "spreadsheet has no data rows"})
		return
	}

	var rowErrors []rowError
	orderRefs := []string{}
	ordersByRef := map[string]*models.Order{}

	for i, raw := range rows[1:] {
		rowNumber := i + 2
		row := parseUploadRow(raw)
		if err := uploadValidator.Struct(row); err != nil {
			rowErrors = append(rowErrors, rowError{Row: rowNumber, Errors: utils.ProcessValidationErrors(err)})
			continue
		}
		qty, err := decimal.NewFromString(strings.TrimSpace(row.Quantity))
		if err != nil || qty.LessThanOrEqual(decimal.Zero) {
			rowErrors = append(rowErrors, rowError{Row: rowNumber, Errors: map[string]string{"Quantity": "must be a positive number"}})
			continue
		}
		var requestDate *time.Time
		if row.RequestDate != "" {
			t, ok := utils.ParseWireDate(row.RequestDate)
			if !ok {
				rowErrors = append(rowErrors, rowError{Row: rowNumber, Errors: map[string]string{"RequestDate": "unrecognized date"}})
				continue
			}
			requestDate = &t
		}

		order, exists := ordersByRef[row.OrderRef]
		if !exists {
			order = &models.Order{
				OrderType:   models.OrderType(row.OrderType),
				Status:      models.OrderStatusDraft,
				SoldTo:      row.SoldTo,
				ShipTo:      row.ShipTo,
				ContractNo:  row.ContractNo,
				RequestDate: requestDate,
			}
			ordersByRef[row.OrderRef] = order
			orderRefs = append(orderRefs, row.OrderRef)
		}

		order.LatestItemNo += models.ItemNoStep
		line := &models.OrderLine{
			ItemNo:       models.ItemNoFromInt(order.LatestItemNo),
			MaterialCode: row.Material,
			Plant:        row.Plant,
			ItemCategory: models.ItemCategory(row.ItemCategory),
			SalesUnit:    row.Unit,
			RequestQty:   qty,
			RequestDate:  requestDate,
		}
		line.SetStatus(models.ItemStatusCreated)
		order.Lines = append(order.Lines, line)
	}

	if len(rowErrors) > 0 {
		notifyUploadFailure(fileHeader.Filename, rowErrors)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"row_errors": rowErrors})
		return
	}

	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)
	created := make([]gin.H, 0, len(orderRefs))
	for _, ref := range orderRefs {
		order := ordersByRef[ref]
		if err := db.WithContext(ctx).Create(order).Error; err != nil {
			config.LogError(logger, "main", "uploadOrdersHandler", ref, nil, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("failed to save order %s", ref)})
			return
		}

		messageId, err := config.PublishCommitJob(ctx, config.CommitJobMessage{
			OrderId:       order.ID,
			OrderNo:       ref,
			Source:        "upload",
			CorrelationId: correlationId,
		})
		if err != nil {
			// No queue available: run the saga inline rather than dropping
			// the order on the floor.
			config.LogError(logger, "main", "uploadOrdersHandler", ref, nil, err)
			if commitErr := commitUploadedOrder(c, order.ID); commitErr != nil {
				config.LogError(logger, "main", "uploadOrdersHandler", ref, nil, commitErr)
				notifyCommitFailure(ref, commitErr)
			}
		}
		created = append(created, gin.H{"order_ref": ref, "order_id": order.ID, "message_id": messageId})
	}

	c.JSON(http.StatusAccepted, gin.H{"orders": created})
}

func commitUploadedOrder(c *gin.Context, orderId int) error {
	ctx := c.Request.Context()
	db := config.GetDB()

	release, err := workflow.AcquireOrderLock(ctx, config.GetRedisLock(), db, orderId)
	if err != nil {
		return err
	}
	defer release()

	engine := newCommitmentEngine(db)
	order, err := engine.Store.GetOrderWithLines(ctx, orderId)
	if err != nil {
		return err
	}
	_, err = engine.Commit(ctx, order)
	return err
}

func parseUploadRow(cells []string) uploadRow {
	cell := func(i int) string {
		if i < len(cells) {
			return strings.TrimSpace(cells[i])
		}
		return ""
	}
	return uploadRow{
		OrderRef:     cell(0),
		OrderType:    strings.ToLower(cell(1)),
		SoldTo:       cell(2),
		ShipTo:       cell(3),
		ContractNo:   cell(4),
		Material:     cell(5),
		Plant:        cell(6),
		Quantity:     cell(7),
		Unit:         cell(8),
		RequestDate:  cell(9),
		ItemCategory: cell(10),
	}
}

func notifyUploadFailure(filename string, rowErrors []rowError) {
	if err := sendUploadFailureMail("Order upload rejected: "+filename, uploadFailureBody(filename, rowErrors)); err != nil {
		config.LogError(config.GetLogger(), "main", "notifyUploadFailure", filename, nil, err)
	}
}

// uploadFailureBody is plain text, matching the text/plain mail body.
func uploadFailureBody(filename string, rowErrors []rowError) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order upload %s was rejected.\n\n", filename)
	for _, re := range rowErrors {
		fmt.Fprintf(&b, "row %d:", re.Row)
		fields := make([]string, 0, len(re.Errors))
		for field := range re.Errors {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			fmt.Fprintf(&b, " %s (%s)", field, re.Errors[field])
		}
		b.WriteString("\n")
	}
	return b.String()
}

// notifyCommitFailure mails the upload distribution list when a commitment
// run for an uploaded order dies on a transport fault. Business rejections
// are already written onto the order and do not mail.
func notifyCommitFailure(orderRef string, cause error) {
	subject, body := utils.UploadCommitFailureMessage(orderRef, cause)
	if err := sendUploadFailureMail(subject, body); err != nil {
		config.LogError(config.GetLogger(), "main", "notifyCommitFailure", orderRef, nil, err)
	}
}
