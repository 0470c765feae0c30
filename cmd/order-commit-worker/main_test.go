package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/mmdatafocus/eorder_backend/config"
	"github.com/sirupsen/logrus"
)

func TestUploadJobTransportFailureMailsDistributionList(t *testing.T) {
	var gotSubject, gotBody string
	restore := sendUploadFailureMail
	sendUploadFailureMail = func(subject string, body string) error {
		gotSubject, gotBody = subject, body
		return nil
	}
	defer func() { sendUploadFailureMail = restore }()

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	job := config.CommitJobMessage{OrderId: 9, OrderNo: "UP-9", Source: "upload"}

	notifyUploadCommitFailure(logger, job, errors.New("gateway sap /sales/orders/create: status 502"))

	if !strings.Contains(gotSubject, "UP-9") {
		t.Errorf("mail subject %q does not name the order", gotSubject)
	}
	if !strings.Contains(gotBody, "status 502") {
		t.Errorf("mail body does not carry the transport fault: %q", gotBody)
	}
}
