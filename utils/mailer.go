package utils

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/gomail.v2"
)

// UploadCommitFailureMessage formats the notification sent when a commitment
// run for an uploaded order fails at the transport level. Plain text, to
// match the text/plain body SendUploadFailureMail produces.
func UploadCommitFailureMessage(orderRef string, cause error) (subject string, body string) {
	subject = "Order commitment failed: " + orderRef
	body = fmt.Sprintf(
		"The commitment run for uploaded order %s failed before completion.\n\nCause: %v\n\nReservations made during the run were released; the order can be retried.\n",
		orderRef, cause)
	return subject, body
}

// SendUploadFailureMail notifies the configured distribution list when an
// upload-triggered commitment run fails at the transport level. Business
// rejections do not mail; they are returned to the caller per line.
//
// Env:
// - SMTP_HOST, SMTP_PORT (default 587), SMTP_USER, SMTP_PASSWORD
// - UPLOAD_FAILURE_MAIL_TO (comma-separated)
// - UPLOAD_FAILURE_MAIL_FROM
func SendUploadFailureMail(subject string, body string) error {
	host := strings.TrimSpace(os.Getenv("SMTP_HOST"))
	if host == "" {
		return errors.New("SMTP_HOST not set")
	}
	port := 587
	if v := strings.TrimSpace(os.Getenv("SMTP_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			port = n
		}
	}
	from := strings.TrimSpace(os.Getenv("UPLOAD_FAILURE_MAIL_FROM"))
	if from == "" {
		from = "no-reply@eorder.local"
	}
	to := SplitAndTrim(os.Getenv("UPLOAD_FAILURE_MAIL_TO"))
	if len(to) == 0 {
		return errors.New("UPLOAD_FAILURE_MAIL_TO not set")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(host, port, os.Getenv("SMTP_USER"), os.Getenv("SMTP_PASSWORD"))
	return d.DialAndSend(m)
}
