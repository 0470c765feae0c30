package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")

// ErrorOrderLocked is returned when another commitment run holds the
// per-order lock.
var ErrorOrderLocked = errors.New("order is being processed by another request")

func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}
