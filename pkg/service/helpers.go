package service

import (
	"fmt"
	"strconv"
	"time"

	"github.com/zfogg/dormdesk/pkg/client"
	dderrors "github.com/zfogg/dormdesk/pkg/errors"
)

func pluralize(count int) string {
	if count == 1 {
		return ""
	}
	return "s"
}

func truncate(s string, length int) string {
	r := []rune(s)
	if len(r) > length {
		return string(r[:length-3]) + "..."
	}
	return s
}

// Today is the local date in the API's date format
func Today() string {
	return time.Now().Format("2006-01-02")
}

func itoa(v int) string {
	return strconv.Itoa(v)
}

// actionError wraps a failed action on one record. A 404 becomes a
// not-found error naming the record; anything else keeps its cause.
func actionError(action, resource string, id int, err error) error {
	if client.IsNotFound(err) {
		nf := dderrors.NotFoundError(resource, itoa(id))
		nf.Cause = err
		return nf
	}
	return fmt.Errorf("failed to %s %s %d: %w", action, resource, id, err)
}
