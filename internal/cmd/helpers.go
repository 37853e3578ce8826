package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	dderrors "github.com/zfogg/dormdesk/pkg/errors"
)

func parseID(what, s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id < 0 {
		return 0, dderrors.ValidationError(what, fmt.Sprintf("%q is not a number", s))
	}
	return id, nil
}

// ignoreCancel treats Ctrl+C during a long-running command as a clean exit
func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
