package admincli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/partsinventory/internal/common"
	"github.com/dmitrijs2005/partsinventory/internal/server/services"
)

// describe rewrites service errors into operator-facing text.
func describe(err error) error {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return fmt.Errorf("invalid input: %s", strings.Join(verr.Messages(), "; "))
	case errors.Is(err, common.ErrorNotFound):
		return fmt.Errorf("no such user: %w", err)
	default:
		return err
	}
}
