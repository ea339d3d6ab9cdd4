package serverutils

import (
	"errors"
	"sync"

	"github.com/gofiber/fiber/v2"
)

type statusRule struct {
	err    error
	status int
}

var (
	rulesMu sync.RWMutex
	rules   []statusRule
)

// RegisterErrorStatus maps sentinel errors to an HTTP status. Matching uses
// errors.Is, so wrapped errors resolve to their sentinel.
func RegisterErrorStatus(status int, errs ...error) {
	rulesMu.Lock()
	defer rulesMu.Unlock()
	for _, err := range errs {
		rules = append(rules, statusRule{err: err, status: status})
	}
}

func StatusFor(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return fiber.StatusBadRequest
	}

	rulesMu.RLock()
	defer rulesMu.RUnlock()
	for _, r := range rules {
		if errors.Is(err, r.err) {
			return r.status
		}
	}
	return fiber.StatusInternalServerError
}

// ErrorHandlerMiddleware turns an error returned down the chain into the
// JSON error envelope.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		status := StatusFor(err)
		return ctx.Status(status).JSON(ErrorResponse(status, err.Error()))
	}
}
