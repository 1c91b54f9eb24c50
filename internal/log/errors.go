package log

import (
	"errors"

	"vendas/internal/core"
)

// ErrorTypeOf maps a sales pipeline error to its log category.
func ErrorTypeOf(err error) string {
	switch {
	case errors.Is(err, core.ErrParse):
		return ErrorTypeParse
	case errors.Is(err, core.ErrResource):
		return ErrorTypeResource
	default:
		return ErrorTypeInternal
	}
}
