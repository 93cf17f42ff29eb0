package contextgather

import (
	"errors"

	"github.com/mwiater/contextgather/internal/appconfig"
	"github.com/mwiater/contextgather/internal/contextpack"
	"github.com/mwiater/contextgather/internal/delivery"
	"github.com/mwiater/contextgather/internal/gather"
	"github.com/mwiater/contextgather/internal/tokenizer"
)

// Process exit codes.
const (
	ExitGeneral    = 1
	ExitConfig     = 2
	ExitChunkIndex = 3
)

// ExitCode maps a command error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, delivery.ErrChunkIndexOutOfRange):
		return ExitChunkIndex
	case errors.Is(err, appconfig.ErrInvalidConfig),
		errors.Is(err, gather.ErrInvalidExcludes),
		errors.Is(err, contextpack.ErrInvalidBudget),
		errors.Is(err, contextpack.ErrInvalidHeaderMode),
		errors.Is(err, tokenizer.ErrUnknownKind):
		return ExitConfig
	default:
		return ExitGeneral
	}
}
