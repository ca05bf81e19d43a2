package llm

import (
	"context"

	"github.com/joseph-ayodele/property-annotator/internal/entity"
)

// PropertyExtractor is the interface the pipeline depends on.
//
// Malformed oracle output is not an error: implementations log it and return an
// empty list. Errors wrap common.ErrRateLimited, common.ErrOracleUnavailable or
// common.ErrCredentialsExhausted; the last one is terminal for the current batch.
type PropertyExtractor interface {
	ExtractProperties(ctx context.Context, text string) ([]entity.PropertyTriple, error)
}
