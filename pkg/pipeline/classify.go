package pipeline

import (
	"context"
	stderrors "errors"

	"github.com/matzehuels/homematch/pkg/assign"
	"github.com/matzehuels/homematch/pkg/cache"
	"github.com/matzehuels/homematch/pkg/errors"
	"github.com/matzehuels/homematch/pkg/exchange"
	"github.com/matzehuels/homematch/pkg/market"
	"github.com/matzehuels/homematch/pkg/rewire"
	"github.com/matzehuels/homematch/pkg/score"
	"github.com/matzehuels/homematch/pkg/store"
)

// classes maps sentinel errors to codes, most specific first.
var classes = []struct {
	target error
	code   errors.Code
	msg    string
}{
	{context.DeadlineExceeded, errors.ErrCodeTimeout, "optimization timed out"},
	{context.Canceled, errors.ErrCodeCanceled, "optimization canceled"},
	{score.ErrIncomeTooHigh, errors.ErrCodeIneligible, "ineligible pairing"},
	{rewire.ErrSearchSpaceTooLarge, errors.ErrCodeSearchSpace, "market too large for exhaustive search"},
	{assign.ErrNoAugmentingPath, errors.ErrCodeSolverExhausted, "assignment solver exhausted"},
	{exchange.ErrFullyExploredVertex, errors.ErrCodeSolverExhausted, "exchange cycle search failed"},
	{exchange.ErrNotImproving, errors.ErrCodeSolverExhausted, "exchange did not improve"},
	{market.ErrHouseNotFound, errors.ErrCodeNotFound, "unknown house"},
	{market.ErrHouseholdNotFound, errors.ErrCodeNotFound, "unknown household"},
	{store.ErrNotFound, errors.ErrCodeRunNotFound, "unknown run"},
	{market.ErrDuplicateHouseID, errors.ErrCodeInvalidMarket, "invalid market"},
	{market.ErrDuplicateHouseholdID, errors.ErrCodeInvalidMarket, "invalid market"},
	{market.ErrInvalidID, errors.ErrCodeInvalidMarket, "invalid market"},
	{market.ErrHouseAlreadyMatched, errors.ErrCodeInvalidMarket, "invalid market"},
	{market.ErrHouseholdAlreadyMatched, errors.ErrCodeInvalidMarket, "invalid market"},
	{market.ErrSameSide, errors.ErrCodeInvalidMarket, "invalid market"},
	{market.ErrNotConnected, errors.ErrCodeInvalidMarket, "invalid market"},
	{market.ErrBrokenInvariant, errors.ErrCodeInvalidMarket, "invalid market"},
	{assign.ErrUnequalSides, errors.ErrCodeInvalidMarket, "invalid market"},
	{rewire.ErrNoScorer, errors.ErrCodeInvalidInput, "no scorer configured"},
	{cache.ErrUnavailable, errors.ErrCodeUnavailable, "cache unavailable"},
}

// Classify converts err into a coded error for the CLI and API. Errors that
// already carry a code are returned unchanged; unknown errors become
// INTERNAL_ERROR. Classify(nil) is nil.
func Classify(err error) *errors.Error {
	if err == nil {
		return nil
	}
	var coded *errors.Error
	if stderrors.As(err, &coded) {
		return coded
	}
	for _, c := range classes {
		if stderrors.Is(err, c.target) {
			return errors.Wrap(c.code, err, "%s", c.msg)
		}
	}
	return errors.Wrap(errors.ErrCodeInternal, err, "optimization failed")
}
