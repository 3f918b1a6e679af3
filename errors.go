package bulkwrite

import "github.com/pkg/errors"

var (
	ErrInvalidCollection  = errors.New("invalid collection")
	ErrInvalidAccumulator = errors.New("invalid accumulator")
	ErrNothingToConcat    = errors.New("nothing to concat")
	ErrInvalidConcat      = errors.New("invalid concat")
	ErrDuplicateName      = errors.New("duplicate accumulator name")
	ErrInvalidTransaction = errors.New("invalid transaction runner")
)

var usageErrors = []error{
	ErrInvalidCollection,
	ErrInvalidAccumulator,
	ErrNothingToConcat,
	ErrInvalidConcat,
	ErrDuplicateName,
	ErrInvalidTransaction,
}

// IsUsageError reports whether err was caused by misuse of this package
// rather than by the store.
func IsUsageError(err error) bool {
	for _, target := range usageErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
