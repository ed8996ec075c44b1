package search

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// DefaultMinQualifying is the default number of qualifying entities a
// combination needs to be accepted (strictly more than one).
const DefaultMinQualifying = 2

// RunConfig is supplied once at run start and is immutable for the run's lifetime.
type RunConfig struct {
	// Universe is the list of items combinations are drawn from.
	// Symbols must be unique.
	Universe []Item `validate:"unique=Symbol,dive"`

	// Entities is the roster snapshot with dispositions already derived.
	// Malformed entities are tolerated; they reject the candidates that touch them.
	Entities []Entity

	// K is the combination size.
	K int `validate:"gte=0"`

	// MaxIterations optionally caps the number of combinations examined.
	// Nil or zero means no cap.
	MaxIterations *big.Int

	// UnownedBudget is the maximum number of unowned entities a combination may unlock.
	UnownedBudget int `validate:"gte=0"`

	// MaxWorkers is the requested worker count. Zero uses all available parallelism.
	MaxWorkers int `validate:"gte=0"`

	// MinQualifying is the number of qualifying entities required for acceptance.
	// Zero means DefaultMinQualifying.
	MinQualifying int `validate:"gte=0"`

	// ExclusiveCategories are item categories of which a combination may hold at most one item.
	ExclusiveCategories []string `validate:"dive,required"`

	// Preview streams accepted results as they are found instead of only at completion.
	Preview bool

	// Verbose enables per-candidate debug logging in workers.
	Verbose bool
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func configValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks the configuration's static constraints.
// It returns an error wrapping ErrInvalidConfig describing every violated field.
func (c RunConfig) Validate() error {
	if err := configValidator().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if c.MaxIterations != nil && c.MaxIterations.Sign() < 0 {
		return fmt.Errorf("%w: MaxIterations must not be negative", ErrInvalidConfig)
	}

	return nil
}

// EffectiveMinQualifying returns MinQualifying with the default applied.
func (c RunConfig) EffectiveMinQualifying() int {
	if c.MinQualifying == 0 {
		return DefaultMinQualifying
	}
	return c.MinQualifying
}
