package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/elchinoo/colt/pkg/types"
	"github.com/go-playground/validator/v10"
)

// tagValidator is shared across Load calls; validator.Validate holds no
// mutable state beyond its compiled tag cache, so one instance per process
// is the documented usage pattern.
var tagValidator = sync.OnceValue(func() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
})

// validateTags runs the struct-tag-based checks declared on types.Config
// (required fields, numeric ranges, oneof enums). It runs before
// validateConfig, which covers the cross-field/semantic checks a tag alone
// can't express — ratio sums, CQL-kind inference agreement, and the like.
func validateTags(cfg *types.Config) error {
	if err := tagValidator().Struct(cfg); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s: failed %q validation", fe.Namespace(), fe.Tag()))
		}
		return fmt.Errorf("%s", strings.Join(msgs, "; "))
	}
	return nil
}
