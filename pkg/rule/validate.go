// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rule

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/walteh/replacerc/pkg/matcher"
	"gitlab.com/tozd/go/errors"
)

var (
	ErrEmptyPattern      = errors.Base("pattern is required")
	ErrInvalidPattern    = errors.Base("invalid regular expression")
	ErrInvalidOccurrence = errors.Base("occurrence index must not be negative")
	ErrRuleNotFound      = errors.Base("rule not found")
	ErrBookNotFound      = errors.Base("book configuration not found")
	ErrMissingID         = errors.Base("rule id is required")
	ErrDuplicateID       = errors.Base("rule id already exists")
)

var validate = validator.New()

// ❌ ValidationError is returned when a rule cannot be created as described
type ValidationError struct {
	Pattern string
	Reason  error // one of the Err* sentinels
	Cause   error // underlying compile error, if any
}

func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("pattern %q: %v: %v", e.Pattern, e.Reason, e.Cause)
	}
	return fmt.Sprintf("pattern %q: %v", e.Pattern, e.Reason)
}

func (e *ValidationError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Reason, e.Cause}
	}
	return []error{e.Reason}
}

// ✅ Validation is the pre-submission result shown next to a pattern field
type Validation struct {
	Valid bool
	Err   error
}

// Message returns the error text, or "" when the pattern is valid.
func (v Validation) Message() string {
	if v.Err == nil {
		return ""
	}
	return v.Err.Error()
}

// 🔍 ValidatePattern checks that a pattern is non-empty and, for regular expressions, compiles
func ValidatePattern(pattern string, isRegex bool) Validation {
	if pattern == "" {
		return Validation{Err: &ValidationError{Pattern: pattern, Reason: ErrEmptyPattern}}
	}
	if isRegex {
		if _, err := matcher.Compile(matcher.Normalize(pattern, true, true), matcher.Options{}); err != nil {
			return Validation{Err: &ValidationError{Pattern: pattern, Reason: ErrInvalidPattern, Cause: err}}
		}
	}
	return Validation{Valid: true}
}

func validateOptions(opts Options) error {
	if err := validate.Struct(opts); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return errors.Errorf("validating rule options: %w", err)
		}
		for _, fe := range verrs {
			switch fe.Field() {
			case "Pattern":
				return &ValidationError{Pattern: opts.Pattern, Reason: ErrEmptyPattern}
			case "OccurrenceIndex":
				return &ValidationError{Pattern: opts.Pattern, Reason: ErrInvalidOccurrence}
			}
		}
		return errors.Errorf("validating rule options: %w", err)
	}

	if v := ValidatePattern(opts.Pattern, opts.IsRegex); !v.Valid {
		return v.Err
	}
	return nil
}
