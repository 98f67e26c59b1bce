// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LitScout Contributors

package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// CheckInput validates an operation's input struct against its tags: every
// field required, and a reset's confirmation equal to the new password. It
// returns a PRECONDITION_FAILED error listing the offending fields.
func CheckInput(input any) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return oops.Code("PRECONDITION_FAILED").Wrap(err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field()+":"+fe.Tag())
	}
	return oops.Code("PRECONDITION_FAILED").
		With("fields", fields).
		Errorf("invalid input: %s", strings.Join(fields, ", "))
}

// Precheck runs CheckInput for op. A violation is reported like any other
// failed operation, as a ValidationError with its notification and metrics
// observation, and no remote call is made.
func (s *Service) Precheck(ctx context.Context, op Operation, input any) error {
	err := CheckInput(input)
	if err == nil {
		return nil
	}
	ctx, done := s.begin(ctx, op)
	f := s.failWith(ctx, op, ValidationError, 0, err)
	done(f)
	return f
}
