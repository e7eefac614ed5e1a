// Copyright © 2026 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/staranto/dpcviz/internal/output"
)

func GlobalFlagsValidator(ctx context.Context, c *cli.Command) error {
	return nil
}

type FlagValidatorType func(any) error

func FlagValidators(value any, validators ...FlagValidatorType) error {
	for _, v := range validators {
		if err := v(value); err != nil {
			return err
		}
	}
	return nil
}

// JammedFlagValidator verifies that the arg following a flag does not begin
// with '--'.  urfave/cli allows this and I don't see how to turn it off.
func JammedFlagValidator(value any) error {
	if strings.HasPrefix(value.(string), "--") {
		return errors.New("must not begin with '--'")
	}
	return nil
}

func oneOf(value any, valid []string) error {
	for _, v := range valid {
		if v == value {
			return nil
		}
	}
	return fmt.Errorf("must be one of %v", valid)
}

func OutputValidator(value any) error {
	return oneOf(value, output.Formats)
}

// ImageFormatValidator accepts the standalone chart formats.
func ImageFormatValidator(value any) error {
	return oneOf(value, []string{"png", "svg"})
}

// WhereValidator requires a column=value pair. Empty is allowed.
func WhereValidator(value any) error {
	s := value.(string)
	if s == "" {
		return nil
	}
	if _, _, err := parseWhere(s); err != nil {
		return err
	}
	return nil
}

func NonNegativeValidator(value any) error {
	if value.(int) < 0 {
		return errors.New("must not be negative")
	}
	return nil
}

// LocationValidator requires a tz database name.
func LocationValidator(value any) error {
	if _, err := time.LoadLocation(value.(string)); err != nil {
		return fmt.Errorf("unknown time zone: %w", err)
	}
	return nil
}

// parseWhere splits col=value.
func parseWhere(s string) (string, string, error) {
	col, val, ok := strings.Cut(s, "=")
	if !ok || col == "" {
		return "", "", fmt.Errorf("%q must be column=value", s)
	}
	return col, val, nil
}
