// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/apex/log"
)

// filterRegex is the pattern used to parse filter expressions into key, operator, and target components.
// It matches: key + operator + target, where operator can be negated with !
var filterRegex = regexp.MustCompile(`^(.*?)(!?[=^~><@/])(.*)$`)

// Filter represents a single parsed --filter expression including the key,
// operand, optional negation and target value.
type Filter struct {
	Key     string
	Negate  bool
	Operand string
	Target  string
}

// BuildFilters parses a filter specification string into a slice of Filter.
// Invalid specs are skipped.
func BuildFilters(spec string) []Filter {
	//nolint:prealloc
	var filters []Filter

	if spec == "" {
		return filters
	}

	// Default delimiter is ",", allow an override.
	delim := ","
	if d, ok := os.LookupEnv("DPCVIZ_FILTER_DELIM"); ok {
		delim = d
	}

	for _, filterSpec := range strings.Split(spec, delim) {
		parts := filterRegex.FindStringSubmatch(filterSpec)
		if parts == nil {
			log.Error("invalid filter: " + filterSpec)
			continue
		}

		// parts[2] is the operand. It may have a leading negation.
		negate := strings.HasPrefix(parts[2], "!")
		if negate {
			parts[2] = strings.TrimPrefix(parts[2], "!")
		}

		filters = append(filters, Filter{
			Key:     parts[1],
			Negate:  negate,
			Operand: parts[2],
			Target:  parts[3],
		})
	}

	return filters
}

// FilterDataset returns the rows matching every filter in spec.
func FilterDataset(rows []map[string]interface{}, spec string) []map[string]interface{} {
	filters := BuildFilters(spec)
	if len(filters) == 0 {
		return rows
	}

	//nolint:prealloc // Don't prealloc because we don't know what len will be.
	var filtered []map[string]interface{}
	for _, row := range rows {
		if applyFilters(row, filters) {
			filtered = append(filtered, row)
		}
	}
	return filtered
}

// applyFilters returns true if the row matches all of the provided filters.
func applyFilters(row map[string]interface{}, filters []Filter) bool {
	for _, filter := range filters {
		value, found := row[filter.Key]
		if !found {
			msg := fmt.Sprintf("filter key not found: %s", filter.Key)
			log.Error(msg)
			fmt.Fprintf(os.Stderr, "warning: %s\n", msg)
			continue
		}

		// Undefined cells never match.
		if value == nil {
			return false
		}

		var result bool
		switch v := value.(type) {
		case float64:
			result = checkNumberOperand(v, filter)
		default:
			result = checkStringOperand(fmt.Sprintf("%v", v), filter)
		}

		if !result {
			return false
		}
	}

	return true
}

// checkNumberOperand compares numerically when the target parses as a number
// and falls back to string semantics otherwise.
func checkNumberOperand(value float64, filter Filter) bool {
	target, err := strconv.ParseFloat(filter.Target, 64)
	if err != nil {
		return checkStringOperand(strconv.FormatFloat(value, 'f', -1, 64), filter)
	}

	switch filter.Operand {
	case "=":
		return value == target == !filter.Negate
	case ">":
		return value > target == !filter.Negate
	case "<":
		return value < target == !filter.Negate
	default:
		return checkStringOperand(strconv.FormatFloat(value, 'f', -1, 64), filter)
	}
}

// checkStringOperand evaluates a string comparison style filter against the
// provided value using the operand semantics.
func checkStringOperand(value string, filter Filter) bool {
	switch filter.Operand {
	case "=":
		return value == filter.Target == !filter.Negate
	case "~":
		return strings.EqualFold(value, filter.Target) == !filter.Negate
	case "^":
		return strings.HasPrefix(value, filter.Target) == !filter.Negate
	case ">":
		return value > filter.Target == !filter.Negate
	case "<":
		return value < filter.Target == !filter.Negate
	case "@":
		return strings.Contains(value, filter.Target) == !filter.Negate
	case "/":
		matched, err := regexp.MatchString(filter.Target, value)
		if err != nil {
			log.Error("invalid regex: " + filter.Target)
			return false
		}
		return matched == !filter.Negate
	default:
		log.Error("unsupported filtering operand: " + filter.Operand)
		return false
	}
}
