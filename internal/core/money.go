// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing subscription costs from user input
// and formatting them for display.
package core

import (
	"errors"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var ErrInvalidCost = errors.New("invalid cost")

// ParseCost converts a decimal string to a non-negative cost.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Signs are
// rejected; zero is allowed because free tiers are still worth tracking.
//
// Examples:
//
//	ParseCost("12.34") -> 12.34, nil
//	ParseCost("12,34") -> 12.34, nil
//	ParseCost("0")     -> 0, nil
//	ParseCost("-1")    -> error
func ParseCost(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidCost
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidCost
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 || strings.Trim(s, ".") == "" {
		return decimal.Zero, ErrInvalidCost
	}
	for _, part := range parts {
		for _, r := range part {
			if !unicode.IsDigit(r) {
				return decimal.Zero, ErrInvalidCost
			}
		}
	}
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	s = strings.TrimSuffix(s, ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidCost
	}
	return d, nil
}

// FormatCost renders a cost with two decimals for display.
func FormatCost(d decimal.Decimal) string {
	return d.StringFixed(2)
}
