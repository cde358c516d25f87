// Package truthy implements helpers to test the truthy-ness of the values.
package truthy

import (
	"fmt"
	"strings"
)

var (
	// nos is the list of well-known representations of `false`.
	nos = [...]string{
		"",
		"0",
		"f",
		"false",
		"n",
		"no",
		"off",
	}

	// yeses is the list of well-known representations of `true`.
	yeses = [...]string{
		"1",
		"t",
		"true",
		"y",
		"yes",
		"on",
	}
)

// Is returns `false` if the argument sounds like "false" (empty string, "0",
// "f", "false", and so on), and `true` if it sounds like "true". Anything
// else is an error.
func Is(val string) (bool, error) {
	val = strings.ToLower(strings.TrimSpace(val))

	for _, no := range nos {
		if val == no {
			return false, nil
		}
	}
	for _, yes := range yeses {
		if val == yes {
			return true, nil
		}
	}

	return false, fmt.Errorf("can not determine boolean value of '%s'", val)
}

// TrueOnError collapses the result of Is, treating unknown values as `true`.
func TrueOnError(val bool, err error) bool {
	if err != nil {
		return true
	}
	return val
}

// FalseOnError collapses the result of Is, treating unknown values as `false`.
func FalseOnError(val bool, err error) bool {
	if err != nil {
		return false
	}
	return val
}
