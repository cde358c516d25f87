// Package envflag is a wrapper for stdlib's flag that adds the environment
// variables as additional source of the values for flags.
//
// Precedence is: command line, then environment, then the default.
package envflag

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/flashbots/devhttps/truthy"
)

// Bool is a convenience wrapper for boolean flag that picks its default value
// from the environment variable.
func Bool(fs *flag.FlagSet, name string, defaultValue bool, usage string) (*bool, error) {
	value := defaultValue
	env := flagToEnv(name)
	var err error
	if raw := os.Getenv(env); raw != "" {
		value, err = truthy.Is(raw)
		if err != nil {
			err = fmt.Errorf("invalid boolean value \"%s\" for environment variable %s: %w", raw, env, err)
			value = defaultValue
		}
	}
	return fs.Bool(name, value, usage+fmt.Sprintf(" (env \"%s\")", env)), err
}

// MustBool is like Bool but panics on a malformed environment value.
func MustBool(fs *flag.FlagSet, name string, defaultValue bool, usage string) *bool {
	res, err := Bool(fs, name, defaultValue, usage)
	if err != nil {
		panic(err)
	}
	return res
}

// Int is a convenience wrapper for integer flag that picks its default value
// from the environment variable.
func Int(fs *flag.FlagSet, name string, defaultValue int, usage string) (*int, error) {
	value := defaultValue
	env := flagToEnv(name)
	var err error
	if raw := os.Getenv(env); raw != "" {
		value, err = strconv.Atoi(raw)
		if err != nil {
			err = fmt.Errorf("invalid integer value \"%s\" for environment variable %s: %w", raw, env, err)
			value = defaultValue
		}
	}
	return fs.Int(name, value, usage+fmt.Sprintf(" (env \"%s\")", env)), err
}

// Duration is a convenience wrapper for duration flag that picks its default
// value from the environment variable.
func Duration(fs *flag.FlagSet, name string, defaultValue time.Duration, usage string) (*time.Duration, error) {
	value := defaultValue
	env := flagToEnv(name)
	var err error
	if raw := os.Getenv(env); raw != "" {
		value, err = time.ParseDuration(raw)
		if err != nil {
			err = fmt.Errorf("invalid duration value \"%s\" for environment variable %s: %w", raw, env, err)
			value = defaultValue
		}
	}
	return fs.Duration(name, value, usage+fmt.Sprintf(" (env \"%s\")", env)), err
}

// String is a convenience wrapper for string flag that picks its default value
// from the environment variable.
func String(fs *flag.FlagSet, name, defaultValue, usage string) *string {
	value := defaultValue
	env := flagToEnv(name)
	if raw := os.Getenv(env); raw != "" {
		value = raw
	}
	return fs.String(name, value, usage+fmt.Sprintf(" (env \"%s\")", env))
}

func flagToEnv(flag string) string {
	return strings.ToUpper(
		strings.ReplaceAll(flag, "-", "_"),
	)
}
