package argument

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

func init() {
	RegisterType(String)
	RegisterType(Integer)
	RegisterType(Float)
	RegisterType(Boolean)
	RegisterType(Channel)
}

// Built-in types.
var (
	String  Type = stringType{}
	Integer Type = integerType{}
	Float   Type = floatType{}
	Boolean Type = booleanType{}
)

// baseType supplies the default emptiness check.
type baseType struct{}

func (baseType) IsEmpty(value any, _ Conversation, _ *Argument) bool { return IsEmptyValue(value) }

func oneOf(arg *Argument, value string) bool {
	if len(arg.OneOf) == 0 {
		return true
	}
	for _, allowed := range arg.OneOf {
		if strings.EqualFold(allowed, value) {
			return true
		}
	}
	return false
}

func oneOfReason(arg *Argument) Verdict {
	return Invalid("Please enter one of the following options: %s", strings.Join(arg.OneOf, " | "))
}

type stringType struct{ baseType }

func (stringType) ID() string { return "string" }

func (stringType) Validate(_ context.Context, value string, _ Conversation, arg *Argument) (Verdict, error) {
	if !oneOf(arg, value) {
		return oneOfReason(arg), nil
	}
	n := float64(len([]rune(value)))
	if arg.Min != nil && n < *arg.Min {
		return Invalid("Please keep the %s above or exactly %d characters.", arg.DisplayLabel(), int(*arg.Min)), nil
	}
	if arg.Max != nil && n > *arg.Max {
		return Invalid("Please keep the %s below or exactly %d characters.", arg.DisplayLabel(), int(*arg.Max)), nil
	}
	return Valid, nil
}

func (stringType) Parse(_ context.Context, value string, _ Conversation, _ *Argument) (any, error) {
	return value, nil
}

func checkNumber(arg *Argument, n float64, format string) Verdict {
	if arg.Min != nil && n < *arg.Min {
		return Invalid("Please enter a number above or exactly "+format+".", *arg.Min)
	}
	if arg.Max != nil && n > *arg.Max {
		return Invalid("Please enter a number below or exactly "+format+".", *arg.Max)
	}
	return Valid
}

type integerType struct{ baseType }

func (integerType) ID() string { return "integer" }

func (integerType) Validate(_ context.Context, value string, _ Conversation, arg *Argument) (Verdict, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return Verdict{}, nil
	}
	if !oneOf(arg, strconv.Itoa(n)) {
		return oneOfReason(arg), nil
	}
	return checkNumber(arg, float64(n), "%.0f"), nil
}

func (integerType) Parse(_ context.Context, value string, _ Conversation, _ *Argument) (any, error) {
	return strconv.Atoi(strings.TrimSpace(value))
}

type floatType struct{ baseType }

func (floatType) ID() string { return "float" }

func (floatType) Validate(_ context.Context, value string, _ Conversation, arg *Argument) (Verdict, error) {
	n, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return Verdict{}, nil
	}
	if !oneOf(arg, strings.TrimSpace(value)) {
		return oneOfReason(arg), nil
	}
	return checkNumber(arg, n, "%g"), nil
}

func (floatType) Parse(_ context.Context, value string, _ Conversation, _ *Argument) (any, error) {
	return strconv.ParseFloat(strings.TrimSpace(value), 64)
}

var (
	truthy = map[string]bool{"true": true, "t": true, "yes": true, "y": true, "on": true, "enable": true, "enabled": true, "1": true, "+": true}
	falsy  = map[string]bool{"false": true, "f": true, "no": true, "n": true, "off": true, "disable": true, "disabled": true, "0": true, "-": true}
)

type booleanType struct{ baseType }

func (booleanType) ID() string { return "boolean" }

func (booleanType) Validate(_ context.Context, value string, _ Conversation, _ *Argument) (Verdict, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if truthy[v] || falsy[v] {
		return Valid, nil
	}
	return Verdict{}, nil
}

func (booleanType) Parse(_ context.Context, value string, _ Conversation, _ *Argument) (any, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	switch {
	case truthy[v]:
		return true, nil
	case falsy[v]:
		return false, nil
	}
	return nil, fmt.Errorf("unknown boolean value %q", value)
}
