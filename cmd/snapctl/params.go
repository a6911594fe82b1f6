package main

import (
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

type rawResult = jsoniter.RawMessage

type request struct {
	positional []interface{}
	named      map[string]interface{}
}

// buildRequest converts command line arguments to request params. Arguments
// that are valid JSON are passed as is, anything else is passed as a string.
// Arguments of the form name=value make the request use named params, in
// which case all arguments must be of that form.
func buildRequest(args []string) (*request, error) {
	if len(args) == 0 {
		return &request{}, nil
	}

	if _, _, isNamed := splitNamed(args[0]); !isNamed {
		positional := make([]interface{}, len(args))
		for i, arg := range args {
			if _, _, isNamed := splitNamed(arg); isNamed {
				return nil, errors.Errorf("cannot mix named and positional parameters: %s", arg)
			}
			positional[i] = toParam(arg)
		}
		return &request{positional: positional}, nil
	}

	named := make(map[string]interface{}, len(args))
	for _, arg := range args {
		name, value, isNamed := splitNamed(arg)
		if !isNamed {
			return nil, errors.Errorf("cannot mix named and positional parameters: %s", arg)
		}
		if _, ok := named[name]; ok {
			return nil, errors.Errorf("parameter %s specified twice", name)
		}
		named[name] = toParam(value)
	}
	return &request{named: named}, nil
}

func splitNamed(arg string) (name string, value string, isNamed bool) {
	index := strings.IndexByte(arg, '=')
	if index <= 0 {
		return "", "", false
	}
	name = arg[:index]
	for _, r := range name {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return "", "", false
		}
	}
	return name, arg[index+1:], true
}

func toParam(arg string) interface{} {
	if json.Valid([]byte(arg)) {
		return jsoniter.RawMessage(arg)
	}
	return arg
}

// formatResult renders a result for the terminal. Strings are printed
// without quotes and null prints nothing.
func formatResult(result rawResult) (string, error) {
	if len(result) == 0 || string(result) == "null" {
		return "", nil
	}
	var asString string
	if err := json.Unmarshal(result, &asString); err == nil {
		return asString, nil
	}

	var value interface{}
	err := json.Unmarshal(result, &value)
	if err != nil {
		return "", errors.WithStack(err)
	}
	formatted, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return "", errors.WithStack(err)
	}
	return string(formatted), nil
}
