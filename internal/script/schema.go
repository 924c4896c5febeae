package script

import (
	"github.com/google/jsonschema-go/jsonschema"
)

func ptr[T any](v T) *T {
	return &v
}

// closed rejects any property not listed in Properties. Resolve requires a
// tree of schemas, so every use site needs its own instance.
func closed() *jsonschema.Schema {
	return &jsonschema.Schema{Not: &jsonschema.Schema{}}
}

var ruleSchema = &jsonschema.Schema{
	Type:     "object",
	Required: []string{"match"},
	Properties: map[string]*jsonschema.Schema{
		"match":   {Type: "string", MinLength: ptr(1)},
		"respond": {Type: "string"},
		"end":     {Type: "boolean"},
		"many":    {Type: "boolean"},
	},
	AdditionalProperties: closed(),
}

// scriptSchema describes a script document after YAML decoding.
var scriptSchema = &jsonschema.Schema{
	Type:     "object",
	Required: []string{"command"},
	Properties: map[string]*jsonschema.Schema{
		"command":     {Type: "string", MinLength: ptr(1)},
		"cmd_path":    {Type: "string"},
		"working_dir": {Type: "string"},
		"env": {
			Type:                 "object",
			AdditionalProperties: &jsonschema.Schema{Type: "string"},
		},
		"silent": {Type: "boolean"},
		"pty":    {Type: "boolean"},
		"dirs": {
			Type:  "array",
			Items: &jsonschema.Schema{Type: "string", MinLength: ptr(1)},
		},
		"rules": {
			Type:  "array",
			Items: ruleSchema,
		},
	},
	AdditionalProperties: closed(),
}

// resolvedSchema is computed once; the schema is static.
var resolvedSchema = func() *jsonschema.Resolved {
	rs, err := scriptSchema.Resolve(nil)
	if err != nil {
		panic("script: invalid schema: " + err.Error())
	}

	return rs
}()
