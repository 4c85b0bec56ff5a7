package server

import (
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonschema"
)

// transferSchema validates POST /transfers bodies before any decoding. The
// amount stays a decimal string so precision is never lost to a JSON number.
const transferSchema = `{
	"type": "object",
	"properties": {
		"chain":          {"type": "string", "minLength": 1},
		"from":           {"type": "string", "minLength": 1},
		"to":             {"type": "string", "minLength": 1},
		"amount":         {"type": "string", "pattern": "^[0-9]+(\\.[0-9]+)?$"},
		"token_contract": {"type": "string"},
		"token_symbol":   {"type": "string"},
		"token_decimals": {"type": "integer", "minimum": 0},
		"fee_tier":       {"type": "string", "enum": ["fast", "medium", "slow"]}
	},
	"required": ["chain", "from", "to", "amount"],
	"additionalProperties": false
}`

func compileTransferSchema() (*jsonschema.Schema, error) {
	schema, err := jsonschema.NewCompiler().Compile([]byte(transferSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile transfer schema: %w", err)
	}
	return schema, nil
}

func validateBody(schema *jsonschema.Schema, body []byte) error {
	res := schema.Validate(body)
	if res.IsValid() {
		return nil
	}
	var errStrs []string
	for _, e := range res.Errors {
		errStrs = append(errStrs, e.Error())
	}
	return fmt.Errorf("%s", strings.Join(errStrs, ", "))
}
