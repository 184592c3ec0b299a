package models

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// schemaCache avoids recompiling the same ParameterSchema on every call, the
// same cache-by-source-bytes idiom pluginsdk.ValidateConfig uses for plugin
// manifest schemas.
var schemaCache sync.Map

// ValidateArguments checks a tool call's JSON arguments against p, the
// tool's declared parameter schema. The Agent Runner calls it before
// dispatching a tool call to the MCP client.
func (p ParameterSchema) ValidateArguments(argumentsJSON string) error {
	schema, err := compileParameterSchema(p)
	if err != nil {
		return fmt.Errorf("compile parameter schema: %w", err)
	}

	var decoded any
	if err := json.Unmarshal([]byte(argumentsJSON), &decoded); err != nil {
		return fmt.Errorf("decode arguments: %w", err)
	}

	if err := schema.Validate(decoded); err != nil {
		return fmt.Errorf("arguments do not satisfy parameter schema: %w", err)
	}
	return nil
}

func compileParameterSchema(p ParameterSchema) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	key := string(raw)

	if cached, ok := schemaCache.Load(key); ok {
		if compiled, ok := cached.(*jsonschema.Schema); ok {
			return compiled, nil
		}
	}

	compiled, err := jsonschema.CompileString("tool-parameters.schema.json", key)
	if err != nil {
		return nil, err
	}
	schemaCache.Store(key, compiled)
	return compiled, nil
}
