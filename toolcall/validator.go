package toolcall

import (
	"encoding/json"
	"fmt"
)

// validateInput checks untrusted JSON input against a tool schema.
// It enforces required fields and property types; extra fields the
// schema does not know are rejected so a provider-side schema drift
// surfaces as a validation error instead of a silent no-op.
func validateInput(schema Schema, input json.RawMessage) error {
	var inputMap map[string]any
	if err := json.Unmarshal(input, &inputMap); err != nil {
		return fmt.Errorf("invalid JSON input: %w", err)
	}

	for _, required := range schema.Required {
		if _, exists := inputMap[required]; !exists {
			return fmt.Errorf("missing required field: %s", required)
		}
	}

	for name, value := range inputMap {
		def, ok := schema.Properties[name]
		if !ok {
			return fmt.Errorf("unexpected field: %s", name)
		}
		if err := validateProperty(name, def, value); err != nil {
			return err
		}
	}

	return nil
}

func validateProperty(name string, def PropertyDef, value any) error {
	if value == nil {
		return nil // null is allowed everywhere; object merges use it to delete
	}

	if err := validateType(name, def.Type, value); err != nil {
		return err
	}

	if len(def.Enum) > 0 {
		strVal, ok := value.(string)
		if !ok {
			return fmt.Errorf("field '%s': expected string for enum validation, got %T", name, value)
		}
		valid := false
		for _, e := range def.Enum {
			if strVal == e {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("field '%s': value '%s' not in allowed values %v", name, strVal, def.Enum)
		}
	}

	if def.Type == "array" && def.Items != nil {
		arr, ok := value.([]any)
		if ok {
			for i, item := range arr {
				if err := validateProperty(fmt.Sprintf("%s[%d]", name, i), *def.Items, item); err != nil {
					return err
				}
			}
		}
	}

	if def.Type == "object" && def.Properties != nil {
		obj, ok := value.(map[string]any)
		if ok {
			for _, required := range def.Required {
				if _, exists := obj[required]; !exists {
					return fmt.Errorf("field '%s': missing required field: %s", name, required)
				}
			}
			for propName, propValue := range obj {
				propDef, known := def.Properties[propName]
				if !known {
					return fmt.Errorf("field '%s': unexpected field: %s", name, propName)
				}
				if err := validateProperty(name+"."+propName, propDef, propValue); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

func validateType(name, wantType string, value any) error {
	switch wantType {
	case "string":
		if _, ok := value.(string); !ok {
			return fmt.Errorf("field '%s': expected string, got %T", name, value)
		}
	case "number", "integer":
		if _, ok := value.(float64); !ok {
			return fmt.Errorf("field '%s': expected number, got %T", name, value)
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("field '%s': expected boolean, got %T", name, value)
		}
	case "array":
		if _, ok := value.([]any); !ok {
			return fmt.Errorf("field '%s': expected array, got %T", name, value)
		}
	case "object":
		if _, ok := value.(map[string]any); !ok {
			return fmt.Errorf("field '%s': expected object, got %T", name, value)
		}
	}
	return nil
}
