package spec

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// SchemaJSON is the JSON schema of the persisted specification format.
// Blocks and fields may be omitted or null while a draft is in progress, but
// every value present must have the right shape.
const SchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": ["object", "null"],
  "definitions": {
    "strings": { "type": ["array", "null"], "items": { "type": ["string", "null"] } }
  },
  "properties": {
    "mission": {
      "type": ["object", "null"],
      "properties": {
        "problem": { "type": ["string", "null"] },
        "success_criteria": { "$ref": "#/definitions/strings" },
        "non_goals": { "$ref": "#/definitions/strings" }
      }
    },
    "audience": {
      "type": ["object", "null"],
      "properties": {
        "persona": { "type": ["string", "null"] },
        "skill_level": { "type": ["string", "null"] },
        "language": { "type": ["string", "null"] },
        "tone": { "type": ["string", "null"] }
      }
    },
    "scope": {
      "type": ["object", "null"],
      "properties": {
        "must_do": { "$ref": "#/definitions/strings" },
        "should_do": { "$ref": "#/definitions/strings" },
        "nice_to_have": { "$ref": "#/definitions/strings" },
        "out_of_scope": { "$ref": "#/definitions/strings" }
      }
    },
    "io_contracts": {
      "type": ["object", "null"],
      "properties": {
        "inputs": {
          "type": ["array", "null"],
          "items": {
            "type": ["object", "null"],
            "properties": {
              "name": { "type": ["string", "null"] },
              "format": { "type": ["string", "null"] },
              "constraints": { "$ref": "#/definitions/strings" }
            }
          }
        },
        "outputs": {
          "type": ["object", "null"],
          "properties": {
            "format": { "type": ["string", "null"] },
            "sections": { "$ref": "#/definitions/strings" },
            "style_rules": { "$ref": "#/definitions/strings" }
          }
        }
      }
    },
    "constraints": {
      "type": ["object", "null"],
      "properties": {
        "length": { "type": ["string", "null"] },
        "citation_policy": { "type": ["string", "null"] },
        "verification": { "type": ["string", "null"] }
      }
    },
    "safety": {
      "type": ["object", "null"],
      "properties": {
        "refusals": { "$ref": "#/definitions/strings" },
        "sensitive_topics": { "$ref": "#/definitions/strings" }
      }
    },
    "examples": {
      "type": ["object", "null"],
      "properties": {
        "good": { "$ref": "#/definitions/strings" },
        "bad": { "$ref": "#/definitions/strings" }
      }
    },
    "metadata": {
      "type": ["object", "null"],
      "properties": {
        "domain_tags": { "$ref": "#/definitions/strings" },
        "template_id": { "type": ["string", "null"] }
      }
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(SchemaJSON)

// ParseJSON validates data against SchemaJSON and decodes it.
func ParseJSON(data []byte) (*Specification, error) {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to validate spec document: %w", err)
	}
	if !result.Valid() {
		issues := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			issues = append(issues, desc.String())
		}
		return nil, &SchemaError{Issues: issues}
	}

	var s Specification
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode spec: %w", err)
	}
	return &s, nil
}

// ParseYAML converts a YAML document to JSON and parses it with ParseJSON,
// so both formats are held to the same schema. Every field of the format is
// text, so scalars keep their source text: an unquoted 2024-01-01, 42 or true
// stays the string the user wrote.
func ParseYAML(data []byte) (*Specification, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse spec yaml: %w", err)
	}
	if root.Kind == 0 {
		return ParseJSON([]byte("{}"))
	}
	literalScalars(&root)

	var doc any
	if err := root.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse spec yaml: %w", err)
	}
	jsonData, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to convert spec yaml: %w", err)
	}
	return ParseJSON(jsonData)
}

// literalScalars retags every non-null scalar under n as a string.
func literalScalars(n *yaml.Node) {
	if n.Kind == yaml.ScalarNode {
		switch n.ShortTag() {
		case "!!null", "!!merge":
		default:
			n.Tag = "!!str"
		}
	}
	for _, c := range n.Content {
		literalScalars(c)
	}
}
