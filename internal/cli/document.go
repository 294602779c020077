package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/TimurManjosov/inspectrules/internal/rules"
	"github.com/TimurManjosov/inspectrules/internal/validation"
)

// Document is a file of conditions, as written by operators of an
// inspection rule set.
type Document struct {
	Conditions []rules.Condition `json:"conditions" yaml:"conditions"`
}

// LoadDocument reads a condition document. Files ending in .json are parsed
// as JSON, anything else as YAML. The document may be either a mapping with
// a "conditions" key or a bare list of conditions. Conditions without an id
// get a generated one so results can be told apart.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read conditions file: %w", err)
	}
	if res := validation.ValidateDocumentSize(len(data)); !res.Valid {
		return nil, fmt.Errorf("%s: %s", path, res.Errors["document"])
	}

	doc, err := ParseDocument(data, isJSON(path))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return doc, nil
}

// ParseDocument decodes a condition document from data.
func ParseDocument(data []byte, asJSON bool) (*Document, error) {
	var doc Document
	if asJSON {
		trimmed := bytes.TrimSpace(data)
		target := any(&doc)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			target = &doc.Conditions
		}
		if err := json.Unmarshal(trimmed, target); err != nil {
			return nil, err
		}
	} else {
		var root yaml.Node
		if err := yaml.Unmarshal(data, &root); err != nil {
			return nil, err
		}
		if len(root.Content) > 0 {
			target := any(&doc)
			if root.Content[0].Kind == yaml.SequenceNode {
				target = &doc.Conditions
			}
			if err := root.Content[0].Decode(target); err != nil {
				return nil, err
			}
		}
	}

	for i := range doc.Conditions {
		if doc.Conditions[i].ID == "" {
			doc.Conditions[i].ID = uuid.NewString()
		}
	}
	return &doc, nil
}

// LoadFacts reads an inventory or plugin data file into a mapping. An empty
// path yields an empty mapping.
func LoadFacts(path string) (map[string]any, error) {
	facts := map[string]any{}
	if path == "" {
		return facts, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read facts file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return facts, nil
	}

	if isJSON(path) {
		err = json.Unmarshal(data, &facts)
	} else {
		err = yaml.Unmarshal(data, &facts)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return facts, nil
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}
