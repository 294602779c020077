package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

// OutputFormat specifies the output format for CLI commands
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
)

// Result is the outcome of evaluating or validating one condition.
type Result struct {
	ID       string `json:"id" yaml:"id"`
	Op       string `json:"op" yaml:"op"`
	Result   bool   `json:"result" yaml:"result"`
	Inverted bool   `json:"inverted,omitempty" yaml:"inverted,omitempty"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
}

// OperatorInfo describes a registered operator.
type OperatorInfo struct {
	Name string `json:"name" yaml:"name"`
	Args string `json:"args" yaml:"args"`
}

// PrintResults outputs evaluation results in the specified format
func PrintResults(w io.Writer, results []Result, format OutputFormat) error {
	return printResults(w, results, format, "Result")
}

// PrintValidation outputs validation results; Result reports validity.
func PrintValidation(w io.Writer, results []Result, format OutputFormat) error {
	return printResults(w, results, format, "Valid")
}

func printResults(w io.Writer, results []Result, format OutputFormat, column string) error {
	switch format {
	case FormatJSON:
		return printJSON(w, map[string][]Result{"results": results})
	case FormatYAML:
		return printYAML(w, map[string][]Result{"results": results})
	case FormatTable:
		table := tablewriter.NewWriter(w)
		table.Header("ID", "Op", "Inverted", column, "Error")
		for _, r := range results {
			table.Append(r.ID, r.Op, strconv.FormatBool(r.Inverted), strconv.FormatBool(r.Result), truncate(r.Error, 60))
		}
		return table.Render()
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// PrintOperators outputs the operator table in the specified format
func PrintOperators(w io.Writer, ops []OperatorInfo, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(w, map[string][]OperatorInfo{"operators": ops})
	case FormatYAML:
		return printYAML(w, map[string][]OperatorInfo{"operators": ops})
	case FormatTable:
		table := tablewriter.NewWriter(w)
		table.Header("Operator", "Arguments")
		for _, op := range ops {
			table.Append(op.Name, op.Args)
		}
		return table.Render()
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func printJSON(w io.Writer, data interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func printYAML(w io.Writer, data interface{}) error {
	encoder := yaml.NewEncoder(w)
	defer encoder.Close()
	encoder.SetIndent(2)
	return encoder.Encode(data)
}

// truncate shortens s to at most max runes.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) > max {
		return string(runes[:max-3]) + "..."
	}
	return s
}
