// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025 The Linux Foundation

package report

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"
)

// ToJSON renders r as compact and indented JSON, each validated by
// unmarshaling the bytes back into a Report and, when strict, checking that
// a further marshal/unmarshal round trip of that Report reproduces it, the
// same belt-and-suspenders check ArtifactUploader.writeJSON runs before
// writing metadata.json/metadata-pretty.json, specialized here to Report's
// own shape instead of a generic interface{} payload.
func (r *Report) ToJSON(strict bool) (compact, pretty []byte, err error) {
	compact, err = json.Marshal(r)
	if err != nil {
		return nil, nil, fmt.Errorf("report: compact JSON marshal failed: %w", err)
	}
	if err := validateReportJSON(compact, strict); err != nil {
		return nil, nil, fmt.Errorf("report: compact JSON validation failed: %w", err)
	}

	pretty, err = json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("report: pretty JSON marshal failed: %w", err)
	}
	if err := validateReportJSON(pretty, strict); err != nil {
		return nil, nil, fmt.Errorf("report: pretty JSON validation failed: %w", err)
	}
	return compact, pretty, nil
}

// ToYAML renders r as YAML, round-trip validated the same way as ToJSON.
func (r *Report) ToYAML(strict bool) ([]byte, error) {
	data, err := yaml.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("report: YAML marshal failed: %w", err)
	}
	if err := validateReportYAML(data, strict); err != nil {
		return nil, err
	}
	return data, nil
}

// ParseJSON parses and round-trip-validates data as a Report. Comments
// (// and /* */ style, as a hand-edited fixture might carry) are stripped
// before validation so a snapshot saved for a regression test can stay
// annotated without failing strict JSON validation.
func ParseJSON(data []byte, strict bool) (*Report, error) {
	cleaned := []byte(stripJSONComments(string(data)))
	if err := validateReportJSON(cleaned, strict); err != nil {
		return nil, fmt.Errorf("report: invalid JSON report: %w", err)
	}
	var r Report
	if err := json.Unmarshal(cleaned, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// ParseYAML parses and round-trip-validates data as a Report.
func ParseYAML(data []byte, strict bool) (*Report, error) {
	if err := validateReportYAML(data, strict); err != nil {
		return nil, fmt.Errorf("report: invalid YAML report: %w", err)
	}
	var r Report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// validateReportJSON checks that data unmarshals into a Report and, in
// strict mode, that marshaling the result back to JSON and unmarshaling it
// again yields an equal Report. This is the teacher's
// marshal-unmarshal-remarshal-compare technique, narrowed from a generic
// interface{} payload to Report's own fields so a lossy tag or a field that
// doesn't survive the round trip is caught directly.
func validateReportJSON(data []byte, strict bool) error {
	if len(data) == 0 {
		return fmt.Errorf("JSON data is empty")
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return fmt.Errorf("invalid JSON syntax: %w", err)
	}
	if !strict {
		return nil
	}
	marshaled, err := json.Marshal(&r)
	if err != nil {
		return fmt.Errorf("JSON marshal failed during validation: %w", err)
	}
	var roundTrip Report
	if err := json.Unmarshal(marshaled, &roundTrip); err != nil {
		return fmt.Errorf("JSON round-trip validation failed: %w", err)
	}
	if !reflect.DeepEqual(r, roundTrip) {
		return fmt.Errorf("JSON round-trip produced a different report")
	}
	return nil
}

func validateReportYAML(data []byte, strict bool) error {
	if len(data) == 0 {
		return fmt.Errorf("YAML data is empty")
	}
	var r Report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return fmt.Errorf("invalid YAML syntax: %w", err)
	}
	if !strict {
		return nil
	}
	marshaled, err := yaml.Marshal(&r)
	if err != nil {
		return fmt.Errorf("YAML marshal failed during validation: %w", err)
	}
	var roundTrip Report
	if err := yaml.Unmarshal(marshaled, &roundTrip); err != nil {
		return fmt.Errorf("YAML round-trip validation failed: %w", err)
	}
	if !reflect.DeepEqual(r, roundTrip) {
		return fmt.Errorf("YAML round-trip produced a different report")
	}
	return nil
}

// stripJSONComments removes // and /* */ style comments from JSON content,
// using the same character-at-a-time, string-aware cursor internal/lexer
// uses for corelang source text, so a hand-annotated report fixture (as a
// regression test snapshot might carry) can stay commented without tripping
// strict JSON validation.
func stripJSONComments(jsonStr string) string {
	lines := strings.Split(jsonStr, "\n")
	result := make([]string, 0, len(lines))

	inBlockComment := false

	for _, line := range lines {
		processedLine := line
		hadContent := len(strings.TrimSpace(line)) > 0

		if !inBlockComment {
			if idx := findLineCommentOutsideString(processedLine); idx >= 0 {
				processedLine = strings.TrimRight(processedLine[:idx], " \t")
			}
		}

		for {
			if inBlockComment {
				if endIdx := strings.Index(processedLine, "*/"); endIdx >= 0 {
					processedLine = processedLine[endIdx+2:]
					inBlockComment = false
					continue
				}
				processedLine = ""
				break
			}
			startIdx := strings.Index(processedLine, "/*")
			if startIdx < 0 {
				break
			}
			if endIdx := strings.Index(processedLine[startIdx:], "*/"); endIdx >= 0 {
				processedLine = processedLine[:startIdx] + processedLine[startIdx+endIdx+2:]
				continue
			}
			processedLine = processedLine[:startIdx]
			inBlockComment = true
			break
		}

		switch {
		case len(strings.TrimSpace(processedLine)) > 0:
			result = append(result, processedLine)
		case hadContent:
			result = append(result, "")
		default:
			result = append(result, processedLine)
		}
	}

	return strings.Join(result, "\n")
}

// findLineCommentOutsideString returns the index of a // that isn't inside
// a quoted string, or -1 if there isn't one.
func findLineCommentOutsideString(line string) int {
	inString := false
	escaped := false

	for i := 0; i < len(line); i++ {
		c := line[i]
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if !inString && i < len(line)-1 && c == '/' && line[i+1] == '/' {
			return i
		}
	}
	return -1
}
