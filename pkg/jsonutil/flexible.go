package jsonutil

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// FlexibleStringValue converts a json.RawMessage to a string, accepting numbers
// and booleans as well as strings. Returns empty string for null/empty.
func FlexibleStringValue(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		return strVal
	}

	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		if numVal == float64(int64(numVal)) {
			return fmt.Sprintf("%d", int64(numVal))
		}
		return fmt.Sprintf("%g", numVal)
	}

	var boolVal bool
	if err := json.Unmarshal(raw, &boolVal); err == nil {
		return fmt.Sprintf("%t", boolVal)
	}

	return string(raw)
}

// FlexInt is an integer config field that also accepts quoted values, as in
// "port": "22". The raw text is kept so that an explicit "0" in a file is not
// mistaken for an unset field.
type FlexInt string

// Int parses the value.
func (f FlexInt) Int() (int, error) {
	return strconv.Atoi(strings.TrimSpace(string(f)))
}

// IntOr returns the parsed value, or def when the field is empty or invalid.
func (f FlexInt) IntOr(def int) int {
	if strings.TrimSpace(string(f)) == "" {
		return def
	}
	n, err := f.Int()
	if err != nil {
		return def
	}
	return n
}

// Validate reports a parse error for non-empty values.
func (f FlexInt) Validate() error {
	if strings.TrimSpace(string(f)) == "" {
		return nil
	}
	if _, err := f.Int(); err != nil {
		return fmt.Errorf("invalid integer %q", string(f))
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	*f = FlexInt(FlexibleStringValue(data))
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (f *FlexInt) UnmarshalYAML(node *yaml.Node) error {
	*f = FlexInt(node.Value)
	return nil
}

// FlexBool is a boolean config field that also accepts quoted values, as in
// "caseInsensitive": "true".
type FlexBool string

// Bool parses the value.
func (f FlexBool) Bool() (bool, error) {
	return strconv.ParseBool(strings.ToLower(strings.TrimSpace(string(f))))
}

// BoolOr returns the parsed value, or def when the field is empty or invalid.
func (f FlexBool) BoolOr(def bool) bool {
	if strings.TrimSpace(string(f)) == "" {
		return def
	}
	b, err := f.Bool()
	if err != nil {
		return def
	}
	return b
}

// Validate reports a parse error for non-empty values.
func (f FlexBool) Validate() error {
	if strings.TrimSpace(string(f)) == "" {
		return nil
	}
	if _, err := f.Bool(); err != nil {
		return fmt.Errorf("invalid boolean %q", string(f))
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexBool) UnmarshalJSON(data []byte) error {
	*f = FlexBool(FlexibleStringValue(data))
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (f *FlexBool) UnmarshalYAML(node *yaml.Node) error {
	*f = FlexBool(node.Value)
	return nil
}
