package workbook

import (
	"fmt"
	"strconv"
	"strings"
)

// SheetConfig maps the four fixed column roles to zero-based column
// indices. It is declared by the workbook itself in row 1, e.g.
// "link_column=0;var1_column=1;var2_column=2;discount_column=3".
type SheetConfig struct {
	LinkCol     int
	Var1Col     int
	Var2Col     int
	DiscountCol int
}

// RoleCols returns the four role indices in declaration order.
func (c SheetConfig) RoleCols() [4]int {
	return [4]int{c.LinkCol, c.Var1Col, c.Var2Col, c.DiscountCol}
}

// IsRoleCol reports whether col is one of the four fixed role columns.
func (c SheetConfig) IsRoleCol(col int) bool {
	for _, rc := range c.RoleCols() {
		if rc == col {
			return true
		}
	}
	return false
}

// ConfigError reports a malformed or incomplete configuration row.
// It is fatal: a run must abort before any network activity.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "workbook config: " + e.Reason
}

var requiredKeys = []string{"link_column", "var1_column", "var2_column", "discount_column"}

// parseConfigPairs parses one "key=value;key=value" cell into pairs,
// folding keys to lower case and trimming whitespace around tokens.
// Duplicate keys within the cell are an error; tokens without '=' are
// ignored so that decorative cells do not break parsing.
func parseConfigPairs(cell string, into map[string]string) error {
	for _, part := range strings.Split(cell, ";") {
		part = strings.TrimSpace(part)
		if part == "" || !strings.Contains(part, "=") {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		key := strings.ToLower(strings.TrimSpace(kv[0]))
		val := strings.TrimSpace(kv[1])
		if key == "" {
			continue
		}
		if _, dup := into[key]; dup {
			return &ConfigError{Reason: fmt.Sprintf("duplicate key %q", key)}
		}
		into[key] = val
	}
	return nil
}

// parseSheetConfig assembles the SheetConfig from the cells of row 1.
// Every required key must appear exactly once, parse as a non-negative
// integer, stay inside the header width and not collide with another
// role.
func parseSheetConfig(configRow []string, headerWidth int) (SheetConfig, error) {
	pairs := make(map[string]string)
	for _, cell := range configRow {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}
		if err := parseConfigPairs(cell, pairs); err != nil {
			return SheetConfig{}, err
		}
	}

	cols := make(map[string]int, len(requiredKeys))
	for _, key := range requiredKeys {
		raw, ok := pairs[key]
		if !ok {
			return SheetConfig{}, &ConfigError{Reason: fmt.Sprintf("missing key %q", key)}
		}
		idx, err := strconv.Atoi(raw)
		if err != nil {
			return SheetConfig{}, &ConfigError{Reason: fmt.Sprintf("key %q: %q is not a column index", key, raw)}
		}
		if idx < 0 || idx >= headerWidth {
			return SheetConfig{}, &ConfigError{Reason: fmt.Sprintf("key %q: column %d out of range (sheet has %d columns)", key, idx, headerWidth)}
		}
		cols[key] = idx
	}

	cfg := SheetConfig{
		LinkCol:     cols["link_column"],
		Var1Col:     cols["var1_column"],
		Var2Col:     cols["var2_column"],
		DiscountCol: cols["discount_column"],
	}

	seen := make(map[int]string, 4)
	for i, key := range requiredKeys {
		idx := cfg.RoleCols()[i]
		if other, clash := seen[idx]; clash {
			return SheetConfig{}, &ConfigError{Reason: fmt.Sprintf("%s and %s both point at column %d", other, key, idx)}
		}
		seen[idx] = key
	}

	return cfg, nil
}
