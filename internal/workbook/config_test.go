package workbook

import (
	"strings"
	"testing"
)

func TestParseSheetConfigValid(t *testing.T) {
	row := []string{"link_column=0;var1_column=1;var2_column=2;discount_column=3"}
	cfg, err := parseSheetConfig(row, 6)
	if err != nil {
		t.Fatalf("parseSheetConfig failed: %v", err)
	}
	if cfg.LinkCol != 0 || cfg.Var1Col != 1 || cfg.Var2Col != 2 || cfg.DiscountCol != 3 {
		t.Errorf("config = %+v, want 0/1/2/3", cfg)
	}
}

func TestParseSheetConfigOrderIrrelevant(t *testing.T) {
	row := []string{"discount_column=3;link_column=0;var2_column=2;var1_column=1"}
	cfg, err := parseSheetConfig(row, 4)
	if err != nil {
		t.Fatalf("parseSheetConfig failed: %v", err)
	}
	if cfg.DiscountCol != 3 {
		t.Errorf("DiscountCol = %d, want 3", cfg.DiscountCol)
	}
}

func TestParseSheetConfigWhitespaceTolerated(t *testing.T) {
	row := []string{" link_column = 0 ; var1_column= 1;var2_column =2 ; discount_column=3 "}
	if _, err := parseSheetConfig(row, 4); err != nil {
		t.Errorf("parseSheetConfig should tolerate whitespace, got %v", err)
	}
}

func TestParseSheetConfigSpreadAcrossCells(t *testing.T) {
	row := []string{"link_column=0;var1_column=1", "", "var2_column=2;discount_column=3"}
	if _, err := parseSheetConfig(row, 4); err != nil {
		t.Errorf("parseSheetConfig should accept pairs spread over cells, got %v", err)
	}
}

func TestParseSheetConfigMissingKey(t *testing.T) {
	row := []string{"link_column=0;var1_column=1;var2_column=2"}
	_, err := parseSheetConfig(row, 4)
	if err == nil {
		t.Fatal("parseSheetConfig should fail when discount_column is missing")
	}
	if !strings.Contains(err.Error(), "discount_column") {
		t.Errorf("error %q should name the missing key", err)
	}
}

func TestParseSheetConfigDuplicateKey(t *testing.T) {
	row := []string{"link_column=0;link_column=1;var1_column=1;var2_column=2;discount_column=3"}
	if _, err := parseSheetConfig(row, 4); err == nil {
		t.Error("parseSheetConfig should fail on a duplicated key")
	}
}

func TestParseSheetConfigNotAnInteger(t *testing.T) {
	row := []string{"link_column=A;var1_column=1;var2_column=2;discount_column=3"}
	if _, err := parseSheetConfig(row, 4); err == nil {
		t.Error("parseSheetConfig should fail on a non-integer index")
	}
}

func TestParseSheetConfigOutOfRange(t *testing.T) {
	row := []string{"link_column=0;var1_column=1;var2_column=2;discount_column=9"}
	if _, err := parseSheetConfig(row, 4); err == nil {
		t.Error("parseSheetConfig should fail when an index exceeds the header width")
	}

	row = []string{"link_column=-1;var1_column=1;var2_column=2;discount_column=3"}
	if _, err := parseSheetConfig(row, 4); err == nil {
		t.Error("parseSheetConfig should fail on a negative index")
	}
}

func TestParseSheetConfigCollidingRoles(t *testing.T) {
	row := []string{"link_column=0;var1_column=0;var2_column=2;discount_column=3"}
	if _, err := parseSheetConfig(row, 4); err == nil {
		t.Error("parseSheetConfig should fail when two roles share a column")
	}
}

func TestParseSheetConfigErrorType(t *testing.T) {
	row := []string{""}
	_, err := parseSheetConfig(row, 4)
	if err == nil {
		t.Fatal("parseSheetConfig should fail on an empty config row")
	}
	if !IsConfigError(err) {
		t.Errorf("error %T should be a *ConfigError", err)
	}
}
