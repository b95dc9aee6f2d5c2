package chalk

import (
	"strings"
	"testing"
)

func TestHashPINProducesLowercaseHex(t *testing.T) {
	h := HashPIN("1234")
	if len(h) != 64 {
		t.Errorf("Expected 64 hex chars, got %d", len(h))
	}
	if h != strings.ToLower(h) {
		t.Errorf("Expected lowercase digest, got %s", h)
	}
	if h != HashPIN("1234") {
		t.Error("Same PIN should hash to the same digest")
	}
	if h == HashPIN("1235") {
		t.Error("Different PINs should not collide on a toy input")
	}
}

func TestVerifyPIN(t *testing.T) {
	h := HashPIN("8642")
	if !VerifyPIN("8642", h) {
		t.Error("Correct PIN should verify")
	}
	if VerifyPIN("8643", h) {
		t.Error("Wrong PIN should not verify")
	}
	if VerifyPIN("8642", "") {
		t.Error("Empty stored hash should never verify")
	}
}

func TestValidatePIN(t *testing.T) {
	// Length is the only rule; keypads send digits but letters hash fine.
	valid := []string{"0000", "1234", "9999", "abcd", "١٢٣٤"}
	for _, pin := range valid {
		if err := ValidatePIN(pin); err != nil {
			t.Errorf("PIN %q should be valid: %v", pin, err)
		}
	}
	invalid := []string{"", "123", "12345"}
	for _, pin := range invalid {
		if err := ValidatePIN(pin); err == nil {
			t.Errorf("PIN %q should be rejected", pin)
		}
	}
}

func TestGenerateShortCodeShape(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code, err := GenerateShortCode()
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if err := ValidateShortCode(code); err != nil {
			t.Errorf("Generated code %q failed validation", code)
		}
		for _, c := range strings.TrimPrefix(code, ShortCodePrefix) {
			if strings.ContainsRune("IO01", c) {
				t.Errorf("Code %q contains ambiguous character %c", code, c)
			}
		}
		seen[code] = true
	}
	// 200 draws from 32^4 codes collide rarely; mostly-unique is enough to
	// catch a broken RNG loop.
	if len(seen) < 190 {
		t.Errorf("Expected mostly unique codes, got %d unique of 200", len(seen))
	}
}

func TestNormalizeAndValidateShortCode(t *testing.T) {
	got := NormalizeShortCode("  chalk-ab27\n")
	if got != "CHALK-AB27" {
		t.Errorf("Expected CHALK-AB27, got %q", got)
	}
	if err := ValidateShortCode(got); err != nil {
		t.Errorf("Normalized code should validate: %v", err)
	}
	bad := []string{"CHALK-AB2", "CHALK-AB271", "CHALK-AB0I", "BREAK-AB27", "CHALK-ab27", ""}
	for _, code := range bad {
		if err := ValidateShortCode(code); err == nil {
			t.Errorf("Code %q should be rejected", code)
		}
	}
}
