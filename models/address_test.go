package models

import "testing"

func TestValidAddress(t *testing.T) {
	valid := []string{
		"0x1111111111111111111111111111111111111111",
		"0xAbCdEf0123456789abcdef0123456789ABCDEF01",
	}
	for _, s := range valid {
		if !ValidAddress(s) {
			t.Errorf("ValidAddress(%q) = false, want true", s)
		}
	}
	invalid := []string{
		"",
		"0x",
		"1111111111111111111111111111111111111111",   // 缺 0x
		"0x11111111111111111111111111111111111111",   // 太短
		"0x111111111111111111111111111111111111111g", // 非十六进制
		"0x11111111111111111111111111111111111111111",
	}
	for _, s := range invalid {
		if ValidAddress(s) {
			t.Errorf("ValidAddress(%q) = true, want false", s)
		}
	}
}

func TestIsZeroAddress(t *testing.T) {
	if !IsZeroAddress("") || !IsZeroAddress(ZeroAddress) {
		t.Error("empty and zero address must both read as zero")
	}
	if IsZeroAddress("0x1111111111111111111111111111111111111111") {
		t.Error("real address must not read as zero")
	}
}
