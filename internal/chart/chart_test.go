package chart

import (
	"bytes"
	"testing"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestBanRate(t *testing.T) {
	levels := []int{1, 1, 2, 3, 5, 9, 15, 27, 48, 87, 120, 120}
	got, err := BanRate("Ban rate of CoolServer", levels)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if !bytes.HasPrefix(got, pngMagic) {
		t.Errorf("BanRate() did not render a PNG")
	}
}

func TestBanRateSingleLevel(t *testing.T) {
	got, err := BanRate("Ban rate", []int{120})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if !bytes.HasPrefix(got, pngMagic) {
		t.Errorf("BanRate() did not render a PNG")
	}
}

func TestBanRateEmpty(t *testing.T) {
	if _, err := BanRate("Ban rate", nil); err == nil {
		t.Errorf("BanRate() = nil error, want an error for an empty series")
	}
}
