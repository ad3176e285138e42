package core

import (
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0.1", "0.1", true},
		{"0", "0", true},
		{"-5", "-5", true},
		{" 2.50 ", "2.5", true},
		{"123456789012345678901234567890.01", "123456789012345678901234567890.01", true},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"1,2,3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.String() != tc.out {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if !errors.Is(err, ErrValidation) {
			t.Fatalf("%q expected validation error, got %v", tc.in, err)
		}
	}
}

func TestParseStoredAmountIsStrict(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"1.5", "1.5", true},
		{"-50.25", "-50.25", true},
		{"1000", "1000", true},
		{"1,5", "", false},
		{" 2", "", false},
		{"", "", false},
		{"abc", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStoredAmount(tt.in)
			if !tt.ok {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("ParseStoredAmount(%q) error = %v, want validation error", tt.in, err)
				}
				return
			}
			if err != nil || got.String() != tt.want {
				t.Fatalf("ParseStoredAmount(%q) = %s, %v", tt.in, got, err)
			}
		})
	}
}

func TestParsePositiveAmount(t *testing.T) {
	if _, err := ParsePositiveAmount("10"); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	for _, in := range []string{"0", "-1", "x"} {
		if _, err := ParsePositiveAmount(in); !errors.Is(err, ErrValidation) {
			t.Fatalf("%q expected validation error, got %v", in, err)
		}
	}
}
