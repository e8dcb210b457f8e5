package service

import (
	"strings"
	"testing"
)

func TestIsStrongPassword(t *testing.T) {
	cases := []struct {
		pw   string
		want bool
	}{
		{"Str0ngPass", true},
		{"Aa1xxxxx", true},
		{"Aa1xxxx", false},
		{"alllower1", false},
		{"ALLUPPER1", false},
		{"NoDigitsHere", false},
		{"Aa1" + strings.Repeat("x", 69), true},
		{"Aa1" + strings.Repeat("x", 70), false},
	}
	for _, tc := range cases {
		if got := IsStrongPassword(tc.pw); got != tc.want {
			t.Fatalf("IsStrongPassword(%d bytes %.12q...) = %v, want %v", len(tc.pw), tc.pw, got, tc.want)
		}
	}
}

func TestHashPassword_AcceptsLongestStrongPassword(t *testing.T) {
	pw := "Aa1" + strings.Repeat("x", maxPasswordBytes-3)
	if !IsStrongPassword(pw) {
		t.Fatalf("boundary password should be accepted")
	}
	hash, err := hashPassword(pw)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !checkPassword(hash, pw) {
		t.Fatalf("hash does not verify")
	}
}
