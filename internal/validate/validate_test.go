// SPDX-License-Identifier: MIT
package validate

import (
	"errors"
	"testing"
)

func TestValidator_HostPort(t *testing.T) {
	tests := []struct {
		name      string
		addr      string
		allowZero bool
		wantErr   bool
	}{
		{"all interfaces", ":8080", false, false},
		{"host and port", "127.0.0.1:6379", false, false},
		{"ephemeral allowed", ":0", true, false},
		{"ephemeral rejected", ":0", false, true},
		{"missing port", "localhost", false, true},
		{"non-numeric port", "localhost:http", false, true},
		{"out of range", ":70000", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.HostPort("addr", tt.addr, tt.allowZero)

			if tt.wantErr && v.IsValid() {
				t.Errorf("expected error, got none")
			}
			if !tt.wantErr && !v.IsValid() {
				t.Errorf("unexpected error: %v", v.Err())
			}
		})
	}
}

func TestValidator_Ranges(t *testing.T) {
	v := New()
	v.Range("a", 5, 1, 10)
	v.FloatRange("b", 0.5, 0, 1)
	v.Positive("c", 1)
	v.NonNegative("d", 0)
	if !v.IsValid() {
		t.Fatalf("unexpected errors: %v", v.Err())
	}

	v.Range("a", 11, 1, 10)
	v.FloatRange("b", 1.5, 0, 1)
	v.Positive("c", 0)
	v.NonNegative("d", -1)
	if got := len(v.Errors()); got != 4 {
		t.Fatalf("expected 4 errors, got %d", got)
	}
}

func TestValidator_OneOfAndLogLevel(t *testing.T) {
	v := New()
	v.OneOf("backend", "redis", []string{"memory", "redis"})
	v.LogLevel("logLevel", "debug")
	v.NotEmpty("name", "x")
	if !v.IsValid() {
		t.Fatalf("unexpected errors: %v", v.Err())
	}

	v.OneOf("backend", "etcd", []string{"memory", "redis"})
	v.LogLevel("logLevel", "verbose")
	v.NotEmpty("name", "  ")
	if got := len(v.Errors()); got != 3 {
		t.Fatalf("expected 3 errors, got %d", got)
	}
}

func TestValidationError_Aggregates(t *testing.T) {
	v := New()
	if v.Err() != nil {
		t.Fatal("empty validator must return nil error")
	}
	v.AddError("a", "bad", 1)
	v.AddError("b", "worse", 2)

	err := v.Err()
	var ve ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(ve.Errors()) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(ve.Errors()))
	}
	want := "validation failed for a: bad; validation failed for b: worse"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestParseLogLevel(t *testing.T) {
	if _, err := ParseLogLevel("warn"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseLogLevel("trace"); err == nil {
		t.Fatal("expected error for trace")
	}
}
