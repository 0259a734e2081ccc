package httpclient

import (
	"errors"
	"strings"
	"testing"
)

func TestSharedReturnsSameClient(t *testing.T) {
	a := Shared()
	b := Shared()
	if a != b {
		t.Fatal("expected Shared() to return the same *http.Client instance")
	}
}

func TestReadAllWithLimitPassesThrough(t *testing.T) {
	data, err := ReadAllWithLimit(strings.NewReader("hello"), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "hello" {
		t.Fatalf("got %q", data)
	}
}

func TestReadAllWithLimitRejectsOversize(t *testing.T) {
	_, err := ReadAllWithLimit(strings.NewReader("hello world"), 5)
	if err == nil {
		t.Fatal("expected an error for an oversized body")
	}
	var tooLarge *ResponseTooLargeError
	if !errors.As(err, &tooLarge) {
		t.Fatalf("expected ResponseTooLargeError, got %v", err)
	}
}
