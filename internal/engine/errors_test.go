package engine

import "testing"

func TestErrorPredicates(t *testing.T) {
	if !IsOutOfMemory(ErrOutOfMemory()) {
		t.Fatal("IsOutOfMemory")
	}
	if !IsUnavailable(ErrUnavailable("x")) {
		t.Fatal("IsUnavailable")
	}
	if !IsGeneration(ErrGeneration("x")) {
		t.Fatal("IsGeneration")
	}
	if IsOutOfMemory(ErrUnavailable("x")) || IsUnavailable(ErrGeneration("x")) || IsGeneration(nil) {
		t.Fatal("predicates must not cross-match")
	}
}

func TestIsOOMResponse(t *testing.T) {
	if !isOOMResponse(500, "CUDA out of memory") {
		t.Fatal("500 cuda oom")
	}
	if !isOOMResponse(503, "torch.OutOfMemoryError: allocation failed") {
		t.Fatal("503 oom")
	}
	if isOOMResponse(400, "out of memory") {
		t.Fatal("client errors are not OOM")
	}
	if isOOMResponse(500, "internal error") {
		t.Fatal("unrelated 500 is not OOM")
	}
}
