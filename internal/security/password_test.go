package security

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	hash, errHash := HashPassword("hunter2!")
	if errHash != nil {
		t.Fatalf("hash: %v", errHash)
	}
	if hash == "hunter2!" {
		t.Fatalf("hash must not equal the plaintext")
	}
	if !CheckPassword(hash, "hunter2!") {
		t.Fatalf("expected matching password to verify")
	}
	if CheckPassword(hash, "wrong") {
		t.Fatalf("expected mismatching password to fail")
	}
}
