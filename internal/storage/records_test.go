package storage

import "testing"

// TestHashRecord verifies the stored hash is the hex SHA-256 of the raw value.
func TestHashRecord(t *testing.T) {
	got := HashRecord([]byte("abc"))
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Errorf("HashRecord = %s, want %s", got, want)
	}
	if HashRecord(nil) == got {
		t.Error("different values hashed equal")
	}
}
