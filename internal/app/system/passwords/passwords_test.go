package passwords

import (
	"strings"
	"testing"
)

func TestHashVerify_RoundTrip(t *testing.T) {
	for _, p := range []string{"a", "random_password", "päss wörd", strings.Repeat("x", 64)} {
		hash, err := Hash(p)
		if err != nil {
			t.Fatalf("Hash(%q) failed: %v", p, err)
		}
		if hash == p {
			t.Errorf("Hash(%q) returned the plain text", p)
		}
		if !Verify(hash, p) {
			t.Errorf("Verify(Hash(%q), %q) = false, want true", p, p)
		}
		if Verify(hash, p+"!") {
			t.Errorf("Verify(Hash(%q), %q) = true, want false", p, p+"!")
		}
	}
}

func TestHash_Salted(t *testing.T) {
	a, err := Hash("same")
	if err != nil {
		t.Fatal(err)
	}
	b, err := Hash("same")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("two hashes of the same password should differ")
	}
}

func TestHash_Empty(t *testing.T) {
	if _, err := Hash(""); err != ErrEmptyPassword {
		t.Errorf("Hash(\"\") error = %v, want ErrEmptyPassword", err)
	}
}

func TestVerify_MalformedHash(t *testing.T) {
	if Verify("not-a-bcrypt-hash", "secret") {
		t.Error("Verify with malformed hash should be false")
	}
	if Verify("", "secret") {
		t.Error("Verify with empty hash should be false")
	}
}

func TestGenerate(t *testing.T) {
	p, err := Generate(16)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(p) != 16 {
		t.Errorf("len = %d, want 16", len(p))
	}
	for _, c := range p {
		if !strings.ContainsRune(alphabet, c) {
			t.Errorf("unexpected character %q", c)
		}
	}

	short, err := Generate(3)
	if err != nil {
		t.Fatal(err)
	}
	if len(short) != DefaultLength {
		t.Errorf("short length = %d, want %d", len(short), DefaultLength)
	}

	other, _ := Generate(16)
	if other == p {
		t.Error("two generated passwords should differ")
	}
}

func TestHashVerify_LongInputs(t *testing.T) {
	for _, n := range []int{72, 73, 200} {
		p := strings.Repeat("a", n)
		hash, err := Hash(p)
		if err != nil {
			t.Fatalf("Hash(%d bytes) failed: %v", n, err)
		}
		if !Verify(hash, p) {
			t.Errorf("Verify(Hash(p), p) = false for %d bytes", n)
		}
		// bytes past 72 must still count
		if Verify(hash, p[:n-1]+"b") {
			t.Errorf("Verify accepted a different %d-byte password", n)
		}
	}
}

func TestGenerate_ClampsToBcryptLimit(t *testing.T) {
	p, err := Generate(80)
	if err != nil {
		t.Fatal(err)
	}
	if len(p) != MaxLength {
		t.Errorf("len = %d, want %d", len(p), MaxLength)
	}
	hash, err := Hash(p)
	if err != nil {
		t.Fatalf("Hash of generated password failed: %v", err)
	}
	if !Verify(hash, p) {
		t.Error("generated password does not verify")
	}
}
