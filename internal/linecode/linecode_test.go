package linecode

import (
	"math/rand"
	"testing"

	"pgregory.net/rapid"
)

func TestFourB5BRoundTrip(t *testing.T) {
	bits := BytesToBits([]byte{0x4B, 0x9A, 0x00, 0xFF})
	enc := Encode4b5b(bits)
	if len(enc) != len(bits)/4*5 {
		t.Fatalf("encoded length = %d, want %d", len(enc), len(bits)/4*5)
	}
	dec, ok := Decode4b5b(enc)
	if !ok {
		t.Fatal("decode rejected a validly-encoded stream")
	}
	if len(dec) != len(bits) {
		t.Fatalf("decoded length = %d, want %d", len(dec), len(bits))
	}
	for i := range bits {
		if dec[i] != bits[i] {
			t.Fatalf("bit %d mismatch: got %v want %v", i, dec[i], bits[i])
		}
	}
}

func TestDecode4b5bRejectsInvalidCodeWord(t *testing.T) {
	if _, ok := Decode4b5b([]bool{false, false, false, false, false}); ok {
		t.Fatal("00000 is not a valid 4b5b code word")
	}
}

func TestNRZIRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	bits := make([]bool, 500)
	for i := range bits {
		bits[i] = rng.Intn(2) == 1
	}
	levels := EncodeNRZI(bits)
	back := DecodeNRZI(levels)
	for i := range bits {
		if back[i] != bits[i] {
			t.Fatalf("bit %d mismatch after NRZI round trip", i)
		}
	}
}

func TestFourB5BRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		nibbles := rapid.SliceOfN(rapid.IntRange(0, 15), 0, 64).Draw(t, "nibbles")
		var bits []bool
		for _, nib := range nibbles {
			for i := 3; i >= 0; i-- {
				bits = append(bits, (nib>>uint(i))&1 == 1)
			}
		}
		dec, ok := Decode4b5b(Encode4b5b(bits))
		if !ok {
			t.Fatal("decode rejected a validly-encoded stream")
		}
		if len(dec) != len(bits) {
			t.Fatalf("decoded length = %d, want %d", len(dec), len(bits))
		}
		for i := range bits {
			if dec[i] != bits[i] {
				t.Fatalf("bit %d mismatch", i)
			}
		}
	})
}

func TestBytesToBitsRoundTrip(t *testing.T) {
	in := []byte{0x00, 0xFF, 0x55, 0xAA, 0x3C}
	out := BitsToBytes(BytesToBits(in))
	for i := range in {
		if in[i] != out[i] {
			t.Fatalf("byte %d: got %x want %x", i, out[i], in[i])
		}
	}
}
