// Package linecode implements the 4b/5b block code and NRZI transition
// encoding used to turn link-layer bits into a DC-balanced, self-clocking
// bit stream before physical-layer modulation.
package linecode

// fourToFive maps each 4-bit nibble (index) to its 5-bit code group,
// using the standard FDDI/802.3 4b/5b table restricted to the 16 data
// symbols (control symbols are not used by this protocol).
var fourToFive = [16][5]uint8{
	0x0: {1, 1, 1, 1, 0},
	0x1: {0, 1, 0, 0, 1},
	0x2: {1, 0, 1, 0, 0},
	0x3: {1, 0, 1, 0, 1},
	0x4: {0, 1, 0, 1, 0},
	0x5: {0, 1, 0, 1, 1},
	0x6: {0, 1, 1, 1, 0},
	0x7: {0, 1, 1, 1, 1},
	0x8: {1, 0, 0, 1, 0},
	0x9: {1, 0, 0, 1, 1},
	0xA: {1, 0, 1, 1, 0},
	0xB: {1, 0, 1, 1, 1},
	0xC: {1, 1, 0, 1, 0},
	0xD: {1, 1, 0, 1, 1},
	0xE: {1, 1, 1, 0, 0},
	0xF: {1, 1, 1, 0, 1},
}

var fiveToFour map[[5]bool]byte

func init() {
	fiveToFour = make(map[[5]bool]byte, 16)
	for nibble, code := range fourToFive {
		var key [5]bool
		for i, v := range code {
			key[i] = v == 1
		}
		fiveToFour[key] = byte(nibble)
	}
}

// Encode4b5b expands a bit stream (length must be a multiple of 4) into
// its 5b-per-nibble line code.
func Encode4b5b(bits []bool) []bool {
	out := make([]bool, 0, len(bits)/4*5)
	for i := 0; i+4 <= len(bits); i += 4 {
		var nibble byte
		for j := 0; j < 4; j++ {
			nibble <<= 1
			if bits[i+j] {
				nibble |= 1
			}
		}
		for _, v := range fourToFive[nibble] {
			out = append(out, v == 1)
		}
	}
	return out
}

// Decode4b5b is the inverse of Encode4b5b. It returns false if any 5-bit
// group is not a valid code word.
func Decode4b5b(bits []bool) ([]bool, bool) {
	out := make([]bool, 0, len(bits)/5*4)
	for i := 0; i+5 <= len(bits); i += 5 {
		var key [5]bool
		copy(key[:], bits[i:i+5])
		nibble, ok := fiveToFour[key]
		if !ok {
			return nil, false
		}
		for j := 3; j >= 0; j-- {
			out = append(out, nibble&(1<<uint(j)) != 0)
		}
	}
	return out, true
}
