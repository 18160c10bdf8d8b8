package script

// FlagBase is the RAM address of the progress flag array in the retail
// builds, the event node the DO_SET_P_FLAG annotations are computed
// against.
const FlagBase = 0x21B553C

// FlagAddress resolves a progress flag number to the byte address and bit
// mask that hold it, relative to the event node at base. The flag array
// is addressed as 32-bit words; masks above 0x80 carry into the following
// bytes so the result always names a single byte.
func FlagAddress(base, flag uint32) (addr, bit uint32) {
	offset := (flag >> 5) * 4
	bit = 1 << (flag & 0x1F)
	for bit > 0x80 {
		bit >>= 8
		offset++
	}
	return base + offset, bit
}
