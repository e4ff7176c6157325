package waveform

import "sync"

// Reflected CRC-32 as used by PNG chunk trailers (polynomial 0xEDB88320,
// initial value and final XOR both 0xFFFFFFFF). The lookup table is built
// once on first use and is read-only afterwards, so concurrent jobs can
// share it without locking.
var (
	crcTable [256]uint32
	crcOnce  sync.Once
)

func buildCRCTable() {
	for i := range crcTable {
		c := uint32(i)
		for k := 0; k < 8; k++ {
			if c&1 != 0 {
				c = 0xEDB88320 ^ (c >> 1)
			} else {
				c >>= 1
			}
		}
		crcTable[i] = c
	}
}

// Checksum computes the CRC-32 of p.
func Checksum(p []byte) uint32 {
	crcOnce.Do(buildCRCTable)

	c := uint32(0xFFFFFFFF)
	for _, b := range p {
		c = crcTable[(c^uint32(b))&0xFF] ^ (c >> 8)
	}
	return c ^ 0xFFFFFFFF
}
