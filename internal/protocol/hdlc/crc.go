package hdlc

// CRC-8 Dallas/Maxim（多项式 x^8+x^5+x^4+1，反射形式 0x8C），初值 0xFF
const (
	crcPoly = 0x8C
	crcInit = 0xFF
)

var crcTable = func() (t [256]byte) {
	for i := range t {
		c := byte(i)
		for range 8 {
			if c&1 != 0 {
				c = c>>1 ^ crcPoly
			} else {
				c >>= 1
			}
		}
		t[i] = c
	}
	return t
}()

// CRC8 计算校验值
func CRC8(data []byte) byte {
	crc := byte(crcInit)
	for _, b := range data {
		crc = crcTable[crc^b]
	}
	return crc
}
