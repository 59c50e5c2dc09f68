// internal/checksum/fletcher.go
package checksum

// Fletcher16 computes the 16-bit Fletcher checksum of data.
// Two running sums mod 255; sum2 is packed in the high byte, sum1 in the low byte.
// Pure function. Order-sensitive.
func Fletcher16(data []byte) uint16 {
	var sum1, sum2 uint16

	for _, b := range data {
		sum1 = (sum1 + uint16(b)) % 255
		sum2 = (sum2 + sum1) % 255
	}

	return sum2<<8 | sum1
}
