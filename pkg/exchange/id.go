package exchange

import "sync/atomic"

// idCounter provides atomic unique ID generation
var idCounter uint64

// NextID generates a unique exchange ID of the form "exchange-N".
// Safe for concurrent use.
func NextID() string {
	id := atomic.AddUint64(&idCounter, 1)

	buf := make([]byte, 0, 24)
	buf = append(buf, "exchange-"...)
	buf = appendUint64(buf, id)
	return string(buf)
}

// appendUint64 efficiently appends uint64 to byte slice
func appendUint64(buf []byte, n uint64) []byte {
	if n == 0 {
		return append(buf, '0')
	}

	temp := n
	digits := 0
	for temp > 0 {
		temp /= 10
		digits++
	}

	start := len(buf)
	buf = buf[:start+digits]

	for i := digits - 1; i >= 0; i-- {
		buf[start+i] = byte('0' + n%10)
		n /= 10
	}

	return buf
}
