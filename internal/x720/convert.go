package x720

// Swap reverses the two bytes of w. The gauge sends its registers MSB first
// while SMBus word reads assemble them LSB first.
func Swap(w uint16) uint16 {
	return w<<8 | w>>8
}

// Voltage converts a raw voltage register word to volts.
func Voltage(raw uint16) float64 {
	return float64(Swap(raw)) * 1.25 / 1000 / 16
}

// Capacity converts a raw state of charge register word to percent. The
// register is 8.8 fixed point.
func Capacity(raw uint16) float64 {
	return float64(Swap(raw)) / 256
}
