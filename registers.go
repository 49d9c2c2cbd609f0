package imx377

// Register map from the IMX377 datasheet. Addresses are 16 bits wide,
// values 8 bits. Quantities split across two adjacent registers are
// latched by the timing generator only after the low byte arrives, so
// every pair is written high byte first.
const (
	regModeSelect uint16 = 0x0100 // 0x00 standby, 0x01 streaming
	regStandby    uint16 = 0x3000 // write 0x00 to leave software standby

	regAnalogGainH uint16 = 0x3009 // bits [10:8] of the 11-bit gain code
	regAnalogGainL uint16 = 0x300A // bits [7:0]
	regExposureH   uint16 = 0x300B
	regExposureL   uint16 = 0x300C

	regHMaxH uint16 = 0x30F5 // line length, pixels
	regHMaxL uint16 = 0x30F6
	regVMaxH uint16 = 0x30F7 // frame length, lines
	regVMaxL uint16 = 0x30F8
)

const (
	modeStandby   byte = 0x00
	modeStreaming byte = 0x01

	standbyExit byte = 0x00

	// analogGainHMask keeps the three significant bits of the gain
	// high byte; the rest of the register is reserved.
	analogGainHMask byte = 0x07
)
