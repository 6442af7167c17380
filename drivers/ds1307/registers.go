package ds1307

// Fixed 7-bit I2C address of the DS1307.
const Address = 0x68

// Register map. The seven time registers are laid out consecutively from
// regSeconds so a single burst transfers a full timestamp.
const (
	regSeconds = 0x00 // bits 6:0 BCD seconds, bit 7 = CH (clock halt)
	regMinutes = 0x01 // bits 6:0 BCD minutes
	regHours   = 0x02 // bit 6 = 12h mode, bit 5 = PM (12h mode), rest BCD
	regWeekday = 0x03 // 1..7 BCD
	regDay     = 0x04 // 1..31 BCD
	regMonth   = 0x05 // 1..12 BCD
	regYear    = 0x06 // 0..99 BCD, offset from 2000
	regControl = 0x07 // SQW/OUT pin control
)

// Seconds register.
const chBit = 0x80 // oscillator halted while set; register contents stale

// Hours register.
const (
	hourMode12Bit = 0x40 // set = 12-hour mode
	hourPMBit     = 0x20 // set = PM, only meaningful in 12-hour mode
	hourMask12    = 0x1F // BCD hour field, 12-hour mode
	hourMask24    = 0x3F // BCD hour field, 24-hour mode
)

// Control register.
const (
	ctrlOutBit   = 0x80 // OUT level while the square wave is disabled
	ctrlSqweBit  = 0x10 // square-wave output enable
	ctrlRateMask = 0x03 // RS1:RS0 frequency select
)

// readErrByte is what a failed single-register read reports. It decodes as
// CH-set, so a missing chip reads as "not running".
const readErrByte = 0xFF

const timeRegCount = 7
