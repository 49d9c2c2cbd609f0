package imx377

import (
	"context"
	"fmt"
)

// ErrBusBusy is returned by adapters whose I2C engine has not finished
// the previous transaction. The driver does not retry; callers decide.
var ErrBusBusy = fmt.Errorf("I2C engine is busy (command not completed)")

// ErrUnavailable marks a construction-time dependency (gpiochip,
// serial device, USB dongle) that is not present yet. Callers should
// retry the whole construction later instead of treating it as fatal.
var ErrUnavailable = fmt.Errorf("required resource is not available yet")

// ErrOutOfRange rejects a control value outside its declared range.
var ErrOutOfRange = fmt.Errorf("value out of range")

type AddressableReader interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
}

type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	Release(ctx context.Context) error
}

// I2CBus is the synchronous request/response channel the sensor talks
// through. Implementations live in adapter/ and i2c/; each addressed
// call is one bus transaction.
type I2CBus interface {
	AddressableReader
	AddressableWriter
}
