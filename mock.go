package imx377

import (
	"context"
	"sync"
	"sync/atomic"
)

// WriteBehaviorFunc lets a MockBus caller inspect or fail write
// transactions. A nil error lets the transaction succeed.
type WriteBehaviorFunc func(ctx context.Context, address byte, buffer []byte) error

// ReadBehaviorFunc fills buffer with whatever the simulated device
// would answer. When unset, reads return zeroes.
type ReadBehaviorFunc func(ctx context.Context, address byte, buffer []byte) error

// Transaction is one recorded bus operation. Write frames carry their
// payload; reads carry the requested length.
type Transaction struct {
	Address byte
	Read    bool
	Data    []byte
	Len     int
}

// RegisterWrite is a decoded 3-byte register write frame.
type RegisterWrite struct {
	Reg   uint16
	Value byte
}

// MockBus is an in-memory I2CBus for tests and dry runs. Every
// transaction attempt is recorded, including ones a behavior func
// fails, and concurrent use is tracked so callers can assert that the
// sensor serializes its bus access.
type MockBus struct {
	WriteFunc WriteBehaviorFunc
	ReadFunc  ReadBehaviorFunc

	mx           sync.Mutex
	transactions []Transaction

	active    int32
	maxActive int32
}

func NewMockBus() *MockBus {
	return &MockBus{}
}

func (b *MockBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	b.enter()
	defer b.leave()
	b.record(Transaction{Address: address, Data: append([]byte(nil), buffer...), Len: len(buffer)})
	if b.WriteFunc != nil {
		return b.WriteFunc(ctx, address, buffer)
	}
	return nil
}

func (b *MockBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	b.enter()
	defer b.leave()
	b.record(Transaction{Address: address, Read: true, Len: len(buffer)})
	if b.ReadFunc != nil {
		return b.ReadFunc(ctx, address, buffer)
	}
	for i := range buffer {
		buffer[i] = 0x00
	}
	return nil
}

func (b *MockBus) Release(ctx context.Context) error {
	return nil
}

// Transactions returns a copy of everything recorded so far.
func (b *MockBus) Transactions() []Transaction {
	b.mx.Lock()
	defer b.mx.Unlock()
	return append([]Transaction(nil), b.transactions...)
}

// RegisterWrites decodes the recorded 3-byte write frames, skipping
// reads and 2-byte register pointer setups.
func (b *MockBus) RegisterWrites() []RegisterWrite {
	b.mx.Lock()
	defer b.mx.Unlock()
	var writes []RegisterWrite
	for _, t := range b.transactions {
		if t.Read || len(t.Data) != 3 {
			continue
		}
		writes = append(writes, RegisterWrite{
			Reg:   uint16(t.Data[0])<<8 | uint16(t.Data[1]),
			Value: t.Data[2],
		})
	}
	return writes
}

// Reset clears the transaction record.
func (b *MockBus) Reset() {
	b.mx.Lock()
	defer b.mx.Unlock()
	b.transactions = nil
}

// MaxConcurrent reports the highest number of simultaneous
// transactions observed since construction.
func (b *MockBus) MaxConcurrent() int {
	return int(atomic.LoadInt32(&b.maxActive))
}

func (b *MockBus) record(t Transaction) {
	b.mx.Lock()
	defer b.mx.Unlock()
	b.transactions = append(b.transactions, t)
}

func (b *MockBus) enter() {
	cur := atomic.AddInt32(&b.active, 1)
	for {
		max := atomic.LoadInt32(&b.maxActive)
		if cur <= max || atomic.CompareAndSwapInt32(&b.maxActive, max, cur) {
			return
		}
	}
}

func (b *MockBus) leave() {
	atomic.AddInt32(&b.active, -1)
}

var _ I2CBus = &MockBus{}
