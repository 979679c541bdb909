// Package tracebuf provides a fixed-capacity sliding window over the most
// recent pace records.
package tracebuf

import (
	"github.com/san-kum/pacesim/internal/dynamo"
)

// DefaultCapacity matches the analysis horizon of the convergence classifier.
const DefaultCapacity = 150

// Record is one pace's end state, optionally followed by trailing quality
// values such as the MRMS to the previous pace.
type Record []float64

// NewRecord copies state and appends the quality values.
func NewRecord(state dynamo.State, quality ...float64) Record {
	r := make(Record, 0, len(state)+len(quality))
	r = append(r, state...)
	return append(r, quality...)
}

// Buffer is a ring of Records. Pushing into a full buffer evicts the oldest
// record. A Buffer is owned by a single goroutine.
type Buffer struct {
	records []Record
	head    int
	size    int
	width   int
}

// New returns an empty buffer holding at most capacity records.
func New(capacity int) *Buffer {
	return &Buffer{records: make([]Record, capacity)}
}

// Push appends rec, evicting the oldest record when the buffer is full. The
// record is copied. All records must have the width of the first one.
func (b *Buffer) Push(rec Record) error {
	if len(b.records) == 0 {
		return dynamo.Domainf("tracebuf push", "zero capacity")
	}
	if len(rec) == 0 {
		return dynamo.Domainf("tracebuf push", "empty record")
	}
	if b.size == 0 {
		b.width = len(rec)
	} else if len(rec) != b.width {
		return dynamo.Domainf("tracebuf push", "record width %d != %d", len(rec), b.width)
	}

	c := make(Record, len(rec))
	copy(c, rec)

	tail := (b.head + b.size) % len(b.records)
	b.records[tail] = c
	if b.size < len(b.records) {
		b.size++
	} else {
		b.head = (b.head + 1) % len(b.records)
	}
	return nil
}

func (b *Buffer) Len() int   { return b.size }
func (b *Buffer) Cap() int   { return len(b.records) }
func (b *Buffer) Full() bool { return b.size == len(b.records) }

// Width is the record length, or 0 for an empty buffer.
func (b *Buffer) Width() int {
	if b.size == 0 {
		return 0
	}
	return b.width
}

// At returns the i-th record, 0 being the oldest. The record must not be
// modified.
func (b *Buffer) At(i int) (Record, error) {
	if i < 0 || i >= b.size {
		return nil, &dynamo.IndexError{Op: "tracebuf at", Index: i, Len: b.size}
	}
	return b.records[(b.head+i)%len(b.records)], nil
}

func (b *Buffer) Oldest() (Record, error) { return b.At(0) }
func (b *Buffer) Newest() (Record, error) { return b.At(b.size - 1) }

// Column returns the values at varIndex across all records, oldest first.
func (b *Buffer) Column(varIndex int) ([]float64, error) {
	if varIndex < 0 || (b.size > 0 && varIndex >= b.width) {
		return nil, &dynamo.IndexError{Op: "tracebuf column", Index: varIndex, Len: b.Width()}
	}
	col := make([]float64, b.size)
	for i := 0; i < b.size; i++ {
		col[i] = b.records[(b.head+i)%len(b.records)][varIndex]
	}
	return col, nil
}

// Records returns copies of the buffered records, oldest first.
func (b *Buffer) Records() []Record {
	out := make([]Record, b.size)
	for i := range out {
		r := b.records[(b.head+i)%len(b.records)]
		out[i] = append(Record(nil), r...)
	}
	return out
}

func (b *Buffer) Reset() {
	for i := range b.records {
		b.records[i] = nil
	}
	b.head, b.size, b.width = 0, 0, 0
}
