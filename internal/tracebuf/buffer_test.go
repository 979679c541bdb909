package tracebuf

import (
	"errors"
	"testing"

	"github.com/san-kum/pacesim/internal/dynamo"
)

func TestBuffer_Eviction(t *testing.T) {
	const k = 10
	b := New(k)

	for i := 0; i < k+5; i++ {
		if err := b.Push(Record{float64(i), float64(i * 2)}); err != nil {
			t.Fatalf("push %d: %v", i, err)
		}
	}

	if b.Len() != k {
		t.Errorf("expected length %d, got %d", k, b.Len())
	}
	if !b.Full() {
		t.Error("expected buffer to be full")
	}

	oldest, err := b.Oldest()
	if err != nil {
		t.Fatal(err)
	}
	if oldest[0] != 5 {
		t.Errorf("expected oldest record to be the 6th pushed (5), got %v", oldest[0])
	}

	newest, _ := b.Newest()
	if newest[0] != k+4 {
		t.Errorf("expected newest record %d, got %v", k+4, newest[0])
	}
}

func TestBuffer_Column(t *testing.T) {
	b := New(4)
	for i := 0; i < 6; i++ {
		_ = b.Push(NewRecord(dynamo.State{float64(i), -float64(i)}, 0.5))
	}

	tests := []struct {
		index int
		want  []float64
	}{
		{0, []float64{2, 3, 4, 5}},
		{1, []float64{-2, -3, -4, -5}},
		{2, []float64{0.5, 0.5, 0.5, 0.5}},
	}

	for _, tt := range tests {
		col, err := b.Column(tt.index)
		if err != nil {
			t.Fatalf("Column(%d): %v", tt.index, err)
		}
		if len(col) != b.Len() {
			t.Fatalf("Column(%d) length %d, want %d", tt.index, len(col), b.Len())
		}
		for i := range tt.want {
			if col[i] != tt.want[i] {
				t.Errorf("Column(%d)[%d] = %v, want %v", tt.index, i, col[i], tt.want[i])
			}
		}
	}

	for _, idx := range []int{3, 10, -1} {
		if _, err := b.Column(idx); !errors.Is(err, dynamo.ErrIndex) {
			t.Errorf("Column(%d) error = %v, want ErrIndex", idx, err)
		}
	}
}

func TestBuffer_ColumnLengthTracksLen(t *testing.T) {
	b := New(3)
	col, err := b.Column(0)
	if err != nil || len(col) != 0 {
		t.Errorf("empty Column(0) = %v, %v", col, err)
	}
	for i := 1; i <= 5; i++ {
		_ = b.Push(Record{1})
		col, _ := b.Column(0)
		if len(col) != b.Len() {
			t.Errorf("after %d pushes column length %d != %d", i, len(col), b.Len())
		}
	}
}

func TestBuffer_WidthMismatch(t *testing.T) {
	b := New(3)
	_ = b.Push(Record{1, 2})
	if err := b.Push(Record{1}); !errors.Is(err, dynamo.ErrDomain) {
		t.Errorf("expected ErrDomain on width mismatch, got %v", err)
	}
	if err := b.Push(nil); !errors.Is(err, dynamo.ErrDomain) {
		t.Errorf("expected ErrDomain on empty record, got %v", err)
	}
	if b.Len() != 1 {
		t.Errorf("rejected pushes changed length to %d", b.Len())
	}
}

func TestBuffer_CopiesRecords(t *testing.T) {
	b := New(2)
	rec := Record{1, 2}
	_ = b.Push(rec)
	rec[0] = 99

	got, _ := b.At(0)
	if got[0] != 1 {
		t.Error("Push did not copy the record")
	}

	all := b.Records()
	all[0][0] = 42
	got, _ = b.At(0)
	if got[0] != 1 {
		t.Error("Records did not return copies")
	}
}

func TestBuffer_Reset(t *testing.T) {
	b := New(2)
	_ = b.Push(Record{1, 2})
	b.Reset()
	if b.Len() != 0 || b.Width() != 0 {
		t.Errorf("after Reset len=%d width=%d", b.Len(), b.Width())
	}
	if err := b.Push(Record{1, 2, 3}); err != nil {
		t.Errorf("push after Reset with new width: %v", err)
	}
}

func TestNewRecord(t *testing.T) {
	s := dynamo.State{1, 2}
	r := NewRecord(s, 0.1)
	if len(r) != 3 || r[2] != 0.1 {
		t.Errorf("NewRecord = %v", r)
	}
	s[0] = 7
	if r[0] != 1 {
		t.Error("NewRecord did not copy state")
	}
}
