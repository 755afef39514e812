package protocol

import (
	"bytes"
	"testing"
)

func TestSliceInputBuffer(t *testing.T) {
	buf := NewSliceInputBuffer([]byte{1, 2, 3, 4, 5})

	if got := buf.Available(); got != 5 {
		t.Errorf("Available() = %d, want 5", got)
	}

	buf.Pop(2)
	if got := buf.Data(); len(got) != 3 || got[0] != 3 {
		t.Errorf("Data() after Pop(2) = %v, want [3 4 5]", got)
	}

	// Popping past the end leaves an empty buffer, not a panic.
	buf.Pop(10)
	if got := buf.Available(); got != 0 {
		t.Errorf("Available() after over-pop = %d, want 0", got)
	}
}

func TestScratchOutputPatchesLength(t *testing.T) {
	// The encoder's workflow: reserve a length byte, write the payload,
	// then patch the length and checksum what DataSince shows.
	out := NewScratchOutput()

	lenPos := out.CurPosition()
	out.Output([]byte{0})
	out.Output([]byte{0x11, 0x22, 0x33})
	out.Update(lenPos, byte(out.CurPosition()-lenPos))

	if got := out.Result(); !bytes.Equal(got, []byte{4, 0x11, 0x22, 0x33}) {
		t.Fatalf("Result() = %v, want [4 17 34 51]", got)
	}
	if got := out.DataSince(1); !bytes.Equal(got, []byte{0x11, 0x22, 0x33}) {
		t.Errorf("DataSince(1) = %v, want payload bytes", got)
	}

	out.Reset()
	if got := out.CurPosition(); got != 0 {
		t.Errorf("CurPosition() after Reset = %d, want 0", got)
	}
}

func TestSliceOutputGrows(t *testing.T) {
	out := NewSliceOutput()
	for i := 0; i < MessageMax+10; i++ {
		out.Output([]byte{byte(i)})
	}
	if got := out.CurPosition(); got != MessageMax+10 {
		t.Errorf("CurPosition() = %d, want %d", got, MessageMax+10)
	}

	out.Update(0, 0xFF)
	if got := out.Result()[0]; got != 0xFF {
		t.Errorf("Result()[0] after Update = %#x, want 0xff", got)
	}
}

func TestFifoBuffer(t *testing.T) {
	fifo := NewFifoBuffer(10)

	if !fifo.IsEmpty() {
		t.Error("new FifoBuffer is not empty")
	}

	if got := fifo.Write([]byte{1, 2, 3, 4, 5}); got != 5 {
		t.Fatalf("Write = %d, want 5", got)
	}
	if got := fifo.Available(); got != 5 {
		t.Errorf("Available() = %d, want 5", got)
	}

	readBuf := make([]byte, 3)
	if got := fifo.Read(readBuf); got != 3 {
		t.Fatalf("Read = %d, want 3", got)
	}
	if !bytes.Equal(readBuf, []byte{1, 2, 3}) {
		t.Errorf("Read data = %v, want [1 2 3]", readBuf)
	}

	fifo.Pop(1)
	if got := fifo.Data(); len(got) != 1 || got[0] != 5 {
		t.Errorf("Data() = %v, want [5]", got)
	}

	// A full buffer takes only what fits.
	fifo.Reset()
	twelve := make([]byte, 12)
	if got := fifo.Write(twelve); got != 10 {
		t.Errorf("Write of 12 into capacity 10 = %d, want 10", got)
	}
	if got := fifo.Write([]byte{99}); got != 0 {
		t.Errorf("Write into full buffer = %d, want 0", got)
	}
}

func TestFifoBufferReclaimsConsumedRoom(t *testing.T) {
	fifo := NewFifoBuffer(5)

	fifo.Write([]byte{1, 2, 3, 4})
	fifo.Pop(2)

	// Only one byte is free at the tail; the two consumed at the head
	// must be reclaimed for this write to land whole.
	if got := fifo.Write([]byte{5, 6}); got != 2 {
		t.Fatalf("Write after Pop = %d, want 2", got)
	}

	all := make([]byte, 4)
	if got := fifo.Read(all); got != 4 {
		t.Fatalf("Read = %d, want 4", got)
	}
	if !bytes.Equal(all, []byte{3, 4, 5, 6}) {
		t.Errorf("drained %v, want [3 4 5 6]", all)
	}
}
