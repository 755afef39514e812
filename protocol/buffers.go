package protocol

// InputBuffer is the byte source a Transport consumes frames from.
type InputBuffer interface {
	// Data returns the unconsumed bytes.
	Data() []byte

	// Available returns the count of unconsumed bytes.
	Available() int

	// Pop drops n bytes from the front.
	Pop(n int)
}

// OutputBuffer collects encoded protocol output. CurPosition and Update
// let an encoder patch a length byte after the payload is known;
// DataSince reads a region back for checksumming.
type OutputBuffer interface {
	Output(data []byte)
	CurPosition() int
	Update(pos int, val byte)
	DataSince(pos int) []byte
}

// SliceInputBuffer adapts a plain byte slice to InputBuffer.
type SliceInputBuffer struct {
	rest []byte
}

// NewSliceInputBuffer wraps data; Pop advances through it.
func NewSliceInputBuffer(data []byte) *SliceInputBuffer {
	return &SliceInputBuffer{rest: data}
}

func (b *SliceInputBuffer) Data() []byte {
	return b.rest
}

func (b *SliceInputBuffer) Available() int {
	return len(b.rest)
}

func (b *SliceInputBuffer) Pop(n int) {
	if n > len(b.rest) {
		n = len(b.rest)
	}
	b.rest = b.rest[n:]
}

// ScratchOutput is a fixed-size OutputBuffer for firmware paths, where
// every frame fits in MessageMax and nothing may allocate. Writes past
// the end are dropped; SendRecord rejects oversized frames by length.
type ScratchOutput struct {
	buf [MessageMax]byte
	n   int
}

// NewScratchOutput returns an empty scratch buffer.
func NewScratchOutput() *ScratchOutput {
	return &ScratchOutput{}
}

func (s *ScratchOutput) Output(data []byte) {
	s.n += copy(s.buf[s.n:], data)
}

func (s *ScratchOutput) CurPosition() int {
	return s.n
}

func (s *ScratchOutput) Update(pos int, val byte) {
	if pos < s.n {
		s.buf[pos] = val
	}
}

func (s *ScratchOutput) DataSince(pos int) []byte {
	if pos > s.n {
		return nil
	}
	return s.buf[pos:s.n]
}

// Result returns everything written so far.
func (s *ScratchOutput) Result() []byte {
	return s.buf[:s.n]
}

// Reset empties the buffer for the next frame.
func (s *ScratchOutput) Reset() {
	s.n = 0
}

// SliceOutput implements OutputBuffer on a growable slice, for payloads
// with no fixed upper bound. Firmware paths use ScratchOutput instead.
type SliceOutput struct {
	buf []byte
}

// NewSliceOutput creates an empty SliceOutput.
func NewSliceOutput() *SliceOutput {
	return &SliceOutput{}
}

func (s *SliceOutput) Output(data []byte) {
	s.buf = append(s.buf, data...)
}

func (s *SliceOutput) CurPosition() int {
	return len(s.buf)
}

func (s *SliceOutput) Update(pos int, val byte) {
	if pos < len(s.buf) {
		s.buf[pos] = val
	}
}

func (s *SliceOutput) DataSince(pos int) []byte {
	if pos > len(s.buf) {
		return nil
	}
	return s.buf[pos:]
}

// Result returns the accumulated output data.
func (s *SliceOutput) Result() []byte {
	return s.buf
}

// Reset clears the buffer, keeping its capacity.
func (s *SliceOutput) Reset() {
	s.buf = s.buf[:0]
}

// FifoBuffer queues raw serial bytes between the receive path and the
// frame parser. Consumed bytes advance a head index; a write that needs
// the room slides the pending bytes down first, so Data never copies.
type FifoBuffer struct {
	buf  []byte
	head int
	tail int
}

// NewFifoBuffer returns a FifoBuffer holding up to capacity bytes.
func NewFifoBuffer(capacity int) *FifoBuffer {
	return &FifoBuffer{buf: make([]byte, capacity)}
}

// Write queues as much of data as fits and reports how much landed. A
// zero return with non-empty data means the buffer is full.
func (f *FifoBuffer) Write(data []byte) int {
	if f.head > 0 && f.tail+len(data) > len(f.buf) {
		copy(f.buf, f.buf[f.head:f.tail])
		f.tail -= f.head
		f.head = 0
	}
	n := copy(f.buf[f.tail:], data)
	f.tail += n
	return n
}

// Read drains up to len(data) bytes in arrival order.
func (f *FifoBuffer) Read(data []byte) int {
	n := copy(data, f.buf[f.head:f.tail])
	f.Pop(n)
	return n
}

// Available returns the number of queued bytes.
func (f *FifoBuffer) Available() int {
	return f.tail - f.head
}

// Free returns the room left for Write.
func (f *FifoBuffer) Free() int {
	return len(f.buf) - f.Available()
}

// Data returns the queued bytes without consuming them. The slice is
// valid until the next Write.
func (f *FifoBuffer) Data() []byte {
	return f.buf[f.head:f.tail]
}

// Pop drops n bytes from the front.
func (f *FifoBuffer) Pop(n int) {
	if n > f.Available() {
		n = f.Available()
	}
	f.head += n
	if f.head == f.tail {
		f.head = 0
		f.tail = 0
	}
}

// IsEmpty reports whether anything is queued.
func (f *FifoBuffer) IsEmpty() bool {
	return f.head == f.tail
}

// Reset discards everything queued.
func (f *FifoBuffer) Reset() {
	f.head = 0
	f.tail = 0
}
