package gpu

// FeedbackBuffers is the ping-pong pair used by transform feedback: one buffer is the
// current readable state, the other the capture target. The two never alias.
type FeedbackBuffers struct {
	buffers [2]*Buffer
	read    int
}

// NewFeedbackBuffers uploads seed into the first buffer and allocates a second buffer of the
// same size. Both buffers are owned by pass.
func NewFeedbackBuffers(pass *RenderPass, seed []float32, usage uint32) *FeedbackBuffers {
	first := pass.UploadBuffer(seed, usage)
	second := pass.AllocateBuffer(first.Size, usage)
	return &FeedbackBuffers{buffers: [2]*Buffer{first, second}}
}

func (f *FeedbackBuffers) ReadIndex() int  { return f.read }
func (f *FeedbackBuffers) WriteIndex() int { return 1 - f.read }

func (f *FeedbackBuffers) Read() *Buffer  { return f.buffers[f.read] }
func (f *FeedbackBuffers) Write() *Buffer { return f.buffers[1-f.read] }

// Buffer returns buffer i regardless of its current role.
func (f *FeedbackBuffers) Buffer(i int) *Buffer { return f.buffers[i] }

// Swap exchanges the roles; two swaps restore the original assignment.
func (f *FeedbackBuffers) Swap() {
	f.read = 1 - f.read
}
