package ports

// VideoConfig describes the negotiated video stream the sink will
// receive, reported back to the phone in AVChannelSetupResponse.
type VideoConfig struct {
	Resolution    string
	FPS           int
	MarginWidth   int
	MarginHeight  int
	DPI           int
}

// VideoSink accepts the decoded projection video stream. It stands in
// for the platform's hardware H.264 pipeline and display surface.
type VideoSink interface {
	// Open is called once when the video channel is opened, before any
	// media flows.
	Open() error

	// Init negotiates and returns the stream configuration to report to
	// the phone.
	Init() (VideoConfig, error)

	// Write delivers one compressed, timestamped access unit.
	Write(timestampUs int64, data []byte) error
}
