package ports

// AudioConfig describes one audio stream's sample format.
type AudioConfig struct {
	SampleRateHz int
	Channels     int
	BitDepth     int
}

// AudioSink accepts one direction's decoded PCM stream (media, speech,
// or system audio — §4.6). It stands in for the platform's audio output.
type AudioSink interface {
	Open() error
	Init() (AudioConfig, error)
	Write(timestampUs int64, data []byte) error
}

// AudioSource captures microphone samples for the AudioInput channel and
// pushes them upstream through write. It stands in for the platform's
// audio capture device.
type AudioSource interface {
	// Open is called once when the audio-input channel is opened.
	Open() error

	// Start begins delivering captured samples to write until Stop is
	// called. write must not be called concurrently with itself.
	Start(write func(timestampUs int64, data []byte)) error

	Stop() error
}
