//go:build !govips || !cgo

package compressor

// Backend names the codec compiled into this binary.
const Backend = "imaging"

// Startup prepares the codec backend. The pure-Go backend needs nothing.
func Startup() error {
	return nil
}

// Shutdown releases codec backend resources.
func Shutdown() {}

func newCodec() (Codec, error) {
	return imagingCodec{}, nil
}
