package model

import "time"

// Shared defaults used by the CLI entrypoint and the ingest components.
const (
	DefaultSerialDevice      = "/dev/ttyUSB0"
	DefaultSerialBaud        = 9600
	DefaultSerialDataBits    = 8
	DefaultSerialParity      = "none"
	DefaultSerialReadTimeout = 1 * time.Second

	DefaultListenAddr         = "127.0.0.1:31000"
	DefaultRemoteAddr         = "127.0.0.1:31001"
	DefaultSocketReadyTimeout = 2 * time.Second
	DefaultMaxBurstSize       = 4096

	DefaultLogBuffer = 1000
	DefaultSkin      = "default"
)
