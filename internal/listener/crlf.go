package listener

import (
	"io"
	"strings"
)

var (
	// Telnet ends lines with \r\n, an ssh pty with a bare \r.
	inboundEndings  = strings.NewReplacer("\r\n", "\n", "\r", "\n")
	outboundEndings = strings.NewReplacer("\r\n", "\r\n", "\n", "\r\n")
)

// lineEndings lets sessions speak in \n while the terminal sees \r\n.
type lineEndings struct {
	rw io.ReadWriter
}

func newCRLFReadWriter(rw io.ReadWriter) io.ReadWriter {
	return &lineEndings{rw: rw}
}

func (l *lineEndings) Read(p []byte) (int, error) {
	n, err := l.rw.Read(p)
	if n == 0 {
		return n, err
	}
	return copy(p, inboundEndings.Replace(string(p[:n]))), err
}

// Write reports len(p) on success even though more bytes hit the wire.
func (l *lineEndings) Write(p []byte) (int, error) {
	if _, err := io.WriteString(l.rw, outboundEndings.Replace(string(p))); err != nil {
		return 0, err
	}
	return len(p), nil
}
