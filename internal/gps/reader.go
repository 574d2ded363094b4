package gps

import (
	"bufio"
	"errors"
	"io"
	"log"
	"strings"
	"sync"

	serial "github.com/jacobsa/go-serial/serial"
)

// ErrNoFix is returned by ReadLocation when the module has not reported a
// usable fix. Callers must poll the status first; without a fix the module
// happily reports all zeroes.
var ErrNoFix = errors.New("gps: no fix, poll status first")

// FixStatus is the module's last reported fix state.
type FixStatus int

const (
	StatusUnknown FixStatus = iota
	StatusNoFix
	StatusFix2D
	StatusFix3D
)

// HasFix reports whether the status allows a location query.
func (s FixStatus) HasFix() bool {
	return s == StatusFix2D || s == StatusFix3D
}

func (s FixStatus) String() string {
	switch s {
	case StatusNoFix:
		return "no fix"
	case StatusFix2D:
		return "2D fix"
	case StatusFix3D:
		return "3D fix"
	default:
		return "unknown"
	}
}

const (
	cmdStatus   = "AT+CGPSSTATUS?\r\n"
	cmdLocation = "AT+CGPSINF=0\r\n"
	cmdPowerOn  = "AT+CGPSPWR=1\r\n"
	cmdPowerOff = "AT+CGPSPWR=0\r\n"
)

// Reader drives a SIM808-style GPS module over its serial AT channel. The
// channel is half-duplex and stateful, so one mutex guards every exchange;
// no other component may touch the port.
type Reader struct {
	mu     sync.Mutex
	port   io.ReadWriteCloser
	br     *bufio.Reader
	status FixStatus
}

// Open opens the serial port and powers the GPS up.
func Open(portName string, baudRate uint) (*Reader, error) {
	port, err := serial.Open(serial.OpenOptions{
		PortName:        portName,
		BaudRate:        baudRate,
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
		ParityMode:      serial.PARITY_NONE,
	})
	if err != nil {
		return nil, err
	}
	log.Printf("gps: serial port opened on %s at %d baud", portName, baudRate)

	r := NewReader(port)
	r.powerOn()
	return r, nil
}

// NewReader wraps an already-open AT channel.
func NewReader(port io.ReadWriteCloser) *Reader {
	return &Reader{port: port, br: bufio.NewReader(port), status: StatusUnknown}
}

// PollStatus issues AT+CGPSSTATUS? and classifies the response by substring
// match. A response with no recognizable status leaves the previous status
// in place.
func (r *Reader) PollStatus() (FixStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.port.Write([]byte(cmdStatus)); err != nil {
		return r.status, err
	}

	for {
		line, err := r.br.ReadString('\n')
		switch {
		case strings.Contains(line, "Location Unknown"):
			r.status = StatusUnknown
			return r.status, nil
		case strings.Contains(line, "Location Not Fix"):
			r.status = StatusNoFix
			return r.status, nil
		case strings.Contains(line, "Location 2D Fix"):
			r.status = StatusFix2D
			return r.status, nil
		case strings.Contains(line, "Location 3D Fix"):
			r.status = StatusFix3D
			return r.status, nil
		}
		if trimmed := strings.TrimSpace(line); trimmed == "OK" || trimmed == "ERROR" {
			return r.status, nil
		}
		if err != nil {
			return r.status, err
		}
	}
}

// Status returns the last polled fix status without touching the module.
func (r *Reader) Status() FixStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// ReadLocation issues AT+CGPSINF=0 and parses the reported position. The
// fix check is against the last polled status, not re-checked atomically;
// callers tolerate the rare stale read.
func (r *Reader) ReadLocation() (Reading, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.status.HasFix() {
		return Reading{}, ErrNoFix
	}
	if _, err := r.port.Write([]byte(cmdLocation)); err != nil {
		return Reading{}, err
	}
	line, err := r.readResponseLine()
	if err != nil {
		return Reading{}, err
	}
	return ParseReading(line)
}

// readResponseLine skips the command echo and trailing OK, returning the
// data line of a query response. The data line is the only one carrying
// commas.
func (r *Reader) readResponseLine() (string, error) {
	for i := 0; i < 4; i++ {
		line, err := r.br.ReadString('\n')
		if strings.Contains(line, ",") {
			return strings.TrimSpace(line), nil
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return "", err
		}
	}
	return "", &ParseError{Field: "response", Value: ""}
}

// Close powers the GPS down and releases the serial port.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.port.Write([]byte(cmdPowerOff)); err != nil {
		log.Printf("gps: power-off write error: %v", err)
	}
	return r.port.Close()
}

func (r *Reader) powerOn() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.port.Write([]byte(cmdPowerOn)); err != nil {
		log.Printf("gps: power-on write error: %v", err)
	}
}
