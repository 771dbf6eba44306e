package board

import (
	"fmt"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/MarinDushku/experiment-management-system-final/internal/recording"
)

const (
	cytonBaudRate = 115200

	// Cyton binary frame layout: header, sample number, 8 x 24-bit channel
	// counts, 6 aux bytes, stop byte.
	packetHeader = 0xA0
	packetStop   = 0xC0
	packetSize   = 33

	// ADS1299 LSB size at gain 24: 4.5V / 24 / (2^23 - 1), in microvolts.
	countToMicrovolts = 4.5 / 24.0 / 8388607.0 * 1e6
)

// promptTimeout bounds the wait for the "$$$" prompt after a soft reset.
var promptTimeout = 5 * time.Second

// Cyton drives an OpenBCI Cyton board over its serial dongle. With the
// daisy configuration, consecutive frame pairs are combined into one
// 16-channel row.
type Cyton struct {
	portName string
	desc     Descriptor
	port     serial.Port

	mu        sync.Mutex
	rows      []recording.Row
	streaming bool
	stop      chan struct{}
	done      chan struct{}
}

// OpenSerial is the default Opener: it claims the serial port for the given
// configuration without touching the board yet.
func OpenSerial(serialPort string, desc Descriptor) (Board, error) {
	mode := &serial.Mode{
		BaudRate: cytonBaudRate,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(serialPort, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open board port %s: %w", serialPort, err)
	}
	return &Cyton{portName: serialPort, desc: desc, port: port}, nil
}

// Descriptor returns the hardware configuration this board was opened with.
func (c *Cyton) Descriptor() Descriptor { return c.desc }

// PrepareSession soft-resets the board and waits for its "$$$" prompt. For
// the daisy configuration the board is switched to 16-channel mode first.
func (c *Cyton) PrepareSession() error {
	if _, err := c.port.Write([]byte{'v'}); err != nil {
		return fmt.Errorf("soft reset failed: %w", err)
	}
	if err := c.awaitPrompt(); err != nil {
		return err
	}
	if c.desc.BoardType == "cyton_daisy" {
		// 'C' selects 16-channel mode; the board answers with a prompt.
		if _, err := c.port.Write([]byte{'C'}); err != nil {
			return fmt.Errorf("daisy mode select failed: %w", err)
		}
		if err := c.awaitPrompt(); err != nil {
			return fmt.Errorf("daisy module not detected: %w", err)
		}
	}
	return nil
}

// awaitPrompt reads until the three-dollar prompt or the timeout elapses.
func (c *Cyton) awaitPrompt() error {
	if err := c.port.SetReadTimeout(100 * time.Millisecond); err != nil {
		return fmt.Errorf("failed to set read timeout: %w", err)
	}
	deadline := time.Now().Add(promptTimeout)
	dollars := 0
	buf := make([]byte, 64)
	for time.Now().Before(deadline) {
		n, err := c.port.Read(buf)
		if err != nil {
			return fmt.Errorf("board read failed: %w", err)
		}
		for _, b := range buf[:n] {
			if b == '$' {
				dollars++
				if dollars == 3 {
					return nil
				}
			} else {
				dollars = 0
			}
		}
	}
	return fmt.Errorf("board did not answer reset on %s", c.portName)
}

// StartStream sends the stream-start command and begins decoding frames on
// a background goroutine.
func (c *Cyton) StartStream() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.streaming {
		return fmt.Errorf("stream already started")
	}
	if _, err := c.port.Write([]byte{'b'}); err != nil {
		return fmt.Errorf("stream start failed: %w", err)
	}
	c.streaming = true
	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	go c.readLoop(c.port, c.stop, c.done)
	return nil
}

// readLoop decodes 33-byte frames until told to stop. Bytes that do not
// line up on a frame header are skipped, resynchronizing on the next header.
func (c *Cyton) readLoop(port serial.Port, stop, done chan struct{}) {
	defer close(done)

	frame := make([]byte, packetSize)
	buf := make([]byte, 256)
	fill := 0

	var pending []float64 // lower 8 channels awaiting the daisy half

	for {
		select {
		case <-stop:
			return
		default:
		}

		n, err := port.Read(buf)
		if err != nil {
			return
		}

		for _, b := range buf[:n] {
			if fill == 0 && b != packetHeader {
				continue
			}
			frame[fill] = b
			fill++
			if fill < packetSize {
				continue
			}
			fill = 0
			if frame[packetSize-1]&0xF0 != packetStop {
				continue
			}

			values := decodeChannels(frame)
			if c.desc.Channels == 16 {
				// Odd sample numbers carry the daisy's upper channels.
				if frame[1]%2 == 0 {
					pending = values
					continue
				}
				if pending == nil {
					continue
				}
				values = append(pending, values...)
				pending = nil
			}

			row := recording.Row{
				Timestamp: float64(time.Now().UnixNano()) / 1e9,
				Values:    values,
			}
			c.mu.Lock()
			c.rows = append(c.rows, row)
			c.mu.Unlock()
		}
	}
}

// decodeChannels converts the eight 24-bit two's complement counts of one
// frame into microvolts.
func decodeChannels(frame []byte) []float64 {
	values := make([]float64, 8)
	for ch := 0; ch < 8; ch++ {
		off := 2 + ch*3
		raw := int32(frame[off])<<16 | int32(frame[off+1])<<8 | int32(frame[off+2])
		if raw&0x800000 != 0 {
			raw |= ^int32(0xFFFFFF)
		}
		values[ch] = float64(raw) * countToMicrovolts
	}
	return values
}

// Read drains the rows buffered since the last call.
func (c *Cyton) Read() ([]recording.Row, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rows := c.rows
	c.rows = nil
	return rows, nil
}

// StopStream sends the stream-stop command and waits for the decoder to
// exit. Buffered rows remain readable afterwards.
func (c *Cyton) StopStream() error {
	c.mu.Lock()
	if !c.streaming {
		c.mu.Unlock()
		return nil
	}
	c.streaming = false
	close(c.stop)
	done := c.done
	c.mu.Unlock()

	_, err := c.port.Write([]byte{'s'})
	select {
	case <-done:
	case <-time.After(time.Second):
	}
	if err != nil {
		return fmt.Errorf("stream stop failed: %w", err)
	}
	return nil
}

// ReleaseSession closes the serial port.
func (c *Cyton) ReleaseSession() error {
	if c.port == nil {
		return nil
	}
	if err := c.port.Close(); err != nil {
		return fmt.Errorf("failed to close board port: %w", err)
	}
	c.port = nil
	return nil
}
