package protocol

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/teslashibe/go-compose/pkg/frame"
	"github.com/teslashibe/go-compose/pkg/guidance"
	"github.com/teslashibe/go-compose/pkg/smartcompose"
)

// ErrUnsupportedFormat is returned for frame formats the server cannot read.
var ErrUnsupportedFormat = errors.New("protocol: unsupported frame format")

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewFrameMessage creates a frame message from encoded image data
func NewFrameMessage(f FrameData, image []byte) (*Message, error) {
	f.Data = base64.StdEncoding.EncodeToString(image)
	return NewMessage(TypeFrame, f)
}

// NewTemplateMessage creates a template selection message
func NewTemplateMessage(id string) (*Message, error) {
	return NewMessage(TypeTemplate, TemplateData{Template: id})
}

// NewSmartComposeMessage creates a smart compose control message
func NewSmartComposeMessage(action, suggestion string, confidence float64) (*Message, error) {
	return NewMessage(TypeSmartCompose, SmartComposeData{
		Action:     action,
		Suggestion: suggestion,
		Confidence: confidence,
	})
}

// NewResetMessage creates a reset message
func NewResetMessage() (*Message, error) {
	return NewMessage(TypeReset, nil)
}

// GuidanceFromOutput converts a coordinator output for the wire
func GuidanceFromOutput(out guidance.Output) GuidanceData {
	g := GuidanceData{
		FrameID:    out.Sequence,
		Template:   out.Template.String(),
		DX:         out.Guidance.DX,
		DY:         out.Guidance.DY,
		Strength:   out.Guidance.Strength,
		Confidence: out.Guidance.Confidence,
		Holding:    out.Holding,
		Subject:    out.Subject,
		Target:     out.Target,
		Diagonal:   string(out.Diagonal),
		Tags:       out.Tags,
		Phase:      out.Phase,
		Coaching:   out.Coaching,
	}
	if out.Zone != nil {
		g.Zone = &ZoneData{Name: out.Zone.Name, Rect: out.Zone.Rect}
	}
	return g
}

// NewGuidanceMessage creates a guidance message from a coordinator output
func NewGuidanceMessage(out guidance.Output) (*Message, error) {
	return NewMessage(TypeGuidance, GuidanceFromOutput(out))
}

// NewZoomMessage creates a zoom command message
func NewZoomMessage(cmd smartcompose.ZoomCommand) (*Message, error) {
	return NewMessage(TypeZoom, ZoomData{
		RequestID: cmd.RequestID.String(),
		Template:  cmd.Template.String(),
		Zoom:      cmd.Zoom,
	})
}

// NewReacquireMessage creates a reacquire message
func NewReacquireMessage(data ReacquireData) (*Message, error) {
	return NewMessage(TypeReacquire, data)
}

// NewErrorMessage creates an error message
func NewErrorMessage(code, message string) (*Message, error) {
	return NewMessage(TypeError, ErrorData{Code: code, Message: message})
}

// NewPingMessage creates a ping message
func NewPingMessage(id string) (*Message, error) {
	return NewMessage(TypePing, PingData{
		ID:        id,
		Timestamp: 0, // Will be set by NewMessage
	})
}

// NewPongMessage creates a pong response message
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    pongTS,
		LatencyMs: pongTS - pingTS,
	})
}

// =============================================================================
// Helper functions for parsing messages
// =============================================================================

// GetFrameData extracts frame data from a message
func (m *Message) GetFrameData() (*FrameData, error) {
	var data FrameData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// DecodeFrameData decodes the base64 image data
func (f *FrameData) DecodeFrameData() ([]byte, error) {
	return base64.StdEncoding.DecodeString(f.Data)
}

// Decode turns the payload into an analyzable frame. Raw gray and RGBA
// payloads are used as-is; compressed formats are decoded first.
func (f *FrameData) Decode() (frame.Frame, error) {
	raw, err := f.DecodeFrameData()
	if err != nil {
		return frame.Frame{}, fmt.Errorf("failed to decode frame data: %w", err)
	}

	switch f.Format {
	case FormatGray, FormatRGBA:
		layout := frame.LayoutGray
		if f.Format == FormatRGBA {
			layout = frame.LayoutRGBA
		}
		fr := frame.Frame{Width: f.Width, Height: f.Height, Layout: layout, Pix: raw}
		if !fr.Analyzable() {
			return frame.Frame{}, fmt.Errorf("%s frame %dx%d: short buffer of %d bytes", f.Format, f.Width, f.Height, len(raw))
		}
		return fr, nil
	case FormatJPEG, FormatPNG, FormatWebP:
		img, err := decodeImage(f.Format, raw)
		if err != nil {
			return frame.Frame{}, fmt.Errorf("failed to decode %s frame: %w", f.Format, err)
		}
		return frame.FromImage(img), nil
	}
	return frame.Frame{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f.Format)
}

// GetTemplateData extracts template data from a message
func (m *Message) GetTemplateData() (*TemplateData, error) {
	var data TemplateData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetSmartComposeData extracts smart compose data from a message
func (m *Message) GetSmartComposeData() (*SmartComposeData, error) {
	var data SmartComposeData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetGuidanceData extracts guidance data from a message
func (m *Message) GetGuidanceData() (*GuidanceData, error) {
	var data GuidanceData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetZoomData extracts a zoom command from a message
func (m *Message) GetZoomData() (*ZoomData, error) {
	var data ZoomData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetReacquireData extracts reacquire data from a message
func (m *Message) GetReacquireData() (*ReacquireData, error) {
	var data ReacquireData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetErrorData extracts error data from a message
func (m *Message) GetErrorData() (*ErrorData, error) {
	var data ErrorData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPingData extracts ping data from a message
func (m *Message) GetPingData() (*PingData, error) {
	var data PingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPongData extracts pong data from a message
func (m *Message) GetPongData() (*PongData, error) {
	var data PongData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
