package domain

// DecodeEvent is one notification from the decoder. A non-empty Err marks
// a per-frame decode failure and carries no payload.
type DecodeEvent struct {
	Text string `json:"text,omitempty"`
	Err  string `json:"error,omitempty"`
}

func (e DecodeEvent) IsError() bool {
	return e.Err != ""
}

// CaptureConfig is handed to the decoder when the camera is acquired.
type CaptureConfig struct {
	FPS         int     `json:"fps"`
	QRBoxWidth  int     `json:"qrbox_width"`
	QRBoxHeight int     `json:"qrbox_height"`
	AspectRatio float64 `json:"aspect_ratio"`
	FacingMode  string  `json:"facing_mode"`
	ShowTorch   bool    `json:"show_torch"`
	ShowZoom    bool    `json:"show_zoom"`
	DefaultZoom float64 `json:"default_zoom"`
}

func DefaultCaptureConfig() CaptureConfig {
	return CaptureConfig{
		FPS:         10,
		QRBoxWidth:  280,
		QRBoxHeight: 280,
		AspectRatio: 1.0,
		FacingMode:  "environment",
		ShowTorch:   true,
		ShowZoom:    true,
		DefaultZoom: 2,
	}
}
