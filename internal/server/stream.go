package server

import (
	"fmt"
	"net/http"
	"time"
)

// streamInterval paces the preview stream (~15 fps).
const streamInterval = 66 * time.Millisecond

// JPEGSource supplies the latest camera frame.
type JPEGSource interface {
	LatestJPEG() []byte
}

// StreamHandler serves the camera preview as MJPEG.
type StreamHandler struct {
	source JPEGSource
}

// NewStreamHandler creates a new StreamHandler reading from source.
func NewStreamHandler(source JPEGSource) *StreamHandler {
	return &StreamHandler{source: source}
}

// ServeHTTP streams MJPEG frames until the client goes away.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(streamInterval)
	defer ticker.Stop()

	for {
		if buf := h.source.LatestJPEG(); len(buf) > 0 {
			fmt.Fprintf(w, "--frame\r\n")
			fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
			fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(buf))
			if _, err := w.Write(buf); err != nil {
				return
			}
			fmt.Fprintf(w, "\r\n")

			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}
