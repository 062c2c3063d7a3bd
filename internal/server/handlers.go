package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/h2non/filetype"

	"github.com/MeKo-Tech/puzzlebox/internal/detector"
	"github.com/MeKo-Tech/puzzlebox/internal/overlay"
	"github.com/MeKo-Tech/puzzlebox/internal/pdf"
	"github.com/MeKo-Tech/puzzlebox/internal/skewbox"
	"github.com/MeKo-Tech/puzzlebox/internal/utils"
)

const (
	formatPNG  = "png"
	formatJSON = "json"

	defaultMaxUploadMB = 50
)

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.writeJSON(w, HealthResponse{
		Status:  "healthy",
		Version: s.version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
}

// boxHandler returns the box an adjustment session should start from.
func (s *Server) boxHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	img, status, err := s.readUpload(w, r)
	if err != nil {
		s.writeErrorResponse(w, err.Error(), status)
		return
	}

	box, detected := detector.InitialBox(s.detector, img)
	initialBoxesTotal.WithLabelValues(boxSource(detected)).Inc()

	b := img.Bounds()
	s.writeJSON(w, BoxResponse{
		Box:           box,
		Handles:       handlesFor(box, b.Dy()),
		Detected:      detected,
		Width:         b.Dx(),
		Height:        b.Dy(),
		DisplayHeight: skewbox.DisplayHeightFor(b.Dy()),
	})
}

// correctHandler straightens the uploaded image and returns the texture for
// the AR plane, either as PNG or wrapped in JSON with the plane description.
func (s *Server) correctHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	img, status, err := s.readUpload(w, r)
	if err != nil {
		s.writeErrorResponse(w, err.Error(), status)
		return
	}

	format := r.FormValue("format")
	if format == "" {
		format = r.URL.Query().Get("format")
	}
	if format == "" {
		format = formatPNG
	}
	if format != formatPNG && format != formatJSON {
		s.writeErrorResponse(w, fmt.Sprintf("Unsupported format %q", format), http.StatusBadRequest)
		return
	}

	var box skewbox.SkewBox
	if raw := r.FormValue("corners"); raw != "" {
		box, err = parseCorners(raw)
		if err != nil {
			s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
			return
		}
		initialBoxesTotal.WithLabelValues("client").Inc()
	} else {
		var detected bool
		box, detected = detector.InitialBox(s.detector, img)
		initialBoxesTotal.WithLabelValues(boxSource(detected)).Inc()
	}

	res, err := s.corrector.Correct(img, box)
	if err != nil {
		s.writeErrorResponse(w, fmt.Sprintf("Correction failed: %v", err), http.StatusInternalServerError)
		return
	}
	correctionDuration.Observe(res.Duration.Seconds())
	if res.Applied {
		correctionsTotal.WithLabelValues("applied").Inc()
	} else {
		correctionsTotal.WithLabelValues("fallback").Inc()
	}

	size := overlay.ParseSize(r.FormValue("width"), r.FormValue("height"))
	plane := overlay.NewPlane(res.Image, size, s.overlayOpts)
	if s.codes != nil {
		plane = plane.WithCodes(s.codes.Lookup(r.Context(), res.Image))
	}

	var buf bytes.Buffer
	if err := utils.EncodePNG(&buf, res.Image); err != nil {
		s.writeErrorResponse(w, "Failed to encode image", http.StatusInternalServerError)
		return
	}

	if format == formatJSON {
		resp := CorrectResponse{
			Plane:          plane,
			Box:            box,
			Applied:        res.Applied,
			DurationMs:     res.Duration.Milliseconds(),
			ImagePNGBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		}
		if res.Err != nil {
			resp.Error = res.Err.Error()
		}
		s.writeJSON(w, resp)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("X-Plane-Width-M", strconv.FormatFloat(size.Width, 'f', -1, 64))
	w.Header().Set("X-Plane-Height-M", strconv.FormatFloat(size.Height, 'f', -1, 64))
	w.Header().Set("X-Correction-Applied", strconv.FormatBool(res.Applied))
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("Failed to write corrected image", "error", err)
	}
}

// readUpload reads the multipart "image" field. Images are sniffed by magic
// bytes; a PDF scan contributes its first embedded image.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (image.Image, int, error) {
	maxMB := s.maxUploadMB
	if maxMB <= 0 {
		maxMB = defaultMaxUploadMB
	}
	limit := maxMB * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			return nil, http.StatusRequestEntityTooLarge, errors.New("file too large")
		}
		return nil, http.StatusBadRequest, errors.New("failed to parse form data")
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		return nil, http.StatusBadRequest, errors.New("no image file provided")
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, http.StatusInternalServerError, errors.New("failed to read image data")
	}
	uploadSizeBytes.Observe(float64(len(data)))

	switch {
	case filetype.IsImage(data):
		img, _, err := utils.DecodeImage(data)
		if err != nil {
			return nil, http.StatusBadRequest, errors.New("invalid image format")
		}
		return img, http.StatusOK, nil
	case filetype.IsExtension(data, "pdf"):
		img, err := imageFromPDF(data)
		if err != nil {
			return nil, http.StatusBadRequest, fmt.Errorf("invalid PDF: %w", err)
		}
		return img, http.StatusOK, nil
	default:
		return nil, http.StatusUnsupportedMediaType, errors.New("unsupported file type")
	}
}

func imageFromPDF(data []byte) (image.Image, error) {
	f, err := os.CreateTemp("", "puzzlebox-upload-*.pdf")
	if err != nil {
		return nil, err
	}
	defer func() { _ = os.Remove(f.Name()) }()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}
	return pdf.FirstImage(f.Name())
}

// parseCorners decodes the corners form field; all four corners are required.
func parseCorners(raw string) (skewbox.SkewBox, error) {
	var req cornersRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		return skewbox.SkewBox{}, fmt.Errorf("invalid corners: %w", err)
	}
	pts := []*utils.Point{req.TopLeft, req.TopRight, req.BottomLeft, req.BottomRight}
	for i, p := range pts {
		if p == nil {
			return skewbox.SkewBox{}, fmt.Errorf("invalid corners: missing %s", skewbox.AllCorners[i])
		}
	}
	return skewbox.New(*req.TopLeft, *req.TopRight, *req.BottomLeft, *req.BottomRight), nil
}

func boxSource(detected bool) string {
	if detected {
		return "detected"
	}
	return "default"
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeErrorResponse writes a JSON error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(ErrorResponse{Success: false, Error: message}); err != nil {
		slog.Error("Failed to write error response", "error", err)
	}
}
