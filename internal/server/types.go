package server

import (
	"net/http"

	"github.com/MeKo-Tech/puzzlebox/internal/barcode"
	"github.com/MeKo-Tech/puzzlebox/internal/detector"
	"github.com/MeKo-Tech/puzzlebox/internal/overlay"
	"github.com/MeKo-Tech/puzzlebox/internal/rectify"
	"github.com/MeKo-Tech/puzzlebox/internal/skewbox"
	"github.com/MeKo-Tech/puzzlebox/internal/utils"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	corrector     *rectify.Corrector
	detector      detector.Detector
	closeDetector func() error
	codes         *barcode.Reader
	overlayOpts   overlay.Options
	tolerance     float64
	corsOrigin    string
	maxUploadMB   int64
	timeoutSec    int
	version       string
}

// Config holds server configuration.
type Config struct {
	Host        string
	Port        int
	CORSOrigin  string
	MaxUploadMB int64
	TimeoutSec  int
	Version     string

	Rectify   rectify.Config
	Detector  detector.Config
	Overlay   overlay.Options
	Tolerance float64 // editor hit radius for sessions that do not send one
}

// Response types for API endpoints.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

// BoxResponse describes the box an adjustment session starts from.
type BoxResponse struct {
	Box           skewbox.SkewBox `json:"box"`
	Handles       skewbox.SkewBox `json:"handles"` // display space
	Detected      bool            `json:"detected"`
	Width         int             `json:"width"`
	Height        int             `json:"height"`
	DisplayHeight float64         `json:"display_height"`
}

// CorrectResponse is the JSON form of a correction.
type CorrectResponse struct {
	Plane          overlay.Plane   `json:"plane"`
	Box            skewbox.SkewBox `json:"box"`
	Applied        bool            `json:"applied"`
	Error          string          `json:"error,omitempty"`
	DurationMs     int64           `json:"duration_ms"`
	ImagePNGBase64 string          `json:"image_png_base64"`
}

// ErrorResponse is written for every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// NewServer creates a server with its corrector and detector.
func NewServer(config Config) (*Server, error) {
	corrector, err := rectify.New(config.Rectify)
	if err != nil {
		return nil, err
	}
	det, closeDet, err := detector.New(config.Detector)
	if err != nil {
		return nil, err
	}
	return newServer(config, corrector, det, closeDet), nil
}

func newServer(config Config, corrector *rectify.Corrector, det detector.Detector, closeDet func() error) *Server {
	if closeDet == nil {
		closeDet = func() error { return nil }
	}
	var codes *barcode.Reader
	if config.Overlay.ReadCodes {
		codes = barcode.NewReader(barcode.Options{TryHarder: true})
	}
	return &Server{
		corrector:     corrector,
		codes:         codes,
		detector:      det,
		closeDetector: closeDet,
		overlayOpts:   config.Overlay,
		tolerance:     config.Tolerance,
		corsOrigin:    config.CORSOrigin,
		maxUploadMB:   config.MaxUploadMB,
		timeoutSec:    config.TimeoutSec,
		version:       config.Version,
	}
}

// Close releases server resources.
func (s *Server) Close() error {
	if s.closeDetector != nil {
		return s.closeDetector()
	}
	return nil
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/box", s.corsMiddleware(s.boxHandler))
	mux.HandleFunc("/correct", s.corsMiddleware(s.correctHandler))
	mux.HandleFunc("/session", s.corsMiddleware(s.sessionHandler))
	mux.Handle("/metrics", metricsHandler())
}

// handlesFor returns the display-space handles for box on an image of the given height.
func handlesFor(box skewbox.SkewBox, imageHeight int) skewbox.SkewBox {
	return skewbox.BoxToDisplay(box, skewbox.DisplayHeightFor(imageHeight))
}

// cornersRequest is the JSON shape accepted for the corners form field.
type cornersRequest struct {
	TopLeft     *utils.Point `json:"top_left"`
	TopRight    *utils.Point `json:"top_right"`
	BottomLeft  *utils.Point `json:"bottom_left"`
	BottomRight *utils.Point `json:"bottom_right"`
}
