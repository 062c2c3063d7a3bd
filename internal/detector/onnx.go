package detector

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/MeKo-Tech/puzzlebox/internal/common"
	"github.com/MeKo-Tech/puzzlebox/internal/mempool"
	"github.com/MeKo-Tech/puzzlebox/internal/models"
	"github.com/MeKo-Tech/puzzlebox/internal/onnx"
	"github.com/MeKo-Tech/puzzlebox/internal/skewbox"
	"github.com/MeKo-Tech/puzzlebox/internal/utils"
	"github.com/disintegration/imaging"
	onnxrt "github.com/yalue/onnxruntime_go"
)

// ONNX regresses the four lid corners with an ONNX model. The model takes a
// [1,3,S,S] RGB tensor in [0,1] and returns at least 8 values.
type ONNX struct {
	config     Config
	session    *onnxrt.DynamicAdvancedSession
	inputInfo  onnxrt.InputOutputInfo
	outputInfo onnxrt.InputOutputInfo
	mu         sync.Mutex
}

// NewONNX loads the model described by cfg.
func NewONNX(cfg Config) (*ONNX, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := models.ValidateModelExists(cfg.ModelPath); err != nil {
		return nil, err
	}

	slog.Debug("Initializing corner detector",
		"model_path", cfg.ModelPath,
		"input_size", cfg.InputSize,
		"aspect_ratio", cfg.AspectRatio)

	if err := onnx.Init(cfg.GPU.UseGPU); err != nil {
		return nil, err
	}
	in, out, err := validateModelInfo(cfg.ModelPath)
	if err != nil {
		return nil, err
	}
	sess, err := createSession(cfg, in, out)
	if err != nil {
		return nil, err
	}
	return &ONNX{config: cfg, session: sess, inputInfo: in, outputInfo: out}, nil
}

// Close releases the ONNX session.
func (d *ONNX) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.session == nil {
		return nil
	}
	err := d.session.Destroy()
	d.session = nil
	return err
}

// Detect runs the model on img and returns the corners in img's pixel space.
func (d *ONNX) Detect(img image.Image) (skewbox.SkewBox, error) {
	if img == nil {
		return skewbox.SkewBox{}, errors.New("nil image")
	}
	timer := common.NewNamedTimer("detect")

	size := d.config.InputSize
	resized := imaging.Resize(img, size, size, imaging.Linear)
	data, w, h, err := utils.NormalizeImagePooled(resized)
	if err != nil {
		return skewbox.SkewBox{}, fmt.Errorf("failed to normalize image: %w", err)
	}
	defer mempool.PutFloat32(data)

	out, err := d.run(data, w, h)
	if err != nil {
		return skewbox.SkewBox{}, err
	}

	box, err := decodeCorners(out, w, h)
	if err != nil {
		return skewbox.SkewBox{}, err
	}
	if err := checkCorners(box, w, h, d.config); err != nil {
		return skewbox.SkewBox{}, err
	}

	b := img.Bounds()
	box = box.Scale(float64(b.Dx())/float64(w), float64(b.Dy())/float64(h))
	timer.Stop()
	slog.Debug("corner detection finished", "box", box.String(), timer.Attr())
	return box, nil
}

func (d *ONNX) run(data []float32, w, h int) ([]float32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.session == nil {
		return nil, errors.New("detector is closed")
	}

	tensor, err := onnx.NewImageTensor(data, 3, h, w)
	if err != nil {
		return nil, err
	}
	input, err := tensor.Value()
	if err != nil {
		return nil, err
	}
	defer func() { _ = input.Destroy() }()

	outs := []onnxrt.Value{nil}
	if err := d.session.Run([]onnxrt.Value{input}, outs); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}
	if outs[0] == nil {
		return nil, errors.New("no output from model")
	}
	defer func() { _ = outs[0].Destroy() }()

	t, ok := outs[0].(*onnxrt.Tensor[float32])
	if !ok {
		return nil, errors.New("invalid output tensor type")
	}
	res := make([]float32, len(t.GetData()))
	copy(res, t.GetData())
	return res, nil
}

// New returns the detector described by cfg: the ONNX model when enabled,
// otherwise a detector that never finds anything. The returned close
// function is always non-nil.
func New(cfg Config) (Detector, func() error, error) {
	if !cfg.Enabled {
		return None(), func() error { return nil }, nil
	}
	d, err := NewONNX(cfg)
	if err != nil {
		return nil, func() error { return nil }, err
	}
	return d, d.Close, nil
}
