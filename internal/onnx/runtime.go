// Package onnx locates and initialises the ONNX Runtime shared library and
// prepares session options and input tensors for model-backed detectors.
package onnx

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	onnxrt "github.com/yalue/onnxruntime_go"
)

// EnvLibrary points at an explicit onnxruntime shared library.
const EnvLibrary = "PUZZLEBOX_ONNXRUNTIME_LIB"

var initMu sync.Mutex

// LibraryName returns the onnxruntime shared library file name for goos.
func LibraryName(goos string) (string, error) {
	switch goos {
	case "linux":
		return "libonnxruntime.so", nil
	case "darwin":
		return "libonnxruntime.dylib", nil
	case "windows":
		return "onnxruntime.dll", nil
	default:
		return "", fmt.Errorf("unsupported operating system: %s", goos)
	}
}

// systemLibraryDirs returns the directories searched for the library,
// GPU builds first when useGPU is set.
func systemLibraryDirs(useGPU bool) []string {
	dirs := []string{"/usr/local/lib", "/usr/lib", "/opt/onnxruntime/cpu/lib"}
	if useGPU {
		return append([]string{"/opt/onnxruntime/gpu/lib"}, dirs...)
	}
	return dirs
}

// FindLibrary looks in the environment override, the system library
// directories and finally <project root>/onnxruntime/{gpu/,}lib.
func FindLibrary(useGPU bool) (string, error) {
	if p := os.Getenv(EnvLibrary); p != "" {
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("%s: %w", EnvLibrary, err)
		}
		return p, nil
	}

	libName, err := LibraryName(runtime.GOOS)
	if err != nil {
		return "", err
	}
	for _, dir := range systemLibraryDirs(useGPU) {
		p := filepath.Join(dir, libName)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	root, err := findProjectRoot()
	if err != nil {
		return "", err
	}
	candidates := []string{filepath.Join(root, "onnxruntime", "lib", libName)}
	if useGPU {
		candidates = append([]string{filepath.Join(root, "onnxruntime", "gpu", "lib", libName)}, candidates...)
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("ONNX Runtime library not found at %s", candidates[len(candidates)-1])
}

// Init points the runtime at the shared library and initialises its
// environment once per process.
func Init(useGPU bool) error {
	initMu.Lock()
	defer initMu.Unlock()
	if onnxrt.IsInitialized() {
		return nil
	}

	path, err := FindLibrary(useGPU)
	if err != nil {
		return fmt.Errorf("failed to set ONNX Runtime library path: %w", err)
	}
	onnxrt.SetSharedLibraryPath(path)
	if err := onnxrt.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize ONNX Runtime: %w", err)
	}
	return nil
}

// NewSessionOptions returns session options with the thread count and GPU
// provider applied. A GPU that cannot be configured leaves the options on
// CPU and returns them together with the GPU error. The caller destroys the
// options.
func NewSessionOptions(numThreads int, gpu GPUConfig) (*onnxrt.SessionOptions, error) {
	opts, err := onnxrt.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	if numThreads > 0 {
		if err := opts.SetIntraOpNumThreads(numThreads); err != nil {
			_ = opts.Destroy()
			return nil, fmt.Errorf("failed to set thread count: %w", err)
		}
	}
	if err := ConfigureSessionForGPU(opts, gpu); err != nil {
		return opts, fmt.Errorf("%w: %w", ErrGPUUnavailable, err)
	}
	return opts, nil
}

// findProjectRoot walks up from the working directory looking for go.mod.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("could not find project root")
		}
		dir = parent
	}
}
