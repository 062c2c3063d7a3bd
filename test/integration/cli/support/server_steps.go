package support

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cucumber/godog"

	"github.com/MeKo-Tech/puzzlebox/internal/config"
	"github.com/MeKo-Tech/puzzlebox/internal/server"
)

// HTTPTestServerWrapper wraps httptest.Server for integration tests.
type HTTPTestServerWrapper struct {
	Server     *httptest.Server
	TestServer *server.Server
}

// Close stops the listener and releases server resources.
func (w *HTTPTestServerWrapper) Close() {
	w.Server.Close()
	_ = w.TestServer.Close()
}

// startServer runs the puzzlebox routes on an httptest listener with the
// default configuration and the given upload limit.
func (testCtx *TestContext) startServer(maxUploadMB int64) error {
	cfg := config.DefaultConfig()
	srv, err := server.NewServer(server.Config{
		CORSOrigin:  cfg.Server.CORSOrigin,
		MaxUploadMB: maxUploadMB,
		TimeoutSec:  cfg.Server.TimeoutSec,
		Version:     "integration",
		Rectify:     cfg.ToRectifyConfig(),
		Detector:    cfg.ToDetectorConfig(),
		Overlay:     cfg.ToOverlayOptions(),
		Tolerance:   cfg.Editor.Tolerance,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	mux := http.NewServeMux()
	srv.SetupRoutes(mux)
	testCtx.HTTPTestServer = &HTTPTestServerWrapper{Server: httptest.NewServer(mux), TestServer: srv}
	return nil
}

func (testCtx *TestContext) theServerIsRunning() error {
	return testCtx.startServer(config.DefaultConfig().Server.MaxUploadMB)
}

func (testCtx *TestContext) theServerIsRunningWithUploadLimit(mb int) error {
	return testCtx.startServer(int64(mb))
}

func (testCtx *TestContext) serverURL(path string) (string, error) {
	if testCtx.HTTPTestServer == nil {
		return "", errors.New("server is not running")
	}
	return testCtx.HTTPTestServer.Server.URL + path, nil
}

func (testCtx *TestContext) do(req *http.Request) error {
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	testCtx.LastHTTPStatusCode = resp.StatusCode
	testCtx.LastHTTPBody = body
	testCtx.LastHTTPHeaders = map[string]string{}
	for k := range resp.Header {
		testCtx.LastHTTPHeaders[k] = resp.Header.Get(k)
	}
	return nil
}

func (testCtx *TestContext) iSendGETRequestTo(path string) error {
	url, err := testCtx.serverURL(path)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	return testCtx.do(req)
}

// iUpload posts name as the "image" part of a multipart form.
func (testCtx *TestContext) iUpload(name, path string) error {
	return testCtx.upload(name, path, nil)
}

// iUploadWithFields posts name together with the form fields of a
// two-column table.
func (testCtx *TestContext) iUploadWithFields(name, path string, table *godog.Table) error {
	fields := map[string]string{}
	for _, row := range table.Rows {
		if len(row.Cells) != 2 {
			return errors.New("fields table needs two columns")
		}
		fields[row.Cells[0].Value] = row.Cells[1].Value
	}
	return testCtx.upload(name, path, fields)
}

func (testCtx *TestContext) upload(name, path string, fields map[string]string) error {
	url, err := testCtx.serverURL(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(testCtx.path(name))
	if err != nil {
		return err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", filepath.Base(name))
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return err
		}
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return testCtx.do(req)
}

func (testCtx *TestContext) theResponseStatusShouldBe(code int) error {
	if testCtx.LastHTTPStatusCode != code {
		return fmt.Errorf("status %d, expected %d\nBody: %s", testCtx.LastHTTPStatusCode, code, testCtx.LastHTTPBody)
	}
	return nil
}

func (testCtx *TestContext) theResponseHeaderShouldBe(name, want string) error {
	got, ok := testCtx.LastHTTPHeaders[http.CanonicalHeaderKey(name)]
	if !ok {
		return fmt.Errorf("header %s missing", name)
	}
	if got != want {
		return fmt.Errorf("header %s is %q, expected %q", name, got, want)
	}
	return nil
}

func (testCtx *TestContext) theResponseJSONFieldShouldBe(path, want string) error {
	return expectField(testCtx.LastHTTPBody, path, want)
}

func (testCtx *TestContext) theResponseShouldContain(text string) error {
	if !strings.Contains(string(testCtx.LastHTTPBody), text) {
		return fmt.Errorf("response does not contain %q\nBody: %s", text, testCtx.LastHTTPBody)
	}
	return nil
}

func (testCtx *TestContext) theResponseShouldBeAPNGOf(width, height int) error {
	cfg, err := png.DecodeConfig(bytes.NewReader(testCtx.LastHTTPBody))
	if err != nil {
		return fmt.Errorf("response is not a PNG: %w", err)
	}
	if cfg.Width != width || cfg.Height != height {
		return fmt.Errorf("PNG is %dx%d, expected %dx%d", cfg.Width, cfg.Height, width, height)
	}
	return nil
}

// RegisterServerSteps registers HTTP steps.
func (testCtx *TestContext) RegisterServerSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the puzzlebox server is running$`, testCtx.theServerIsRunning)
	sc.Step(`^the puzzlebox server is running with a (\d+) MB upload limit$`, testCtx.theServerIsRunningWithUploadLimit)
	sc.Step(`^I send a GET request to "([^"]*)"$`, testCtx.iSendGETRequestTo)
	sc.Step(`^I upload "([^"]*)" to "([^"]*)"$`, testCtx.iUpload)
	sc.Step(`^I upload "([^"]*)" to "([^"]*)" with fields:$`, testCtx.iUploadWithFields)
	sc.Step(`^the response status should be (\d+)$`, testCtx.theResponseStatusShouldBe)
	sc.Step(`^the response header "([^"]*)" should be "([^"]*)"$`, testCtx.theResponseHeaderShouldBe)
	sc.Step(`^the response JSON field "([^"]*)" should be "([^"]*)"$`, testCtx.theResponseJSONFieldShouldBe)
	sc.Step(`^the response should contain "([^"]*)"$`, testCtx.theResponseShouldContain)
	sc.Step(`^the response should be a PNG of (\d+)x(\d+)$`, testCtx.theResponseShouldBeAPNGOf)
}
