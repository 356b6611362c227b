package asr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/whisperclip/whisperclip/internal/session"
)

// defaultModelHost serves the canonical ggml weight files for whisper.cpp.
const defaultModelHost = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main"

// Loader resolves named models to cached ggml weight files, downloading them
// on first use, and loads them through the whisper.cpp bindings.
type Loader struct {
	logger   *slog.Logger
	cacheDir string
	baseURL  string
	client   *http.Client
}

// LoaderOption is a functional option for configuring a Loader.
type LoaderOption func(*Loader)

// WithModelHost overrides the weight download host.
func WithModelHost(baseURL string) LoaderOption {
	return func(l *Loader) { l.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithHTTPClient overrides the download client.
func WithHTTPClient(client *http.Client) LoaderOption {
	return func(l *Loader) { l.client = client }
}

// NewLoader constructs a loader caching weights under cacheDir.
func NewLoader(logger *slog.Logger, cacheDir string, opts ...LoaderOption) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	l := &Loader{
		logger:   logger,
		cacheDir: cacheDir,
		baseURL:  defaultModelHost,
		client:   &http.Client{Timeout: 30 * time.Minute},
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Load ensures the named model's weights are cached locally and loads them.
func (l *Loader) Load(ctx context.Context, name string) (session.ModelHandle, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("model name must not be empty")
	}

	path, err := l.EnsureModel(ctx, name)
	if err != nil {
		return nil, err
	}

	model, err := whisperlib.New(path)
	if err != nil {
		return nil, fmt.Errorf("load model %q: %w", path, err)
	}

	return &Handle{name: name, model: model}, nil
}

// ModelPath returns where the named model's weights live in the cache.
func (l *Loader) ModelPath(name string) string {
	return filepath.Join(l.cacheDir, "ggml-"+name+".bin")
}

// EnsureModel makes the named model's weight file present in the cache,
// downloading it when missing, and returns its path.
func (l *Loader) EnsureModel(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("model name must not be empty")
	}

	path := l.ModelPath(name)
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		return path, nil
	}

	if err := os.MkdirAll(l.cacheDir, 0o700); err != nil {
		return "", fmt.Errorf("create model cache dir: %w", err)
	}

	url := l.baseURL + "/ggml-" + name + ".bin"
	l.logger.Info("downloading model weights", "model", name, "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build model download request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download model %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download model %s: unexpected status %s", name, resp.Status)
	}

	tmp, err := os.CreateTemp(l.cacheDir, "ggml-"+name+".*.part")
	if err != nil {
		return "", fmt.Errorf("create model temp file: %w", err)
	}

	written, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("write model weights: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("install model weights: %w", err)
	}

	l.logger.Info("model weights cached", "model", name, "bytes", written, "path", path)
	return path, nil
}
