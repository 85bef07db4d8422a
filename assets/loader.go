package assets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"haunted-house/core"
	"haunted-house/scene"
)

// ErrClosed is returned for loads issued after Close.
var ErrClosed = errors.New("texture loader closed")

// DecodeFunc turns a file path into pixels. Replaceable for tests.
type DecodeFunc func(path string) (*scene.Image, error)

// Stats counts texture handles by state.
type Stats struct {
	Pending int
	Ready   int
	Failed  int
}

type result struct {
	tex *scene.Texture
	img *scene.Image
	err error
}

// Loader decodes textures on background goroutines and hands them back to the
// render thread through Poll. Load never blocks and never fails: a texture
// that cannot be read ends up in the Failed state and renders as an unset slot.
type Loader struct {
	root   string
	decode DecodeFunc
	sem    *semaphore.Weighted

	mu      sync.RWMutex
	cache   map[string]*scene.Texture   // rel path -> handle
	byPath  map[string][]*scene.Texture // abs path -> handles, for reload
	watched map[string]bool
	watcher *fsnotify.Watcher
	closed  bool

	results chan result
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Option configures a Loader.
type Option func(*Loader)

// WithConcurrency bounds the number of simultaneous decodes.
func WithConcurrency(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithDecoder replaces the file decoder.
func WithDecoder(fn DecodeFunc) Option {
	return func(l *Loader) {
		l.decode = fn
	}
}

// NewLoader creates a loader resolving relative paths against root.
func NewLoader(root string, opts ...Option) (*Loader, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("texture root %q: %w", root, err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	l := &Loader{
		root:    abs,
		decode:  scene.DecodeImageFile,
		sem:     semaphore.NewWeighted(int64(runtime.NumCPU())),
		cache:   make(map[string]*scene.Texture),
		byPath:  make(map[string][]*scene.Texture),
		watched: make(map[string]bool),
		results: make(chan result, 64),
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(l)
	}
	if _, err := os.Stat(abs); err != nil {
		core.Log.Warn("Texture root not readable, textures will stay unset",
			zap.String("root", abs), zap.Error(err))
	}
	return l, nil
}

// Root returns the absolute texture root.
func (l *Loader) Root() string {
	return l.root
}

// Load returns a handle for rel immediately and queues the decode. Repeated
// loads of the same path share one handle; the first call's params win.
func (l *Loader) Load(rel string, params scene.TextureParams) *scene.Texture {
	l.mu.Lock()
	defer l.mu.Unlock()

	if tex, ok := l.cache[rel]; ok {
		return tex
	}

	tex := scene.NewTexture(rel, params)
	if l.closed {
		tex.Fail(ErrClosed)
		return tex
	}

	path := filepath.Join(l.root, filepath.FromSlash(rel))
	l.cache[rel] = tex
	l.byPath[path] = append(l.byPath[path], tex)
	if l.watcher != nil {
		l.watchDirLocked(filepath.Dir(path))
	}
	l.enqueue(tex, path)
	return tex
}

// enqueue starts a decode goroutine. Callers hold l.mu.
func (l *Loader) enqueue(tex *scene.Texture, path string) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		if err := l.sem.Acquire(l.ctx, 1); err != nil {
			return
		}
		img, err := l.decode(path)
		l.sem.Release(1)

		select {
		case l.results <- result{tex: tex, img: img, err: err}:
		case <-l.ctx.Done():
		}
	}()
}

// Poll applies every finished decode. It must run on the thread that owns the
// scene graph (and the GL context when upload is non-nil). upload may be nil.
// Returns the number of textures that changed state.
func (l *Loader) Poll(upload func(*scene.Texture) error) int {
	n := 0
	for {
		select {
		case r := <-l.results:
			l.apply(r, upload)
			n++
		default:
			return n
		}
	}
}

func (l *Loader) apply(r result, upload func(*scene.Texture) error) {
	if r.err != nil {
		// A reload failure keeps the previous pixels.
		if r.tex.State != scene.TextureReady {
			r.tex.Fail(r.err)
		}
		core.Log.Warn("Texture load failed",
			zap.String("texture", r.tex.Name),
			zap.Error(r.err))
		return
	}

	r.tex.Resolve(r.img)
	if upload != nil {
		if err := upload(r.tex); err != nil {
			r.tex.Fail(err)
			core.Log.Warn("Texture upload failed",
				zap.String("texture", r.tex.Name),
				zap.Error(err))
			return
		}
	}
	core.Log.Debug("Texture ready",
		zap.String("texture", r.tex.Name),
		zap.Int("width", r.img.Width),
		zap.Int("height", r.img.Height),
		zap.Int("revision", r.tex.Revision))
}

// Stats reports handle counts by state. Call from the render thread.
func (l *Loader) Stats() Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var s Stats
	for _, tex := range l.cache {
		switch tex.State {
		case scene.TexturePending:
			s.Pending++
		case scene.TextureReady:
			s.Ready++
		case scene.TextureFailed:
			s.Failed++
		}
	}
	return s
}

// Close stops outstanding decodes and the file watcher.
func (l *Loader) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	w := l.watcher
	l.watcher = nil
	l.mu.Unlock()

	l.cancel()
	l.wg.Wait()
	if w != nil {
		return w.Close()
	}
	return nil
}
