package app

import (
	"context"
	"sync"

	"retouch-bot/internal/domain/entity"
)

type fakeHost struct {
	mu       sync.Mutex
	doc      []byte
	capErr   error
	placeOK  bool
	placeErr error
	panics   bool
	captures int
	placed   [][]byte
	labels   []string
}

func newFakeHost(doc []byte) *fakeHost {
	return &fakeHost{doc: doc, placeOK: true}
}

func (h *fakeHost) CaptureActiveDocument(context.Context) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.captures++
	return h.doc, h.capErr
}

func (h *fakeHost) PlaceImage(_ context.Context, data []byte, label string) (bool, error) {
	if h.panics {
		panic("host crashed")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.placed = append(h.placed, data)
	h.labels = append(h.labels, label)
	return h.placeOK, h.placeErr
}

type fakeSegmenter struct {
	mu      sync.Mutex
	res     *entity.MaskResult
	err     error
	calls   int
	last    *entity.MaskRequest
	entered chan struct{}
	unblock chan struct{}
}

func (s *fakeSegmenter) SegmentFromPoints(ctx context.Context, req *entity.MaskRequest) (*entity.MaskResult, error) {
	s.mu.Lock()
	s.calls++
	s.last = req
	entered, unblock := s.entered, s.unblock
	s.mu.Unlock()

	if entered != nil {
		close(entered)
	}
	if unblock != nil {
		select {
		case <-unblock:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.res, s.err
}

func (s *fakeSegmenter) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []entity.Notice
}

func (n *recordingNotifier) Notify(_ context.Context, notice entity.Notice) {
	n.mu.Lock()
	n.notices = append(n.notices, notice)
	n.mu.Unlock()
}

func (n *recordingNotifier) Last() entity.Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.notices) == 0 {
		return entity.Notice{}
	}
	return n.notices[len(n.notices)-1]
}

type fakeBackend struct {
	retouchRes *entity.RetouchResult
	err        error
	lastReq    *entity.RetouchRequest
	lutImage   []byte
	lutName    string
	intensity  float64
}

func (b *fakeBackend) Retouch(_ context.Context, req *entity.RetouchRequest) (*entity.RetouchResult, error) {
	b.lastReq = req
	return b.retouchRes, b.err
}

func (b *fakeBackend) Capabilities(context.Context) (*entity.Capabilities, error) {
	return &entity.Capabilities{ModelsLoaded: true, Device: "cpu", Capabilities: []string{"img2img"}}, b.err
}

func (b *fakeBackend) ListLUTs(context.Context) ([]string, error) {
	return []string{"cinematic", "matte"}, b.err
}

func (b *fakeBackend) ApplyLUT(_ context.Context, _ []byte, name string, intensity float64) ([]byte, error) {
	b.lutName, b.intensity = name, intensity
	return b.lutImage, b.err
}

func (b *fakeBackend) Health(context.Context) (*entity.BackendHealth, error) {
	return &entity.BackendHealth{Status: "ok", Device: "cpu"}, b.err
}

var maskBytes = []byte{0x89, 'P', 'N', 'G', 0xFF, 0x00, 0x10}
