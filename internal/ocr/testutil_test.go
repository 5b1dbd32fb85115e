package ocr

import (
	"context"
	"errors"
	"sync"

	"github.com/joseph-ayodele/health-reports/internal/llm"
)

// fakeVision answers from a per-model table and records the call order.
type fakeVision struct {
	mu      sync.Mutex
	answers map[string]string
	fail    map[string]bool
	calls   []llm.VisionRequest
}

func (f *fakeVision) ExtractText(_ context.Context, _ string, req llm.VisionRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if f.fail[req.Model] {
		return "", errors.New("502 bad gateway")
	}
	return f.answers[req.Model], nil
}

func (f *fakeVision) models() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.Model
	}
	return out
}

type stubParser struct {
	text    string
	textErr error
	images  []PDFImage
	imgErr  error
	calls   int
}

func (s *stubParser) Text(context.Context, []byte) (string, error) {
	s.calls++
	return s.text, s.textErr
}

func (s *stubParser) Images(context.Context, []byte) ([]PDFImage, error) {
	s.calls++
	return s.images, s.imgErr
}

type recordingObserver struct {
	events []string
}

func (r *recordingObserver) ProviderSelected(_ int, p string)     { r.events = append(r.events, "try:"+p) }
func (r *recordingObserver) UnitSucceeded(_ int, p string, _ int) { r.events = append(r.events, "ok:"+p) }
func (r *recordingObserver) UnitFailed(_ int, p string, _ error)  { r.events = append(r.events, "fail:"+p) }

type panickingObserver struct{ recordingObserver }

func (p *panickingObserver) ProviderSelected(unit int, provider string) {
	p.recordingObserver.ProviderSelected(unit, provider)
	panic("observer bug")
}

func (p *panickingObserver) UnitFailed(int, string, error) { panic("observer bug") }
