package ocr

import (
	"log/slog"
	"time"
)

// Observer receives progress events from the orchestrator. Calls are
// synchronous and cannot influence the fallback loop.
type Observer interface {
	ProviderSelected(unit int, provider string)
	UnitSucceeded(unit int, provider string, chars int)
	UnitFailed(unit int, provider string, err error)
}

// NopObserver discards every event.
type NopObserver struct{}

func (NopObserver) ProviderSelected(int, string)   {}
func (NopObserver) UnitSucceeded(int, string, int) {}
func (NopObserver) UnitFailed(int, string, error)  {}

// LogObserver forwards events to a slog logger.
type LogObserver struct {
	Logger *slog.Logger
}

func (o LogObserver) log() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

func (o LogObserver) ProviderSelected(unit int, provider string) {
	o.log().Info("ocr.progress.trying", "unit", unit, "provider", provider)
}

func (o LogObserver) UnitSucceeded(unit int, provider string, chars int) {
	o.log().Info("ocr.progress.ok", "unit", unit, "provider", provider, "chars", chars)
}

func (o LogObserver) UnitFailed(unit int, provider string, err error) {
	o.log().Warn("ocr.progress.failed", "unit", unit, "provider", provider, "error", err)
}

// guardedObserver keeps a panicking Observer from aborting a run.
type guardedObserver struct {
	inner  Observer
	logger *slog.Logger
}

func (g guardedObserver) catch(event string, unit int) {
	if r := recover(); r != nil {
		g.logger.Error("ocr.observer.panic", "event", event, "unit", unit, "panic", r)
	}
}

func (g guardedObserver) ProviderSelected(unit int, provider string) {
	defer g.catch("provider_selected", unit)
	g.inner.ProviderSelected(unit, provider)
}

func (g guardedObserver) UnitSucceeded(unit int, provider string, chars int) {
	defer g.catch("unit_succeeded", unit)
	g.inner.UnitSucceeded(unit, provider, chars)
}

func (g guardedObserver) UnitFailed(unit int, provider string, err error) {
	defer g.catch("unit_failed", unit)
	g.inner.UnitFailed(unit, provider, err)
}

// Attempt records one vision completion made for a unit.
type Attempt struct {
	UnitIndex int
	Provider  string
	Text      string
	Err       error
	Elapsed   time.Duration
}

func (a Attempt) Succeeded() bool {
	return a.Err == nil && a.Text != ""
}
