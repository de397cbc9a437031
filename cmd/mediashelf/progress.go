package main

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"

	"mediashelf/internal/archive"
)

// barProgress renders one progress bar per synced month.
type barProgress struct {
	out io.Writer
	bar *progressbar.ProgressBar
}

func newBarProgress(out io.Writer) *barProgress {
	return &barProgress{out: out}
}

func (p *barProgress) UnitStarted(unit archive.Unit, files int) {
	mode := archive.ModeWhole
	if unit.Exists {
		mode = archive.ModeDiff
	}
	p.bar = progressbar.NewOptions(files,
		progressbar.OptionSetWriter(p.out),
		progressbar.OptionSetDescription(fmt.Sprintf("%s (%s)", unit.Name, mode)),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(progressThrottle),
		progressbar.OptionClearOnFinish(),
	)
}

func (p *barProgress) FileDone(_ string, _ int64, _ bool) {
	if p.bar != nil {
		_ = p.bar.Add(1)
	}
}

func (p *barProgress) UnitFinished(archive.UnitResult) {
	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
	p.bar = nil
}
