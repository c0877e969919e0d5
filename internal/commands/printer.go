package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/colonyops/cadence/internal/core/notify"
	"github.com/colonyops/cadence/internal/core/styles"
)

// Printer writes styled status lines for humans.
type Printer struct {
	w io.Writer
}

func NewPrinter(w io.Writer) *Printer { return &Printer{w: w} }

func (p *Printer) line(prefix, format string, args ...any) {
	_, _ = fmt.Fprintln(p.w, prefix+fmt.Sprintf(format, args...))
}

func (p *Printer) Printf(format string, args ...any) { p.line("", format, args...) }

func (p *Printer) Successf(format string, args ...any) {
	p.line(styles.SuccessStyle.Render("✔ "), format, args...)
}

func (p *Printer) Infof(format string, args ...any) {
	p.line(styles.InfoStyle.Render("• "), format, args...)
}

func (p *Printer) Warnf(format string, args ...any) {
	p.line(styles.WarningStyle.Render("! "), format, args...)
}

func (p *Printer) Errorf(format string, args ...any) {
	p.line(styles.ErrorStyle.Render("✘ "), format, args...)
}

// newToastNotifier prints notifications as they arrive.
func newToastNotifier(w io.Writer) notify.Notifier {
	if w == nil {
		w = os.Stderr
	}
	p := NewPrinter(w)
	return notify.NotifierFunc(func(_ context.Context, n notify.Notification) error {
		switch n.Level {
		case notify.LevelSuccess:
			p.Successf("%s", n.Message)
		case notify.LevelWarning:
			p.Warnf("%s", n.Message)
		case notify.LevelError:
			p.Errorf("%s", n.Message)
		default:
			p.Infof("%s", n.Message)
		}
		return nil
	})
}
