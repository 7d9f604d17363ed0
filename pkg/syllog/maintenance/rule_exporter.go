package maintenance

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cognicore/syllog/pkg/syllog/term"
)

// RuleWriter persists rendered rules to a destination (file, stdout, etc.).
type RuleWriter interface {
	WriteRules(ctx context.Context, content string) error
}

// RuleExporter renders stored rules as Prolog-style clauses, one per line,
// with a comment heading each run of the same predicate.
type RuleExporter struct {
	Writer RuleWriter
}

func (e *RuleExporter) Export(ctx context.Context, rules []term.Rule) error {
	if e.Writer == nil {
		return errors.New("rule exporter: nil writer")
	}
	var b strings.Builder
	last := ""
	for _, r := range rules {
		sig := fmt.Sprintf("%s/%d", r.Head.Pred, r.Head.Arity())
		if sig != last {
			if last != "" {
				b.WriteByte('\n')
			}
			fmt.Fprintf(&b, "%% %s\n", sig)
			last = sig
		}
		b.WriteString(r.String())
		b.WriteByte('\n')
	}
	return e.Writer.WriteRules(ctx, b.String())
}

// StreamWriter writes rules to an io.Writer.
type StreamWriter struct {
	W io.Writer
}

func (w StreamWriter) WriteRules(ctx context.Context, content string) error {
	_, err := io.WriteString(w.W, content)
	return err
}

// FileWriter replaces the file at Path with the rendered rules.
type FileWriter struct {
	Path string
}

func (w FileWriter) WriteRules(ctx context.Context, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tmp := w.Path + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, w.Path)
}
