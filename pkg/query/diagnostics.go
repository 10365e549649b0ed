package query

import (
	"fmt"

	"github.com/walteh/kconfig-ls/pkg/document"
	"github.com/walteh/kconfig-ls/pkg/keyword"
	"github.com/walteh/kconfig-ls/pkg/semindex"
	"github.com/walteh/kconfig-ls/pkg/syntax"
	"github.com/walteh/kconfig-ls/pkg/token"
)

// Diagnostic is a single finding to surface to the editor: either a parse
// error/warning carried straight through from syntax.Diagnostic, or a
// semantic finding (currently: references to undefined symbols) computed
// here from the semantic index.
type Diagnostic struct {
	Severity syntax.Severity
	Message  string
	Span     token.Span
}

// wellKnownSymbols extends the always-defined set beyond the bare y/n/m
// tristate literals with names real kernel trees define at the top of the
// architecture-independent Kconfig and that this language server has no
// way to see without evaluating every source'd file, so flagging them as
// undefined would be noise rather than signal.
var wellKnownSymbols = map[string]bool{
	"MODULES": true, "COMPILE_TEST": true, "EXPERT": true, "NET": true,
	"BLOCK": true, "SMP": true, "PCI": true, "USB": true, "HAS_IOMEM": true,
	"HAS_DMA": true, "MMU": true, "OF": true, "ACPI": true, "PM": true,
	"ARCH_HAS_DMA_PREP_COHERENT": true,
}

// Diagnostics returns every diagnostic for doc: parse errors/warnings
// followed by undefined-symbol warnings.
func Diagnostics(doc *document.Document) []Diagnostic {
	out := make([]Diagnostic, 0, len(doc.Diagnostics))
	for _, d := range doc.Diagnostics {
		out = append(out, Diagnostic{Severity: d.Severity, Message: d.Message, Span: d.Span})
	}
	for _, r := range doc.Index.References {
		if r.IsMacro || r.SymbolID != semindex.InvalidSymbolID {
			continue
		}
		if keyword.IsTristateLiteral(r.Name) || wellKnownSymbols[r.Name] {
			continue
		}
		out = append(out, Diagnostic{
			Severity: syntax.SeverityWarning,
			Message:  fmt.Sprintf("reference to undefined symbol %q", r.Name),
			Span:     r.Span,
		})
	}
	return out
}
