// Package report prints stored offers to the console.
package report

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"

	"github.com/lipanski/flycheap/internal/domain"
)

// Printer writes a short human-readable block per offer. It is safe for
// concurrent use; blocks from different requests never interleave.
type Printer struct {
	mu sync.Mutex
	w  io.Writer

	price *color.Color
	route *color.Color
	faint *color.Color
}

// NewPrinter returns a Printer writing to w. With noColor set the output is
// plain text regardless of the terminal.
func NewPrinter(w io.Writer, noColor bool) *Printer {
	p := &Printer{
		w:     w,
		price: color.New(color.FgGreen, color.Bold),
		route: color.New(color.FgCyan),
		faint: color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.price, p.route, p.faint} {
		if noColor {
			c.DisableColor()
		} else {
			c.EnableColor()
		}
	}
	return p
}

// Report prints every offer of req. Names are resolved through dict where the
// response carried them.
func (p *Printer) Report(req domain.Request, offers []domain.Offer, dict domain.Dictionary) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.faint.Fprintf(p.w, "%s: %d offers (request %s)\n", req.Name, len(offers), req.ID)
	for _, o := range offers {
		p.printOffer(o, dict)
	}
}

func (p *Printer) printOffer(o domain.Offer, dict domain.Dictionary) {
	refundable := "non-refundable"
	if o.Refundable {
		refundable = "refundable"
	}

	p.price.Fprintf(p.w, "%s %s", o.Currency, o.TotalPrice.StringFixed(2))
	fmt.Fprintf(p.w, "  base %s  tax %s  %s  ticket by %s\n",
		o.BasePrice.StringFixed(2), o.TaxPrice.StringFixed(2), refundable, o.LatestTicketingAt.Format())

	for _, f := range o.Flights {
		fmt.Fprint(p.w, "  ")
		p.route.Fprintf(p.w, "%s -> %s", f.Origin, f.Destination)
		fmt.Fprintf(p.w, "  %s -> %s  %s %s  %s\n",
			f.DepartsAt.Format(), f.ArrivesAt.Format(), f.Carrier, f.Number, f.Seat)
		p.faint.Fprintf(p.w, "    %s to %s, %s, %d min\n",
			dict.Airport(f.Origin), dict.Airport(f.Destination), dict.Carrier(f.Carrier), f.Duration)
	}
}
