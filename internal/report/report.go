package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-resto/internal/money"
	"github.com/noah-isme/backend-resto/internal/ordertype"
	"github.com/noah-isme/backend-resto/internal/pricing"
	"github.com/noah-isme/backend-resto/internal/sales"
)

// Totals is the five-amount sum of a set of transactions.
type Totals struct {
	Base  float64 `json:"base"`
	CGST  float64 `json:"cgst"`
	SGST  float64 `json:"sgst"`
	GST   float64 `json:"gst"`
	Final float64 `json:"final"`
}

// OrderTypeTotals are the totals of one order type.
type OrderTypeTotals struct {
	OrderType    ordertype.Key `json:"orderType"`
	Label        string        `json:"label"`
	Transactions int           `json:"transactions"`
	Totals
}

// Report summarises transactions for a period.
type Report struct {
	From         time.Time            `json:"from"`
	To           time.Time            `json:"to"`
	Transactions int                  `json:"transactions"`
	Totals       Totals               `json:"totals"`
	ByOrderType  []OrderTypeTotals    `json:"byOrderType"`
	BySlab       []pricing.RateTotals `json:"bySlab"`

	// ReconciliationGaps counts lines whose base plus GST differs from the
	// final price by the rounding cent inclusive pricing allows.
	ReconciliationGaps int `json:"reconciliationGaps"`
}

type accumulator struct {
	base, cgst, sgst, gst, final decimal.Decimal
}

func (a *accumulator) add(base, cgst, sgst, gst, final float64) {
	a.base = a.base.Add(money.Decimal(base))
	a.cgst = a.cgst.Add(money.Decimal(cgst))
	a.sgst = a.sgst.Add(money.Decimal(sgst))
	a.gst = a.gst.Add(money.Decimal(gst))
	a.final = a.final.Add(money.Decimal(final))
}

func (a *accumulator) totals() Totals {
	return Totals{
		Base:  money.Normalize(a.base),
		CGST:  money.Normalize(a.cgst),
		SGST:  money.Normalize(a.sgst),
		GST:   money.Normalize(a.gst),
		Final: money.Normalize(a.final),
	}
}

// Build aggregates transactions into totals per order type and per GST slab.
// Every canonical order type is listed, in display order, even with no sales.
func Build(from, to time.Time, txs []sales.Transaction) Report {
	var all accumulator
	byType := map[ordertype.Key]*accumulator{}
	counts := map[ordertype.Key]int{}
	type slabAcc struct {
		cgstPct, sgstPct float64
		accumulator
	}
	slabs := map[[2]float64]*slabAcc{}
	gaps := 0

	for _, tx := range txs {
		s := tx.Summary
		all.add(s.TotalBaseAmount, s.TotalCGSTAmount, s.TotalSGSTAmount, s.TotalGSTAmount, s.TotalFinalAmount)
		acc, ok := byType[tx.OrderType]
		if !ok {
			acc = &accumulator{}
			byType[tx.OrderType] = acc
		}
		acc.add(s.TotalBaseAmount, s.TotalCGSTAmount, s.TotalSGSTAmount, s.TotalGSTAmount, s.TotalFinalAmount)
		counts[tx.OrderType]++

		for _, rt := range s.ByRate() {
			k := [2]float64{rt.CGSTPercent, rt.SGSTPercent}
			sa, ok := slabs[k]
			if !ok {
				sa = &slabAcc{cgstPct: rt.CGSTPercent, sgstPct: rt.SGSTPercent}
				slabs[k] = sa
			}
			sa.add(rt.Taxable, rt.CGST, rt.SGST, rt.GST, rt.Final)
		}
		for _, line := range s.Items {
			if !line.Breakdown.Reconciles() {
				gaps++
			}
		}
	}

	rep := Report{
		From:               from,
		To:                 to,
		Transactions:       len(txs),
		Totals:             all.totals(),
		ReconciliationGaps: gaps,
	}
	for _, key := range ordertype.All() {
		ot := OrderTypeTotals{OrderType: key, Label: key.Label(), Transactions: counts[key]}
		if acc, ok := byType[key]; ok {
			ot.Totals = acc.totals()
		}
		rep.ByOrderType = append(rep.ByOrderType, ot)
	}

	rep.BySlab = make([]pricing.RateTotals, 0, len(slabs))
	for _, sa := range slabs {
		t := sa.totals()
		rep.BySlab = append(rep.BySlab, pricing.RateTotals{
			CGSTPercent: sa.cgstPct,
			SGSTPercent: sa.sgstPct,
			Taxable:     t.Base,
			CGST:        t.CGST,
			SGST:        t.SGST,
			GST:         t.GST,
			Final:       t.Final,
		})
	}
	sort.Slice(rep.BySlab, func(i, j int) bool {
		ri := rep.BySlab[i].CGSTPercent + rep.BySlab[i].SGSTPercent
		rj := rep.BySlab[j].CGSTPercent + rep.BySlab[j].SGSTPercent
		if ri != rj {
			return ri < rj
		}
		return rep.BySlab[i].CGSTPercent < rep.BySlab[j].CGSTPercent
	})
	return rep
}
