package renderer

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/etnz/rebalance"
	md "github.com/nao1215/markdown"
)

// PlanMarkdown renders a rebalancing plan: for each account, the current,
// target and purchase amount of every symbol.
func PlanMarkdown(p *Plan) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("Rebalancing Plan on %s", p.Date))

	for _, a := range p.Accounts {
		doc.H2(a.Title)
		doc.PlainText(fmt.Sprintf("Split %s, adding %s to %s of holdings.", a.Split, a.Cash, a.Current))
		doc.LF()
		for _, o := range a.Outside {
			doc.PlainText(fmt.Sprintf("Counting %s held in %s as %s.", o.Value, o.Name, strings.Join(o.Symbols, ", ")))
			doc.LF()
		}

		table := md.TableSet{
			Alignment: []md.TableAlignment{
				md.AlignLeft,
				md.AlignRight,
				md.AlignRight,
				md.AlignRight,
				md.AlignRight,
			},
			Header: []string{"Symbol", "Current", "Target", "Purchase", "Shares"},
		}
		for _, l := range a.Lines {
			table.Rows = append(table.Rows, []string{
				l.Symbol,
				l.Current.String(),
				l.Target.String(),
				purchase(l.Purchase),
				shares(l),
			})
		}
		table.Rows = append(table.Rows, []string{
			md.Bold("Total"),
			md.Bold(a.Current.String()),
			md.Bold(a.Total.String()),
			md.Bold(a.Invested.String()),
			"",
		})
		doc.Table(table)

		doc.Table(md.TableSet{
			Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
			Header:    []string{"Stock : Bond", "Ratio"},
			Rows: [][]string{
				{"Current", a.CurrentRatio.String()},
				{"After purchase", a.AfterRatio.String()},
				{"Target", a.TargetRatio.String()},
			},
		})
		if !a.Leftover.IsZero() {
			doc.PlainText(fmt.Sprintf("Left unplaced: %s.", a.Leftover))
			doc.LF()
		}
	}

	if len(p.RetirementTarget) > 0 {
		doc.H2("Combined Retirement Target")
		doc.PlainText("Targets of the Roth and Traditional accounts before risk placement.")
		doc.LF()
		table := md.TableSet{
			Alignment: []md.TableAlignment{md.AlignLeft, md.AlignLeft, md.AlignRight},
			Header:    []string{"Symbol", "Class", "Target"},
		}
		for _, l := range p.RetirementTarget {
			table.Rows = append(table.Rows, []string{l.Symbol, l.Class, l.Target.String()})
		}
		doc.Table(table)
	}

	if len(p.Warnings) > 0 {
		doc.H2("Warnings")
		doc.BulletList(p.Warnings...)
	}

	return doc.String()
}

func purchase(m rebalance.Money) string {
	if m.IsZero() {
		return "-"
	}
	return m.String()
}

func shares(l PlanLine) string {
	switch {
	case l.Purchase.IsZero():
		return ""
	case l.Shares == nil:
		return "n/a"
	default:
		return l.Shares.String()
	}
}
