package export

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/AngelCh415/agency-ops/internal/models"
)

// Table is a flat, single-sheet view of a report. Cells hold string, int or
// float64 values.
type Table struct {
	Sheet  string
	Header []string
	Rows   [][]any
}

// Tabulate flattens the report types that have a natural row shape.
func Tabulate(report any) (Table, bool) {
	switch r := report.(type) {
	case models.RevenueReport:
		t := Table{Sheet: "Revenue", Header: []string{"Client ID", "Client", "Engagements", "MRR"}}
		for _, c := range r.Clients {
			t.Rows = append(t.Rows, []any{c.ClientID, c.ClientName, c.Engagements, c.MRR})
		}
		return t, true
	case models.EarningsReport:
		t := Table{Sheet: "Earnings", Header: []string{"Colleague ID", "Name", "Assignments", "Fixed monthly", "Hourly", "Percentage", "Total"}}
		for _, c := range r.Colleagues {
			t.Rows = append(t.Rows, []any{c.ColleagueID, c.Name, c.Assignments, c.FixedMonthly, c.Hourly, c.Percentage, c.Total})
		}
		return t, true
	case models.CapacityReport:
		t := Table{Sheet: "Capacity", Header: []string{"Colleague ID", "Name", "Channel", "Capacity", "Current", "After endings", "After new", "Ratio"}}
		for _, p := range r.Colleagues {
			for _, ch := range p.Channels {
				t.Rows = append(t.Rows, []any{p.ColleagueID, p.Name, ch.Channel, ch.Capacity, ch.Current, ch.AfterEndings, ch.AfterNew, ch.Ratio})
			}
		}
		return t, true
	case models.FunnelReport:
		t := Table{Sheet: "Funnel", Header: []string{"From", "To", "Transitions", "Denominator", "Rate"}}
		for _, c := range r.Conversions {
			t.Rows = append(t.Rows, []any{string(c.From), string(c.To), c.Transitions, c.Denominator, c.Rate})
		}
		return t, true
	case []models.SourceSummary:
		t := Table{Sheet: "Sources", Header: []string{"Source", "Leads", "Qualified", "Won", "Won value", "Qualification rate", "Win rate"}}
		for _, s := range r {
			t.Rows = append(t.Rows, []any{s.Source, s.Leads, s.Qualified, s.Won, s.WonValue, s.QualificationRate, s.WinRate})
		}
		return t, true
	}
	return Table{}, false
}

func writeXLSX(w io.Writer, t Table) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(t.Sheet)
	if err != nil {
		return eris.Wrap(err, "export: xlsx add sheet")
	}
	header := sheet.AddRow()
	for _, h := range t.Header {
		header.AddCell().SetString(h)
	}
	for _, vals := range t.Rows {
		row := sheet.AddRow()
		for _, v := range vals {
			cell := row.AddCell()
			switch v := v.(type) {
			case int:
				cell.SetInt(v)
			case float64:
				cell.SetFloat(v)
			case string:
				cell.SetString(v)
			default:
				return eris.Errorf("export: unsupported cell type %T", v)
			}
		}
	}
	return eris.Wrap(f.Write(w), "export: xlsx write")
}
