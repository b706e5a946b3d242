package sheets

import "context"

// Row is one exported settlement line: a single order line item settled in
// a given period.
type Row struct {
	Period      string
	Date        string
	ClientName  string
	OrderNumber string
	WorkType    string
	Hours       float64
	Rate        float64
	Value       float64
}

// Ports for outbound adapters.
type (
	// SettlementWriter appends settlement rows to an external sheet.
	SettlementWriter interface {
		AppendRows(ctx context.Context, rows []Row) error
	}
)
