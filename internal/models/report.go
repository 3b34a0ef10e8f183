package models

// Report is the monthly summary report tree returned by the ledger's
// report endpoint. Rows nest recursively; section rows carry their
// label and totals in a Summary row.
type Report struct {
	Header  ReportHeader  `json:"Header"`
	Columns ReportColumns `json:"Columns"`
	Rows    ReportRows    `json:"Rows"`
}

// ReportHeader describes the report and its period.
type ReportHeader struct {
	ReportName  string `json:"ReportName,omitempty"`
	StartPeriod string `json:"StartPeriod,omitempty"`
	EndPeriod   string `json:"EndPeriod,omitempty"`
	Currency    string `json:"Currency,omitempty"`
}

// ReportColumns holds the column definitions. The first column is the
// row label column; the remaining ones are reporting periods.
type ReportColumns struct {
	Column []ReportColumn `json:"Column"`
}

// ReportColumn is one column definition.
type ReportColumn struct {
	ColTitle string `json:"ColTitle"`
	ColType  string `json:"ColType,omitempty"`
}

// ReportRows wraps a list of rows; present at the top level and inside
// any section row.
type ReportRows struct {
	Row []ReportRow `json:"Row"`
}

// ReportRow is one row of the tree. Leaf rows carry ColData directly;
// section rows carry a Header, nested Rows and a Summary whose first
// cell is the section label ("Total Income", "Total Expenses", ...).
type ReportRow struct {
	Header  *ReportRowData `json:"Header,omitempty"`
	Summary *ReportRowData `json:"Summary,omitempty"`
	Rows    *ReportRows    `json:"Rows,omitempty"`
	ColData []ReportCell   `json:"ColData,omitempty"`
	Type    string         `json:"type,omitempty"`
	Group   string         `json:"group,omitempty"`
}

// ReportRowData is the cell list of a header or summary row.
type ReportRowData struct {
	ColData []ReportCell `json:"ColData"`
}

// ReportCell is a single report cell.
type ReportCell struct {
	Value string `json:"value"`
	ID    string `json:"id,omitempty"`
}

// Label returns the row's label: the first summary cell when present,
// otherwise the first data cell.
func (r ReportRow) Label() string {
	if r.Summary != nil && len(r.Summary.ColData) > 0 {
		return r.Summary.ColData[0].Value
	}
	if len(r.ColData) > 0 {
		return r.ColData[0].Value
	}
	return ""
}

// Cells returns the row's value cells: summary cells for section rows,
// direct cells for leaf rows.
func (r ReportRow) Cells() []ReportCell {
	if r.Summary != nil {
		return r.Summary.ColData
	}
	return r.ColData
}
