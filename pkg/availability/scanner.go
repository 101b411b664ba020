package availability

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Row is one table row that has more than one cell
type Row struct {
	Table int      // zero-based table position on the page
	Index int      // zero-based row position within the table
	Cells []string // normalized cell texts
}

// Label returns the first cell, usually the office or city name
func (r Row) Label() string {
	return r.Cells[0]
}

// Text returns the second cell, which carries the availability message
func (r Row) Text() string {
	return r.Cells[1]
}

// Hit is a row classified as available
type Hit struct {
	Table   int       `json:"table"`
	Row     int       `json:"row"`
	Label   string    `json:"label"`
	Text    string    `json:"text"`
	FoundAt time.Time `json:"found_at"`
}

// Result summarizes one scan of a page
type Result struct {
	Hits        []Hit
	TablesSeen  int
	RowsScanned int
}

// Available reports whether the scan produced at least one hit
func (r Result) Available() bool {
	return len(r.Hits) > 0
}

// ExtractRows parses each table fragment and returns its rows with more than
// one <td>. Rows with zero or one cell are skipped without being read.
func ExtractRows(tables []string) ([]Row, error) {
	var rows []Row

	for ti, fragment := range tables {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
		if err != nil {
			return nil, fmt.Errorf("failed to parse table %d: %w", ti, err)
		}

		doc.Find("tr").Each(func(ri int, tr *goquery.Selection) {
			cells := tr.ChildrenFiltered("td")
			if cells.Length() <= 1 {
				return
			}

			row := Row{Table: ti, Index: ri, Cells: make([]string, 0, cells.Length())}
			cells.Each(func(_ int, td *goquery.Selection) {
				row.Cells = append(row.Cells, normalizeText(td.Text()))
			})
			rows = append(rows, row)
		})
	}

	return rows, nil
}

// Scan extracts rows from the table fragments and classifies each one.
// Hits keep scan order: table by table, row by row.
func Scan(tables []string, c Classifier, now time.Time) (Result, error) {
	rows, err := ExtractRows(tables)
	if err != nil {
		return Result{}, err
	}

	result := Result{TablesSeen: len(tables), RowsScanned: len(rows)}
	for _, row := range rows {
		if !c.IsAvailable(row.Text()) {
			continue
		}
		result.Hits = append(result.Hits, Hit{
			Table:   row.Table,
			Row:     row.Index,
			Label:   row.Label(),
			Text:    row.Text(),
			FoundAt: now,
		})
	}

	return result, nil
}

// normalizeText trims and collapses whitespace the way a browser renders cell text
func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
