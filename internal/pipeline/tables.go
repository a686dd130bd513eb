package pipeline

import (
	"errors"
	"io"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/xuri/excelize/v2"
)

// Table inputs that are not delimited text still produce a header row plus
// data rows, so they feed the same column mapper as CSV. Rows are padded to
// the header width because both readers drop trailing empty cells.

// ReadXLSXTable returns the header and data rows of the first sheet that has
// any content.
func ReadXLSXTable(path string) ([]string, [][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil || len(rows) == 0 {
			continue
		}
		headers := rows[0]
		return headers, padRows(rows[1:], len(headers)), nil
	}

	return nil, nil, errors.New("workbook has no data rows")
}

// ReadHTMLTableFile parses the first <table> carrying a header row and at
// least one data row out of a saved HTML price list.
func ReadHTMLTableFile(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return ReadHTMLTable(f)
}

func ReadHTMLTable(r io.Reader) ([]string, [][]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, nil, err
	}

	var headers []string
	var rows [][]string
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		trs := table.Find("tr")
		if trs.Length() < 2 {
			return true
		}

		headers = headers[:0]
		trs.First().Find("th,td").Each(func(_ int, cell *goquery.Selection) {
			headers = append(headers, strings.TrimSpace(cell.Text()))
		})
		if len(headers) == 0 {
			return true
		}

		rows = rows[:0]
		trs.Slice(1, trs.Length()).Each(func(_ int, tr *goquery.Selection) {
			cells := []string{}
			tr.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, strings.TrimSpace(cell.Text()))
			})
			if len(cells) > 0 {
				rows = append(rows, cells)
			}
		})
		return len(rows) == 0
	})

	if len(headers) == 0 || len(rows) == 0 {
		return nil, nil, errors.New("no table with header and data rows")
	}
	return headers, padRows(rows, len(headers)), nil
}

func padRows(rows [][]string, width int) [][]string {
	for i, row := range rows {
		for len(row) < width {
			row = append(row, "")
		}
		rows[i] = row
	}
	return rows
}
