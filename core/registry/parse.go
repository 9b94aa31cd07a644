package registry

import (
	"bytes"
	"errors"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	headerMemberID  = "メンバーID"
	headerName      = "氏名"
	headerBirthDate = "生年月日"
	headerNumber    = "背番号"
	headerRole      = "役職"
)

// errUnreadableRows is returned when the member table has rows but none of them
// carries a numeric member id and a name.
var errUnreadableRows = errors.New("member table rows do not match the expected layout")

type memberRow struct {
	MemberID  string
	Name      string
	BirthDate string
	Number    string
	Role      string
	Raw       map[string]string
}

// findInputValue returns the value of the first <input name=name>.
func findInputValue(body []byte, name string) (string, bool) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return "", false
	}
	var (
		value string
		found bool
	)
	walk(doc, func(n *html.Node) bool {
		if found {
			return false
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Input && attr(n, "name") == name {
			value, found = attr(n, "value"), true
			return false
		}
		return true
	})
	return value, found
}

// parseMemberTable locates the member table by its header row and returns its member rows.
// ok is false when no such table exists. A table whose data rows are all unreadable
// yields errUnreadableRows; an empty table is a team without members.
func parseMemberTable(body []byte) (rows []memberRow, ok bool, err error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, false, err
	}

	var tables []*html.Node
	walk(doc, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.Table {
			tables = append(tables, n)
		}
		return true
	})

	for _, table := range tables {
		trs := tableRows(table)
		if len(trs) == 0 {
			continue
		}
		headers := rowCells(trs[0])
		cols, found := memberColumns(headers)
		if !found {
			continue
		}
		dataRows := 0
		for _, tr := range trs[1:] {
			cells := rowCells(tr)
			if isBlankRow(cells) {
				continue
			}
			dataRows++
			if row, ok := toMemberRow(headers, cells, cols); ok {
				rows = append(rows, row)
			}
		}
		if dataRows > 0 && len(rows) == 0 {
			return nil, true, errUnreadableRows
		}
		return rows, true, nil
	}
	return nil, false, nil
}

type columns struct {
	memberID, name, birthDate, number, role int
}

func memberColumns(headers []string) (columns, bool) {
	cols := columns{memberID: -1, name: -1, birthDate: -1, number: -1, role: -1}
	for i, h := range headers {
		switch {
		case cols.memberID < 0 && strings.Contains(h, headerMemberID):
			cols.memberID = i
		case cols.name < 0 && strings.Contains(h, headerName):
			cols.name = i
		case cols.birthDate < 0 && strings.Contains(h, headerBirthDate):
			cols.birthDate = i
		case cols.number < 0 && strings.Contains(h, headerNumber):
			cols.number = i
		case cols.role < 0 && strings.Contains(h, headerRole):
			cols.role = i
		}
	}
	return cols, cols.memberID >= 0 && cols.name >= 0 && cols.birthDate >= 0
}

func toMemberRow(headers, cells []string, cols columns) (memberRow, bool) {
	get := func(i int) string {
		if i < 0 || i >= len(cells) {
			return ""
		}
		return cells[i]
	}

	row := memberRow{
		MemberID:  get(cols.memberID),
		Name:      get(cols.name),
		BirthDate: get(cols.birthDate),
		Number:    get(cols.number),
		Role:      get(cols.role),
	}
	if !isDigits(row.MemberID) || row.Name == "" || row.Name == headerName {
		return memberRow{}, false
	}

	row.Raw = make(map[string]string, len(headers))
	for i, h := range headers {
		if h != "" {
			row.Raw[h] = get(i)
		}
	}
	return row, true
}

// tableRows returns the rows of table without descending into nested tables.
func tableRows(table *html.Node) []*html.Node {
	var rows []*html.Node
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.DataAtom {
			case atom.Tr:
				rows = append(rows, c)
			case atom.Table:
			default:
				visit(c)
			}
		}
	}
	visit(table)
	return rows
}

func rowCells(tr *html.Node) []string {
	var cells []string
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.DataAtom == atom.Td || c.DataAtom == atom.Th) {
			cells = append(cells, text(c))
		}
	}
	return cells
}

func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}

func text(n *html.Node) string {
	var b strings.Builder
	walk(n, func(n *html.Node) bool {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		return true
	})
	return strings.Join(strings.Fields(b.String()), " ")
}

func walk(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
