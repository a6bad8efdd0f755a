package admin

import (
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
)

// emptyValue выводится вместо пустых полей.
const emptyValue = "-empty-"

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetHeader(header)
	return table
}

func orEmpty(s string) string {
	if s == "" {
		return emptyValue
	}
	return s
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return emptyValue
	}
	return t.Local().Format("2006-01-02 15:04")
}
