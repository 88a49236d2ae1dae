package warehouse

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Kelvi11/smart-warehouse/pkg/httputil"
	"github.com/Kelvi11/smart-warehouse/pkg/rest"
)

// Export formats accepted in the type parameter.
const (
	ExportCSV  = "csv"
	ExportXLSX = "xlsx"

	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ordersSheet     = "Orders"
)

var exportHeader = []string{"uuid", "submittedDate", "deadlineDate", "status"}

func exportRow(o *Order) []string {
	return []string{o.UUID, o.SubmittedDate.String(), o.DeadlineDate.String(), string(o.Status)}
}

// WriteOrdersCSV writes orders as CSV with a header line.
func WriteOrdersCSV(w io.Writer, orders []Order) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for i := range orders {
		if err := cw.Write(exportRow(&orders[i])); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteOrdersXLSX writes orders as a workbook with a single Orders sheet.
func WriteOrdersXLSX(w io.Writer, orders []Order) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), ordersSheet); err != nil {
		return err
	}
	setRow := func(row int, values []string) error {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		return f.SetSheetRow(ordersSheet, cell, &values)
	}

	if err := setRow(1, exportHeader); err != nil {
		return err
	}
	for i := range orders {
		if err := setRow(i+2, exportRow(&orders[i])); err != nil {
			return err
		}
	}
	return f.Write(w)
}

// ExportOrders serves every order matching the list filters as a CSV
// (default) or XLSX download.
func ExportOrders(h *rest.Handler[Order]) http.Handler {
	return h.Serve("export", func(w http.ResponseWriter, r *http.Request) (int, error) {
		p := rest.NewParams(r.URL.Query())
		typ := ExportCSV
		if v, ok := p.Get("type"); ok && strings.TrimSpace(v) != "" {
			typ = strings.ToLower(strings.TrimSpace(v))
		}

		var write func(io.Writer, []Order) error
		var contentType string
		switch typ {
		case ExportCSV:
			write, contentType = WriteOrdersCSV, "text/csv"
		case ExportXLSX:
			write, contentType = WriteOrdersXLSX, contentTypeXLSX
		default:
			return 0, rest.InvalidParameter("%s type is not supported for the orders export.", typ)
		}

		orders, err := h.Engine().All(r.Context(), p)
		if err != nil {
			return 0, err
		}
		var buf bytes.Buffer
		if err := write(&buf, orders); err != nil {
			return 0, fmt.Errorf("export orders as %s: %w", typ, err)
		}

		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=orders.%s", typ))
		httputil.Blob(w, http.StatusOK, buf.Bytes(), contentType)
		return http.StatusOK, nil
	})
}
