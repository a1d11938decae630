package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"tidemark/internal/domain"
)

var _ Writer = (*ExcelWriter)(nil)

// ExcelWriter collects results into a workbook with a summary sheet and a
// per-trade sheet, saved on Close.
type ExcelWriter struct {
	path string
	file *excelize.File

	summaryRow int
	tradeRow   int
}

const (
	summarySheet = "Summary"
	tradesSheet  = "Trades"
)

var summaryHeader = []interface{}{
	"Symbol", "Name", "Strategy", "Start", "End",
	"Initial Cash", "Final Equity", "Return %", "Annualized %",
	"Max Drawdown %", "Sharpe", "Trades", "Win Rate %", "Profit Factor",
	"Buys", "Sells",
}

var tradesHeader = []interface{}{
	"Symbol", "Entry", "Exit", "Max Size", "Gross PnL", "Net PnL",
}

// NewExcelWriter creates a workbook writer targeting the given path. The
// file is written on Close.
func NewExcelWriter(path string) (*ExcelWriter, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("renaming summary sheet: %w", err)
	}
	if _, err := f.NewSheet(tradesSheet); err != nil {
		return nil, fmt.Errorf("creating trades sheet: %w", err)
	}
	if err := f.SetSheetRow(summarySheet, "A1", &summaryHeader); err != nil {
		return nil, fmt.Errorf("writing summary header: %w", err)
	}
	if err := f.SetSheetRow(tradesSheet, "A1", &tradesHeader); err != nil {
		return nil, fmt.Errorf("writing trades header: %w", err)
	}
	return &ExcelWriter{
		path:       path,
		file:       f,
		summaryRow: 2,
		tradeRow:   2,
	}, nil
}

// WriteResult appends the result to the summary sheet and its trades to the
// trades sheet. Percentages are scaled from fractions for readability.
func (w *ExcelWriter) WriteResult(res *domain.Result) error {
	row := []interface{}{
		res.Symbol,
		res.Name,
		res.Strategy,
		res.StartTime.Format("2006-01-02"),
		res.EndTime.Format("2006-01-02"),
		res.InitialCash,
		res.FinalEquity,
		res.ReturnPct * 100,
		res.AnnualizedPct * 100,
		res.MaxDrawdownPct * 100,
		res.SharpeRatio,
		res.TradeCount,
		res.WinRate * 100,
		res.ProfitFactor,
		res.BuyCount,
		res.SellCount,
	}
	cell := fmt.Sprintf("A%d", w.summaryRow)
	if err := w.file.SetSheetRow(summarySheet, cell, &row); err != nil {
		return fmt.Errorf("writing summary row: %w", err)
	}
	w.summaryRow++

	for _, t := range res.Trades {
		tr := []interface{}{
			t.Symbol,
			t.EntryTime.Format("2006-01-02"),
			t.ExitTime.Format("2006-01-02"),
			t.MaxSize,
			t.GrossPnL,
			t.NetPnL,
		}
		cell := fmt.Sprintf("A%d", w.tradeRow)
		if err := w.file.SetSheetRow(tradesSheet, cell, &tr); err != nil {
			return fmt.Errorf("writing trade row: %w", err)
		}
		w.tradeRow++
	}
	return nil
}

// Close saves the workbook to disk.
func (w *ExcelWriter) Close() error {
	if err := w.file.SaveAs(w.path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return w.file.Close()
}
