package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

const (
	ChartSheet = "Expense Summary"
	ChartTitle = "Expense Distribution"
)

type ChartRenderer interface {
	RenderExpenseChart(summary map[string]decimal.Decimal, w io.Writer) error
}

type XlsxChartRendererImpl struct {
}

func NewXlsxChartRenderer() *XlsxChartRendererImpl {
	return &XlsxChartRendererImpl{}
}

// RenderExpenseChart writes a workbook holding the per-category totals and a pie chart
// of them. The chart is omitted when there is nothing to plot.
func (r *XlsxChartRendererImpl) RenderExpenseChart(summary map[string]decimal.Decimal, w io.Writer) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.Warnf("could not close chart workbook: %v", err)
		}
	}()

	if err := f.SetSheetName("Sheet1", ChartSheet); err != nil {
		return fmt.Errorf("could not prepare chart workbook: %w", err)
	}
	if err := f.SetSheetRow(ChartSheet, "A1", &[]any{"Category", "Amount"}); err != nil {
		return err
	}

	categories := make([]string, 0, len(summary))
	for category := range summary {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	for i, category := range categories {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(ChartSheet, cell, &[]any{category, summary[category].InexactFloat64()}); err != nil {
			return err
		}
	}

	if len(categories) > 0 {
		last := len(categories) + 1
		err := f.AddChart(ChartSheet, "E1", &excelize.Chart{
			Type: excelize.Pie,
			Series: []excelize.ChartSeries{{
				Name:       fmt.Sprintf("'%s'!$B$1", ChartSheet),
				Categories: fmt.Sprintf("'%s'!$A$2:$A$%d", ChartSheet, last),
				Values:     fmt.Sprintf("'%s'!$B$2:$B$%d", ChartSheet, last),
			}},
			Title: []excelize.RichTextRun{{Text: ChartTitle}},
		})
		if err != nil {
			return fmt.Errorf("could not add chart: %w", err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("could not write chart workbook: %w", err)
	}
	return nil
}
