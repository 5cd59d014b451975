package utils

import (
	"fmt"
	"math"
	"sort"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"
	"github.com/elC0mpa/egress-doctor/model"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const (
	ColorRank1 = "#d73027"
	ColorRank2 = "#f46d43"
	ColorRank3 = "#fee08b"
	ColorRank4 = "#abdda4"
	ColorRank5 = "#66c2a5"
	ColorRank6 = "#1a9850"
)

var defaultStyle = lipgloss.NewStyle().
	BorderStyle(lipgloss.NormalBorder()).
	BorderForeground(lipgloss.Color("#F4D060"))

// DrawCycleReport renders the outcome of one detection cycle.
func DrawCycleReport(report *model.CycleReport) {
	fmt.Printf("\n%s\n", text.FgHiWhite.Sprint(" 🩺  EGRESS DOCTOR CYCLE REPORT"))
	fmt.Printf(" Account ID: %s\n", text.FgBlue.Sprint(report.AccountID))
	fmt.Printf(" Cycle ID:   %s\n", text.FgBlue.Sprint(report.CycleID))
	fmt.Println(text.FgHiBlue.Sprint(" ------------------------------------------------"))

	switch {
	case report.Failed:
		fmt.Printf(" %s at stage %s: %s\n",
			text.FgHiRed.Sprint("CYCLE FAILED"), report.FailureStage, report.FailureCause)
		return
	case report.NoNewData:
		fmt.Printf(" %s\n", text.FgHiGreen.Sprint("No new data for inference."))
		return
	case report.AnomalyCount == 0:
		fmt.Printf(" Scored %d rows. %s\n",
			report.RowsScored, text.FgHiGreen.Sprint("No anomalies detected."))
		return
	}

	fmt.Printf(" Scored %d rows, flagged %s.\n\n",
		report.RowsScored, text.FgHiRed.Sprintf("%d anomalies", report.AnomalyCount))

	drawAnomalyTable(report.Alerts)
	if len(report.Outcomes) > 0 {
		drawOutcomeTable(report.Outcomes)
	}
	for _, resourceID := range report.DegradedAnomalies {
		fmt.Printf(" %s %s\n", text.FgHiRed.Sprint("Degraded alert (no narrative):"), resourceID)
	}
}

func drawAnomalyTable(alerts []model.EnrichedAlert) {
	if len(alerts) == 0 {
		return
	}

	tw := table.Table{}
	tw.AppendHeader(table.Row{"Date", "Service", "Usage Type", "Resource", "Egress Cost", "Score"})

	sorted := append([]model.EnrichedAlert{}, alerts...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Anomaly.AnomalyScore < sorted[j].Anomaly.AnomalyScore
	})

	for _, alert := range sorted {
		obs := alert.Anomaly.Observation
		tw.AppendRow(table.Row{
			obs.Date.Format("2006-01-02"),
			text.FgGreen.Sprint(obs.ServiceCode),
			obs.UsageType,
			obs.ResourceID,
			text.FgHiRed.Sprintf("%.2f USD", obs.CostUSD),
			text.FgHiYellow.Sprintf("%.4f", alert.Anomaly.AnomalyScore),
		})
	}

	tw.SetStyle(table.StyleRounded)
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})
	fmt.Println(tw.Render())
}

func drawOutcomeTable(outcomes []model.TaskOutcome) {
	tw := table.Table{}
	tw.AppendHeader(table.Row{"Action", "Resource", "Status", "Message"})

	for _, o := range outcomes {
		status := text.FgHiGreen.Sprint(o.Outcome.Status)
		if o.Outcome.Status == model.StatusFailed {
			status = text.FgHiRed.Sprint(o.Outcome.Status)
		}
		tw.AppendRow(table.Row{
			string(o.Task.Action),
			o.Task.ResourceID,
			status,
			o.Outcome.Message,
		})
	}

	tw.SetStyle(table.StyleRounded)
	fmt.Println(tw.Render())
}

// DrawScoreChart renders anomaly scores as a bar chart. Scores are negative
// with lower meaning more anomalous, so bars show the magnitude below zero
// and the worst offenders get the hottest colors.
func DrawScoreChart(alerts []model.EnrichedAlert) {
	if len(alerts) == 0 {
		return
	}

	bc := barchart.New(130, 20)
	indexedColors := assignRankedColors(alerts)

	for idx, alert := range alerts {
		data := barchart.BarData{
			Label: fmt.Sprintf("%s: %.4f", alert.Anomaly.Observation.ServiceCode, alert.Anomaly.AnomalyScore),
			Values: []barchart.BarValue{
				{
					Value: math.Abs(alert.Anomaly.AnomalyScore),
					Style: lipgloss.NewStyle().Foreground(lipgloss.Color(indexedColors[idx])),
				},
			},
		}
		bc.Push(data)
	}

	bc.Draw()
	s := lipgloss.JoinHorizontal(lipgloss.Top,
		defaultStyle.Render(bc.View()),
	)

	fmt.Println(s)
}

func assignRankedColors(alerts []model.EnrichedAlert) []string {
	palette := []string{ColorRank1, ColorRank2, ColorRank3, ColorRank4, ColorRank5, ColorRank6}

	type scoreWithIndex struct {
		index int
		value float64
	}

	toSort := make([]scoreWithIndex, len(alerts))
	for i, alert := range alerts {
		toSort[i] = scoreWithIndex{
			index: i,
			value: alert.Anomaly.AnomalyScore,
		}
	}

	// Ascending: the most anomalous score ranks first.
	sort.Slice(toSort, func(i, j int) bool {
		return toSort[i].value < toSort[j].value
	})

	resultColors := make([]string, len(alerts))
	for rank, sorted := range toSort {
		originalIndex := sorted.index
		if rank < len(palette) {
			resultColors[originalIndex] = palette[rank]
		} else {
			resultColors[originalIndex] = ColorRank6
		}
	}

	return resultColors
}
