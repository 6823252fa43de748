// Package features computes the derived columns appended to a
// project's completed ledger series: lagged net cash flow, rolling
// window aggregates and, for the accrual profile, the financial ratios
// (DSU, DPO, OCF ratio, working-capital cycle).
//
// Windows are row windows over the sparse emitted series, expanding
// from one row up to the window size, matching a rolling aggregate
// with a minimum period of one.
package features

import (
	"cashflow-lab/internal/domain"
)

// Window sizes and ratio clip ranges.
const (
	netWindow     = 7
	rollingWindow = 30

	dsuMax   = 120 // days
	dpoMax   = 120 // days
	cycleMax = 200 // days

	// denomEpsilon replaces a zero daily-average denominator.
	denomEpsilon = 1e-6

	// zeroLiabilitiesRatio is the OCF ratio substituted when the
	// rolling current-liabilities mean is zero.
	zeroLiabilitiesRatio = 1.0
)

// Derive computes feature rows for one project's emitted records, which
// must be ordered by ascending date. The result is parallel to records.
func Derive(basis domain.Basis, records []*domain.DailyRecord) []*domain.FeatureRow {
	if len(records) == 0 {
		return nil
	}

	rows := make([]*domain.FeatureRow, len(records))

	netWin := newWindow(netWindow)
	outflowWin := newWindow(rollingWindow)

	// Accrual-only windows.
	revenueWin := newWindow(rollingWindow)
	cogsWin := newWindow(rollingWindow)
	arWin := newWindow(rollingWindow)
	apWin := newWindow(rollingWindow)
	clWin := newWindow(rollingWindow)

	for i, r := range records {
		netWin.push(r.NetCashFlow)
		outflowWin.push(r.ActualOutflow)

		row := &domain.FeatureRow{
			ProjectID:        r.ProjectID,
			Date:             r.Date,
			RollingNet7:      netWin.mean(),
			RollingOutflow30: outflowWin.mean(),
		}
		if i > 0 {
			lag := records[i-1].NetCashFlow
			row.NetCashFlowLag1 = &lag
		}

		if basis == domain.BasisAccrual {
			revenueWin.push(r.RevenueRecognized)
			cogsWin.push(r.COGSExpense)
			arWin.push(r.AccountsReceivable)
			apWin.push(r.AccountsPayable)
			clWin.push(r.CurrentLiabilities)

			row.DSU = clip(arWin.mean()/dailyAverage(revenueWin.sum), 0, dsuMax)
			row.DPO = clip(apWin.mean()/dailyAverage(cogsWin.sum), 0, dpoMax)

			if clMean := clWin.mean(); clMean == 0 {
				row.OCFRatio = zeroLiabilitiesRatio
			} else {
				row.OCFRatio = r.NetCashFlow / clMean
			}

			row.WorkingCapitalCycle = clip(row.DSU+row.DPO, 0, cycleMax)
		}

		rows[i] = row
	}

	return rows
}

// dailyAverage converts a rolling sum to a per-day average over the
// full window, substituting an epsilon for a zero denominator.
func dailyAverage(sum float64) float64 {
	avg := sum / rollingWindow
	if avg == 0 {
		return denomEpsilon
	}
	return avg
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// window is a fixed-size rolling row window with a running sum.
type window struct {
	size int
	vals []float64
	sum  float64
}

func newWindow(size int) *window {
	return &window{size: size}
}

func (w *window) push(v float64) {
	w.vals = append(w.vals, v)
	w.sum += v
	if len(w.vals) > w.size {
		w.sum -= w.vals[0]
		w.vals = w.vals[1:]
	}
}

func (w *window) mean() float64 {
	if len(w.vals) == 0 {
		return 0
	}
	return w.sum / float64(len(w.vals))
}
