package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"rozliczenia/internal/core"
	"rozliczenia/internal/export"
)

func dashboardCacheKey(p core.Period) string {
	return strconv.Itoa(p.Year) + "-" + strconv.Itoa(p.Month)
}

// getDashboard returns the aggregated view for a period, computing it from
// the current snapshot on cache miss.
func (s *Server) getDashboard(p core.Period) core.DashboardSummary {
	key := dashboardCacheKey(p)
	if data, found := s.dashboardCache.Get(key); found {
		return data
	}

	summary := core.BuildDashboard(s.store.Snapshot(), p)
	s.dashboardCache.Set(key, summary)
	return summary
}

// handleDashboard renders the dashboard partial: total hours, settled
// periods, hour distribution by work type and per-order progress.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	p := parsePeriod(r)
	summary := s.getDashboard(p)

	type distRow struct {
		Name  string
		Hours string
		Width int
	}
	type progressRow struct {
		Type      string
		Limit     string
		Used      string
		UsedTotal string
		Remaining string
		Progress  int
		Over      bool
	}
	type orderRow struct {
		OrderNumber string
		ClientName  string
		Items       []progressRow
	}

	data := struct {
		Year         int
		Month        int
		WholeYear    bool
		TotalHours   string
		SettledCount int
		Distribution []distRow
		Orders       []orderRow
	}{
		Year:         p.Year,
		Month:        p.Month,
		WholeYear:    p.WholeYear(),
		TotalHours:   formatHours(summary.TotalHours),
		SettledCount: summary.SettledCount,
	}

	var maxHours float64
	for _, d := range summary.Distribution {
		if d.Hours > maxHours {
			maxHours = d.Hours
		}
	}
	for _, d := range summary.Distribution {
		width := 0
		if maxHours > 0 && d.Hours > 0 {
			width = int(d.Hours*100/maxHours + 0.5)
			if width > 0 && width < 2 {
				width = 2
			}
			if width > 100 {
				width = 100
			}
		}
		data.Distribution = append(data.Distribution, distRow{
			Name:  string(d.Type),
			Hours: formatHours(d.Hours),
			Width: width,
		})
	}

	for _, op := range summary.Progress {
		row := orderRow{OrderNumber: op.OrderNumber, ClientName: op.ClientName}
		for _, item := range op.Items {
			row.Items = append(row.Items, progressRow{
				Type:      string(item.ItemType),
				Limit:     formatHours(item.LimitHours),
				Used:      formatHours(item.UsedInPeriod),
				UsedTotal: formatHours(item.UsedTotal),
				Remaining: formatHours(item.Remaining),
				Progress:  int(item.Progress + 0.5),
				Over:      item.Remaining < 0,
			})
		}
		data.Orders = append(data.Orders, row)
	}

	if s.templates == nil {
		_, _ = w.Write([]byte(`<section id="dashboard"><div class="placeholder">Godziny razem: ` + data.TotalHours + `</div></section>`))
		return
	}
	if err := s.templates.ExecuteTemplate(w, "dashboard.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "dashboard.html")
		_, _ = w.Write([]byte(`<section id="dashboard"><div class="placeholder">Błąd renderowania panelu</div></section>`))
	}
}

// handleXLSXReport streams the settlement report for a period as XLSX.
func (s *Server) handleXLSXReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	p := parsePeriod(r)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(p)+`"`)

	if err := export.WriteXLSX(w, s.store.Snapshot(), p); err != nil {
		slog.ErrorContext(r.Context(), "XLSX report error", "error", err, "year", p.Year, "month", p.Month)
	}
}
