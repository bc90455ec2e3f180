package http

import (
	"net/http"
	"strings"

	"finlogs/internal/core"
)

type dailyRecordJSON struct {
	Date            string  `json:"date"`
	OpeningCash     string  `json:"opening_cash"`
	CashIn          string  `json:"cash_in"`
	CashExpense     string  `json:"cash_expense"`
	CashNeeded      string  `json:"cash_needed"`
	ClosingCash     string  `json:"closing_cash"`
	CashInHand      *string `json:"cash_in_hand"`
	CashShortExcess *string `json:"cash_short_excess"`
	BankIn          string  `json:"bank_in"`
	CreditSale      string  `json:"credit_sale"`
	TotalSales      string  `json:"total_sales"`
}

func toDailyRecordJSON(r core.DailyCashRecord) dailyRecordJSON {
	out := dailyRecordJSON{
		Date:        r.Date.String(),
		OpeningCash: core.FormatCents(r.OpeningCash),
		CashIn:      core.FormatCents(r.CashIn),
		CashExpense: core.FormatCents(r.CashExpense),
		CashNeeded:  core.FormatCents(r.CashNeeded),
		ClosingCash: core.FormatCents(r.ClosingCash),
		BankIn:      core.FormatCents(r.BankIn),
		CreditSale:  core.FormatCents(r.CreditSale),
		TotalSales:  core.FormatCents(r.TotalSales),
	}
	if r.CashInHand != nil {
		v := core.FormatCents(*r.CashInHand)
		out.CashInHand = &v
	}
	if r.CashShortExcess != nil {
		v := core.FormatCents(*r.CashShortExcess)
		out.CashShortExcess = &v
	}
	return out
}

func (s *Server) handleDailySummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	from, to, err := parseRangeParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	records, err := s.reports.DailySummary(r.Context(), from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]dailyRecordJSON, 0, len(records))
	for _, rec := range records {
		out = append(out, toDailyRecordJSON(rec))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"from": from.String(),
		"to":   to.String(),
		"days": out,
	})
}

func (s *Server) handleShortExcess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	from, to, err := parseRangeParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rows, err := s.reports.ShortExcess(r.Context(), from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	type rowJSON struct {
		Date        string `json:"date"`
		CashNeeded  string `json:"cash_needed"`
		CashInHand  string `json:"cash_in_hand"`
		ShortExcess string `json:"short_excess"`
	}
	out := make([]rowJSON, 0, len(rows))
	for _, row := range rows {
		out = append(out, rowJSON{
			Date:        row.Date,
			CashNeeded:  core.FormatCents(row.CashNeeded),
			CashInHand:  core.FormatCents(row.CashInHand),
			ShortExcess: core.FormatCents(row.ShortExcess),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": out})
}

func (s *Server) handleMonthlyShortExcess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	from, to, err := parseRangeParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	months, err := s.reports.MonthlyShortExcess(r.Context(), from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	type monthJSON struct {
		Month     string `json:"month"`
		Shortfall string `json:"shortfall"`
		Excess    string `json:"excess"`
		Net       string `json:"net"`
	}
	out := make([]monthJSON, 0, len(months))
	for _, m := range months {
		out = append(out, monthJSON{
			Month:     m.Month,
			Shortfall: core.FormatCents(m.Shortfall),
			Excess:    core.FormatCents(m.Excess),
			Net:       core.FormatCents(m.Net),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"months": out})
}

func (s *Server) handleTrialBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	tb, err := s.reports.TrialBalance(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	type rowJSON struct {
		Party  string `json:"party"`
		Type   string `json:"type"`
		Debit  string `json:"debit"`
		Credit string `json:"credit"`
	}
	rows := make([]rowJSON, 0, len(tb.Rows))
	for _, row := range tb.Rows {
		rows = append(rows, rowJSON{
			Party:  row.Party,
			Type:   row.PartyType,
			Debit:  core.FormatCents(row.Debit),
			Credit: core.FormatCents(row.Credit),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"rows":         rows,
		"total_debit":  core.FormatCents(tb.TotalDebit),
		"total_credit": core.FormatCents(tb.TotalCredit),
	})
}

func (s *Server) handleProfitAndLoss(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	from, to, err := parseRangeParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	pnl, err := s.reports.ProfitAndLoss(r.Context(), from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"from":         from.String(),
		"to":           to.String(),
		"sales":        core.FormatCents(pnl.Sales),
		"sale_returns": core.FormatCents(pnl.SaleReturns),
		"purchases":    core.FormatCents(pnl.Purchases),
		"expenses":     core.FormatCents(pnl.Expenses),
		"gross_profit": core.FormatCents(pnl.GrossProfit),
		"net_profit":   core.FormatCents(pnl.NetProfit),
	})
}

func (s *Server) handleOutstanding(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rows, err := s.reports.Outstanding(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	type rowJSON struct {
		Party   string `json:"party"`
		Balance string `json:"balance"`
	}
	out := make([]rowJSON, 0, len(rows))
	for _, row := range rows {
		out = append(out, rowJSON{Party: row.Party, Balance: core.FormatCents(row.Balance)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"outstanding": out})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	from, to, err := parseRangeParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	d, err := s.reports.Dashboard(r.Context(), from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"from":            from.String(),
		"to":              to.String(),
		"total_sales":     core.FormatCents(d.TotalSales),
		"total_receipts":  core.FormatCents(d.TotalReceipts),
		"total_expenses":  core.FormatCents(d.TotalExpenses),
		"total_purchases": core.FormatCents(d.TotalPurchases),
		"cash_in":         core.FormatCents(d.CashIn),
		"bank_in":         core.FormatCents(d.BankIn),
	})
}

func (s *Server) handleModeStatement(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	mode := strings.TrimPrefix(r.URL.Path, "/reports/mode/")
	if mode == "" {
		http.Error(w, "missing payment mode", http.StatusBadRequest)
		return
	}
	rows, err := s.reports.ModeStatement(r.Context(), mode)
	if err != nil {
		writeError(w, r, err)
		return
	}
	type rowJSON struct {
		transactionJSON
		Debit   string `json:"debit"`
		Credit  string `json:"credit"`
		Balance string `json:"balance"`
	}
	out := make([]rowJSON, 0, len(rows))
	for _, row := range rows {
		out = append(out, rowJSON{
			transactionJSON: toTransactionJSON(row.Transaction),
			Debit:           core.FormatCents(row.Debit),
			Credit:          core.FormatCents(row.Credit),
			Balance:         core.FormatCents(row.Balance),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"mode": mode,
		"rows": out,
	})
}

func (s *Server) handleTypeReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	txnType := strings.TrimPrefix(r.URL.Path, "/reports/type/")
	if txnType == "" {
		http.Error(w, "missing transaction type", http.StatusBadRequest)
		return
	}
	from, to, err := parseRangeParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	items, total, err := s.reports.TypeReport(r.Context(), txnType, from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"type":  txnType,
		"items": toTransactionList(items),
		"total": core.FormatCents(total),
	})
}
