// Package http exposes the bookkeeping API. Handlers stay thin:
// decode, call the service, map errors.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"log/slog"

	"finlogs/internal/core"
	"finlogs/internal/services"
	"finlogs/internal/storage"
)

// TransactionAPI is the write surface the server exposes.
type TransactionAPI interface {
	Create(ctx context.Context, txn core.Transaction, user string) (int64, error)
	EditField(ctx context.Context, id int64, field, rawValue, user string) error
	Delete(ctx context.Context, id int64, user string) error
	SaveCashInHand(ctx context.Context, date core.Date, cents int64, user string) error
	SetOpeningCash(ctx context.Context, cents int64, user string) error
	RegisterParty(ctx context.Context, p core.Party) (int64, error)
	RenameParty(ctx context.Context, oldName, newName, user string) error
	Parties(ctx context.Context) ([]core.Party, error)
	AuditTrail(ctx context.Context, limit int) ([]storage.AuditEntry, error)
}

// ReportAPI is the read surface the server exposes.
type ReportAPI interface {
	DailySummary(ctx context.Context, from, to core.Date) ([]core.DailyCashRecord, error)
	ShortExcess(ctx context.Context, from, to core.Date) ([]services.ShortExcessRow, error)
	MonthlyShortExcess(ctx context.Context, from, to core.Date) ([]core.MonthShortExcess, error)
	PartyLedger(ctx context.Context, partyName string) ([]core.LedgerEntry, error)
	ModeStatement(ctx context.Context, mode string) ([]services.ModeStatementRow, error)
	TypeReport(ctx context.Context, txnType string, from, to core.Date) ([]core.Transaction, int64, error)
	TrialBalance(ctx context.Context) (services.TrialBalance, error)
	ProfitAndLoss(ctx context.Context, from, to core.Date) (services.ProfitAndLoss, error)
	Outstanding(ctx context.Context) ([]storage.Outstanding, error)
	Dashboard(ctx context.Context, from, to core.Date) (storage.DashboardTotals, error)
}

// PageFetcher serves the paged transaction list with single-flight
// semantics.
type PageFetcher interface {
	FetchPage(ctx context.Context, page int) (core.TransactionPage, error)
	FetchByDate(ctx context.Context, date core.Date) ([]core.Transaction, error)
	Current() core.TransactionPage
}

type Server struct {
	http.Server
	txns    TransactionAPI
	reports ReportAPI
	pages   PageFetcher

	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(addr string, txns TransactionAPI, reports ReportAPI, pages PageFetcher) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		txns:        txns,
		reports:     reports,
		pages:       pages,
		rateLimiter: newRateLimiter(),
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("/transactions", s.withRequestLog(s.handleTransactions))
	mux.HandleFunc("/transactions/by-date", s.withRequestLog(s.handleTransactionsByDate))
	mux.HandleFunc("/transactions/", s.withRequestLog(s.handleTransactionByID))

	mux.HandleFunc("/parties", s.withRequestLog(s.handleParties))
	mux.HandleFunc("/parties/rename", s.withRequestLog(s.handleRenameParty))
	mux.HandleFunc("/ledger/", s.withRequestLog(s.handlePartyLedger))

	mux.HandleFunc("/cash-in-hand", s.withRequestLog(s.handleCashInHand))
	mux.HandleFunc("/opening-cash", s.withRequestLog(s.handleOpeningCash))

	mux.HandleFunc("/reports/daily-summary", s.withRequestLog(s.handleDailySummary))
	mux.HandleFunc("/reports/short-excess", s.withRequestLog(s.handleShortExcess))
	mux.HandleFunc("/reports/monthly-short-excess", s.withRequestLog(s.handleMonthlyShortExcess))
	mux.HandleFunc("/reports/trial-balance", s.withRequestLog(s.handleTrialBalance))
	mux.HandleFunc("/reports/profit-loss", s.withRequestLog(s.handleProfitAndLoss))
	mux.HandleFunc("/reports/outstanding", s.withRequestLog(s.handleOutstanding))
	mux.HandleFunc("/reports/dashboard", s.withRequestLog(s.handleDashboard))
	mux.HandleFunc("/reports/mode/", s.withRequestLog(s.handleModeStatement))
	mux.HandleFunc("/reports/type/", s.withRequestLog(s.handleTypeReport))

	mux.HandleFunc("/audit", s.withRequestLog(s.handleAuditTrail))

	return s
}

// withRequestLog adds request logging, tracing IDs and rate limiting on
// writes.
func (s *Server) withRequestLog(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds())
	}
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Shutdown stops the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
