package http

import (
	"net/http"
	"strings"

	"finlogs/internal/core"
)

type partyJSON struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	CreditAllowed bool   `json:"credit_allowed"`
}

type createPartyRequest struct {
	Name          string `json:"name"`
	Type          string `json:"type"`
	CreditAllowed bool   `json:"credit_allowed"`
}

func (s *Server) handleParties(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		parties, err := s.txns.Parties(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		out := make([]partyJSON, 0, len(parties))
		for _, p := range parties {
			out = append(out, partyJSON{ID: p.ID, Name: p.Name, Type: string(p.Type), CreditAllowed: p.CreditAllowed})
		}
		writeJSON(w, http.StatusOK, map[string]any{"parties": out})
	case http.MethodPost:
		var req createPartyRequest
		if err := readJSON(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		id, err := s.txns.RegisterParty(r.Context(), core.Party{
			Name:          strings.TrimSpace(req.Name),
			Type:          core.PartyType(strings.TrimSpace(req.Type)),
			CreditAllowed: req.CreditAllowed,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"id": id})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type renamePartyRequest struct {
	OldName string `json:"old_name"`
	NewName string `json:"new_name"`
}

func (s *Server) handleRenameParty(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req renamePartyRequest
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := s.txns.RenameParty(r.Context(), req.OldName, req.NewName, requestUser(r)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "renamed"})
}

type ledgerEntryJSON struct {
	transactionJSON
	Side    string `json:"side"`
	Balance string `json:"balance"`
}

func (s *Server) handlePartyLedger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	party := strings.TrimPrefix(r.URL.Path, "/ledger/")
	if party == "" {
		http.Error(w, "missing party name", http.StatusBadRequest)
		return
	}

	entries, err := s.reports.PartyLedger(r.Context(), party)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]ledgerEntryJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, ledgerEntryJSON{
			transactionJSON: toTransactionJSON(e.Transaction),
			Side:            string(e.Side),
			Balance:         e.BalanceLabel(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"party":   party,
		"entries": out,
	})
}
