package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/lodygens/cryptobot/internal/domain"
)

const maxHistoryCount = 100

// QuoteReader is the read side of the price store.
type QuoteReader interface {
	Latest(ctx context.Context, pair domain.Pair) (domain.Quote, error)
	ReadHistoryPage(ctx context.Context, pair domain.Pair, offset, count int) ([]string, error)
}

// ArchiveReader is the read side of the quote archive.
type ArchiveReader interface {
	Recent(ctx context.Context, pair domain.Pair, limit int) ([]domain.ArchivedQuote, error)
}

type Server struct {
	quotes  QuoteReader
	archive ArchiveReader
	pairs   map[domain.Pair]bool
	ping    func(ctx context.Context) error
}

func NewServer(quotes QuoteReader, pairs []domain.Pair) *Server {
	known := make(map[domain.Pair]bool, len(pairs))
	for _, p := range pairs {
		known[p] = true
	}
	return &Server{quotes: quotes, pairs: known}
}

// SetReadyCheck wires the /readyz probe.
func (s *Server) SetReadyCheck(fn func(ctx context.Context) error) { s.ping = fn }

// SetArchive enables /quotes/archive.
func (s *Server) SetArchive(a ArchiveReader) { s.archive = a }

type quoteDTO struct {
	Pair       string    `json:"pair"`
	Price      string    `json:"price"`
	ObservedAt time.Time `json:"observed_at"`
}

type historyDTO struct {
	Pair    string     `json:"pair"`
	Offset  int        `json:"offset"`
	Entries []quoteDTO `json:"entries"`
	Skipped int        `json:"skipped"`
}

type archivedDTO struct {
	Price      string    `json:"price"`
	Numeric    *string   `json:"numeric"`
	ObservedAt time.Time `json:"observed_at"`
}

type archiveDTO struct {
	Pair    string        `json:"pair"`
	Entries []archivedDTO `json:"entries"`
}

type errorDTO struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func toDTO(q domain.Quote) quoteDTO {
	return quoteDTO{Pair: string(q.Pair), Price: q.Price, ObservedAt: q.ObservedAt}
}

func (s *Server) pairParam(w http.ResponseWriter, r *http.Request) (domain.Pair, bool) {
	raw := r.URL.Query().Get("pair")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "pair is required")
		return "", false
	}
	p := domain.Pair(raw)
	if !s.pairs[p] {
		writeError(w, http.StatusNotFound, "pair is not configured")
		return "", false
	}
	return p, true
}

func (s *Server) GetLatest(w http.ResponseWriter, r *http.Request) {
	pair, ok := s.pairParam(w, r)
	if !ok {
		return
	}
	q, err := s.quotes.Latest(r.Context(), pair)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no quote yet")
			return
		}
		writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}
	writeJSON(w, http.StatusOK, toDTO(q))
}

func (s *Server) GetHistory(w http.ResponseWriter, r *http.Request) {
	pair, ok := s.pairParam(w, r)
	if !ok {
		return
	}
	offset, err := intParam(r, "offset", 0)
	if err != nil || offset < 0 {
		writeError(w, http.StatusBadRequest, "invalid offset")
		return
	}
	count, err := intParam(r, "count", 24)
	if err != nil || count <= 0 || count > maxHistoryCount {
		writeError(w, http.StatusBadRequest, "invalid count")
		return
	}
	page, err := s.quotes.ReadHistoryPage(r.Context(), pair, offset, count)
	if err != nil {
		writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}
	resp := historyDTO{Pair: string(pair), Offset: offset, Entries: make([]quoteDTO, 0, len(page))}
	for _, raw := range page {
		rec, err := domain.ParseRecord(raw)
		if err != nil {
			resp.Skipped++
			continue
		}
		q, err := rec.Quote(pair)
		if err != nil {
			resp.Skipped++
			continue
		}
		resp.Entries = append(resp.Entries, toDTO(q))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) GetArchive(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeError(w, http.StatusNotFound, "archive is not enabled")
		return
	}
	pair, ok := s.pairParam(w, r)
	if !ok {
		return
	}
	limit, err := intParam(r, "limit", 24)
	if err != nil || limit <= 0 || limit > maxHistoryCount {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	rows, err := s.archive.Recent(r.Context(), pair, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}
	resp := archiveDTO{Pair: string(pair), Entries: make([]archivedDTO, 0, len(rows))}
	for _, row := range rows {
		item := archivedDTO{Price: row.Quote.Price, ObservedAt: row.Quote.ObservedAt}
		if row.Numeric != nil {
			n := row.Numeric.String()
			item.Numeric = &n
		}
		resp.Entries = append(resp.Entries, item)
	}
	writeJSON(w, http.StatusOK, resp)
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorDTO{Code: status, Message: msg})
}
