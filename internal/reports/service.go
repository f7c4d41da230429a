package reports

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"portal_ventas_backend/platform/apperr"
	"portal_ventas_backend/platform/logger"

	"golang.org/x/sync/errgroup"
)

const (
	dayLayout         = "2006-01-02"
	defaultStaleDays  = 7
	defaultAdminLimit = 500
	exportLimit       = 5000
)

// Store is the query surface the report calculations run on.
type Store interface {
	CountQuotes(ctx context.Context, vendorID string, w Window) (QuoteCounts, error)
	CountPostventas(ctx context.Context, vendorID string, w Window) (PostventaCounts, error)
	CountOpenQuotesBefore(ctx context.Context, vendorID string, cutoff time.Time) (int, error)
	Vendors(ctx context.Context) ([]string, error)
	AdminQuotes(ctx context.Context, f AdminFilter) ([]AdminQuoteRow, error)
	AdminPostventas(ctx context.Context, f AdminFilter) ([]AdminPostventaRow, error)
}

// Compile-time check that Repository implements Store.
var _ Store = (*Repository)(nil)

// DigestMailer delivers the rendered report to an operator inbox.
type DigestMailer interface {
	SendReportDigest(ctx context.Context, to, subject, body string, attachment []byte, filename string) error
}

// Lifetime holds the all-time counts of the report.
type Lifetime struct {
	Quotes     QuoteCounts     `json:"quotes"`
	Postventas PostventaCounts `json:"postventas"`
}

// MonthSection holds the counts for one calendar month. CloseRate is null
// when no quote reached a terminal status in the window; it is never
// reported as 0 in that case.
type MonthSection struct {
	From       string          `json:"from"`
	To         string          `json:"to"`
	Quotes     QuoteCounts     `json:"quotes"`
	Postventas PostventaCounts `json:"postventas"`
	CloseRate  *float64        `json:"close_rate"`
}

// Compare holds month-over-month deltas. Percentage deltas are null when
// the previous value is zero.
type Compare struct {
	QuotesTotalDelta        int      `json:"quotes_total_delta"`
	QuotesTotalDeltaPct     *float64 `json:"quotes_total_delta_pct"`
	QuotesCerradaDelta      int      `json:"quotes_cerrada_delta"`
	QuotesCerradaDeltaPct   *float64 `json:"quotes_cerrada_delta_pct"`
	PostventasTotalDelta    int      `json:"postventas_total_delta"`
	PostventasTotalDeltaPct *float64 `json:"postventas_total_delta_pct"`
	CloseRateDelta          *float64 `json:"close_rate_delta"`
}

// Alerts flags the stale-lead backlog.
type Alerts struct {
	OldOpenQuotes int `json:"old_open_quotes"`
	OlderThanDays int `json:"older_than_days"`
}

// KpiReport is the full per-scope report.
type KpiReport struct {
	Lifetime  Lifetime     `json:"lifetime"`
	Month     MonthSection `json:"month"`
	PrevMonth MonthSection `json:"prev_month"`
	Compare   Compare      `json:"compare"`
	Alerts    Alerts       `json:"alerts"`
}

// VendorMonthStats is one ranking row.
type VendorMonthStats struct {
	VendorID            string   `json:"vendor_id"`
	QuotesTotal         int      `json:"quotes_total"`
	QuotesCerrada       int      `json:"quotes_cerrada"`
	QuotesPerdida       int      `json:"quotes_perdida"`
	QuotesPendiente     int      `json:"quotes_pendiente"`
	CloseRate           *float64 `json:"close_rate"`
	PostventasTotal     int      `json:"postventas_total"`
	PostventasPendiente int      `json:"postventas_pendiente"`
	PostventasRealizada int      `json:"postventas_realizada"`
	PostventasCancelada int      `json:"postventas_cancelada"`
}

// AdminQuery narrows the merged admin listing. Dates are calendar days
// (YYYY-MM-DD), inclusive on both ends.
type AdminQuery struct {
	VendorID string
	Status   string
	Kind     string
	DateFrom string
	DateTo   string
	Limit    int
}

// AdminItem is one row of the merged quote+postventa listing.
type AdminItem struct {
	Date       time.Time `json:"date"`
	Kind       string    `json:"kind"`
	VendorID   string    `json:"vendor_id"`
	ClientName string    `json:"client_name"`
	Ref        string    `json:"ref"`
	Status     string    `json:"status"`
	Total      string    `json:"total"`
	Summary    string    `json:"summary"`
}

// Service computes the reports
type Service struct {
	store        Store
	mailer       DigestMailer
	log          *logger.Logger
	now          func() time.Time
	staleDefault int
}

// NewService creates a new reports service
func NewService(store Store, log *logger.Logger) *Service {
	return &Service{store: store, log: log, now: time.Now, staleDefault: defaultStaleDays}
}

// SetDigestMailer injects the mailer used for the emailed digest.
func (s *Service) SetDigestMailer(m DigestMailer) {
	s.mailer = m
}

// SetStaleDefault overrides the stale-quote threshold used when a request
// does not carry ?days=.
func (s *Service) SetStaleDefault(days int) {
	if days > 0 {
		s.staleDefault = days
	}
}

// Kpis builds the full report for one vendor, or for the whole fleet when
// vendorID is empty. The seven count queries run concurrently.
func (s *Service) Kpis(ctx context.Context, vendorID string, staleDays int) (*KpiReport, error) {
	if staleDays <= 0 {
		staleDays = s.staleDefault
	}

	now := s.now()
	m0 := firstOfMonth(now)
	m1 := m0.AddDate(0, 1, 0)
	prev0 := m0.AddDate(0, -1, 0)
	cutoff := now.AddDate(0, 0, -staleDays)

	var (
		lifeQuotes, curQuotes, prevQuotes QuoteCounts
		lifePostv, curPostv, prevPostv    PostventaCounts
		oldOpen                           int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		lifeQuotes, err = s.store.CountQuotes(gctx, vendorID, Window{})
		return err
	})
	g.Go(func() error {
		var err error
		lifePostv, err = s.store.CountPostventas(gctx, vendorID, Window{})
		return err
	})
	g.Go(func() error {
		var err error
		curQuotes, err = s.store.CountQuotes(gctx, vendorID, Window{From: m0, To: m1})
		return err
	})
	g.Go(func() error {
		var err error
		curPostv, err = s.store.CountPostventas(gctx, vendorID, Window{From: m0, To: m1})
		return err
	})
	g.Go(func() error {
		var err error
		prevQuotes, err = s.store.CountQuotes(gctx, vendorID, Window{From: prev0, To: m0})
		return err
	})
	g.Go(func() error {
		var err error
		prevPostv, err = s.store.CountPostventas(gctx, vendorID, Window{From: prev0, To: m0})
		return err
	})
	g.Go(func() error {
		var err error
		oldOpen, err = s.store.CountOpenQuotesBefore(gctx, vendorID, cutoff)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	curRate := closeRate(curQuotes)
	prevRate := closeRate(prevQuotes)

	return &KpiReport{
		Lifetime:  Lifetime{Quotes: lifeQuotes, Postventas: lifePostv},
		Month:     monthSection(m0, m1, curQuotes, curPostv, curRate),
		PrevMonth: monthSection(prev0, m0, prevQuotes, prevPostv, prevRate),
		Compare: Compare{
			QuotesTotalDelta:        curQuotes.Total - prevQuotes.Total,
			QuotesTotalDeltaPct:     deltaPct(curQuotes.Total, prevQuotes.Total),
			QuotesCerradaDelta:      curQuotes.Cerrada - prevQuotes.Cerrada,
			QuotesCerradaDeltaPct:   deltaPct(curQuotes.Cerrada, prevQuotes.Cerrada),
			PostventasTotalDelta:    curPostv.Total - prevPostv.Total,
			PostventasTotalDeltaPct: deltaPct(curPostv.Total, prevPostv.Total),
			CloseRateDelta:          rateDelta(curRate, prevRate),
		},
		Alerts: Alerts{OldOpenQuotes: oldOpen, OlderThanDays: staleDays},
	}, nil
}

// Ranking returns per-vendor stats for the month containing monthRef,
// ordered by closed quotes, then by total quotes.
func (s *Service) Ranking(ctx context.Context, monthRef time.Time) ([]VendorMonthStats, error) {
	if monthRef.IsZero() {
		monthRef = s.now()
	}
	m0 := firstOfMonth(monthRef)
	w := Window{From: m0, To: m0.AddDate(0, 1, 0)}

	vendors, err := s.store.Vendors(ctx)
	if err != nil {
		return nil, err
	}

	stats := make([]VendorMonthStats, 0, len(vendors))
	for _, v := range vendors {
		q, err := s.store.CountQuotes(ctx, v, w)
		if err != nil {
			return nil, err
		}
		p, err := s.store.CountPostventas(ctx, v, w)
		if err != nil {
			return nil, err
		}

		stats = append(stats, VendorMonthStats{
			VendorID:            v,
			QuotesTotal:         q.Total,
			QuotesCerrada:       q.Cerrada,
			QuotesPerdida:       q.Perdida,
			QuotesPendiente:     q.Pendiente,
			CloseRate:           roundedRate(closeRate(q)),
			PostventasTotal:     p.Total,
			PostventasPendiente: p.Pendiente,
			PostventasRealizada: p.Realizada,
			PostventasCancelada: p.Cancelada,
		})
	}

	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].QuotesCerrada != stats[j].QuotesCerrada {
			return stats[i].QuotesCerrada > stats[j].QuotesCerrada
		}
		return stats[i].QuotesTotal > stats[j].QuotesTotal
	})

	return stats, nil
}

// AdminItems merges quotes and postventas into one listing, newest first.
func (s *Service) AdminItems(ctx context.Context, q AdminQuery) ([]AdminItem, error) {
	f, err := adminFilter(q)
	if err != nil {
		return nil, err
	}

	items := []AdminItem{}

	if includeKind(q.Kind, "quote", "cotizacion") {
		quotes, err := s.store.AdminQuotes(ctx, f)
		if err != nil {
			return nil, err
		}
		for _, row := range quotes {
			items = append(items, AdminItem{
				Date:       row.CreatedAt,
				Kind:       "cotizacion",
				VendorID:   row.VendorID,
				ClientName: row.Extracted.ClientName,
				Ref:        row.QuoteNumber,
				Status:     row.Status,
				Total:      row.Extracted.Total,
				Summary:    row.Summary,
			})
		}
	}

	if includeKind(q.Kind, "postventa") {
		postventas, err := s.store.AdminPostventas(ctx, f)
		if err != nil {
			return nil, err
		}
		for _, row := range postventas {
			items = append(items, AdminItem{
				Date:       row.CreatedAt,
				Kind:       "postventa",
				VendorID:   row.VendorID,
				ClientName: row.ClientName,
				Ref:        fmt.Sprintf("PV-%d", row.ID),
				Status:     row.Status,
				Summary:    row.Type,
			})
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Date.After(items[j].Date)
	})
	if len(items) > f.Limit {
		items = items[:f.Limit]
	}

	return items, nil
}

// ExportBytes renders the admin listing as an XLSX workbook.
func (s *Service) ExportBytes(ctx context.Context, q AdminQuery) ([]byte, error) {
	q.Limit = exportLimit
	items, err := s.AdminItems(ctx, q)
	if err != nil {
		return nil, err
	}

	file, err := buildWorkbook(items)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		return nil, fmt.Errorf("render workbook: %w", err)
	}

	return buf.Bytes(), nil
}

// EmailMonthlyDigest mails the current month's listing to the recipient.
func (s *Service) EmailMonthlyDigest(ctx context.Context, recipient string) error {
	if s.mailer == nil {
		return apperr.Internal("digest mailer is not configured")
	}

	now := s.now()
	m0 := firstOfMonth(now)
	q := AdminQuery{DateFrom: m0.Format(dayLayout), DateTo: now.Format(dayLayout)}

	report, err := s.ExportBytes(ctx, q)
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("Reporte mensual %s", m0.Format("2006-01"))
	body := fmt.Sprintf("Adjunto el reporte de cotizaciones y postventas desde %s hasta %s.", q.DateFrom, q.DateTo)
	return s.mailer.SendReportDigest(ctx, recipient, subject, body, report, exportFilename)
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// closeRate is cerrada/(cerrada+perdida)*100, unrounded. Nil when the
// denominator is zero so callers never mistake "no terminal quotes" for 0%.
func closeRate(q QuoteCounts) *float64 {
	den := q.Cerrada + q.Perdida
	if den <= 0 {
		return nil
	}
	rate := float64(q.Cerrada) / float64(den) * 100
	return &rate
}

func deltaPct(cur, prev int) *float64 {
	if prev == 0 {
		return nil
	}
	pct := float64(cur-prev) / float64(prev) * 100
	return &pct
}

func rateDelta(cur, prev *float64) *float64 {
	if cur == nil || prev == nil {
		return nil
	}
	d := *cur - *prev
	return &d
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func roundedRate(r *float64) *float64 {
	if r == nil {
		return nil
	}
	v := round1(*r)
	return &v
}

func monthSection(from, next time.Time, q QuoteCounts, p PostventaCounts, rate *float64) MonthSection {
	return MonthSection{
		From:       from.Format(dayLayout),
		To:         next.AddDate(0, 0, -1).Format(dayLayout),
		Quotes:     q,
		Postventas: p,
		CloseRate:  roundedRate(rate),
	}
}

func adminFilter(q AdminQuery) (AdminFilter, error) {
	f := AdminFilter{VendorID: q.VendorID, Status: q.Status, Limit: q.Limit}
	if f.Limit <= 0 {
		f.Limit = defaultAdminLimit
	}

	if strings.TrimSpace(q.DateFrom) != "" {
		day, err := time.Parse(dayLayout, q.DateFrom)
		if err != nil {
			return f, apperr.Validation("date_from must be formatted YYYY-MM-DD")
		}
		f.From = day
	}
	if strings.TrimSpace(q.DateTo) != "" {
		day, err := time.Parse(dayLayout, q.DateTo)
		if err != nil {
			return f, apperr.Validation("date_to must be formatted YYYY-MM-DD")
		}
		f.To = day.Add(24*time.Hour - time.Second)
	}

	return f, nil
}

func includeKind(kind string, names ...string) bool {
	kind = strings.TrimSpace(strings.ToLower(kind))
	if kind == "" || kind == "all" {
		return true
	}
	for _, n := range names {
		if kind == n {
			return true
		}
	}
	return false
}
