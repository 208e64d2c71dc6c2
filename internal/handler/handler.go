package handler

import (
	"bytes"
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"timeclock/internal/auth"
	"timeclock/internal/config"
	"timeclock/internal/ledger"
	"timeclock/internal/model"
	"timeclock/internal/queue"
	"timeclock/internal/report"
	"timeclock/internal/store"
	"timeclock/internal/summary"
)

// Handler owns the ledger and its collaborators and serves all v1 routes.
type Handler struct {
	cfg    config.App
	ledger *ledger.Ledger
	gw     store.Gateway
	q      queue.Queue
	sum    *summary.Client

	punchesTotal     *prometheus.CounterVec
	summaryRefreshes prometheus.Counter
	occurrenceScans  prometheus.Counter
}

// New wires a handler.
func New(cfg config.App, l *ledger.Ledger, gw store.Gateway, q queue.Queue, sum *summary.Client) *Handler {
	return &Handler{
		cfg:    cfg,
		ledger: l,
		gw:     gw,
		q:      q,
		sum:    sum,
		punchesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "timeclock_punches_total",
			Help: "Punches recorded, by direction.",
		}, []string{"type"}),
		summaryRefreshes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "timeclock_summary_refreshes_total",
			Help: "Summary refresh messages enqueued.",
		}),
		occurrenceScans: promauto.NewCounter(prometheus.CounterOpts{
			Name: "timeclock_occurrence_scans_total",
			Help: "Occurrence report reconciliations served.",
		}),
	}
}

// respond writes payload, downgrading a persist failure to a warning
// field: the mutation applied in memory and must not read as failed.
func respond(c *gin.Context, status int, payload gin.H, err error) {
	if err != nil && errors.Is(err, ledger.ErrPersist) {
		payload["persist_warning"] = err.Error()
		err = nil
	}
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(status, payload)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ledger.ErrUnknownEmployee):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrInactiveEmployee):
		return http.StatusForbidden
	case errors.Is(err, ledger.ErrDuplicateCode), errors.Is(err, ledger.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// enqueueSummaryRefresh is fire-and-forget: a queue failure is logged and
// never surfaced to the caller.
func (h *Handler) enqueueSummaryRefresh(ctx context.Context) {
	if h.q == nil {
		return
	}
	if err := h.q.Publish(ctx, queue.Message{Type: "summary", Body: []byte(model.Day(time.Now().UTC()))}); err != nil {
		log.Printf("queue publish failed: %v", err)
		return
	}
	h.summaryRefreshes.Inc()
}

// ---------- Gate ----------

type gateRequest struct {
	Code string `json:"code" binding:"required"`
}

// Gate exchanges the shared admin code for a session token. Not a
// security boundary; it mirrors the kiosk's restricted-area prompt.
func (h *Handler) Gate(c *gin.Context) {
	var req gateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Code != h.cfg.GateCode {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "wrong code"})
		return
	}
	token, exp, err := auth.Issue(h.cfg.JWTIssuer, h.cfg.JWTSigningKey, h.cfg.AccessTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": token, "expires_at": exp.Unix()})
}

// ---------- Punch clock ----------

type punchRequest struct {
	Code string `json:"code" binding:"required"`
}

// Punch records an automatic punch for the employee matching the code.
func (h *Handler) Punch(c *gin.Context) {
	var req punchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.ledger.RecordPunch(c.Request.Context(), req.Code, nil)
	if err != nil && !errors.Is(err, ledger.ErrPersist) {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	h.punchesTotal.WithLabelValues(string(p.Type)).Inc()
	h.enqueueSummaryRefresh(c.Request.Context())

	msg := "clock-in recorded"
	if p.Type == model.PunchOut {
		msg = "clock-out recorded"
	}
	respond(c, http.StatusOK, gin.H{"punch": p, "message": msg}, err)
}

// ---------- Employees ----------

type employeeRequest struct {
	Name   string `json:"name" binding:"required"`
	Code   string `json:"code" binding:"required"`
	Role   string `json:"role"`
	Avatar string `json:"avatar"`
}

func (h *Handler) ListEmployees(c *gin.Context) {
	employees := h.ledger.Employees()
	if employees == nil {
		employees = []model.Employee{}
	}
	c.JSON(http.StatusOK, gin.H{"employees": employees})
}

func (h *Handler) CreateEmployee(c *gin.Context) {
	var req employeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	e, err := h.ledger.AddEmployee(c.Request.Context(), model.Employee{
		Name:   req.Name,
		Code:   req.Code,
		Role:   req.Role,
		Avatar: req.Avatar,
	})
	if err != nil && !errors.Is(err, ledger.ErrPersist) {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	h.enqueueSummaryRefresh(c.Request.Context())
	respond(c, http.StatusCreated, gin.H{"employee": e}, err)
}

func (h *Handler) UpdateEmployee(c *gin.Context) {
	var e model.Employee
	if err := c.ShouldBindJSON(&e); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	e.ID = c.Param("id")
	err := h.ledger.EditEmployee(c.Request.Context(), e)
	if err != nil && !errors.Is(err, ledger.ErrPersist) {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	respond(c, http.StatusOK, gin.H{"employee": e}, err)
}

type statusRequest struct {
	Status        model.EmployeeStatus `json:"status" binding:"required"`
	VacationStart string               `json:"vacation_start"`
	VacationEnd   string               `json:"vacation_end"`
	AbsenceDate   string               `json:"absence_date"`
	AbsenceReason string               `json:"absence_reason"`
}

func (h *Handler) UpdateEmployeeStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	switch req.Status {
	case model.StatusActive, model.StatusVacation, model.StatusAbsent:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
		return
	}
	err := h.ledger.SetEmployeeStatus(c.Request.Context(), c.Param("id"), req.Status,
		req.VacationStart, req.VacationEnd, req.AbsenceDate, req.AbsenceReason)
	if err != nil && !errors.Is(err, ledger.ErrPersist) {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	h.enqueueSummaryRefresh(c.Request.Context())
	respond(c, http.StatusOK, gin.H{"status": "updated"}, err)
}

func (h *Handler) DeleteEmployee(c *gin.Context) {
	err := h.ledger.DeleteEmployee(c.Request.Context(), c.Param("id"))
	respond(c, http.StatusOK, gin.H{"status": "deleted"}, err)
}

func (h *Handler) DeleteAllEmployees(c *gin.Context) {
	err := h.ledger.DeleteAllEmployees(c.Request.Context())
	respond(c, http.StatusOK, gin.H{"status": "wiped"}, err)
}

// ---------- Punch log ----------

func (h *Handler) ListPunches(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	punches := h.ledger.Punches()
	// Punch history reads newest first, unlike the occurrence report.
	for i, j := 0, len(punches)-1; i < j; i, j = i+1, j-1 {
		punches[i], punches[j] = punches[j], punches[i]
	}
	if limit > 0 && len(punches) > limit {
		punches = punches[:limit]
	}
	if punches == nil {
		punches = []model.Punch{}
	}
	c.JSON(http.StatusOK, gin.H{"punches": punches})
}

type manualPunchRequest struct {
	EmployeeID string          `json:"employee_id" binding:"required"`
	Type       model.PunchType `json:"type" binding:"required"`
	Timestamp  time.Time       `json:"timestamp" binding:"required"`
}

// CreatePunch inserts an administrative back-dated punch. It bypasses
// the parity classifier: direction and timestamp come from the caller.
func (h *Handler) CreatePunch(c *gin.Context) {
	var req manualPunchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Type != model.PunchIn && req.Type != model.PunchOut {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type must be IN or OUT"})
		return
	}
	p, err := h.ledger.AddPunch(c.Request.Context(), model.Punch{
		EmployeeID:  req.EmployeeID,
		Type:        req.Type,
		Timestamp:   req.Timestamp,
		EntryMethod: model.EntryManual,
	})
	if err != nil && !errors.Is(err, ledger.ErrPersist) {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	respond(c, http.StatusCreated, gin.H{"punch": p}, err)
}

func (h *Handler) UpdatePunch(c *gin.Context) {
	var p model.Punch
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p.ID = c.Param("id")
	err := h.ledger.EditPunch(c.Request.Context(), p)
	respond(c, http.StatusOK, gin.H{"punch": p}, err)
}

func (h *Handler) DeletePunch(c *gin.Context) {
	err := h.ledger.DeletePunch(c.Request.Context(), c.Param("id"))
	respond(c, http.StatusOK, gin.H{"status": "deleted"}, err)
}

func (h *Handler) DeleteAllPunches(c *gin.Context) {
	err := h.ledger.DeleteAllPunches(c.Request.Context())
	respond(c, http.StatusOK, gin.H{"status": "wiped"}, err)
}

// ---------- Absence records ----------

func (h *Handler) ListAbsences(c *gin.Context) {
	records := h.ledger.Records()
	if records == nil {
		records = []model.AbsenceRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

type absenceRequest struct {
	EmployeeID string           `json:"employee_id" binding:"required"`
	Date       string           `json:"date" binding:"required"`
	EndDate    string           `json:"end_date"`
	Type       model.RecordType `json:"type" binding:"required"`
	Reason     string           `json:"reason"`
}

// CreateAbsence appends a manual record, or an IGNORED_ABSENCE tombstone
// when that type is given (the "ignore this detected absence" action).
func (h *Handler) CreateAbsence(c *gin.Context) {
	var req absenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var rec model.AbsenceRecord
	var err error
	switch req.Type {
	case model.RecordIgnoredAbsence:
		rec, err = h.ledger.IgnoreAbsence(c.Request.Context(), req.EmployeeID, req.Date)
	case model.RecordVacation, model.RecordAbsence:
		rec, err = h.ledger.AddAbsenceRecord(c.Request.Context(), model.AbsenceRecord{
			EmployeeID: req.EmployeeID,
			Date:       req.Date,
			EndDate:    req.EndDate,
			Type:       req.Type,
			Reason:     req.Reason,
		})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown record type"})
		return
	}
	if err != nil && !errors.Is(err, ledger.ErrPersist) {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	respond(c, http.StatusCreated, gin.H{"record": rec}, err)
}

func (h *Handler) DeleteAbsence(c *gin.Context) {
	err := h.ledger.DeleteAbsenceRecord(c.Request.Context(), c.Param("id"))
	respond(c, http.StatusOK, gin.H{"status": "deleted"}, err)
}

func (h *Handler) DeleteAllAbsences(c *gin.Context) {
	err := h.ledger.DeleteAllAbsenceRecords(c.Request.Context())
	respond(c, http.StatusOK, gin.H{"status": "wiped"}, err)
}

// ---------- Reports ----------

func (h *Handler) reportRange(c *gin.Context) (string, string, bool) {
	// Day keys are always derived from UTC, matching stored punch timestamps.
	now := time.Now().UTC()
	start := c.DefaultQuery("start", model.Day(now.AddDate(0, 0, -30)))
	end := c.DefaultQuery("end", model.Day(now))
	if _, err := time.Parse(model.DayLayout, start); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start must be YYYY-MM-DD"})
		return "", "", false
	}
	if _, err := time.Parse(model.DayLayout, end); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must be YYYY-MM-DD"})
		return "", "", false
	}
	return start, end, true
}

func (h *Handler) Occurrences(c *gin.Context) {
	start, end, ok := h.reportRange(c)
	if !ok {
		return
	}
	h.occurrenceScans.Inc()
	occs := h.ledger.Occurrences(start, end, c.Query("q"))
	if occs == nil {
		occs = []ledger.Occurrence{}
	}
	c.JSON(http.StatusOK, gin.H{"occurrences": occs, "start": start, "end": end})
}

func (h *Handler) OccurrencesCSV(c *gin.Context) {
	start, end, ok := h.reportRange(c)
	if !ok {
		return
	}
	h.occurrenceScans.Inc()
	occs := h.ledger.Occurrences(start, end, c.Query("q"))

	var buf bytes.Buffer
	if err := report.WriteOccurrencesCSV(&buf, occs, h.ledger.Employees()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	name := "occurrences_" + start + "_" + end + ".csv"
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (h *Handler) OccurrencesXLSX(c *gin.Context) {
	start, end, ok := h.reportRange(c)
	if !ok {
		return
	}
	h.occurrenceScans.Inc()
	occs := h.ledger.Occurrences(start, end, c.Query("q"))

	var buf bytes.Buffer
	if err := report.WriteOccurrencesXLSX(&buf, occs, h.ledger.Employees()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	name := "occurrences_" + start + "_" + end + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func (h *Handler) PunchesCSV(c *gin.Context) {
	start, end, ok := h.reportRange(c)
	if !ok {
		return
	}
	var filtered []model.Punch
	for _, p := range h.ledger.Punches() {
		if day := p.Day(); day >= start && day <= end {
			filtered = append(filtered, p)
		}
	}

	var buf bytes.Buffer
	if err := report.WritePunchesCSV(&buf, filtered, h.ledger.Employees()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	name := "punches_" + start + "_" + end + ".csv"
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ---------- Presence ----------

func (h *Handler) Presence(c *gin.Context) {
	entries := h.ledger.Presence()
	if entries == nil {
		entries = []ledger.PresenceEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"presence": entries, "date": model.Day(time.Now().UTC())})
}

// ---------- Summary ----------

// Summary serves the cached daily summary, generating one inline when
// the cache is empty. Collaborator failure degrades to the fallback
// string, never an error status.
func (h *Handler) Summary(c *gin.Context) {
	ctx := c.Request.Context()
	text, err := h.gw.Summary(ctx)
	if err != nil {
		log.Printf("summary cache read failed: %v", err)
	}
	if text == "" {
		text, err = h.sum.Generate(ctx, h.ledger.Employees(), h.ledger.Punches())
		if err != nil {
			log.Printf("summary generate failed: %v", err)
		}
		if saveErr := h.gw.SaveSummary(ctx, text); saveErr != nil {
			log.Printf("summary cache write failed: %v", saveErr)
		}
	}
	c.JSON(http.StatusOK, gin.H{"summary": text})
}

func (h *Handler) RefreshSummary(c *gin.Context) {
	h.enqueueSummaryRefresh(c.Request.Context())
	c.JSON(http.StatusAccepted, gin.H{"status": "refresh queued"})
}

// DraftEmail returns an AI-drafted daily report email body.
func (h *Handler) DraftEmail(c *gin.Context) {
	text, err := h.sum.DraftEmail(c.Request.Context(), h.ledger.Employees(), h.ledger.Records())
	if err != nil {
		log.Printf("email draft failed: %v", err)
	}
	c.JSON(http.StatusOK, gin.H{"body": text})
}

// ---------- Preferences ----------

func (h *Handler) GetTheme(c *gin.Context) {
	theme, err := h.gw.Theme(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"theme": theme})
}

type themeRequest struct {
	Theme string `json:"theme" binding:"required"`
}

func (h *Handler) PutTheme(c *gin.Context) {
	var req themeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Theme != "light" && req.Theme != "dark" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "theme must be light or dark"})
		return
	}
	if err := h.gw.SaveTheme(c.Request.Context(), req.Theme); err != nil {
		c.JSON(http.StatusOK, gin.H{"theme": req.Theme, "persist_warning": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"theme": req.Theme})
}

func (h *Handler) GetEmailConfig(c *gin.Context) {
	cfg, err := h.gw.EmailConfig(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"email": cfg})
}

func (h *Handler) PutEmailConfig(c *gin.Context) {
	var cfg model.EmailConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.gw.SaveEmailConfig(c.Request.Context(), cfg); err != nil {
		c.JSON(http.StatusOK, gin.H{"email": cfg, "persist_warning": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"email": cfg})
}
