package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"timeclock/internal/model"
)

// Fallback strings served whenever the text-generation service fails.
// Collaborator failure is never a hard error.
const (
	FallbackSummary = "Smart summary is unavailable right now."
	FallbackEmail   = "Could not draft the daily report email."
)

// Client calls the external text-generation service that produces the
// natural-language daily summary.
type Client struct {
	BaseURL string
	APIKey  string
	Model   string
	Skip    bool
	HTTP    *http.Client
}

// New creates a client. With skip set, canned text is returned without
// any network call.
func New(baseURL, apiKey, modelName string, skip bool) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Model:   modelName,
		Skip:    skip,
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate returns a short natural-language summary of today's roster
// and punches. On any failure it returns FallbackSummary and the error
// for logging; callers must treat the text as the result either way.
func (c *Client) Generate(ctx context.Context, employees []model.Employee, punches []model.Punch) (string, error) {
	if c.Skip {
		return "All quiet: summaries are running in skip mode.", nil
	}

	text, err := c.generate(ctx, summaryPrompt(employees, punches, time.Now().UTC()))
	if err != nil {
		return FallbackSummary, err
	}
	return text, nil
}

// DraftEmail returns the body of the daily report email for the
// administration, with its own fallback on failure.
func (c *Client) DraftEmail(ctx context.Context, employees []model.Employee, records []model.AbsenceRecord) (string, error) {
	if c.Skip {
		return "Daily attendance report draft (skip mode).", nil
	}

	text, err := c.generate(ctx, emailPrompt(len(employees), len(records), time.Now()))
	if err != nil {
		return FallbackEmail, err
	}
	return text, nil
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	body, _ := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.BaseURL, c.Model, c.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("summary service request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("summary service returned %d", resp.StatusCode)
	}

	var parsed generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("summary service decode failed: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("summary service returned no candidates")
	}
	text := strings.TrimSpace(parsed.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", fmt.Errorf("summary service returned empty text")
	}
	return text, nil
}

// summaryPrompt lists each employee's status and whether they clocked in
// and out today.
func summaryPrompt(employees []model.Employee, punches []model.Punch, now time.Time) string {
	today := model.Day(now)
	hasIn := make(map[string]bool)
	hasOut := make(map[string]bool)
	for _, p := range punches {
		if p.Day() != today {
			continue
		}
		if p.Type == model.PunchIn {
			hasIn[p.EmployeeID] = true
		} else {
			hasOut[p.EmployeeID] = true
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are an HR assistant. Review today's attendance data and write a short, professional, encouraging summary. Highlight absences and who is on vacation.\nToday (%s):\n", today)
	for _, e := range employees {
		in, out := "no clock-in", "no clock-out"
		if hasIn[e.ID] {
			in = "clock-in OK"
		}
		if hasOut[e.ID] {
			out = "clock-out OK"
		}
		fmt.Fprintf(&b, "%s (%s): status %s, %s, %s\n", e.Name, e.Role, e.Status, in, out)
	}
	return b.String()
}

func emailPrompt(employeeCount, recordCount int, now time.Time) string {
	return fmt.Sprintf(
		"Write the body of a formal email to the administration with the subject \"Daily Attendance Report - %s\". Include one section for occurrences (absences/vacations) and one for recorded punches. Data: %d employees total, %d active occurrence records. Be concise and professional.",
		now.Format("02/01/2006"), employeeCount, recordCount,
	)
}
