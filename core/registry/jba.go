package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"roster-verifier/core/credentials"
	"roster-verifier/core/utils"

	"go.uber.org/zap"
)

// maxBodySize caps how much of a registry response is read.
const maxBodySize = 8 << 20

// searchLimit is the page size of the team search; the registry rejects larger pages.
const searchLimit = 100

// JBAClient talks to the federation registry website.
type JBAClient struct {
	cfg       Config
	transport http.RoundTripper
	logger    *zap.Logger
}

// defaultRequestTimeout applies when Config.RequestTimeout is not positive.
const defaultRequestTimeout = 15 * time.Second

// NewJBAClient creates a registry client. A nil transport uses http.DefaultTransport.
func NewJBAClient(cfg Config, transport http.RoundTripper, logger *zap.Logger) *JBAClient {
	if transport == nil {
		transport = http.DefaultTransport
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &JBAClient{cfg: cfg, transport: transport, logger: logger}
}

// OpenSession logs in with a fresh cookie jar.
func (c *JBAClient) OpenSession(ctx context.Context, creds credentials.Credentials) (Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	s := &jbaSession{
		cfg:    c.cfg,
		logger: c.logger,
		http:   &http.Client{Jar: jar, Transport: c.transport},
	}
	if err := s.login(ctx, creds); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

type jbaSession struct {
	cfg    Config
	logger *zap.Logger
	http   *http.Client
}

type teamRef struct {
	ID   string
	Name string
}

type searchCondition struct {
	Field    string `json:"field"`
	Type     string `json:"type"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

type searchRequest struct {
	Limit       int               `json:"limit"`
	Offset      int               `json:"offset"`
	SearchLogic string            `json:"searchLogic"`
	Search      []searchCondition `json:"search"`
}

type searchResponse struct {
	Status  string           `json:"status"`
	Total   any              `json:"total"`
	Records []map[string]any `json:"records"`
}

func (s *jbaSession) login(ctx context.Context, creds credentials.Credentials) error {
	const op = "login"

	page, err := s.do(ctx, op, http.MethodGet, s.cfg.BaseURL+"/login", nil, nil)
	if err != nil {
		return err
	}
	token, ok := findInputValue(page, "_token")
	if !ok {
		return NewError(CategoryParse, op, "login form has no _token field", nil)
	}

	form := encodeForm(
		formField{key: "_token", value: []byte(token)},
		formField{key: "login_id", value: []byte(creds.Email)},
		formField{key: "password", value: creds.Password},
	)
	defer wipeForm(form)
	body, err := s.do(ctx, op, http.MethodPost, s.cfg.BaseURL+"/login/done",
		bytes.NewReader(form),
		http.Header{"Content-Type": {"application/x-www-form-urlencoded"}})
	if err != nil {
		return err
	}
	if !bytes.Contains(body, []byte(s.cfg.LogoutMarker)) {
		return NewError(CategoryAuth, op, "login rejected", nil)
	}
	s.logger.Debug("Registry session opened")
	return nil
}

// SearchTeam finds the men's teams matching teamName and collects their member rows.
func (s *jbaSession) SearchTeam(ctx context.Context, teamName string, year int) ([]Record, error) {
	teams, err := s.findTeams(ctx, teamName, year)
	if err != nil {
		return nil, err
	}
	if len(teams) == 0 {
		return nil, NewError(CategoryNotFound, "search", fmt.Sprintf("no team matching %q in %d", teamName, year), nil)
	}

	var records []Record
	for _, team := range teams {
		members, err := s.teamMembers(ctx, team, year)
		if err != nil {
			return nil, err
		}
		records = append(records, members...)
	}
	return records, nil
}

func (s *jbaSession) Close() {
	s.http.Jar = nil
	s.http.CloseIdleConnections()
}

func (s *jbaSession) searchURL() string {
	return fmt.Sprintf("%s/organization/%s/team/search", s.cfg.BaseURL, s.cfg.OrganizationID)
}

func (s *jbaSession) findTeams(ctx context.Context, teamName string, year int) ([]teamRef, error) {
	const op = "search"

	page, err := s.do(ctx, op, http.MethodGet, s.searchURL(), nil, nil)
	if err != nil {
		return nil, err
	}
	token, ok := findInputValue(page, "_token")
	if !ok {
		return nil, NewError(CategoryParse, op, "search page has no _token field", nil)
	}

	payload, err := json.Marshal(searchRequest{
		Limit:       searchLimit,
		SearchLogic: "AND",
		Search: []searchCondition{
			{Field: "fiscal_year", Type: "text", Operator: "is", Value: strconv.Itoa(year)},
			{Field: "team_name", Type: "text", Operator: "contains", Value: teamName},
			{Field: "competition_division_id", Type: "int", Operator: "is", Value: 1},
			{Field: "team_search_out_of_range", Type: "int", Operator: "is", Value: 1},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode search request: %w", err)
	}

	form := url.Values{"request": {string(payload)}}
	body, err := s.do(ctx, op, http.MethodPost, s.searchURL(), strings.NewReader(form.Encode()), http.Header{
		"Content-Type":     {"application/x-www-form-urlencoded; charset=UTF-8"},
		"Accept":           {"application/json"},
		"X-Csrf-Token":     {token},
		"X-Requested-With": {"XMLHttpRequest"},
	})
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&resp); err != nil {
		return nil, NewError(CategoryParse, op, "search response is not JSON", err)
	}
	if resp.Status != "success" {
		return nil, NewError(CategoryParse, op, fmt.Sprintf("search status %q", resp.Status), nil)
	}
	if total := utils.ToInt(resp.Total); total > len(resp.Records) {
		s.logger.Warn("Registry search truncated",
			zap.String("team", teamName),
			zap.Int("total", total),
			zap.Int("returned", len(resp.Records)))
	}

	var teams []teamRef
	for _, rec := range resp.Records {
		if utils.ToString(rec["team_gender_id"]) != s.cfg.MenLabel {
			continue
		}
		id := utils.ToString(rec["id"])
		if id == "" {
			return nil, NewError(CategoryParse, op, "search record without id", nil)
		}
		teams = append(teams, teamRef{ID: id, Name: utils.ToString(rec["team_name"])})
	}
	return teams, nil
}

func (s *jbaSession) teamMembers(ctx context.Context, team teamRef, year int) ([]Record, error) {
	const op = "team_detail"

	detailURL := fmt.Sprintf("%s/organization/%s/team/%s/detail", s.cfg.BaseURL, s.cfg.OrganizationID, url.PathEscape(team.ID))
	body, err := s.do(ctx, op, http.MethodGet, detailURL, nil, nil)
	if err != nil {
		return nil, err
	}

	rows, ok, err := parseMemberTable(body)
	if errors.Is(err, errUnreadableRows) {
		return nil, NewError(CategoryParse, op, fmt.Sprintf("team %s member rows are unreadable", team.ID), err)
	}
	if err != nil {
		return nil, NewError(CategoryParse, op, "team page is not HTML", err)
	}
	if !ok {
		return nil, NewError(CategoryParse, op, fmt.Sprintf("team %s has no member table", team.ID), nil)
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, Record{
			Team:      team.Name,
			Name:      row.Name,
			Year:      year,
			Role:      row.Role,
			MemberID:  row.MemberID,
			Number:    row.Number,
			BirthDate: row.BirthDate,
			Raw:       row.Raw,
		})
	}
	s.logger.Debug("Registry team loaded", zap.String("team_id", team.ID), zap.Int("members", len(records)))
	return records, nil
}

// do performs one request under its own timeout and maps failures to categories.
func (s *jbaSession) do(ctx context.Context, op, method, target string, body io.Reader, header http.Header) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)
	req.Header.Set("Origin", s.cfg.BaseURL)
	req.Header.Set("Referer", s.searchURL())

	resp, err := s.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, NewError(CategoryTransient, op, "request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, NewError(CategoryTransient, op, "failed to read response", err)
	}

	switch code := resp.StatusCode; {
	case code >= 200 && code < 300:
		return data, nil
	case code == http.StatusTooManyRequests || code >= 500:
		return nil, NewError(CategoryTransient, op, fmt.Sprintf("status %d", code), nil)
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return nil, NewError(CategoryAuth, op, fmt.Sprintf("status %d", code), nil)
	default:
		return nil, NewError(CategoryParse, op, fmt.Sprintf("unexpected status %d", code), nil)
	}
}
