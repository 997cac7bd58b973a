package core

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/trackhub/trackhub/internal/youtrack"
)

const (
	workItemFields       = "id,date,duration(minutes,presentation),author(id,login,fullName),text,type(name)"
	workItemReportFields = "author(login,fullName),duration(minutes)"
)

type LogWorkRequest struct {
	IssueID  string `json:"issueId"`
	Date     string `json:"date,omitempty"`
	Minutes  int    `json:"minutes"`
	Text     string `json:"text,omitempty"`
	WorkType string `json:"workType,omitempty"`
}

// AuthorTotal is one author's aggregated spent time.
type AuthorTotal struct {
	Login    string `json:"login"`
	FullName string `json:"fullName,omitempty"`
	Minutes  int    `json:"minutes"`
	Spent    string `json:"spent"`
}

// TimeReport aggregates work items matching a scoped query by author.
type TimeReport struct {
	Query        string        `json:"query"`
	TotalMinutes int           `json:"totalMinutes"`
	TotalSpent   string        `json:"totalSpent"`
	ByAuthor     []AuthorTotal `json:"byAuthor"`
}

// LogWork records spent time against an issue. Date defaults to today.
func (s *Service) LogWork(ctx context.Context, req LogWorkRequest) (*youtrack.WorkItem, error) {
	issueID := strings.TrimSpace(req.IssueID)
	if issueID == "" {
		return nil, &ValidationError{Field: "issueId", Reason: "is required"}
	}
	if req.Minutes <= 0 {
		return nil, &ValidationError{Field: "minutes", Reason: "must be positive"}
	}

	body := map[string]any{
		"duration": map[string]any{"minutes": req.Minutes},
	}
	if date := strings.TrimSpace(req.Date); date != "" {
		day, err := time.Parse("2006-01-02", date)
		if err != nil {
			return nil, &ValidationError{Field: "date", Reason: "must be formatted YYYY-MM-DD"}
		}
		body["date"] = day.UnixMilli()
	}
	if text := strings.TrimSpace(req.Text); text != "" {
		body["text"] = text
	}
	if wt := strings.TrimSpace(req.WorkType); wt != "" {
		body["type"] = map[string]any{"name": wt}
	}

	var item youtrack.WorkItem
	path := "issues/" + url.PathEscape(issueID) + "/timeTracking/workItems?fields=" + url.QueryEscape(workItemFields)
	if err := s.backend.Post(ctx, path, body, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Service) ListWork(ctx context.Context, issueID string, top int) ([]youtrack.WorkItem, error) {
	issueID = strings.TrimSpace(issueID)
	if issueID == "" {
		return nil, &ValidationError{Field: "issueId", Reason: "is required"}
	}
	params := url.Values{
		"fields": {workItemFields},
		"$top":   {strconv.Itoa(clampTop(top))},
	}
	var items []youtrack.WorkItem
	if err := s.backend.Get(ctx, "issues/"+url.PathEscape(issueID)+"/timeTracking/workItems", params, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// TimeReport sums work items matching the scoped query per author, ordered
// most-spent first.
func (s *Service) TimeReport(ctx context.Context, query string) (*TimeReport, error) {
	if err := ValidateQuery(query); err != nil {
		return nil, err
	}
	q, err := s.scopedQuery(query)
	if err != nil {
		return nil, err
	}

	totals := map[string]*AuthorTotal{}
	report := &TimeReport{Query: q}
	for page := 0; page < reportMaxPages; page++ {
		params := url.Values{
			"query":  {q},
			"fields": {workItemReportFields},
			"$top":   {strconv.Itoa(reportPageSize)},
		}
		if page > 0 {
			params.Set("$skip", strconv.Itoa(page*reportPageSize))
		}
		var items []youtrack.WorkItem
		if err := s.backend.Get(ctx, "workItems", params, &items); err != nil {
			return nil, err
		}
		for _, item := range items {
			login, fullName := "unknown", ""
			if item.Author != nil {
				login, fullName = item.Author.Login, item.Author.FullName
			}
			t, ok := totals[login]
			if !ok {
				t = &AuthorTotal{Login: login, FullName: fullName}
				totals[login] = t
			}
			t.Minutes += item.Duration.Minutes
			report.TotalMinutes += item.Duration.Minutes
		}
		if len(items) < reportPageSize {
			break
		}
	}

	report.ByAuthor = make([]AuthorTotal, 0, len(totals))
	for _, t := range totals {
		t.Spent = FormatEstimation(t.Minutes)
		report.ByAuthor = append(report.ByAuthor, *t)
	}
	sort.Slice(report.ByAuthor, func(i, j int) bool {
		a, b := report.ByAuthor[i], report.ByAuthor[j]
		if a.Minutes != b.Minutes {
			return a.Minutes > b.Minutes
		}
		return a.Login < b.Login
	})
	report.TotalSpent = FormatEstimation(report.TotalMinutes)
	return report, nil
}
