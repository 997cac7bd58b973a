package core

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/trackhub/trackhub/internal/youtrack"
)

const (
	reportPageSize = 200
	reportMaxPages = 10

	reportIssueFields = "id,idReadable,created,resolved," +
		"customFields(name,value(name,login,fullName))"
)

// ReportBucket is one aggregation row: a grouping value and how many issues
// fall under it.
type ReportBucket struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// DistributionReport groups the issues matching a scoped query by one
// dimension (state, assignee, or type).
type DistributionReport struct {
	Dimension string         `json:"dimension"`
	Query     string         `json:"query"`
	Total     int            `json:"total"`
	Buckets   []ReportBucket `json:"buckets"`
}

// TimelinePoint is one week of creation/resolution activity. Week is the
// Monday of the ISO week, formatted YYYY-MM-DD.
type TimelinePoint struct {
	Week     string `json:"week"`
	Created  int    `json:"created"`
	Resolved int    `json:"resolved"`
}

// TimelineReport charts issue inflow and outflow per week for the issues
// matching a scoped query.
type TimelineReport struct {
	Query  string          `json:"query"`
	Total  int             `json:"total"`
	Points []TimelinePoint `json:"points"`
}

// StatusReport groups scoped issues by their State field.
func (s *Service) StatusReport(ctx context.Context, query string) (*DistributionReport, error) {
	return s.distributionReport(ctx, query, "state", func(i youtrack.Issue) string {
		return fieldOrUnset(&i, "State", "(no state)")
	})
}

// AssigneeReport groups scoped issues by assignee login.
func (s *Service) AssigneeReport(ctx context.Context, query string) (*DistributionReport, error) {
	return s.distributionReport(ctx, query, "assignee", func(i youtrack.Issue) string {
		return fieldOrUnset(&i, "Assignee", "(unassigned)")
	})
}

// TypeReport groups scoped issues by their Type field.
func (s *Service) TypeReport(ctx context.Context, query string) (*DistributionReport, error) {
	return s.distributionReport(ctx, query, "type", func(i youtrack.Issue) string {
		return fieldOrUnset(&i, "Type", "(no type)")
	})
}

func (s *Service) distributionReport(ctx context.Context, query, dimension string, key func(youtrack.Issue) string) (*DistributionReport, error) {
	q, issues, err := s.reportIssues(ctx, query)
	if err != nil {
		return nil, err
	}

	counts := map[string]int{}
	for _, issue := range issues {
		counts[key(issue)]++
	}

	report := &DistributionReport{Dimension: dimension, Query: q, Total: len(issues)}
	report.Buckets = make([]ReportBucket, 0, len(counts))
	for name, count := range counts {
		report.Buckets = append(report.Buckets, ReportBucket{Name: name, Count: count})
	}
	sort.Slice(report.Buckets, func(i, j int) bool {
		a, b := report.Buckets[i], report.Buckets[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Name < b.Name
	})
	return report, nil
}

// TimelineReport buckets scoped issues by ISO week of creation and, when
// resolved, of resolution. Weeks appear in chronological order.
func (s *Service) TimelineReport(ctx context.Context, query string) (*TimelineReport, error) {
	q, issues, err := s.reportIssues(ctx, query)
	if err != nil {
		return nil, err
	}

	points := map[string]*TimelinePoint{}
	bump := func(millis int64, created bool) {
		if millis == 0 {
			return
		}
		week := weekOf(millis)
		p, ok := points[week]
		if !ok {
			p = &TimelinePoint{Week: week}
			points[week] = p
		}
		if created {
			p.Created++
		} else {
			p.Resolved++
		}
	}
	for _, issue := range issues {
		bump(issue.Created, true)
		bump(issue.Resolved, false)
	}

	report := &TimelineReport{Query: q, Total: len(issues)}
	report.Points = make([]TimelinePoint, 0, len(points))
	for _, p := range points {
		report.Points = append(report.Points, *p)
	}
	sort.Slice(report.Points, func(i, j int) bool {
		return report.Points[i].Week < report.Points[j].Week
	})
	return report, nil
}

// reportIssues pages through every issue matching the scoped query, up to
// the report page cap.
func (s *Service) reportIssues(ctx context.Context, query string) (string, []youtrack.Issue, error) {
	if err := ValidateQuery(query); err != nil {
		return "", nil, err
	}
	q, err := s.scopedQuery(query)
	if err != nil {
		return "", nil, err
	}

	var all []youtrack.Issue
	for page := 0; page < reportMaxPages; page++ {
		params := url.Values{
			"query":  {q},
			"fields": {reportIssueFields},
			"$top":   {strconv.Itoa(reportPageSize)},
		}
		if page > 0 {
			params.Set("$skip", strconv.Itoa(page*reportPageSize))
		}
		var issues []youtrack.Issue
		if err := s.backend.Get(ctx, "issues", params, &issues); err != nil {
			return "", nil, err
		}
		all = append(all, issues...)
		if len(issues) < reportPageSize {
			break
		}
	}
	return q, all, nil
}

func fieldOrUnset(issue *youtrack.Issue, field, unset string) string {
	if v := issue.FieldValue(field); v != "" {
		return v
	}
	return unset
}

// weekOf maps a unix-millisecond timestamp to the Monday of its week, UTC.
func weekOf(millis int64) string {
	t := time.UnixMilli(millis).UTC()
	offset := (int(t.Weekday()) + 6) % 7
	monday := t.AddDate(0, 0, -offset)
	return monday.Format("2006-01-02")
}
