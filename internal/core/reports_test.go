package core

import (
	"context"
	"net/url"
	"testing"
)

func TestStatusReportGroupsByState(t *testing.T) {
	fb := &fakeBackend{
		getFn: func(path string, params url.Values, out any) error {
			fill(t, out, `[
				{"id":"2-1","customFields":[{"name":"State","value":{"name":"Open"}}]},
				{"id":"2-2","customFields":[{"name":"State","value":{"name":"Open"}}]},
				{"id":"2-3","customFields":[{"name":"State","value":{"name":"Done"}}]},
				{"id":"2-4","customFields":[]}
			]`)
			return nil
		},
	}
	svc := newTestService(fb, ScopeConfig{EnforcedProject: "TEAM"})

	report, err := svc.StatusReport(context.Background(), "")
	if err != nil {
		t.Fatalf("StatusReport: %v", err)
	}
	if report.Total != 4 || report.Dimension != "state" {
		t.Fatalf("report = %+v", report)
	}
	want := []ReportBucket{
		{Name: "Open", Count: 2},
		{Name: "(no state)", Count: 1},
		{Name: "Done", Count: 1},
	}
	if len(report.Buckets) != len(want) {
		t.Fatalf("buckets = %+v, want %+v", report.Buckets, want)
	}
	for i, b := range want {
		if report.Buckets[i] != b {
			t.Fatalf("bucket %d = %+v, want %+v", i, report.Buckets[i], b)
		}
	}
}

func TestAssigneeReportCountsUnassigned(t *testing.T) {
	fb := &fakeBackend{
		getFn: func(path string, params url.Values, out any) error {
			if got := params.Get("query"); got != "project: TEAM" {
				t.Fatalf("query = %q, want the enforced project pinned", got)
			}
			fill(t, out, `[
				{"id":"2-1","customFields":[{"name":"Assignee","value":{"login":"alice"}}]},
				{"id":"2-2","customFields":[]}
			]`)
			return nil
		},
	}
	svc := newTestService(fb, ScopeConfig{EnforcedProject: "TEAM"})

	report, err := svc.AssigneeReport(context.Background(), "")
	if err != nil {
		t.Fatalf("AssigneeReport: %v", err)
	}
	if report.Buckets[0].Name != "alice" || report.Buckets[1].Name != "(unassigned)" {
		t.Fatalf("buckets = %+v", report.Buckets)
	}
}

func TestTimelineReportWeeklyBuckets(t *testing.T) {
	// 2024-01-01 and 2024-01-03 share a Monday; 2024-01-10 is the next week.
	fb := &fakeBackend{
		getFn: func(path string, params url.Values, out any) error {
			fill(t, out, `[
				{"id":"2-1","created":1704067200000},
				{"id":"2-2","created":1704240000000,"resolved":1704844800000}
			]`)
			return nil
		},
	}
	svc := newTestService(fb, ScopeConfig{EnforcedProject: "TEAM"})

	report, err := svc.TimelineReport(context.Background(), "")
	if err != nil {
		t.Fatalf("TimelineReport: %v", err)
	}
	if report.Total != 2 {
		t.Fatalf("total = %d", report.Total)
	}
	if len(report.Points) != 2 {
		t.Fatalf("points = %+v, want two weeks", report.Points)
	}
	first, second := report.Points[0], report.Points[1]
	if first.Week != "2024-01-01" || first.Created != 2 || first.Resolved != 0 {
		t.Fatalf("first week = %+v", first)
	}
	if second.Week != "2024-01-08" || second.Created != 0 || second.Resolved != 1 {
		t.Fatalf("second week = %+v", second)
	}
}

func TestReportPagesThroughResults(t *testing.T) {
	page := 0
	fb := &fakeBackend{
		getFn: func(path string, params url.Values, out any) error {
			page++
			if page == 1 {
				if params.Get("$skip") != "" {
					t.Fatalf("first page should not skip")
				}
				full := `[`
				for i := 0; i < reportPageSize; i++ {
					if i > 0 {
						full += ","
					}
					full += `{"id":"x","customFields":[{"name":"Type","value":{"name":"Task"}}]}`
				}
				fill(t, out, full+`]`)
				return nil
			}
			fill(t, out, `[{"id":"y","customFields":[{"name":"Type","value":{"name":"Bug"}}]}]`)
			return nil
		},
	}
	svc := newTestService(fb, ScopeConfig{EnforcedProject: "TEAM"})

	report, err := svc.TypeReport(context.Background(), "")
	if err != nil {
		t.Fatalf("TypeReport: %v", err)
	}
	if page != 2 {
		t.Fatalf("pages fetched = %d, want 2", page)
	}
	if report.Total != reportPageSize+1 {
		t.Fatalf("total = %d, want %d", report.Total, reportPageSize+1)
	}
}

func TestWeekOf(t *testing.T) {
	cases := []struct {
		millis int64
		want   string
	}{
		{1704067200000, "2024-01-01"}, // Monday stays put
		{1704326400000, "2024-01-01"}, // Thursday maps back to Monday
		{1704585600000, "2024-01-01"}, // Sunday closes the week
		{1704672000000, "2024-01-08"}, // next Monday opens a new one
	}
	for _, tc := range cases {
		if got := weekOf(tc.millis); got != tc.want {
			t.Errorf("weekOf(%d) = %q, want %q", tc.millis, got, tc.want)
		}
	}
}
