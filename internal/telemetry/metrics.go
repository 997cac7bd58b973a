package telemetry

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

var defaultRegistry = newRegistry()

type registry struct {
	mu                  sync.Mutex
	toolCalls           map[string]map[string]int64
	toolDurationBuckets map[string][]int64
	apiErrors           map[string]map[int]int64
	commandResults      map[string]int64
	issueCreations      map[string]int64
	scopeViolations     int64
	scopeSubstitutions  int64
	pollCycles          map[string]int64
	notifications       int64
}

func newRegistry() *registry {
	return &registry{
		toolCalls:           make(map[string]map[string]int64),
		toolDurationBuckets: make(map[string][]int64),
		apiErrors:           make(map[string]map[int]int64),
		commandResults:      make(map[string]int64),
		issueCreations:      make(map[string]int64),
		pollCycles:          make(map[string]int64),
	}
}

func IncToolCall(toolName, status string) {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	if _, ok := defaultRegistry.toolCalls[toolName]; !ok {
		defaultRegistry.toolCalls[toolName] = make(map[string]int64)
	}
	defaultRegistry.toolCalls[toolName][status]++
}

func ObserveToolDuration(toolName string, d time.Duration) {
	buckets := []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60}
	sec := d.Seconds()

	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	if _, ok := defaultRegistry.toolDurationBuckets[toolName]; !ok {
		defaultRegistry.toolDurationBuckets[toolName] = make([]int64, len(buckets)+1)
	}
	idx := len(buckets)
	for i, b := range buckets {
		if sec <= b {
			idx = i
			break
		}
	}
	defaultRegistry.toolDurationBuckets[toolName][idx]++
}

func IncAPIError(operation string, statusCode int) {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	if _, ok := defaultRegistry.apiErrors[operation]; !ok {
		defaultRegistry.apiErrors[operation] = make(map[int]int64)
	}
	defaultRegistry.apiErrors[operation][statusCode]++
}

func IncCommandResult(status string) {
	defaultRegistry.mu.Lock()
	defaultRegistry.commandResults[status]++
	defaultRegistry.mu.Unlock()
}

func IncIssueCreation(outcome string) {
	defaultRegistry.mu.Lock()
	defaultRegistry.issueCreations[outcome]++
	defaultRegistry.mu.Unlock()
}

func IncScopeViolation() {
	defaultRegistry.mu.Lock()
	defaultRegistry.scopeViolations++
	defaultRegistry.mu.Unlock()
}

func IncScopeSubstitution() {
	defaultRegistry.mu.Lock()
	defaultRegistry.scopeSubstitutions++
	defaultRegistry.mu.Unlock()
}

func IncPollCycle(status string) {
	defaultRegistry.mu.Lock()
	defaultRegistry.pollCycles[status]++
	defaultRegistry.mu.Unlock()
}

func IncNotification() {
	defaultRegistry.mu.Lock()
	defaultRegistry.notifications++
	defaultRegistry.mu.Unlock()
}

func RenderPrometheus() string {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()

	var sb strings.Builder

	sb.WriteString("# TYPE trackhub_tool_calls_total counter\n")
	for _, tool := range sortedKeys(defaultRegistry.toolCalls) {
		for _, status := range sortedKeys(defaultRegistry.toolCalls[tool]) {
			sb.WriteString(fmt.Sprintf("trackhub_tool_calls_total{tool=\"%s\",status=\"%s\"} %d\n", tool, status, defaultRegistry.toolCalls[tool][status]))
		}
	}

	sb.WriteString("# TYPE trackhub_tool_duration_seconds_bucket counter\n")
	bucketLabels := []string{"0.1", "0.5", "1", "2", "5", "10", "30", "60", "+Inf"}
	for _, tool := range sortedKeys(defaultRegistry.toolDurationBuckets) {
		counts := defaultRegistry.toolDurationBuckets[tool]
		for i, v := range counts {
			sb.WriteString(fmt.Sprintf("trackhub_tool_duration_seconds_bucket{tool=\"%s\",le=\"%s\"} %d\n", tool, bucketLabels[i], v))
		}
	}

	sb.WriteString("# TYPE trackhub_api_errors_total counter\n")
	for _, op := range sortedKeys(defaultRegistry.apiErrors) {
		statusCodes := make([]int, 0, len(defaultRegistry.apiErrors[op]))
		for sc := range defaultRegistry.apiErrors[op] {
			statusCodes = append(statusCodes, sc)
		}
		sort.Ints(statusCodes)
		for _, sc := range statusCodes {
			sb.WriteString(fmt.Sprintf("trackhub_api_errors_total{operation=\"%s\",status_code=\"%d\"} %d\n", op, sc, defaultRegistry.apiErrors[op][sc]))
		}
	}

	sb.WriteString("# TYPE trackhub_commands_total counter\n")
	for _, status := range sortedKeys(defaultRegistry.commandResults) {
		sb.WriteString(fmt.Sprintf("trackhub_commands_total{status=\"%s\"} %d\n", status, defaultRegistry.commandResults[status]))
	}

	sb.WriteString("# TYPE trackhub_issue_creations_total counter\n")
	for _, outcome := range sortedKeys(defaultRegistry.issueCreations) {
		sb.WriteString(fmt.Sprintf("trackhub_issue_creations_total{outcome=\"%s\"} %d\n", outcome, defaultRegistry.issueCreations[outcome]))
	}

	sb.WriteString("# TYPE trackhub_scope_violations_total counter\n")
	sb.WriteString(fmt.Sprintf("trackhub_scope_violations_total %d\n", defaultRegistry.scopeViolations))

	sb.WriteString("# TYPE trackhub_scope_substitutions_total counter\n")
	sb.WriteString(fmt.Sprintf("trackhub_scope_substitutions_total %d\n", defaultRegistry.scopeSubstitutions))

	sb.WriteString("# TYPE trackhub_poll_cycles_total counter\n")
	for _, status := range sortedKeys(defaultRegistry.pollCycles) {
		sb.WriteString(fmt.Sprintf("trackhub_poll_cycles_total{status=\"%s\"} %d\n", status, defaultRegistry.pollCycles[status]))
	}

	sb.WriteString("# TYPE trackhub_notifications_total counter\n")
	sb.WriteString(fmt.Sprintf("trackhub_notifications_total %d\n", defaultRegistry.notifications))

	return sb.String()
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
