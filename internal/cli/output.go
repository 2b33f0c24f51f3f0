package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/studiowebux/reqflow/internal/bulk"
	"github.com/studiowebux/reqflow/internal/executor"
	"github.com/studiowebux/reqflow/internal/reports"
	"github.com/studiowebux/reqflow/internal/types"
	"gopkg.in/yaml.v3"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	bannerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1).Border(lipgloss.RoundedBorder())
)

// outputFormat picks the format, defaulting to text
func outputFormat(format string) string {
	switch strings.ToLower(format) {
	case "json", "yaml", "body":
		return strings.ToLower(format)
	case "yml":
		return "yaml"
	default:
		return "text"
	}
}

func marshal(v any, format string) (string, error) {
	switch format {
	case "json":
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data) + "\n", nil
	case "yaml":
		data, err := yaml.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	return "", fmt.Errorf("unsupported output format: %s", format)
}

func statusStyle(status int) lipgloss.Style {
	switch {
	case executor.IsSuccessStatus(status):
		return successStyle
	case status == 0, executor.IsClientErrorStatus(status), executor.IsServerErrorStatus(status):
		return failureStyle
	default:
		return warningStyle
	}
}

// formatResult formats the result based on the output format
func formatResult(result *types.RequestResult, format string, showFull bool) (string, error) {
	switch format {
	case "json", "yaml":
		return marshal(result, format)

	case "body":
		return result.Body, nil
	}

	var sb strings.Builder

	statusText := result.StatusText
	if statusText == "" {
		statusText = fmt.Sprintf("%d", result.StatusCode)
	}
	sb.WriteString(statusStyle(result.StatusCode).Render(statusText))
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("Duration: %s | Size: %s\n",
		executor.FormatDuration(result.DurationMs),
		executor.FormatSize(result.BodyBytes)))

	if showFull && len(result.Headers) > 0 {
		sb.WriteString("\nHeaders:\n")
		keys := make([]string, 0, len(result.Headers))
		for k := range result.Headers {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteString(fmt.Sprintf("  %s: %s\n", k, result.Headers[k]))
		}
	}

	if result.Body != "" {
		if showFull {
			sb.WriteString("\nBody:\n")
		} else {
			sb.WriteString("\n")
		}
		sb.WriteString(result.Body)
		sb.WriteString("\n")
	}

	if result.Error != "" {
		sb.WriteString("\n")
		sb.WriteString(failureStyle.Render("Error: " + result.Error))
		sb.WriteString("\n")
	}

	return sb.String(), nil
}

// progressLine is printed as each bulk item settles
func progressLine(name string, result *types.RequestResult) string {
	mark := successStyle.Render("✓")
	if bulk.Classify(result) == bulk.StatusFailed {
		mark = failureStyle.Render("✗")
	}
	return fmt.Sprintf("%s %-30s %3d  %s", mark, name, result.StatusCode, executor.FormatDuration(result.DurationMs))
}

// formatReport renders a bulk report. names maps item IDs to display names.
func formatReport(report *bulk.Report, names map[string]string, format string) (string, error) {
	if format != "text" && format != "body" {
		return marshal(report, format)
	}

	var sb strings.Builder
	for i, item := range report.Items {
		label := item.ID
		if n := names[item.ID]; n != "" {
			label = n
		}
		status := successStyle.Render("PASS")
		if item.Status == bulk.StatusFailed {
			status = failureStyle.Render("FAIL")
		}
		sb.WriteString(fmt.Sprintf("%3d. %s %-30s %3d  %8s", i+1, status, label, item.StatusCode,
			executor.FormatDuration(item.DurationMs)))
		if item.Error != "" {
			sb.WriteString("  ")
			sb.WriteString(dimStyle.Render(item.Error))
		}
		sb.WriteString("\n")
	}

	stats := report.Stats()
	summary := fmt.Sprintf("Total: %d  Passed: %d  Failed: %d  Duration: %s",
		report.Total, report.Passed, report.Failed, executor.FormatDuration(report.DurationMs))
	if stats.Count > 0 {
		summary += fmt.Sprintf("\nAvg: %s  P50: %s  P95: %s  P99: %s",
			executor.FormatDuration(stats.AvgDurationMs()),
			executor.FormatDuration(stats.P50()),
			executor.FormatDuration(stats.P95()),
			executor.FormatDuration(stats.P99()))
	}

	banner := bannerStyle.BorderForeground(lipgloss.Color("2"))
	if !report.OK() {
		banner = bannerStyle.BorderForeground(lipgloss.Color("1"))
	}
	sb.WriteString(banner.Render(summary))
	sb.WriteString("\n")
	return sb.String(), nil
}

func formatVars(out []VarsReport, format string) (string, error) {
	if format != "text" && format != "body" {
		return marshal(out, format)
	}

	var sb strings.Builder
	for _, v := range out {
		if len(v.Unresolved) == 0 {
			sb.WriteString(fmt.Sprintf("%s %s\n", successStyle.Render("✓"), v.Name))
			continue
		}
		sb.WriteString(fmt.Sprintf("%s %s: %s\n", warningStyle.Render("!"), v.Name, strings.Join(v.Unresolved, ", ")))
	}
	return sb.String(), nil
}

// formatRequest prints a rendered request in .http form
func formatRequest(req *types.HttpRequest, format string) (string, error) {
	if format != "text" && format != "body" {
		return marshal(req, format)
	}

	var sb strings.Builder
	if req.Name != "" {
		sb.WriteString("### " + req.Name + "\n")
	}
	sb.WriteString(fmt.Sprintf("%s %s\n", req.Method, req.URL))
	for _, h := range req.Headers {
		if !h.IsEnabled() {
			continue
		}
		sb.WriteString(fmt.Sprintf("%s: %s\n", h.Key, h.Value))
	}

	switch req.BodyMode {
	case types.BodyModeFormURLEncoded, types.BodyModeFormData:
		sb.WriteString("\n")
		for _, f := range req.FormBody {
			if !f.IsEnabled() {
				continue
			}
			value := f.Value
			if f.IsFile() {
				value = "@" + f.FilePath
			}
			sb.WriteString(fmt.Sprintf("%s=%s\n", f.Key, value))
		}
	case types.BodyModeBinary:
		if req.Binary != nil && req.Binary.FilePath != "" {
			sb.WriteString("\n< " + req.Binary.FilePath + "\n")
		}
	default:
		if req.Body != "" {
			sb.WriteString("\n" + req.Body + "\n")
		}
	}
	return sb.String(), nil
}

func formatRuns(runs []*reports.Summary, format string) (string, error) {
	if format != "text" && format != "body" {
		if runs == nil {
			runs = []*reports.Summary{}
		}
		return marshal(runs, format)
	}
	if len(runs) == 0 {
		return "No bulk runs recorded\n", nil
	}

	var sb strings.Builder
	for _, r := range runs {
		status := successStyle.Render("PASS")
		if r.Failed > 0 {
			status = failureStyle.Render("FAIL")
		}
		where := r.Collection
		if r.Folder != "" {
			where += "/" + r.Folder
		}
		sb.WriteString(fmt.Sprintf("#%-5d %s %s  %d/%d passed  %s  %s\n",
			r.ID, status, r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Passed, r.Total, executor.FormatDuration(r.DurationMs), where))
	}
	return sb.String(), nil
}
