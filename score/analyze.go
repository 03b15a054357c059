package score

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// The result files are flat KEY:value text emitted by the validation test
// scripts, plus one JSON file from the HIPAA test runner.
var (
	reHTTPStatus = regexp.MustCompile(`HTTP_STATUS:(\d+)`)
	reTimeTotal  = regexp.MustCompile(`TIME_TOTAL:([\d.]+)`)
	reAvgDur     = regexp.MustCompile(`http_req_duration.*?avg=([\d.]+)ms`)
	reP95Dur     = regexp.MustCompile(`http_req_duration.*?p\(95\)=([\d.]+)ms`)
	reChecksOK   = regexp.MustCompile(`checks_succeeded.*?(\d+\.\d+)%`)
)

// statusAcceptable 401 counts as success for authenticated endpoints; it
// shows the deployment is live and protected
func statusAcceptable(line string) bool {
	return strings.Contains(line, "STATUS:200") || strings.Contains(line, "STATUS:401")
}

func (v *Validator) read(name string) (string, bool) {
	b, err := os.ReadFile(filepath.Join(v.dir, name))
	if err != nil {
		return "", false
	}
	return string(b), true
}

// lineRatio counts the marked lines that pass statusAcceptable
func lineRatio(content, marker string) (passed, total int) {
	for _, line := range strings.Split(content, "\n") {
		if !strings.Contains(line, marker) {
			continue
		}
		total++
		if statusAcceptable(line) {
			passed++
		}
	}
	return passed, total
}

func (v *Validator) analyzeDeployment() (score float64, details []string) {
	content, ok := v.read("deployment_accessibility.txt")
	if !ok {
		return 0, []string{"deployment_accessibility.txt missing"}
	}

	if m := reHTTPStatus.FindStringSubmatch(content); m != nil &&
		(m[1] == "200" || m[1] == "401") {
		score += 50
		details = append(details, fmt.Sprintf("live URL accessible (%s)", m[1]))
	} else {
		details = append(details, "live URL not accessible")
	}

	if m := reTimeTotal.FindStringSubmatch(content); m != nil {
		if t, err := strconv.ParseFloat(m[1], 64); err == nil && t < 2.0 {
			score += 25
			details = append(details, fmt.Sprintf("response time %ss", m[1]))
		} else {
			details = append(details, "slow response time")
		}
	}

	if apis, ok := v.read("api_endpoints.txt"); ok {
		passed, total := lineRatio(apis, "ENDPOINT:")
		if total > 0 {
			score += float64(passed) / float64(total) * 25
			details = append(details, fmt.Sprintf("API endpoints: %d/%d responding", passed, total))
		}
	}

	return score, details
}

func (v *Validator) analyzeSecurity() (score float64, details []string) {
	content, ok := v.read("security_headers.txt")
	if !ok {
		return 0, []string{"security_headers.txt missing"}
	}

	var present, total int
	for _, line := range strings.Split(content, "\n") {
		if !strings.Contains(line, "HEADER:") {
			continue
		}
		total++
		if strings.Contains(line, "STATUS:PRESENT") {
			present++
		}
	}

	if total > 0 {
		score += float64(present) / float64(total) * 70
		details = append(details, fmt.Sprintf("security headers: %d/%d present", present, total))
	}

	if raw, ok := v.read("security_headers_raw.txt"); ok {
		lower := strings.ToLower(raw)
		if strings.Contains(lower, "strict-transport-security") {
			score += 10
			details = append(details, "HSTS header active")
		}
		if strings.Contains(lower, "x-frame-options") {
			score += 10
			details = append(details, "X-Frame-Options active")
		}
		if strings.Contains(lower, "secure; httponly") {
			score += 10
			details = append(details, "secure cookie configuration")
		}
	}

	return score, details
}

func (v *Validator) analyzeHIPAA() (score float64, details []string) {
	content, ok := v.read("hipaa_tests.json")
	if !ok {
		return 0, []string{"hipaa_tests.json missing"}
	}

	var results struct {
		Success        bool `json:"success"`
		NumPassedTests int  `json:"numPassedTests"`
		NumTotalTests  int  `json:"numTotalTests"`
	}
	if err := json.Unmarshal([]byte(content), &results); err != nil {
		return 0, []string{"hipaa_tests.json unparsable"}
	}

	if results.Success && results.NumTotalTests > 0 {
		testScore := float64(results.NumPassedTests) / float64(results.NumTotalTests) * 100
		score += testScore * 0.7
		details = append(details, fmt.Sprintf("HIPAA tests: %d/%d passed",
			results.NumPassedTests, results.NumTotalTests))
	} else {
		details = append(details, "no passing HIPAA test run recorded")
	}

	if endpoints, ok := v.read("hipaa_endpoints.txt"); ok {
		passed, total := lineRatio(endpoints, "ENDPOINT:")
		if total > 0 {
			score += float64(passed) / float64(total) * 30
			details = append(details, fmt.Sprintf("HIPAA endpoints: %d/%d responding", passed, total))
		}
	}

	return score, details
}

func (v *Validator) analyzePerformance() (score float64, details []string) {
	content, ok := v.read("performance_output.txt")
	if !ok {
		// Fall back to the basic curl timing when no load test ran
		basic, ok := v.read("deployment_accessibility.txt")
		if !ok {
			return 0, []string{"no performance data available"}
		}
		if m := reTimeTotal.FindStringSubmatch(basic); m != nil {
			if t, err := strconv.ParseFloat(m[1], 64); err == nil && t < 1.0 {
				return 85, []string{fmt.Sprintf("basic response time %ss", m[1])}
			}
		}
		return 60, []string{"performance needs optimization"}
	}

	if m := reAvgDur.FindStringSubmatch(content); m != nil {
		avg, _ := strconv.ParseFloat(m[1], 64)
		switch {
		case avg < 25:
			score += 50
		case avg < 50:
			score += 40
		case avg < 100:
			score += 25
		}
		details = append(details, fmt.Sprintf("average response time %.2fms", avg))
	}

	if m := reP95Dur.FindStringSubmatch(content); m != nil {
		p95, _ := strconv.ParseFloat(m[1], 64)
		switch {
		case p95 < 50:
			score += 40
		case p95 < 100:
			score += 30
		}
		details = append(details, fmt.Sprintf("95th percentile %.2fms", p95))
	}

	if m := reChecksOK.FindStringSubmatch(content); m != nil {
		rate, _ := strconv.ParseFloat(m[1], 64)
		switch {
		case rate == 100.0:
			score += 10
		case rate > 95:
			score += 8
		}
		details = append(details, fmt.Sprintf("performance checks %.1f%%", rate))
	}

	return score, details
}

func (v *Validator) analyzeIntegration() (score float64, details []string) {
	content, ok := v.read("integration_tests.txt")
	if !ok {
		return 0, []string{"integration_tests.txt missing"}
	}

	var passed, total int
	for _, line := range strings.Split(content, "\n") {
		if !strings.Contains(line, "ENDPOINT:") && !strings.Contains(line, "DB_TEST") {
			continue
		}
		total++
		if statusAcceptable(line) {
			passed++
		}
	}

	if total == 0 {
		return 0, []string{"no integration tests found"}
	}

	score = float64(passed) / float64(total) * 100
	details = append(details, fmt.Sprintf("integration tests: %d/%d successful", passed, total))

	return score, details
}
