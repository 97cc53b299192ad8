// Command report_compare replays report requests against two deployments and
// diffs the envelope data, e.g. before promoting a new build or timezone.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

type target struct {
	Method   string          `json:"method"`
	Path     string          `json:"path"`
	Body     json.RawMessage `json:"body,omitempty"`
	Critical bool            `json:"critical"`
}

type targetsFile struct {
	Targets []target `json:"targets"`
}

type comparison struct {
	Target            target
	BaselineStatus    int
	CandidateStatus   int
	StatusMatch       bool
	BodyMatch         bool
	Error             error
	DurationBaseline  time.Duration
	DurationCandidate time.Duration
}

type endpoint struct {
	base  string
	token string
}

func main() {
	var (
		baseline    endpoint
		candidate   endpoint
		targetsPath string
		timeout     time.Duration
	)

	flag.StringVar(&baseline.base, "baseline", "http://localhost:5000/api", "Baseline API base URL")
	flag.StringVar(&candidate.base, "candidate", "http://localhost:5050/api", "Candidate API base URL")
	flag.StringVar(&baseline.token, "baseline-token", os.Getenv("BASELINE_TOKEN"), "Bearer token for the baseline")
	flag.StringVar(&candidate.token, "candidate-token", os.Getenv("CANDIDATE_TOKEN"), "Bearer token for the candidate")
	flag.StringVar(&targetsPath, "targets", filepath.Join("scripts", "report_compare", "targets.json"), "Path to JSON targets file")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "HTTP client timeout")
	flag.Parse()

	targets, err := loadTargets(targetsPath)
	if err != nil {
		log.Fatalf("failed to load targets: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	comparisons := make([]comparison, len(targets))
	var g errgroup.Group
	g.SetLimit(4)
	for i, t := range targets {
		i, t := i, t
		g.Go(func() error {
			comparisons[i] = compareTarget(client, baseline, candidate, t)
			return nil
		})
	}
	_ = g.Wait()

	breaking, optionalDiff := tally(comparisons)
	printReport(comparisons)

	fmt.Printf("Breaking diffs: %d, Optional diffs: %d\n", breaking, optionalDiff)
	if breaking > 0 {
		os.Exit(1)
	}
}

func tally(comparisons []comparison) (breaking, optional int) {
	for _, comp := range comparisons {
		differs := comp.Error != nil || !comp.StatusMatch || !comp.BodyMatch
		switch {
		case !differs:
		case comp.Target.Critical:
			breaking++
		case comp.Error == nil:
			optional++
		}
	}
	return breaking, optional
}

func loadTargets(path string) ([]target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg targetsFile
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	return cfg.Targets, nil
}

func compareTarget(client *http.Client, baseline, candidate endpoint, tgt target) comparison {
	comp := comparison{Target: tgt}
	baseBody, baseStatus, baseDur, baseErr := fetch(client, baseline, tgt)
	candBody, candStatus, candDur, candErr := fetch(client, candidate, tgt)
	comp.DurationBaseline = baseDur
	comp.DurationCandidate = candDur

	if baseErr != nil {
		comp.Error = fmt.Errorf("baseline request failed: %w", baseErr)
		return comp
	}
	if candErr != nil {
		comp.Error = fmt.Errorf("candidate request failed: %w", candErr)
		return comp
	}

	comp.BaselineStatus = baseStatus
	comp.CandidateStatus = candStatus
	comp.StatusMatch = baseStatus == candStatus
	comp.BodyMatch = bodiesEqual(baseBody, candBody)
	return comp
}

func fetch(client *http.Client, ep endpoint, tgt target) ([]byte, int, time.Duration, error) {
	if client == nil {
		return nil, 0, 0, errors.New("nil client")
	}
	method := strings.ToUpper(strings.TrimSpace(tgt.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := tgt.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	var body io.Reader
	if len(tgt.Body) > 0 {
		body = bytes.NewReader(tgt.Body)
	}
	req, err := http.NewRequest(method, strings.TrimRight(ep.base, "/")+path, body)
	if err != nil {
		return nil, 0, 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if ep.token != "" {
		req.Header.Set("Authorization", "Bearer "+ep.token)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, 0, err
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, time.Since(start), fmt.Errorf("read body: %w", err)
	}
	return payload, resp.StatusCode, time.Since(start), nil
}

// bodiesEqual compares envelope payloads. The meta block carries timings and
// is ignored.
func bodiesEqual(a, b []byte) bool {
	if bytes.Equal(bytes.TrimSpace(a), bytes.TrimSpace(b)) {
		return true
	}

	var aj, bj interface{}
	if err := json.Unmarshal(a, &aj); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &bj); err != nil {
		return false
	}
	stripMeta(aj)
	stripMeta(bj)
	normalize(&aj)
	normalize(&bj)
	return reflect.DeepEqual(aj, bj)
}

func stripMeta(v interface{}) {
	if m, ok := v.(map[string]interface{}); ok {
		delete(m, "meta")
	}
}

func normalize(v *interface{}) {
	switch val := (*v).(type) {
	case map[string]interface{}:
		for k, v2 := range val {
			normalize(&v2)
			val[k] = v2
		}
	case []interface{}:
		for i, v2 := range val {
			normalize(&v2)
			val[i] = v2
		}
	case float64:
		if val == float64(int64(val)) {
			*v = int64(val)
		}
	}
}

func printReport(results []comparison) {
	fmt.Println("Report Compare")
	fmt.Println("==============")
	for _, res := range results {
		status := "OK"
		if res.Error != nil {
			status = "ERROR"
		} else if !res.StatusMatch || !res.BodyMatch {
			status = "DIFF"
		}
		fmt.Printf("[%s] %s %s\n", status, res.Target.Method, res.Target.Path)
		fmt.Printf("  Baseline: %d (%s)\n", res.BaselineStatus, res.DurationBaseline)
		fmt.Printf("  Candidate: %d (%s)\n", res.CandidateStatus, res.DurationCandidate)
		if res.Error != nil {
			fmt.Printf("  Error: %v\n", res.Error)
		} else {
			fmt.Printf("  Status match: %t | Body match: %t | Critical: %t\n", res.StatusMatch, res.BodyMatch, res.Target.Critical)
		}
	}
}
