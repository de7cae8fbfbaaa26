// Package research implements Stage 2: resolving the hiring company and role and
// researching them with a tool-calling model.
package research

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/jonathan/interview-prep/internal/contract"
	"github.com/jonathan/interview-prep/internal/llm"
	"github.com/jonathan/interview-prep/internal/prompts"
	"github.com/jonathan/interview-prep/internal/retry"
	"github.com/jonathan/interview-prep/internal/types"
)

// Stub texts used when no company could be resolved.
const (
	StubOverview = "Company name not found in Stage 1 output. Provide a company name override."
	StubNotes    = "Missing company_name. Pass --company or supply a JD with company name."
)

// Researcher runs Stage 2.
type Researcher struct {
	Model        llm.ChatModel
	Searcher     Searcher
	Fetcher      PageFetcher
	MaxToolSteps int
	Retry        retry.Policy
	Verbose      bool
}

// NewResearcher returns a Researcher with default retry and step settings.
func NewResearcher(model llm.ChatModel, searcher Searcher, fetcher PageFetcher) *Researcher {
	return &Researcher{
		Model:        model,
		Searcher:     searcher,
		Fetcher:      fetcher,
		MaxToolSteps: llm.DefaultMaxToolSteps,
		Retry:        retry.DefaultPolicy("stage2 model call"),
	}
}

// Result is the Stage 2 output.
type Result struct {
	Report     *types.ResearchReport
	Resolution Resolution
	Trace      *Trace
	Loop       *llm.LoopResult
	Raw        string
}

// Research resolves the company and role from doc and the overrides, then researches them.
// An unresolved company yields a stub report without any search or model calls.
// An unrecoverable final reply is a *contract.Failure wrapped in the returned error.
func (r *Researcher) Research(ctx context.Context, doc *types.ParsedDocument, companyOverride, roleOverride string) (*Result, error) {
	res := ResolveCompanyAndRole(doc, companyOverride, roleOverride)
	if r.Verbose {
		log.Printf("[RESEARCH] company=%q role=%q", res.CompanyName, res.RoleTitle)
	}
	if res.CompanyName == "" {
		return &Result{Report: StubReport(res.RoleTitle), Resolution: res, Trace: &Trace{}}, nil
	}

	system, err := prompts.Get(prompts.ResearchFile, "system")
	if err != nil {
		return nil, err
	}
	payload, err := json.MarshalIndent(map[string]any{
		"company_name":    res.CompanyName,
		"role_title":      types.StringPtr(res.RoleTitle),
		"source_doc_type": docType(doc),
		"hint":            "Use web_search and fetch_url. Keep it concise. Always include sources.",
	}, "", "  ")
	if err != nil {
		return nil, err
	}
	prompt, err := prompts.Render(prompts.ResearchFile, "request", map[string]string{"Payload": string(payload)})
	if err != nil {
		return nil, err
	}

	trace := &Trace{}
	toolPolicy := r.Retry
	toolPolicy.Name = "stage2 tool call"
	tools := Tools(r.Searcher, r.Fetcher, toolPolicy, trace)

	chat := &llm.RetryingChat{
		Chat:   r.Model.StartChat(system, llm.Specs(tools), llm.TierStandard),
		Policy: r.Retry,
	}
	loop, err := llm.RunToolLoop(ctx, chat, prompt, tools, r.MaxToolSteps, r.Verbose)
	if err != nil {
		return &Result{Resolution: res, Trace: trace, Loop: loop}, fmt.Errorf("research loop failed: %w", err)
	}
	if r.Verbose {
		log.Printf("[RESEARCH] %d tool calls, exhausted=%t", loop.ToolCalls, loop.Exhausted)
	}

	result := &Result{Resolution: res, Trace: trace, Loop: loop, Raw: loop.Final}
	obj, err := contract.Recover(loop.Final)
	if err != nil {
		return result, err
	}
	result.Report = ReportFromRecord(obj, res)
	return result, nil
}

// StubReport is the report for an unresolved company.
func StubReport(role string) *types.ResearchReport {
	return &types.ResearchReport{
		CompanyName:      types.UnknownCompany,
		RoleTitle:        types.StringPtr(role),
		Overview:         StubOverview,
		MissionValues:    []string{},
		ProductsServices: []string{},
		BusinessModel:    []string{},
		InterviewFocus:   []string{},
		InterviewProcess: []string{},
		RecentNews:       []types.NewsItem{},
		Sources:          []string{},
		Notes:            types.StringPtr(StubNotes),
	}
}

// ReportFromRecord builds a report from a recovered object. Missing company and role
// fall back to the resolution; sources are de-duplicated and include every news URL.
func ReportFromRecord(obj map[string]any, res Resolution) *types.ResearchReport {
	report := &types.ResearchReport{
		CompanyName:      strings.TrimSpace(contract.AsString(obj["company_name"])),
		RoleTitle:        types.StringPtr(strings.TrimSpace(contract.AsString(obj["role_title"]))),
		Overview:         strings.TrimSpace(contract.AsString(obj["overview"])),
		MissionValues:    nonNil(contract.AsStringSlice(obj["mission_values"])),
		ProductsServices: nonNil(contract.AsStringSlice(obj["products_services"])),
		BusinessModel:    nonNil(contract.AsStringSlice(obj["business_model"])),
		InterviewFocus:   nonNil(contract.AsStringSlice(obj["interview_focus"])),
		InterviewProcess: nonNil(contract.AsStringSlice(obj["interview_process"])),
		RecentNews:       newsItems(obj["recent_news"]),
		Notes:            types.StringPtr(strings.TrimSpace(contract.AsString(obj["notes"]))),
	}
	if report.CompanyName == "" {
		report.CompanyName = res.CompanyName
	}
	if report.RoleTitle == nil {
		report.RoleTitle = types.StringPtr(res.RoleTitle)
	}

	sources := contract.AsStringSlice(obj["sources"])
	for _, n := range report.RecentNews {
		sources = append(sources, n.URL)
	}
	report.Sources = dedupe(sources)
	return report
}

func newsItems(v any) []types.NewsItem {
	list, _ := v.([]any)
	items := make([]types.NewsItem, 0, len(list))
	for _, entry := range list {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		item := types.NewsItem{
			Title:   strings.TrimSpace(contract.AsString(m["title"])),
			Source:  strings.TrimSpace(contract.AsString(m["source"])),
			Date:    types.StringPtr(strings.TrimSpace(contract.AsString(m["date"]))),
			URL:     strings.TrimSpace(contract.AsString(m["url"])),
			Summary: strings.TrimSpace(contract.AsString(m["summary"])),
		}
		if item.Title == "" && item.URL == "" {
			continue
		}
		if item.Source == "" {
			item.Source = domainOf(item.URL)
		}
		items = append(items, item)
	}
	return items
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func docType(doc *types.ParsedDocument) string {
	if doc == nil {
		return types.DocTypeUnknown
	}
	return doc.DocType
}
