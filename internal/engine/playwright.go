// Package engine drives a real browser through playwright-go. It is the
// concrete automation backend behind core.Engine; the queue core never
// depends on anything in here.
package engine

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"sync"
	"time"

	pw "github.com/playwright-community/playwright-go"

	"scrapeq/internal/core"
	"scrapeq/internal/script"
)

const snapshotLimit = 20000

// SnapshotError carries the page HTML at the moment a scrape failed so the
// worker can persist it for later diagnosis.
type SnapshotError struct {
	Err  error
	HTML string
}

func (e *SnapshotError) Error() string    { return e.Err.Error() }
func (e *SnapshotError) Unwrap() error    { return e.Err }
func (e *SnapshotError) Snapshot() string { return e.HTML }

// Playwright is the chromium-backed automation engine.
type Playwright struct {
	browserPath string
	installOnce sync.Once
}

// NewPlaywright returns an engine launching chromium, optionally from an
// explicit executable path.
func NewPlaywright(browserPath string) *Playwright {
	return &Playwright{browserPath: browserPath}
}

// Execute runs one scrape: navigate, apply the script's ops in order, wait
// for the page to settle, then extract the result. Each call gets a fresh
// browser so jobs cannot leak state into each other.
func (e *Playwright) Execute(ctx context.Context, req core.Request) (core.Result, error) {
	e.installOnce.Do(func() {
		if err := pw.Install(&pw.RunOptions{Browsers: []string{"chromium"}}); err != nil {
			log.Printf("[engine] playwright install: %v", err)
		}
	})

	ops, err := script.Parse(script.Expand(req.Script, req.Variables))
	if err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}

	runner, err := pw.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}
	defer runner.Stop()

	opts := pw.BrowserTypeLaunchOptions{Headless: pw.Bool(true)}
	if e.browserPath != "" {
		opts.ExecutablePath = pw.String(e.browserPath)
	}
	browser, err := runner.Chromium.Launch(opts)
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	defer browser.Close()

	page, err := browser.NewPage()
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer page.Close()

	// Let every locator wait inherit the job deadline instead of the
	// playwright default.
	if deadline, ok := ctx.Deadline(); ok {
		page.SetDefaultTimeout(float64(time.Until(deadline).Milliseconds()))
	}

	if _, err := page.Goto(req.URL, pw.PageGotoOptions{WaitUntil: pw.WaitUntilStateLoad}); err != nil {
		return nil, fmt.Errorf("navigate to %s: %w", req.URL, err)
	}

	for i, op := range ops {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := applyOp(page, op); err != nil {
			return nil, &SnapshotError{
				Err:  fmt.Errorf("op %d/%d (%s): %w", i+1, len(ops), op.Kind, err),
				HTML: pageSnapshot(page),
			}
		}
	}

	// Dynamic content often lands after the last interaction.
	_ = page.WaitForLoadState(pw.PageWaitForLoadStateOptions{State: pw.LoadStateNetworkidle})

	return extract(page, req), nil
}

func applyOp(page pw.Page, op script.Op) error {
	switch op.Kind {
	case script.OpGoto:
		_, err := page.Goto(op.Value, pw.PageGotoOptions{WaitUntil: pw.WaitUntilStateLoad})
		return err
	case script.OpClick:
		return page.Locator(op.Selector).Click()
	case script.OpClickFirst:
		return page.Locator(op.Selector).First().Click()
	case script.OpFill:
		return page.Locator(op.Selector).Fill(op.Value)
	case script.OpFillNth:
		return page.Locator(op.Selector).Nth(op.Index).Fill(op.Value)
	case script.OpRoleClick:
		return page.GetByRole(pw.AriaRole(op.Role), pw.PageGetByRoleOptions{Name: op.Name}).Click()
	case script.OpRoleFill:
		return page.GetByRole(pw.AriaRole(op.Role), pw.PageGetByRoleOptions{Name: op.Name}).Fill(op.Value)
	case script.OpTextClick:
		return page.GetByText(op.Text).First().Click()
	case script.OpSelectOption:
		values := []string{op.Value}
		_, err := page.Locator(op.Selector).First().SelectOption(pw.SelectOptionValues{Values: &values})
		return err
	case script.OpKeyPress:
		return page.Keyboard().Press(op.Value)
	case script.OpKeyType:
		return page.Keyboard().Type(op.Value)
	case script.OpWait:
		ms := op.WaitMS
		if ms <= 0 {
			ms = 500
		}
		time.Sleep(time.Duration(ms) * time.Millisecond)
		return nil
	default:
		return fmt.Errorf("unknown op kind %q", op.Kind)
	}
}

// extract gathers the structured result: page metadata, the explicit
// extractions (CSS selector first, regex over the raw HTML as fallback) and
// optionally the full page HTML.
func extract(page pw.Page, req core.Request) core.Result {
	result := core.Result{}
	result["page_url"] = page.URL()
	if title, err := page.Title(); err == nil {
		result["page_title"] = title
	}

	rawHTML, _ := page.Content()

	for name, sel := range req.Extractions {
		locator := page.Locator(sel).First()
		if count, err := locator.Count(); err == nil && count > 0 {
			if text, err := locator.TextContent(); err == nil && strings.TrimSpace(text) != "" {
				result[name] = strings.TrimSpace(text)
				continue
			}
		}
		if value, ok := regexExtract(rawHTML, sel); ok {
			result[name] = value
		}
	}

	if req.GetHTML {
		result["html"] = rawHTML
	}
	return result
}

// Extraction values double as regexes when they are not CSS selectors that
// match anything on the page.
func regexExtract(html, expr string) (string, bool) {
	re, err := regexp.Compile("(?is)" + expr)
	if err != nil {
		return "", false
	}
	m := re.FindStringSubmatch(html)
	if m == nil {
		return "", false
	}
	if len(m) > 1 {
		return strings.TrimSpace(m[1]), true
	}
	return strings.TrimSpace(m[0]), true
}

func pageSnapshot(page pw.Page) string {
	html, err := page.Content()
	if err != nil {
		return ""
	}
	if len(html) > snapshotLimit {
		html = html[:snapshotLimit] + "...(truncated)"
	}
	return html
}
