package script

import (
	"strings"
	"testing"
)

func TestParseOrderedOps(t *testing.T) {
	src := `
await page.goto('https://example.com/form');
await page.getByRole('textbox', { name: 'Email' }).fill('user@example.com');
await page.locator('#country').selectOption('DE');
await page.locator('.row').nth(2).fill('42');
await page.getByText('Continue').first().click();
await page.keyboard.press('Enter');
await page.waitForTimeout(1500);
`
	ops, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	wantKinds := []string{OpGoto, OpRoleFill, OpSelectOption, OpFillNth, OpTextClick, OpKeyPress, OpWait}
	if len(ops) != len(wantKinds) {
		t.Fatalf("parsed %d ops, want %d: %+v", len(ops), len(wantKinds), ops)
	}
	for i, kind := range wantKinds {
		if ops[i].Kind != kind {
			t.Fatalf("op %d kind = %s, want %s", i, ops[i].Kind, kind)
		}
	}

	if ops[0].Value != "https://example.com/form" {
		t.Fatalf("goto target = %q", ops[0].Value)
	}
	if ops[1].Role != "textbox" || ops[1].Name != "Email" || ops[1].Value != "user@example.com" {
		t.Fatalf("role fill = %+v", ops[1])
	}
	if ops[3].Selector != ".row" || ops[3].Index != 2 || ops[3].Value != "42" {
		t.Fatalf("nth fill = %+v", ops[3])
	}
	if ops[6].WaitMS != 1500 {
		t.Fatalf("wait = %+v", ops[6])
	}
}

func TestParseLocatorForms(t *testing.T) {
	cases := []struct {
		stmt string
		kind string
	}{
		{`await page.click('#go')`, OpClick},
		{`await page.fill('#q', 'books')`, OpFill},
		{`await page.locator('#go').click()`, OpClick},
		{`await page.locator('.item').first().click()`, OpClickFirst},
		{`await page.locator('#q').fill('books')`, OpFill},
		{`await page.locator('#q').first().fill('books')`, OpFillNth},
		{`await page.selectOption('#lang', 'go')`, OpSelectOption},
		{`await page.keyboard.type('hello')`, OpKeyType},
		{`await page.getByText('Accept').click()`, OpTextClick},
	}
	for _, tc := range cases {
		ops, err := Parse(tc.stmt)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tc.stmt, err)
		}
		if len(ops) != 1 || ops[0].Kind != tc.kind {
			t.Fatalf("Parse(%q) = %+v, want kind %s", tc.stmt, ops, tc.kind)
		}
	}
}

func TestParseRejectsUnknownStatement(t *testing.T) {
	_, err := Parse(`await page.frobnicate('x')`)
	if err == nil {
		t.Fatal("expected error for unknown statement")
	}
	if !strings.Contains(err.Error(), "frobnicate") {
		t.Fatalf("error does not name the statement: %v", err)
	}
}

func TestValidateEmptyScript(t *testing.T) {
	if err := Validate(""); err != nil {
		t.Fatalf("empty script must be valid: %v", err)
	}
}

func TestExpand(t *testing.T) {
	src := `await page.fill('#user', '{{username}}'); await page.fill('#pass', '${password}')`
	got := Expand(src, map[string]string{"username": "alice", "password": "s3cret"})
	want := `await page.fill('#user', 'alice'); await page.fill('#pass', 's3cret')`
	if got != want {
		t.Fatalf("Expand = %q, want %q", got, want)
	}

	if got := Expand(src, nil); got != src {
		t.Fatal("Expand without variables must be a no-op")
	}
}
