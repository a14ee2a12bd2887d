package cmd

import (
	"strings"
	"testing"

	"appcatalog/internal/domain/catalog"
	"appcatalog/internal/ports"
)

func TestParseAppImport(t *testing.T) {
	raw := []byte(`
[[apps]]
name = "Desmos"
url = "https://www.desmos.com"
approval = "APPROVED"
platforms = ["WEB", "IOS"]
grades = ["6", "7"]
subjects = ["MATH"]

[[apps]]
name = "Padlet"
`)

	inputs, err := parseAppImport(raw)
	if err != nil {
		t.Fatalf("parseAppImport() error = %v", err)
	}
	if len(inputs) != 2 {
		t.Fatalf("len(inputs) = %d, want 2", len(inputs))
	}
	if inputs[0].Name != "Desmos" || inputs[0].Approval != "APPROVED" || len(inputs[0].Platforms) != 2 {
		t.Fatalf("inputs[0] = %+v", inputs[0])
	}
	if inputs[1].Name != "Padlet" {
		t.Fatalf("inputs[1] = %+v", inputs[1])
	}
}

func TestParseAppImportRejects(t *testing.T) {
	testCases := map[string]string{
		"empty":         ``,
		"unknown field": "[[apps]]\nname = \"x\"\ncolor = \"red\"\n",
		"bad toml":      "[[apps]\n",
	}
	for name, raw := range testCases {
		t.Run(name, func(t *testing.T) {
			if _, err := parseAppImport([]byte(raw)); err == nil {
				t.Fatalf("parseAppImport() expected error")
			}
		})
	}
}

func TestRenderAppsTable(t *testing.T) {
	out := renderAppsTable([]ports.App{{
		ID:        "a1",
		Name:      "Desmos",
		Approval:  catalog.ApprovalPending,
		Privacy:   catalog.PrivacyUnknown,
		Platforms: []catalog.Platform{catalog.PlatformWeb, catalog.PlatformIOS},
	}})

	for _, want := range []string{"NAME", "Desmos", "PENDING", "WEB,IOS"} {
		if !strings.Contains(out, want) {
			t.Fatalf("renderAppsTable() missing %q:\n%s", want, out)
		}
	}
	if got := renderAppsTable(nil); got != "no apps" {
		t.Fatalf("renderAppsTable(nil) = %q", got)
	}
}
