package codec

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"checksmtp/internal/domain"
)

func sampleRecord() domain.RunRecord {
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return domain.RunRecord{
		ID:         "run-1",
		Target:     "gmail",
		Hostname:   "smtp.gmail.com",
		Addresses:  []string{"192.0.2.10"},
		Policy:     domain.Suppressed("nodeXYZ", "exit node in use"),
		StartedAt:  started,
		FinishedAt: started.Add(1500 * time.Millisecond),
		Results: []domain.PortResult{
			{Spec: domain.PortAt(0), Outcome: domain.OutcomeOpenBanner, Banner: "220 smtp.gmail.com ESMTP", Elapsed: 40 * time.Millisecond},
			{Spec: domain.PortAt(1), Outcome: domain.OutcomeOpenBanner, Banner: "220 smtp.gmail.com ESMTP", Elapsed: 90 * time.Millisecond,
				TLS: &domain.TLSDetails{Version: "TLS 1.3", CipherSuite: "TLS_AES_128_GCM_SHA256"}},
			{Spec: domain.PortAt(2), Outcome: domain.OutcomeTimeout, Detail: "timeout"},
			{Spec: domain.PortAt(3), Outcome: domain.OutcomeSkipped, Detail: "exit node nodeXYZ"},
		},
	}
}

func TestForFormat(t *testing.T) {
	tests := []struct {
		format  string
		want    string
		wantErr bool
	}{
		{"json", "json", false},
		{"JSON", "json", false},
		{"yaml", "yaml", false},
		{"yml", "yaml", false},
		{"text", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			c, err := ForFormat(tt.format)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ForFormat(%q) expected error", tt.format)
				}
				return
			}
			if err != nil {
				t.Fatalf("ForFormat(%q) error: %v", tt.format, err)
			}
			if c.Format() != tt.want {
				t.Errorf("ForFormat(%q).Format() = %q, want %q", tt.format, c.Format(), tt.want)
			}
		})
	}
}

func TestForPath(t *testing.T) {
	if c, err := ForPath("/tmp/report.yaml"); err != nil || c.Format() != "yaml" {
		t.Errorf("ForPath(report.yaml) = %v, %v", c, err)
	}
	if c, err := ForPath("report.json"); err != nil || c.Format() != "json" {
		t.Errorf("ForPath(report.json) = %v, %v", c, err)
	}
	if _, err := ForPath("report"); err == nil {
		t.Error("ForPath without extension should fail")
	}
}

func TestExportShape(t *testing.T) {
	rec := sampleRecord()

	tests := []struct {
		name    string
		codec   Codec
		records []domain.RunRecord
		prefix  string
	}{
		{"json single", NewJSONCodec(), []domain.RunRecord{rec}, "{"},
		{"json list", NewJSONCodec(), []domain.RunRecord{rec, rec}, "["},
		{"json empty", NewJSONCodec(), nil, "[]"},
		{"yaml single", NewYAMLCodec(), []domain.RunRecord{rec}, "id: run-1"},
		{"yaml list", NewYAMLCodec(), []domain.RunRecord{rec, rec}, "- id: run-1"},
		{"yaml empty", NewYAMLCodec(), nil, "[]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := tt.codec.Export(tt.records, &buf); err != nil {
				t.Fatalf("Export error: %v", err)
			}
			if !strings.HasPrefix(buf.String(), tt.prefix) {
				t.Errorf("Export output starts %q, want prefix %q", firstLine(buf.String()), tt.prefix)
			}
		})
	}
}

func TestJSONFields(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONCodec().Export([]domain.RunRecord{sampleRecord()}, &buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{
		`"target": "gmail"`,
		`"hostname": "smtp.gmail.com"`,
		`"verdict": "suppressed"`,
		`"exit_node": "nodeXYZ"`,
		`"outcome": "skipped"`,
		`"cipher_suite": "TLS_AES_128_GCM_SHA256"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("JSON output missing %s", want)
		}
	}
	if strings.Contains(out, "resolution_error") {
		t.Error("empty resolution error should be omitted")
	}
}

func TestParseReadsExports(t *testing.T) {
	rec := sampleRecord()

	for _, c := range []Codec{NewJSONCodec(), NewYAMLCodec()} {
		t.Run(c.Format(), func(t *testing.T) {
			var buf bytes.Buffer
			if err := c.Export([]domain.RunRecord{rec, rec}, &buf); err != nil {
				t.Fatal(err)
			}

			got, err := c.Parse(&buf)
			if err != nil {
				t.Fatalf("Parse error: %v", err)
			}
			if len(got) != 2 {
				t.Fatalf("Parse returned %d records, want 2", len(got))
			}
			if got[0].Hostname != rec.Hostname || len(got[0].Results) != domain.PortCount {
				t.Errorf("Parse lost data: %+v", got[0])
			}
			if got[0].Results[3].Outcome != domain.OutcomeSkipped {
				t.Errorf("port 25 outcome = %s, want skipped", got[0].Results[3].Outcome)
			}
			if got[0].Results[1].Elapsed != 90*time.Millisecond {
				t.Errorf("elapsed = %v, want 90ms", got[0].Results[1].Elapsed)
			}
			if !got[0].StartedAt.Equal(rec.StartedAt) {
				t.Errorf("started_at = %v, want %v", got[0].StartedAt, rec.StartedAt)
			}
		})
	}
}

func TestParseSingleObject(t *testing.T) {
	yamlDoc := "id: abc\ntarget: example.org\nresolution_error: 'resolve example.org: no addresses found'\n"
	got, err := NewYAMLCodec().Parse(strings.NewReader(yamlDoc))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || !got[0].Failed() {
		t.Errorf("Parse = %+v, want one failed record", got)
	}

	jsonDoc := `  {"id": "abc", "target": "example.org", "results": []}`
	got, err = NewJSONCodec().Parse(strings.NewReader(jsonDoc))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "abc" {
		t.Errorf("Parse = %+v, want record abc", got)
	}
}

func TestParseMalformed(t *testing.T) {
	if _, err := NewJSONCodec().Parse(strings.NewReader("{not json")); err == nil {
		t.Error("expected JSON parse error")
	}
	if _, err := NewYAMLCodec().Parse(strings.NewReader("id: [unterminated")); err == nil {
		t.Error("expected YAML parse error")
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
