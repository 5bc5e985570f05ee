package genai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vaxtrack/vaxtrack/internal/domain/patient"
)

const validDataset = `{
	"vaccines": [
		{"name":"Pfizer-BioNTech","manufacturer":"Pfizer Inc.","category":"mRNA","doses_required":2,"efficacy_pct":95.0,"in_stock":100},
		{"name":"Johnson & Johnson","manufacturer":"Janssen Pharmaceuticals","category":"Viral Vector","doses_required":1,"efficacy_pct":66.3,"in_stock":40}
	],
	"patients": [
		{"name":"Maria Rodriguez","age":29,"gender":"female","contact":"+1-555-0101","history":[]},
		{"name":"Tom Wilson","age":46,"gender":"male","contact":"+1-555-0102","history":[
			{"vaccine":"Pfizer-BioNTech","date":"2025-03-01"},
			{"vaccine":"Pfizer-BioNTech","date":"2025-03-22"}
		]},
		{"name":"Ben Taylor","age":61,"gender":"male","contact":"+1-555-0103","history":[
			{"vaccine":"Johnson & Johnson","date":"2025-04-10"}
		]}
	]
}`

func candidateResponse(text string) string {
	body, _ := json.Marshal(map[string]interface{}{
		"candidates": []map[string]interface{}{
			{"content": map[string]interface{}{"parts": []map[string]string{{"text": text}}}},
		},
	})
	return string(body)
}

func TestClient_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if !strings.Contains(r.URL.Path, "models/gemini-test:generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("missing api key in query")
		}
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.GenerationConfig.ResponseMIMEType != "application/json" {
			t.Errorf("expected JSON response mime type, got %q", req.GenerationConfig.ResponseMIMEType)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(candidateResponse(validDataset)))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", "gemini-test", 5*time.Second)
	snap, err := client.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if len(snap.Vaccines) != 2 {
		t.Fatalf("expected 2 vaccines, got %d", len(snap.Vaccines))
	}
	if len(snap.Patients) != 3 {
		t.Fatalf("expected 3 patients, got %d", len(snap.Patients))
	}

	byName := make(map[string]patient.Status)
	for _, p := range snap.Patients {
		byName[p.Name] = p.Status
	}
	if byName["Maria Rodriguez"] != patient.StatusNotVaccinated {
		t.Errorf("empty history should derive %q, got %q", patient.StatusNotVaccinated, byName["Maria Rodriguez"])
	}
	if byName["Tom Wilson"] != patient.StatusFullyVaccinated {
		t.Errorf("complete course should derive %q, got %q", patient.StatusFullyVaccinated, byName["Tom Wilson"])
	}
	if byName["Ben Taylor"] != patient.StatusFullyVaccinated {
		t.Errorf("single-dose course should derive %q, got %q", patient.StatusFullyVaccinated, byName["Ben Taylor"])
	}

	// History records must carry resolved catalog ids.
	for _, p := range snap.Patients {
		for _, rec := range p.History {
			found := false
			for _, v := range snap.Vaccines {
				if v.ID == rec.VaccineID {
					found = true
				}
			}
			if !found {
				t.Errorf("history record %q carries an id not in the catalog", rec.VaccineName)
			}
		}
	}
}

func TestClient_Generate_MissingKey(t *testing.T) {
	client := NewClient("http://localhost:0", "", "gemini-test", time.Second)
	if _, err := client.Generate(context.Background()); err == nil {
		t.Fatal("expected error when api key is missing")
	}
}

func TestClient_Generate_ServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"quota exceeded"}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", "gemini-test", time.Second)
	_, err := client.Generate(context.Background())
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("expected service error message to surface, got %v", err)
	}
}

func TestClient_Generate_NoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", "gemini-test", time.Second)
	if _, err := client.Generate(context.Background()); err == nil {
		t.Fatal("expected error for empty candidates")
	}
}

func TestClient_Generate_MalformedDataset(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"not json", "here is your dataset: {..."},
		{"no vaccines", `{"vaccines":[],"patients":[]}`},
		{"bad category", `{"vaccines":[{"name":"X","manufacturer":"Y","category":"Nasal","doses_required":1,"efficacy_pct":50,"in_stock":1}],"patients":[]}`},
		{"missing gender", `{"vaccines":[{"name":"X","manufacturer":"Y","category":"mRNA","doses_required":1,"efficacy_pct":50,"in_stock":1}],"patients":[{"name":"A","age":20,"gender":"","contact":"","history":[]}]}`},
		{"negative age", `{"vaccines":[{"name":"X","manufacturer":"Y","category":"mRNA","doses_required":1,"efficacy_pct":50,"in_stock":1}],"patients":[{"name":"A","age":-1,"gender":"male","contact":"","history":[]}]}`},
		{"unknown history vaccine", `{"vaccines":[{"name":"X","manufacturer":"Y","category":"mRNA","doses_required":1,"efficacy_pct":50,"in_stock":1}],"patients":[{"name":"A","age":20,"gender":"female","contact":"","history":[{"vaccine":"Z","date":"2025-01-01"}]}]}`},
		{"bad date", `{"vaccines":[{"name":"X","manufacturer":"Y","category":"mRNA","doses_required":1,"efficacy_pct":50,"in_stock":1}],"patients":[{"name":"A","age":20,"gender":"female","contact":"","history":[{"vaccine":"X","date":"January 1"}]}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(candidateResponse(tt.text)))
			}))
			defer srv.Close()

			client := NewClient(srv.URL, "test-key", "gemini-test", time.Second)
			if _, err := client.Generate(context.Background()); err == nil {
				t.Fatal("expected error for malformed dataset")
			}
		})
	}
}

func TestClient_Generate_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewClient(srv.URL, "test-key", "gemini-test", time.Second)
	if _, err := client.Generate(context.Background()); err == nil {
		t.Fatal("expected error for unreachable service")
	}
}
