// Package genai produces the initial dashboard snapshot. The primary source
// is a single call to an external generative AI service that fabricates a
// consistent mock dataset; a deterministic seeded source covers development
// and tests. Either way the result is one opaque request/response exchange
// with no partial or streamed results.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/vaxtrack/vaxtrack/internal/domain/dashboard"
	"github.com/vaxtrack/vaxtrack/internal/domain/patient"
	"github.com/vaxtrack/vaxtrack/internal/domain/vaccine"
)

// Source produces one initial snapshot, or fails with a reason suitable for
// showing to a person.
type Source interface {
	Generate(ctx context.Context) (*dashboard.Snapshot, error)
}

// ---------------------------------------------------------------------------
// Wire types — the JSON shape the model is asked to emit
// ---------------------------------------------------------------------------

type wireVaccine struct {
	Name          string  `json:"name"`
	Manufacturer  string  `json:"manufacturer"`
	Category      string  `json:"category"`
	DosesRequired int     `json:"doses_required"`
	EfficacyPct   float64 `json:"efficacy_pct"`
	InStock       int     `json:"in_stock"`
}

type wireRecord struct {
	Vaccine string `json:"vaccine"`
	Date    string `json:"date"`
}

type wirePatient struct {
	Name    string       `json:"name"`
	Age     int          `json:"age"`
	Gender  string       `json:"gender"`
	Contact string       `json:"contact"`
	History []wireRecord `json:"history"`
}

type wireSnapshot struct {
	Vaccines []wireVaccine `json:"vaccines"`
	Patients []wirePatient `json:"patients"`
}

const snapshotPrompt = `Generate a mock dataset for a vaccination tracking dashboard as a single JSON object with this exact shape:
{"vaccines":[{"name":string,"manufacturer":string,"category":"mRNA"|"Viral Vector"|"Inactivated Virus","doses_required":int,"efficacy_pct":number,"in_stock":int}],"patients":[{"name":string,"age":int,"gender":string,"contact":string,"history":[{"vaccine":string,"date":"YYYY-MM-DD"}]}]}
Include 5 real COVID-19 vaccines and 12 patients with varied ages and histories of 0 to 3 doses. Every history entry's "vaccine" must be the name of one of the listed vaccines. Respond with JSON only.`

// ---------------------------------------------------------------------------
// Client — Gemini-style generateContent call
// ---------------------------------------------------------------------------

// Client calls a generateContent endpoint once per Generate. The call is not
// retried internally; retry is a caller decision.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type promptPart struct {
	Text string `json:"text"`
}

type promptContent struct {
	Parts []promptPart `json:"parts"`
}

type generateRequest struct {
	Contents         []promptContent `json:"contents"`
	GenerationConfig struct {
		ResponseMIMEType string `json:"responseMimeType"`
	} `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content promptContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) Generate(ctx context.Context) (*dashboard.Snapshot, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("GENAI_API_KEY is not configured")
	}

	reqBody := generateRequest{
		Contents: []promptContent{{Parts: []promptPart{{Text: snapshotPrompt}}}},
	}
	reqBody.GenerationConfig.ResponseMIMEType = "application/json"

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("encode generation request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generation service unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read generation response: %w", err)
	}

	var genResp generateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return nil, fmt.Errorf("decode generation response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if genResp.Error != nil && genResp.Error.Message != "" {
			return nil, fmt.Errorf("generation service error: %s", genResp.Error.Message)
		}
		return nil, fmt.Errorf("generation service returned status %d", resp.StatusCode)
	}
	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("generation service returned no candidates")
	}

	var wire wireSnapshot
	if err := json.Unmarshal([]byte(genResp.Candidates[0].Content.Parts[0].Text), &wire); err != nil {
		return nil, fmt.Errorf("generated dataset is not valid JSON: %w", err)
	}
	return buildSnapshot(wire)
}

// buildSnapshot converts the wire dataset into domain entities, assigning
// ids server-side and deriving each patient's status. The snapshot's
// statistics are left nil; the dashboard recomputes them on apply.
func buildSnapshot(wire wireSnapshot) (*dashboard.Snapshot, error) {
	if len(wire.Vaccines) == 0 {
		return nil, fmt.Errorf("generated dataset has no vaccines")
	}

	snap := &dashboard.Snapshot{}
	idsByName := make(map[string]uuid.UUID, len(wire.Vaccines))
	reqs := make([]patient.Requirement, 0, len(wire.Vaccines))

	for _, wv := range wire.Vaccines {
		v := &vaccine.Vaccine{
			ID:            uuid.New(),
			Name:          wv.Name,
			Manufacturer:  wv.Manufacturer,
			Category:      vaccine.Category(wv.Category),
			DosesRequired: wv.DosesRequired,
			EfficacyPct:   wv.EfficacyPct,
			InStock:       wv.InStock,
		}
		if err := vaccine.Validate(v); err != nil {
			return nil, fmt.Errorf("generated vaccine %q is malformed: %w", wv.Name, err)
		}
		snap.Vaccines = append(snap.Vaccines, v)
		if _, taken := idsByName[v.Name]; !taken {
			idsByName[v.Name] = v.ID
		}
		reqs = append(reqs, patient.Requirement{VaccineID: v.ID, Name: v.Name, Doses: v.DosesRequired})
	}

	set, err := patient.NewRequirementSet(reqs)
	if err != nil {
		return nil, fmt.Errorf("generated catalog is malformed: %w", err)
	}

	for _, wp := range wire.Patients {
		p := &patient.Patient{
			ID:      uuid.New(),
			Name:    wp.Name,
			Age:     wp.Age,
			Gender:  wp.Gender,
			Contact: wp.Contact,
		}
		if err := patient.Validate(p); err != nil {
			return nil, fmt.Errorf("generated patient %q is malformed: %w", wp.Name, err)
		}
		for _, wr := range wp.History {
			id, ok := idsByName[wr.Vaccine]
			if !ok {
				return nil, fmt.Errorf("generated history references unknown vaccine %q", wr.Vaccine)
			}
			date, err := time.Parse("2006-01-02", wr.Date)
			if err != nil {
				return nil, fmt.Errorf("generated history has invalid date %q: %w", wr.Date, err)
			}
			p.History = append(p.History, patient.VaccinationRecord{
				VaccineID:   id,
				VaccineName: wr.Vaccine,
				Date:        date,
			})
		}
		p.Status = patient.DeriveStatus(p.History, set)
		snap.Patients = append(snap.Patients, p)
	}

	return snap, nil
}
