package question

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/akravets/mockview/internal/domain"
)

func TestRemoteProviderSendsRoundContext(t *testing.T) {
	t.Parallel()

	var gotPath, gotConvID string
	var gotBody generateRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotConvID = r.Header.Get("conversation-id")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		json.NewEncoder(w).Encode(generateResponse{Question: "Implement a rate limiter."}) //nolint:errcheck
	}))
	defer srv.Close()

	p := NewRemoteProvider(srv.URL)
	req := Request{
		ConversationID: "conv-42",
		Round:          domain.RoundTechnical,
		Expression:     domain.UserExpression{Dominant: "happiness"},
		Resume: domain.ResumeFacts{
			Skills:       []string{"go", "sql"},
			Projects:     []string{"payments service"},
			Achievements: []string{"award"},
		},
	}

	got, err := p.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if got != "Implement a rate limiter." {
		t.Fatalf("unexpected question: %q", got)
	}
	if gotPath != "/generate/technical" {
		t.Errorf("unexpected endpoint path: %q", gotPath)
	}
	if gotConvID != "conv-42" {
		t.Errorf("conversation-id header not forwarded: %q", gotConvID)
	}
	if len(gotBody.Skills) != 2 || len(gotBody.Projects) != 1 {
		t.Errorf("technical round must send skills/projects: %+v", gotBody)
	}
	if len(gotBody.Achievements) != 0 {
		t.Errorf("technical round must not send achievements: %+v", gotBody)
	}
	if gotBody.LastAnswer != NoAnswerYet {
		t.Errorf("missing answer must use sentinel, got %q", gotBody.LastAnswer)
	}
}

func TestRemoteProviderHRContext(t *testing.T) {
	t.Parallel()

	var gotBody generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)                                   //nolint:errcheck
		json.NewEncoder(w).Encode(generateResponse{Question: "Why this company?"}) //nolint:errcheck
	}))
	defer srv.Close()

	p := NewRemoteProvider(srv.URL)
	_, err := p.Generate(context.Background(), Request{
		Round: domain.RoundHR,
		Resume: domain.ResumeFacts{
			Skills:       []string{"go"},
			Achievements: []string{"led migration"},
			Experience:   []string{"5 years backend"},
		},
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(gotBody.Achievements) != 1 || len(gotBody.Experiences) != 1 {
		t.Errorf("hr round must send achievements/experiences: %+v", gotBody)
	}
	if len(gotBody.Skills) != 0 {
		t.Errorf("hr round must not send skills: %+v", gotBody)
	}
}

func TestRemoteProviderErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "non-2xx status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
		},
		{
			name: "error body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(generateResponse{Error: "model overloaded"}) //nolint:errcheck
			},
		},
		{
			name: "empty question",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(generateResponse{}) //nolint:errcheck
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			p := NewRemoteProvider(srv.URL)
			if _, err := p.Generate(context.Background(), Request{Round: domain.RoundCore}); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestBuildPromptDifficulty(t *testing.T) {
	t.Parallel()

	nervous := BuildPrompt(Request{
		Round:      domain.RoundTechnical,
		Expression: domain.UserExpression{Dominant: "fear", IsNervous: true},
	})
	if !strings.Contains(nervous, "easier") {
		t.Errorf("nervous candidate should get an easier question: %q", nervous)
	}

	confident := BuildPrompt(Request{
		Round:      domain.RoundTechnical,
		Expression: domain.UserExpression{Dominant: "confidence", IsConfident: true},
	})
	if !strings.Contains(confident, "difficulty") || !strings.Contains(confident, "Raise") {
		t.Errorf("confident candidate should get a harder question: %q", confident)
	}

	strict := BuildPrompt(Request{
		Round:  domain.RoundTechnical,
		Strict: true,
		Avoid:  []string{"old question"},
	})
	if !strings.Contains(strict, "NOT") || !strings.Contains(strict, "old question") {
		t.Errorf("strict prompt must carry the exclusion list: %q", strict)
	}
	if len(strict) >= len(nervous) {
		t.Error("strict prompt should be shorter than the full instruction set")
	}
}
