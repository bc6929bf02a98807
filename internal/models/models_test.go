package models

import (
	"encoding/json"
	"testing"
)

func TestProcessResult(t *testing.T) {
	tt := []struct {
		name string
		body string
		want string
	}{
		{name: "clip", body: `{"message":"ok","clipped_file":"clip_a.mp4"}`, want: "clip_a.mp4"},
		{name: "convert", body: `{"converted_file":"a.webm"}`, want: "a.webm"},
		{name: "merge prefers output_file", body: `{"output_file":"merged.mp4","clipped_file":"x"}`, want: "merged.mp4"},
		{name: "no output", body: `{"message":"ok"}`, want: ""},
		{name: "non-string output ignored", body: `{"output_file":42}`, want: ""},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			var res ProcessResult
			if err := json.Unmarshal([]byte(tc.body), &res); err != nil {
				t.Fatalf("failed to unmarshal: %v", err)
			}
			if got := res.OutputFile(); got != tc.want {
				t.Errorf("OutputFile() = %q, want %q", got, tc.want)
			}
		})
	}

	t.Run("Message", func(t *testing.T) {
		res := ProcessResult{"message": "done"}
		if res.Message() != "done" {
			t.Errorf("expected message 'done', got %q", res.Message())
		}
		if (ProcessResult{}).Message() != "" {
			t.Error("expected empty message for empty body")
		}
	})
}

func TestLoginResponse(t *testing.T) {
	body := `{"access_token":"abc","token_type":"bearer","expires_in":604800,
		"user":{"id":7,"username":"ada","email":"ada@example.com","created_at":"2024-01-01"}}`

	var resp LoginResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if resp.AccessToken != "abc" || resp.ExpiresIn != 604800 {
		t.Errorf("unexpected token fields: %+v", resp)
	}
	if resp.User.ID != 7 || resp.User.Username != "ada" {
		t.Errorf("unexpected user: %+v", resp.User)
	}
}
