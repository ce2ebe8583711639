package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"estimation-quiz-service/internal/domain"
)

func TestQuestionLoaderReadsSetFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "default.json"), `[
		{"question": "2+2", "answer": 4},
		{"question": "Boiling point of water in C", "answer": "100"}
	]`)

	set, err := NewQuestionLoader(dir).LoadQuestionSet(context.Background(), "default")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if set.ID != "default" || len(set.Questions) != 2 {
		t.Fatalf("unexpected set: %+v", set)
	}
	if set.Questions[1].Target != 100 {
		t.Fatalf("expected string answer to parse, got %v", set.Questions[1].Target)
	}
}

func TestQuestionLoaderErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "broken.json"), `{"question": "not a list"}`)
	loader := NewQuestionLoader(dir)

	cases := []struct {
		name  string
		setID string
		want  error
	}{
		{name: "missing file", setID: "nope", want: domain.ErrQuestionSetNotFound},
		{name: "path traversal", setID: "../etc/passwd", want: domain.ErrQuestionSetNotFound},
		{name: "malformed", setID: "broken", want: domain.ErrInvalidQuestions},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := loader.LoadQuestionSet(context.Background(), tc.setID)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
