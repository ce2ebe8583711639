// Package file loads question sets from JSON files on disk.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"estimation-quiz-service/internal/domain"
)

// QuestionLoader reads <dir>/<setID>.json, each file a JSON array of
// {"question": ..., "answer": ...} objects.
type QuestionLoader struct {
	dir string
}

func NewQuestionLoader(dir string) *QuestionLoader {
	return &QuestionLoader{dir: dir}
}

func (l *QuestionLoader) LoadQuestionSet(_ context.Context, setID string) (domain.QuestionSet, error) {
	if setID == "" || setID != filepath.Base(setID) || strings.HasPrefix(setID, ".") {
		return domain.QuestionSet{}, domain.ErrQuestionSetNotFound
	}
	questions, err := ReadQuestions(filepath.Join(l.dir, setID+".json"))
	if err != nil {
		return domain.QuestionSet{}, err
	}
	return domain.QuestionSet{ID: setID, Questions: questions}, nil
}

// ReadQuestions parses a single question file.
func ReadQuestions(path string) ([]domain.Question, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrQuestionSetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read questions: %w", err)
	}
	questions, err := domain.ParseQuestions(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return questions, nil
}
