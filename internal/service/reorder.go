package service

import (
	"strconv"

	"github.com/jharjadi/pro-rag/context-api-go/internal/model"
)

// ReorderDocs moves documents flagged relevant to the front. Each group
// keeps the order it arrived in. A nil relevance slice returns docs as is.
func ReorderDocs[T any](docs []T, relevance []bool) []T {
	if relevance == nil {
		return docs
	}

	n := min(len(docs), len(relevance))
	reordered := make([]T, 0, n)
	for _, target := range []bool{true, false} {
		for i := 0; i < n; i++ {
			if relevance[i] == target {
				reordered = append(reordered, docs[i])
			}
		}
	}
	return reordered
}

// RemoveIgnoredForQA drops documents whose metadata excludes them from QA.
func RemoveIgnoredForQA(docs []model.Document) []model.Document {
	kept := make([]model.Document, 0, len(docs))
	for _, d := range docs {
		if isTruthy(d.Metadata[model.IgnoreForQA]) {
			continue
		}
		kept = append(kept, d)
	}
	return kept
}

func isTruthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		b, err := strconv.ParseBool(val)
		return err == nil && b
	case float64:
		return val != 0
	case int:
		return val != 0
	case []any:
		return len(val) > 0
	default:
		return true
	}
}
