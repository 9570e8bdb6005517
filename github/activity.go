package github

import (
	"fmt"
	"io"

	"github.com/tidwall/gjson"
)

// RepoCount is the number of events of one type in one repository.
type RepoCount struct {
	ID    int64
	Name  string
	Count int
}

// TypeSummary collects the repositories touched by one event type.
type TypeSummary struct {
	Type  string
	Repos []RepoCount
}

// Summarize groups the events in payload by type and then by repository id.
// Types and repositories keep the order in which they first appear. Events
// without a type or repository are skipped.
func Summarize(payload []byte) ([]TypeSummary, error) {
	if !gjson.ValidBytes(payload) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrUnexpectedPayload)
	}
	root := gjson.ParseBytes(payload)
	if !root.IsArray() {
		return nil, ErrUnexpectedPayload
	}

	var out []TypeSummary
	typeIdx := map[string]int{}
	repoIdx := map[string]map[int64]int{}

	root.ForEach(func(_, event gjson.Result) bool {
		typ := event.Get("type").String()
		repo := event.Get("repo")
		if typ == "" || !repo.Exists() || !repo.Get("id").Exists() {
			return true
		}
		id := repo.Get("id").Int()

		ti, ok := typeIdx[typ]
		if !ok {
			ti = len(out)
			typeIdx[typ] = ti
			repoIdx[typ] = map[int64]int{}
			out = append(out, TypeSummary{Type: typ})
		}

		if ri, ok := repoIdx[typ][id]; ok {
			out[ti].Repos[ri].Count++
			return true
		}
		repoIdx[typ][id] = len(out[ti].Repos)
		out[ti].Repos = append(out[ti].Repos, RepoCount{
			ID:    id,
			Name:  repo.Get("name").String(),
			Count: 1,
		})
		return true
	})

	return out, nil
}

// Format writes one "<Type> <count> times in <repo>" line per summarized
// repository.
func Format(w io.Writer, summary []TypeSummary) error {
	for _, ts := range summary {
		for _, r := range ts.Repos {
			if _, err := fmt.Fprintf(w, "%s %d times in %s\n", ts.Type, r.Count, r.Name); err != nil {
				return err
			}
		}
	}
	return nil
}
