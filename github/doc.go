// Package github fetches and summarizes public user activity from the
// GitHub REST API.
//
// Client performs the HTTP call with retries. MemoizedSource puts a Client
// behind a cache.Invoker so repeated runs for the same user reuse the stored
// payload. Summarize groups the payload's events by type and repository.
package github
