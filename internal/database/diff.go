package database

import (
	"context"
	"fmt"
)

// RunDiff lists what changed between two stored runs.
type RunDiff struct {
	// OldID and NewID are the compared runs.
	OldID int64 `json:"old_id"`
	NewID int64 `json:"new_id"`

	// NewURLs and NewJSURLs were discovered in the new run only.
	NewURLs   []string `json:"new_urls,omitempty"`
	NewJSURLs []string `json:"new_js_urls,omitempty"`

	// GoneURLs and GoneJSURLs were discovered in the old run only.
	GoneURLs   []string `json:"gone_urls,omitempty"`
	GoneJSURLs []string `json:"gone_js_urls,omitempty"`

	// NewSensitive are sensitive strings that did not appear before.
	NewSensitive []string `json:"new_sensitive,omitempty"`

	// ChangedPages were fetched in both runs with a different body fingerprint.
	ChangedPages []string `json:"changed_pages,omitempty"`
}

// IsEmpty reports whether the two runs found the same things.
func (d *RunDiff) IsEmpty() bool {
	return len(d.NewURLs) == 0 && len(d.NewJSURLs) == 0 &&
		len(d.GoneURLs) == 0 && len(d.GoneJSURLs) == 0 &&
		len(d.NewSensitive) == 0 && len(d.ChangedPages) == 0
}

// Diff compares the discoveries of two runs. Both runs must exist.
func (cdb *CrawlDB) Diff(ctx context.Context, oldID, newID int64) (*RunDiff, error) {
	for _, id := range []int64{oldID, newID} {
		if err := cdb.requireRun(ctx, id); err != nil {
			return nil, err
		}
	}

	diff := &RunDiff{OldID: oldID, NewID: newID}

	var err error
	if diff.NewURLs, err = cdb.kindExcept(ctx, KindURL, newID, oldID); err != nil {
		return nil, err
	}
	if diff.NewJSURLs, err = cdb.kindExcept(ctx, KindJS, newID, oldID); err != nil {
		return nil, err
	}
	if diff.GoneURLs, err = cdb.kindExcept(ctx, KindURL, oldID, newID); err != nil {
		return nil, err
	}
	if diff.GoneJSURLs, err = cdb.kindExcept(ctx, KindJS, oldID, newID); err != nil {
		return nil, err
	}
	if diff.NewSensitive, err = cdb.kindExcept(ctx, KindSensitive, newID, oldID); err != nil {
		return nil, err
	}
	if diff.ChangedPages, err = cdb.changedPages(ctx, oldID, newID); err != nil {
		return nil, err
	}

	return diff, nil
}

func (cdb *CrawlDB) requireRun(ctx context.Context, id int64) error {
	var n int
	if err := cdb.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE id = ?`, id).Scan(&n); err != nil {
		return fmt.Errorf("failed to look up run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	return nil
}

// kindExcept returns the distinct values of kind present in run a but not in run b.
func (cdb *CrawlDB) kindExcept(ctx context.Context, kind string, a, b int64) ([]string, error) {
	return cdb.queryStrings(ctx, `
	SELECT value FROM discoveries WHERE run_id = ? AND kind = ?
	EXCEPT
	SELECT value FROM discoveries WHERE run_id = ? AND kind = ?
	ORDER BY 1
	`, a, kind, b, kind)
}

func (cdb *CrawlDB) changedPages(ctx context.Context, oldID, newID int64) ([]string, error) {
	return cdb.queryStrings(ctx, `
	SELECT n.url FROM crawls n
	JOIN crawls o ON o.url = n.url AND o.run_id = ?
	WHERE n.run_id = ?
	  AND n.fingerprint <> ''
	  AND o.fingerprint <> ''
	  AND n.fingerprint <> o.fingerprint
	ORDER BY n.url
	`, oldID, newID)
}

func (cdb *CrawlDB) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := cdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query discoveries: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan discovery: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
