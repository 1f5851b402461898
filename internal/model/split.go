package model

import (
	"net/url"
	"slices"
)

// HostReport is the part of a RunReport that belongs to one host.
type HostReport struct {
	Host   string
	Report *RunReport
}

// SplitByHost partitions the report by the host (including port) of each
// seed, result, candidate and error. Every part keeps the run metadata.
// Skipped seeds cannot be attributed and are only counted in the part of
// the first host. Hosts are returned in lexical order; URLs without a host
// are grouped under the empty host.
func (r *RunReport) SplitByHost() []HostReport {
	parts := make(map[string]*RunReport)
	get := func(rawURL string) *RunReport {
		host := hostOf(rawURL)
		p, ok := parts[host]
		if !ok {
			p = &RunReport{
				ID:         r.ID,
				StartedAt:  r.StartedAt,
				FinishedAt: r.FinishedAt,
				Mode:       r.Mode,
				FuzzMode:   r.FuzzMode,
				Seeds:      make([]string, 0),
				Results:    make([]CrawlResult, 0),
				Candidates: make([]string, 0),
			}
			parts[host] = p
		}
		return p
	}

	for _, s := range r.Seeds {
		p := get(s)
		p.Seeds = append(p.Seeds, s)
	}
	for _, res := range r.Results {
		p := get(res.URL)
		p.Results = append(p.Results, res)
	}
	for _, c := range r.Candidates {
		p := get(c)
		p.Candidates = append(p.Candidates, c)
	}
	for _, e := range r.Errors {
		p := get(e.URL)
		p.Errors = append(p.Errors, e)
	}

	hosts := make([]string, 0, len(parts))
	for h := range parts {
		hosts = append(hosts, h)
	}
	slices.Sort(hosts)

	out := make([]HostReport, 0, len(hosts))
	for i, h := range hosts {
		if i == 0 {
			parts[h].Skipped = r.Skipped
		}
		out = append(out, HostReport{Host: h, Report: parts[h]})
	}
	return out
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}
