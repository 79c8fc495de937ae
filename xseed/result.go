package xseed

import (
	"github.com/sagan/auxseed/reconcile"
)

type State string

const (
	// No torrent in the index has the entry's representative size.
	StateNoCandidate State = "no_candidate"
	// At least one torrent was added for the entry.
	StateAdded State = "added"
	// Every candidate is already in client.
	StateExisting State = "existing"
	// Candidates exist but none could be matched and added.
	StateNoMatch State = "no_match"
	// The entry could not be read.
	StateFailed State = "failed"
)

type CandidateStatus string

const (
	CandidateAdded    CandidateStatus = "added"
	CandidateExisting CandidateStatus = "existing"
	CandidateRejected CandidateStatus = "rejected"
	CandidateInvalid  CandidateStatus = "invalid"
	CandidateFailed   CandidateStatus = "failed"
)

type CandidateResult struct {
	TorrentId string
	InfoHash  string
	Status    CandidateStatus
	SavePath  string
	Renames   reconcile.RenameMap
	// Number of local files accounted for by the torrent.
	Attributed int
	// Renames the client refused.
	RenameErrors int
	Err          error
}

type Result struct {
	Path       string
	IsDir      bool
	Size       int64 // representative size
	State      State
	Candidates []*CandidateResult
	Err        error
}

func (r *Result) addCandidate(c *CandidateResult) {
	r.Candidates = append(r.Candidates, c)
}

func (r *Result) finish() {
	if r.State != "" {
		return
	}
	existing := 0
	for _, c := range r.Candidates {
		switch c.Status {
		case CandidateAdded:
			r.State = StateAdded
			return
		case CandidateExisting:
			existing++
		}
	}
	if existing > 0 && existing == len(r.Candidates) {
		r.State = StateExisting
	} else {
		r.State = StateNoMatch
	}
}

type Report struct {
	Results []*Result
}

func (report *Report) Count(state State) (cnt int) {
	for _, result := range report.Results {
		if result.State == state {
			cnt++
		}
	}
	return
}

// Number of torrents added.
func (report *Report) Added() (cnt int) {
	for _, result := range report.Results {
		for _, c := range result.Candidates {
			if c.Status == CandidateAdded {
				cnt++
			}
		}
	}
	return
}
