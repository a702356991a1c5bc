package response

import (
	"maps"
	"time"
)

// Commit is a commit observed in the activity window.
type Commit struct {
	Hash    string    `json:"hash"`
	Author  string    `json:"author"`
	Email   string    `json:"email,omitempty"`
	Message string    `json:"message"`
	Date    time.Time `json:"date"`
}

// PullRequest is an open pull or merge request.
type PullRequest struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
	State     string    `json:"state"`
}

// Conflict names a branch that changed files this response also touches.
type Conflict struct {
	Branch           string   `json:"branch"`
	ConflictingFiles []string `json:"conflictingFiles"`
}

// WorkItem is a recent commit that looks related to the current work.
type WorkItem struct {
	Author  string `json:"author"`
	Message string `json:"message"`
	Hash    string `json:"hash"`
}

// Summary condenses the activity window.
type Summary struct {
	TotalCommits          int    `json:"totalCommits"`
	UniqueContributors    int    `json:"uniqueContributors"`
	MostActiveContributor string `json:"mostActiveContributor,omitempty"`
}

// TeamActivity is the collaboration snapshot attached by the team-activity
// enhancer. A nil field means the sub-feature was disabled or its data
// could not be fetched.
type TeamActivity struct {
	Limited            bool                      `json:"limited,omitempty"`
	RecentCommits      []Commit                  `json:"recentCommits,omitempty"`
	ActiveContributors []string                  `json:"activeContributors,omitempty"`
	RelatedBranches    []string                  `json:"relatedBranches,omitempty"`
	ActivePRs          []PullRequest             `json:"activePRs,omitempty"`
	FileContributors   map[string]map[string]int `json:"fileContributors,omitempty"`
	PotentialReviewers []string                  `json:"potentialReviewers,omitempty"`
	PotentialConflicts []Conflict                `json:"potentialConflicts,omitempty"`
	Insights           []string                  `json:"insights,omitempty"`
	RelatedWork        []WorkItem                `json:"relatedWork,omitempty"`
	Summary            *Summary                  `json:"summary,omitempty"`
}

// Clone returns a deep copy of ta.
func (ta *TeamActivity) Clone() *TeamActivity {
	if ta == nil {
		return nil
	}
	c := &TeamActivity{
		Limited:            ta.Limited,
		RecentCommits:      cloneSlice(ta.RecentCommits),
		ActiveContributors: cloneSlice(ta.ActiveContributors),
		RelatedBranches:    cloneSlice(ta.RelatedBranches),
		ActivePRs:          cloneSlice(ta.ActivePRs),
		PotentialReviewers: cloneSlice(ta.PotentialReviewers),
		Insights:           cloneSlice(ta.Insights),
		RelatedWork:        cloneSlice(ta.RelatedWork),
	}
	if ta.FileContributors != nil {
		c.FileContributors = make(map[string]map[string]int, len(ta.FileContributors))
		for file, counts := range ta.FileContributors {
			c.FileContributors[file] = maps.Clone(counts)
		}
	}
	if ta.PotentialConflicts != nil {
		c.PotentialConflicts = make([]Conflict, len(ta.PotentialConflicts))
		for i, cf := range ta.PotentialConflicts {
			c.PotentialConflicts[i] = Conflict{
				Branch:           cf.Branch,
				ConflictingFiles: cloneSlice(cf.ConflictingFiles),
			}
		}
	}
	if ta.Summary != nil {
		s := *ta.Summary
		c.Summary = &s
	}
	return c
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append([]T(nil), s...)
}
