package app

import (
	"sort"
	"strings"
	"time"

	"estimation-quiz-service/internal/domain"
)

// registry tracks who is connected to a session. Callers hold the session lock.
type registry struct {
	now          func() time.Time
	participants map[string]*domain.Participant
	order        []string
}

func newRegistry(now func() time.Time) *registry {
	return &registry{
		now:          now,
		participants: make(map[string]*domain.Participant),
	}
}

// join registers id, overwriting any previous record for it. Hosts always get
// the sentinel display name.
func (r *registry) join(id string, role domain.Role, name string) (domain.Participant, error) {
	if role == domain.RoleHost {
		name = domain.HostDisplayName
	} else {
		role = domain.RoleContestant
		name = strings.TrimSpace(name)
		if name == "" {
			return domain.Participant{}, domain.ErrInvalidName
		}
	}

	if _, ok := r.participants[id]; !ok {
		r.order = append(r.order, id)
	}
	p := &domain.Participant{
		ID:          id,
		DisplayName: name,
		Role:        role,
		JoinedAt:    r.now(),
	}
	r.participants[id] = p
	return *p, nil
}

func (r *registry) remove(id string) (domain.Participant, bool) {
	p, ok := r.participants[id]
	if !ok {
		return domain.Participant{}, false
	}
	delete(r.participants, id)
	for i, other := range r.order {
		if other == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return *p, true
}

func (r *registry) get(id string) (domain.Participant, bool) {
	p, ok := r.participants[id]
	if !ok {
		return domain.Participant{}, false
	}
	return *p, true
}

func (r *registry) isHost(id string) bool {
	p, ok := r.participants[id]
	return ok && p.IsHost()
}

// hostID returns the connection currently holding the host role.
func (r *registry) hostID() (string, bool) {
	for _, id := range r.order {
		if r.participants[id].IsHost() {
			return id, true
		}
	}
	return "", false
}

func (r *registry) isEmpty() bool {
	return len(r.participants) == 0
}

// contestants returns every non-host participant in join order.
func (r *registry) contestants() []domain.PlayerEntry {
	entries := make([]domain.PlayerEntry, 0, len(r.order))
	for _, id := range r.order {
		p := r.participants[id]
		if p.IsHost() {
			continue
		}
		entries = append(entries, domain.PlayerEntry{ID: p.ID, Name: p.DisplayName, Score: p.Score})
	}
	return entries
}

// leaderboard orders contestants by score, keeping join order for ties.
func (r *registry) leaderboard() []domain.PlayerEntry {
	entries := r.contestants()
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	return entries
}

func (r *registry) resetScores() {
	for _, p := range r.participants {
		if !p.IsHost() {
			p.Score = 0
		}
	}
}

// award adds points to registered contestants and returns what was applied.
func (r *registry) award(points map[string]int) map[string]int {
	applied := make(map[string]int, len(points))
	for id, pts := range points {
		p, ok := r.participants[id]
		if !ok || p.IsHost() || pts <= 0 {
			continue
		}
		p.Score += pts
		applied[id] = pts
	}
	return applied
}

// topScorers returns the names sharing the highest score of an ordered leaderboard.
func topScorers(board []domain.PlayerEntry) []string {
	winners := []string{}
	if len(board) == 0 {
		return winners
	}
	top := board[0].Score
	for _, entry := range board {
		if entry.Score == top {
			winners = append(winners, entry.Name)
		}
	}
	return winners
}
