package schedule

import (
	"sort"
	"time"

	"github.com/Sushant9818/SmartScheduling/internal/domain"
)

// Score weights: a preferred therapist outweighs recency, and recency decays
// linearly to zero over thirty days.
const (
	preferredTherapistScore = 50
	recencyScoreCeiling     = 30
)

// RankedSlot pairs a candidate slot with its preference score. The score is
// an explicit field rather than an implicit merge into the slot itself.
type RankedSlot struct {
	Slot  Slot `json:"slot"`
	Score int  `json:"score"`
}

// RankSlots scores and orders candidate slots for a client:
//
//	score = 50 if the slot's therapist is preferred
//	      + max(0, 30 - whole days from now until the slot start)
//
// Slots are returned descending by score; equal scores order by start time
// ascending, which keeps the ranking deterministic. The caller truncates to
// its requested top-N.
func RankSlots(slots []Slot, prefs *domain.Preferences, now time.Time) []RankedSlot {
	ranked := make([]RankedSlot, 0, len(slots))
	for _, s := range slots {
		ranked = append(ranked, RankedSlot{Slot: s, Score: scoreSlot(s, prefs, now)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Slot.Start.Before(ranked[j].Slot.Start)
	})
	return ranked
}

func scoreSlot(s Slot, prefs *domain.Preferences, now time.Time) int {
	score := 0
	if prefs != nil && prefs.PrefersTherapist(s.TherapistID) {
		score += preferredTherapistScore
	}
	days := int(s.Start.Sub(now).Hours() / 24)
	if days < 0 {
		days = 0
	}
	if recency := recencyScoreCeiling - days; recency > 0 {
		score += recency
	}
	return score
}
