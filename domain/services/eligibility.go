package services

import (
	"luckydraw/domain/entities"
)

// ResolveEligibility computes who may win a unit of a prize in the given category.
// Grand prizes only go to checked-in participants. Anyone listed in currentWinnerIDs
// or excludedIDs is left out. The inputs are not modified.
func ResolveEligibility(
	category entities.PrizeCategory,
	participants []*entities.Participant,
	currentWinnerIDs []string,
	excludedIDs ...string,
) ([]*entities.Participant, error) {
	skip := make(map[string]struct{}, len(currentWinnerIDs)+len(excludedIDs))
	for _, id := range currentWinnerIDs {
		skip[id] = struct{}{}
	}
	for _, id := range excludedIDs {
		skip[id] = struct{}{}
	}

	requiresCheckIn := category.RequiresCheckIn()
	eligible := make([]*entities.Participant, 0, len(participants))
	seen := make(map[string]struct{}, len(participants))
	for _, p := range participants {
		if p == nil {
			continue
		}
		if requiresCheckIn && !p.CheckedIn {
			continue
		}
		if _, taken := skip[p.ID]; taken {
			continue
		}
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		eligible = append(eligible, p)
	}

	if len(eligible) == 0 {
		if requiresCheckIn {
			return nil, ErrNoCheckedInParticipants
		}
		return nil, ErrNoCandidates
	}
	return eligible, nil
}
