package service

import (
	"sort"

	"wakeup-bot/internal/model"
)

// forfeitThreshold is the points gap at which the trailing player owes a
// trip to the next vacation place.
const forfeitThreshold = 14

// PayVerdict is the result of the two-party who-pays comparison.
type PayVerdict int

const (
	PayTie PayVerdict = iota
	PayFirst
	PaySecond
	PayNotEnoughPlayers
)

// ForfeitVerdict is the result of the two-party forfeit check.
type ForfeitVerdict int

const (
	ForfeitNone ForfeitVerdict = iota
	ForfeitFirst
	ForfeitSecond
	ForfeitNotEnoughPlayers
)

// RankByPoints sorts a ledger snapshot by points descending. The sort is
// stable, so users with equal points keep their ledger enumeration order
// (registration order). The input slice is not modified.
func RankByPoints(users []model.User) []model.User {
	ranked := make([]model.User, len(users))
	copy(ranked, users)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Points > ranked[j].Points
	})
	return ranked
}

// WhoPays compares exactly the first two enumerated ledger entries: fewer
// points pays, equal points ties. Any further entries are ignored; this
// mirrors the original two-party game and is intentional.
func WhoPays(users []model.User) PayVerdict {
	if len(users) < 2 {
		return PayNotEnoughPlayers
	}
	switch a, b := users[0], users[1]; {
	case a.Points < b.Points:
		return PayFirst
	case b.Points < a.Points:
		return PaySecond
	default:
		return PayTie
	}
}

// Forfeit applies the same two-party restriction as WhoPays: when the gap
// between the first two enumerated entries reaches forfeitThreshold, the
// one with fewer points owes the trip.
func Forfeit(users []model.User) ForfeitVerdict {
	if len(users) < 2 {
		return ForfeitNotEnoughPlayers
	}
	a, b := users[0], users[1]
	diff := a.Points - b.Points
	if diff < 0 {
		diff = -diff
	}
	if diff < forfeitThreshold {
		return ForfeitNone
	}
	if a.Points < b.Points {
		return ForfeitFirst
	}
	return ForfeitSecond
}
