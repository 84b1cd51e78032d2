package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"wakeup-bot/internal/model"
	"wakeup-bot/internal/service"
)

func users(points ...int) []model.User {
	out := make([]model.User, len(points))
	for i, p := range points {
		out[i] = model.User{ID: uint(i + 1), Username: string(rune('a' + i)), Points: p}
	}
	return out
}

func TestRankByPoints(t *testing.T) {
	ranked := service.RankByPoints(users(3, 10, 7))

	assert.Equal(t, []int{10, 7, 3}, []int{ranked[0].Points, ranked[1].Points, ranked[2].Points})
}

func TestRankByPoints_TiesKeepLedgerOrder(t *testing.T) {
	in := users(5, 9, 5)

	ranked := service.RankByPoints(in)

	assert.Equal(t, uint(2), ranked[0].ID)
	// Equal points keep registration order: id 1 before id 3.
	assert.Equal(t, uint(1), ranked[1].ID)
	assert.Equal(t, uint(3), ranked[2].ID)

	// Input untouched.
	assert.Equal(t, uint(1), in[0].ID)
}

func TestWhoPays(t *testing.T) {
	tests := []struct {
		name  string
		users []model.User
		want  service.PayVerdict
	}{
		{"first has fewer", users(2, 9), service.PayFirst},
		{"second has fewer", users(9, 2), service.PaySecond},
		{"tie splits the bill", users(4, 4), service.PayTie},
		{"single player", users(4), service.PayNotEnoughPlayers},
		{"no players", nil, service.PayNotEnoughPlayers},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, service.WhoPays(tc.users))
		})
	}
}

func TestWhoPays_OnlyFirstTwoCount(t *testing.T) {
	// The third player has the fewest points but the game is two-party:
	// they are never considered.
	assert.Equal(t, service.PayFirst, service.WhoPays(users(5, 9, 1)))
}

func TestForfeit(t *testing.T) {
	tests := []struct {
		name  string
		users []model.User
		want  service.ForfeitVerdict
	}{
		{"gap of 14 owes a trip", users(10, 24), service.ForfeitFirst},
		{"gap of 13 is safe", users(10, 23), service.ForfeitNone},
		{"leader flipped", users(24, 10), service.ForfeitSecond},
		{"equal points", users(7, 7), service.ForfeitNone},
		{"single player", users(7), service.ForfeitNotEnoughPlayers},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, service.Forfeit(tc.users))
		})
	}
}

func TestForfeit_OnlyFirstTwoCount(t *testing.T) {
	assert.Equal(t, service.ForfeitNone, service.Forfeit(users(10, 12, 40)))
}
