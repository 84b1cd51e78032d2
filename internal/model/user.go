package model

import "time"

// User is one row of the points ledger.
type User struct {
	ID           uint  `gorm:"primaryKey"`
	TelegramID   int64 `gorm:"uniqueIndex"`
	Username     string
	Points       int `gorm:"default:0"`
	LastWakeDate *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// WokeUpOn reports whether the user's last awarded date falls on the same
// calendar day as day. Comparison is by date, not by timestamp. The stored
// value is normalized into day's zone first: drivers may return it in UTC.
func (u *User) WokeUpOn(day time.Time) bool {
	if u.LastWakeDate == nil {
		return false
	}
	y1, m1, d1 := u.LastWakeDate.In(day.Location()).Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
