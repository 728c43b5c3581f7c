package domain

import "time"

type Court struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"not null"`
	PricePerHour float64   `json:"price_per_hour" gorm:"not null"`
	OpenTime     string    `json:"open_time" gorm:"size:5;not null"`
	CloseTime    string    `json:"close_time" gorm:"size:5;not null"`
	IsActive     bool      `json:"is_active" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Hours returns the opening window. Courts without hours are open all day.
func (c *Court) Hours() (Window, error) {
	if c.OpenTime == "" && c.CloseTime == "" {
		return Window{Start: 0, End: MinutesPerDay}, nil
	}
	return ParseWindow(c.OpenTime, c.CloseTime)
}
