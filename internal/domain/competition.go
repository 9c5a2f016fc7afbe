package domain

import "time"

// Competition is an externally managed time window attached to a
// token. Tokens with an active competition are pinned to the top of
// the dashboard for the duration of the window.
type Competition struct {
	AlphaID   string     `json:"alphaId" bson:"alphaId"`
	Symbol    string     `json:"symbol" bson:"symbol"`
	Name      string     `json:"name" bson:"name"`
	IconURL   string     `json:"iconUrl,omitempty" bson:"iconUrl,omitempty"`
	StartTime *time.Time `json:"startTime" bson:"startTime"`
	EndTime   *time.Time `json:"endTime" bson:"endTime"`
	UpdatedAt time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// ActiveAt reports whether now falls within [StartTime, EndTime].
// A competition with either bound missing is never active.
func (c *Competition) ActiveAt(now time.Time) bool {
	if c == nil || c.StartTime == nil || c.EndTime == nil {
		return false
	}
	return !now.Before(*c.StartTime) && !now.After(*c.EndTime)
}
