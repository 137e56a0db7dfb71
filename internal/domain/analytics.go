package domain

import "time"

// Analytics tracks widget click counts for one shop. FirstClick is nil
// until the first click is recorded.
type Analytics struct {
	Shop         string     `json:"shop" bson:"shop"`
	WidgetClicks int64      `json:"widget_clicks" bson:"widget_clicks"`
	FirstClick   *time.Time `json:"first_click" bson:"first_click,omitempty"`
	LastClick    *time.Time `json:"last_click" bson:"last_click,omitempty"`
}

// EmptyAnalytics returns the zero record served for shops that have an
// installation but no recorded clicks yet.
func EmptyAnalytics(shop string) *Analytics {
	return &Analytics{Shop: shop}
}
