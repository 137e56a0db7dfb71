package entity

import (
	"time"

	"whatsapp-launcher-core/internal/domain"
)

// MongoInstallationDoc represents an installation in MongoDB.
type MongoInstallationDoc struct {
	Shop        string    `bson:"shop"`
	AccessToken string    `bson:"access_token"`
	InstalledAt time.Time `bson:"installed_at"`
}

// ToDomain converts the MongoDB document to a domain entity.
func (d *MongoInstallationDoc) ToDomain() *domain.Installation {
	return &domain.Installation{
		Shop:        d.Shop,
		AccessToken: d.AccessToken,
		InstalledAt: d.InstalledAt,
	}
}

// MongoInstallationDocFromDomain converts a domain entity to a MongoDB
// document.
func MongoInstallationDocFromDomain(inst *domain.Installation) *MongoInstallationDoc {
	return &MongoInstallationDoc{
		Shop:        inst.Shop,
		AccessToken: inst.AccessToken,
		InstalledAt: inst.InstalledAt,
	}
}

// MongoWidgetConfigDoc represents a widget configuration in MongoDB.
type MongoWidgetConfigDoc struct {
	Shop           string    `bson:"shop"`
	PhoneNumber    string    `bson:"phone_number"`
	InitialMessage string    `bson:"initial_message"`
	UpdatedAt      time.Time `bson:"updated_at"`
}

// ToDomain converts the MongoDB document to a domain entity.
func (d *MongoWidgetConfigDoc) ToDomain() *domain.WidgetConfig {
	return &domain.WidgetConfig{
		Shop:           d.Shop,
		PhoneNumber:    d.PhoneNumber,
		InitialMessage: d.InitialMessage,
		UpdatedAt:      d.UpdatedAt,
	}
}

// MongoWidgetConfigDocFromDomain converts a domain entity to a MongoDB
// document.
func MongoWidgetConfigDocFromDomain(cfg *domain.WidgetConfig) *MongoWidgetConfigDoc {
	return &MongoWidgetConfigDoc{
		Shop:           cfg.Shop,
		PhoneNumber:    cfg.PhoneNumber,
		InitialMessage: cfg.InitialMessage,
		UpdatedAt:      cfg.UpdatedAt,
	}
}

// MongoAnalyticsDoc represents a click-analytics record in MongoDB.
type MongoAnalyticsDoc struct {
	Shop         string     `bson:"shop"`
	WidgetClicks int64      `bson:"widget_clicks"`
	FirstClick   *time.Time `bson:"first_click,omitempty"`
	LastClick    *time.Time `bson:"last_click,omitempty"`
}

// ToDomain converts the MongoDB document to a domain entity.
func (d *MongoAnalyticsDoc) ToDomain() *domain.Analytics {
	return &domain.Analytics{
		Shop:         d.Shop,
		WidgetClicks: d.WidgetClicks,
		FirstClick:   d.FirstClick,
		LastClick:    d.LastClick,
	}
}

// MongoOAuthStateDoc represents a pending OAuth state in MongoDB.
type MongoOAuthStateDoc struct {
	Nonce     string    `bson:"nonce"`
	Shop      string    `bson:"shop"`
	CreatedAt time.Time `bson:"created_at"`
	ExpiresAt time.Time `bson:"expires_at"`
}

// ToDomain converts the MongoDB document to a domain entity.
func (d *MongoOAuthStateDoc) ToDomain() *domain.OAuthState {
	return &domain.OAuthState{
		Nonce:     d.Nonce,
		Shop:      d.Shop,
		CreatedAt: d.CreatedAt,
		ExpiresAt: d.ExpiresAt,
	}
}

// MongoOAuthStateDocFromDomain converts a domain entity to a MongoDB
// document.
func MongoOAuthStateDocFromDomain(state *domain.OAuthState) *MongoOAuthStateDoc {
	return &MongoOAuthStateDoc{
		Nonce:     state.Nonce,
		Shop:      state.Shop,
		CreatedAt: state.CreatedAt,
		ExpiresAt: state.ExpiresAt,
	}
}
