package models

import "time"

// SettingsID is the _id of the one settings document.
const SettingsID = "site"

type SocialLinks struct {
	Facebook  string `json:"facebook" bson:"facebook"`
	Twitter   string `json:"twitter" bson:"twitter"`
	Instagram string `json:"instagram" bson:"instagram"`
	Linkedin  string `json:"linkedin" bson:"linkedin"`
}

// Settings is the site-wide singleton. ShippingFee, FreeShippingThreshold and TaxRate
// (a percentage) drive checkout pricing.
type Settings struct {
	ID                    string      `json:"-" bson:"_id,omitempty"`
	SiteName              string      `json:"siteName" bson:"siteName"`
	SiteEmail             string      `json:"siteEmail" bson:"siteEmail"`
	SitePhone             string      `json:"sitePhone" bson:"sitePhone"`
	SiteAddress           string      `json:"siteAddress" bson:"siteAddress"`
	SocialLinks           SocialLinks `json:"socialLinks" bson:"socialLinks"`
	ShippingFee           int64       `json:"shippingFee" bson:"shippingFee"`
	FreeShippingThreshold int64       `json:"freeShippingThreshold" bson:"freeShippingThreshold"`
	TaxRate               float64     `json:"taxRate" bson:"taxRate"`
	CreatedAt             time.Time   `json:"createdAt" bson:"createdAt"`
	UpdatedAt             time.Time   `json:"updatedAt" bson:"updatedAt"`
}

// DefaultSettings is what a fresh store starts with.
func DefaultSettings() Settings {
	return Settings{
		SiteName:              "Babu-Moshai",
		SiteEmail:             "contact@babumoshai.com",
		SitePhone:             "+880123456789",
		SiteAddress:           "Dhaka, Bangladesh",
		ShippingFee:           100,
		FreeShippingThreshold: 5000,
		TaxRate:               5,
	}
}
