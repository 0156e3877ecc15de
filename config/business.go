package config

import (
	"log"
	"strings"

	"serenity/models"

	"github.com/spf13/viper"
)

// BusinessConfig is the read-only catalog snapshot the scheduling engine and
// extractor consume: opening hours, services, slot granularity, booking
// window bounds and the deposit/refund policies.
type BusinessConfig struct {
	Name string `mapstructure:"name"`

	// Hours keyed by lowercase weekday name ("monday" .. "sunday").
	Hours map[string]models.DayHours `mapstructure:"hours"`

	Services []models.Service `mapstructure:"services"`

	SlotGranularityMin int `mapstructure:"slot_granularity_min"`
	MinLeadHours       int `mapstructure:"min_lead_hours"`
	MaxAdvanceDays     int `mapstructure:"max_advance_days"`

	// DateOrder disambiguates numeric dates: "mdy" (default) or "dmy".
	DateOrder string `mapstructure:"date_order"`

	Currency string `mapstructure:"currency"`

	Deposit models.DepositPolicy `mapstructure:"deposit"`
	Refund  models.RefundPolicy  `mapstructure:"refund"`
}

// LoadBusinessConfig reads business.yaml, falling back to the built-in
// Serenity Massage Therapy defaults so the agent runs out of the box.
func LoadBusinessConfig() *BusinessConfig {
	v := viper.New()
	v.SetConfigName("business")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	cfg := DefaultBusinessConfig()
	if err := v.ReadInConfig(); err != nil {
		log.Println("No business config file found, using built-in defaults")
		return cfg
	}
	if err := v.Unmarshal(cfg); err != nil {
		log.Fatalf("Failed to load business config: %v", err)
	}
	return cfg
}

// DefaultBusinessConfig is the built-in Serenity Massage Therapy catalog;
// tests and the demo wiring use it directly.
func DefaultBusinessConfig() *BusinessConfig {
	open := func(o, c string) models.DayHours { return models.DayHours{Open: o, Close: c} }
	return &BusinessConfig{
		Name: "Serenity Massage Therapy",
		Hours: map[string]models.DayHours{
			"monday":    open("09:00", "20:00"),
			"tuesday":   open("09:00", "20:00"),
			"wednesday": open("09:00", "20:00"),
			"thursday":  open("09:00", "20:00"),
			"friday":    open("09:00", "20:00"),
			"saturday":  open("10:00", "18:00"),
			"sunday":    {Closed: true},
		},
		Services: []models.Service{
			{ID: "swedish", Name: "Swedish Massage", DurationMin: 60, Price: 80, Aliases: []string{"swedish", "relaxing", "gentle"}},
			{ID: "deep_tissue", Name: "Deep Tissue Massage", DurationMin: 60, Price: 90, Aliases: []string{"deep tissue", "deep", "intense", "firm"}},
			{ID: "hot_stone", Name: "Hot Stone Therapy", DurationMin: 75, Price: 120, DepositRequired: true, Aliases: []string{"hot stone", "stones", "heat"}},
			{ID: "aromatherapy", Name: "Aromatherapy Massage", DurationMin: 60, Price: 95, Aliases: []string{"aromatherapy", "aroma", "essential oils"}},
			{ID: "sports", Name: "Sports Massage", DurationMin: 60, Price: 85, Aliases: []string{"sports", "athlete", "injury", "recovery"}},
			{ID: "couples", Name: "Couples Massage", DurationMin: 90, Price: 200, DepositRequired: true, Aliases: []string{"couples", "together", "romantic", "two people"}},
		},
		SlotGranularityMin: 30,
		MinLeadHours:       2,
		MaxAdvanceDays:     30,
		DateOrder:          "mdy",
		Currency:           "usd",
		Deposit: models.DepositPolicy{
			Enabled:    true,
			Type:       models.DepositTypePercentage,
			Amount:     20,
			Percentage: 0.25,
		},
		Refund: models.RefundPolicy{
			FullCutoffHours:    24,
			PartialCutoffHours: 12,
			PartialRate:        0.5,
		},
	}
}

// ServiceByID looks a service up by catalog id.
func (b *BusinessConfig) ServiceByID(id string) (models.Service, bool) {
	for _, s := range b.Services {
		if s.ID == id {
			return s, true
		}
	}
	return models.Service{}, false
}

// HoursFor returns the opening hours for a date's weekday.
func (b *BusinessConfig) HoursFor(weekday string) (models.DayHours, bool) {
	h, ok := b.Hours[strings.ToLower(weekday)]
	if !ok || h.Closed {
		return models.DayHours{}, false
	}
	return h, true
}

// ShortestServiceDuration is used for slot browsing before a service has
// been chosen.
func (b *BusinessConfig) ShortestServiceDuration() int {
	shortest := 0
	for _, s := range b.Services {
		if shortest == 0 || s.DurationMin < shortest {
			shortest = s.DurationMin
		}
	}
	if shortest == 0 {
		shortest = 60
	}
	return shortest
}
