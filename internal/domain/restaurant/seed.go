package restaurant

import (
	"context"

	"besaha/internal/pkg/geo"
)

func unsplash(ids ...string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, "https://images.unsplash.com/photo-"+id+"?auto=format&fit=crop&w=800")
	}
	return out
}

// SeedData is the launch catalogue with its imported aggregate scores.
func SeedData() []Restaurant {
	return []Restaurant{
		{
			ID:          "1",
			Name:        "La Sqala",
			City:        CityCasablanca,
			Category:    "Traditional",
			Description: "Andalusian garden inside the 18th-century fortified walls, known for Moroccan breakfast and seafood tagines.",
			Coordinates: geo.Coordinates{Lat: 33.6034, Lng: -7.6192},
			Images:      unsplash("1539020140153-e479b8c22e70", "1541518763179-0e3d960bf2f9", "1512621776951-a57141f2eefd"),
			PriceRange:  "$$",
			Meta: Meta{ReviewsCount: 342, AvgScores: &Scores{
				Authenticity: 4.8, Hospitality: 4.5, PriceFairness: 4.2, Hygiene: 4.7, CulturalVibe: 4.9,
			}},
		},
		{
			ID:          "2",
			Name:        "Rick's Café",
			City:        CityCasablanca,
			Category:    "Fine Dining",
			Description: "Recreation of the bar from the film Casablanca, with live jazz and international cuisine with Moroccan touches.",
			Coordinates: geo.Coordinates{Lat: 33.6062, Lng: -7.6185},
			Images:      unsplash("1550966871-3ed3c47e2ce2", "1514362545857-3bc16c4c7d1b", "1485686531765-ba63b0782936"),
			PriceRange:  "$$$",
			Meta: Meta{ReviewsCount: 890, AvgScores: &Scores{
				Authenticity: 3.5, Hospitality: 4.8, PriceFairness: 3.0, Hygiene: 4.9, CulturalVibe: 4.7,
			}},
		},
		{
			ID:          "3",
			Name:        "Al Fassia",
			City:        CityMarrakech,
			Category:    "Traditional",
			Description: "Run entirely by women, serving Fassi cuisine including pigeon pastilla and shoulder of lamb.",
			Coordinates: geo.Coordinates{Lat: 31.6346, Lng: -8.0070},
			Images:      unsplash("1590846406792-0adc7f938f1d", "1580820736789-9b6e5545d126", "1560769629-975ec94e6a86"),
			PriceRange:  "$$",
			Meta: Meta{ReviewsCount: 210, AvgScores: &Scores{
				Authenticity: 5.0, Hospitality: 4.9, PriceFairness: 4.5, Hygiene: 4.8, CulturalVibe: 4.6,
			}},
		},
		{
			ID:          "4",
			Name:        "Nomad",
			City:        CityMarrakech,
			Category:    "Modern Moroccan",
			Description: "Rooftop in the Medina overlooking the spice market, with modern takes on Moroccan classics.",
			Coordinates: geo.Coordinates{Lat: 31.6295, Lng: -7.9847},
			Images:      unsplash("1533777857889-4be7c70b33f7", "1517248135467-4c7edcad34c4", "1478145046317-39f10e56b5e9"),
			PriceRange:  "$$",
			Meta: Meta{ReviewsCount: 512, AvgScores: &Scores{
				Authenticity: 4.2, Hospitality: 4.3, PriceFairness: 4.0, Hygiene: 4.6, CulturalVibe: 4.8,
			}},
		},
		{
			ID:          "5",
			Name:        "Nur",
			City:        CityFes,
			Category:    "Fine Dining",
			Description: "Daily tasting menu built from the local market, served in a Riad.",
			Coordinates: geo.Coordinates{Lat: 34.0619, Lng: -4.9796},
			Images:      unsplash("1600891964599-f61ba0e24092", "1414235077428-338989a2e8c0", "1559339352-11d035aa65de"),
			PriceRange:  "$$$",
			Meta: Meta{ReviewsCount: 85, AvgScores: &Scores{
				Authenticity: 4.5, Hospitality: 4.9, PriceFairness: 3.8, Hygiene: 5.0, CulturalVibe: 4.7,
			}},
		},
		{
			ID:          "6",
			Name:        "The Ruined Garden",
			City:        CityFes,
			Category:    "Street Food",
			Description: "Street-food tapas and lunch dishes in the ruins of an old Riad.",
			Coordinates: geo.Coordinates{Lat: 34.0600, Lng: -4.9750},
			Images:      unsplash("1597248881519-db089d3744a5", "1604328698692-f76ea9498e76", "1585518419759-7fe2e0fbf8a6"),
			PriceRange:  "$",
			Meta: Meta{ReviewsCount: 150, AvgScores: &Scores{
				Authenticity: 4.7, Hospitality: 4.6, PriceFairness: 4.8, Hygiene: 4.4, CulturalVibe: 5.0,
			}},
		},
	}
}

// Seed upserts SeedData. Existing aggregates are left untouched.
func Seed(ctx context.Context, repo *Repository) (int, error) {
	data := SeedData()
	for i := range data {
		if err := repo.Upsert(ctx, &data[i]); err != nil {
			return i, err
		}
	}
	return len(data), nil
}
