package user

import "context"

// SeedData returns the demo community. IDs are stable so dev tokens stay valid
// across reseeds.
func SeedData() []User {
	return []User{
		{ID: 1, Name: "Karim", Email: "karim@besaha.ma", Role: RoleMember, Badges: Badges{Local: true}},
		{ID: 2, Name: "Sarah", Email: "sarah@example.com", Role: RoleMember, Badges: Badges{Traveler: true}},
		{ID: 3, Name: "Amine", Email: "amine@besaha.ma", Role: RoleMember, Badges: Badges{Local: true}},
		{ID: 100, Name: "Besaha Admin", Email: "admin@besaha.ma", Role: RoleAdmin, Badges: Badges{Local: true}},
	}
}

func Seed(ctx context.Context, repo *Repository) ([]User, error) {
	data := SeedData()
	for i := range data {
		if err := repo.Upsert(ctx, &data[i]); err != nil {
			return nil, err
		}
	}
	return data, nil
}
