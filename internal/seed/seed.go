// Package seed holds the demo community posts and account data the server
// starts with.
package seed

import "github.com/example/carpool-matching/internal/models"

var Me = models.UserProfile{
	ID:        "u0",
	Name:      "Agam Kundu",
	AvatarURL: "https://picsum.photos/id/64/200/200",
	Rating:    4.9,
	Verified:  true,
}

func Drivers() []models.MatchCandidate {
	return []models.MatchCandidate{
		{
			ID:            "m1",
			User:          models.UserProfile{ID: "u1", Name: "Sarah Jenkins", AvatarURL: "https://picsum.photos/id/65/200/200", Rating: 4.8, Verified: true},
			MatchScore:    94,
			DetourMinutes: 3,
			Price:         models.Price(4.50),
			Role:          models.RoleDriver,
			Origin:        "Downtown Metro",
			Destination:   "Tech Park Campus",
			DepartureTime: "08:45 AM",
		},
		{
			ID:            "m2",
			User:          models.UserProfile{ID: "u2", Name: "David Chen", AvatarURL: "https://picsum.photos/id/91/200/200", Rating: 4.5, Verified: true},
			MatchScore:    82,
			DetourMinutes: 8,
			Price:         models.Price(3.00),
			Role:          models.RoleDriver,
			Origin:        "Westside Apts",
			Destination:   "University Main Gate",
			DepartureTime: "09:00 AM",
		},
	}
}

func Riders() []models.MatchCandidate {
	return []models.MatchCandidate{
		{
			ID:            "p1",
			User:          models.UserProfile{ID: "u3", Name: "Emily Davis", AvatarURL: "https://picsum.photos/id/338/200/200", Rating: 4.9, Verified: true},
			MatchScore:    98,
			DetourMinutes: 2,
			Role:          models.RoleRider,
			Origin:        "Downtown Metro",
			Destination:   "Tech Park Campus",
			DepartureTime: "08:40 AM",
		},
		{
			ID:            "p2",
			User:          models.UserProfile{ID: "u4", Name: "Michael Scott", AvatarURL: "https://picsum.photos/id/177/200/200", Rating: 4.2},
			MatchScore:    75,
			DetourMinutes: 10,
			Role:          models.RoleRider,
			Origin:        "Central Station",
			Destination:   "North Hills Mall",
			DepartureTime: "08:50 AM",
		},
	}
}

// LateDriver arrives for a rider shortly after results are shown.
func LateDriver() models.MatchCandidate {
	return models.MatchCandidate{
		ID:            "m-new",
		User:          models.UserProfile{ID: "u-new", Name: "Alex Rivera", AvatarURL: "https://picsum.photos/id/103/200/200", Rating: 5.0, Verified: true},
		MatchScore:    99,
		DetourMinutes: 0,
		Price:         models.Price(4.00),
		Role:          models.RoleDriver,
		Origin:        "Nearby St.",
		Destination:   "Tech Park Campus",
		DepartureTime: "08:50 AM",
	}
}

// LateRider arrives for a driver shortly after results are shown.
func LateRider() models.MatchCandidate {
	return models.MatchCandidate{
		ID:            "p-new",
		User:          models.UserProfile{ID: "u-new-r", Name: "Lisa Wong", AvatarURL: "https://picsum.photos/id/129/200/200", Rating: 4.8, Verified: true},
		MatchScore:    96,
		DetourMinutes: 1,
		Role:          models.RoleRider,
		Origin:        "Downtown Metro",
		Destination:   "Tech Park Campus",
		DepartureTime: "08:42 AM",
	}
}

func History() []models.RideHistoryItem {
	return []models.RideHistoryItem{
		{ID: "h1", Date: "Oct 24, 2023 • 08:30 AM", Origin: "Westside Apts", Destination: "University Main Gate", Role: models.RoleRider, Price: 3.50, DriverName: "David Chen", Status: models.HistoryCompleted},
		{ID: "h2", Date: "Oct 22, 2023 • 05:15 PM", Origin: "University Main Gate", Destination: "Westside Apts", Role: models.RoleRider, Price: 3.50, DriverName: "Sarah Jenkins", Status: models.HistoryCompleted},
		{ID: "h3", Date: "Oct 20, 2023 • 09:00 AM", Origin: "Downtown Metro", Destination: "Tech Park Campus", Role: models.RoleDriver, Price: 5.00, RiderName: "Mike Ross", Status: models.HistoryCancelled},
	}
}

func PaymentMethods() []models.PaymentMethod {
	return []models.PaymentMethod{
		{ID: "pm1", Type: models.NetworkVisa, Last4: "4242", Expiry: "12/24", IsDefault: true},
		{ID: "pm2", Type: models.NetworkMastercard, Last4: "8888", Expiry: "09/25"},
	}
}
