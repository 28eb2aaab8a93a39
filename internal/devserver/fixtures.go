package devserver

import (
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/nomnomhq/nomnom/internal/model"
)

// FixtureUser is one seeded account. Password is plaintext in the fixture
// file and hashed at load time.
type FixtureUser struct {
	ID       string `yaml:"id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Phone    string `yaml:"phone"`
	Age      int    `yaml:"age"`
	Gender   string `yaml:"gender"`
	Location string `yaml:"location"`
}

// FixtureRestaurant mirrors model.Restaurant with yaml tags.
type FixtureRestaurant struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Tags        []string `yaml:"tags"`
	Rating      float64  `yaml:"google_rating"`
	PriceRange  string   `yaml:"price_range"`
	Address     string   `yaml:"address"`
	Description string   `yaml:"description"`
	Phone       string   `yaml:"phone"`
	OpeningTime string   `yaml:"opening_time"`
	ClosingTime string   `yaml:"closing_time"`
	Location    string   `yaml:"location"`
}

// Fixtures is the dev server's seed data.
type Fixtures struct {
	Users       []FixtureUser       `yaml:"users"`
	Restaurants []FixtureRestaurant `yaml:"restaurants"`
}

// LoadFixtures reads a fixture file, falling back to the built-in set
// when path is empty.
func LoadFixtures(path string) (*Fixtures, error) {
	if path == "" {
		return defaultFixtures(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("devserver: read fixtures: %w", err)
	}
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("devserver: parse fixtures: %w", err)
	}
	if len(f.Restaurants) == 0 {
		return nil, fmt.Errorf("devserver: fixture file has no restaurants")
	}
	return &f, nil
}

func (r FixtureRestaurant) toModel() model.Restaurant {
	return model.Restaurant{
		ID:          r.ID,
		Name:        r.Name,
		Tags:        r.Tags,
		Rating:      r.Rating,
		PriceRange:  r.PriceRange,
		Address:     r.Address,
		Description: r.Description,
		Phone:       r.Phone,
		OpeningTime: r.OpeningTime,
		ClosingTime: r.ClosingTime,
		Location:    r.Location,
	}
}

func hashPassword(plain string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("devserver: hash password: %w", err)
	}
	return string(h), nil
}

// defaultFixtures is a small seed set so the server is useful with no
// fixture file at all.
func defaultFixtures() *Fixtures {
	return &Fixtures{
		Users: []FixtureUser{
			{
				ID: "USR_001", Username: "potato", Password: "potato123",
				Name: "Potato Tester", Email: "potato@nomnom.dev",
				Age: 24, Gender: "M", Location: "4.3828, 100.9744",
			},
		},
		Restaurants: []FixtureRestaurant{
			{
				ID: "RST_001", Name: "Nasi Kandar Line Clear", Tags: []string{"Malaysian", "Halal"},
				Rating: 4.3, PriceRange: "RM8.00 - RM15.00", Address: "Jalan Penang",
				Description: "Legendary nasi kandar queue.", Phone: "04-2614440",
				OpeningTime: "08:00", ClosingTime: "22:00", Location: "5.4190,100.3327",
			},
			{
				ID: "RST_002", Name: "Hidden Wok", Tags: []string{"Chinese"},
				Rating: 3.9, PriceRange: "RM12.00 - RM25.00",
				Description: "Wok hei specialists.", OpeningTime: "11:00", ClosingTime: "21:30",
				Location: "4.3850,100.9700",
			},
			{
				ID: "RST_003", Name: "Mamak 24", Tags: []string{"Mamak", "Halal"},
				Rating: 4.0, PriceRange: "RM5.00 - RM12.00",
				Description: "Roti canai all night.", OpeningTime: "00:00", ClosingTime: "00:00",
				Location: "4.3812,100.9689",
			},
			{
				ID: "RST_004", Name: "Teppanyaki Corner", Tags: []string{"Japanese"},
				Rating: 4.5, PriceRange: "RM18.00 - RM35.00",
				OpeningTime: "12:00", ClosingTime: "22:00", Location: "4.3790,100.9732",
			},
			{
				ID: "RST_005", Name: "Kopitiam Seri", Tags: []string{"Kopitiam", "Breakfast"},
				Rating: 3.7, PriceRange: "RM4.00 - RM10.00",
				OpeningTime: "07:00", ClosingTime: "14:00", Location: "4.3844,100.9751",
			},
			{
				ID: "RST_006", Name: "Sate Malam", Tags: []string{"Malaysian", "Grill"},
				Rating: 4.2, PriceRange: "RM10.00 - RM20.00",
				OpeningTime: "22:00", ClosingTime: "02:00", Location: "4.3801,100.9710",
			},
			{
				ID: "RST_007", Name: "Banana Leaf House", Tags: []string{"Indian"},
				Rating: 4.1, PriceRange: "RM9.00 - RM16.00",
				OpeningTime: "10:00", ClosingTime: "21:00", Location: "4.3822,100.9765",
			},
		},
	}
}
