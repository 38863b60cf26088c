package seed

import (
	"fmt"
	"os"
	"strings"

	"rentalhub/internal/database"
	"rentalhub/internal/models"
	"rentalhub/internal/password"

	"gopkg.in/yaml.v2"
)

// Dataset is the content of a fresh document. Passwords may be given in
// plain text; they are hashed when the dataset is converted to a document.
type Dataset struct {
	Users         []models.User         `yaml:"users"`
	Products      []models.Product      `yaml:"products"`
	Bookings      []models.Booking      `yaml:"bookings"`
	Reviews       []models.Review       `yaml:"reviews"`
	Notifications []models.Notification `yaml:"notifications"`
}

// LoadFile reads a YAML fixture.
func LoadFile(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}

	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if err := ds.Validate(); err != nil {
		return nil, fmt.Errorf("fixture %s: %w", path, err)
	}
	return &ds, nil
}

// Validate checks that ids are set and unique per collection.
func (ds *Dataset) Validate() error {
	check := func(name string, ids []int64) error {
		seen := make(map[int64]bool, len(ids))
		for _, id := range ids {
			if id <= 0 {
				return fmt.Errorf("%s: invalid id %d", name, id)
			}
			if seen[id] {
				return fmt.Errorf("%s: duplicate id %d", name, id)
			}
			seen[id] = true
		}
		return nil
	}

	var users, products, bookings, reviews, notifications []int64
	for _, u := range ds.Users {
		users = append(users, u.ID.Int64())
	}
	for _, p := range ds.Products {
		products = append(products, p.ID.Int64())
	}
	for _, b := range ds.Bookings {
		bookings = append(bookings, b.ID.Int64())
	}
	for _, r := range ds.Reviews {
		reviews = append(reviews, int64(r.ID))
	}
	for _, n := range ds.Notifications {
		notifications = append(notifications, int64(n.ID))
	}

	for name, ids := range map[string][]int64{
		database.CollectionUsers:         users,
		database.CollectionProducts:      products,
		database.CollectionBookings:      bookings,
		database.CollectionReviews:       reviews,
		database.CollectionNotifications: notifications,
	} {
		if err := check(name, ids); err != nil {
			return err
		}
	}
	return nil
}

// Document converts the dataset into a store document.
func (ds *Dataset) Document() (database.Document, error) {
	doc := database.EmptyDocument()

	for _, u := range ds.Users {
		if u.Password != "" && !isHashed(u.Password) {
			hashed, err := password.Hash(u.Password)
			if err != nil {
				return nil, err
			}
			u.Password = hashed
		}
		if err := appendRecord(doc, database.CollectionUsers, u); err != nil {
			return nil, err
		}
	}
	for _, p := range ds.Products {
		if p.Features == nil {
			p.Features = []string{}
		}
		if err := appendRecord(doc, database.CollectionProducts, p); err != nil {
			return nil, err
		}
	}
	for _, b := range ds.Bookings {
		if err := appendRecord(doc, database.CollectionBookings, b); err != nil {
			return nil, err
		}
	}
	for _, r := range ds.Reviews {
		if err := appendRecord(doc, database.CollectionReviews, r); err != nil {
			return nil, err
		}
	}
	for _, n := range ds.Notifications {
		if err := appendRecord(doc, database.CollectionNotifications, n); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// Seeder returns a store seeder that loads path, or the default dataset
// when path is empty.
func Seeder(path string) database.Seeder {
	return func() (database.Document, error) {
		if path == "" {
			return Default().Document()
		}
		ds, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		return ds.Document()
	}
}

func appendRecord(doc database.Document, name string, v any) error {
	rec, err := database.ToRecord(v)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	doc[name] = append(doc[name], rec)
	return nil
}

func isHashed(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}
