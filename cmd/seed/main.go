package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/hobbiz/hobbiz-backend/internal/config"
	"github.com/hobbiz/hobbiz-backend/internal/db"
	"github.com/hobbiz/hobbiz-backend/internal/model"
	"github.com/hobbiz/hobbiz-backend/internal/repository"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type seedAnnouncement struct {
	Title    string
	Price    uint
	Category string
}

func main() {
	jww.SetStdoutThreshold(jww.LevelInfo)
	if err := run(); err != nil {
		jww.FATAL.Fatalf("seed failed: %+v", err)
	}
}

func run() error {
	ctx := context.Background()
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return errors.WithMessage(err, "load config")
	}
	gdb, err := db.Connect(cfg)
	if err != nil {
		return errors.WithMessage(err, "connect db")
	}
	if err := db.Migrate(gdb); err != nil {
		return errors.WithMessage(err, "migrate")
	}

	canSeed, err := shouldSeed(ctx, gdb)
	if err != nil {
		return err
	}
	if !canSeed {
		jww.INFO.Printf("announcements already exist; skipping seed (set FORCE_SEED=true to override)")
		return nil
	}

	owners := seedOwners()
	list := buildSeedAnnouncements()
	err = gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := repository.NewAnnouncementRepository(tx)
		for idx, s := range list {
			a, err := toAnnouncement(s, owners[idx%len(owners)], idx+1)
			if err != nil {
				return err
			}
			if err := repo.Create(ctx, a); err != nil {
				return errors.Wrapf(err, "insert announcement %q", s.Title)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	jww.INFO.Printf("seeded %d announcements for %d owners", len(list), len(owners))
	return nil
}

// seedOwners reads SEED_OWNER_UIDS (comma separated) so the seeded
// announcements belong to accounts that can log in locally.
func seedOwners() []string {
	var owners []string
	for _, o := range strings.Split(os.Getenv("SEED_OWNER_UIDS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			owners = append(owners, o)
		}
	}
	if len(owners) == 0 {
		owners = []string{"seed-seller-1", "seed-seller-2"}
	}
	return owners
}

func buildSeedAnnouncements() []seedAnnouncement {
	type cat struct {
		Slug   string
		Titles []string
		Price  uint
	}
	categories := []cat{
		{Slug: "auto-moto", Price: 1500, Titles: []string{"Cască moto integrală", "Set anvelope iarnă 16\"", "Portbagaj plafon"}},
		{Slug: "electronice", Price: 900, Titles: []string{"Laptop 14\" ușor", "Căști wireless", "Tabletă 64GB", "Monitor 27\""}},
		{Slug: "casa-gradina", Price: 300, Titles: []string{"Masă din lemn masiv", "Covor bumbac 140x200", "Set ghivece ceramică"}},
		{Slug: "moda", Price: 150, Titles: []string{"Geacă de piele", "Rochie de vară", "Adidași alergare"}},
		{Slug: "sport", Price: 400, Titles: []string{"Bicicletă de oraș", "Schiuri all-mountain", "Saltea yoga"}},
		{Slug: "hobby", Price: 200, Titles: []string{"Chitară acustică", "Set acuarele", "Puzzle 1000 piese", "Cameră foto analogică"}},
		{Slug: "copii", Price: 120, Titles: []string{"Cărucior sport", "Set LEGO clasic", "Scaun auto 9-18 kg"}},
		{Slug: "animale", Price: 80, Titles: []string{"Cușcă transport pisică", "Acvariu 60L"}},
	}

	var list []seedAnnouncement
	for _, c := range categories {
		for i, t := range c.Titles {
			list = append(list, seedAnnouncement{
				Title:    t,
				Price:    c.Price + uint((i+1)*25),
				Category: c.Slug,
			})
		}
	}
	return list
}

func toAnnouncement(s seedAnnouncement, owner string, idx int) (*model.Announcement, error) {
	images := []string{picsumURL(s.Category, idx, 1), picsumURL(s.Category, idx, 2)}
	raw, err := json.Marshal(images)
	if err != nil {
		return nil, errors.Wrap(err, "encode images")
	}
	return &model.Announcement{
		ID:       uuid.NewString(),
		OwnerUID: owner,
		Title:    strings.TrimSpace(s.Title),
		Price:    s.Price,
		Images:   datatypes.JSON(raw),
	}, nil
}

func shouldSeed(ctx context.Context, gdb *gorm.DB) (bool, error) {
	var cnt int64
	if err := gdb.WithContext(ctx).Model(&model.Announcement{}).Count(&cnt).Error; err != nil {
		return false, errors.Wrap(err, "count announcements")
	}
	if cnt == 0 {
		return true, nil
	}
	return strings.EqualFold(os.Getenv("FORCE_SEED"), "true"), nil
}

func picsumURL(slug string, idx int, k int) string {
	return fmt.Sprintf("https://picsum.photos/seed/%s-%d-%d/600/600", slug, idx, k)
}
