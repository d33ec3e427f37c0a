// Package seed はYAMLファイルから物件データを読み込み、リポジトリに投入する。
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/propertypulse/internal/model"
	"github.com/hitoshi/propertypulse/internal/repository"
	"gopkg.in/yaml.v3"
)

// File はseedファイルのトップレベル構造。
type File struct {
	Apartments []ApartmentEntry `yaml:"apartments"`
}

// ApartmentEntry はseedファイル内の物件1件。
type ApartmentEntry struct {
	ApartmentNo string `yaml:"apartmentNo"`
	FloorNo     int    `yaml:"floorNo"`
	BlockName   string `yaml:"blockName"`
	Rent        int    `yaml:"rent"`
	Image       string `yaml:"image"`
}

// Parse はYAMLを読み込み、検証済みの物件一覧を返す。未知のキーはエラーにする。
func Parse(r io.Reader) ([]*model.Apartment, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("seed file is empty")
		}
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	now := time.Now()
	seen := make(map[string]bool, len(f.Apartments))
	apartments := make([]*model.Apartment, 0, len(f.Apartments))
	for i, e := range f.Apartments {
		no := strings.TrimSpace(e.ApartmentNo)
		if no == "" {
			return nil, fmt.Errorf("apartments[%d]: apartmentNo is required", i)
		}
		if seen[no] {
			return nil, fmt.Errorf("apartments[%d]: duplicate apartmentNo %q", i, no)
		}
		if e.Rent < 0 {
			return nil, fmt.Errorf("apartments[%d]: rent must not be negative", i)
		}
		seen[no] = true

		apartments = append(apartments, &model.Apartment{
			ID:          uuid.NewString(),
			ApartmentNo: no,
			FloorNo:     e.FloorNo,
			BlockName:   strings.TrimSpace(e.BlockName),
			Rent:        e.Rent,
			ImageURL:    strings.TrimSpace(e.Image),
			CreatedAt:   now,
		})
	}
	return apartments, nil
}

// LoadFile はパスのseedファイルを読み込む。
func LoadFile(path string) ([]*model.Apartment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Apply は物件をapartment_noをキーにupsertし、投入件数を返す。
// 途中で失敗した場合はそれまでの件数とエラーを返す。
func Apply(ctx context.Context, repo repository.ApartmentRepository, apartments []*model.Apartment) (int, error) {
	for i, apt := range apartments {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := repo.Upsert(ctx, apt); err != nil {
			return i, fmt.Errorf("apartment %s: %w", apt.ApartmentNo, err)
		}
	}
	slog.Info("seeded apartments", slog.Int("count", len(apartments)))
	return len(apartments), nil
}
