package seed

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hitoshi/propertypulse/internal/model"
	"github.com/hitoshi/propertypulse/internal/repository/repotest"
)

const sampleYAML = `
apartments:
  - apartmentNo: A-101
    floorNo: 1
    blockName: A
    rent: 1200
    image: https://img.example.com/a101.jpg
  - apartmentNo: " B-202 "
    floorNo: 2
    blockName: B
    rent: 1800
`

func TestParse(t *testing.T) {
	apartments, err := Parse(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(apartments) != 2 {
		t.Fatalf("len = %d, want 2", len(apartments))
	}
	first := apartments[0]
	if first.ApartmentNo != "A-101" || first.FloorNo != 1 || first.Rent != 1200 || first.ImageURL != "https://img.example.com/a101.jpg" {
		t.Errorf("first = %+v", first)
	}
	if first.ID == "" || first.CreatedAt.IsZero() {
		t.Error("ID and CreatedAt should be assigned")
	}
	if apartments[1].ApartmentNo != "B-202" {
		t.Errorf("ApartmentNo = %q, want trimmed B-202", apartments[1].ApartmentNo)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"空ファイル", "", "empty"},
		{"apartmentNo無し", "apartments:\n  - rent: 100\n", "apartmentNo is required"},
		{"apartmentNoの重複", "apartments:\n  - apartmentNo: A\n  - apartmentNo: A\n", "duplicate"},
		{"負の家賃", "apartments:\n  - apartmentNo: A\n    rent: -1\n", "negative"},
		{"未知のキー", "apartments:\n  - apartmentNo: A\n    price: 10\n", "price"},
		{"数値でない家賃", "apartments:\n  - apartmentNo: A\n    rent: cheap\n", "parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.yaml))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apartments.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	apartments, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(apartments) != 2 {
		t.Errorf("len = %d, want 2", len(apartments))
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestApply_UpsertsByApartmentNo(t *testing.T) {
	repo := repotest.NewApartments(&model.Apartment{ID: "existing", ApartmentNo: "A-101", Rent: 900})

	apartments, err := Parse(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	n, err := Apply(context.Background(), repo, apartments)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if n != 2 {
		t.Errorf("n = %d, want 2", n)
	}

	total, _ := repo.Count(context.Background(), model.ApartmentFilter{})
	if total != 2 {
		t.Errorf("total = %d, want 2", total)
	}
	updated, _ := repo.FindByID(context.Background(), "existing")
	if updated == nil || updated.Rent != 1200 {
		t.Errorf("existing apartment = %+v, want rent updated to 1200", updated)
	}
}

type failingUpserter struct {
	*repotest.Apartments
	failOn string
}

func (f failingUpserter) Upsert(ctx context.Context, apt *model.Apartment) error {
	if apt.ApartmentNo == f.failOn {
		return errors.New("connection reset")
	}
	return f.Apartments.Upsert(ctx, apt)
}

func TestApply_StopsOnError(t *testing.T) {
	repo := failingUpserter{Apartments: repotest.NewApartments(), failOn: "B-202"}
	apartments, _ := Parse(strings.NewReader(sampleYAML))

	n, err := Apply(context.Background(), repo, apartments)
	if err == nil || !strings.Contains(err.Error(), "B-202") {
		t.Errorf("err = %v, want error mentioning B-202", err)
	}
	if n != 1 {
		t.Errorf("n = %d, want 1", n)
	}
}
