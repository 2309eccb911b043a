// Package fragment maps raw phase records into validated fragments.
package fragment

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/umwelt/internal/models"
	"github.com/starford/umwelt/internal/node"
)

// labelRe is the accepted shape of a fragment body. Bodies become path
// segments and Go identifiers.
var labelRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// Mapper converts decoded JSON or YAML values into fragments.
type Mapper struct{}

// NewMapper creates a Mapper.
func NewMapper() *Mapper {
	return &Mapper{}
}

// Map converts one raw record and validates it.
func (m *Mapper) Map(raw any) (models.Fragment, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return models.Fragment{}, fmt.Errorf("fragment: encode record: %w", err)
	}
	var f models.Fragment
	if err := json.Unmarshal(data, &f); err != nil {
		return models.Fragment{}, fmt.Errorf("fragment: decode record: %w", err)
	}
	if err := Validate(f); err != nil {
		return models.Fragment{}, fmt.Errorf("fragment: record %d: %w", f.ID, err)
	}
	return f, nil
}

// MapAll converts raws in order. The first invalid record fails the batch.
func (m *Mapper) MapAll(raws []any) ([]models.Fragment, error) {
	out := make([]models.Fragment, 0, len(raws))
	for i, raw := range raws {
		f, err := m.Map(raw)
		if err != nil {
			return nil, fmt.Errorf("fragment: index %d: %w", i, err)
		}
		out = append(out, f)
	}
	return out, nil
}

// Validate checks a single fragment. Roots must not have a parent, every
// other kind must.
func Validate(f models.Fragment) error {
	isRoot := f.Kind == models.KindRoot
	return validation.ValidateStruct(&f,
		validation.Field(&f.ID, validation.Required, validation.Min(1)),
		validation.Field(&f.ParentID,
			validation.Min(1),
			validation.When(isRoot, validation.Nil).Else(validation.NotNil),
		),
		validation.Field(&f.Kind, validation.Required, validation.In(models.KindRoot, models.KindSpace, models.KindMember)),
		validation.Field(&f.Body, validation.Required, validation.Match(labelRe), validation.By(notReserved)),
	)
}

// notReserved rejects bodies whose package form is a Go keyword.
func notReserved(value any) error {
	body, _ := value.(string)
	if node.Reserved(body) {
		return errors.New("must not be a Go keyword")
	}
	return nil
}
