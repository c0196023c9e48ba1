package wordpress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type EmbeddedFields struct {
	TMDBID int `wp:"person_tmdb_id"`
}

type personFields struct {
	EmbeddedFields
	Name         string
	PlaceOfBirth string `wp:",omitempty"`
	Birthday     *time.Time
	Skipped      string `wp:"-"`
	Roles        []string
	hidden       string
}

func TestFieldsOf(t *testing.T) {
	birthday := time.Date(1963, 12, 18, 0, 0, 0, 0, time.UTC)
	fields := FieldsOf(personFields{
		EmbeddedFields: EmbeddedFields{TMDBID: 287},
		Name:           "Brad Pitt",
		Birthday:       &birthday,
		Skipped:        "nope",
		Roles:          []string{"Tyler Durden"},
		hidden:         "x",
	})

	assert.Equal(t, map[string]any{
		"person_tmdb_id": 287,
		"name":           "Brad Pitt",
		"birthday":       "1963-12-18",
		"roles":          []string{"Tyler Durden"},
	}, fields)
}

func TestFieldsOfPointerAndNil(t *testing.T) {
	assert.Empty(t, FieldsOf[*personFields](nil))
	assert.Equal(t, "Edward Norton", FieldsOf(&personFields{Name: "Edward Norton"})["name"])
	assert.Nil(t, FieldsOf(&personFields{})["birthday"])
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"Name":         "name",
		"PlaceOfBirth": "place_of_birth",
		"TMDBID":       "tmdbid",
		"IMDbURL":      "im_db_url",
		"ProfileURL":   "profile_url",
		"Top10Cast":    "top10_cast",
	}
	for in, want := range tests {
		assert.Equal(t, want, toSnakeCase(in), in)
	}
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "bigscreen-vr", Slugify("Bigscreen VR"))
	assert.Equal(t, "the-room-2003-", Slugify("The Room (2003)!"))
}
