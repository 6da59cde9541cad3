package validate_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/itemsapi/pkg/validate"
)

type createInput struct {
	Title       validate.Optional[string] `json:"title"       validate:"required,min=1,max=255"`
	Description *string                   `json:"description" validate:"nullable,max=10"`
}

type patchInput struct {
	Title       validate.Optional[string] `json:"title"       validate:"filled,min=1,max=255"`
	Description validate.Optional[string] `json:"description"`
}

func decode(t *testing.T, body string, dest any) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(body), dest))
}

func TestOptionalTracksPresence(t *testing.T) {
	var in patchInput
	decode(t, `{"description":null}`, &in)

	assert.False(t, in.Title.Set)
	assert.True(t, in.Description.Set)
	assert.True(t, in.Description.Null)
	assert.Nil(t, in.Description.Ptr())

	decode(t, `{"title":"Book"}`, &in)
	require.NotNil(t, in.Title.Ptr())
	assert.Equal(t, "Book", *in.Title.Ptr())
}

func TestRequiredOptional(t *testing.T) {
	var in createInput
	decode(t, `{}`, &in)
	errs := validate.Struct(in)
	assert.Equal(t, "The title field is required.", errs["title"])

	in = createInput{}
	decode(t, `{"title":null}`, &in)
	assert.Equal(t, "The title field must not be null.", validate.Struct(in)["title"])

	in = createInput{}
	decode(t, `{"title":""}`, &in)
	assert.Contains(t, validate.Struct(in), "title")

	in = createInput{}
	decode(t, `{"title":"   "}`, &in)
	assert.Equal(t, "The title field is required.", validate.Struct(in)["title"])

	in = createInput{}
	decode(t, `{"title":"Book"}`, &in)
	assert.False(t, validate.HasErrors(validate.Struct(in)))
}

func TestFilledRejectsNullButAllowsAbsent(t *testing.T) {
	var in patchInput
	decode(t, `{}`, &in)
	assert.Empty(t, validate.Struct(in))

	in = patchInput{}
	decode(t, `{"title":null}`, &in)
	assert.Equal(t, "The title field must not be null.", validate.Struct(in)["title"])

	in = patchInput{}
	decode(t, `{"description":null}`, &in)
	assert.Empty(t, validate.Struct(in))

	for _, body := range []string{`{"title":""}`, `{"title":"   "}`, `{"title":"\t\n"}`} {
		in = patchInput{}
		decode(t, body, &in)
		assert.Equal(t, "The title field is required.", validate.Struct(in)["title"], body)
	}
}

func TestMaxLengthCountsRunes(t *testing.T) {
	ok := validate.Some(strings.Repeat("é", 255))
	assert.Empty(t, validate.Struct(patchInput{Title: ok}))

	long := validate.Some(strings.Repeat("a", 256))
	assert.Equal(t, "The title must not exceed 255 characters.", validate.Struct(patchInput{Title: long})["title"])
}

func TestPointerFieldsValidateTarget(t *testing.T) {
	short, long := "ok", "far too long"
	assert.Empty(t, validate.Struct(createInput{Title: validate.Some("x"), Description: &short}))
	assert.Contains(t, validate.Struct(createInput{Title: validate.Some("x"), Description: &long}), "description")
	assert.Empty(t, validate.Struct(createInput{Title: validate.Some("x")}))
}

func TestNumericBounds(t *testing.T) {
	type in struct {
		Skip  int `json:"skip"  validate:"min=0"`
		Limit int `json:"limit" validate:"min=0,max=1000"`
	}
	assert.Equal(t, "The skip must be at least 0.", validate.Struct(in{Skip: -1})["skip"])
	assert.Equal(t, "The limit must not be greater than 1000.", validate.Struct(in{Limit: 1001})["limit"])
	assert.Empty(t, validate.Struct(in{Skip: 5, Limit: 10}))
	assert.Empty(t, validate.Struct(&in{}))
}

func TestInRule(t *testing.T) {
	type in struct {
		Sink string `json:"sink" validate:"required,in=logstash|mongo|none,max=8"`
	}
	assert.Empty(t, validate.Struct(in{Sink: "mongo"}))
	assert.Equal(t, "The selected sink is invalid.", validate.Struct(in{Sink: "kafka"})["sink"])
}

func TestNonStruct(t *testing.T) {
	assert.Empty(t, validate.Struct("nope"))
}

func TestOptionalMarshal(t *testing.T) {
	b, err := json.Marshal(map[string]any{
		"a": validate.Some("x"),
		"b": validate.Null[string](),
		"c": validate.Optional[int]{},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"x","b":null,"c":null}`, string(b))
}
